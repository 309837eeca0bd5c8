//go:build linux

package memory

import "github.com/prometheus/procfs"

func readSelf() (Usage, error) {
	p, err := procfs.Self()
	if err != nil {
		return Usage{}, err
	}
	st, err := p.NewStatus()
	if err != nil {
		return Usage{}, err
	}
	return Usage{Virtual: st.VmSize, Resident: st.VmRSS}, nil
}
