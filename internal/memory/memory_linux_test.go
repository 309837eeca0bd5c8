//go:build linux

package memory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"qtree-api/internal/memory"
)

func TestMonitor_readsProcSelf(t *testing.T) {
	t.Parallel()

	m := memory.New(memory.DefaultLimit)
	u := m.Usage()

	require.Positive(t, u.Virtual)
	require.Positive(t, u.Resident)
	require.GreaterOrEqual(t, u.Virtual, u.Resident)
}
