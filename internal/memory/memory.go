// 包 memory：进程内存观测与超限驱逐。
package memory

import (
	"qtree-api/internal/logger"
	"qtree-api/internal/metrics"
)

// DefaultLimit：虚拟内存驱逐阈值（约 3 GiB）
const DefaultLimit uint64 = 0xBFFFFFFF

// Usage：进程内存（字节）
type Usage struct {
	Virtual  uint64
	Resident uint64
}

// Reader：内存读取函数；不可用的平台返回零值
type Reader func() (Usage, error)

// Evicter：超限时被调用的驱逐方，返回被清空的分区数
type Evicter interface {
	Clear() int
}

// 文档注释：内存监视器
// 约束：Cleanup 在查询路径上同步执行，无后台清扫；读取失败时内存视为 0，不触发驱逐。
type Monitor struct {
	limit uint64
	read  Reader
}

// New：读取 /proc/self/status 的监视器；limit 为 0 时使用 DefaultLimit
func New(limit uint64) *Monitor { return NewWithReader(limit, readSelf) }

func NewWithReader(limit uint64, r Reader) *Monitor {
	if limit == 0 {
		limit = DefaultLimit
	}
	return &Monitor{limit: limit, read: r}
}

func (m *Monitor) Limit() uint64 { return m.limit }

func (m *Monitor) Usage() Usage {
	u, err := m.read()
	if err != nil {
		logger.L().Debug("memory_read_error", "err", err)
		return Usage{}
	}
	return u
}

// Memory：虚拟内存字节数
func (m *Monitor) Memory() uint64 { return m.Usage().Virtual }

// Resident：常驻内存字节数
func (m *Monitor) Resident() uint64 { return m.Usage().Resident }

// Cleanup：虚拟内存超过阈值时调用 e.Clear()；返回是否执行了驱逐
func (m *Monitor) Cleanup(e Evicter) bool {
	u := m.Usage()
	metrics.MemoryBytes.WithLabelValues("virtual").Set(float64(u.Virtual))
	metrics.MemoryBytes.WithLabelValues("resident").Set(float64(u.Resident))
	if u.Virtual <= m.limit {
		return false
	}
	n := e.Clear()
	logger.L().Info("memory_cleanup", "virtual", u.Virtual, "resident", u.Resident, "limit", m.limit, "partitions", n)
	return true
}
