package catalog

import (
	"time"

	"qtree-api/internal/qtree"
)

// Partition：一个 (year, month, res) 数据集及其树根
// 约束：构建后不从目录移除；只有叶子的加载状态会变化
type Partition struct {
	Key     Key
	Dir     string
	Root    qtree.Node
	BuiltAt time.Time
}

// Primary：是否属于常驻内存的主分辨率
func (p *Partition) Primary(res string) bool { return p.Key.Res == res }
