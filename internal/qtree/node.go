package qtree

// 文档注释：四叉树节点（封闭变体）
// 约束：仅 *Leaf 与 *Internal 实现；未导出方法 addPoint 阻止包外实现。
// 树形（分支与包围盒）构建后不可变，可在并发查询间无锁共享；只有叶子的点集与加载标记可变。
type Node interface {
	BBox() BBox
	// FindPoints 返回落在 q 内的点；结果为新切片，调用方可在清空后继续持有
	FindPoints(q BBox) []Point
	// Load 强制（重新）读取子树下全部叶子文件
	Load() error
	// Clear 丢弃已加载点集，保留树形
	Clear()
	SanityCheck() bool
	// NumPoints 当前已加载的点数，不触发加载
	NumPoints() int

	addPoint(p Point)
}

var (
	_ Node = (*Leaf)(nil)
	_ Node = (*Internal)(nil)
)

// find：唯一的递归查询路径，按变体分派
// 约束：内部节点按 NW、NE、SW、SE 顺序下探；子盒与 q 分离时跳过，否则以交集继续。
// 子盒平铺父盒且互不重叠，各子树结果天然不相交，不做去重。
func find(n Node, q BBox, out []Point) []Point {
	switch x := n.(type) {
	case *Leaf:
		return x.appendMatches(q, out)
	case *Internal:
		for _, c := range x.kids {
			cb := c.BBox()
			if cb.IntersectEmpty(q) {
				continue
			}
			out = find(c, cb.Intersect(q), out)
		}
	}
	return out
}

// Walk：先序遍历；fn 返回 false 时跳过该节点的子树
func Walk(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	if in, ok := n.(*Internal); ok {
		for _, c := range in.kids {
			Walk(c, fn)
		}
	}
}

// Leaves：按遍历顺序返回全部叶子
func Leaves(n Node) []*Leaf {
	var out []*Leaf
	Walk(n, func(x Node) bool {
		if l, ok := x.(*Leaf); ok {
			out = append(out, l)
		}
		return true
	})
	return out
}

// LoadedLeaves：已加载叶子数
func LoadedLeaves(n Node) int {
	c := 0
	for _, l := range Leaves(n) {
		if l.Loaded() {
			c++
		}
	}
	return c
}
