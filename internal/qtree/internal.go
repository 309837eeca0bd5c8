package qtree

import (
	"errors"

	"qtree-api/internal/logger"
)

// Quadrant：子节点象限，顺序即查询与清单中的子节点顺序
type Quadrant int

const (
	NW Quadrant = iota
	NE
	SW
	SE
)

var quadrantNames = [4]string{"nw", "ne", "sw", "se"}

func (q Quadrant) String() string { return quadrantNames[q] }

// 文档注释：内部节点，恰有 NW/NE/SW/SE 四个子节点
// 约束：子盒无缝、无重叠地平铺父盒；北侧子节点 minLat 不小于对应南侧子节点，东侧子节点 minLon 不小于对应西侧子节点。
type Internal struct {
	bbox BBox
	kids [4]Node
}

func NewInternal(bbox BBox, nw, ne, sw, se Node) *Internal {
	return &Internal{bbox: bbox, kids: [4]Node{nw, ne, sw, se}}
}

func (n *Internal) BBox() BBox                { return n.bbox }
func (n *Internal) Child(q Quadrant) Node     { return n.kids[q] }
func (n *Internal) FindPoints(q BBox) []Point { return find(n, q, nil) }

func (n *Internal) NumPoints() int {
	s := 0
	for _, c := range n.kids {
		s += c.NumPoints()
	}
	return s
}

// Load：加载全部子树；各叶子错误合并返回，单个失败不影响其它叶子
func (n *Internal) Load() error {
	var errs []error
	for _, c := range n.kids {
		if err := c.Load(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Internal) Clear() {
	for _, c := range n.kids {
		c.Clear()
	}
}

// addPoint：交给首个包含该点的子节点；父盒包含而子盒都不包含说明树形有缺陷，记录后丢弃
func (n *Internal) addPoint(p Point) {
	if !n.bbox.ContainsPoint(p) {
		return
	}
	for _, c := range n.kids {
		if c.BBox().ContainsPoint(p) {
			c.addPoint(p)
			return
		}
	}
	err := &ShapeError{Reason: "no child contains point", BBox: n.bbox}
	logger.L().Warn("shape_error", "err", err, "lat", p.Lat, "lon", p.Lon)
}

// SanityCheck：校验象限次序；本节点记录首个违规，仍继续检查全部子孙
func (n *Internal) SanityCheck() bool {
	ok := n.checkOrder()
	for _, c := range n.kids {
		if !c.SanityCheck() {
			ok = false
		}
	}
	return ok
}

func (n *Internal) checkOrder() bool {
	rules := []struct {
		a, b  Quadrant
		valid bool
	}{
		{NW, SW, n.kids[NW].BBox().MinLat >= n.kids[SW].BBox().MinLat},
		{NE, SE, n.kids[NE].BBox().MinLat >= n.kids[SE].BBox().MinLat},
		{NE, NW, n.kids[NE].BBox().MinLon >= n.kids[NW].BBox().MinLon},
		{SE, SW, n.kids[SE].BBox().MinLon >= n.kids[SW].BBox().MinLon},
	}
	for _, r := range rules {
		if r.valid {
			continue
		}
		err := &ShapeError{Reason: r.a.String() + "/" + r.b.String() + " out of order", BBox: n.bbox}
		logger.L().Warn("shape_error", "err", err,
			r.a.String(), n.kids[r.a].BBox().String(),
			r.b.String(), n.kids[r.b].BBox().String(),
		)
		return false
	}
	return true
}
