package qtree

import "path/filepath"

// TreeDump：树形结构导出（/show_tree 的响应体）
type TreeDump struct {
	BBox   BBox      `json:"bbox"`
	NW     *TreeDump `json:"nw,omitempty"`
	NE     *TreeDump `json:"ne,omitempty"`
	SW     *TreeDump `json:"sw,omitempty"`
	SE     *TreeDump `json:"se,omitempty"`
	File   string    `json:"file,omitempty"`
	Loaded *bool     `json:"loaded,omitempty"`
	Points int       `json:"pts"`
}

// Dump：导出树形与每个叶子当前已加载的点数；不触发加载
func Dump(n Node) *TreeDump {
	switch x := n.(type) {
	case *Leaf:
		loaded, n := x.state()
		d := &TreeDump{BBox: x.bbox, Loaded: &loaded, Points: n}
		if x.path != "" {
			d.File = filepath.Base(x.path)
		}
		return d
	case *Internal:
		d := &TreeDump{
			BBox: x.bbox,
			NW:   Dump(x.kids[NW]),
			NE:   Dump(x.kids[NE]),
			SW:   Dump(x.kids[SW]),
			SE:   Dump(x.kids[SE]),
		}
		d.Points = d.NW.Points + d.NE.Points + d.SW.Points + d.SE.Points
		return d
	}
	return nil
}
