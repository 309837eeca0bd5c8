package qtree

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// BuildFromPoints：按规则细分 depth 层构建纯内存树，再逐点插入
// 约束：depth <= 0 时返回单个叶子；落在共享边上的点归入按 NW、NE、SW、SE 顺序首个包含它的子节点，不会重复
func BuildFromPoints(b BBox, depth int, pts []Point) Node {
	root := subdivide(b, depth)
	for _, p := range pts {
		root.addPoint(p)
	}
	return root
}

func subdivide(b BBox, depth int) Node {
	if depth <= 0 {
		return newMemoryLeaf(b)
	}
	midLat := (b.MaxLat + b.MinLat) / 2
	midLon := (b.MaxLon + b.MinLon) / 2
	return NewInternal(b,
		subdivide(BBox{MaxLat: b.MaxLat, MaxLon: midLon, MinLat: midLat, MinLon: b.MinLon}, depth-1),
		subdivide(BBox{MaxLat: b.MaxLat, MaxLon: b.MaxLon, MinLat: midLat, MinLon: midLon}, depth-1),
		subdivide(BBox{MaxLat: midLat, MaxLon: midLon, MinLat: b.MinLat, MinLon: b.MinLon}, depth-1),
		subdivide(BBox{MaxLat: midLat, MaxLon: b.MaxLon, MinLat: b.MinLat, MinLon: midLon}, depth-1),
	)
}

// WriteDir：把树写成分区目录（qTree.json + 每个叶子一个点文件）
// 约束：叶子文件名为 <FileHandle>-csv.json；同名叶子（包围盒相同）会互相覆盖
func WriteDir(n Node, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	m, err := writeNode(n, dir)
	if err != nil {
		return err
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestName), b, 0o644)
}

func writeNode(n Node, dir string) (*Manifest, error) {
	switch x := n.(type) {
	case *Leaf:
		name := x.bbox.FileHandle() + "-csv.json"
		pts := x.snapshot()
		if pts == nil {
			pts = []Point{}
		}
		b, err := json.Marshal(pts)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			return nil, err
		}
		return LeafManifest(x.bbox, name), nil
	case *Internal:
		var kids [4]*Manifest
		for i, c := range x.kids {
			m, err := writeNode(c, dir)
			if err != nil {
				return nil, err
			}
			kids[i] = m
		}
		return InternalManifest(x.bbox, kids[NW], kids[NE], kids[SW], kids[SE]), nil
	}
	return nil, nil
}
