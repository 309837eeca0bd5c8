package qtree

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ManifestName：分区目录下的清单文件名
const ManifestName = "qTree.json"

// 文档注释：分区清单节点（递归）
// 约束：内部节点为 bbox + nw/ne/sw/se 四个子清单；叶子为 bbox + file（相对分区目录的文件名）。
type Manifest struct {
	BBox *bboxFields `json:"bbox"`
	NW   *Manifest   `json:"nw,omitempty"`
	NE   *Manifest   `json:"ne,omitempty"`
	SW   *Manifest   `json:"sw,omitempty"`
	SE   *Manifest   `json:"se,omitempty"`
	File string      `json:"file,omitempty"`
}

func LeafManifest(b BBox, file string) *Manifest {
	return &Manifest{BBox: fieldsOf(b), File: file}
}

func InternalManifest(b BBox, nw, ne, sw, se *Manifest) *Manifest {
	return &Manifest{BBox: fieldsOf(b), NW: nw, NE: ne, SW: sw, SE: se}
}

// ParseManifest：解码清单；字段校验在 Build 中进行
func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, &ManifestError{Reason: "decode", Err: err}
	}
	return &m, nil
}

// Build：按清单递归构建树形，不读取叶子文件
// 返回：成功时为完整的 Leaf/Internal 树；任一节点不合法时返回 *ManifestError 且不返回部分树
func Build(m *Manifest, dir string) (Node, error) {
	return build(m, dir, "root")
}

func build(m *Manifest, dir, path string) (Node, error) {
	fail := func(format string, args ...any) (Node, error) {
		return nil, &ManifestError{Dir: dir, Path: path, Reason: fmt.Sprintf(format, args...)}
	}
	if m == nil {
		return fail("missing node")
	}
	if m.BBox == nil {
		return fail("missing bbox")
	}
	b, err := m.BBox.resolve()
	if err != nil {
		return fail("%v", err)
	}
	if !b.Valid() {
		return fail("invalid bbox %s", b)
	}
	kids := [4]*Manifest{m.NW, m.NE, m.SW, m.SE}
	have := 0
	for _, k := range kids {
		if k != nil {
			have++
		}
	}
	switch {
	case have == 0:
		if m.File == "" {
			return fail("leaf without file")
		}
		if !filepath.IsLocal(m.File) {
			return fail("leaf file %q escapes partition directory", m.File)
		}
		return NewLeaf(b, filepath.Join(dir, m.File)), nil
	case have < 4:
		return fail("has %d of 4 children", have)
	case m.File != "":
		return fail("internal node with file %q", m.File)
	}
	var nodes [4]Node
	for i, k := range kids {
		c, err := build(k, dir, path+"."+Quadrant(i).String())
		if err != nil {
			return nil, err
		}
		nodes[i] = c
	}
	return NewInternal(b, nodes[NW], nodes[NE], nodes[SW], nodes[SE]), nil
}

// BuildFromDir：读取 dir/qTree.json 并构建树形
func BuildFromDir(dir string) (Node, error) {
	f, err := os.Open(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, &ManifestError{Dir: dir, Reason: "open manifest", Err: err}
	}
	defer f.Close()
	m, err := ParseManifest(f)
	if err != nil {
		if me, ok := err.(*ManifestError); ok {
			me.Dir = dir
		}
		return nil, err
	}
	return Build(m, dir)
}
