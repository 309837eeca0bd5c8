package qtree

import (
	"encoding/json"
	"os"
	"sync"

	"qtree-api/internal/logger"
	"qtree-api/internal/metrics"
)

// 文档注释：叶子节点，点集由备份文件按需加载
// 约束：points 与 loaded 仅在 mu 持有时读写；已加载叶子的扫描只持读锁，
// 加载与清空持写锁，同一叶子的并发首次查询只读一次磁盘。path 为空表示纯内存叶子，不参与加载与清空。
type Leaf struct {
	bbox BBox
	path string

	mu     sync.RWMutex
	points []Point
	loaded bool
}

// NewLeaf：以备份文件创建未加载叶子
func NewLeaf(bbox BBox, path string) *Leaf {
	return &Leaf{bbox: bbox, path: path}
}

// newMemoryLeaf：无备份文件的已加载叶子，点通过 addPoint 写入
func newMemoryLeaf(bbox BBox) *Leaf {
	return &Leaf{bbox: bbox, loaded: true}
}

func (l *Leaf) BBox() BBox   { return l.bbox }
func (l *Leaf) Path() string { return l.path }

func (l *Leaf) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

func (l *Leaf) NumPoints() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.points)
}

// state：同一把锁下读取加载标记与点数
func (l *Leaf) state() (loaded bool, n int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded, len(l.points)
}

func (l *Leaf) FindPoints(q BBox) []Point { return find(l, q, nil) }

func (l *Leaf) appendMatches(q BBox, out []Point) []Point {
	l.mu.RLock()
	if l.loaded || l.path == "" {
		defer l.mu.RUnlock()
		return l.scanLocked(q, out)
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.loaded {
		_ = l.loadLocked()
	}
	return l.scanLocked(q, out)
}

func (l *Leaf) scanLocked(q BBox, out []Point) []Point {
	if l.bbox.IntersectEmpty(q) {
		return out
	}
	ib := l.bbox.Intersect(q)
	for _, p := range l.points {
		if ib.ContainsPoint(p) {
			out = append(out, p)
		}
	}
	return out
}

func (l *Leaf) Load() error {
	if l.path == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked()
}

func (l *Leaf) loadLocked() error {
	b, err := os.ReadFile(l.path)
	if err != nil {
		l.points = nil
		l.loaded = false
		metrics.LeafLoadsTotal.WithLabelValues("io_error").Inc()
		logger.L().Warn("leaf_load_io_error", "file", l.path, "err", err)
		return &LeafLoadError{Kind: IOFailure, Path: l.path, Err: err}
	}
	var pts []Point
	if err := json.Unmarshal(b, &pts); err != nil {
		l.points = nil
		l.loaded = true
		metrics.LeafLoadsTotal.WithLabelValues("parse_error").Inc()
		logger.L().Warn("leaf_load_parse_error", "file", l.path, "err", err)
		return &LeafLoadError{Kind: ParseFailure, Path: l.path, Err: err}
	}
	l.points = pts
	l.loaded = true
	metrics.LeafLoadsTotal.WithLabelValues("ok").Inc()
	logger.L().Debug("leaf_load", "file", l.path, "points", len(pts))
	return nil
}

func (l *Leaf) Clear() {
	if l.path == "" {
		return
	}
	l.mu.Lock()
	l.points = nil
	l.loaded = false
	l.mu.Unlock()
}

func (l *Leaf) addPoint(p Point) {
	if !l.bbox.ContainsPoint(p) {
		logger.L().Warn("leaf_add_point_outside", "lat", p.Lat, "lon", p.Lon, "bbox", l.bbox.String())
		return
	}
	l.mu.Lock()
	l.points = append(l.points, p)
	l.mu.Unlock()
}

// SanityCheck：已加载点必须全部落在包围盒内；越界仅记录诊断
func (l *Leaf) SanityCheck() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ok := true
	for _, p := range l.points {
		if !l.bbox.ContainsPoint(p) {
			ok = false
			err := &ShapeError{Reason: "point outside leaf", BBox: l.bbox}
			logger.L().Warn("shape_error", "err", err, "lat", p.Lat, "lon", p.Lon, "file", l.path)
		}
	}
	return ok
}

// snapshot：当前点集副本
func (l *Leaf) snapshot() []Point {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Point(nil), l.points...)
}
