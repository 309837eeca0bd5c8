package qtree

import (
	"errors"
	"fmt"
)

var (
	ErrIO    = errors.New("leaf io failure")
	ErrParse = errors.New("leaf parse failure")
)

// LoadFailure：叶子加载失败类型
// 约束：IOFailure 后叶子保持未加载（下次查询重试）；ParseFailure 后叶子标记为已加载的空叶子，不再重试
type LoadFailure int

const (
	IOFailure LoadFailure = iota + 1
	ParseFailure
)

func (k LoadFailure) String() string {
	switch k {
	case IOFailure:
		return "io_failure"
	case ParseFailure:
		return "parse_failure"
	}
	return "unknown"
}

// LeafLoadError：叶子文件读取或解析失败；可用 errors.Is(err, ErrIO / ErrParse) 区分
type LeafLoadError struct {
	Kind LoadFailure
	Path string
	Err  error
}

func (e *LeafLoadError) Error() string {
	return fmt.Sprintf("load leaf %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *LeafLoadError) Unwrap() []error {
	switch e.Kind {
	case IOFailure:
		return []error{ErrIO, e.Err}
	case ParseFailure:
		return []error{ErrParse, e.Err}
	}
	return []error{e.Err}
}

// ManifestError：分区清单缺字段或结构不一致；Path 为象限路径，如 root.nw.se
type ManifestError struct {
	Dir    string
	Path   string
	Reason string
	Err    error
}

func (e *ManifestError) Error() string {
	s := "manifest " + e.Dir
	if e.Path != "" {
		s += " at " + e.Path
	}
	s += ": " + e.Reason
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ManifestError) Unwrap() error { return e.Err }

// ShapeError：树形不变量被破坏（象限次序、点越界）；仅用于诊断日志，不阻断服务
type ShapeError struct {
	Reason string
	BBox   BBox
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape error in %s: %s", e.BBox, e.Reason)
}
