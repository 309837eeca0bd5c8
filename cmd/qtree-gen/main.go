package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"qtree-api/internal/config"
	"qtree-api/internal/logger"
	"qtree-api/internal/qtree"
)

// 文档注释：由扁平点文件生成分区目录（qTree.json + 叶子文件）
// 背景：用于制作测试夹具与小型数据集；输入为 [[lat,lon,value],...]。
// 约束：参数来自环境变量 QT_GEN_INPUT、QT_GEN_OUT、QT_GEN_DEPTH（默认 3）、QT_GEN_BBOX（maxLat,maxLon,minLat,minLon，缺省取点集外包）；
// 也可用位置参数 <input> <outdir> 覆盖前两项。
func main() {
	config.LoadEnvFiles()
	l := logger.Setup()
	in, out := os.Getenv("QT_GEN_INPUT"), os.Getenv("QT_GEN_OUT")
	if len(os.Args) > 2 {
		in, out = os.Args[1], os.Args[2]
	}
	if in == "" || out == "" {
		l.Error("qtree_gen_usage", "hint", "qtree-gen <input.json> <outdir>")
		os.Exit(2)
	}
	depth := 3
	if s := os.Getenv("QT_GEN_DEPTH"); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n >= 0 {
			depth = n
		}
	}
	b, err := os.ReadFile(in)
	if err != nil {
		l.Error("qtree_gen_read_error", "path", in, "err", err)
		os.Exit(1)
	}
	var pts []qtree.Point
	if err := json.Unmarshal(b, &pts); err != nil {
		l.Error("qtree_gen_parse_error", "path", in, "err", err)
		os.Exit(1)
	}
	box, err := bounds(os.Getenv("QT_GEN_BBOX"), pts)
	if err != nil {
		l.Error("qtree_gen_bbox_error", "err", err)
		os.Exit(1)
	}
	root := qtree.BuildFromPoints(box, depth, pts)
	if !root.SanityCheck() {
		l.Warn("qtree_gen_shape_error")
	}
	if err := qtree.WriteDir(root, out); err != nil {
		l.Error("qtree_gen_write_error", "dir", out, "err", err)
		os.Exit(1)
	}
	l.Info("qtree_gen_done", "dir", out, "points", root.NumPoints(), "leaves", len(qtree.Leaves(root)), "bbox", box.String())
}

func bounds(raw string, pts []qtree.Point) (qtree.BBox, error) {
	if raw != "" {
		var b qtree.BBox
		if _, err := fmt.Sscanf(raw, "%g,%g,%g,%g", &b.MaxLat, &b.MaxLon, &b.MinLat, &b.MinLon); err != nil {
			return b, fmt.Errorf("QT_GEN_BBOX %q: %w", raw, err)
		}
		if !b.Valid() {
			return b, fmt.Errorf("QT_GEN_BBOX %q: min exceeds max", raw)
		}
		return b, nil
	}
	if len(pts) == 0 {
		return qtree.BBox{}, fmt.Errorf("no points and no QT_GEN_BBOX")
	}
	b := qtree.BBox{MaxLat: math.Inf(-1), MaxLon: math.Inf(-1), MinLat: math.Inf(1), MinLon: math.Inf(1)}
	for _, p := range pts {
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
	}
	return b, nil
}
