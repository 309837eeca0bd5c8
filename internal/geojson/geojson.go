// 包 geojson：把查询结果渲染为着色方块的 GeoJSON FeatureCollection。
package geojson

import (
	"errors"
	"fmt"
	"math"

	"qtree-api/internal/qtree"
)

var (
	ErrUnknownRes = errors.New("unknown resolution")
	ErrBadRange   = errors.New("bad value range")
)

// offsets：各分辨率方块的半边长（度）
var offsets = map[string]float64{"1": .5, "2": .25, "4": .125, "10": .05}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
	Geometry   Polygon    `json:"geometry"`
}

type Properties struct {
	Color string `json:"color"`
}

// Polygon：单外环多边形，坐标为 [lon, lat]
type Polygon struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// Offset：分辨率对应的半边长
func Offset(res string) (float64, error) {
	o, ok := offsets[res]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownRes, res)
	}
	return o, nil
}

// ColorIndex：值截断到 [minVal, maxVal] 后归一化取整；minVal == maxVal 时为 0
// 约束：结果恒在 [0, len(colors)-1]；NaN 取 0
func ColorIndex(v, minVal, maxVal float64) int {
	if !(maxVal > minVal) {
		return 0
	}
	v = math.Min(math.Max(v, minVal), maxVal)
	f := math.Round((v - minVal) / (maxVal - minVal) * 255)
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return min(int(math.Min(f, 255)), len(colors)-1)
}

func Color(v, minVal, maxVal float64) string { return colors[ColorIndex(v, minVal, maxVal)] }

// Square：以点为中心、半边长 o 的闭合方环
func Square(p qtree.Point, o float64) [][2]float64 {
	return [][2]float64{
		{p.Lon - o, p.Lat - o},
		{p.Lon - o, p.Lat + o},
		{p.Lon + o, p.Lat + o},
		{p.Lon + o, p.Lat - o},
		{p.Lon - o, p.Lat - o},
	}
}

// 文档注释：每个点渲染为一个方块要素
// 约束：res 不在偏移表内返回 ErrUnknownRes；边界非有限值或 maxVal < minVal 返回 ErrBadRange；pts 为空时 features 为 []。
func Build(pts []qtree.Point, res string, minVal, maxVal float64) (*FeatureCollection, error) {
	o, err := Offset(res)
	if err != nil {
		return nil, err
	}
	if !finite(minVal) || !finite(maxVal) {
		return nil, fmt.Errorf("%w: minVal %g, maxVal %g must be finite", ErrBadRange, minVal, maxVal)
	}
	if maxVal < minVal {
		return nil, fmt.Errorf("%w: maxVal %g < minVal %g", ErrBadRange, maxVal, minVal)
	}
	fc := &FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(pts))}
	for _, p := range pts {
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Properties: Properties{Color: Color(p.Value, minVal, maxVal)},
			Geometry:   Polygon{Type: "Polygon", Coordinates: [][][2]float64{Square(p, o)}},
		})
	}
	return fc, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
