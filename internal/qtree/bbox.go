// 包 qtree：磁盘分片四叉树。树形在构建后只读，叶子点集按需从文件加载，可整树清空并在下次查询时透明重载。
package qtree

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// 文档注释：经纬度包围盒（值类型）
// 约束：MaxLat >= MinLat 且 MaxLon >= MinLon；四条边均为闭区间，边界上的点属于该盒。
type BBox struct {
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
}

func (b BBox) ContainsPoint(p Point) bool {
	return b.MinLat <= p.Lat && p.Lat <= b.MaxLat && b.MinLon <= p.Lon && p.Lon <= b.MaxLon
}

// IntersectEmpty：任一轴严格分离即无交集；仅共享边的两盒不为空
func (b BBox) IntersectEmpty(o BBox) bool {
	return b.MaxLat < o.MinLat || b.MinLat > o.MaxLat || b.MaxLon < o.MinLon || b.MinLon > o.MaxLon
}

// Intersect：两盒重叠部分
// 约束：调用方须先确认 !IntersectEmpty(o)；对分离的盒结果 min > max，不可使用
func (b BBox) Intersect(o BBox) BBox {
	return BBox{
		MaxLat: math.Min(b.MaxLat, o.MaxLat),
		MaxLon: math.Min(b.MaxLon, o.MaxLon),
		MinLat: math.Max(b.MinLat, o.MinLat),
		MinLon: math.Max(b.MinLon, o.MinLon),
	}
}

// Valid：两轴均满足 max >= min（NaN 视为无效）
func (b BBox) Valid() bool {
	return b.MaxLat >= b.MinLat && b.MaxLon >= b.MinLon
}

// FileHandle：叶子文件名前缀，形如 10.00_5.00_5.00_0.00
func (b BBox) FileHandle() string {
	return fmt.Sprintf("%1.2f_%1.2f_%1.2f_%1.2f", b.MaxLat, b.MaxLon, b.MinLat, b.MinLon)
}

func (b BBox) String() string {
	return fmt.Sprintf("{maxLat:%g maxLon:%g minLat:%g minLon:%g}", b.MaxLat, b.MaxLon, b.MinLat, b.MinLon)
}

// bboxFields：清单中的包围盒，指针字段用于识别缺失坐标
type bboxFields struct {
	MaxLat *float64 `json:"maxLat"`
	MaxLon *float64 `json:"maxLon"`
	MinLat *float64 `json:"minLat"`
	MinLon *float64 `json:"minLon"`
}

func fieldsOf(b BBox) *bboxFields {
	return &bboxFields{MaxLat: &b.MaxLat, MaxLon: &b.MaxLon, MinLat: &b.MinLat, MinLon: &b.MinLon}
}

func (f *bboxFields) resolve() (BBox, error) {
	var missing []string
	get := func(name string, v *float64) float64 {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return *v
	}
	b := BBox{
		MaxLat: get("maxLat", f.MaxLat),
		MaxLon: get("maxLon", f.MaxLon),
		MinLat: get("minLat", f.MinLat),
		MinLon: get("minLon", f.MinLon),
	}
	if len(missing) > 0 {
		return BBox{}, fmt.Errorf("bbox missing %s", strings.Join(missing, ","))
	}
	return b, nil
}

func (f *bboxFields) MarshalJSON() ([]byte, error) {
	b, err := f.resolve()
	if err != nil {
		return nil, err
	}
	return json.Marshal(b)
}
