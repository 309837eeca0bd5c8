package qtree

import (
	"encoding/json"
	"fmt"
)

// Point：叶子文件中的一条记录，文件格式为 [lat, lon, value]
type Point struct {
	Lat   float64
	Lon   float64
	Value float64
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{p.Lat, p.Lon, p.Value})
}

// UnmarshalJSON：少于三个数值视为解析失败；多余元素忽略
func (p *Point) UnmarshalJSON(b []byte) error {
	var arr []float64
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	if len(arr) < 3 {
		return fmt.Errorf("point needs [lat, lon, value], got %d values", len(arr))
	}
	p.Lat, p.Lon, p.Value = arr[0], arr[1], arr[2]
	return nil
}
