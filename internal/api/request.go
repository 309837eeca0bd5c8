package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"qtree-api/internal/middleware"
	"qtree-api/internal/qtree"
)

const maxBoxes = 64

type query struct {
	Year, Month, Res string
	Boxes            []qtree.BBox
}

type corner struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type boxDesc struct {
	NW *corner `json:"nw"`
	SE *corner `json:"se"`
}

func (c *corner) complete() bool { return c != nil && c.Lat != nil && c.Lon != nil }

// 文档注释：解析 bboxes 参数
// 约束：形如 [{"nw":{"lat":..,"lon":..},"se":{"lat":..,"lon":..}}]；nw 给出 maxLat/minLon，se 给出 minLat/maxLon。
func parseBBoxes(raw string) ([]qtree.BBox, error) {
	var descs []boxDesc
	if err := json.Unmarshal([]byte(raw), &descs); err != nil {
		return nil, fmt.Errorf("bboxes: %w", err)
	}
	if len(descs) > maxBoxes {
		return nil, fmt.Errorf("bboxes: at most %d boxes", maxBoxes)
	}
	out := make([]qtree.BBox, 0, len(descs))
	for i, d := range descs {
		if !d.NW.complete() || !d.SE.complete() {
			return nil, fmt.Errorf("bboxes[%d]: nw and se need lat and lon", i)
		}
		b := qtree.BBox{MaxLat: *d.NW.Lat, MaxLon: *d.SE.Lon, MinLat: *d.SE.Lat, MinLon: *d.NW.Lon}
		if !b.Valid() {
			return nil, fmt.Errorf("bboxes[%d]: nw must be north-west of se", i)
		}
		out = append(out, b)
	}
	return out, nil
}

func partitionParams(r *http.Request) (year, month, res string, err error) {
	v := r.URL.Query()
	year, month, res = v.Get("year"), v.Get("month"), v.Get("res")
	if year == "" || month == "" || res == "" {
		return "", "", "", errors.New("year, month and res are required")
	}
	return year, month, res, nil
}

// parseQuery：near=me 时在 bboxes 之前追加以访问者为中心的框
func (s *server) parseQuery(r *http.Request) (query, error) {
	var q query
	var err error
	if q.Year, q.Month, q.Res, err = partitionParams(r); err != nil {
		return q, err
	}
	v := r.URL.Query()
	if v.Get("near") == "me" {
		b, ok := s.nearBox(r)
		if !ok {
			return q, errors.New("caller location unknown")
		}
		q.Boxes = append(q.Boxes, b)
	}
	if raw := v.Get("bboxes"); raw != "" {
		bs, err := parseBBoxes(raw)
		if err != nil {
			return q, err
		}
		q.Boxes = append(q.Boxes, bs...)
	}
	if len(q.Boxes) == 0 {
		return q, errors.New("bboxes required")
	}
	return q, nil
}

// Locator：按 IP 估算坐标
type Locator interface {
	Locate(ip string) (lat, lon float64, ok bool)
}

// nearBox：优先 CDN 地理头，其次 Locator；框截断到合法经纬度范围
func (s *server) nearBox(r *http.Request) (qtree.BBox, bool) {
	var lat, lon float64
	if g, ok := middleware.GeoFrom(r.Context()); ok {
		lat, lon = g.Lat, g.Lon
	} else if s.Locator != nil {
		if lat, lon, ok = s.Locator.Locate(clientIP(r)); !ok {
			return qtree.BBox{}, false
		}
	} else {
		return qtree.BBox{}, false
	}
	d := s.NearRadius
	return qtree.BBox{
		MaxLat: min(lat+d, 90),
		MaxLon: min(lon+d, 180),
		MinLat: max(lat-d, -90),
		MinLon: max(lon-d, -180),
	}, true
}
