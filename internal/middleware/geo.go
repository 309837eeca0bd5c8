package middleware

import (
	"context"
	"net/http"
	"strconv"

	"qtree-api/internal/logger"
)

// Geo：CDN 回源头中携带的访问者位置
type Geo struct {
	ClientIP string
	Country  string
	City     string
	Lat      float64
	Lon      float64
}

type geoKey struct{}

func withGeo(ctx context.Context, g Geo) context.Context {
	return context.WithValue(ctx, geoKey{}, g)
}

// GeoFrom：读取 Wrap 注入的位置；无可用经纬度时 ok=false
func GeoFrom(ctx context.Context) (Geo, bool) {
	g, ok := ctx.Value(geoKey{}).(Geo)
	return g, ok
}

// 文档注释：解析 EdgeOne 地理回源头
// 约束：经纬度两项都存在且可解析才视为有效；其余字段仅用于日志。
func parseEdgeGeo(r *http.Request) (Geo, bool) {
	h := r.Header
	las, los := h.Get("X-EO-Geo-Latitude"), h.Get("X-EO-Geo-Longitude")
	if las == "" || los == "" {
		return Geo{}, false
	}
	lat, err1 := strconv.ParseFloat(las, 64)
	lon, err2 := strconv.ParseFloat(los, 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Geo{}, false
	}
	g := Geo{
		ClientIP: h.Get("X-EO-Client-IP"),
		Country:  h.Get("X-EO-Geo-Country"),
		City:     h.Get("X-EO-Geo-City"),
		Lat:      lat,
		Lon:      lon,
	}
	logger.L().Debug("edge_geo_parse", "ip", g.ClientIP, "country", g.Country, "city", g.City, "lat", g.Lat, "lon", g.Lon)
	return g, true
}
