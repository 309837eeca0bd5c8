// 包 geoip：基于 MaxMind City 库按 IP 估算访问者坐标
package geoip

import (
	"net"

	"github.com/oschwald/geoip2-golang"

	"qtree-api/internal/logger"
)

// Reader：mmdb 只读句柄，可并发使用
type Reader struct {
	db *geoip2.Reader
}

func Open(path string) (*Reader, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	logger.L().Info("geoip_open_ok", "path", path, "type", db.Metadata().DatabaseType)
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

// Locate：返回 IP 所在城市的经纬度；非法 IP、库中无记录或坐标缺失时 ok=false
func (r *Reader) Locate(ip string) (lat, lon float64, ok bool) {
	p := net.ParseIP(ip)
	if p == nil {
		return 0, 0, false
	}
	c, err := r.db.City(p)
	if err != nil {
		logger.L().Debug("geoip_lookup_error", "ip", ip, "err", err)
		return 0, 0, false
	}
	if c.Location.Latitude == 0 && c.Location.Longitude == 0 {
		return 0, 0, false
	}
	return c.Location.Latitude, c.Location.Longitude, true
}
