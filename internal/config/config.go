// 包 config：从 .env 与环境变量读取服务配置；解析失败的取值静默回退默认值。
package config

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"qtree-api/internal/catalog"
	"qtree-api/internal/logger"
	"qtree-api/internal/memory"
)

type TLS struct {
	Enable       bool
	CertPath     string
	KeyPath      string
	Redirect     bool
	RedirectAddr string
}

type Config struct {
	Addr    string
	APIBase string

	Catalog     catalog.Options
	MemoryLimit uint64

	CacheTTL      time.Duration
	StatsDBEnable bool
	GeoIPPath     string
	// NearRadius：near=me 时以调用方位置为中心的半边长（度）
	NearRadius float64
	AdminToken string

	RateLimitEnabled bool
	RateLimitQPS     int

	TLS TLS
}

// LoadEnvFiles：依次加载 .env 与 data/env/.env；文件缺失忽略，已存在的环境变量不被覆盖
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// Load：读取全部配置项
func Load() Config {
	def := catalog.DefaultOptions()
	c := Config{
		Addr:    str("ADDR", ":8080"),
		APIBase: str("API_BASE", "/api"),
		Catalog: catalog.Options{
			BaseDir:     str("QT_BASE_DIR", def.BaseDir),
			PrimaryRes:  str("QT_PRIMARY_RES", def.PrimaryRes),
			Resolutions: list("QT_RESOLUTIONS", def.Resolutions),
			Workers:     num("QT_BUILD_WORKERS", def.Workers),
			Preload:     boolEnv("QT_PRELOAD", def.Preload),
		},
		MemoryLimit:      memLimit(),
		CacheTTL:         time.Duration(num("CACHE_TTL_S", 300)) * time.Second,
		StatsDBEnable:    boolEnv("STATS_DB_ENABLE", false),
		GeoIPPath:        str("GEOIP_DB_PATH", filepath.Join("data", "geoip", "GeoLite2-City.mmdb")),
		NearRadius:       floatEnv("QT_NEAR_RADIUS", 2),
		AdminToken:       os.Getenv("ADMIN_TOKEN"),
		RateLimitEnabled: boolEnv("RATE_LIMIT_ENABLED", false),
		RateLimitQPS:     num("RATE_LIMIT_QPS", 200),
		TLS: TLS{
			Enable:       boolEnv("TLS_ENABLE", false),
			CertPath:     str("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
			KeyPath:      str("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
			Redirect:     boolEnv("TLS_REDIRECT_ENABLE", false),
			RedirectAddr: str("TLS_REDIRECT_ADDR", ":80"),
		},
	}
	c.Catalog.Months = catalog.MonthRange(num("QT_YEAR_FROM", 1998), num("QT_YEAR_TO", 2014), extraMonths()...)
	logger.L().Debug("config_loaded", "addr", c.Addr, "api_base", c.APIBase, "base_dir", c.Catalog.BaseDir,
		"primary_res", c.Catalog.PrimaryRes, "months", len(c.Catalog.Months), "memory_limit", c.MemoryLimit)
	return c
}

const defaultExtraMonths = "1997-09,1997-10,1997-11,1997-12,2015-01"

func extraMonths() []catalog.YearMonth {
	var out []catalog.YearMonth
	for _, s := range list("QT_EXTRA_MONTHS", strings.Split(defaultExtraMonths, ",")) {
		ym, err := catalog.ParseYearMonth(s)
		if err != nil {
			logger.L().Warn("config_bad_month", "value", s, "err", err)
			continue
		}
		out = append(out, ym)
	}
	return out
}

// memLimit：QT_MEMORY_LIMIT 支持十进制与 0x 前缀
func memLimit() uint64 {
	if s := os.Getenv("QT_MEMORY_LIMIT"); s != "" {
		if n, err := strconv.ParseUint(s, 0, 64); err == nil && n > 0 {
			return n
		}
	}
	return memory.DefaultLimit
}

func str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func num(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n > 0 {
			return n
		}
	}
	return def
}

func floatEnv(key string, def float64) float64 {
	if s := os.Getenv(key); s != "" {
		if v, e := strconv.ParseFloat(s, 64); e == nil && v > 0 && !math.IsInf(v, 0) {
			return v
		}
	}
	return def
}

func boolEnv(key string, def bool) bool {
	switch os.Getenv(key) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	}
	return def
}

// "" 时与 "QT_EXTRA_MONTHS=" 均回退默认值；逗号分隔，去空项
func list(key string, def []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
