// 包 api：集中注册 HTTP API 路由；目录、监视器与可选依赖由主入口注入
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"qtree-api/internal/catalog"
	"qtree-api/internal/geojson"
	"qtree-api/internal/logger"
	"qtree-api/internal/memory"
	"qtree-api/internal/metrics"
	"qtree-api/internal/qtree"
	"qtree-api/internal/store"
)

// StatsRecorder：查询统计持久化；*store.Store 实现
type StatsRecorder interface {
	RecordQuery(ctx context.Context, year, month, res string, points int, hit bool) error
	GetTotals(ctx context.Context) (*store.Totals, error)
	TopPartitions(ctx context.Context, limit int) ([]store.PartitionCount, error)
}

// 文档注释：路由依赖
// 约束：Catalog 必填；其余为 nil 时对应功能关闭（不驱逐、不缓存、不记统计、near=me 仅认 CDN 地理头）。
type Deps struct {
	Catalog    *catalog.Catalog
	Monitor    *memory.Monitor
	Cache      ResultCache
	CacheTTL   time.Duration
	Stats      StatsRecorder
	Locator    Locator
	NearRadius float64
	AdminToken string
}

type server struct {
	Deps
}

// BuildRoutes：返回带 CORS 的路由，由主入口挂载到 API_BASE 前缀
func BuildRoutes(d Deps) http.Handler {
	s := &server{Deps: d}
	if s.NearRadius <= 0 {
		s.NearRadius = 2
	}
	if s.CacheTTL <= 0 {
		s.CacheTTL = 5 * time.Minute
	}
	mux := http.NewServeMux()
	s.handle(mux, "show_tree", s.showTree)
	s.handle(mux, "get_times", s.getTimes)
	s.handle(mux, "get_values", s.getValues)
	s.handle(mux, "get_geojson", s.getGeoJSON)
	s.handle(mux, "load", s.load)
	s.handle(mux, "entries", s.entries)
	s.handle(mux, "find", s.find)
	s.handle(mux, "stats", s.stats)
	return cors(mux)
}

func (s *server) handle(mux *http.ServeMux, name string, h http.HandlerFunc) {
	mux.HandleFunc("GET /"+name, func(w http.ResponseWriter, r *http.Request) {
		metrics.RequestsTotal.WithLabelValues(name).Inc()
		h(w, r)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Admin-Token")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, b []byte) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	_, _ = w.Write(b)
}

func writeText(w http.ResponseWriter, status int, s string) {
	w.Header().Set("content-type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(s))
}

func noData(year, month, res string) string {
	return fmt.Sprintf("No data for %s/%s, resolution %s", month, year, res)
}

// cleanup：每次查询后同步检查内存，超限时驱逐非主分辨率分区
func (s *server) cleanup() {
	if s.Monitor != nil {
		s.Monitor.Cleanup(s.Catalog)
	}
}

func (s *server) memory() uint64 {
	if s.Monitor == nil {
		return 0
	}
	return s.Monitor.Memory()
}

func (s *server) record(ctx context.Context, q query, res catalog.QueryResult) {
	if s.Stats == nil {
		return
	}
	if err := s.Stats.RecordQuery(ctx, q.Year, q.Month, q.Res, res.Count, res.Found); err != nil {
		logger.L().Debug("stats_record_error", "err", err)
	}
}

// search：查询 + 统计 + 驱逐；ctx 取消时返回错误，调用方直接放弃响应
func (s *server) search(ctx context.Context, q query) (catalog.QueryResult, error) {
	res, err := s.Catalog.FindPointsMulti(ctx, q.Boxes, q.Year, q.Month, q.Res)
	if err != nil {
		logger.L().Debug("query_canceled", "year", q.Year, "month", q.Month, "res", q.Res, "err", err)
		return res, err
	}
	s.record(ctx, q, res)
	s.cleanup()
	return res, nil
}

func (s *server) showTree(w http.ResponseWriter, r *http.Request) {
	year, month, res, err := partitionParams(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	root := s.Catalog.GetQt(year, month, res)
	if root == nil {
		writeText(w, http.StatusNotFound, noData(year, month, res))
		return
	}
	writeJSON(w, http.StatusOK, qtree.Dump(root))
}

func (s *server) getTimes(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.search(r.Context(), q)
	if err != nil {
		return
	}
	if !res.Found {
		writeText(w, http.StatusNotFound, noData(q.Year, q.Month, q.Res))
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("found %d points in %f milliseconds memory is %d", res.Count, res.ElapsedMs, s.memory()))
}

// getValues：命中的响应按 (分区, 框) 缓存；未命中分区返回 [] 且不缓存
func (s *server) getValues(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()
	key := cacheKey(q)
	if s.Cache != nil {
		if b, ok := s.Cache.Get(ctx, key); ok {
			metrics.CacheHitsTotal.Inc()
			writeRawJSON(w, b)
			return
		}
		metrics.CacheMissesTotal.Inc()
	}
	res, err := s.search(ctx, q)
	if err != nil {
		return
	}
	pts := res.Points
	if pts == nil {
		pts = []qtree.Point{}
	}
	b, err := json.Marshal(pts)
	if err != nil {
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res.Found && s.Cache != nil {
		s.Cache.Set(ctx, key, b, s.CacheTTL)
	}
	writeRawJSON(w, b)
}

func (s *server) getGeoJSON(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	v := r.URL.Query()
	minVal, err1 := strconv.ParseFloat(v.Get("minVal"), 64)
	maxVal, err2 := strconv.ParseFloat(v.Get("maxVal"), 64)
	if err1 != nil || err2 != nil {
		writeText(w, http.StatusBadRequest, "minVal and maxVal must be numbers")
		return
	}
	if _, err := geojson.Build(nil, q.Res, minVal, maxVal); err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.search(r.Context(), q)
	if err != nil {
		return
	}
	fc, err := geojson.Build(res.Points, q.Res, minVal, maxVal)
	if err != nil {
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

// load：强制（重新）读取一个分区的全部叶子；配置了 ADMIN_TOKEN 时需 x-admin-token
func (s *server) load(w http.ResponseWriter, r *http.Request) {
	if s.AdminToken != "" && r.Header.Get("x-admin-token") != s.AdminToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	year, month, res, err := partitionParams(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	err = s.Catalog.Load(year, month, res)
	if errors.Is(err, catalog.ErrNotFound) {
		writeText(w, http.StatusNotFound, noData(year, month, res))
		return
	}
	s.cleanup()
	if err != nil {
		logger.L().Warn("partition_load_error", "year", year, "month", month, "res", res, "err", err)
		writeText(w, http.StatusInternalServerError, fmt.Sprintf("%s/%s resolution %s loaded with errors: %v", month, year, res, err))
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("%s/%s resolution %s loaded, memory is %d", month, year, res, s.memory()))
}

func (s *server) entries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Catalog.AllEntries())
}

// find：目录级查询结果；未命中分区时 200 + found=false + 已知分区列表
func (s *server) find(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.search(r.Context(), q)
	if err != nil {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type memoryStats struct {
	Virtual  uint64 `json:"virtual"`
	Resident uint64 `json:"resident"`
	Limit    uint64 `json:"limit"`
}

type statsResponse struct {
	Catalog catalog.Stats          `json:"catalog"`
	Memory  *memoryStats           `json:"memory,omitempty"`
	Queries *store.Totals          `json:"queries,omitempty"`
	Top     []store.PartitionCount `json:"top,omitempty"`
}

func (s *server) stats(w http.ResponseWriter, r *http.Request) {
	out := statsResponse{Catalog: s.Catalog.Stats()}
	if s.Monitor != nil {
		u := s.Monitor.Usage()
		out.Memory = &memoryStats{Virtual: u.Virtual, Resident: u.Resident, Limit: s.Monitor.Limit()}
	}
	if s.Stats != nil {
		ctx := r.Context()
		if t, err := s.Stats.GetTotals(ctx); err == nil {
			out.Queries = t
		} else {
			logger.L().Debug("stats_totals_error", "err", err)
		}
		if top, err := s.Stats.TopPartitions(ctx, 10); err == nil {
			out.Top = top
		} else {
			logger.L().Debug("stats_top_error", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, out)
}
