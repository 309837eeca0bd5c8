package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qtree_requests_total",
		Help: "Total number of API requests by endpoint",
	}, []string{"endpoint"})
	QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qtree_queries_total",
		Help: "Catalog range queries by result (hit/miss)",
	}, []string{"result"})
	QueryDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "qtree_query_duration_ms",
		Help:    "Catalog range query duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	QueryPointsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qtree_query_points_total",
		Help: "Total number of points returned by range queries",
	})
	LeafLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qtree_leaf_loads_total",
		Help: "Leaf file loads by outcome (ok/io_error/parse_error)",
	}, []string{"outcome"})
	PartitionBuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qtree_partition_builds_total",
		Help: "Partition tree builds by outcome (ok/error)",
	}, []string{"outcome"})
	EvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qtree_evictions_total",
		Help: "Catalog-wide evictions of non-primary partitions",
	})
	MemoryBytes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "qtree_process_memory_bytes",
		Help: "Process memory observed by the eviction monitor",
	}, []string{"kind"})
	PartitionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "qtree_partitions",
		Help: "Partitions currently held by the catalog",
	})
	LoadedLeavesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "qtree_loaded_leaves",
		Help: "Leaves whose point data is resident",
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qtree_cache_hits_total",
		Help: "Response cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qtree_cache_misses_total",
		Help: "Response cache misses",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDurationMs)
	prometheus.MustRegister(QueryPointsTotal)
	prometheus.MustRegister(LeafLoadsTotal)
	prometheus.MustRegister(PartitionBuildsTotal)
	prometheus.MustRegister(EvictionsTotal)
	prometheus.MustRegister(MemoryBytes)
	prometheus.MustRegister(PartitionsGauge)
	prometheus.MustRegister(LoadedLeavesGauge)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// 文档注释：返回 Prometheus 指标处理器，由主入口挂载到 API_BASE/metrics
func Handler() http.Handler { return promhttp.Handler() }
