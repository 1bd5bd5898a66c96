package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "llur_requests_total",
		Help: "Total number of API requests",
	})
	RequestDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "llur_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	FeaturesLoadedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llur_features_loaded_total",
		Help: "Total features streamed from the attribute store",
	}, []string{"layer"})
	ReflexivePrunedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "llur_reflexive_pruned_total",
		Help: "Total reflexive self-intersection records discarded",
	})
	PairsGenuineTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "llur_pairs_genuine_total",
		Help: "Total overlap pairs classified as genuine nesting",
	})
	PairsArtifactTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "llur_pairs_artifact_total",
		Help: "Total overlap pairs classified as digitisation artifacts",
	})
	ResolveDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "llur_resolve_duration_ms",
		Help:    "Self-overlap resolution duration in milliseconds",
		Buckets: []float64{10, 50, 100, 500, 1000, 5000, 30000, 120000},
	})
	FusionRowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "llur_fusion_rows_total",
		Help: "Total fusion records produced by cross-layer intersection",
	})
	FusionRowsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "llur_fusion_rows_deleted_total",
		Help: "Total fusion records deleted below the overlap threshold",
	})
	FuseDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "llur_fuse_duration_ms",
		Help:    "Layer fusion duration in milliseconds",
		Buckets: []float64{10, 50, 100, 500, 1000, 5000, 30000, 120000},
	})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "llur_redis_hits_total",
		Help: "Total redis summary cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "llur_redis_misses_total",
		Help: "Total redis summary cache misses",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(FeaturesLoadedTotal)
	prometheus.MustRegister(ReflexivePrunedTotal)
	prometheus.MustRegister(PairsGenuineTotal)
	prometheus.MustRegister(PairsArtifactTotal)
	prometheus.MustRegister(ResolveDurationMs)
	prometheus.MustRegister(FusionRowsTotal)
	prometheus.MustRegister(FusionRowsDeletedTotal)
	prometheus.MustRegister(FuseDurationMs)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
}

// Handler：返回 /metrics 处理器，由主入口挂载
func Handler() http.Handler { return promhttp.Handler() }
