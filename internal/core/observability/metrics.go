package observability

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var enabled atomic.Bool

func init() {
	enabled.Store(true)
	for _, c := range collectors() {
		_ = prometheus.DefaultRegisterer.Register(c)
	}
	// custom registries get app_build_info from metrics.Provider
	_ = prometheus.DefaultRegisterer.Register(buildInfo)
}

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"upstream", "status"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Catalog cache results by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	cacheOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by op and result.",
		},
		[]string{"op", "result"},
	)

	redisOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Duration of redis operations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	catalogLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_loads_total",
			Help: "Company catalog loads by data source.",
		},
		[]string{"source"},
	)

	locateAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locate_attempts_total",
			Help: "Individual location requests by device class and outcome.",
		},
		[]string{"device", "outcome"},
	)

	locateResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locate_results_total",
			Help: "Final resolver outcomes by device class.",
		},
		[]string{"device", "outcome"},
	)

	locateAttemptsPerResolve = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "locate_attempts_per_resolve",
			Help:    "Attempts used per resolve call.",
			Buckets: []float64{0, 1, 2, 3},
		},
	)

	rankedStores = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ranked_stores",
			Help:    "Stores per ranking, split by coordinate presence.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"coordinates"},
	)

	handoffs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handoff_events_total",
			Help: "Interview hand-off events by stage and result.",
		},
		[]string{"stage", "result"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds, upstreamLatencySeconds,
		cacheResults, cacheOpTotal, redisOpDuration, catalogLoads,
		locateAttempts, locateResults, locateAttemptsPerResolve, rankedStores, handoffs,
	}
}

// Init registers the collectors on reg as well; with on=false recording stops.
func Init(reg prometheus.Registerer, on bool) {
	enabled.Store(on)
	if reg == nil || !on {
		return
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			panic(err)
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(upstream string, status int, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	upstreamLatencySeconds.WithLabelValues(upstream, strconv.Itoa(status)).Observe(durationSeconds)
}

func IncCacheHit(tier string) {
	if enabled.Load() {
		cacheResults.WithLabelValues(tier, "hit").Inc()
	}
}

func IncCacheMiss(tier string) {
	if enabled.Load() {
		cacheResults.WithLabelValues(tier, "miss").Inc()
	}
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpTotal.WithLabelValues(op, result).Inc()
	redisOpDuration.WithLabelValues(op).Observe(durationSeconds)
}

func IncCatalogLoad(source string) {
	if enabled.Load() {
		catalogLoads.WithLabelValues(source).Inc()
	}
}

func ObserveLocateAttempt(device, outcome string) {
	if enabled.Load() {
		locateAttempts.WithLabelValues(device, outcome).Inc()
	}
}

func ObserveLocateResult(device, outcome string, attempts int) {
	if !enabled.Load() {
		return
	}
	locateResults.WithLabelValues(device, outcome).Inc()
	locateAttemptsPerResolve.Observe(float64(attempts))
}

func ObserveRanked(withCoords, withoutCoords int) {
	if !enabled.Load() {
		return
	}
	rankedStores.WithLabelValues("valid").Observe(float64(withCoords))
	rankedStores.WithLabelValues("missing").Observe(float64(withoutCoords))
}

func IncHandoff(stage string, err error) {
	if !enabled.Load() {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	handoffs.WithLabelValues(stage, result).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
