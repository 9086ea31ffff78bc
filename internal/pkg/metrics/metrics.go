package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "multimap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "multimap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "multimap",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Widget metrics
	DescriptorsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "multimap",
		Subsystem: "descriptor",
		Name:      "built_total",
		Help:      "Total map instance descriptors built",
	})

	DescriptorBuildFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "multimap",
		Subsystem: "descriptor",
		Name:      "build_failures_total",
		Help:      "Total descriptor builds that produced no output",
	})

	DescriptorBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "multimap",
		Subsystem: "descriptor",
		Name:      "build_duration_seconds",
		Help:      "Duration of descriptor builds including media lookups",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	CoordinateFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "multimap",
		Subsystem: "descriptor",
		Name:      "coordinate_fallbacks_total",
		Help:      "Coordinates that were not numeric and fell back to 0",
	}, []string{"axis"})

	PinsPerDescriptor = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "multimap",
		Subsystem: "descriptor",
		Name:      "pins",
		Help:      "Number of pins per built descriptor",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	MapsInitialized = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "multimap",
		Subsystem: "bootstrap",
		Name:      "maps_initialized_total",
		Help:      "Map initializations by result",
	}, []string{"result"})

	BootstrapQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "multimap",
		Subsystem: "bootstrap",
		Name:      "queue_depth",
		Help:      "Descriptors waiting for the map library to become ready",
	})

	LibraryReadyPolls = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "multimap",
		Subsystem: "bootstrap",
		Name:      "library_ready_polls_total",
		Help:      "Total readiness probes of the map library",
	})

	WidgetsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "multimap",
		Subsystem: "render",
		Name:      "widgets_total",
		Help:      "Widget fragments rendered by result",
	}, []string{"result"})

	PreviewsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "multimap",
		Subsystem: "preview",
		Name:      "rendered_total",
		Help:      "GeoJSON previews rendered by source",
	}, []string{"source"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "multimap",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "multimap",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "multimap",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "multimap",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "multimap",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "multimap",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})

	DBPoolEmptyAcquires = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "multimap",
		Subsystem: "db",
		Name:      "pool_empty_acquires",
		Help:      "Total times a connection had to be established when acquiring from pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool gauges from a pgxpool.Stat.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
		EmptyAcquireCount() int64
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
		DBPoolEmptyAcquires.Set(float64(s.EmptyAcquireCount()))
	}
}
