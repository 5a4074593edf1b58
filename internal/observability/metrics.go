package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles Prometheus metrics for the exploration surface and
// provides helpers to wire them into the HTTP router.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	Transitions      *prometheus.CounterVec
	Runs             *prometheus.CounterVec
	RunDurations     *prometheus.HistogramVec
	FootprintFetches *prometheus.CounterVec
	GeometryCache    *prometheus.CounterVec

	SessionsActive prometheus.Gauge
}

// NewCollector registers exploration Prometheus metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	httpRequests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "explore_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "status"}), "explore_http_requests_total")
	if err != nil {
		return nil, err
	}

	httpDurations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "explore_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"}), "explore_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	transitions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "explore_transitions_total",
		Help: "Total number of applied view transitions, labeled by transition name.",
	}, []string{"transition"}), "explore_transitions_total")
	if err != nil {
		return nil, err
	}

	runs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "model_runs_total",
		Help: "Total number of model runs, labeled by scenario and outcome.",
	}, []string{"scenario", "outcome"}), "model_runs_total")
	if err != nil {
		return nil, err
	}

	runDurations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "model_run_duration_seconds",
		Help:    "Model run round-trip latency in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"scenario"}), "model_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	fetches, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "footprint_fetches_total",
		Help: "Total number of building footprint fetches, labeled by outcome.",
	}, []string{"outcome"}), "footprint_fetches_total")
	if err != nil {
		return nil, err
	}

	geoCache, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geometry_cache_requests_total",
		Help: "Country geometry cache lookups, labeled hit or miss.",
	}, []string{"result"}), "geometry_cache_requests_total")
	if err != nil {
		return nil, err
	}

	sessions, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "explore_sessions_active",
		Help: "Current number of live exploration sessions.",
	}), "explore_sessions_active")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		HTTPRequests:     httpRequests,
		HTTPDurations:    httpDurations,
		Transitions:      transitions,
		Runs:             runs,
		RunDurations:     runDurations,
		FootprintFetches: fetches,
		GeometryCache:    geoCache,
		SessionsActive:   sessions,
	}, nil
}

// Middleware records request counts and durations for every routed request.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(g *gin.Context) {
		start := time.Now()
		g.Next()

		if c == nil {
			return
		}
		route := g.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := fmt.Sprintf("%d", g.Writer.Status())
		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(route, g.Request.Method, status).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(route, g.Request.Method).Observe(time.Since(start).Seconds())
		}
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveTransition counts one applied view transition.
func (c *Collector) ObserveTransition(name string) {
	if c == nil || c.Transitions == nil {
		return
	}
	c.Transitions.WithLabelValues(name).Inc()
}

// ObserveRun counts one model run and records its latency.
func (c *Collector) ObserveRun(scenario, outcome string, seconds float64) {
	if c == nil {
		return
	}
	if c.Runs != nil {
		c.Runs.WithLabelValues(scenario, outcome).Inc()
	}
	if c.RunDurations != nil {
		c.RunDurations.WithLabelValues(scenario).Observe(seconds)
	}
}

// ObserveFootprintFetch counts one building footprint fetch attempt.
func (c *Collector) ObserveFootprintFetch(outcome string) {
	if c == nil || c.FootprintFetches == nil {
		return
	}
	c.FootprintFetches.WithLabelValues(outcome).Inc()
}

// ObserveGeometryCache counts one country geometry cache lookup.
func (c *Collector) ObserveGeometryCache(hit bool) {
	if c == nil || c.GeometryCache == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.GeometryCache.WithLabelValues(result).Inc()
}

// SessionOpened and SessionClosed drive the live-session gauge from the
// session manager's mutators.
func (c *Collector) SessionOpened() {
	if c != nil && c.SessionsActive != nil {
		c.SessionsActive.Inc()
	}
}

func (c *Collector) SessionClosed() {
	if c != nil && c.SessionsActive != nil {
		c.SessionsActive.Dec()
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
