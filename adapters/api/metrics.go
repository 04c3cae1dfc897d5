package api

import (
	"strconv"
	"time"

	"sigsim/domain/sim"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts HTTP requests.
	// Labels: route (gin route pattern), status (HTTP status code)
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sigsim",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status",
	}, []string{"route", "status"})

	// requestDuration measures handler latency.
	// Labels: route
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sigsim",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"route"})

	// trialsTotal counts simulated trials.
	// Labels: family (test family)
	trialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sigsim",
		Subsystem: "engine",
		Name:      "trials_total",
		Help:      "Total simulated trials by test family",
	}, []string{"family"})

	// rejectionRate tracks the distribution of run rejection rates.
	// Labels: family
	rejectionRate = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sigsim",
		Subsystem: "engine",
		Name:      "rejection_rate",
		Help:      "Empirical rejection rate of completed runs",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.4, 0.6, 0.8, 0.9, 0.95, 1.0},
	}, []string{"family"})

	// runErrors counts failed runs.
	// Labels: code (application error code)
	runErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sigsim",
		Subsystem: "engine",
		Name:      "errors_total",
		Help:      "Total failed simulation requests by error code",
	}, []string{"code"})
)

// instrument records request count and latency per route
func instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func recordResult(res *sim.AggregateResult) {
	family := string(res.Config.TestFamily)
	trialsTotal.WithLabelValues(family).Add(float64(res.TrialCount))
	rejectionRate.WithLabelValues(family).Observe(res.RejectionRate)
}
