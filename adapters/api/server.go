// Package api exposes the simulation service over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"time"

	"sigsim/adapters/excel"
	"sigsim/adapters/scenario"
	"sigsim/domain/sim"
	"sigsim/internal"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Simulator is the service the handlers drive
type Simulator interface {
	Simulate(ctx context.Context, cfg sim.SimulationConfig) (*sim.RunReport, error)
	Sweep(ctx context.Context, cfg sim.SimulationConfig, effects []float64) (*sim.SweepResult, error)
	Families() []sim.TestFamily
}

// Options configure request handling
type Options struct {
	// Defaults fill scenario fields a request leaves unset
	Defaults scenario.Defaults
	// MaxTrials caps the trials one request may simulate; sweeps count every point
	MaxTrials int
	// RequestTimeout bounds a single simulation request
	RequestTimeout time.Duration
	// MaxBodyBytes caps request bodies; DefaultMaxBodyBytes when unset
	MaxBodyBytes int64
}

// DefaultMaxBodyBytes is the body limit used when Options leaves it unset
const DefaultMaxBodyBytes int64 = 1 << 20

// Server routes API requests to the simulator
type Server struct {
	router   *gin.Engine
	sim      Simulator
	workbook *excel.ReportWriter
	opts     Options
	logger   *internal.Logger
}

// NewServer creates the router with all routes registered
func NewServer(s Simulator, opts Options, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	srv := &Server{
		router:   gin.New(),
		sim:      s,
		workbook: excel.NewReportWriter(),
		opts:     opts,
		logger:   logger,
	}
	srv.setupMiddleware()
	srv.setupRoutes()
	return srv
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(instrument())
	s.router.Use(s.requestLog())
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1", s.limitBody())
	v1.GET("/families", s.handleFamilies)
	v1.POST("/simulations", s.handleSimulate)
	v1.POST("/sweeps", s.handleSweep)
}

// limitBody caps how much of a request body handlers can read
func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes)
		}
		c.Next()
	}
}

// Handler returns the HTTP handler for embedding in an http.Server
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s -> %d in %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
