// Package server exposes dashboard views over HTTP.
package server

import (
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/dengue-atlas/internal/boundary"
	"github.com/sells-group/dengue-atlas/internal/cache"
	"github.com/sells-group/dengue-atlas/internal/dashboard"
	"github.com/sells-group/dengue-atlas/internal/export"
	"github.com/sells-group/dengue-atlas/internal/metrics"
	"github.com/sells-group/dengue-atlas/internal/resilience"
	"github.com/sells-group/dengue-atlas/internal/risk"
	"github.com/sells-group/dengue-atlas/pkg/analytics"
)

// Options configures the API.
type Options struct {
	Years          []int
	DefaultYear    int
	Params         analytics.Params
	ForecastMonths int
	Dashboard      dashboard.Options
	// CORSOrigins defaults to "*".
	CORSOrigins []string
	// Breaker and Cache are reported by /health when set.
	Breaker *resilience.CircuitBreaker
	Cache   cache.Cache
}

// Server serves the dashboard API. The boundary document can be swapped at
// any time, e.g. by a file watcher.
type Server struct {
	client analytics.Client
	doc    atomic.Pointer[boundary.Document]
	opts   Options
	log    *zap.Logger
}

// New creates a server. doc may be nil until SetBoundary is called.
func New(client analytics.Client, doc *boundary.Document, opts Options) *Server {
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.Params.Mode == "" {
		opts.Params = analytics.DefaultParams()
	}
	if opts.Dashboard.Palette == nil {
		opts.Dashboard.Palette = risk.NewPalette(nil)
	}
	if opts.ForecastMonths <= 0 {
		opts.ForecastMonths = 6
	}
	s := &Server{
		client: client,
		opts:   opts,
		log:    zap.L().With(zap.String("component", "server")),
	}
	if doc != nil {
		s.SetBoundary(doc)
	}
	return s
}

// SetBoundary swaps the boundary document used by subsequent requests.
func (s *Server) SetBoundary(doc *boundary.Document) {
	s.doc.Store(doc)
	metrics.ObserveBoundary(doc.Len(), false)
}

// Boundary returns the current boundary document, or nil.
func (s *Server) Boundary() *boundary.Document {
	return s.doc.Load()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/years", s.handleYears)
		r.Get("/boundary", s.handleBoundary)
		r.Get("/dashboard/{year}", s.handleDashboard)
		r.Get("/map/{year}", s.handleMap)
		r.Get("/data/{year}", s.handleData)
		r.Get("/data/{year}/export.xlsx", s.handleExport(export.FormatXLSX))
		r.Get("/data/{year}/export.csv", s.handleExport(export.FormatCSV))
		r.Get("/forecast", s.handleForecast)
		r.Get("/forecast/{months}", s.handleForecast)
	})
	return r
}
