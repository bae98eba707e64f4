// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package server provides the dashboard HTTP API and page.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kortschak/jaal/internal/dashboard"
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address.
	Addr string
	// Directed renders edges with arrows.
	Directed bool
	// VisOptions are merged over the default widget options.
	VisOptions map[string]any
	// CORSOrigins are the allowed cross-origin request origins.
	// No CORS headers are added when empty.
	CORSOrigins []string
	// HistoryLength is the default number of query history
	// entries returned.
	HistoryLength int
}

// Server is the dashboard HTTP server.
type Server struct {
	dash     *dashboard.Dashboard
	opts     Options
	log      *zap.Logger
	validate *validator.Validate
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	handler  http.Handler
}

// New returns a new Server for the dashboard. Metrics are registered
// with reg and served from /metrics.
func New(d *dashboard.Dashboard, opts Options, log *zap.Logger, reg *prometheus.Registry) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.HistoryLength <= 0 {
		opts.HistoryLength = 5
	}
	s := &Server{
		dash:     d,
		opts:     opts,
		log:      log,
		validate: validator.New(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jaal",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "jaal",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(s.requests, s.duration)
	s.handler = s.routes(reg)
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.measure)
	if len(s.opts.CORSOrigins) != 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/", s.index)
	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.graph)
		r.Get("/options", s.options)
		r.Get("/features", s.features)
		r.Get("/legend", s.legend)
		r.Post("/search", s.search)
		r.Post("/query", s.query)
		r.Get("/history", s.history)
		r.Delete("/history", s.clearHistory)
		r.Post("/color/{target}", s.color)
		r.Post("/size/{target}", s.size)
		r.Get("/tables/{name}.csv", s.tableCSV)
		r.Get("/tables.xlsx", s.tablesXLSX)
	})
	return r
}

// ListenAndServe serves the dashboard until ctx is cancelled, when the
// server is shut down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("serving dashboard", zap.String("addr", s.opts.Addr))
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdown)
	if err != nil {
		return err
	}
	err = <-errc
	if errors.Is(err, http.ErrServerClosed) {
		s.log.Info("dashboard server stopped")
		return nil
	}
	return err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		}
		switch {
		case ww.Status() >= 500:
			s.log.Error("request failed", fields...)
		case ww.Status() >= 400:
			s.log.Warn("request client error", fields...)
		default:
			s.log.Debug("request completed", fields...)
		}
	})
}

func (s *Server) measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := "unknown"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
