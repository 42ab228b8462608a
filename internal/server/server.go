// Package server exposes datasets, dashboards and the command agent over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sant0-9/chartwise/internal/pipeline"
)

const (
	requestTimeout  = 60 * time.Second
	shutdownTimeout = 5 * time.Second
	maxUploadBytes  = 64 << 20
)

// Config holds configuration for the HTTP server
type Config struct {
	Addr      string
	UploadDir string
	Pipeline  *pipeline.Pipeline
	Log       logrus.FieldLogger
}

type Server struct {
	addr      string
	uploadDir string
	pipeline  *pipeline.Pipeline
	log       logrus.FieldLogger
}

func New(cfg Config) *Server {
	return &Server{
		addr:      cfg.Addr,
		uploadDir: cfg.UploadDir,
		pipeline:  cfg.Pipeline,
		log:       cfg.Log,
	}
}

// Handler builds the router with middleware and every route mounted
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.log),
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
	)

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/datasets", func(r chi.Router) {
			r.Post("/", s.uploadDataset)
			r.Get("/", s.listDatasets)
			r.Get("/{id}", s.getDataset)
			r.Post("/{id}/dashboards", s.generateDashboard)
		})
		r.Get("/dashboards", s.listDashboards)
		r.Get("/dashboards/{id}", s.getDashboard)

		r.Route("/agent", func(r chi.Router) {
			r.Post("/chat", s.chat)
			r.Get("/history", s.history)
			r.Delete("/history", s.clearHistory)
		})
		r.Get("/evaluations", s.evaluations)
	})

	return r
}

// Serve starts the server and blocks until the context is cancelled
func (s *Server) Serve(ctx context.Context) error {
	s.log.WithField("addr", s.addr).Info("starting HTTP server")

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.log.Debug("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start),
				"remote":     r.RemoteAddr,
			}).Debug("request")
		})
	}
}
