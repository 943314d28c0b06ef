package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Progress is the batch state reported by /health.
type Progress struct {
	KeywordsTotal atomic.Int32
	KeywordsDone  atomic.Int32
	Current       atomic.Value
}

func (p *Progress) SetCurrent(keyword string) {
	p.Current.Store(keyword)
}

func (p *Progress) current() string {
	if v, ok := p.Current.Load().(string); ok {
		return v
	}
	return ""
}

// Server exposes health and Prometheus metrics while a batch runs.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func NewRouter(registry *prometheus.Registry, progress *Progress) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status": "ok",
		}
		if progress != nil {
			health["keywords_total"] = progress.KeywordsTotal.Load()
			health["keywords_done"] = progress.KeywordsDone.Load()
			health["current_keyword"] = progress.current()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(health)
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}

func New(addr string, registry *prometheus.Registry, progress *Progress, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(registry, progress),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger.With("component", "server"),
	}
}

// Start serves in the background until Shutdown is called.
func (s *Server) Start() {
	go func() {
		s.logger.Info("metrics server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", "error", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
