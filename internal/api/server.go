// Package api exposes the HTTP interface for the catalog crawler.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printdhruv/adafruit-crawler/internal/catalog"
	"github.com/printdhruv/adafruit-crawler/internal/config"
	"github.com/printdhruv/adafruit-crawler/internal/crawler"
	"github.com/printdhruv/adafruit-crawler/internal/metrics"
	"github.com/printdhruv/adafruit-crawler/internal/store"
)

// crawlRunner is the subset of the engine the HTTP layer needs.
type crawlRunner interface {
	Start(ctx context.Context) error
	Status() catalog.CrawlStatus
	LastReport() *catalog.CrawlReport
}

// Server wires HTTP handlers to the crawl engine and product store.
type Server struct {
	router chi.Router
	engine crawlRunner
	store  store.ProductStore
	logger *zap.Logger
	cfg    config.Config
}

// NewServer constructs a Server with middleware and routes.
func NewServer(engine crawlRunner, st store.ProductStore, logger *zap.Logger, cfg config.Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine: engine,
		store:  st,
		logger: logger,
		cfg:    cfg,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(60 * time.Second))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/crawl", s.startCrawl)
		r.Get("/crawl", s.crawlStatus)
		r.Route("/products", func(r chi.Router) {
			r.Get("/best-sellers", s.listProducts("best-sellers"))
			r.Get("/common", s.listProducts("common"))
			r.Get("/out-of-stock", s.listProducts("out-of-stock"))
			r.Get("/discontinued", s.listProducts("discontinued"))
			r.Get("/coming-soon", s.listProducts("coming-soon"))
		})
		r.Get("/categories", s.listCategories)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Categories(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) startCrawl(w http.ResponseWriter, r *http.Request) {
	// The crawl outlives the request, so it runs on its own context.
	if err := s.engine.Start(context.WithoutCancel(r.Context())); err != nil {
		if errors.Is(err, crawler.ErrCrawlInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": string(s.engine.Status())})
}

func (s *Server) crawlStatus(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{"status": s.engine.Status()}
	if last := s.engine.LastReport(); last != nil {
		payload["last_run"] = last
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) listProducts(view string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			products []catalog.ProductRecord
			err      error
		)
		switch view {
		case "best-sellers":
			products, err = s.store.BestSellers(r.Context())
		case "common":
			products, err = s.store.CommonItems(r.Context())
		case "out-of-stock":
			products, err = s.store.ByStock(r.Context(), catalog.StockOutOfStock)
		case "discontinued":
			products, err = s.store.ByStock(r.Context(), catalog.StockDiscontinued)
		case "coming-soon":
			products, err = s.store.ByStock(r.Context(), catalog.StockComingSoon)
		default:
			writeError(w, http.StatusNotFound, "unknown product view")
			return
		}
		if err != nil {
			s.logger.Error("list products failed", zap.String("view", view), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list products")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	}
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.Categories(r.Context())
	if err != nil {
		s.logger.Error("list categories failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)
			metrics.ObserveHTTPRequest(r.Method, routePattern(r), ww.status, elapsed)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", elapsed.Milliseconds()),
			)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
