// Package httpapi serves the small operational HTTP surface next to the
// gRPC API: a health check and the session idle timeout.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	Router      chi.Router
	db          Pinger
	idleTimeout time.Duration
	logger      logging.Logger
}

// NewHandler wires the routes. idleTimeout must be the value the session
// store uses.
func NewHandler(db Pinger, idleTimeout time.Duration, l logging.Logger) *Handler {
	h := &Handler{
		db:          db,
		idleTimeout: idleTimeout,
		logger:      l.With("module", "http_server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.withLogging)

	r.Get("/healthz", h.health)
	r.Get("/api/session/timeout", h.sessionTimeout)

	h.Router = r
	return h
}

type timeoutResponse struct {
	Timeout int64 `json:"timeout"`
}

func (h *Handler) sessionTimeout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, timeoutResponse{Timeout: h.idleTimeout.Milliseconds()})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn(ctx, "health check failed", "error", err.Error())
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.logger.Debug(r.Context(), "http request",
			"method", r.Method,
			"uri", r.RequestURI,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// Run serves on addr until ctx is cancelled.
func (h *Handler) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: h.Router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		h.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	h.logger.Info(ctx, "Starting HTTP server", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
