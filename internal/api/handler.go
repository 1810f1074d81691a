package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/botdash/botdash/internal/notify"
	"github.com/botdash/botdash/internal/registry"
)

// maxBodyBytes caps request bodies on the POST routes.
const maxBodyBytes = 1 << 20

// Handler is the HTTP handler for the /api/* endpoints.
type Handler struct {
	registry *registry.Registry
	log      *notify.Log
	router   chi.Router
}

// New creates a Handler wired to the configuration registry and notification
// log and registers all routes.
func New(reg *registry.Registry, log *notify.Log) http.Handler {
	h := &Handler{registry: reg, log: log, router: chi.NewRouter()}

	h.router.Use(middleware.RequestID)
	h.router.Use(requestLogger)
	h.router.Use(middleware.Recoverer)

	h.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	h.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	h.router.Get("/healthz", h.health)
	h.router.Get("/api/config", h.getConfig)
	h.router.Post("/api/config", h.postConfig)
	h.router.Get("/api/notification", h.listNotifications)
	h.router.Post("/api/notification", h.postNotification)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, healthResponse{Status: "ok"})
}

// getConfig returns GET /api/config.
func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, h.registry.Read())
}

// postConfig handles POST /api/config, a partial update of the configuration.
func (h *Handler) postConfig(w http.ResponseWriter, r *http.Request) {
	var patch any
	if err := decodeBody(w, r, &patch, true); err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := h.registry.Apply(patch)
	if err != nil {
		if errors.Is(err, registry.ErrRejected) {
			slog.Debug("api: config patch rejected", "err", err)
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		jsonErr(w, http.StatusInternalServerError, "internal server error")
		return
	}

	slog.Info("api: config updated",
		"server_connect", cfg.ServerConnect,
		"total_message", cfg.TotalMessage,
		"total_command", cfg.TotalCommand,
	)
	jsonResp(w, http.StatusCreated, cfg)
}

// listNotifications returns GET /api/notification, oldest first.
func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, h.log.List())
}

// postNotification handles POST /api/notification.
func (h *Handler) postNotification(w http.ResponseWriter, r *http.Request) {
	var in notify.Input
	if err := decodeBody(w, r, &in, false); err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	ev := h.log.Append(in)
	slog.Debug("api: notification appended", "type", ev.Type, "role", ev.Role)
	jsonResp(w, http.StatusCreated, ev)
}

// --- helpers ----------------------------------------------------------------

// BuildDashboard assembles the combined dashboard view from the registry and
// the notification log. It reads without touching the cache hit/miss
// counters, so periodic pushes do not show up as lookups.
func BuildDashboard(reg *registry.Registry, log *notify.Log) DashboardResponse {
	return DashboardResponse{
		Config:        reg.Peek(),
		Notifications: log.Peek(),
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}

// decodeBody decodes the request body, which must be a single JSON value,
// into v.
// With useNumber set, numbers decode as json.Number rather than float64.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, useNumber bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if useNumber {
		dec.UseNumber()
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	// The body must hold exactly one value; trailing data is malformed.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body: unexpected data after top-level value")
	}
	return nil
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// requestLogger logs one line per request at debug level, or warn for 5xx.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "api: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
