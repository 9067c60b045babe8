package health

import (
	"context"
	"net/http"
	"time"

	httputil "carhub/pkg/http"
	"carhub/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const (
	Banner       = "Your favourite Car is waiting for you..."
	readyTimeout = 2 * time.Second
)

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Pinger reports whether the backing stores are reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	stores Pinger
	log    *logger.Logger
}

func NewHealthHandler(stores Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		stores: stores,
		log:    log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.stores.Ping(ctx); err != nil {
		h.log.Error("Database health check failed",
			"error", err,
			"path", r.URL.Path,
		)
		if writeErr := httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unavailable",
			Database: "error",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:   "ready",
		Database: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}

// BannerHandler serves the plain-text greeting at the root path.
type BannerHandler struct {
	log *logger.Logger
}

func NewBannerHandler(log *logger.Logger) *BannerHandler {
	return &BannerHandler{log: log}
}

func (h *BannerHandler) Root(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(Banner)); err != nil {
		h.log.Error("failed to write banner", "handler", "Root", "operation", "Write", "error", err)
	}
}

func (h *BannerHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/", h.Root)
}
