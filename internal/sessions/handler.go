package sessions

import (
	"net/http"

	apperrors "carhub/pkg/errors"
	httputil "carhub/pkg/http"
	"carhub/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
)

type SessionHandler struct {
	manager  *Manager
	cookie   CookieConfig
	validate *validator.Validate
	log      *logger.Logger
}

func NewSessionHandler(manager *Manager, cookie CookieConfig, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		manager:  manager,
		cookie:   cookie,
		validate: validator.New(),
		log:      log,
	}
}

type sessionResponse struct {
	Success bool `json:"success"`
}

// Issue handles POST /jwt.
func (h *SessionHandler) Issue(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var identity Identity
	if err := httputil.DecodeJSON(r, &identity); err != nil {
		h.writeError(w, "Issue", err)
		return
	}

	if err := h.validate.Struct(identity); err != nil {
		h.writeError(w, "Issue", apperrors.Validation("Invalid session identity", map[string]any{"error": err.Error()}))
		return
	}

	token, expiresAt, err := h.manager.Issue(identity)
	if err != nil {
		h.log.Error("Failed to issue session token", "error", err)
		h.writeError(w, "Issue", apperrors.Internal("Failed to issue session token", err))
		return
	}

	h.cookie.Set(w, token)
	h.log.Info("Session issued", "email", identity.Email, "expires_at", expiresAt)

	if err := httputil.WriteSuccess(w, sessionResponse{Success: true}); err != nil {
		h.log.Error("failed to write success response", "handler", "Issue", "operation", "WriteSuccess", "error", err)
	}
}

// Logout handles POST /logout. The token is revoked when present and the
// cookie is always cleared.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if cookie, err := r.Cookie(h.cookie.Name); err == nil {
		if err := h.manager.Revoke(r.Context(), cookie.Value); err != nil {
			h.log.Error("Failed to revoke session token", "error", err)
			h.writeError(w, "Logout", apperrors.Internal("Failed to revoke session", err))
			return
		}
	}

	h.cookie.Clear(w)

	if err := httputil.WriteSuccess(w, sessionResponse{Success: true}); err != nil {
		h.log.Error("failed to write success response", "handler", "Logout", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SessionHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SessionHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/jwt", h.Issue)
	router.POST("/logout", h.Logout)
}

// IdempotencyExemptPaths keeps session cookies out of the replay cache.
func (h *SessionHandler) IdempotencyExemptPaths() []string {
	return []string{"/jwt", "/logout"}
}
