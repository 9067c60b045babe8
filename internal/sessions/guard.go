package sessions

import (
	"errors"
	"net/http"

	apperrors "carhub/pkg/errors"
	httputil "carhub/pkg/http"
	"carhub/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// Guard wraps a route so it only runs for requests carrying a valid session.
type Guard func(httprouter.Handle) httprouter.Handle

func NewGuard(manager *Manager, cookieName string, log *logger.Logger) Guard {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			token := ""
			if cookie, err := r.Cookie(cookieName); err == nil {
				token = cookie.Value
			}

			claims, err := manager.Verify(r.Context(), token)
			if err != nil {
				var appErr *apperrors.AppError
				switch {
				case errors.Is(err, ErrMissingToken):
					appErr = apperrors.Unauthorized("unauthorized access")
				case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenRevoked):
					log.Warn("Rejected session token", "path", r.URL.Path, "error", err)
					appErr = apperrors.Unauthorized("unauthorized access")
				default:
					log.Error("Failed to verify session", "path", r.URL.Path, "error", err)
					appErr = apperrors.Internal("Failed to verify session", err)
				}
				if writeErr := httputil.WriteError(w, appErr); writeErr != nil {
					log.Error("failed to write error response", "handler", "Guard", "operation", "WriteError", "error", writeErr)
				}
				return
			}

			next(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())), ps)
		}
	}
}
