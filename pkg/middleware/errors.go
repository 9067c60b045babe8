package middleware

import (
	"net/http"

	httputil "carhub/pkg/http"
)

// writeJSONError writes the same error envelope handlers use.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	_ = httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: message, Code: code})
}
