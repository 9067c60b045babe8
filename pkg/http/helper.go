package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "carhub/pkg/errors"
)

// DecodeJSON decodes the request body into v. An empty body leaves v untouched.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.InvalidInput("Request body too large")
		}
		return apperrors.InvalidInput("Invalid request body")
	}
	return nil
}

// RequiredQuery returns the named query parameter or an InvalidInput error.
func RequiredQuery(r *http.Request, name string) (string, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return "", apperrors.InvalidInput("query parameter '" + name + "' is required")
	}
	return value, nil
}
