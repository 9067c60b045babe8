package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "Car not found"},
			expected: "NOT_FOUND: Car not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeStoreFailure,
				Message: "Failed to fetch cars",
				Err:     errors.New("connection refused"),
			},
			expected: "STORE_FAILURE: Failed to fetch cars (caused by: connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	if errors.Unwrap(appErr) != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestAppError_StatusCodeDefaultsTo500(t *testing.T) {
	err := &AppError{Code: CodeInternal}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want %d", err.StatusCode(), http.StatusInternalServerError)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Car not found"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Car", "abc"), CodeNotFound, http.StatusNotFound},
		{"invalid identifier", InvalidIdentifier("car", "xyz"), CodeInvalidIdentifier, http.StatusBadRequest},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("unauthorized access"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("Forbidden Access"), CodeForbidden, http.StatusForbidden},
		{"store failure", StoreFailure("failed", errors.New("boom")), CodeStoreFailure, http.StatusInternalServerError},
		{"internal", Internal("failed", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("MongoDB"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.StatusCode())
			}
		})
	}
}

func TestStoreFailure_ExposesDriverMessage(t *testing.T) {
	err := StoreFailure("Failed to update car", errors.New("server selection timeout"))

	if err.Details["error"] != "server selection timeout" {
		t.Errorf("expected driver message in details, got %v", err.Details["error"])
	}
	if !strings.Contains(string(err.ToJSON()), "server selection timeout") {
		t.Errorf("ToJSON() should carry the driver message")
	}
}

func TestInvalidIdentifier_CarriesID(t *testing.T) {
	err := InvalidIdentifier("car", "not-an-id")
	if err.Details["id"] != "not-an-id" {
		t.Errorf("expected id detail, got %v", err.Details["id"])
	}
	if err.Message != "Invalid car ID format" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Car not found")
	regularErr := errors.New("regular error")

	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError() should return same AppError")
	}

	wrapped := fmt.Errorf("outer: %w", appErr)
	if AsAppError(wrapped) != appErr {
		t.Errorf("AsAppError() should unwrap wrapped AppError")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestHasCode(t *testing.T) {
	if !HasCode(Forbidden("no"), CodeForbidden) {
		t.Errorf("HasCode() should match forbidden")
	}
	if HasCode(Forbidden("no"), CodeNotFound) {
		t.Errorf("HasCode() should not match a different code")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Errorf("HasCode() should be false for non-AppError")
	}
	if !IsAppError(fmt.Errorf("wrap: %w", NotFound("x"))) {
		t.Errorf("IsAppError() should see through wrapping")
	}
}
