package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"carhub/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func okHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestRequestLogging_AssignsRequestID(t *testing.T) {
	var seen string
	handler := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/allCars", nil))

	if seen == "" {
		t.Fatal("expected request id in context")
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("response header %q, context %q", rec.Header().Get(RequestIDHeader), seen)
	}
}

func TestRecovery(t *testing.T) {
	handler := Recovery(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Internal server error") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestContentTypeValidation(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		wantStatus  int
	}{
		{name: "json post", method: http.MethodPost, contentType: "application/json", body: "{}", wantStatus: http.StatusOK},
		{name: "multipart put", method: http.MethodPut, contentType: "multipart/form-data; boundary=x", body: "--x--", wantStatus: http.StatusOK},
		{name: "text post", method: http.MethodPost, contentType: "text/plain", body: "hi", wantStatus: http.StatusUnsupportedMediaType},
		{name: "bodiless put", method: http.MethodPut, wantStatus: http.StatusOK},
		{name: "get ignores header", method: http.MethodGet, contentType: "text/plain", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := ContentTypeValidation(logger.Discard())(okHandler(http.StatusOK, "ok"))

			req := httptest.NewRequest(tt.method, "/cars", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	handler := MaxRequestSize(4)(okHandler(http.StatusOK, "ok"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bookingCar", strings.NewReader("too large")))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bookingCar", strings.NewReader("ok")))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"http://localhost:5173"})(okHandler(http.StatusOK, "ok"))

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/allCars", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
			t.Errorf("Allow-Origin = %q", got)
		}
		if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Error("expected credentials to be allowed")
		}
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/allCars", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/cars", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut) {
			t.Errorf("Allow-Methods = %q", rec.Header().Get("Access-Control-Allow-Methods"))
		}
	})
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute, nil, logger.Discard())
	defer limiter.Stop()
	handler := RateLimit(limiter)(okHandler(http.StatusOK, "ok"))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/allCars", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/allCars", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if got := ClientIP(req); got != "192.0.2.1" {
		t.Errorf("ClientIP() = %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.7" {
		t.Errorf("ClientIP() with forwarded = %q", got)
	}
}

func TestRequestTimeout(t *testing.T) {
	handler := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func runIdempotency(t *testing.T, store IdempotencyStore) {
	t.Helper()

	var calls int32
	handler := Idempotency(store, "", logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"acknowledged":true}}`))
	}))

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}"))
		req.Header.Set(DefaultIdempotencyHeader, "key-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := send("/bookingCar")
	second := send("/bookingCar")

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("handler calls = %d, want 1", got)
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("replayed body = %s, want %s", second.Body.String(), first.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("expected replay marker header")
	}

	send("/cars")
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("same key on another path must not replay, calls = %d", got)
	}
}

func TestIdempotency_InMemory(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()
	runIdempotency(t, store)
}

func TestIdempotency_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	runIdempotency(t, NewRedisIdempotencyStore(client, time.Minute, logger.Discard()))

	if keys := mr.Keys(); len(keys) != 2 {
		t.Errorf("redis keys = %v, want 2 scoped entries", keys)
	}
}

func TestIdempotency_SkipsFailures(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	handler := Idempotency(store, "", logger.Discard())(okHandler(http.StatusNotFound, "Car not found"))
	req := httptest.NewRequest(http.MethodPost, "/bookingCar", strings.NewReader("{}"))
	req.Header.Set(DefaultIdempotencyHeader, "key-2")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if _, found := store.Get(context.Background(), "POST /bookingCar key-2"); found {
		t.Error("non-2xx responses must not be cached")
	}
}

// ──────────────────────────────────────────────────────────────────────────
// Idempotency: request fingerprints, cookies and exempt routes
// ──────────────────────────────────────────────────────────────────────────

func countingPost(calls *int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		body, _ := io.ReadAll(r.Body)
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "session-" + strconv.Itoa(int(n))})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
}

func postWithKey(handler http.Handler, path, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(DefaultIdempotencyHeader, key)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_RejectsReusedKeyWithDifferentBody(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	var calls int32
	handler := Idempotency(store, "", logger.Discard())(countingPost(&calls))

	first := postWithKey(handler, "/bookingCar", "key-3", `{"carId":"a"}`)
	second := postWithKey(handler, "/bookingCar", "key-3", `{"carId":"b"}`)

	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", first.Code)
	}
	if second.Code != http.StatusUnprocessableEntity {
		t.Errorf("second status = %d, want 422", second.Code)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("handler calls = %d, want 1", got)
	}

	third := postWithKey(handler, "/bookingCar", "key-3", `{"carId":"a"}`)
	if third.Body.String() != `{"carId":"a"}` || third.Header().Get("Idempotent-Replayed") != "true" {
		t.Errorf("identical body should replay, got %d %s", third.Code, third.Body.String())
	}
}

func TestIdempotency_NeverReplaysCookies(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	var calls int32
	handler := Idempotency(store, "", logger.Discard())(countingPost(&calls))

	first := postWithKey(handler, "/bookingCar", "key-4", `{}`)
	if first.Header().Get("Set-Cookie") == "" {
		t.Fatal("first response should carry the handler's cookie")
	}

	cached, found := store.Get(context.Background(), "POST /bookingCar key-4")
	if !found {
		t.Fatal("expected cached response")
	}
	if cached.Headers.Get("Set-Cookie") != "" {
		t.Error("Set-Cookie must not be stored")
	}

	second := postWithKey(handler, "/bookingCar", "key-4", `{}`)
	if second.Header().Get("Set-Cookie") != "" {
		t.Errorf("replayed response carried cookie %q", second.Header().Get("Set-Cookie"))
	}
}

func TestIdempotency_ExemptPathsAlwaysReachHandler(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	var calls int32
	handler := Idempotency(store, "", logger.Discard(), "/jwt", "/logout")(countingPost(&calls))

	first := postWithKey(handler, "/jwt", "k", `{"email":"alice@example.com"}`)
	second := postWithKey(handler, "/jwt", "k", `{"email":"mallory@example.com"}`)

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("handler calls = %d, want 2", got)
	}
	if second.Code != http.StatusOK || second.Header().Get("Idempotent-Replayed") != "" {
		t.Errorf("exempt route was replayed: status %d", second.Code)
	}
	if first.Header().Get("Set-Cookie") == second.Header().Get("Set-Cookie") {
		t.Error("each caller must receive its own cookie")
	}
	if _, found := store.Get(context.Background(), "POST /jwt k"); found {
		t.Error("exempt routes must not be cached")
	}
}

func TestIdempotency_BodyTooLarge(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	var calls int32
	handler := MaxRequestSize(8)(Idempotency(store, "", logger.Discard())(countingPost(&calls)))

	req := httptest.NewRequest(http.MethodPost, "/bookingCar", strings.NewReader(`{"carId":"0123456789"}`))
	req.ContentLength = -1
	req.Header.Set(DefaultIdempotencyHeader, "key-5")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("handler reached with oversized body")
	}
}
