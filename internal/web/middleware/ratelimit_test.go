package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_PerClient(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	handler := limiter.Handler(http.HandlerFunc(okHandler))

	send := func(addr string) int {
		req := httptest.NewRequest("POST", "/api/v1/face/verify", nil)
		req.RemoteAddr = addr
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		return recorder.Code
	}

	for i := range 2 {
		if code := send("10.0.0.1:5000"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200 within burst, got %d", i, code)
		}
	}
	if code := send("10.0.0.1:5001"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %d", code)
	}
	if code := send("10.0.0.2:5000"); code != http.StatusOK {
		t.Errorf("expected other client to be unaffected, got %d", code)
	}

	now = now.Add(time.Second)
	if code := send("10.0.0.1:5000"); code != http.StatusOK {
		t.Errorf("expected 200 after refill, got %d", code)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.7:1234"
	if got := clientKey(req); got != "192.0.2.7" {
		t.Errorf("clientKey() = %q", got)
	}
	req.RemoteAddr = "192.0.2.7"
	if got := clientKey(req); got != "192.0.2.7" {
		t.Errorf("clientKey() without port = %q", got)
	}
}
