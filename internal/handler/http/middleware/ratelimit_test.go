package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := NewRateLimiter("login", 3, nil)
	h := rl.Middleware(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:5555").Code)
	}
	rec := hit(h, "10.0.0.1:6666")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:5555").Code, "other clients keep their own bucket")
}

func TestRateLimiter_Disabled(t *testing.T) {
	h := NewRateLimiter("upload", 0, nil).Middleware(okHandler())
	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter("login", 5, nil)
	rl.now = func() time.Time { return now }

	h := rl.Middleware(okHandler())
	hit(h, "10.0.0.1:1")
	hit(h, "10.0.0.2:1")
	assert.Equal(t, 2, rl.Len())

	now = now.Add(11 * time.Minute)
	hit(h, "10.0.0.2:1")

	assert.Equal(t, 1, rl.Sweep())
	assert.Equal(t, 1, rl.Len())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:4000"
	assert.Equal(t, "192.168.1.9", ClientIP(req))

	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", ClientIP(req))
}
