package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	l := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour, StaleAfter: 10 * time.Minute}, nil)
	t.Cleanup(l.Stop)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_Allow(t *testing.T) {
	l, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("fourth request allowed")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("other client rejected")
	}

	*now = now.Add(time.Minute)
	if !l.Allow("10.0.0.1") {
		t.Error("request rejected after the window reset")
	}
	if l.Limited() != 1 {
		t.Errorf("Limited() = %d, want 1", l.Limited())
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	l, now := newTestLimiter(t, 3)
	l.Allow("a")
	*now = now.Add(5 * time.Minute)
	l.Allow("b")
	*now = now.Add(6 * time.Minute)

	if n := l.Cleanup(); n != 1 {
		t.Errorf("Cleanup() = %d, want 1", n)
	}
	if l.ActiveClients() != 1 {
		t.Errorf("ActiveClients() = %d, want 1", l.ActiveClients())
	}
}

func TestLimiter_MiddlewareOnlyLimitsWrites(t *testing.T) {
	l, _ := newTestLimiter(t, 1)
	h := l.Middleware(func(*http.Request) string { return "1.2.3.4" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodGet, http.StatusOK},
		{http.MethodPost, http.StatusOK},
		{http.MethodGet, http.StatusOK},
		{http.MethodPost, http.StatusTooManyRequests},
		{http.MethodDelete, http.StatusTooManyRequests},
	}
	for i, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/bills", nil))
		if rec.Code != tt.want {
			t.Errorf("request %d %s: status = %d, want %d", i, tt.method, rec.Code, tt.want)
		}
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
		}
	}
}
