package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func requestFromIP(ip string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/auth/check-email?email=a@b.c", nil)
	r.RemoteAddr = ip + ":51234"
	return r
}

func TestIPRateLimiterAllowsWithinLimit(t *testing.T) {
	l := newIPRateLimiter("test", 3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.allow(requestFromIP("10.0.0.1")) {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}
	if l.allow(requestFromIP("10.0.0.1")) {
		t.Fatal("request over the limit allowed, want denied")
	}
}

func TestIPRateLimiterIsPerIP(t *testing.T) {
	l := newIPRateLimiter("test", 1, time.Minute)

	if !l.allow(requestFromIP("10.0.0.1")) {
		t.Fatal("first request from first IP denied")
	}
	if !l.allow(requestFromIP("10.0.0.2")) {
		t.Fatal("first request from second IP denied, limits should be per IP")
	}
	if l.allow(requestFromIP("10.0.0.1")) {
		t.Fatal("second request from first IP allowed, want denied")
	}
}

func TestIPRateLimiterMiddlewareResponds429(t *testing.T) {
	l := newIPRateLimiter("test", 1, time.Minute)
	var hits int
	handler := l.middleware(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	handler(w, requestFromIP("10.0.0.9"))
	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	handler(w, requestFromIP("10.0.0.9"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header not set on 429")
	}
	if hits != 1 {
		t.Errorf("handler invoked %d times, want 1", hits)
	}
}

func TestClientIPPrefersForwardedHeader(t *testing.T) {
	r := requestFromIP("10.0.0.1")
	r.Header.Set("X-Forwarded-For", "203.0.113.5")
	if got := clientIP(r); got != "203.0.113.5" {
		t.Errorf("clientIP = %q, want forwarded address", got)
	}

	r = requestFromIP("10.0.0.1")
	if got := clientIP(r); got != "10.0.0.1" {
		t.Errorf("clientIP = %q, want host without port", got)
	}
}
