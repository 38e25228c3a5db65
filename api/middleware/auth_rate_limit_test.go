package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	internalauth "github.com/infinity-cafe/cafe-backend/internal/auth"
	"github.com/infinity-cafe/cafe-backend/pkg/config"
)

func TestLoginRateLimitNilLimiterPassesThrough(t *testing.T) {
	handler := LoginRateLimit(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"mika"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestLoginRateLimitPreservesBodyForHandler(t *testing.T) {
	// A limiter without a store never throttles, so the request should reach
	// the handler with its body intact after the middleware read it.
	limiter := internalauth.NewLoginLimiter(nil, config.AuthRateLimitConfig{}, nil)

	var seen string
	handler := LoginRateLimit(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body downstream: %v", err)
		}
		seen = string(body)
		w.WriteHeader(http.StatusOK)
	}))

	payload := `{"username":"mika","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(payload))
	req.Header.Set("X-Forwarded-For", "10.0.0.9, 192.168.0.1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if seen != payload {
		t.Fatalf("handler saw mutated body %q", seen)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "172.16.0.4:51234"
	req.Header.Set("X-Forwarded-For", " 10.0.0.9 , 192.168.0.1")
	if got := clientIP(req); got != "10.0.0.9" {
		t.Fatalf("expected forwarded ip, got %q", got)
	}

	req.Header.Del("X-Forwarded-For")
	if got := clientIP(req); got != "172.16.0.4" {
		t.Fatalf("expected remote host, got %q", got)
	}
}
