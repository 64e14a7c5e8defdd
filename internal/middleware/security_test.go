// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSecurityHeaders_Production(t *testing.T) {
	handler := SecurityHeaders(DefaultSecurityHeadersConfig(false))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "SAMEORIGIN" {
		t.Errorf("X-Frame-Options = %q, want SAMEORIGIN", got)
	}
	hsts := rec.Header().Get("Strict-Transport-Security")
	if !strings.Contains(hsts, "max-age=31536000") {
		t.Errorf("Strict-Transport-Security = %q, want max-age=31536000", hsts)
	}
	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "img-src 'self' data: https:") {
		t.Errorf("CSP missing CDN image allowance: %q", csp)
	}
}

func TestSecurityHeaders_DevelopmentSkipsHSTS(t *testing.T) {
	handler := SecurityHeaders(DefaultSecurityHeadersConfig(true))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS set in development: %q", got)
	}
}

func TestStripTrailingSlash(t *testing.T) {
	handler := StripTrailingSlash(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		path       string
		wantStatus int
		wantLoc    string
	}{
		{"/portal/", http.StatusMovedPermanently, "/portal"},
		{"/portal", http.StatusOK, ""},
		{"/", http.StatusOK, ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d", tt.path, rec.Code, tt.wantStatus)
		}
		if tt.wantLoc != "" && rec.Header().Get("Location") != tt.wantLoc {
			t.Errorf("%s: Location = %q, want %q", tt.path, rec.Header().Get("Location"), tt.wantLoc)
		}
	}
}

func TestGlobalRateLimiter(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 2)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Burst of 2 allowed, third request rejected
	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, want)
		}
	}

	// Different IP has its own budget
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.2:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("fresh IP: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestGlobalRateLimiter_BoundsTrackedClients(t *testing.T) {
	rl := NewGlobalRateLimiter(1000, 1000)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Forwarding headers are client-controlled, so every request can
	// present a fresh key; the limiter map must not grow without bound.
	for i := 0; i < maxTrackedClients+10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.%d.%d", i/256, i%256))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	rl.limiters.mu.Lock()
	size := len(rl.limiters.limiters)
	rl.limiters.mu.Unlock()
	if size > maxTrackedClients {
		t.Errorf("tracked clients = %d, want at most %d", size, maxTrackedClients)
	}
}
