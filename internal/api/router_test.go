package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/intelligenttrading/data-sources/internal/settings"
)

func TestLoggingMiddleware(t *testing.T) {
	logger := zaptest.NewLogger(t)
	var called bool
	handler := loggingMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := zaptest.NewLogger(t)
	for _, debug := range []bool{false, true} {
		handler := recoveryMiddleware(logger, debug, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(errors.New("boom"))
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500 after panic, got %d", rec.Code)
		}
		if got := rec.Body.String(); debug != strings.Contains(got, "boom") {
			t.Fatalf("debug=%t: unexpected body %s", debug, got)
		}
	}
}

func TestResponseRecorderWriteHeader(t *testing.T) {
	underlying := httptest.NewRecorder()
	rec := &responseRecorder{ResponseWriter: underlying}
	rec.WriteHeader(http.StatusTeapot)

	if rec.status != http.StatusTeapot {
		t.Fatalf("expected status to be recorded")
	}
	if underlying.Code != http.StatusTeapot {
		t.Fatalf("expected status to propagate to ResponseWriter")
	}
}

func TestWithRateLimiterOptionAppliesLimiter(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimiter(&staticLimiter{allow: false}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limiter to block request, got %d", rec.Code)
	}
}

func TestWithRateLimitDisablesLimiterWhenZero(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimiter(&staticLimiter{allow: false}), WithRateLimit(0, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected limiter to be disabled, got %d", rec.Code)
	}
}

func TestWithRateLimitEnforcesLimit(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimit(1, 1))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec.Code)
	}

	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req.Clone(req.Context()))
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limiter to block second request, got %d", rec2.Code)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	router := newTestRouter(t, WithLogging(false))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("expected incoming request id, got %q", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if got := rec.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Fatalf("expected generated uuid, got %q", got)
	}
}

func TestHostAllowed(t *testing.T) {
	patterns := []string{".intelligenttrading.org", ".in7el.trade", "localhost"}

	tests := []struct {
		host string
		want bool
	}{
		{host: "intelligenttrading.org", want: true},
		{host: "api.intelligenttrading.org", want: true},
		{host: "API.IntelligentTrading.org:443", want: true},
		{host: "in7el.trade.", want: true},
		{host: "localhost:8080", want: true},
		{host: "evilintelligenttrading.org", want: false},
		{host: "intelligenttrading.org.evil.com", want: false},
		{host: "sub.localhost", want: false},
		{host: "", want: false},
		{host: "[::1]:8080", want: false},
	}

	for _, tc := range tests {
		if got := hostAllowed(tc.host, patterns); got != tc.want {
			t.Fatalf("hostAllowed(%q) = %t, want %t", tc.host, got, tc.want)
		}
	}

	if !hostAllowed("anything.example", []string{"*"}) {
		t.Fatalf("expected wildcard to match")
	}
}

func TestAllowedHostsMiddleware(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithAllowedHosts([]string{".intelligenttrading.org"}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected example.com to be rejected, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "http://data.intelligenttrading.org/api/health", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected allowed host to pass, got %d", rec.Code)
	}
}

func TestProxySSLHeader(t *testing.T) {
	header := &settings.ProxyHeader{Name: "X-Forwarded-Proto", Value: "https"}

	var secure bool
	handler := proxySSLMiddleware(header, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		secure = IsSecure(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !secure {
		t.Fatalf("expected trusted header to mark request secure")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "http")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if secure {
		t.Fatalf("expected plain http to stay insecure")
	}

	untrusted := proxySSLMiddleware(nil, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		secure = IsSecure(r)
	}))
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	untrusted.ServeHTTP(httptest.NewRecorder(), req)
	if secure {
		t.Fatalf("expected header to be ignored without proxy trust")
	}
}

func TestSecurityHeaders(t *testing.T) {
	header := &settings.ProxyHeader{Name: "X-Forwarded-Proto", Value: "https"}

	tests := []struct {
		name     string
		debug    bool
		proto    string
		wantHSTS bool
	}{
		{name: "secure production", proto: "https", wantHSTS: true},
		{name: "insecure production", proto: "http", wantHSTS: false},
		{name: "secure debug", debug: true, proto: "https", wantHSTS: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(t, WithLogging(false), WithDebug(tc.debug), WithProxySSLHeader(header))

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			req.Header.Set("X-Forwarded-Proto", tc.proto)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Fatalf("expected nosniff header")
			}
			if got := rec.Header().Get("Strict-Transport-Security") != ""; got != tc.wantHSTS {
				t.Fatalf("expected HSTS=%t, got %t", tc.wantHSTS, got)
			}
		})
	}
}

func newTestRouter(t *testing.T, opts ...RouterOption) http.Handler {
	t.Helper()

	handler := NewHandler(testSettings())
	logger := zaptest.NewLogger(t)
	return NewRouter(handler, logger, opts...)
}
