package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testConfig() *RateLimitConfig {
	return &RateLimitConfig{
		IPRequestsPerSecond:   10,
		IPBurst:               3,
		IPBlockDuration:       time.Minute,
		UserRequestsPerSecond: 10,
		UserBurst:             3,
		TxPerSecond:           1,
		TxPerDay:              5,
		TxBurst:               2,
		CleanupInterval:       time.Minute,
		BucketTTL:             time.Hour,
	}
}

func TestAllowIPBurst(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		allowed, _ := rl.AllowIP("1.2.3.4")
		if !allowed {
			t.Fatalf("request %d within burst should be allowed", i+1)
		}
	}

	allowed, info := rl.AllowIP("1.2.3.4")
	if allowed {
		t.Fatal("request beyond burst should be rejected")
	}
	if info.RetryAfter <= 0 {
		t.Fatalf("rejection should carry retry_after, got %d", info.RetryAfter)
	}
}

func TestAllowIPIndependentBuckets(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		rl.AllowIP("1.1.1.1")
	}
	if allowed, _ := rl.AllowIP("1.1.1.1"); allowed {
		t.Fatal("first IP should be exhausted")
	}
	if allowed, _ := rl.AllowIP("2.2.2.2"); !allowed {
		t.Fatal("second IP should have its own bucket")
	}
}

func TestAllowTxDailyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.TxBurst = 100
	cfg.TxPerSecond = 100
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := rl.AllowTx("alice")
		if !allowed {
			t.Fatalf("tx %d within daily limit should be allowed", i+1)
		}
	}

	allowed, info := rl.AllowTx("alice")
	if allowed {
		t.Fatal("tx beyond daily limit should be rejected")
	}
	if info.LimitType != "daily" {
		t.Fatalf("expected daily limit type, got %s", info.LimitType)
	}
}

func TestRateLimitMiddlewareHeaders(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	handler := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/pools", nil)
	req.RemoteAddr = "9.9.9.9:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Remaining") == "" {
		t.Fatal("expected rate limit headers")
	}
}

func TestRateLimitMiddlewareRejects(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	handler := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/pools", nil)
		req.RemoteAddr = "8.8.8.8:1234"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", last.Code)
	}
}

func TestTxMiddlewareRequiresIdentity(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	handler := TxRateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/deposit", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous tx should be rejected, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/deposit", nil)
	req = req.WithContext(SetUserContext(req.Context(), "alice"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("identified tx should pass, got %d", rec.Code)
	}
}

func TestGetClientIPForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	if ip := getClientIP(req); ip != "10.0.0.1" {
		t.Fatalf("expected first forwarded IP, got %s", ip)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "172.16.0.1:5555"
	if ip := getClientIP(req); ip != "172.16.0.1" {
		t.Fatalf("expected remote addr without port, got %s", ip)
	}
}
