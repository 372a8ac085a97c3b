package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/hitoshi/linkman/internal/model"
)

// newFrozenRateLimiter は時刻を固定したRateLimiterを生成する。トークンは補充されない。
func newFrozenRateLimiter(t *testing.T, cfg RateLimiterConfig) (*RateLimiter, *time.Time) {
	t.Helper()
	rl := NewRateLimiter(cfg)
	t.Cleanup(rl.Stop)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    2,
		SignInRate:      0.5,
		SignInBurst:     3,
		CleanupInterval: time.Minute,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestAs(userID, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.RemoteAddr = remoteAddr
	if userID != "" {
		req = req.WithContext(ContextWithUser(req.Context(), &model.User{ID: userID}))
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGeneralMiddleware_PerUserLimit(t *testing.T) {
	rl, _ := newFrozenRateLimiter(t, testRateLimiterConfig())
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		if w := serve(handler, requestAs("user-1", "10.0.0.1:1000")); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	// 同じユーザーは別IPからでも制限される
	if w := serve(handler, requestAs("user-1", "10.0.0.2:1000")); w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}

	// 別ユーザーは独立
	if w := serve(handler, requestAs("user-2", "10.0.0.1:1000")); w.Code != http.StatusOK {
		t.Errorf("other user status = %d, want 200", w.Code)
	}
	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("GeneralLimiterCount() = %d, want 2", rl.GeneralLimiterCount())
	}
}

func TestGeneralMiddleware_AnonymousFallsBackToIP(t *testing.T) {
	rl, _ := newFrozenRateLimiter(t, testRateLimiterConfig())
	handler := rl.GeneralMiddleware()(okHandler())

	serve(handler, requestAs("", "192.0.2.1:1111"))
	serve(handler, requestAs("", "192.0.2.1:2222"))

	if w := serve(handler, requestAs("", "192.0.2.1:3333")); w.Code != http.StatusTooManyRequests {
		t.Errorf("same IP status = %d, want 429", w.Code)
	}
	if w := serve(handler, requestAs("", "192.0.2.9:1111")); w.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", w.Code)
	}
}

func TestSignInMiddleware_PerIPLimit(t *testing.T) {
	rl, _ := newFrozenRateLimiter(t, testRateLimiterConfig())
	handler := rl.SignInMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		if w := serve(handler, requestAs("", "203.0.113.5:4000")); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	w := serve(handler, requestAs("", "203.0.113.5:4001"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want 2", got)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q, want RATE_LIMIT_EXCEEDED", body.Code)
	}
	if rl.SignInLimiterCount() != 1 {
		t.Errorf("SignInLimiterCount() = %d, want 1", rl.SignInLimiterCount())
	}
}

// サインイン制限と全般制限は独立している。
func TestSignInMiddleware_IndependentFromGeneral(t *testing.T) {
	rl, _ := newFrozenRateLimiter(t, testRateLimiterConfig())
	general := rl.GeneralMiddleware()(okHandler())
	signIn := rl.SignInMiddleware()(okHandler())

	serve(general, requestAs("", "198.51.100.1:1"))
	serve(general, requestAs("", "198.51.100.1:1"))

	if w := serve(signIn, requestAs("", "198.51.100.1:1")); w.Code != http.StatusOK {
		t.Errorf("sign-in status = %d, want 200", w.Code)
	}
}

func TestRateLimiter_TokensRefillOverTime(t *testing.T) {
	rl, now := newFrozenRateLimiter(t, testRateLimiterConfig())
	handler := rl.GeneralMiddleware()(okHandler())

	serve(handler, requestAs("user-1", "10.0.0.1:1"))
	serve(handler, requestAs("user-1", "10.0.0.1:1"))
	if w := serve(handler, requestAs("user-1", "10.0.0.1:1")); w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}

	*now = now.Add(time.Second)
	if w := serve(handler, requestAs("user-1", "10.0.0.1:1")); w.Code != http.StatusOK {
		t.Errorf("status after refill = %d, want 200", w.Code)
	}
}

func TestRateLimiter_CleanupEvictsIdleEntries(t *testing.T) {
	rl, now := newFrozenRateLimiter(t, testRateLimiterConfig())
	general := rl.GeneralMiddleware()(okHandler())
	signIn := rl.SignInMiddleware()(okHandler())

	serve(general, requestAs("idle", "10.0.0.1:1"))
	serve(signIn, requestAs("", "10.0.0.1:1"))

	*now = now.Add(90 * time.Second)
	serve(general, requestAs("active", "10.0.0.2:1"))

	// cutoff = now - 2分。idleの最終アクセスは90秒前なので残る
	rl.cleanup()
	if rl.GeneralLimiterCount() != 2 {
		t.Fatalf("GeneralLimiterCount() = %d, want 2", rl.GeneralLimiterCount())
	}

	*now = now.Add(60 * time.Second)
	rl.cleanup()
	if rl.GeneralLimiterCount() != 1 {
		t.Errorf("GeneralLimiterCount() = %d, want 1", rl.GeneralLimiterCount())
	}
	if rl.SignInLimiterCount() != 0 {
		t.Errorf("SignInLimiterCount() = %d, want 0", rl.SignInLimiterCount())
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	rl.Stop()
	rl.Stop()
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	if cfg.SignInBurst != 10 {
		t.Errorf("SignInBurst = %d, want 10", cfg.SignInBurst)
	}
	if got := strconv.FormatFloat(float64(cfg.SignInRate)*60, 'f', 0, 64); got != "10" {
		t.Errorf("SignInRate per minute = %s, want 10", got)
	}
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	if got := clientIP(req); got != "192.0.2.10" {
		t.Errorf("clientIP() = %q", got)
	}
	req.RemoteAddr = "not-a-host-port"
	if got := clientIP(req); got != "not-a-host-port" {
		t.Errorf("clientIP() = %q", got)
	}
}
