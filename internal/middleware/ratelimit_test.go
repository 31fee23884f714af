package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/talkboard/internal/model"
)

func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1000),
		GeneralBurst:    3,
		PostRate:        rate.Limit(1000),
		PostBurst:       2,
		CleanupInterval: time.Hour,
	}
}

func authedRequest(name string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/conversation/list", nil)
	ctx := ContextWithUser(req.Context(), &model.User{Name: name})
	return req.WithContext(ctx)
}

func TestGeneralMiddleware_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest("alice"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestGeneralMiddleware_RejectsOverBurst(t *testing.T) {
	config := testRateLimiterConfig()
	config.GeneralRate = rate.Limit(0.001) // 補充をほぼ止める
	rl := NewRateLimiter(config)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest("alice"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest("alice"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestGeneralMiddleware_LimitsPerUser(t *testing.T) {
	config := testRateLimiterConfig()
	config.GeneralRate = rate.Limit(0.001)
	rl := NewRateLimiter(config)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// aliceの枠を使い切る
	for i := 0; i < 4; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), authedRequest("alice"))
	}

	// bobは影響を受けない
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest("bob"))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("limiter count = %d, want 2", rl.GeneralLimiterCount())
	}
}

func TestPostMiddleware_IndependentOfGeneral(t *testing.T) {
	config := testRateLimiterConfig()
	config.PostRate = rate.Limit(0.001)
	rl := NewRateLimiter(config)
	defer rl.Stop()

	postHandler := rl.PostMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	generalHandler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 投稿の枠（バースト2）を使い切る
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		postHandler.ServeHTTP(w, authedRequest("alice"))
		if w.Code != http.StatusOK {
			t.Fatalf("post %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}

	w := httptest.NewRecorder()
	postHandler.ServeHTTP(w, authedRequest("alice"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("post status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	// API全般は引き続き通る
	w = httptest.NewRecorder()
	generalHandler.ServeHTTP(w, authedRequest("alice"))
	if w.Code != http.StatusOK {
		t.Errorf("general status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestGeneralMiddleware_AnonymousRequestPassesThrough(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// コンテキストにユーザーがいないリクエストは制限対象外
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if rl.GeneralLimiterCount() != 0 {
		t.Errorf("limiter count = %d, want 0", rl.GeneralLimiterCount())
	}
}
