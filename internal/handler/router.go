package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/talkboard/internal/metrics"
	"github.com/hitoshi/talkboard/internal/middleware"
	"github.com/hitoshi/talkboard/internal/view"
)

// HealthChecker はヘルスチェックで利用するストア疎通確認のインターフェース。
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           *metrics.Collector
	MetricsGatherer   prometheus.Gatherer

	// サービス
	AuthService         AuthServiceInterface
	AuthConfig          AuthConfig
	UserService         UserServiceInterface
	ConversationService ConversationServiceInterface

	// 画面描画
	Renderer *view.Renderer

	// ヘルスチェック
	HealthChecker HealthChecker
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	SecurityHeaders → CORS → Logging → Recovery
//
// セッションミドルウェアは認証を要するルートのグループにのみ適用し、
// セッションのないリクエストはランディングページへ振り分ける。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics))
	r.Use(middleware.NewRecoveryMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService, deps.Renderer)
	convHandler := NewConversationHandler(deps.ConversationService, deps.UserService, deps.Renderer)

	// --- 認証不要のルート ---

	r.Get("/auth/weibo/", authHandler.Weibo)
	r.Get("/logout", authHandler.Logout)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("unhealthy"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.MetricsGatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.MetricsGatherer).ServeHTTP)
	}

	// --- セッションを解決するルート ---
	// セッションのないリクエストはランディングページへ振り分ける
	anonymous := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := deps.Renderer.Landing(w); err != nil {
			slog.Error("failed to render landing page", slog.String("error", err.Error()))
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.UserFinder, anonymous))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/", convHandler.Home)
		r.Get("/register", userHandler.RegisterForm)
		r.Post("/register", userHandler.Register)
		r.Get("/contact", userHandler.Contacts)
		r.Get("/conversation/list", convHandler.List)
		r.Get("/show/{conversationID}", convHandler.Show)

		// POST /statuses/update - 投稿専用レート制限を追加
		r.With(deps.RateLimiter.PostMiddleware()).Post("/statuses/update", convHandler.Update)
	})

	return r
}
