// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/hitoshi/talkboard/internal/auth"
	"github.com/hitoshi/talkboard/internal/config"
	"github.com/hitoshi/talkboard/internal/conversation"
	"github.com/hitoshi/talkboard/internal/handler"
	"github.com/hitoshi/talkboard/internal/logger"
	"github.com/hitoshi/talkboard/internal/metrics"
	"github.com/hitoshi/talkboard/internal/middleware"
	"github.com/hitoshi/talkboard/internal/repository"
	"github.com/hitoshi/talkboard/internal/security"
	"github.com/hitoshi/talkboard/internal/store"
	"github.com/hitoshi/talkboard/internal/user"
	"github.com/hitoshi/talkboard/internal/view"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前のログはデフォルトレベルで出す
	logger.SetupDefault(w, "")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, cfg.LogLevel)
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	return runServe(cfg)
}

// redisHealthChecker はRedisクライアントをハンドラー層のHealthCheckerに適合させる。
type redisHealthChecker struct {
	client *redis.Client
}

func (h *redisHealthChecker) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}

// runServe はAPIサーバーモードで起動する。
// Redis接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. Redis接続
	client, err := store.Open(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to open redis: %w", err)
	}
	defer client.Close()

	slog.Info("redis connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewRedisUserRepo(client)
	identRepo := repository.NewRedisIdentityRepo(client)
	sessionRepo := repository.NewRedisSessionRepo(client)
	contactRepo := repository.NewRedisContactRepo(client)
	convRepo := repository.NewRedisConversationRepo(client)
	statusRepo := repository.NewRedisStatusRepo(client)

	// 3. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. ドメインサービスの初期化
	oauthProvider := auth.NewWeiboOAuthProvider(auth.WeiboOAuthConfig{
		ClientID:     cfg.WeiboClientID,
		ClientSecret: cfg.WeiboClientSecret,
		RedirectURL:  cfg.WeiboRedirectURL,
	}, ssrfGuard.NewSafeClient(cfg.ProviderTimeout))

	authService := auth.NewService(
		oauthProvider, userRepo, identRepo, sessionRepo, contactRepo,
		ssrfGuard, collector,
		auth.ServiceConfig{
			FriendImportMaxPages: cfg.FriendImportMaxPages,
			FriendImportTimeout:  cfg.FriendImportTimeout,
		},
	)
	convService := conversation.NewService(convRepo, statusRepo, userRepo, collector)
	userService := user.NewService(userRepo, contactRepo)

	// 6. 画面レンダラーの初期化
	renderer, err := view.NewRenderer(sanitizer)
	if err != nil {
		return fmt.Errorf("failed to build renderer: %w", err)
	}

	// 7. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.PostRate = rate.Limit(float64(cfg.RateLimitPost) / 60.0)
	rateLimiterCfg.PostBurst = cfg.RateLimitPost
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		SessionFinder:     sessionRepo,
		UserFinder:        userRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		Metrics:           collector,
		MetricsGatherer:   registry,

		AuthService: authService,
		AuthConfig: handler.AuthConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
		},
		UserService:         userService,
		ConversationService: convService,

		Renderer:      renderer,
		HealthChecker: &redisHealthChecker{client: client},
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
