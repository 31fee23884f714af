package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/talkboard/internal/auth"
	"github.com/hitoshi/talkboard/internal/middleware"
)

// AuthServiceInterface は認証サービスのインターフェース。
type AuthServiceInterface interface {
	AuthorizeURL() string
	ExchangeCode(ctx context.Context, code string) (*auth.ProviderProfile, error)
	CompleteLogin(ctx context.Context, profile *auth.ProviderProfile) (*auth.LoginResult, error)
}

// AuthConfig は認証ハンドラーの設定。
type AuthConfig struct {
	CookieDomain string
	CookieSecure bool
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	authService AuthServiceInterface
	config      AuthConfig
}

// NewAuthHandler はAuthHandlerを作成する。
func NewAuthHandler(authService AuthServiceInterface, config AuthConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		config:      config,
	}
}

// Weibo はWeiboログインの入口とコールバックを兼ねるハンドラー。
// codeパラメータの有無で分岐する（プロバイダー側のコールバック先も同じURL）。
func (h *AuthHandler) Weibo(w http.ResponseWriter, r *http.Request) {
	// ログイン済みならそのままホームへ
	if cookie, err := r.Cookie(middleware.AccessTokenCookieName); err == nil && cookie.Value != "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		// 1. 認可画面へリダイレクト
		http.Redirect(w, r, h.authService.AuthorizeURL(), http.StatusFound)
		return
	}

	// 2. 認可コードをアクセストークンに交換
	profile, err := h.authService.ExchangeCode(r.Context(), code)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 3. ログイン処理（ユーザー登録・連絡先取り込み・セッション発行）
	result, err := h.authService.CompleteLogin(r.Context(), profile)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 4. セッションCookieを設定（HTTP Only、有効期限なし）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookieName,
		Value:    result.Session.AccessToken,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 未登録ユーザーはメールアドレス登録へ誘導する
	if result.User.IsRegistered() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/register", http.StatusFound)
}

// Logout はセッションCookieをクリアしてホームへリダイレクトする。
// セッションレコード自体は削除しない（Cookie破棄のみ）。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}
