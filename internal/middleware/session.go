// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/talkboard/internal/model"
)

// AccessTokenCookieName はセッショントークンを運ぶCookie名。
// 同名のクエリパラメータがフォールバックとして使われる。
const AccessTokenCookieName = "access_token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByToken(ctx context.Context, accessToken string) (*model.Session, error)
}

// UserFinder はユーザーの検索に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByName(ctx context.Context, name string) (*model.User, error)
}

// NewSessionMiddleware はアクセストークンからセッションとユーザーを解決する
// ミドルウェアを返す。トークンはCookieを優先し、なければ同名のクエリパラメータを見る。
// 解決できないリクエストには401を返さず、anonymousハンドラー（匿名ランディング）に
// フォールバックする。
func NewSessionMiddleware(sessionFinder SessionFinder, userFinder UserFinder, anonymous http.Handler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. トークンの取得（Cookie優先、クエリパラメータをフォールバック）
			token := ""
			if cookie, err := r.Cookie(AccessTokenCookieName); err == nil {
				token = cookie.Value
			}
			if token == "" {
				token = r.URL.Query().Get(AccessTokenCookieName)
			}
			if token == "" {
				anonymous.ServeHTTP(w, r)
				return
			}

			// 2. セッションの解決
			session, err := sessionFinder.FindByToken(r.Context(), token)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				anonymous.ServeHTTP(w, r)
				return
			}
			if session == nil {
				anonymous.ServeHTTP(w, r)
				return
			}

			// 3. ユーザーの解決
			user, err := userFinder.FindByName(r.Context(), session.UserName)
			if err != nil {
				slog.Error("failed to find session user",
					slog.String("error", err.Error()),
				)
				anonymous.ServeHTTP(w, r)
				return
			}
			if user == nil {
				anonymous.ServeHTTP(w, r)
				return
			}

			// 4. 認証済みユーザーをコンテキストに注入
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
