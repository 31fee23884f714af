// Package auth はOAuth認証フロー、セッション管理、連絡先の取り込みを提供する。
package auth

import "context"

// ProviderProfile はOAuthプロバイダーから取得した本人のアカウント情報を表す。
type ProviderProfile struct {
	ID              string
	ScreenName      string
	ProfileImageURL string
	AccessToken     string
	SessionExpires  string
}

// ProviderUser はプロバイダーの友人リストに含まれるユーザー1件を表す。
type ProviderUser struct {
	ID              string
	ScreenName      string
	ProfileImageURL string
}

// FriendPage は友人リスト1ページ分の取得結果を表す。
// NextCursorが0のときが最終ページ。
type FriendPage struct {
	Users      []ProviderUser
	NextCursor int64
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
// 将来的に複数プロバイダーに対応するための抽象化。
type OAuthProvider interface {
	// AuthorizeURL はOAuth認証URLを返す。
	AuthorizeURL() string

	// ExchangeCode は認可コードをトークンに交換し、本人のアカウント情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*ProviderProfile, error)

	// ListFriends は友人リストをカーソル指定で1ページ取得する。
	ListFriends(ctx context.Context, accessToken, uid string, cursor int64) (*FriendPage, error)
}
