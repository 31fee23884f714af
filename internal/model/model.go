// Package model はドメインモデルを定義する。
package model

// User はサービス利用ユーザーを表す。
// nameが主キーであり、emailが空のユーザーは「未登録」として扱う。
type User struct {
	Name            string
	Email           string
	ProfileImageURL string
	ProviderID      string
}

// IsRegistered はユーザーが登録完了済み（email設定済み）かを返す。
func (u *User) IsRegistered() bool {
	return u != nil && u.Email != ""
}

// ProviderIdentity は外部プロバイダーのアカウント情報を表す。
// プロバイダーのアカウントIDごとに1レコード。UserNameがローカルユーザーへの紐付け。
type ProviderIdentity struct {
	ID              string
	ScreenName      string
	ProfileImageURL string
	AccessToken     string
	SessionExpires  string
	UserName        string
}

// Session はユーザーのログインセッションを表す。
// AccessTokenが主キー。有効期限は保持しない（クライアントがCookieを破棄するまで有効）。
type Session struct {
	AccessToken string
	CreatedTime float64
	UserName    string
}

// Conversation は会話スレッドを表す。
// Statusフィールドは最新ステータスの非正規化プレビューで、
// 同時投稿時はlast-writer-winsとなる。
type Conversation struct {
	ID          int64
	UpdatedTime float64
	Status      string
	UserName    string
}

// Status は会話に属する1件の投稿を表す。
type Status struct {
	ID          int64
	CreatedTime float64
	Text        string
	UserName    string
}

// Contact はユーザーの連絡先1件を表す。
// プロバイダーの友人リストから取り込まれた片方向のエッジ。
type Contact struct {
	Name      string
	AddedTime float64
}
