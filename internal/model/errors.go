package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, conversation, provider, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeStatusRequired     = "STATUS_REQUIRED"
	ErrCodeProviderError      = "PROVIDER_ERROR"
	ErrCodeFriendImportFailed = "FRIEND_IMPORT_FAILED"
)

// NewConversationForbiddenError はアクセス権のない会話への投稿エラーを生成する。
func NewConversationForbiddenError(conversationID int64) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("この会話への投稿権限がありません: %d", conversationID),
		Category: "conversation",
		Action:   "会話のメンバーにメンションしてもらうか、新しい会話を開始してください。",
	}
}

// NewLoginForbiddenError はプロバイダーIDを持たないログイン試行のエラーを生成する。
func NewLoginForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "プロバイダーからアカウントIDを取得できませんでした。",
		Category: "auth",
		Action:   "もう一度ログインし直してください。",
	}
}

// NewEmailRequiredError はemailのない登録完了リクエストのエラーを生成する。
func NewEmailRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "emailが指定されていません。",
		Category: "validation",
		Action:   "emailフィールドを指定してください。",
	}
}

// NewStatusRequiredError は本文のない投稿エラーを生成する。
func NewStatusRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeStatusRequired,
		Message:  "投稿本文が空です。",
		Category: "validation",
		Action:   "statusフィールドに本文を指定してください。",
	}
}

// NewProviderError はプロバイダーAPI呼び出し失敗のエラーを生成する。
func NewProviderError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeProviderError,
		Message:  fmt.Sprintf("プロバイダーとの通信に失敗しました: %s", reason),
		Category: "provider",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewFriendImportError は友人リスト取り込みの中断エラーを生成する。
// ページ数上限または期限超過でプロバイダーのページネーションを打ち切った場合に使用する。
func NewFriendImportError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFriendImportFailed,
		Message:  fmt.Sprintf("連絡先の取り込みを中断しました: %s", reason),
		Category: "provider",
		Action:   "取り込み済みの連絡先はそのまま利用できます。",
	}
}
