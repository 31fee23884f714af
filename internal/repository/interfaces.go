// Package repository はデータ永続化のインターフェースを定義する。
// 永続化層は単一のRedisであり、各メソッドはRedisの1操作（または数操作）に
// 対応する。複数操作にまたがるトランザクションは提供しない。
package repository

import (
	"context"

	"github.com/hitoshi/talkboard/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByName は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.User, error)

	// Exists は指定ユーザー名のユーザーが存在するかを返す。
	Exists(ctx context.Context, name string) (bool, error)

	// Upsert はユーザーレコードを作成または更新する。
	Upsert(ctx context.Context, user *model.User) error

	// SetEmail はユーザーのemailフィールドのみを更新する。
	SetEmail(ctx context.Context, name, email string) error

	// RegisterAccount はユーザー名を全アカウント索引に登録時刻付きで追加する。
	RegisterAccount(ctx context.Context, name string, signupTime float64) error
}

// IdentityRepository は外部プロバイダーアカウント情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderID はプロバイダーのアカウントIDでレコードを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderID(ctx context.Context, providerID string) (*model.ProviderIdentity, error)

	// Upsert はプロバイダーアカウントレコードを作成または更新する。
	Upsert(ctx context.Context, identity *model.ProviderIdentity) error

	// UpsertProfile はプロフィールフィールド（id・screen_name・profile_image_url）のみを
	// 作成または更新する。既存レコードのトークンやユーザー名の紐付けは保持する。
	UpsertProfile(ctx context.Context, identity *model.ProviderIdentity) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを保存し、ユーザーのセッション索引にも追加する。
	Create(ctx context.Context, session *model.Session) error

	// FindByToken は指定アクセストークンのセッションを取得する。
	// 見つからない場合はnilを返す。期限の概念はない。
	FindByToken(ctx context.Context, accessToken string) (*model.Session, error)
}

// ContactRepository は連絡先エッジの永続化インターフェース。
type ContactRepository interface {
	// Add は連絡先を追加時刻付きで追加する。既存メンバーはスコアのみ更新される。
	Add(ctx context.Context, owner, contactName string, addedTime float64) error

	// ListNames は連絡先ユーザー名の一覧を追加時刻の昇順で返す。
	ListNames(ctx context.Context, owner string) ([]string, error)

	// Count は連絡先の件数を返す。取り込み済み判定に使用する。
	Count(ctx context.Context, owner string) (int64, error)
}

// ConversationRepository は会話・アクセス許可・フィードの永続化インターフェース。
type ConversationRepository interface {
	// NextID は会話ID採番カウンターをインクリメントして新しいIDを返す。
	NextID(ctx context.Context) (int64, error)

	// Find は指定IDの会話を取得する。見つからない場合はnilを返す。
	Find(ctx context.Context, conversationID int64) (*model.Conversation, error)

	// SavePreview は会話のプレビューフィールド（updated_time/status/user_name）を
	// 上書きする。バージョンチェックは行わない（last-writer-wins）。
	SavePreview(ctx context.Context, conversation *model.Conversation) error

	// GrantAccess は会話のアクセス許可セットにユーザー名を付与時刻付きで追加する。
	GrantAccess(ctx context.Context, conversationID int64, name string, grantTime float64) error

	// HasAccess は指定ユーザーが会話のアクセス許可を持つかを返す。
	HasAccess(ctx context.Context, conversationID int64, name string) (bool, error)

	// Participants はアクセス許可を付与時刻の降順で最大limit件返す。
	// limitが負の場合は全件返す。
	Participants(ctx context.Context, conversationID int64, limit int64) ([]string, error)

	// ParticipantCount はアクセス許可セットの件数を返す。
	ParticipantCount(ctx context.Context, conversationID int64) (int64, error)

	// AppendStatus は会話のステータスログ末尾にステータスIDを追記する。
	AppendStatus(ctx context.Context, conversationID, statusID int64) error

	// StatusCount は会話のステータスログの件数を返す。
	StatusCount(ctx context.Context, conversationID int64) (int64, error)

	// StatusIDsAfter はステータスログをsinceIDの位置の直後からcount件返す。
	// sinceIDが0の場合は先頭から、countが0以下の場合は末尾まで返す。
	// sinceIDがログに存在しない場合は空を返す。
	StatusIDsAfter(ctx context.Context, conversationID, sinceID, count int64) ([]int64, error)

	// BumpFeed はユーザーのフィードで会話のスコアを指定時刻に更新する。
	BumpFeed(ctx context.Context, name string, conversationID int64, when float64) error

	// FeedIDsAfter はユーザーのフィードをsinceIDのランクの直後からcount件返す。
	// sinceIDが0の場合は先頭から、countが0以下の場合は末尾まで返す。
	FeedIDsAfter(ctx context.Context, name string, sinceID, count int64) ([]int64, error)

	// SetReadCount はユーザーの既読ウォーターマークを更新する。
	SetReadCount(ctx context.Context, name string, conversationID, statusCount int64) error

	// ReadCount はユーザーの既読ウォーターマークを返す。未設定の場合は0を返す。
	ReadCount(ctx context.Context, name string, conversationID int64) (int64, error)
}

// StatusRepository はステータスレコードの永続化インターフェース。
type StatusRepository interface {
	// NextID はステータスID採番カウンターをインクリメントして新しいIDを返す。
	NextID(ctx context.Context) (int64, error)

	// Create はステータスレコードを保存する。
	Create(ctx context.Context, status *model.Status) error

	// FindByID は指定IDのステータスを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, statusID int64) (*model.Status, error)
}
