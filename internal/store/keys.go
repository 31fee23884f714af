package store

import (
	"fmt"
	"strconv"
)

// キービルダー。エンティティ/リレーションごとに1関数を定義し、
// フォーマット文字列をこのファイルの外に漏らさない。

// UserKey はユーザーレコード（ハッシュ）のキーを返す。
func UserKey(name string) string {
	return "user:" + name
}

// SessionKey はセッションレコード（ハッシュ）のキーを返す。
func SessionKey(accessToken string) string {
	return "session:" + accessToken
}

// ProviderKey はプロバイダーアカウントレコード（ハッシュ）のキーを返す。
func ProviderKey(providerID string) string {
	return "weibo:" + providerID
}

// ConversationKey は会話レコード（ハッシュ）のキーを返す。
func ConversationKey(conversationID int64) string {
	return fmt.Sprintf("conversation:%d", conversationID)
}

// ConversationAccessKey は会話のアクセス許可セット（sorted set、member=ユーザー名、
// score=付与時刻）のキーを返す。
func ConversationAccessKey(conversationID int64) string {
	return fmt.Sprintf("conversation:%d:access", conversationID)
}

// ConversationStatusKey は会話のステータスログ（リスト、member=ステータスID、
// 追記専用）のキーを返す。
func ConversationStatusKey(conversationID int64) string {
	return fmt.Sprintf("conversation:%d:statuses", conversationID)
}

// StatusKey はステータスレコード（ハッシュ）のキーを返す。
func StatusKey(statusID int64) string {
	return fmt.Sprintf("status:%d", statusID)
}

// UserConversationsKey はユーザーのフィード（sorted set、member=会話ID、
// score=最終更新時刻）のキーを返す。
func UserConversationsKey(name string) string {
	return "user:" + name + ":conversation_list"
}

// UserContactsKey はユーザーの連絡先セット（sorted set、member=連絡先ユーザー名、
// score=追加時刻）のキーを返す。
func UserContactsKey(name string) string {
	return "user:" + name + ":contact"
}

// UserSessionsKey はユーザーに発行された全セッションの索引（sorted set、
// member=アクセストークン、score=発行時刻）のキーを返す。
func UserSessionsKey(name string) string {
	return "user:" + name + ":session"
}

// UserReadCountKey はユーザーの既読ウォーターマーク（sorted set、member=会話ID、
// score=最終閲覧時のステータス数）のキーを返す。
func UserReadCountKey(name string) string {
	return "user:" + name + ":read_count"
}

// AccountsKey は全ユーザー名の索引（sorted set、member=ユーザー名、
// score=登録時刻）のキーを返す。
func AccountsKey() string {
	return "user:accounts"
}

// ConversationCounterKey は会話ID採番カウンターのキーを返す。
func ConversationCounterKey() string {
	return "count:conversation"
}

// StatusCounterKey はステータスID採番カウンターのキーを返す。
func StatusCounterKey() string {
	return "count:status"
}

// FormatID はカウンターが採番した数値IDをsorted setメンバー用の文字列に変換する。
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseID はsorted setメンバーの文字列を数値IDに変換する。
func ParseID(member string) (int64, error) {
	id, err := strconv.ParseInt(member, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id member %q: %w", member, err)
	}
	return id, nil
}
