package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/talkboard/internal/model"
	"github.com/hitoshi/talkboard/internal/store"
)

// RedisConversationRepo はRedisを使用した会話リポジトリ。
// 会話本体はハッシュ、アクセス許可はsorted set、ステータスログはリスト、
// フィードと既読ウォーターマークはユーザーごとのsorted setに格納する。
type RedisConversationRepo struct {
	client *redis.Client
}

// NewRedisConversationRepo はRedisConversationRepoを生成する。
func NewRedisConversationRepo(client *redis.Client) *RedisConversationRepo {
	return &RedisConversationRepo{client: client}
}

// NextID は会話ID採番カウンターをインクリメントして新しいIDを返す。
// IDは単調増加であり、これがシステム唯一の順序保証となる。
func (r *RedisConversationRepo) NextID(ctx context.Context) (int64, error) {
	id, err := r.client.Incr(ctx, store.ConversationCounterKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate conversation id: %w", err)
	}
	return id, nil
}

// Find は指定IDの会話を取得する。見つからない場合はnilを返す。
func (r *RedisConversationRepo) Find(ctx context.Context, conversationID int64) (*model.Conversation, error) {
	fields, err := r.client.HGetAll(ctx, store.ConversationKey(conversationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	updatedTime, err := parseTime(fields["updated_time"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse conversation updated_time: %w", err)
	}

	return &model.Conversation{
		ID:          conversationID,
		UpdatedTime: updatedTime,
		Status:      fields["status"],
		UserName:    fields["user_name"],
	}, nil
}

// SavePreview は会話のプレビューフィールドを上書きする。
// 同時投稿では後勝ちになるが、プレビューは表示用の非正規化値であり許容する。
func (r *RedisConversationRepo) SavePreview(ctx context.Context, conversation *model.Conversation) error {
	fields := map[string]interface{}{
		"updated_time": formatTime(conversation.UpdatedTime),
		"status":       conversation.Status,
		"user_name":    conversation.UserName,
	}

	if err := r.client.HSet(ctx, store.ConversationKey(conversation.ID), fields).Err(); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// GrantAccess は会話のアクセス許可セットにユーザー名を付与時刻付きで追加する。
// 存在しないユーザー名も許可される（メンション由来のファントム許可）。
func (r *RedisConversationRepo) GrantAccess(ctx context.Context, conversationID int64, name string, grantTime float64) error {
	err := r.client.ZAdd(ctx, store.ConversationAccessKey(conversationID), redis.Z{
		Score:  grantTime,
		Member: name,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to grant access: %w", err)
	}
	return nil
}

// HasAccess は指定ユーザーが会話のアクセス許可を持つかを返す。
func (r *RedisConversationRepo) HasAccess(ctx context.Context, conversationID int64, name string) (bool, error) {
	err := r.client.ZScore(ctx, store.ConversationAccessKey(conversationID), name).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check access: %w", err)
	}
	return true, nil
}

// Participants はアクセス許可を付与時刻の降順で最大limit件返す。
// limitが負の場合は全件返す。
func (r *RedisConversationRepo) Participants(ctx context.Context, conversationID int64, limit int64) ([]string, error) {
	stop := limit - 1
	if limit < 0 {
		stop = -1
	}
	names, err := r.client.ZRevRange(ctx, store.ConversationAccessKey(conversationID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return names, nil
}

// ParticipantCount はアクセス許可セットの件数を返す。
func (r *RedisConversationRepo) ParticipantCount(ctx context.Context, conversationID int64) (int64, error) {
	n, err := r.client.ZCard(ctx, store.ConversationAccessKey(conversationID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return n, nil
}

// AppendStatus は会話のステータスログ末尾にステータスIDを追記する。
func (r *RedisConversationRepo) AppendStatus(ctx context.Context, conversationID, statusID int64) error {
	err := r.client.RPush(ctx, store.ConversationStatusKey(conversationID), store.FormatID(statusID)).Err()
	if err != nil {
		return fmt.Errorf("failed to append status: %w", err)
	}
	return nil
}

// StatusCount は会話のステータスログの件数を返す。
func (r *RedisConversationRepo) StatusCount(ctx context.Context, conversationID int64) (int64, error) {
	n, err := r.client.LLen(ctx, store.ConversationStatusKey(conversationID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count statuses: %w", err)
	}
	return n, nil
}

// StatusIDsAfter はステータスログをsinceIDの位置の直後からcount件返す。
// sinceIDが0の場合は先頭から、countが0以下の場合は末尾まで返す。
func (r *RedisConversationRepo) StatusIDsAfter(ctx context.Context, conversationID, sinceID, count int64) ([]int64, error) {
	key := store.ConversationStatusKey(conversationID)

	start := int64(0)
	if sinceID != 0 {
		pos, err := r.client.LPos(ctx, key, store.FormatID(sinceID), redis.LPosArgs{}).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to locate since_id in status log: %w", err)
		}
		start = pos + 1
	}

	stop := int64(-1)
	if count > 0 {
		stop = start + count - 1
	}

	members, err := r.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to page status log: %w", err)
	}

	return parseIDs(members)
}

// BumpFeed はユーザーのフィードで会話のスコアを指定時刻に更新する。
func (r *RedisConversationRepo) BumpFeed(ctx context.Context, name string, conversationID int64, when float64) error {
	err := r.client.ZAdd(ctx, store.UserConversationsKey(name), redis.Z{
		Score:  when,
		Member: store.FormatID(conversationID),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to bump feed: %w", err)
	}
	return nil
}

// FeedIDsAfter はユーザーのフィードをsinceIDのランクの直後からcount件返す。
// sinceIDが0の場合は先頭から、countが0以下の場合は末尾まで返す。
// sinceIDがフィードに存在しない場合は空を返す。
func (r *RedisConversationRepo) FeedIDsAfter(ctx context.Context, name string, sinceID, count int64) ([]int64, error) {
	key := store.UserConversationsKey(name)

	start := int64(0)
	if sinceID != 0 {
		rank, err := r.client.ZRank(ctx, key, store.FormatID(sinceID)).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to locate since_id in feed: %w", err)
		}
		start = rank + 1
	}

	stop := int64(-1)
	if count > 0 {
		stop = start + count - 1
	}

	members, err := r.client.ZRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to page feed: %w", err)
	}

	return parseIDs(members)
}

// SetReadCount はユーザーの既読ウォーターマークを更新する。
func (r *RedisConversationRepo) SetReadCount(ctx context.Context, name string, conversationID, statusCount int64) error {
	err := r.client.ZAdd(ctx, store.UserReadCountKey(name), redis.Z{
		Score:  float64(statusCount),
		Member: store.FormatID(conversationID),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to set read count: %w", err)
	}
	return nil
}

// ReadCount はユーザーの既読ウォーターマークを返す。未設定の場合は0を返す。
func (r *RedisConversationRepo) ReadCount(ctx context.Context, name string, conversationID int64) (int64, error) {
	score, err := r.client.ZScore(ctx, store.UserReadCountKey(name), store.FormatID(conversationID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get read count: %w", err)
	}
	return int64(score), nil
}

// parseIDs はsorted set/リストのメンバー文字列列を数値ID列に変換する。
func parseIDs(members []string) ([]int64, error) {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := store.ParseID(m)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// compile-time interface check
var _ ConversationRepository = (*RedisConversationRepo)(nil)
