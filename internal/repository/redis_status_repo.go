package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/talkboard/internal/model"
	"github.com/hitoshi/talkboard/internal/store"
)

// RedisStatusRepo はRedisハッシュを使用したステータスリポジトリ。
// ステータスは追記専用で、更新・削除の経路は存在しない。
type RedisStatusRepo struct {
	client *redis.Client
}

// NewRedisStatusRepo はRedisStatusRepoを生成する。
func NewRedisStatusRepo(client *redis.Client) *RedisStatusRepo {
	return &RedisStatusRepo{client: client}
}

// NextID はステータスID採番カウンターをインクリメントして新しいIDを返す。
func (r *RedisStatusRepo) NextID(ctx context.Context) (int64, error) {
	id, err := r.client.Incr(ctx, store.StatusCounterKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate status id: %w", err)
	}
	return id, nil
}

// Create はステータスレコードを保存する。
func (r *RedisStatusRepo) Create(ctx context.Context, status *model.Status) error {
	fields := map[string]interface{}{
		"created_time": formatTime(status.CreatedTime),
		"status":       status.Text,
		"user_name":    status.UserName,
	}

	if err := r.client.HSet(ctx, store.StatusKey(status.ID), fields).Err(); err != nil {
		return fmt.Errorf("failed to create status: %w", err)
	}
	return nil
}

// FindByID は指定IDのステータスを取得する。見つからない場合はnilを返す。
func (r *RedisStatusRepo) FindByID(ctx context.Context, statusID int64) (*model.Status, error) {
	fields, err := r.client.HGetAll(ctx, store.StatusKey(statusID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to find status: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	createdTime, err := parseTime(fields["created_time"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse status created_time: %w", err)
	}

	return &model.Status{
		ID:          statusID,
		CreatedTime: createdTime,
		Text:        fields["status"],
		UserName:    fields["user_name"],
	}, nil
}

// compile-time interface check
var _ StatusRepository = (*RedisStatusRepo)(nil)
