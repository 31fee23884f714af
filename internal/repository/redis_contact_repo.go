package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/talkboard/internal/store"
)

// RedisContactRepo はRedis sorted setを使用した連絡先リポジトリ。
// エッジは片方向であり、相互関係は保証しない。
type RedisContactRepo struct {
	client *redis.Client
}

// NewRedisContactRepo はRedisContactRepoを生成する。
func NewRedisContactRepo(client *redis.Client) *RedisContactRepo {
	return &RedisContactRepo{client: client}
}

// Add は連絡先を追加時刻付きで追加する。既存メンバーはスコアのみ更新される。
func (r *RedisContactRepo) Add(ctx context.Context, owner, contactName string, addedTime float64) error {
	err := r.client.ZAdd(ctx, store.UserContactsKey(owner), redis.Z{
		Score:  addedTime,
		Member: contactName,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add contact: %w", err)
	}
	return nil
}

// ListNames は連絡先ユーザー名の一覧を追加時刻の昇順で返す。
func (r *RedisContactRepo) ListNames(ctx context.Context, owner string) ([]string, error) {
	names, err := r.client.ZRange(ctx, store.UserContactsKey(owner), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return names, nil
}

// Count は連絡先の件数を返す。
func (r *RedisContactRepo) Count(ctx context.Context, owner string) (int64, error) {
	n, err := r.client.ZCard(ctx, store.UserContactsKey(owner)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return n, nil
}

// compile-time interface check
var _ ContactRepository = (*RedisContactRepo)(nil)
