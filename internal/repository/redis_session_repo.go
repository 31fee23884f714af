package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/talkboard/internal/model"
	"github.com/hitoshi/talkboard/internal/store"
)

// RedisSessionRepo はRedisハッシュを使用したセッションリポジトリ。
// セッションにTTLは設定しない。失効はクライアントのCookie破棄に委ねる。
type RedisSessionRepo struct {
	client *redis.Client
}

// NewRedisSessionRepo はRedisSessionRepoを生成する。
func NewRedisSessionRepo(client *redis.Client) *RedisSessionRepo {
	return &RedisSessionRepo{client: client}
}

// Create はセッションを保存し、ユーザーのセッション索引にも追加する。
// 2操作はアトミックではなく、途中で失敗した場合は索引に載らないセッションが残りうる。
func (r *RedisSessionRepo) Create(ctx context.Context, session *model.Session) error {
	fields := map[string]interface{}{
		"access_token": session.AccessToken,
		"created_time": formatTime(session.CreatedTime),
		"user_name":    session.UserName,
	}

	if err := r.client.HSet(ctx, store.SessionKey(session.AccessToken), fields).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	err := r.client.ZAdd(ctx, store.UserSessionsKey(session.UserName), redis.Z{
		Score:  session.CreatedTime,
		Member: session.AccessToken,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to index session: %w", err)
	}

	return nil
}

// FindByToken は指定アクセストークンのセッションを取得する。
// 見つからない場合はnilを返す。
func (r *RedisSessionRepo) FindByToken(ctx context.Context, accessToken string) (*model.Session, error) {
	fields, err := r.client.HGetAll(ctx, store.SessionKey(accessToken)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	createdTime, err := parseTime(fields["created_time"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse session created_time: %w", err)
	}

	return &model.Session{
		AccessToken: fields["access_token"],
		CreatedTime: createdTime,
		UserName:    fields["user_name"],
	}, nil
}

// compile-time interface check
var _ SessionRepository = (*RedisSessionRepo)(nil)
