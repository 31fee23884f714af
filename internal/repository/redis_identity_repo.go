package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/talkboard/internal/model"
	"github.com/hitoshi/talkboard/internal/store"
)

// RedisIdentityRepo はRedisハッシュを使用したプロバイダーアカウントリポジトリ。
type RedisIdentityRepo struct {
	client *redis.Client
}

// NewRedisIdentityRepo はRedisIdentityRepoを生成する。
func NewRedisIdentityRepo(client *redis.Client) *RedisIdentityRepo {
	return &RedisIdentityRepo{client: client}
}

// FindByProviderID はプロバイダーのアカウントIDでレコードを検索する。
// 見つからない場合はnilを返す。
func (r *RedisIdentityRepo) FindByProviderID(ctx context.Context, providerID string) (*model.ProviderIdentity, error) {
	fields, err := r.client.HGetAll(ctx, store.ProviderKey(providerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to find provider identity: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	return &model.ProviderIdentity{
		ID:              fields["id"],
		ScreenName:      fields["screen_name"],
		ProfileImageURL: fields["profile_image_url"],
		AccessToken:     fields["access_token"],
		SessionExpires:  fields["session_expires"],
		UserName:        fields["user_name"],
	}, nil
}

// Upsert はプロバイダーアカウントレコードを作成または更新する。
// ログインのたびに呼ばれ、プロバイダー由来のフィールドを最新化する。
func (r *RedisIdentityRepo) Upsert(ctx context.Context, identity *model.ProviderIdentity) error {
	fields := map[string]interface{}{
		"id":                identity.ID,
		"screen_name":       identity.ScreenName,
		"profile_image_url": identity.ProfileImageURL,
		"access_token":      identity.AccessToken,
		"session_expires":   identity.SessionExpires,
		"user_name":         identity.UserName,
	}

	if err := r.client.HSet(ctx, store.ProviderKey(identity.ID), fields).Err(); err != nil {
		return fmt.Errorf("failed to upsert provider identity: %w", err)
	}
	return nil
}

// UpsertProfile はプロフィールフィールドのみを作成または更新する。
// 友人リスト取り込みで使われ、既存レコードのトークンやユーザー名の紐付けを壊さない。
func (r *RedisIdentityRepo) UpsertProfile(ctx context.Context, identity *model.ProviderIdentity) error {
	fields := map[string]interface{}{
		"id":                identity.ID,
		"screen_name":       identity.ScreenName,
		"profile_image_url": identity.ProfileImageURL,
	}

	if err := r.client.HSet(ctx, store.ProviderKey(identity.ID), fields).Err(); err != nil {
		return fmt.Errorf("failed to upsert provider profile: %w", err)
	}
	return nil
}

// compile-time interface check
var _ IdentityRepository = (*RedisIdentityRepo)(nil)
