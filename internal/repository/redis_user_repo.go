package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/talkboard/internal/model"
	"github.com/hitoshi/talkboard/internal/store"
)

// RedisUserRepo はRedisハッシュを使用したユーザーリポジトリ。
type RedisUserRepo struct {
	client *redis.Client
}

// NewRedisUserRepo はRedisUserRepoを生成する。
func NewRedisUserRepo(client *redis.Client) *RedisUserRepo {
	return &RedisUserRepo{client: client}
}

// FindByName は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
func (r *RedisUserRepo) FindByName(ctx context.Context, name string) (*model.User, error) {
	fields, err := r.client.HGetAll(ctx, store.UserKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to find user by name: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	return &model.User{
		Name:            fields["name"],
		Email:           fields["email"],
		ProfileImageURL: fields["profile_image_url"],
		ProviderID:      fields["weibo"],
	}, nil
}

// Exists は指定ユーザー名のユーザーが存在するかを返す。
func (r *RedisUserRepo) Exists(ctx context.Context, name string) (bool, error) {
	n, err := r.client.Exists(ctx, store.UserKey(name)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return n > 0, nil
}

// Upsert はユーザーレコードを作成または更新する。
func (r *RedisUserRepo) Upsert(ctx context.Context, user *model.User) error {
	fields := map[string]interface{}{
		"name":              user.Name,
		"profile_image_url": user.ProfileImageURL,
		"weibo":             user.ProviderID,
	}
	// emailは登録完了の印。空値で上書きして未登録に戻さない。
	if user.Email != "" {
		fields["email"] = user.Email
	}

	if err := r.client.HSet(ctx, store.UserKey(user.Name), fields).Err(); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// SetEmail はユーザーのemailフィールドのみを更新する。
func (r *RedisUserRepo) SetEmail(ctx context.Context, name, email string) error {
	if err := r.client.HSet(ctx, store.UserKey(name), "email", email).Err(); err != nil {
		return fmt.Errorf("failed to set email: %w", err)
	}
	return nil
}

// RegisterAccount はユーザー名を全アカウント索引に登録時刻付きで追加する。
func (r *RedisUserRepo) RegisterAccount(ctx context.Context, name string, signupTime float64) error {
	err := r.client.ZAdd(ctx, store.AccountsKey(), redis.Z{
		Score:  signupTime,
		Member: name,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to register account: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*RedisUserRepo)(nil)
