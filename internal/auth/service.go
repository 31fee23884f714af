package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/talkboard/internal/model"
	"github.com/hitoshi/talkboard/internal/repository"
)

// AvatarValidator はプロバイダー由来のアバターURLを保存前に検証するインターフェース。
// security.SSRFGuardServiceの部分集合として定義する。
type AvatarValidator interface {
	ValidateURL(rawURL string) error
}

// MetricsRecorder はログイン関連メトリクスの記録インターフェース。
type MetricsRecorder interface {
	RecordLogin(isNewUser bool)
	RecordFriendImportPages(pages int)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// FriendImportMaxPages は友人リスト取り込みのページ数上限。
	// プロバイダーがカーソル0を返さない場合の無限ループを防ぐ。
	FriendImportMaxPages int

	// FriendImportTimeout は友人リスト取り込み全体の期限。
	FriendImportTimeout time.Duration
}

// LoginResult はログイン完了の結果を表す。
type LoginResult struct {
	Session *model.Session
	User    *model.User
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	provider    OAuthProvider
	userRepo    repository.UserRepository
	identRepo   repository.IdentityRepository
	sessionRepo repository.SessionRepository
	contactRepo repository.ContactRepository
	avatar      AvatarValidator
	metrics     MetricsRecorder
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	provider OAuthProvider,
	userRepo repository.UserRepository,
	identRepo repository.IdentityRepository,
	sessionRepo repository.SessionRepository,
	contactRepo repository.ContactRepository,
	avatar AvatarValidator,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		provider:    provider,
		userRepo:    userRepo,
		identRepo:   identRepo,
		sessionRepo: sessionRepo,
		contactRepo: contactRepo,
		avatar:      avatar,
		metrics:     metrics,
		config:      config,
	}
}

// AuthorizeURL はOAuth認証URLを返す。
func (s *Service) AuthorizeURL() string {
	return s.provider.AuthorizeURL()
}

// ExchangeCode は認可コードをプロバイダーのアカウント情報に交換する。
func (s *Service) ExchangeCode(ctx context.Context, code string) (*ProviderProfile, error) {
	profile, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, model.NewProviderError(err.Error())
	}
	return profile, nil
}

// CompleteLogin はプロバイダーのアカウント情報からログインを完了する。
//
// 1. アカウントIDがない場合はForbiddenで失敗する。
// 2. 既存のプロバイダーレコードにuser_nameがあればそれを再利用し、
//    なければscreen_nameをローカルユーザー名の初期値とする。
// 3. プロバイダーレコードとユーザーレコードをupsertする。
// 4. 連絡先が未取り込みの場合は友人リストを取り込む（ページ数上限・期限付き）。
// 5. 新しいセッショントークンを発行して永続化する。
func (s *Service) CompleteLogin(ctx context.Context, profile *ProviderProfile) (*LoginResult, error) {
	// 1. アカウントIDの確認
	if profile == nil || profile.ID == "" {
		return nil, model.NewLoginForbiddenError()
	}

	// 2. ローカルユーザー名の決定（再ログインでは既存の紐付けを再利用する）
	existing, err := s.identRepo.FindByProviderID(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find provider identity: %w", err)
	}

	userName := profile.ScreenName
	if existing != nil && existing.UserName != "" {
		userName = existing.UserName
	}
	if userName == "" {
		userName = "Unknown"
	}

	// アバターURLはプロバイダー由来の値なので保存前に検証し、危険なURLは破棄する
	avatarURL := profile.ProfileImageURL
	if avatarURL != "" {
		if err := s.avatar.ValidateURL(avatarURL); err != nil {
			slog.Warn("dropping unsafe avatar url",
				slog.String("provider_id", profile.ID),
				slog.String("error", err.Error()),
			)
			avatarURL = ""
		}
	}

	// 3. プロバイダーレコードのupsert（ログインのたびにプロバイダー由来の値を最新化）
	identity := &model.ProviderIdentity{
		ID:              profile.ID,
		ScreenName:      profile.ScreenName,
		ProfileImageURL: avatarURL,
		AccessToken:     profile.AccessToken,
		SessionExpires:  profile.SessionExpires,
		UserName:        userName,
	}
	if err := s.identRepo.Upsert(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to upsert provider identity: %w", err)
	}

	// ユーザーレコードのupsert
	user, err := s.userRepo.FindByName(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	isNewUser := user == nil
	if isNewUser {
		if err := s.userRepo.RegisterAccount(ctx, userName, nowUnix()); err != nil {
			return nil, fmt.Errorf("failed to register account: %w", err)
		}
		user = &model.User{
			Name:            userName,
			ProfileImageURL: avatarURL,
			ProviderID:      profile.ID,
		}
	} else {
		user.ProfileImageURL = avatarURL
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	// 4. 連絡先が未取り込みの場合のみ友人リストを取り込む
	contactCount, err := s.contactRepo.Count(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}
	if contactCount == 0 {
		// 取り込み失敗でログイン自体は失敗させない。
		// 途中で中断した場合、取り込み済みの連絡先が残ると再試行されない
		// （1件でも入るとcontactCount > 0になる）。
		if err := s.importFriends(ctx, userName, profile); err != nil {
			slog.Warn("friend import aborted",
				slog.String("user_name", userName),
				slog.String("error", err.Error()),
			)
		}
	}

	// 5. セッションの発行
	session := &model.Session{
		AccessToken: newSessionToken(),
		CreatedTime: nowUnix(),
		UserName:    userName,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLogin(isNewUser)
	}
	slog.Info("login completed",
		slog.String("user_name", userName),
		slog.Bool("new_user", isNewUser),
	)

	return &LoginResult{Session: session, User: user}, nil
}

// importFriends はプロバイダーの友人リストをページネーションで取り込む。
// ページ数上限と期限を超えた場合はエラーを返して打ち切る。
func (s *Service) importFriends(ctx context.Context, userName string, profile *ProviderProfile) error {
	importCtx := ctx
	if s.config.FriendImportTimeout > 0 {
		var cancel context.CancelFunc
		importCtx, cancel = context.WithTimeout(ctx, s.config.FriendImportTimeout)
		defer cancel()
	}

	maxPages := s.config.FriendImportMaxPages
	if maxPages <= 0 {
		maxPages = 50
	}

	cursor := int64(0)
	pages := 0
	for {
		if pages >= maxPages {
			if s.metrics != nil {
				s.metrics.RecordFriendImportPages(pages)
			}
			return model.NewFriendImportError(fmt.Sprintf("ページ数が上限（%d）に達しました", maxPages))
		}

		page, err := s.provider.ListFriends(importCtx, profile.AccessToken, profile.ID, cursor)
		if err != nil {
			if s.metrics != nil {
				s.metrics.RecordFriendImportPages(pages)
			}
			if importCtx.Err() != nil {
				return model.NewFriendImportError("期限を超過しました")
			}
			return model.NewProviderError(err.Error())
		}
		pages++

		for _, friend := range page.Users {
			if friend.ScreenName == "" {
				continue
			}
			if err := s.contactRepo.Add(importCtx, userName, friend.ScreenName, nowUnix()); err != nil {
				return fmt.Errorf("failed to add contact: %w", err)
			}
			stub := &model.ProviderIdentity{
				ID:              friend.ID,
				ScreenName:      friend.ScreenName,
				ProfileImageURL: friend.ProfileImageURL,
			}
			if err := s.identRepo.UpsertProfile(importCtx, stub); err != nil {
				return fmt.Errorf("failed to upsert friend identity: %w", err)
			}
		}

		cursor = page.NextCursor
		if cursor == 0 {
			break
		}
	}

	if s.metrics != nil {
		s.metrics.RecordFriendImportPages(pages)
	}
	slog.Info("friend import completed",
		slog.String("user_name", userName),
		slog.Int("pages", pages),
	)
	return nil
}

// newSessionToken はランダムな128ビットのセッショントークンを16進文字列で生成する。
func newSessionToken() string {
	u := uuid.New()
	return fmt.Sprintf("%x", u[:])
}

// nowUnix は現在時刻を浮動小数点のUnix秒で返す。
func nowUnix() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
