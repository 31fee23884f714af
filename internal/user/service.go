// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/talkboard/internal/model"
	"github.com/hitoshi/talkboard/internal/repository"
)

// Service はユーザー管理のサービス層。
// 登録完了と連絡先の参照を提供する。
type Service struct {
	userRepo    repository.UserRepository
	contactRepo repository.ContactRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, contactRepo repository.ContactRepository) *Service {
	return &Service{
		userRepo:    userRepo,
		contactRepo: contactRepo,
	}
}

// CompleteRegistration はemailを設定してアカウント登録を完了する。
// emailの有無が「登録済み」の判定に使われる。
func (s *Service) CompleteRegistration(ctx context.Context, name, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.NewEmailRequiredError()
	}

	if err := s.userRepo.SetEmail(ctx, name, email); err != nil {
		return fmt.Errorf("failed to set email: %w", err)
	}

	slog.Info("registration completed",
		slog.String("user_name", name),
	)
	return nil
}

// Contacts は連絡先ユーザー名の一覧を追加時刻の昇順で返す。
func (s *Service) Contacts(ctx context.Context, name string) ([]string, error) {
	contacts, err := s.contactRepo.ListNames(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}
