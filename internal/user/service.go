// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/linkman/internal/model"
	"github.com/hitoshi/linkman/internal/repository"
)

// SessionRevoker はユーザーの全セッションを破棄するインターフェース。
type SessionRevoker interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// Service はユーザー管理のサービス層。
type Service struct {
	users    repository.UserRepository
	sessions SessionRevoker
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(users repository.UserRepository, sessions SessionRevoker) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: sessions → user（+ CASCADE: identities）
// 発行済みのセッションIDは以後どのユーザーにも解決されない。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("withdrawing user", slog.String("user_id", userID))

	if err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	if err := s.users.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user withdrawn",
		slog.String("user_id", userID),
		slog.String("email", user.Email),
	)

	return nil
}
