package auth

import (
	"context"
	"fmt"

	"github.com/hitoshi/linkman/internal/model"
	"github.com/hitoshi/linkman/internal/repository"
)

// SessionMapper は認証済みユーザーとセッションに保存する識別子を相互に変換する。
// セッションにはユーザーIDのみを保存し、属性はリクエストごとに再取得する。
type SessionMapper struct {
	users repository.UserRepository
}

// NewSessionMapper はSessionMapperを生成する。
func NewSessionMapper(users repository.UserRepository) *SessionMapper {
	return &SessionMapper{users: users}
}

// Serialize はセッションに保存する識別子を返す。
func (m *SessionMapper) Serialize(user *model.User) string {
	return user.ID
}

// Resolve は識別子からユーザーを取得する。
// ユーザーが削除済みなどで解決できない場合は(nil, nil)を返し、未認証として扱う。
// エラーはストア障害の場合のみ返す。
func (m *SessionMapper) Resolve(ctx context.Context, identity string) (*model.User, error) {
	if identity == "" {
		return nil, nil
	}
	user, err := m.users.FindByID(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session identity: %w", err)
	}
	return user, nil
}
