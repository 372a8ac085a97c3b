package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hitoshi/linkman/internal/repository"
)

// CredentialHasher はパスワードのハッシュ化と検証を行う。
// password.Hasherが実装する。
type CredentialHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// NormalizeEmail はメールアドレスを比較用に正規化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LocalStrategy はメールアドレスとパスワードによる認証を行う。
type LocalStrategy struct {
	users  repository.UserRepository
	hasher CredentialHasher

	// ユーザー不在時にも同じコストで検証するためのダイジェスト
	dummyOnce   sync.Once
	dummyDigest string
}

// NewLocalStrategy はLocalStrategyを生成する。
func NewLocalStrategy(users repository.UserRepository, hasher CredentialHasher) *LocalStrategy {
	return &LocalStrategy{users: users, hasher: hasher}
}

// Authenticate はメールアドレスでユーザーを検索し、パスワードを検証する。
// ユーザー不在とパスワード不一致はRejectedとして区別して返すが、
// 呼び出し側は両者を同一のメッセージで表示すること。
func (s *LocalStrategy) Authenticate(ctx context.Context, email, plaintext string) Outcome {
	email = NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return Failed(fmt.Errorf("failed to find user by email: %w", err))
	}
	if user == nil {
		s.hasher.Verify(plaintext, s.dummy())
		slog.Info("local sign-in rejected",
			slog.String("email", email),
			slog.String("reason", string(ReasonNoSuchUser)),
		)
		return Rejected(ReasonNoSuchUser)
	}

	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		slog.Info("local sign-in rejected",
			slog.String("user_id", user.ID),
			slog.String("reason", string(ReasonWrongCredential)),
		)
		return Rejected(ReasonWrongCredential)
	}

	return Authenticated(user)
}

// dummy は不在ユーザーの照合に使うダイジェストを返す。初回呼び出し時に一度だけ生成する。
// 生成に失敗した場合は空文字を返し、照合は即座にfalseとなる。
func (s *LocalStrategy) dummy() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash("linkman-no-such-user")
		if err != nil {
			slog.Error("failed to prepare dummy digest", slog.String("error", err.Error()))
			return
		}
		s.dummyDigest = digest
	})
	return s.dummyDigest
}
