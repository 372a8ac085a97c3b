package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/linkman/internal/model"
	"github.com/hitoshi/linkman/internal/password"
	"github.com/hitoshi/linkman/internal/repository"
	"github.com/hitoshi/linkman/internal/security"
)

// Profile はOAuthハンドシェイクで検証済みの外部IdPプロフィール。
type Profile struct {
	SubjectID   string
	Email       string
	DisplayName string
}

// OAuthStrategy は外部IdPのプロフィールをローカルユーザーに解決する。
// 未登録の場合はユーザーとidentityを作成する。
type OAuthStrategy struct {
	provider string
	users    repository.UserRepository
	hasher   CredentialHasher
	secret   func() (string, error)
	now      func() time.Time
}

// NewOAuthStrategy はproviderに対するOAuthStrategyを生成する。
func NewOAuthStrategy(provider string, users repository.UserRepository, hasher CredentialHasher) *OAuthStrategy {
	return &OAuthStrategy{
		provider: provider,
		users:    users,
		hasher:   hasher,
		secret:   password.RandomSecret,
		now:      time.Now,
	}
}

// Provider はこの戦略が扱うIdP名を返す。
func (s *OAuthStrategy) Provider() string {
	return s.provider
}

// Authenticate は(provider, subject)で既存ユーザーを検索し、なければ作成する。
// 既存ユーザーの属性は更新しない。
//
// 同じメールアドレスのローカルアカウントが存在する場合はmodel.ErrEmailTakenを含むErrorを返す。
// 並行する初回ログインに負けた場合はmodel.ErrIdentityTakenを含むErrorを返すので、
// 呼び出し側は検索として再試行すること。
func (s *OAuthStrategy) Authenticate(ctx context.Context, profile Profile) Outcome {
	if profile.SubjectID == "" {
		return Failed(errors.New("oauth profile has empty subject id"))
	}

	existing, err := s.users.FindByProvider(ctx, s.provider, profile.SubjectID)
	if err != nil {
		return Failed(fmt.Errorf("failed to find user by provider: %w", err))
	}
	if existing != nil {
		slog.Info("existing user logged in",
			slog.String("user_id", existing.ID),
			slog.String("provider", s.provider),
		)
		return Authenticated(existing)
	}

	secret, err := s.secret()
	if err != nil {
		return Failed(err)
	}
	digest, err := s.hasher.Hash(secret)
	if err != nil {
		return Failed(err)
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(profile.Email),
		Fullname:     security.CleanDisplayName(profile.DisplayName),
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	identity := &model.Identity{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		Provider:       s.provider,
		ProviderUserID: profile.SubjectID,
		CreatedAt:      now,
	}

	if err := s.users.CreateWithIdentity(ctx, user, identity); err != nil {
		if errors.Is(err, model.ErrEmailTaken) && s.subjectLinked(ctx, profile.SubjectID) {
			// 同一subjectの並行ログインが先にユーザーを作成した。メール重複ではなくidentity競合として扱う。
			err = fmt.Errorf("%w: lost concurrent first login", model.ErrIdentityTaken)
		}
		return Failed(fmt.Errorf("failed to create %s user: %w", s.provider, err))
	}

	slog.Info("new user created",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("provider", s.provider),
	)
	outcome := Authenticated(user)
	outcome.Created = true
	return outcome
}

func (s *OAuthStrategy) subjectLinked(ctx context.Context, subjectID string) bool {
	user, err := s.users.FindByProvider(ctx, s.provider, subjectID)
	return err == nil && user != nil
}
