// Package auth はローカル認証とOAuth認証、セッションとユーザーの対応付けを提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/linkman/internal/metrics"
	"github.com/hitoshi/linkman/internal/model"
	"github.com/hitoshi/linkman/internal/repository"
	"github.com/hitoshi/linkman/internal/security"
)

const strategyLocal = "local"

// OAuthProvider はOAuthハンドシェイクを行うIdPクライアントのインターフェース。
type OAuthProvider interface {
	// Name はprovider名を返す。
	Name() string
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、検証済みプロフィールを取得する。
	ExchangeCode(ctx context.Context, code string) (*Profile, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Dependencies はServiceが利用するコンポーネント。
// Metricsがnilの場合は記録しない。
type Dependencies struct {
	Provider OAuthProvider
	Local    *LocalStrategy
	OAuth    *OAuthStrategy
	Mapper   *SessionMapper
	Users    repository.UserRepository
	Sessions repository.SessionRepository
	Hasher   CredentialHasher
	Metrics  metrics.MetricsCollector
}

// SignUpInput はローカル登録の入力。
type SignUpInput struct {
	Fullname string
	Email    string
	Password string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	provider OAuthProvider
	local    *LocalStrategy
	oauth    *OAuthStrategy
	mapper   *SessionMapper
	users    repository.UserRepository
	sessions repository.SessionRepository
	hasher   CredentialHasher
	metrics  metrics.MetricsCollector
	config   ServiceConfig
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(deps Dependencies, config ServiceConfig) *Service {
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		provider: deps.Provider,
		local:    deps.Local,
		oauth:    deps.OAuth,
		mapper:   deps.Mapper,
		users:    deps.Users,
		sessions: deps.Sessions,
		hasher:   deps.Hasher,
		metrics:  collector,
		config:   config,
		now:      time.Now,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.provider.GetLoginURL(state)
}

// SignUp はローカルユーザーを登録し、セッションを発行する。
// メールアドレスが登録済みの場合はmodel.ErrEmailTakenを返す。
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*model.Session, error) {
	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(in.Email),
		Fullname:     security.CleanDisplayName(in.Fullname),
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.RecordUserCreated("signup")
	slog.Info("new user created",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("provider", strategyLocal),
	)

	return s.createSession(ctx, s.mapper.Serialize(user))
}

// SignIn はメールアドレスとパスワードで認証し、セッションを発行する。
// 認証が拒否された場合は理由を区別せずmodel.ErrInvalidCredentialsを返す。
func (s *Service) SignIn(ctx context.Context, email, plaintext string) (*model.Session, error) {
	start := s.now()
	outcome := s.local.Authenticate(ctx, email, plaintext)
	s.record(strategyLocal, outcome, start)

	switch outcome.Kind {
	case OutcomeAuthenticated:
		return s.createSession(ctx, s.mapper.Serialize(outcome.User))
	case OutcomeRejected:
		return nil, model.ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("local authentication failed: %w", outcome.Err)
	}
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// 未登録ユーザーの場合はusersレコードとidentitiesレコードを同時に作成する。
// 同じメールアドレスのローカルアカウントが存在する場合はmodel.ErrEmailTakenを返す。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	profile, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	start := s.now()
	outcome := s.oauth.Authenticate(ctx, *profile)
	if outcome.Kind == OutcomeError && errors.Is(outcome.Err, model.ErrIdentityTaken) {
		// 並行する初回ログインに負けた。勝った側が作成したユーザーを検索で取得する。
		slog.Warn("oauth identity conflict, retrying as lookup",
			slog.String("provider", s.oauth.Provider()),
		)
		outcome = s.oauth.Authenticate(ctx, *profile)
	}
	s.record(s.oauth.Provider(), outcome, start)

	if outcome.Kind != OutcomeAuthenticated {
		return nil, fmt.Errorf("oauth authentication failed: %w", outcome.Err)
	}
	if outcome.Created {
		s.metrics.RecordUserCreated(s.oauth.Provider())
	}

	return s.createSession(ctx, s.mapper.Serialize(outcome.User))
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// ResolveSession はセッションIDから現在のユーザーを取得する。
// セッションが存在しない、期限切れ、またはユーザーが削除済みの場合は(nil, nil)を返す。
// エラーはストア障害の場合のみ返す。
func (s *Service) ResolveSession(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		s.metrics.RecordSessionResolution("anonymous")
		return nil, nil
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		s.metrics.RecordSessionResolution("error")
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		s.metrics.RecordSessionResolution("anonymous")
		return nil, nil
	}

	user, err := s.mapper.Resolve(ctx, session.UserID)
	if err != nil {
		s.metrics.RecordSessionResolution("error")
		return nil, err
	}
	if user == nil {
		s.metrics.RecordSessionResolution("anonymous")
		return nil, nil
	}

	s.metrics.RecordSessionResolution("authenticated")
	return user, nil
}

func (s *Service) record(strategy string, outcome Outcome, start time.Time) {
	s.metrics.RecordAuthAttempt(strategy, outcome.Kind.String())
	s.metrics.RecordAuthLatency(strategy, s.now().Sub(start))
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, identity string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    identity,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
