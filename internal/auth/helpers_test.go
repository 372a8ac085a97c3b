package auth

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/linkman/internal/model"
	"github.com/hitoshi/linkman/internal/password"
	"github.com/hitoshi/linkman/internal/repository"
)

// testHasher はテスト高速化のため最小コストのbcryptを使う。
var testHasher = password.NewHasher(4)

// stubUserRepo は関数が設定されたメソッドのみ差し替え、それ以外はメモリ実装に委譲する。
type stubUserRepo struct {
	*repository.MemoryUserRepo
	findByIDFn           func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn        func(ctx context.Context, email string) (*model.User, error)
	findByProviderFn     func(ctx context.Context, provider, providerUserID string) (*model.User, error)
	createWithIdentityFn func(ctx context.Context, user *model.User, identity *model.Identity) error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{MemoryUserRepo: repository.NewMemoryUserRepo()}
}

func (m *stubUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return m.MemoryUserRepo.FindByID(ctx, id)
}

func (m *stubUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return m.MemoryUserRepo.FindByEmail(ctx, email)
}

func (m *stubUserRepo) FindByProvider(ctx context.Context, provider, providerUserID string) (*model.User, error) {
	if m.findByProviderFn != nil {
		return m.findByProviderFn(ctx, provider, providerUserID)
	}
	return m.MemoryUserRepo.FindByProvider(ctx, provider, providerUserID)
}

func (m *stubUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	if m.createWithIdentityFn != nil {
		return m.createWithIdentityFn(ctx, user, identity)
	}
	return m.MemoryUserRepo.CreateWithIdentity(ctx, user, identity)
}

type mockOAuthProvider struct {
	exchangeCodeFn func(ctx context.Context, code string) (*Profile, error)
}

func (m *mockOAuthProvider) Name() string { return ProviderGoogle }

func (m *mockOAuthProvider) GetLoginURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (m *mockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*Profile, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code)
	}
	return nil, nil
}

// recordingMetrics は記録内容を保持するMetricsCollector。
type recordingMetrics struct {
	mu          sync.Mutex
	attempts    []string
	created     []string
	resolutions []string
}

func (r *recordingMetrics) RecordAuthAttempt(strategy, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, strategy+":"+outcome)
}

func (r *recordingMetrics) RecordAuthLatency(string, time.Duration) {}

func (r *recordingMetrics) RecordUserCreated(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, source)
}

func (r *recordingMetrics) RecordSessionResolution(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolutions = append(r.resolutions, result)
}

func (r *recordingMetrics) RecordSessionsPurged(int64) {}

func (r *recordingMetrics) RecordHTTPStatus(int) {}

// seedLocalUser はローカル登録済みユーザーを作成する。
func seedLocalUser(users repository.UserRepository, id, email, plaintext string) *model.User {
	digest, err := testHasher.Hash(plaintext)
	if err != nil {
		panic(err)
	}
	user := &model.User{ID: id, Email: email, Fullname: "Seed", PasswordHash: digest}
	if err := users.Create(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}

// compile-time interface checks
var (
	_ repository.UserRepository = (*stubUserRepo)(nil)
	_ OAuthProvider             = (*mockOAuthProvider)(nil)
)
