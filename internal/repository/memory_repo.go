package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hitoshi/linkman/internal/model"
)

// MemoryUserRepo はプロセス内メモリでユーザーを保持するリポジトリ。
// PostgreSQL実装と同じ一意制約（email、(provider, provider_user_id)）を強制する。
// 単体テストおよびDBなしのローカル検証に使用する。
type MemoryUserRepo struct {
	mu         sync.Mutex
	users      map[string]model.User
	identities map[identityKey]string // → user ID
	inserts    int
}

type identityKey struct {
	provider       string
	providerUserID string
}

// NewMemoryUserRepo はMemoryUserRepoを生成する。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users:      make(map[string]model.User),
		identities: make(map[identityKey]string),
	}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

// FindByProvider はproviderとprovider_user_idでユーザーを検索する。
func (r *MemoryUserRepo) FindByProvider(ctx context.Context, provider, providerUserID string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.identities[identityKey{provider, providerUserID}]
	if !ok {
		return nil, nil
	}
	u := r.users[userID]
	return &u, nil
}

// Create はローカル登録ユーザーを作成する。
func (r *MemoryUserRepo) Create(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTakenLocked(user.Email) {
		return fmt.Errorf("failed to insert user: %w", model.ErrEmailTaken)
	}
	r.users[user.ID] = *user
	r.inserts++
	return nil
}

// CreateWithIdentity はユーザーとidentityを不可分に作成する。
func (r *MemoryUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTakenLocked(user.Email) {
		return fmt.Errorf("failed to insert user: %w", model.ErrEmailTaken)
	}
	key := identityKey{identity.Provider, identity.ProviderUserID}
	if _, ok := r.identities[key]; ok {
		return fmt.Errorf("failed to insert identity: %w", model.ErrIdentityTaken)
	}

	user.ProviderID = identity.ProviderUserID
	r.users[user.ID] = *user
	r.identities[key] = user.ID
	r.inserts++
	return nil
}

// DeleteByID は指定IDのユーザーと紐付くidentityを削除する。
func (r *MemoryUserRepo) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("%w: %s", model.ErrUserNotFound, id)
	}
	delete(r.users, id)
	for k, userID := range r.identities {
		if userID == id {
			delete(r.identities, k)
		}
	}
	return nil
}

// Count は保持しているユーザー数を返す。
// UserRepositoryには含まれない、テストダブルとしての検査用API。
func (r *MemoryUserRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// Inserts は成功したユーザー作成の累計回数を返す。削除しても減らない。
// Countと同じくテストダブルとしての検査用API。
func (r *MemoryUserRepo) Inserts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inserts
}

func (r *MemoryUserRepo) emailTakenLocked(email string) bool {
	for _, u := range r.users {
		if u.Email == email {
			return true
		}
	}
	return false
}

// MemorySessionRepo はプロセス内メモリでセッションを保持するリポジトリ。
type MemorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]model.Session
	now      func() time.Time
}

// NewMemorySessionRepo はMemorySessionRepoを生成する。
func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		sessions: make(map[string]model.Session),
		now:      time.Now,
	}
}

// Create はセッションを作成する。
func (r *MemorySessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *MemorySessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || !s.ExpiresAt.After(r.now()) {
		return nil, nil
	}
	return &s, nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *MemorySessionRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
func (r *MemorySessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
func (r *MemorySessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	now := r.now()
	for id, s := range r.sessions {
		if !s.ExpiresAt.After(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// compile-time interface checks
var (
	_ UserRepository    = (*MemoryUserRepo)(nil)
	_ SessionRepository = (*MemorySessionRepo)(nil)
)
