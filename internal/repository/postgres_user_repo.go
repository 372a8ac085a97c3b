package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/linkman/internal/model"
	"github.com/lib/pq"
)

// 一意制約名。migrationsの定義と一致させること。
const (
	constraintUsersEmail        = "users_email_unique"
	constraintIdentitiesSubject = "identities_provider_user_unique"

	pqUniqueViolation = "23505"
)

// userColumns はusersとidentitiesをLEFT JOINしたときのSELECT列。
const userColumns = `u.id, u.email, u.fullname, u.password_hash,
	COALESCE(i.provider_user_id, ''), u.created_at, u.updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := r.findOne(ctx,
		`SELECT `+userColumns+`
		 FROM users u LEFT JOIN identities i ON i.user_id = u.id
		 WHERE u.id = $1
		 LIMIT 1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := r.findOne(ctx,
		`SELECT `+userColumns+`
		 FROM users u LEFT JOIN identities i ON i.user_id = u.id
		 WHERE u.email = $1
		 LIMIT 1`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByProvider はproviderとprovider_user_idでユーザーを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByProvider(ctx context.Context, provider, providerUserID string) (*model.User, error) {
	user, err := r.findOne(ctx,
		`SELECT `+userColumns+`
		 FROM users u JOIN identities i ON i.user_id = u.id
		 WHERE i.provider = $1 AND i.provider_user_id = $2`,
		provider, providerUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by provider: %w", err)
	}
	return user, nil
}

// Create はローカル登録ユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, fullname, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.Fullname, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", mapUniqueViolation(err))
	}
	return nil
}

// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
func (r *PostgresUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// ユーザーを作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, fullname, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.Fullname, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", mapUniqueViolation(err))
	}

	// identityを作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO identities (id, user_id, provider, provider_user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		identity.ID, identity.UserID, identity.Provider, identity.ProviderUserID, identity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert identity: %w", mapUniqueViolation(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapUniqueViolation(err))
	}

	user.ProviderID = identity.ProviderUserID
	return nil
}

// DeleteByID は指定IDのユーザーを削除する。
// 関連するidentities、sessionsはCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", model.ErrUserNotFound, id)
	}
	return nil
}

func (r *PostgresUserRepo) findOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Email, &user.Fullname, &user.PasswordHash,
		&user.ProviderID, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// mapUniqueViolation はPostgreSQLの一意制約違反をドメインのセンチネルエラーに変換する。
// 想定外の制約違反や他のエラーはそのまま返す。
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case constraintUsersEmail:
		return model.ErrEmailTaken
	case constraintIdentitiesSubject:
		return model.ErrIdentityTaken
	default:
		return err
	}
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
