package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hitoshi/linkman/internal/model"
	"github.com/lib/pq"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// PostgresSessionRepoはSessionRepositoryインターフェースを満たすことを検証
func TestPostgresSessionRepo_ImplementsInterface(t *testing.T) {
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresSessionRepoが正しく初期化されることを検証
func TestNewPostgresSessionRepo_Initializes(t *testing.T) {
	repo := NewPostgresSessionRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

func TestMapUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "email constraint",
			err:  &pq.Error{Code: "23505", Constraint: constraintUsersEmail},
			want: model.ErrEmailTaken,
		},
		{
			name: "identity constraint",
			err:  &pq.Error{Code: "23505", Constraint: constraintIdentitiesSubject},
			want: model.ErrIdentityTaken,
		},
		{
			name: "wrapped email constraint",
			err:  fmt.Errorf("exec: %w", &pq.Error{Code: "23505", Constraint: constraintUsersEmail}),
			want: model.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapUniqueViolation(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("mapUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapUniqueViolation_UnknownErrorsPassThrough(t *testing.T) {
	unknownConstraint := &pq.Error{Code: "23505", Constraint: "sessions_pkey"}
	if got := mapUniqueViolation(unknownConstraint); got != unknownConstraint {
		t.Errorf("unknown constraint should pass through, got %v", got)
	}

	fkViolation := &pq.Error{Code: "23503", Constraint: constraintUsersEmail}
	if got := mapUniqueViolation(fkViolation); got != fkViolation {
		t.Errorf("non-unique violation should pass through, got %v", got)
	}

	plain := errors.New("connection refused")
	if got := mapUniqueViolation(plain); got != plain {
		t.Errorf("plain error should pass through, got %v", got)
	}
}
