package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/linkman/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionMapper_RoundTrip(t *testing.T) {
	ctx := context.Background()
	users := newStubUserRepo()
	outcome := NewOAuthStrategy(ProviderGoogle, users, testHasher).
		Authenticate(ctx, Profile{SubjectID: "g1", Email: "g@x.com", DisplayName: "G"})
	require.Equal(t, OutcomeAuthenticated, outcome.Kind)

	mapper := NewSessionMapper(users)
	identity := mapper.Serialize(outcome.User)
	assert.Equal(t, outcome.User.ID, identity)

	resolved, err := mapper.Resolve(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, outcome.User, resolved)
}

func TestSessionMapper_DeletedUser_ResolvesToNone(t *testing.T) {
	ctx := context.Background()
	users := newStubUserRepo()
	user := seedLocalUser(users, "u1", "a@x.com", "secret")
	mapper := NewSessionMapper(users)
	identity := mapper.Serialize(user)

	require.NoError(t, users.DeleteByID(ctx, user.ID))

	resolved, err := mapper.Resolve(ctx, identity)
	assert.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestSessionMapper_EmptyIdentity_ResolvesToNone(t *testing.T) {
	users := newStubUserRepo()
	users.findByIDFn = func(context.Context, string) (*model.User, error) {
		t.Fatal("FindByID should not be called for empty identity")
		return nil, nil
	}

	resolved, err := NewSessionMapper(users).Resolve(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestSessionMapper_StoreError_Propagates(t *testing.T) {
	storeErr := errors.New("db down")
	users := newStubUserRepo()
	users.findByIDFn = func(context.Context, string) (*model.User, error) {
		return nil, storeErr
	}

	_, err := NewSessionMapper(users).Resolve(context.Background(), "u1")
	assert.ErrorIs(t, err, storeErr)
}
