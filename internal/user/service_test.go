package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/linkman/internal/model"
	"github.com/hitoshi/linkman/internal/repository"
)

type recordingRevoker struct {
	repository.SessionRepository
	revoked []string
	err     error
}

func (r *recordingRevoker) DeleteByUserID(ctx context.Context, userID string) error {
	r.revoked = append(r.revoked, userID)
	if r.err != nil {
		return r.err
	}
	return r.SessionRepository.DeleteByUserID(ctx, userID)
}

type failingUserRepo struct {
	*repository.MemoryUserRepo
	findErr error
}

func (r *failingUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return nil, r.findErr
}

func TestService_Withdraw(t *testing.T) {
	ctx := context.Background()
	users := repository.NewMemoryUserRepo()
	sessions := repository.NewMemorySessionRepo()
	revoker := &recordingRevoker{SessionRepository: sessions}

	_ = users.CreateWithIdentity(ctx, &model.User{ID: "u1", Email: "g@x.com"},
		&model.Identity{ID: "i1", UserID: "u1", Provider: "google", ProviderUserID: "g1"})
	_ = users.Create(ctx, &model.User{ID: "u2", Email: "other@x.com"})
	_ = sessions.Create(ctx, &model.Session{ID: "s1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)})
	_ = sessions.Create(ctx, &model.Session{ID: "s2", UserID: "u2", ExpiresAt: time.Now().Add(time.Hour)})

	svc := NewService(users, revoker)
	if err := svc.Withdraw(ctx, "u1"); err != nil {
		t.Fatalf("Withdraw() error = %v", err)
	}

	if len(revoker.revoked) != 1 || revoker.revoked[0] != "u1" {
		t.Errorf("revoked = %v, want [u1]", revoker.revoked)
	}
	if u, _ := users.FindByID(ctx, "u1"); u != nil {
		t.Error("user should be deleted")
	}
	if u, _ := users.FindByProvider(ctx, "google", "g1"); u != nil {
		t.Error("identity should be deleted with the user")
	}
	if s, _ := sessions.FindByID(ctx, "s1"); s != nil {
		t.Error("session of withdrawn user should be deleted")
	}
	if s, _ := sessions.FindByID(ctx, "s2"); s == nil {
		t.Error("other user's session should remain")
	}
}

func TestService_Withdraw_UserNotFound(t *testing.T) {
	revoker := &recordingRevoker{SessionRepository: repository.NewMemorySessionRepo()}
	svc := NewService(repository.NewMemoryUserRepo(), revoker)

	err := svc.Withdraw(context.Background(), "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("err = %v, want USER_NOT_FOUND", err)
	}
	if len(revoker.revoked) != 0 {
		t.Error("sessions should not be touched for a missing user")
	}
}

func TestService_Withdraw_FindError(t *testing.T) {
	storeErr := errors.New("connection refused")
	users := &failingUserRepo{MemoryUserRepo: repository.NewMemoryUserRepo(), findErr: storeErr}
	svc := NewService(users, &recordingRevoker{SessionRepository: repository.NewMemorySessionRepo()})

	if err := svc.Withdraw(context.Background(), "u1"); !errors.Is(err, storeErr) {
		t.Errorf("err = %v, want wrapped store error", err)
	}
}

func TestService_Withdraw_SessionDeleteError_KeepsUser(t *testing.T) {
	ctx := context.Background()
	users := repository.NewMemoryUserRepo()
	_ = users.Create(ctx, &model.User{ID: "u1", Email: "a@x.com"})

	revokeErr := errors.New("sessions unavailable")
	svc := NewService(users, &recordingRevoker{
		SessionRepository: repository.NewMemorySessionRepo(),
		err:               revokeErr,
	})

	if err := svc.Withdraw(ctx, "u1"); !errors.Is(err, revokeErr) {
		t.Fatalf("err = %v, want wrapped revoke error", err)
	}
	if u, _ := users.FindByID(ctx, "u1"); u == nil {
		t.Error("user should remain when session deletion fails")
	}
}
