package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-service/internal/user"
)

func newTestService(t *testing.T, secret string) (*Service, *user.MemoryStore, user.User) {
	t.Helper()

	store := user.NewMemoryStore()
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)

	u, err := store.Create(context.Background(), user.User{
		ID:           "018f6f7e-0000-7000-8000-000000000001",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
	})
	require.NoError(t, err)

	return NewService(store, NewMemoryDenylist(), secret), store, u
}

func TestAuthenticateIssuesTokenAndRecordsLogin(t *testing.T) {
	t.Parallel()

	svc, store, u := newTestService(t, "secret")
	ctx := context.Background()

	token, err := svc.Authenticate(ctx, "alice", "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	stored, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestAuthenticateByEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, "secret")

	token, err := svc.Authenticate(context.Background(), "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAuthenticateCollapsesFailureModes(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, "secret")
	ctx := context.Background()

	_, unknownErr := svc.Authenticate(ctx, "nobody", "correct horse battery")
	_, wrongErr := svc.Authenticate(ctx, "alice", "wrong password here")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	svc, _, u := newTestService(t, "secret")
	svc.WithTokenTTLs(time.Nanosecond, time.Hour)
	ctx := context.Background()

	token, err := svc.Issue(ctx, u)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	svc, _, u := newTestService(t, "secret")
	other, _, _ := newTestService(t, "another secret")
	ctx := context.Background()

	token, err := svc.Issue(ctx, u)
	require.NoError(t, err)

	_, err = other.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, "secret")

	_, err := svc.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshExpiredTokenInsideWindow(t *testing.T) {
	t.Parallel()

	svc, _, u := newTestService(t, "secret")
	svc.WithTokenTTLs(time.Nanosecond, time.Hour)
	ctx := context.Background()

	token, err := svc.Issue(ctx, u)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = svc.Verify(ctx, token)
	require.ErrorIs(t, err, ErrInvalidToken, "token should be past its own expiry")

	svc.WithTokenTTLs(time.Hour, time.Hour)
	refreshed, err := svc.Refresh(ctx, token)
	require.NoError(t, err)

	got, err := svc.Verify(ctx, refreshed)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRefreshRejectsTokenBeyondWindow(t *testing.T) {
	t.Parallel()

	svc, _, u := newTestService(t, "secret")
	svc.WithTokenTTLs(time.Hour, time.Nanosecond)
	ctx := context.Background()

	token, err := svc.Issue(ctx, u)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = svc.Refresh(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeIsIdempotentAndBlocksToken(t *testing.T) {
	t.Parallel()

	svc, _, u := newTestService(t, "secret")
	ctx := context.Background()

	token, err := svc.Issue(ctx, u)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token))
	require.NoError(t, svc.Revoke(ctx, token), "revoking twice must succeed")

	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Refresh(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeRejectsForgedToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, "secret")

	err := svc.Revoke(context.Background(), "forged")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
