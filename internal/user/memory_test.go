package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, store *MemoryStore, id, username, email string) User {
	t.Helper()

	u, err := store.Create(context.Background(), User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return u
}

func TestMemoryStoreEnforcesUniqueness(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	seed(t, store, "u1", "alice", "a@x.com")

	_, err := store.Create(ctx, User{ID: "u2", Username: "alice", Email: "b@x.com"})
	var dup DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "username", dup.Field)

	_, err = store.Create(ctx, User{ID: "u3", Username: "carol", Email: "a@x.com"})
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)
}

func TestMemoryStoreUpdateAppliesOnlyPresentFields(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	created := seed(t, store, "u1", "alice", "a@x.com")

	first := "Alice"
	updated, err := store.Update(ctx, created.ID, Fields{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, "alice", updated.Username)
	assert.Equal(t, "a@x.com", updated.Email)

	empty := ""
	updated, err = store.Update(ctx, created.ID, Fields{FirstName: &empty})
	require.NoError(t, err)
	assert.Equal(t, "", updated.FirstName)
}

func TestMemoryStoreUpdateDetectsConflicts(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	seed(t, store, "u1", "alice", "a@x.com")
	bob := seed(t, store, "u2", "bob", "b@x.com")

	taken := "alice"
	_, err := store.Update(ctx, bob.ID, Fields{Username: &taken})
	var dup DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "username", dup.Field)
}

func TestMemoryStoreFindersAndLastLogin(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	created := seed(t, store, "u1", "alice", "a@x.com")

	byID, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	byName, err := store.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	byEmail, err := store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, byID, byName)
	assert.Equal(t, byID, byEmail)

	_, err = store.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.TouchLastLogin(ctx, created.ID))
	touched, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotNil(t, touched.LastLogin)

	assert.ErrorIs(t, store.TouchLastLogin(ctx, "ghost"), ErrNotFound)
}
