package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDenylistAddAndContains(t *testing.T) {
	t.Parallel()

	d := NewMemoryDenylist()
	ctx := context.Background()

	revoked, err := d.Contains(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Add(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = d.Contains(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestMemoryDenylistIgnoresExpiredEntries(t *testing.T) {
	t.Parallel()

	d := NewMemoryDenylist()
	ctx := context.Background()

	require.NoError(t, d.Add(ctx, "jti-old", time.Now().Add(-time.Minute)))

	revoked, err := d.Contains(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryDenylistConcurrentUse(t *testing.T) {
	t.Parallel()

	d := NewMemoryDenylist()
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			jti := string(rune('a' + n%26))
			_ = d.Add(ctx, jti, expiry)
			_, _ = d.Contains(ctx, jti)
		}(i)
	}
	wg.Wait()

	revoked, err := d.Contains(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)
}
