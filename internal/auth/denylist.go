package auth

import (
	"context"
	"sync"
	"time"
)

// Denylist records revoked token ids until their natural expiry. It is
// consulted on every Verify and Refresh, so implementations must be
// safe for concurrent use.
type Denylist interface {
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	Contains(ctx context.Context, jti string) (bool, error)
}

// MemoryDenylist is a mutex-guarded in-process denylist. Expired
// entries are dropped opportunistically on Add.
type MemoryDenylist struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{revoked: make(map[string]time.Time)}
}

func (d *MemoryDenylist) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	now := time.Now().UTC()

	d.mu.Lock()
	defer d.mu.Unlock()

	for key, expiry := range d.revoked {
		if expiry.Before(now) {
			delete(d.revoked, key)
		}
	}
	d.revoked[jti] = expiresAt.UTC()

	return nil
}

func (d *MemoryDenylist) Contains(ctx context.Context, jti string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	expiry, ok := d.revoked[jti]
	if !ok {
		return false, nil
	}

	return expiry.After(time.Now().UTC()), nil
}
