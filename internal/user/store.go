package user

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("user not found")

// DuplicateError reports a unique-constraint violation on username or email.
type DuplicateError struct {
	Field string
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

// Store is the durable record of users. Uniqueness of username and email
// is enforced atomically by the backing store, not by callers.
type Store interface {
	FindByID(ctx context.Context, id string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, id string, fields Fields) (User, error)
	TouchLastLogin(ctx context.Context, id string) error
}
