package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresDenylist persists revocations in auth_revoked_tokens so they
// survive restarts and are shared between instances.
type PostgresDenylist struct {
	db *sql.DB
}

func NewPostgresDenylist(db *sql.DB) *PostgresDenylist {
	return &PostgresDenylist{db: db}
}

func (d *PostgresDenylist) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO auth_revoked_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("insert revoked token: %w", err)
	}

	return nil
}

func (d *PostgresDenylist) Contains(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := d.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM auth_revoked_tokens
			WHERE jti = $1 AND expires_at > NOW()
		)
	`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("query revoked token: %w", err)
	}

	return revoked, nil
}

// CleanupExpired deletes denylist rows whose tokens have expired on
// their own. Returns the number of rows removed.
func (d *PostgresDenylist) CleanupExpired(ctx context.Context, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	res, err := d.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT jti
			FROM auth_revoked_tokens
			WHERE expires_at < NOW()
			ORDER BY expires_at ASC
			LIMIT $1
		)
		DELETE FROM auth_revoked_tokens t
		USING stale
		WHERE t.jti = stale.jti
	`, batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete expired revoked tokens: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired revoked tokens rows affected: %w", err)
	}

	return affected, nil
}
