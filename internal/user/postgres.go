package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, last_login, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, id string) (User, error) {
	return s.findBy(ctx, "id", id)
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (User, error) {
	return s.findBy(ctx, "username", username)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.findBy(ctx, "email", email)
}

func (s *PostgresStore) findBy(ctx context.Context, column, value string) (User, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s = $1
	`, userColumns, column), value)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("query user by %s: %w", column, err)
	}

	return u, nil
}

func (s *PostgresStore) Create(ctx context.Context, u User) (User, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, now)
	if err != nil {
		if field, ok := duplicateField(err); ok {
			return User{}, DuplicateError{Field: field}
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, fields Fields) (User, error) {
	if fields.Empty() {
		return s.FindByID(ctx, id)
	}

	set := make([]string, 0, 6)
	args := make([]any, 0, 7)
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.Username != nil {
		add("username", *fields.Username)
	}
	if fields.Email != nil {
		add("email", *fields.Email)
	}
	if fields.PasswordHash != nil {
		add("password_hash", *fields.PasswordHash)
	}
	if fields.FirstName != nil {
		add("first_name", *fields.FirstName)
	}
	if fields.LastName != nil {
		add("last_name", *fields.LastName)
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(set, ", "), len(args), userColumns), args...)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		if field, ok := duplicateField(err); ok {
			return User{}, DuplicateError{Field: field}
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}

	return u, nil
}

func (s *PostgresStore) TouchLastLogin(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET last_login = $2
		WHERE id = $1
	`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}

	return nil
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	var lastLogin sql.NullTime
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &lastLogin,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	if lastLogin.Valid {
		value := lastLogin.Time.UTC()
		u.LastLogin = &value
	}

	return u, nil
}

func duplicateField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return "", false
	}

	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return "username", true
	case strings.Contains(pgErr.ConstraintName, "email"):
		return "email", true
	default:
		return "id", true
	}
}
