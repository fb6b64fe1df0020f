// Package account is the mutation layer: it validates input,
// orchestrates the store, hasher, token codec and notification sender,
// and reports outcomes through a uniform success/errors envelope.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"account-service/internal/auth"
	"account-service/internal/notify"
	"account-service/internal/observability"
	"account-service/internal/reset"
	"account-service/internal/user"
)

type Service struct {
	store        user.Store
	codec        *reset.Codec
	sender       notify.Sender
	logger       *observability.Logger
	resetURLBase string
}

func NewService(
	store user.Store,
	codec *reset.Codec,
	sender notify.Sender,
	logger *observability.Logger,
	resetURLBase string,
) *Service {
	return &Service{
		store:        store,
		codec:        codec,
		sender:       sender,
		logger:       logger,
		resetURLBase: strings.TrimRight(resetURLBase, "/"),
	}
}

type RegisterInput struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
}

// Register creates a new account. Validation failures, including a
// password confirmation mismatch, come back as error entries rather
// than faults.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Result, error) {
	// Usernames are validated as given (the format only admits lowercase),
	// never silently rewritten; emails are canonicalized to lowercase.
	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)

	var errs []string
	errs = append(errs, validateUsername(username)...)
	errs = append(errs, validateEmail(email)...)
	errs = append(errs, validatePassword("password", input.Password)...)
	errs = append(errs, confirmationMatches("password_confirmation", input.Password, input.PasswordConfirmation)...)
	if len(errs) > 0 {
		return failed(errs...), nil
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return Result{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Result{}, fmt.Errorf("generate user id: %w", err)
	}

	created, err := s.store.Create(ctx, user.User{
		ID:           id.String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
	})
	if err != nil {
		var dup user.DuplicateError
		if errors.As(err, &dup) {
			return failed(conflictError(dup.Field)), nil
		}
		return Result{}, err
	}

	return succeeded(&created), nil
}

// RequestPasswordReset always reports success so callers cannot learn
// whether an email is registered. Delivery problems are logged and
// reported, never surfaced.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) Result {
	email = normalizeEmail(email)

	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.Error("password_reset_lookup_failed", map[string]any{"error": err.Error()})
			sentry.CaptureException(err)
		}
		return Result{Success: true}
	}

	uid, token := s.codec.Generate(u)
	resetURL := fmt.Sprintf("%s/%s/%s", s.resetURLBase, uid, token)

	if err := s.sender.SendPasswordReset(ctx, u, resetURL); err != nil {
		s.logger.Error("password_reset_send_failed", map[string]any{"error": err.Error()})
		sentry.CaptureException(err)
	}

	return Result{Success: true}
}

// SetNewPassword completes a reset started by RequestPasswordReset.
// Token and user problems collapse to a single generic error; only
// password-policy failures are reported per field.
func (s *Service) SetNewPassword(ctx context.Context, uid, token, password, confirmation string) (Result, error) {
	u, err := s.codec.Validate(ctx, uid, token)
	if err != nil {
		if errors.Is(err, reset.ErrInvalidResetLink) {
			return failed("Invalid password reset link."), nil
		}
		return Result{}, err
	}

	var errs []string
	errs = append(errs, validatePassword("new_password", password)...)
	errs = append(errs, confirmationMatches("new_password_confirmation", password, confirmation)...)
	if len(errs) > 0 {
		return failed(errs...), nil
	}

	if err := s.setPassword(ctx, u.ID, password); err != nil {
		return Result{}, err
	}

	return Result{Success: true}, nil
}

// ChangePassword rotates the password of an authenticated user. A
// wrong old password leaves stored state untouched.
func (s *Service) ChangePassword(ctx context.Context, current user.User, oldPassword, newPassword, confirmation string) (Result, error) {
	var errs []string
	if !auth.CheckPassword(current.PasswordHash, oldPassword) {
		errs = append(errs, fieldError("old_password", "your old password was entered incorrectly."))
	}
	errs = append(errs, validatePassword("new_password", newPassword)...)
	errs = append(errs, confirmationMatches("new_password_confirmation", newPassword, confirmation)...)
	if len(errs) > 0 {
		return failed(errs...), nil
	}

	if err := s.setPassword(ctx, current.ID, newPassword); err != nil {
		return Result{}, err
	}

	return Result{Success: true}, nil
}

type ProfileInput struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (p ProfileInput) empty() bool {
	return p.Username == nil && p.Email == nil && p.FirstName == nil && p.LastName == nil
}

// UpdateProfile applies only the fields present in the input. A
// present-but-empty first or last name is a deliberate write; username
// and email must stay non-empty and well-formed.
func (s *Service) UpdateProfile(ctx context.Context, current user.User, input ProfileInput) (Result, error) {
	if input.empty() {
		return Result{Success: true, User: &current, Message: "Nothing to update."}, nil
	}

	fields := user.Fields{
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}

	var errs []string
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		errs = append(errs, validateUsername(username)...)
		fields.Username = &username
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		errs = append(errs, validateEmail(email)...)
		fields.Email = &email
	}
	if len(errs) > 0 {
		return failed(errs...), nil
	}

	updated, err := s.store.Update(ctx, current.ID, fields)
	if err != nil {
		var dup user.DuplicateError
		if errors.As(err, &dup) {
			return failed(conflictError(dup.Field)), nil
		}
		return Result{}, err
	}

	return succeeded(&updated), nil
}

func (s *Service) setPassword(ctx context.Context, id, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	if _, err := s.store.Update(ctx, id, user.Fields{PasswordHash: &hash}); err != nil {
		return fmt.Errorf("store new password: %w", err)
	}

	return nil
}

func conflictError(field string) string {
	return fieldError(field, fmt.Sprintf("a user with that %s already exists.", field))
}
