package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"account-service/internal/user"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour

	tokenTypeAccess = "access"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims are the session token claims. OrigIat anchors the refresh
// window: refreshed tokens keep the original issue time, so a chain of
// refreshes cannot outlive refreshTTL.
type Claims struct {
	jwt.RegisteredClaims
	OrigIat int64  `json:"orig_iat"`
	Typ     string `json:"typ"`
}

type Service struct {
	store      user.Store
	denylist   Denylist
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(store user.Store, denylist Denylist, secret string) *Service {
	return &Service{
		store:      store,
		denylist:   denylist,
		secret:     []byte(secret),
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
	}
}

// ExpiresIn is the access token lifetime in seconds, for token
// responses.
func (s *Service) ExpiresIn() int64 {
	return int64(s.accessTTL.Seconds())
}

func (s *Service) WithTokenTTLs(accessTTL, refreshTTL time.Duration) {
	if accessTTL > 0 {
		s.accessTTL = accessTTL
	}
	if refreshTTL > 0 {
		s.refreshTTL = refreshTTL
	}
}

// Authenticate checks a username (or email) and password and issues a
// session token. A missing user and a wrong password are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, login, password string) (string, error) {
	if login == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	u, err := s.store.FindByUsername(ctx, login)
	if errors.Is(err, user.ErrNotFound) {
		u, err = s.store.FindByEmail(ctx, login)
	}
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !CheckPassword(u.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	return s.Issue(ctx, u)
}

// Issue signs a fresh token for the user and records the login time.
func (s *Service) Issue(ctx context.Context, u user.User) (string, error) {
	now := time.Now().UTC()
	token, err := s.sign(u.ID, now, now.Unix())
	if err != nil {
		return "", err
	}

	if err := s.store.TouchLastLogin(ctx, u.ID); err != nil {
		return "", fmt.Errorf("record last login: %w", err)
	}

	return token, nil
}

// Verify checks signature, expiry, token type and the denylist, and
// resolves the token's subject. All token-shaped failures collapse to
// ErrInvalidToken.
func (s *Service) Verify(ctx context.Context, token string) (user.User, error) {
	claims, err := s.parse(token, true)
	if err != nil {
		return user.User{}, ErrInvalidToken
	}

	revoked, err := s.denylist.Contains(ctx, claims.ID)
	if err != nil {
		return user.User{}, fmt.Errorf("check denylist: %w", err)
	}
	if revoked {
		return user.User{}, ErrInvalidToken
	}

	u, err := s.store.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInvalidToken
		}
		return user.User{}, err
	}

	return u, nil
}

// Refresh issues a replacement token. The presented token may already
// be past its expiry, as long as the original issue time is still
// inside the refresh window and the token has not been revoked.
func (s *Service) Refresh(ctx context.Context, token string) (string, error) {
	claims, err := s.parse(token, false)
	if err != nil {
		return "", ErrInvalidToken
	}

	now := time.Now().UTC()
	if claims.OrigIat <= 0 || now.After(time.Unix(claims.OrigIat, 0).Add(s.refreshTTL)) {
		return "", ErrInvalidToken
	}

	revoked, err := s.denylist.Contains(ctx, claims.ID)
	if err != nil {
		return "", fmt.Errorf("check denylist: %w", err)
	}
	if revoked {
		return "", ErrInvalidToken
	}

	return s.sign(claims.Subject, now, claims.OrigIat)
}

// Revoke denylists the token until its natural expiry. Revoking an
// already revoked token is a no-op.
func (s *Service) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token, false)
	if err != nil {
		return ErrInvalidToken
	}

	expiresAt := time.Now().UTC().Add(s.accessTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := s.denylist.Add(ctx, claims.ID, expiresAt); err != nil {
		return fmt.Errorf("denylist token: %w", err)
	}

	return nil
}

func (s *Service) sign(userID string, now time.Time, origIat int64) (string, error) {
	jti, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			ID:        jti.String(),
		},
		OrigIat: origIat,
		Typ:     tokenTypeAccess,
	}

	encoded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return encoded, nil
}

func (s *Service) parse(token string, validateExpiry bool) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if !validateExpiry {
		options = append(options, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, options...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Typ != tokenTypeAccess || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
