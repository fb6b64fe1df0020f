// Package reset implements stateless, single-use password-reset tokens.
//
// A token is bound to the user's current password hash and last login
// time, so it stops validating as soon as the password changes or the
// user logs in again, without any server-side token storage.
package reset

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"account-service/internal/user"
)

const (
	defaultTTL = 72 * time.Hour

	// Hex characters of the HMAC kept in the token. Truncation keeps
	// links short; 20 bytes of MAC is ample for a time-limited token.
	macLength = 40
)

// ErrInvalidResetLink covers every validation failure: unknown user,
// malformed values, stale window, and MAC mismatch all look identical
// to the caller so reset links cannot probe for account existence.
var ErrInvalidResetLink = errors.New("invalid password reset link")

type Codec struct {
	store  user.Store
	secret []byte
	ttl    time.Duration
}

func NewCodec(store user.Store, secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Codec{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate produces the url-safe user id and a reset token for it.
// Nothing is stored server-side.
func (c *Codec) Generate(u user.User) (string, string) {
	ts := time.Now().UTC().Unix()
	uid := base64.RawURLEncoding.EncodeToString([]byte(u.ID))
	token := strconv.FormatInt(ts, 36) + "-" + c.mac(u, ts)

	return uid, token
}

// Validate decodes the user id, looks the user up and checks the token
// against the user's current credential state.
func (c *Codec) Validate(ctx context.Context, uid, token string) (user.User, error) {
	rawID, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return user.User{}, ErrInvalidResetLink
	}

	u, err := c.store.FindByID(ctx, string(rawID))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInvalidResetLink
		}
		return user.User{}, err
	}

	tsPart, macPart, found := strings.Cut(token, "-")
	if !found {
		return user.User{}, ErrInvalidResetLink
	}

	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return user.User{}, ErrInvalidResetLink
	}

	if subtle.ConstantTimeCompare([]byte(c.mac(u, ts)), []byte(macPart)) != 1 {
		return user.User{}, ErrInvalidResetLink
	}

	now := time.Now().UTC()
	issued := time.Unix(ts, 0).UTC()
	if issued.After(now) || now.After(issued.Add(c.ttl)) {
		return user.User{}, ErrInvalidResetLink
	}

	return u, nil
}

func (c *Codec) mac(u user.User, ts int64) string {
	lastLogin := ""
	if u.LastLogin != nil {
		lastLogin = strconv.FormatInt(u.LastLogin.Unix(), 10)
	}

	h := hmac.New(sha256.New, c.secret)
	fmt.Fprintf(h, "%s|%s|%s|%d", u.ID, u.PasswordHash, lastLogin, ts)

	return hex.EncodeToString(h.Sum(nil))[:macLength]
}
