package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, "secret")
	handler := Middleware(svc, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRejectsBadScheme(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, "secret")
	handler := Middleware(svc, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a non-bearer header")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, "secret")
	handler := Middleware(svc, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with an invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer bogus")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareAttachesCurrentUser(t *testing.T) {
	t.Parallel()

	svc, _, u := newTestService(t, "secret")

	token, err := svc.Issue(context.Background(), u)
	require.NoError(t, err)

	called := false
	handler := Middleware(svc, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		current, ok := CurrentUser(r.Context())
		require.True(t, ok)
		assert.Equal(t, u.ID, current.ID)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
