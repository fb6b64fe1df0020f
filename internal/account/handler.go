package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"

	"account-service/internal/auth"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	accounts *Service
	tokens   *auth.Service
}

func NewHandler(accounts *Service, tokens *auth.Service) *Handler {
	return &Handler{accounts: accounts, tokens: tokens}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type passwordSetRequest struct {
	UID                     string `json:"uid"`
	Token                   string `json:"token"`
	NewPassword             string `json:"new_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation"`
}

type passwordChangeRequest struct {
	OldPassword             string `json:"old_password"`
	NewPassword             string `json:"new_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body RegisterInput
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.accounts.Register(r.Context(), body)
	if err != nil {
		internalError(w, err, "failed to register")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	token, err := h.tokens.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		internalError(w, err, "failed to login")
		return
	}

	writeJSON(w, http.StatusOK, h.newTokenResponse(token))
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var body tokenRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	u, err := h.tokens.Verify(r.Context(), body.Token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		internalError(w, err, "failed to verify token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "user": u})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body tokenRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	token, err := h.tokens.Refresh(r.Context(), body.Token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		internalError(w, err, "failed to refresh token")
		return
	}

	writeJSON(w, http.StatusOK, h.newTokenResponse(token))
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	var body tokenRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := h.tokens.Revoke(r.Context(), body.Token); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		internalError(w, err, "failed to revoke token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var body passwordResetRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	writeJSON(w, http.StatusOK, h.accounts.RequestPasswordReset(r.Context(), body.Email))
}

func (h *Handler) PasswordSet(w http.ResponseWriter, r *http.Request) {
	var body passwordSetRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.accounts.SetNewPassword(r.Context(), body.UID, body.Token, body.NewPassword, body.NewPasswordConfirmation)
	if err != nil {
		internalError(w, err, "failed to set password")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) PasswordChange(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body passwordChangeRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.accounts.ChangePassword(r.Context(), current, body.OldPassword, body.NewPassword, body.NewPasswordConfirmation)
	if err != nil {
		internalError(w, err, "failed to change password")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	writeJSON(w, http.StatusOK, current)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body ProfileInput
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.accounts.UpdateProfile(r.Context(), current, body)
	if err != nil {
		internalError(w, err, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) newTokenResponse(token string) tokenResponse {
	return tokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: h.tokens.ExpiresIn(),
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, into any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}

	return true
}

func internalError(w http.ResponseWriter, err error, message string) {
	sentry.CaptureException(err)
	writeError(w, http.StatusInternalServerError, message)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
