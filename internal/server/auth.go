package server

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/foodgram/internal/shared"
	"github.com/desertthunder/foodgram/internal/validation"
)

// AuthHandler issues and revokes API tokens.
type AuthHandler struct {
	*deps
	limiter *LoginLimiter
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenView struct {
	AuthToken string `json:"auth_token"`
}

func (h *AuthHandler) Routes() []Route {
	return []Route{
		{http.MethodPost, "/api/auth/token/login", h.login},
		{http.MethodPost, "/api/auth/token/logout", h.logout},
	}
}

// login exchanges an email (any case) and password for the user's token.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	email := shared.NormalizeEmail(req.Email)
	if !h.limiter.Allow(email) {
		h.activity.Logins.WithLabelValues("throttled").Inc()
		h.fail(w, r, shared.ErrTooManyRequests)
		return
	}

	user, err := h.store.Users.GetByEmail(email)
	if errors.Is(err, shared.ErrNotFound) {
		h.activity.Logins.WithLabelValues("failed").Inc()
		h.fail(w, r, shared.ErrInvalidCredentials)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash()), []byte(req.Password)); err != nil {
		h.activity.Logins.WithLabelValues("failed").Inc()
		h.fail(w, r, shared.ErrInvalidCredentials)
		return
	}

	token, err := h.store.Tokens.GetOrCreate(user.ID())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.activity.Logins.WithLabelValues("ok").Inc()
	h.logger.Debug("user logged in", "user_id", user.ID())
	writeJSON(w, http.StatusOK, tokenView{AuthToken: token.Key})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.store.Tokens.Delete(user.ID()); err != nil {
		h.fail(w, r, err)
		return
	}
	noContent(w)
}
