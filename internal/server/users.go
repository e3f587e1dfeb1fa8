package server

import (
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
	"github.com/desertthunder/foodgram/internal/validation"
)

// UserHandler serves registration, profiles, password changes and subscriptions.
type UserHandler struct {
	*deps
	bcryptCost int
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,max=128"`
}

type setPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,max=128"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

func (h *UserHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/api/users", h.list},
		{http.MethodPost, "/api/users", h.register},
		{http.MethodGet, "/api/users/me", h.me},
		{http.MethodPost, "/api/users/set_password", h.setPassword},
		{http.MethodGet, "/api/users/subscriptions", h.subscriptions},
		{http.MethodGet, "/api/users/{id}", h.get},
		{http.MethodPost, "/api/users/{id}/subscribe", h.subscribe},
		{http.MethodDelete, "/api/users/{id}/subscribe", h.unsubscribe},
	}
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r, h.pageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	count, err := h.store.Users.Count()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := page.check(count); err != nil {
		h.fail(w, r, err)
		return
	}

	users, err := h.store.Users.List(page.model())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views, err := h.present.users(viewerID(r), users)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(r, page, count, views))
}

func (h *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cost())
	if err != nil {
		h.fail(w, r, validation.NewFieldError("password", "This password cannot be used."))
		return
	}

	user := models.NewUser(req.Email, req.Username, req.FirstName, req.LastName)
	user.SetPasswordHash(string(hash))
	if err := h.store.Users.Create(user); err != nil {
		h.fail(w, r, err)
		return
	}

	h.activity.Registrations.Inc()
	h.logger.Info("user registered", "user_id", user.ID(), "username", user.Username())
	writeJSON(w, http.StatusCreated, createdUserView{
		Email:     user.Email(),
		ID:        user.ID(),
		Username:  user.Username(),
		FirstName: user.FirstName(),
		LastName:  user.LastName(),
	})
}

func (h *UserHandler) cost() int {
	if h.bcryptCost < bcrypt.MinCost || h.bcryptCost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return h.bcryptCost
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user, false))
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.store.Users.Get(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	view, err := h.present.user(viewerID(r), user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *UserHandler) setPassword(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req setPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash()), []byte(req.CurrentPassword)); err != nil {
		h.fail(w, r, validation.NewFieldError("current_password", "Invalid password."))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), h.cost())
	if err != nil {
		h.fail(w, r, validation.NewFieldError("new_password", "This password cannot be used."))
		return
	}

	if err := h.store.Users.SetPassword(user.ID(), string(hash)); err != nil {
		h.fail(w, r, err)
		return
	}
	noContent(w)
}

// recipesLimit reads ?recipes_limit=. Missing, malformed or negative values mean no limit (-1);
// zero embeds no recipes.
func recipesLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("recipes_limit"))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func (h *UserHandler) subscriptions(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page, err := parsePage(r, h.pageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	count, err := h.store.Subscriptions.Count(user.ID())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := page.check(count); err != nil {
		h.fail(w, r, err)
		return
	}

	authors, err := h.store.Subscriptions.ListAuthors(user.ID(), page.model())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views, err := h.present.subscriptions(user.ID(), authors, recipesLimit(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(r, page, count, views))
}

// subscriptionTarget authenticates the request and loads the author named by {id}.
// Following oneself is rejected for every method.
func (h *UserHandler) subscriptionTarget(r *http.Request) (*models.User, *models.User, error) {
	user, err := requireUser(r)
	if err != nil {
		return nil, nil, err
	}

	id, err := pathID(r)
	if err != nil {
		return nil, nil, err
	}

	author, err := h.store.Users.Get(id)
	if err != nil {
		return nil, nil, err
	}

	if author.ID() == user.ID() {
		return nil, nil, shared.ErrSelfSubscription
	}
	return user, author, nil
}

func (h *UserHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	user, author, err := h.subscriptionTarget(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.store.Subscriptions.Add(user.ID(), author.ID()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.activity.Relations.WithLabelValues("subscription", "add").Inc()

	views, err := h.present.subscriptions(user.ID(), []*models.User{author}, recipesLimit(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, views[0])
}

// unsubscribe answers 204 whether or not a subscription existed.
func (h *UserHandler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	user, author, err := h.subscriptionTarget(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	removed, err := h.store.Subscriptions.Remove(user.ID(), author.ID())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if removed {
		h.activity.Relations.WithLabelValues("subscription", "remove").Inc()
	}
	noContent(w)
}
