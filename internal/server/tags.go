package server

import (
	"net/http"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
	"github.com/desertthunder/foodgram/internal/validation"
)

// TagHandler serves the tag catalog. Anyone may read it; only staff may change it.
type TagHandler struct {
	*deps
}

type tagRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,tagcolor"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
}

// tagPatch carries only the fields present in a PATCH body.
type tagPatch struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Slug  *string `json:"slug"`
}

func (h *TagHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/api/tags", h.list},
		{http.MethodPost, "/api/tags", h.create},
		{http.MethodGet, "/api/tags/{id}", h.get},
		{http.MethodPatch, "/api/tags/{id}", h.update},
		{http.MethodDelete, "/api/tags/{id}", h.delete},
	}
}

func requireStaff(r *http.Request) error {
	user, err := requireUser(r)
	if err != nil {
		return err
	}
	if !user.IsStaff() {
		return shared.ErrPermissionDenied
	}
	return nil
}

func (h *TagHandler) list(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.Tags.List()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]tagView, len(tags))
	for i, t := range tags {
		views[i] = newTagView(t)
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *TagHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	tag, err := h.store.Tags.Get(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTagView(tag))
}

func (h *TagHandler) create(w http.ResponseWriter, r *http.Request) {
	if err := requireStaff(r); err != nil {
		h.fail(w, r, err)
		return
	}

	var req tagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	tag := models.NewTag(req.Name, req.Color, req.Slug)
	if err := h.store.Tags.Create(tag); err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("tag created", "tag_id", tag.ID(), "slug", tag.Slug())
	writeJSON(w, http.StatusCreated, newTagView(tag))
}

func (h *TagHandler) update(w http.ResponseWriter, r *http.Request) {
	if err := requireStaff(r); err != nil {
		h.fail(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	tag, err := h.store.Tags.Get(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var patch tagPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}

	req := tagRequest{Name: tag.Name(), Color: tag.Color(), Slug: tag.Slug()}
	if patch.Name != nil {
		req.Name = *patch.Name
	}
	if patch.Color != nil {
		req.Color = *patch.Color
	}
	if patch.Slug != nil {
		req.Slug = *patch.Slug
	}
	if err := validation.ValidateStruct(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	tag.SetName(req.Name)
	tag.SetColor(req.Color)
	tag.SetSlug(req.Slug)
	if err := h.store.Tags.Update(tag); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTagView(tag))
}

func (h *TagHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := requireStaff(r); err != nil {
		h.fail(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.store.Tags.Delete(id); err != nil {
		h.fail(w, r, err)
		return
	}
	noContent(w)
}
