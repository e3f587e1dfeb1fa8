package server

import "net/http"

// IngredientHandler serves the read-only ingredient catalog.
type IngredientHandler struct {
	*deps
}

func (h *IngredientHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/api/ingredients", h.list},
		{http.MethodGet, "/api/ingredients/{id}", h.get},
	}
}

// list returns every ingredient whose name contains ?name=, ignoring case. There is no pagination.
func (h *IngredientHandler) list(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.store.Ingredients.List(r.URL.Query().Get("name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]ingredientView, len(ingredients))
	for i, ingredient := range ingredients {
		views[i] = newIngredientView(ingredient)
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *IngredientHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ingredient, err := h.store.Ingredients.Get(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newIngredientView(ingredient))
}
