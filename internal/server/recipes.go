package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/desertthunder/foodgram/internal/formatter"
	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/repositories"
	"github.com/desertthunder/foodgram/internal/shared"
	"github.com/desertthunder/foodgram/internal/validation"
)

// RecipeHandler serves recipes along with the favorite, shopping cart and download actions.
type RecipeHandler struct {
	*deps
}

// integer decodes from a JSON number or a numeric string such as "200".
type integer int

func (n *integer) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
	}
	// Integral decimals like "15.0" are accepted.
	if i := strings.IndexByte(raw, '.'); i > 0 && strings.Trim(raw[i+1:], "0") == "" {
		raw = raw[:i]
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("a valid integer is required, got %s", data)
	}
	*n = integer(v)
	return nil
}

type ingredientAmount struct {
	ID     int64   `json:"id" validate:"required,gt=0"`
	Amount integer `json:"amount" validate:"gte=1,lte=32000"`
}

type recipeRequest struct {
	Ingredients []ingredientAmount `json:"ingredients" validate:"required,min=1,unique=ID,dive"`
	Tags        []int64            `json:"tags" validate:"required,min=1,unique,dive,gt=0"`
	Image       string             `json:"image" validate:"omitempty,datauri"`
	Name        string             `json:"name" validate:"required,max=200"`
	Text        string             `json:"text" validate:"required"`
	CookingTime integer            `json:"cooking_time" validate:"gte=1,lte=32000"`
}

// recipePatch carries only the fields present in a PATCH body.
type recipePatch struct {
	Ingredients *[]ingredientAmount `json:"ingredients"`
	Tags        *[]int64            `json:"tags"`
	Image       *string             `json:"image"`
	Name        *string             `json:"name"`
	Text        *string             `json:"text"`
	CookingTime *integer            `json:"cooking_time"`
}

func (h *RecipeHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/api/recipes", h.list},
		{http.MethodPost, "/api/recipes", h.create},
		{http.MethodGet, "/api/recipes/download_shopping_cart", h.downloadShoppingCart},
		{http.MethodGet, "/api/recipes/{id}", h.get},
		{http.MethodPatch, "/api/recipes/{id}", h.update},
		{http.MethodDelete, "/api/recipes/{id}", h.delete},
		{http.MethodPost, "/api/recipes/{id}/favorite", h.addFavorite},
		{http.MethodDelete, "/api/recipes/{id}/favorite", h.removeFavorite},
		{http.MethodPost, "/api/recipes/{id}/shopping_cart", h.addToCart},
		{http.MethodDelete, "/api/recipes/{id}/shopping_cart", h.removeFromCart},
	}
}

// truthy matches the boolean spellings accepted in query strings.
func truthy(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// recipeFilter builds a [repositories.RecipeFilter] from the query string.
// Favorite and cart filters apply only to authenticated users.
func (h *RecipeHandler) recipeFilter(r *http.Request) (repositories.RecipeFilter, error) {
	var filter repositories.RecipeFilter
	q := r.URL.Query()

	if raw := q.Get("author"); raw != "" {
		invalid := validation.NewFieldError("author", "Select a valid choice. That choice is not one of the available choices.")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, invalid
		}
		if _, err := h.store.Users.Get(id); err != nil {
			return filter, invalid
		}
		filter.AuthorID = id
	}

	for _, slug := range q["tags"] {
		if slug != "" {
			filter.TagSlugs = append(filter.TagSlugs, slug)
		}
	}

	if user := UserFrom(r.Context()); user != nil {
		if truthy(q.Get("is_favorited")) {
			filter.FavoritedBy = user.ID()
		}
		if truthy(q.Get("is_in_shopping_cart")) {
			filter.InCartOf = user.ID()
		}
	}
	return filter, nil
}

func (h *RecipeHandler) list(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r, h.pageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	filter, err := h.recipeFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	recipes, count, err := h.store.Recipes.List(filter, page.model())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := page.check(count); err != nil {
		h.fail(w, r, err)
		return
	}

	views, err := h.present.recipes(viewerID(r), recipes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(r, page, count, views))
}

func (h *RecipeHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	recipe, err := h.store.Recipes.Get(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondRecipe(w, r, http.StatusOK, recipe)
}

func (h *RecipeHandler) respondRecipe(w http.ResponseWriter, r *http.Request, status int, recipe *models.Recipe) {
	view, err := h.present.recipe(viewerID(r), recipe)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, view)
}

// apply copies validated request fields onto recipe, resolving tag ids.
func (h *RecipeHandler) apply(recipe *models.Recipe, req recipeRequest) error {
	tags, err := h.store.Tags.GetMany(req.Tags)
	if err != nil {
		return err
	}

	items := make([]models.RecipeIngredient, len(req.Ingredients))
	for i, item := range req.Ingredients {
		items[i] = models.RecipeIngredient{IngredientID: item.ID, Amount: int(item.Amount)}
	}

	recipe.SetName(req.Name)
	recipe.SetText(req.Text)
	recipe.SetCookingTime(int(req.CookingTime))
	recipe.SetTags(tags)
	recipe.SetIngredients(items)
	return nil
}

func (h *RecipeHandler) create(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Image == "" {
		h.fail(w, r, validation.NewFieldError("image", "No file was submitted."))
		return
	}

	recipe := models.NewRecipe(user.ID(), req.Name, req.Text, int(req.CookingTime))
	if err := h.apply(recipe, req); err != nil {
		h.fail(w, r, err)
		return
	}

	image, err := h.media.SaveDataURI(req.Image)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	recipe.SetImage(image)

	if err := h.store.Recipes.Create(recipe); err != nil {
		h.discardImage(image)
		h.fail(w, r, err)
		return
	}

	h.activity.Recipes.WithLabelValues("create").Inc()
	h.logger.Info("recipe created", "recipe_id", recipe.ID(), "author_id", user.ID())
	h.respondRecipe(w, r, http.StatusCreated, recipe)
}

// ownRecipe loads {id} and checks the authenticated user wrote it.
func (h *RecipeHandler) ownRecipe(r *http.Request) (*models.Recipe, error) {
	user, err := requireUser(r)
	if err != nil {
		return nil, err
	}

	id, err := pathID(r)
	if err != nil {
		return nil, err
	}

	recipe, err := h.store.Recipes.Get(id)
	if err != nil {
		return nil, err
	}

	if recipe.AuthorID() != user.ID() {
		return nil, shared.ErrPermissionDenied
	}
	return recipe, nil
}

// update applies a partial update. Tags and ingredients, when present, replace the existing sets.
func (h *RecipeHandler) update(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.ownRecipe(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var patch recipePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}

	req := recipeRequest{
		Tags:        recipe.TagIDs(),
		Name:        recipe.Name(),
		Text:        recipe.Text(),
		CookingTime: integer(recipe.CookingTime()),
	}
	for _, item := range recipe.Ingredients() {
		req.Ingredients = append(req.Ingredients, ingredientAmount{ID: item.IngredientID, Amount: integer(item.Amount)})
	}

	if patch.Ingredients != nil {
		req.Ingredients = *patch.Ingredients
	}
	if patch.Tags != nil {
		req.Tags = *patch.Tags
	}
	if patch.Image != nil {
		req.Image = *patch.Image
	}
	if patch.Name != nil {
		req.Name = *patch.Name
	}
	if patch.Text != nil {
		req.Text = *patch.Text
	}
	if patch.CookingTime != nil {
		req.CookingTime = *patch.CookingTime
	}

	if err := validation.ValidateStruct(&req); err != nil {
		h.fail(w, r, err)
		return
	}
	if patch.Image != nil && req.Image == "" {
		h.fail(w, r, validation.NewFieldError("image", "No file was submitted."))
		return
	}

	if err := h.apply(recipe, req); err != nil {
		h.fail(w, r, err)
		return
	}

	oldImage := recipe.Image()
	if req.Image != "" {
		image, err := h.media.SaveDataURI(req.Image)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		recipe.SetImage(image)
	}

	if err := h.store.Recipes.Update(recipe); err != nil {
		if recipe.Image() != oldImage {
			h.discardImage(recipe.Image())
		}
		h.fail(w, r, err)
		return
	}
	if recipe.Image() != oldImage {
		h.discardImage(oldImage)
	}

	h.activity.Recipes.WithLabelValues("update").Inc()
	h.respondRecipe(w, r, http.StatusOK, recipe)
}

func (h *RecipeHandler) delete(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.ownRecipe(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.store.Recipes.Delete(recipe.ID()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.discardImage(recipe.Image())

	h.activity.Recipes.WithLabelValues("delete").Inc()
	h.logger.Info("recipe deleted", "recipe_id", recipe.ID())
	noContent(w)
}

func (h *RecipeHandler) discardImage(name string) {
	if err := h.media.Remove(name); err != nil {
		h.logger.Warn("failed to remove recipe image", "image", name, "error", err)
	}
}

// relation is a per-user recipe set such as favorites or the shopping cart.
type relation interface {
	Add(userID, recipeID int64) error
	Remove(userID, recipeID int64) error
}

func (h *RecipeHandler) addTo(set relation, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireUser(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		id, err := pathID(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		if err := set.Add(user.ID(), id); err != nil {
			h.fail(w, r, err)
			return
		}

		recipe, err := h.store.Recipes.Get(id)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		h.activity.Relations.WithLabelValues(name, "add").Inc()
		writeJSON(w, http.StatusCreated, h.present.shortRecipe(recipe))
	}
}

func (h *RecipeHandler) removeFrom(set relation, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireUser(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		id, err := pathID(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		if err := set.Remove(user.ID(), id); err != nil {
			h.fail(w, r, err)
			return
		}

		h.activity.Relations.WithLabelValues(name, "remove").Inc()
		noContent(w)
	}
}

func (h *RecipeHandler) addFavorite(w http.ResponseWriter, r *http.Request) {
	h.addTo(h.store.Favorites, "favorite")(w, r)
}

func (h *RecipeHandler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	h.removeFrom(h.store.Favorites, "favorite")(w, r)
}

func (h *RecipeHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	h.addTo(h.store.Carts, "cart")(w, r)
}

func (h *RecipeHandler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	h.removeFrom(h.store.Carts, "cart")(w, r)
}

// downloadShoppingCart sends the summed ingredients of the user's cart as an attachment.
// ?format= selects txt (default), csv or md.
func (h *RecipeHandler) downloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	format, err := formatter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.fail(w, r, validation.NewFieldError("format", "Select one of: txt, csv, md."))
		return
	}

	items, err := h.store.Carts.ShoppingList(user.ID())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data, err := formatter.Export(format, items)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.activity.CartDownloads.WithLabelValues(string(format)).Inc()
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", format.Filename()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("failed to write shopping list", "error", err)
	}
}
