package server

import (
	"fmt"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/repositories"
	"github.com/desertthunder/foodgram/internal/shared"
)

type userView struct {
	Email        string `json:"email"`
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type createdUserView struct {
	Email     string `json:"email"`
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type tagView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type ingredientView struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type recipeIngredientView struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type recipeView struct {
	ID               int64                  `json:"id"`
	Tags             []tagView              `json:"tags"`
	Author           userView               `json:"author"`
	Name             string                 `json:"name"`
	Text             string                 `json:"text"`
	Image            string                 `json:"image"`
	Ingredients      []recipeIngredientView `json:"ingredients"`
	CookingTime      int                    `json:"cooking_time"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
}

// shortRecipeView is the compact form returned by favorite, cart and subscription endpoints.
type shortRecipeView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type subscriptionView struct {
	Email        string            `json:"email"`
	ID           int64             `json:"id"`
	Username     string            `json:"username"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Recipes      []shortRecipeView `json:"recipes"`
	RecipesCount int               `json:"recipes_count"`
	IsSubscribed bool              `json:"is_subscribed"`
}

func newUserView(u *models.User, subscribed bool) userView {
	return userView{
		Email:        u.Email(),
		ID:           u.ID(),
		Username:     u.Username(),
		FirstName:    u.FirstName(),
		LastName:     u.LastName(),
		IsSubscribed: subscribed,
	}
}

func newTagView(t *models.Tag) tagView {
	return tagView{ID: t.ID(), Name: t.Name(), Color: t.Color(), Slug: t.Slug()}
}

func newIngredientView(i *models.Ingredient) ingredientView {
	return ingredientView{ID: i.ID(), Name: i.Name(), MeasurementUnit: i.MeasurementUnit()}
}

// presenter turns models into response views, batch-loading the viewer-dependent flags.
type presenter struct {
	store *repositories.Store
	media *shared.MediaStore
}

func (p *presenter) users(viewerID int64, users []*models.User) ([]userView, error) {
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID()
	}

	subscribed, err := p.store.Subscriptions.SubscribedTo(viewerID, ids)
	if err != nil {
		return nil, err
	}

	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = newUserView(u, subscribed[u.ID()])
	}
	return views, nil
}

func (p *presenter) user(viewerID int64, u *models.User) (userView, error) {
	views, err := p.users(viewerID, []*models.User{u})
	if err != nil {
		return userView{}, err
	}
	return views[0], nil
}

func (p *presenter) shortRecipe(r *models.Recipe) shortRecipeView {
	return shortRecipeView{ID: r.ID(), Name: r.Name(), Image: p.media.URL(r.Image()), CookingTime: r.CookingTime()}
}

func (p *presenter) recipes(viewerID int64, recipes []*models.Recipe) ([]recipeView, error) {
	recipeIDs := make([]int64, len(recipes))
	authorIDs := make([]int64, 0, len(recipes))
	seen := make(map[int64]bool, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID()
		if !seen[r.AuthorID()] {
			seen[r.AuthorID()] = true
			authorIDs = append(authorIDs, r.AuthorID())
		}
	}

	authors, err := p.store.Users.GetMany(authorIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := p.store.Subscriptions.SubscribedTo(viewerID, authorIDs)
	if err != nil {
		return nil, err
	}
	favorited, err := p.store.Favorites.Contains(viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := p.store.Carts.Contains(viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}

	views := make([]recipeView, len(recipes))
	for i, r := range recipes {
		author, ok := authors[r.AuthorID()]
		if !ok {
			return nil, fmt.Errorf("author %d of recipe %d: %w", r.AuthorID(), r.ID(), shared.ErrNotFound)
		}

		tags := make([]tagView, len(r.Tags()))
		for j, t := range r.Tags() {
			tags[j] = newTagView(t)
		}

		items := make([]recipeIngredientView, len(r.Ingredients()))
		for j, item := range r.Ingredients() {
			items[j] = recipeIngredientView{
				ID:              item.IngredientID,
				Name:            item.Name,
				MeasurementUnit: item.MeasurementUnit,
				Amount:          item.Amount,
			}
		}

		views[i] = recipeView{
			ID:               r.ID(),
			Tags:             tags,
			Author:           newUserView(author, subscribed[author.ID()]),
			Name:             r.Name(),
			Text:             r.Text(),
			Image:            p.media.URL(r.Image()),
			Ingredients:      items,
			CookingTime:      r.CookingTime(),
			IsFavorited:      favorited[r.ID()],
			IsInShoppingCart: inCart[r.ID()],
		}
	}
	return views, nil
}

func (p *presenter) recipe(viewerID int64, r *models.Recipe) (recipeView, error) {
	views, err := p.recipes(viewerID, []*models.Recipe{r})
	if err != nil {
		return recipeView{}, err
	}
	return views[0], nil
}

// subscriptions renders followed authors with up to recipesLimit of their newest recipes.
// A negative limit includes every recipe and zero includes none.
func (p *presenter) subscriptions(viewerID int64, authors []*models.User, recipesLimit int) ([]subscriptionView, error) {
	ids := make([]int64, len(authors))
	for i, a := range authors {
		ids[i] = a.ID()
	}

	counts, err := p.store.Recipes.CountByAuthors(ids)
	if err != nil {
		return nil, err
	}
	subscribed, err := p.store.Subscriptions.SubscribedTo(viewerID, ids)
	if err != nil {
		return nil, err
	}

	views := make([]subscriptionView, len(authors))
	for i, a := range authors {
		var recipes []*models.Recipe
		if recipesLimit != 0 {
			if recipes, err = p.store.Recipes.ListByAuthor(a.ID(), max(recipesLimit, 0)); err != nil {
				return nil, err
			}
		}

		short := make([]shortRecipeView, len(recipes))
		for j, r := range recipes {
			short[j] = p.shortRecipe(r)
		}

		views[i] = subscriptionView{
			Email:        a.Email(),
			ID:           a.ID(),
			Username:     a.Username(),
			FirstName:    a.FirstName(),
			LastName:     a.LastName(),
			Recipes:      short,
			RecipesCount: counts[a.ID()],
			IsSubscribed: subscribed[a.ID()],
		}
	}
	return views, nil
}
