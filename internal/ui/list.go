package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/foodgram/internal/models"
)

var (
	_ list.Item = recipeItem{}
	_ list.Item = shoppingItem{}
)

// recipeItem wraps [models.Recipe] and its author to implement [list.Item].
type recipeItem struct {
	recipe *models.Recipe
	author string
}

func (i recipeItem) FilterValue() string { return i.recipe.Name() }
func (i recipeItem) Title() string       { return i.recipe.Name() }
func (i recipeItem) Description() string {
	desc := fmt.Sprintf("%d min • by %s", i.recipe.CookingTime(), i.author)
	if tags := tagNames(i.recipe); tags != "" {
		desc = fmt.Sprintf("%s • %s", desc, tags)
	}
	return desc
}

// shoppingItem wraps [models.ShoppingListItem] to implement [list.Item].
type shoppingItem struct {
	item models.ShoppingListItem
}

func (i shoppingItem) FilterValue() string { return i.item.Name }
func (i shoppingItem) Title() string       { return i.item.Name }
func (i shoppingItem) Description() string {
	return fmt.Sprintf("%d %s", i.item.Total, i.item.MeasurementUnit)
}

func tagNames(r *models.Recipe) string {
	names := make([]string, len(r.Tags()))
	for i, t := range r.Tags() {
		names[i] = t.Name()
	}
	return strings.Join(names, ", ")
}
