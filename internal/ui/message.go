package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/foodgram/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgRecipesFetched MsgKind = iota
	MsgShoppingListFetched
)

type recipesFetched struct {
	recipes []*models.Recipe
	authors map[int64]*models.User
	count   int
	err     error
}

type shoppingListFetched struct {
	items []models.ShoppingListItem
	err   error
}

// recipesFetchedMsg is the constructor for [MsgRecipesFetched]
func recipesFetchedMsg(recipes []*models.Recipe, authors map[int64]*models.User, count int, err error) Msg {
	return Msg{
		kind: MsgRecipesFetched,
		data: recipesFetched{recipes: recipes, authors: authors, count: count, err: err},
	}
}

// shoppingListFetchedMsg is the constructor for [MsgShoppingListFetched]
func shoppingListFetchedMsg(items []models.ShoppingListItem, err error) Msg {
	return Msg{
		kind: MsgShoppingListFetched,
		data: shoppingListFetched{items: items, err: err},
	}
}
