package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/repositories"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RecipeListView ViewState = iota
	RecipeDetailView
	ShoppingListView
)

// RecipeLister pages through recipes.
type RecipeLister interface {
	List(filter repositories.RecipeFilter, page models.Page) ([]*models.Recipe, int, error)
}

// UserLookup resolves recipe authors.
type UserLookup interface {
	GetMany(ids []int64) (map[int64]*models.User, error)
}

// ShoppingLister sums the ingredients in a user's cart.
type ShoppingLister interface {
	ShoppingList(userID int64) ([]models.ShoppingListItem, error)
}

// Source is where the browser reads from. Carts may be nil when no user is browsing.
type Source struct {
	Recipes RecipeLister
	Users   UserLookup
	Carts   ShoppingLister
}

// Options narrow what the browser shows.
type Options struct {
	Filter repositories.RecipeFilter
	Limit  int   // Maximum number of recipes loaded (default: 100)
	UserID int64 // Browsing user; enables the shopping list view
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	source       Source
	opts         Options
	width        int
	height       int
	recipeList   list.Model
	authors      map[int64]*models.User
	count        int
	selected     *models.Recipe
	detail       viewport.Model
	shoppingList list.Model
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model reading from source.
func NewModel(ctx context.Context, source Source, opts Options) *Model {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	return &Model{
		ctx:          ctx,
		view:         RecipeListView,
		source:       source,
		opts:         opts,
		recipeList:   list.New(nil, list.NewDefaultDelegate(), 0, 0),
		shoppingList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		detail:       viewport.New(0, 0),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init initializes the TUI by fetching recipes.
func (m *Model) Init() tea.Cmd {
	return m.fetchRecipes()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recipeList.SetSize(msg.Width-4, msg.Height-8)
		m.shoppingList.SetSize(msg.Width-4, msg.Height-8)
		m.detail.Width = msg.Width - 4
		m.detail.Height = msg.Height - 6
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case RecipeListView:
			return m.handleRecipeListKeys(msg)
		case RecipeDetailView:
			return m.handleDetailKeys(msg)
		case ShoppingListView:
			return m.handleShoppingListKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgRecipesFetched:
		data := msg.data.(recipesFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.authors = data.authors
		m.count = data.count
		items := make([]list.Item, len(data.recipes))
		for i, r := range data.recipes {
			items[i] = recipeItem{recipe: r, author: m.authorName(r.AuthorID())}
		}
		m.recipeList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.recipeList.Title = fmt.Sprintf("Recipes (%d of %d)", len(items), data.count)
		m.recipeList.SetSize(m.width-4, m.height-8)

	case MsgShoppingListFetched:
		data := msg.data.(shoppingListFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := make([]list.Item, len(data.items))
		for i, item := range data.items {
			items[i] = shoppingItem{item: item}
		}
		m.shoppingList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.shoppingList.Title = "Shopping list"
		m.shoppingList.SetSize(m.width-4, m.height-8)
		m.view = ShoppingListView
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case RecipeListView:
		return m.renderRecipeList()
	case RecipeDetailView:
		return m.renderDetail()
	case ShoppingListView:
		return m.renderShoppingList()
	default:
		return ""
	}
}

func (m *Model) handleRecipeListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.recipeList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.recipeList, cmd = m.recipeList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if item, ok := m.recipeList.SelectedItem().(recipeItem); ok {
			m.openRecipe(item.recipe)
			return m, nil
		}
	case "c":
		if m.source.Carts != nil && m.opts.UserID != 0 {
			return m, m.fetchShoppingList()
		}
	}

	var cmd tea.Cmd
	m.recipeList, cmd = m.recipeList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = RecipeListView
		m.selected = nil
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *Model) handleShoppingListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = RecipeListView
		return m, nil
	}

	var cmd tea.Cmd
	m.shoppingList, cmd = m.shoppingList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case RecipeListView:
		m.recipeList, cmd = m.recipeList.Update(msg)
	case ShoppingListView:
		m.shoppingList, cmd = m.shoppingList.Update(msg)
	}
	return m, cmd
}

func (m *Model) openRecipe(r *models.Recipe) {
	m.selected = r
	m.detail.SetContent(recipeDetail(r))
	m.detail.GotoTop()
	m.view = RecipeDetailView
}

func (m *Model) authorName(id int64) string {
	if u, ok := m.authors[id]; ok {
		return u.Username()
	}
	return fmt.Sprintf("user #%d", id)
}

func (m *Model) fetchRecipes() tea.Cmd {
	return func() tea.Msg {
		if err := m.ctx.Err(); err != nil {
			return recipesFetchedMsg(nil, nil, 0, err)
		}

		recipes, count, err := m.source.Recipes.List(m.opts.Filter, models.Page{Limit: m.opts.Limit})
		if err != nil {
			return recipesFetchedMsg(nil, nil, 0, err)
		}

		ids := make([]int64, 0, len(recipes))
		for _, r := range recipes {
			ids = append(ids, r.AuthorID())
		}
		authors, err := m.source.Users.GetMany(ids)
		return recipesFetchedMsg(recipes, authors, count, err)
	}
}

func (m *Model) fetchShoppingList() tea.Cmd {
	return func() tea.Msg {
		items, err := m.source.Carts.ShoppingList(m.opts.UserID)
		return shoppingListFetchedMsg(items, err)
	}
}

// recipeDetail formats a recipe for the detail viewport.
func recipeDetail(r *models.Recipe) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Cooking time: %d min\n", r.CookingTime())
	if len(r.Tags()) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", styles.Tags(r.Tags()))
	}

	b.WriteString("\nIngredients:\n")
	for _, item := range r.Ingredients() {
		fmt.Fprintf(&b, "  • %s - %d %s\n", item.Name, item.Amount, item.MeasurementUnit)
	}

	fmt.Fprintf(&b, "\n%s\n", r.Text())
	return b.String()
}

func (m *Model) renderRecipeList() string {
	helpKeys := []key.Binding{m.keys.enter}
	if m.source.Carts != nil && m.opts.UserID != 0 {
		helpKeys = append(helpKeys, m.keys.cart)
	}
	helpKeys = append(helpKeys, m.keys.quit)
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.recipeList.View(), helpView)
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return styles.warn.Render("No recipe selected")
	}

	title := styles.title.Render(m.selected.Name())
	byline := styles.help.Render("by " + m.authorName(m.selected.AuthorID()))

	helpKeys := []key.Binding{m.keys.up, m.keys.down, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, byline, m.detail.View(), helpView)
}

func (m *Model) renderShoppingList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if len(m.shoppingList.Items()) == 0 {
		return fmt.Sprintf("%s\n\n%s\n\n%s", styles.title.Render("Shopping list"), styles.ok.Render("Your cart is empty."), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.shoppingList.View(), helpView)
}
