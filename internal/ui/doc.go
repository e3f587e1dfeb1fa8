// Package ui implements an interactive terminal recipe browser using bubbletea's Elm architecture.
//
// The TUI provides three views:
//  1. [RecipeListView] : Browse and filter recipes, newest first
//  2. [RecipeDetailView] : Read one recipe with its tags, ingredients and instructions
//  3. [ShoppingListView] : Show the summed shopping list of the browsing user
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving data via the Msg union type.
// Store reads run inside [tea.Cmd] functions so the interface never blocks on the database.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, c, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
