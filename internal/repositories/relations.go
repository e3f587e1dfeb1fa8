package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
)

// userRecipeSet manages a (user, recipe) junction table such as favorites or carts.
type userRecipeSet struct {
	db       *sql.DB
	table    string
	conflict error
	missing  error
}

func (s *userRecipeSet) add(userID, recipeID int64) error {
	_, err := s.db.Exec(
		"INSERT INTO "+s.table+" (user_id, recipe_id, created_at) VALUES (?, ?, ?)",
		userID, recipeID, time.Now().UTC(),
	)
	if err == nil {
		return nil
	}

	switch {
	case shared.IsUniqueViolation(err):
		return s.conflict
	case shared.IsForeignKeyViolation(err):
		return notFound("recipe", recipeID)
	default:
		return fmt.Errorf("failed to insert into %s: %w", s.table, err)
	}
}

func (s *userRecipeSet) remove(userID, recipeID int64) error {
	res, err := s.db.Exec("DELETE FROM "+s.table+" WHERE user_id = ? AND recipe_id = ?", userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", s.table, err)
	}

	rows, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if rows == 0 {
		return s.missing
	}
	return nil
}

func (s *userRecipeSet) exists(userID, recipeID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM "+s.table+" WHERE user_id = ? AND recipe_id = ?)",
		userID, recipeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	return exists, nil
}

// contains reports which of recipeIDs are in the user's set.
func (s *userRecipeSet) contains(userID int64, recipeIDs []int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(recipeIDs))
	if userID == 0 || len(recipeIDs) == 0 {
		return found, nil
	}

	args := append([]any{userID}, int64Args(recipeIDs)...)
	rows, err := s.db.Query(
		"SELECT recipe_id FROM "+s.table+" WHERE user_id = ? AND recipe_id IN ("+placeholders(len(recipeIDs))+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}

	ids, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		found[id] = true
	}
	return found, nil
}

// FavoriteRepository stores the recipes users have marked as favorite.
type FavoriteRepository struct {
	set userRecipeSet
}

// NewFavoriteRepository creates a new [FavoriteRepository] with the given database connection
func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{set: userRecipeSet{
		db:       db,
		table:    "favorites",
		conflict: shared.ErrAlreadyFavorited,
		missing:  shared.ErrNotFavorited,
	}}
}

// Add favorites a recipe. Returns [shared.ErrAlreadyFavorited] for duplicates.
func (r *FavoriteRepository) Add(userID, recipeID int64) error { return r.set.add(userID, recipeID) }

// Remove unfavorites a recipe. Returns [shared.ErrNotFavorited] when it was not a favorite.
func (r *FavoriteRepository) Remove(userID, recipeID int64) error {
	return r.set.remove(userID, recipeID)
}

func (r *FavoriteRepository) Exists(userID, recipeID int64) (bool, error) {
	return r.set.exists(userID, recipeID)
}

// Contains reports which of recipeIDs the user has favorited.
func (r *FavoriteRepository) Contains(userID int64, recipeIDs []int64) (map[int64]bool, error) {
	return r.set.contains(userID, recipeIDs)
}

// CartRepository stores each user's shopping cart.
type CartRepository struct {
	set userRecipeSet
}

// NewCartRepository creates a new [CartRepository] with the given database connection
func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{set: userRecipeSet{
		db:       db,
		table:    "carts",
		conflict: shared.ErrAlreadyInCart,
		missing:  shared.ErrNotInCart,
	}}
}

// Add puts a recipe in the cart. Returns [shared.ErrAlreadyInCart] for duplicates.
func (r *CartRepository) Add(userID, recipeID int64) error { return r.set.add(userID, recipeID) }

// Remove takes a recipe out of the cart. Returns [shared.ErrNotInCart] when it was not there.
func (r *CartRepository) Remove(userID, recipeID int64) error {
	return r.set.remove(userID, recipeID)
}

func (r *CartRepository) Exists(userID, recipeID int64) (bool, error) {
	return r.set.exists(userID, recipeID)
}

// Contains reports which of recipeIDs are in the user's cart.
func (r *CartRepository) Contains(userID int64, recipeIDs []int64) (map[int64]bool, error) {
	return r.set.contains(userID, recipeIDs)
}

// ShoppingList sums ingredient amounts across every recipe in the user's cart,
// grouped by ingredient name and measurement unit and ordered by name.
func (r *CartRepository) ShoppingList(userID int64) ([]models.ShoppingListItem, error) {
	query := `
		SELECT i.name, i.measurement_unit, SUM(ri.amount) AS total
		FROM carts c
		JOIN recipe_ingredients ri ON ri.recipe_id = c.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE c.user_id = ?
		GROUP BY i.name, i.measurement_unit
		ORDER BY i.name ASC, i.measurement_unit ASC
	`

	rows, err := r.set.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping list: %w", err)
	}
	defer rows.Close()

	var items []models.ShoppingListItem
	for rows.Next() {
		var item models.ShoppingListItem
		if err := rows.Scan(&item.Name, &item.MeasurementUnit, &item.Total); err != nil {
			return nil, fmt.Errorf("failed to scan shopping list item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// Owners returns the ids of users with at least one recipe in their cart, in ascending order.
func (r *CartRepository) Owners() ([]int64, error) {
	rows, err := r.set.db.Query("SELECT DISTINCT user_id FROM carts ORDER BY user_id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query cart owners: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan cart owner: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}
