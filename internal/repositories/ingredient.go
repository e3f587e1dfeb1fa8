package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
)

// IngredientRepository implements [models.Repository] for the [models.Ingredient] catalog.
type IngredientRepository struct {
	db *sql.DB
}

// NewIngredientRepository creates a new [IngredientRepository] with the given database connection
func NewIngredientRepository(db *sql.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

// Create inserts an ingredient and sets its generated ID
func (r *IngredientRepository) Create(ingredient *models.Ingredient) error {
	if err := ingredient.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id, err := insertIngredient(r.db, ingredient)
	if err != nil {
		return err
	}
	ingredient.SetID(id)
	return nil
}

// BulkCreate inserts ingredients in a single transaction, skipping entries whose name and unit already exist.
//
// Returns the number of inserted rows. Nothing is written if any ingredient is invalid.
func (r *IngredientRepository) BulkCreate(ingredients []*models.Ingredient) (int, error) {
	for i, ingredient := range ingredients {
		if err := ingredient.Validate(); err != nil {
			return 0, fmt.Errorf("ingredient #%d: validation failed: %w", i+1, err)
		}
	}

	inserted := 0
	err := inTx(r.db, func(tx *sql.Tx) error {
		for _, ingredient := range ingredients {
			var existing int64
			err := tx.QueryRow(
				"SELECT id FROM ingredients WHERE name = ? AND measurement_unit = ?",
				ingredient.Name(), ingredient.MeasurementUnit(),
			).Scan(&existing)

			switch {
			case err == nil:
				ingredient.SetID(existing)
				continue
			case !errors.Is(err, sql.ErrNoRows):
				return fmt.Errorf("failed to look up ingredient: %w", err)
			}

			id, err := insertIngredient(tx, ingredient)
			if err != nil {
				return err
			}
			ingredient.SetID(id)
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// Get retrieves an ingredient by ID
func (r *IngredientRepository) Get(id int64) (*models.Ingredient, error) {
	ingredient, err := scanIngredient(r.db.QueryRow("SELECT id, name, measurement_unit FROM ingredients WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("ingredient", id)
	}
	return ingredient, err
}

// Update modifies an existing ingredient
func (r *IngredientRepository) Update(ingredient *models.Ingredient) error {
	if err := ingredient.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	res, err := r.db.Exec(
		"UPDATE ingredients SET name = ?, measurement_unit = ? WHERE id = ?",
		ingredient.Name(), ingredient.MeasurementUnit(), ingredient.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update ingredient: %w", err)
	}

	rows, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("ingredient", ingredient.ID())
	}
	return nil
}

// Delete removes an ingredient; recipes lose the corresponding line
func (r *IngredientRepository) Delete(id int64) error {
	res, err := r.db.Exec("DELETE FROM ingredients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete ingredient: %w", err)
	}

	rows, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("ingredient", id)
	}
	return nil
}

// List retrieves ingredients ordered by name whose name contains search, ignoring case.
// An empty search returns the whole catalog.
func (r *IngredientRepository) List(search string) ([]*models.Ingredient, error) {
	query := "SELECT id, name, measurement_unit FROM ingredients"
	args := []any{}

	if search = strings.TrimSpace(search); search != "" {
		query += ` WHERE unicode_lower(name) LIKE '%' || ? || '%' ESCAPE '\'`
		args = append(args, shared.EscapeLike(strings.ToLower(search)))
	}

	query += " ORDER BY name ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []*models.Ingredient
	for rows.Next() {
		ingredient, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ingredient)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ingredients, nil
}

// Count returns the size of the catalog.
func (r *IngredientRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM ingredients").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ingredients: %w", err)
	}
	return count, nil
}

func insertIngredient(q querier, ingredient *models.Ingredient) (int64, error) {
	res, err := q.Exec(
		"INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?)",
		ingredient.Name(), ingredient.MeasurementUnit(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert ingredient: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read ingredient id: %w", err)
	}
	return id, nil
}

// scanIngredient scans a single row into a [models.Ingredient]
func scanIngredient(row rowScanner) (*models.Ingredient, error) {
	var (
		id   int64
		name string
		unit string
	)

	err := row.Scan(&id, &name, &unit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ingredient: %w", err)
	}

	ingredient := models.NewIngredient(name, unit)
	ingredient.SetID(id)
	return ingredient, nil
}
