package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
)

const recipeColumns = "r.id, r.author_id, r.name, r.image, r.text, r.cooking_time, r.pub_date, r.updated_at"

// RecipeFilter narrows [RecipeRepository.List]. Zero values disable a condition.
type RecipeFilter struct {
	AuthorID    int64    // only recipes by this author
	TagSlugs    []string // recipes carrying any of these tags
	FavoritedBy int64    // only recipes this user favorited
	InCartOf    int64    // only recipes in this user's shopping cart
}

// RecipeRepository implements [models.Repository] for [models.Recipe] along with its tag and ingredient sets.
type RecipeRepository struct {
	db *sql.DB
}

// NewRecipeRepository creates a new [RecipeRepository] with the given database connection
func NewRecipeRepository(db *sql.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create inserts a recipe, its tag links and ingredient amounts in one transaction.
//
// Unknown tag or ingredient ids yield a [models.FieldError] wrapping [shared.ErrNotFound].
// On success the recipe's ingredient lines are reloaded with names and units.
func (r *RecipeRepository) Create(recipe *models.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var id int64
	err := inTx(r.db, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO recipes (author_id, name, image, text, cooking_time, pub_date, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			recipe.AuthorID(), recipe.Name(), recipe.Image(), recipe.Text(),
			recipe.CookingTime(), recipe.PubDate(), recipe.UpdatedAt(),
		)
		if err != nil {
			if shared.IsForeignKeyViolation(err) {
				return notFound("user", recipe.AuthorID())
			}
			return fmt.Errorf("failed to insert recipe: %w", err)
		}

		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read recipe id: %w", err)
		}

		return writeRecipeSets(tx, id, recipe)
	})
	if err != nil {
		return err
	}

	recipe.SetID(id)
	return r.loadRelations([]*models.Recipe{recipe})
}

// Get retrieves a recipe with its tags and ingredients
func (r *RecipeRepository) Get(id int64) (*models.Recipe, error) {
	recipe, err := scanRecipe(r.db.QueryRow("SELECT "+recipeColumns+" FROM recipes r WHERE r.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("recipe", id)
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadRelations([]*models.Recipe{recipe}); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Exists reports whether a recipe with id exists.
func (r *RecipeRepository) Exists(id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM recipes WHERE id = ?)", id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check recipe: %w", err)
	}
	return exists, nil
}

// Update modifies a recipe and replaces its tag and ingredient sets with the ones on recipe.
func (r *RecipeRepository) Update(recipe *models.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	err := inTx(r.db, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE recipes
			SET name = ?, image = ?, text = ?, cooking_time = ?, updated_at = ?
			WHERE id = ?
		`, recipe.Name(), recipe.Image(), recipe.Text(), recipe.CookingTime(), now, recipe.ID())
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}

		rows, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if rows == 0 {
			return notFound("recipe", recipe.ID())
		}

		if _, err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", recipe.ID()); err != nil {
			return fmt.Errorf("failed to clear recipe tags: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM recipe_ingredients WHERE recipe_id = ?", recipe.ID()); err != nil {
			return fmt.Errorf("failed to clear recipe ingredients: %w", err)
		}

		return writeRecipeSets(tx, recipe.ID(), recipe)
	})
	if err != nil {
		return err
	}

	recipe.SetUpdatedAt(now)
	return r.loadRelations([]*models.Recipe{recipe})
}

// Delete removes a recipe; its links, favorites and cart entries cascade.
func (r *RecipeRepository) Delete(id int64) error {
	res, err := r.db.Exec("DELETE FROM recipes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	rows, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("recipe", id)
	}
	return nil
}

// List retrieves recipes matching filter, newest first, along with the total number of matches.
func (r *RecipeRepository) List(filter RecipeFilter, page models.Page) ([]*models.Recipe, int, error) {
	where, args := filter.clause()

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM recipes r"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	query := "SELECT " + recipeColumns + " FROM recipes r" + where + " ORDER BY r.pub_date DESC, r.id DESC"
	query, args = limitClause(query, args, page.Limit, page.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query recipes: %w", err)
	}

	recipes, err := scanRecipes(rows)
	if err != nil {
		return nil, 0, err
	}

	if err := r.loadRelations(recipes); err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// ListByAuthor retrieves an author's newest recipes. A non-positive limit returns all of them.
func (r *RecipeRepository) ListByAuthor(authorID int64, limit int) ([]*models.Recipe, error) {
	recipes, _, err := r.List(RecipeFilter{AuthorID: authorID}, models.Page{Limit: limit})
	return recipes, err
}

// CountByAuthors returns the number of recipes each author has published, keyed by author id.
func (r *RecipeRepository) CountByAuthors(authorIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	query := "SELECT author_id, COUNT(*) FROM recipes WHERE author_id IN (" + placeholders(len(authorIDs)) + ") GROUP BY author_id"
	rows, err := r.db.Query(query, int64Args(authorIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			authorID int64
			count    int
		)
		if err := rows.Scan(&authorID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan recipe count: %w", err)
		}
		counts[authorID] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return counts, nil
}

// clause renders the filter as a WHERE clause over the "r" recipes alias.
func (f RecipeFilter) clause() (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.AuthorID != 0 {
		conds = append(conds, "r.author_id = ?")
		args = append(args, f.AuthorID)
	}

	if len(f.TagSlugs) > 0 {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug IN (`+placeholders(len(f.TagSlugs))+`))`)
		for _, slug := range f.TagSlugs {
			args = append(args, slug)
		}
	}

	if f.FavoritedBy != 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ?)")
		args = append(args, f.FavoritedBy)
	}

	if f.InCartOf != 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM carts c WHERE c.recipe_id = r.id AND c.user_id = ?)")
		args = append(args, f.InCartOf)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// writeRecipeSets inserts the tag links and ingredient amounts of recipe under id.
func writeRecipeSets(tx *sql.Tx, id int64, recipe *models.Recipe) error {
	for _, tagID := range recipe.TagIDs() {
		if _, err := tx.Exec("INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)", id, tagID); err != nil {
			if shared.IsForeignKeyViolation(err) {
				return &models.FieldError{
					Field:   "tags",
					Message: fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", tagID),
					Err:     shared.ErrNotFound,
				}
			}
			return fmt.Errorf("failed to link tag: %w", err)
		}
	}

	for _, item := range recipe.Ingredients() {
		_, err := tx.Exec(
			"INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES (?, ?, ?)",
			id, item.IngredientID, item.Amount,
		)
		if err != nil {
			if shared.IsForeignKeyViolation(err) {
				return &models.FieldError{
					Field:   "ingredients",
					Message: fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", item.IngredientID),
					Err:     shared.ErrNotFound,
				}
			}
			return fmt.Errorf("failed to add ingredient: %w", err)
		}
	}

	return nil
}

// loadRelations fills tags and ingredients for recipes with one query each.
func (r *RecipeRepository) loadRelations(recipes []*models.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	ids := make([]int64, len(recipes))
	for i, recipe := range recipes {
		ids[i] = recipe.ID()
	}
	in := placeholders(len(ids))

	tags, err := r.tagsFor(ids, in)
	if err != nil {
		return err
	}

	ingredients, err := r.ingredientsFor(ids, in)
	if err != nil {
		return err
	}

	for _, recipe := range recipes {
		recipe.SetTags(tags[recipe.ID()])
		recipe.SetIngredients(ingredients[recipe.ID()])
	}
	return nil
}

func (r *RecipeRepository) tagsFor(ids []int64, in string) (map[int64][]*models.Tag, error) {
	rows, err := r.db.Query(`
		SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id IN (`+in+`)
		ORDER BY t.id ASC
	`, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[int64][]*models.Tag)
	for rows.Next() {
		var (
			recipeID int64
			id       int64
			name     string
			color    string
			slug     string
		)
		if err := rows.Scan(&recipeID, &id, &name, &color, &slug); err != nil {
			return nil, fmt.Errorf("failed to scan recipe tag: %w", err)
		}
		tag := models.NewTag(name, color, slug)
		tag.SetID(id)
		tags[recipeID] = append(tags[recipeID], tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tags, nil
}

func (r *RecipeRepository) ingredientsFor(ids []int64, in string) (map[int64][]models.RecipeIngredient, error) {
	rows, err := r.db.Query(`
		SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id IN (`+in+`)
		ORDER BY ri.id ASC
	`, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe ingredients: %w", err)
	}
	defer rows.Close()

	items := make(map[int64][]models.RecipeIngredient)
	for rows.Next() {
		var (
			recipeID int64
			item     models.RecipeIngredient
		)
		if err := rows.Scan(&recipeID, &item.IngredientID, &item.Name, &item.MeasurementUnit, &item.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		items[recipeID] = append(items[recipeID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// scanRecipe scans a single row into a [models.Recipe] without its sets
func scanRecipe(row rowScanner) (*models.Recipe, error) {
	var (
		id          int64
		authorID    int64
		name        string
		image       string
		text        string
		cookingTime int
		pubDate     time.Time
		updatedAt   time.Time
	)

	err := row.Scan(&id, &authorID, &name, &image, &text, &cookingTime, &pubDate, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan recipe: %w", err)
	}

	recipe := models.NewRecipe(authorID, name, text, cookingTime)
	recipe.SetID(id)
	recipe.SetImage(image)
	recipe.SetPubDate(pubDate)
	recipe.SetUpdatedAt(updatedAt)
	return recipe, nil
}

func scanRecipes(rows *sql.Rows) ([]*models.Recipe, error) {
	defer rows.Close()

	var recipes []*models.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return recipes, nil
}
