// package tasks implements batch operations run from the command line: catalog loading and shopping list exports.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// IngredientStore persists ingredients in bulk.
type IngredientStore interface {
	BulkCreate(ingredients []*models.Ingredient) (int, error)
}

// TagStore looks up and creates tags.
type TagStore interface {
	GetBySlug(slug string) (*models.Tag, error)
	Create(tag *models.Tag) error
}

// ShoppingLister sums the ingredients in a user's cart.
type ShoppingLister interface {
	ShoppingList(userID int64) ([]models.ShoppingListItem, error)
}

// LoadResult summarizes a catalog load.
type LoadResult struct {
	Total    int // Records in the source
	Inserted int // Rows written
	Skipped  int // Records already present
}

type ingredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type tagRecord struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

// Engine runs catalog loads and cart exports against the store.
type Engine struct {
	ingredients IngredientStore
	tags        TagStore
	carts       ShoppingLister
}

// NewEngine creates an [Engine]. Any store may be nil when the matching operation is not used.
func NewEngine(ingredients IngredientStore, tags TagStore, carts ShoppingLister) *Engine {
	return &Engine{ingredients: ingredients, tags: tags, carts: carts}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// decodeRecords reads a JSON array from r. A leading UTF-8 byte order mark is ignored.
func decodeRecords[T any](r io.Reader, v *[]T) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

// LoadIngredients reads a JSON array of {name, measurement_unit} objects and inserts them in one transaction.
//
// Ingredients whose name and unit already exist are skipped. Nothing is written if any record is invalid.
func (e *Engine) LoadIngredients(ctx context.Context, r io.Reader, progress chan<- ProgressUpdate) (*LoadResult, error) {
	if e.ingredients == nil {
		return nil, fmt.Errorf("%w: ingredient store not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, readSourceUpdate("ingredients"))
	var records []ingredientRecord
	if err := decodeRecords(r, &records); err != nil {
		return nil, err
	}
	e.sendProgress(progress, decodedUpdate("ingredients", len(records)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ingredients := make([]*models.Ingredient, len(records))
	for i, rec := range records {
		ingredients[i] = models.NewIngredient(rec.Name, rec.MeasurementUnit)
	}

	e.sendProgress(progress, insertIngredientsUpdate(len(ingredients)))
	inserted, err := e.ingredients.BulkCreate(ingredients)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, ingredientsInsertedUpdate(inserted, len(ingredients)))

	return &LoadResult{Total: len(records), Inserted: inserted, Skipped: len(records) - inserted}, nil
}

// LoadTags reads a JSON array of {name, color, slug} objects and creates the tags whose slug is new.
//
// Tags are created one by one; an invalid tag stops the load and earlier tags stay in place.
func (e *Engine) LoadTags(ctx context.Context, r io.Reader, progress chan<- ProgressUpdate) (*LoadResult, error) {
	if e.tags == nil {
		return nil, fmt.Errorf("%w: tag store not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, readSourceUpdate("tags"))
	var records []tagRecord
	if err := decodeRecords(r, &records); err != nil {
		return nil, err
	}
	e.sendProgress(progress, decodedUpdate("tags", len(records)))

	result := &LoadResult{Total: len(records)}
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		_, err := e.tags.GetBySlug(rec.Slug)
		switch {
		case err == nil:
			result.Skipped++
			e.sendProgress(progress, tagUpdate(i+1, len(records), rec.Slug, true))
			continue
		case !errors.Is(err, shared.ErrNotFound):
			return result, err
		}

		if err := e.tags.Create(models.NewTag(rec.Name, rec.Color, rec.Slug)); err != nil {
			return result, fmt.Errorf("tag #%d (%s): %w", i+1, rec.Slug, err)
		}
		result.Inserted++
		e.sendProgress(progress, tagUpdate(i+1, len(records), rec.Slug, false))
	}
	return result, nil
}
