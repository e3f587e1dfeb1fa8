package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/foodgram/internal/repositories"
	"github.com/desertthunder/foodgram/internal/shared"
	tu "github.com/desertthunder/foodgram/internal/testing"
)

func newStoreEngine(t *testing.T) (*Engine, *repositories.Store) {
	t.Helper()
	store := repositories.NewStore(tu.NewDB(t))
	return NewEngine(store.Ingredients, store.Tags, store.Carts), store
}

func drain(progress chan ProgressUpdate) []ProgressUpdate {
	close(progress)
	var updates []ProgressUpdate
	for u := range progress {
		updates = append(updates, u)
	}
	return updates
}

func TestLoadIngredients(t *testing.T) {
	t.Run("Inserts And Reports Progress", func(t *testing.T) {
		engine, store := newStoreEngine(t)
		src := `[
			{"name": "абрикосовое варенье", "measurement_unit": "г"},
			{"name": "salt", "measurement_unit": "pinch"},
			{"name": "salt", "measurement_unit": "g"}
		]`

		progress := make(chan ProgressUpdate, 10)
		result, err := engine.LoadIngredients(context.Background(), strings.NewReader(src), progress)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Total != 3 || result.Inserted != 3 || result.Skipped != 0 {
			t.Errorf("unexpected result %+v", result)
		}

		items, err := store.Ingredients.List("")
		if err != nil {
			t.Fatalf("failed to list ingredients: %v", err)
		}
		if len(items) != 3 {
			t.Errorf("expected 3 ingredients, got %d", len(items))
		}

		updates := drain(progress)
		if len(updates) != 4 {
			t.Fatalf("expected 4 progress updates, got %d", len(updates))
		}
		if updates[0].Phase != ReadSource || updates[3].Phase != InsertIngredients {
			t.Errorf("unexpected phases %v and %v", updates[0].Phase, updates[3].Phase)
		}
	})

	t.Run("Skips Existing", func(t *testing.T) {
		engine, _ := newStoreEngine(t)
		src := `[{"name": "salt", "measurement_unit": "g"}]`

		if _, err := engine.LoadIngredients(context.Background(), strings.NewReader(src), nil); err != nil {
			t.Fatalf("first load failed: %v", err)
		}
		result, err := engine.LoadIngredients(context.Background(), strings.NewReader(src), nil)
		if err != nil {
			t.Fatalf("second load failed: %v", err)
		}
		if result.Inserted != 0 || result.Skipped != 1 {
			t.Errorf("expected the ingredient to be skipped, got %+v", result)
		}
	})

	t.Run("Byte Order Mark", func(t *testing.T) {
		engine, _ := newStoreEngine(t)
		src := "\xEF\xBB\xBF" + `[{"name": "salt", "measurement_unit": "g"}]`

		result, err := engine.LoadIngredients(context.Background(), strings.NewReader(src), nil)
		if err != nil {
			t.Fatalf("expected BOM to be ignored, got %v", err)
		}
		if result.Inserted != 1 {
			t.Errorf("expected 1 insert, got %d", result.Inserted)
		}
	})

	t.Run("Invalid Record Writes Nothing", func(t *testing.T) {
		engine, store := newStoreEngine(t)
		src := `[{"name": "salt", "measurement_unit": "g"}, {"name": "", "measurement_unit": "g"}]`

		if _, err := engine.LoadIngredients(context.Background(), strings.NewReader(src), nil); err == nil {
			t.Fatal("expected validation error")
		}
		items, _ := store.Ingredients.List("")
		if len(items) != 0 {
			t.Errorf("expected no ingredients, got %d", len(items))
		}
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		engine, _ := newStoreEngine(t)
		_, err := engine.LoadIngredients(context.Background(), strings.NewReader(`{"name": "salt"}`), nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		engine, _ := newStoreEngine(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := engine.LoadIngredients(ctx, strings.NewReader(`[]`), nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Missing Store", func(t *testing.T) {
		engine := NewEngine(nil, nil, nil)
		_, err := engine.LoadIngredients(context.Background(), strings.NewReader(`[]`), nil)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestLoadTags(t *testing.T) {
	t.Run("Creates New And Skips Seeded", func(t *testing.T) {
		engine, store := newStoreEngine(t)
		src := `[
			{"name": "Breakfast", "color": "#FFFF00", "slug": "breakfast"},
			{"name": "Dessert", "color": "#E26C2D", "slug": "dessert"}
		]`

		progress := make(chan ProgressUpdate, 10)
		result, err := engine.LoadTags(context.Background(), strings.NewReader(src), progress)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Total != 2 || result.Inserted != 1 || result.Skipped != 1 {
			t.Errorf("unexpected result %+v", result)
		}

		if _, err := store.Tags.GetBySlug("dessert"); err != nil {
			t.Errorf("expected dessert tag, got %v", err)
		}

		updates := drain(progress)
		last := updates[len(updates)-1]
		if last.Phase != InsertTags || last.Step != 2 || !strings.Contains(last.Message, "dessert") {
			t.Errorf("unexpected final update %+v", last)
		}
	})

	t.Run("Invalid Color", func(t *testing.T) {
		engine, _ := newStoreEngine(t)
		src := `[{"name": "Dessert", "color": "orange", "slug": "dessert"}]`

		result, err := engine.LoadTags(context.Background(), strings.NewReader(src), nil)
		if err == nil {
			t.Fatal("expected validation error")
		}
		if result.Inserted != 0 {
			t.Errorf("expected nothing inserted, got %d", result.Inserted)
		}
	})

	t.Run("Missing Store", func(t *testing.T) {
		engine := NewEngine(nil, nil, nil)
		if _, err := engine.LoadTags(context.Background(), strings.NewReader(`[]`), nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		ReadSource:        "read_source",
		DecodeRecords:     "decode_records",
		InsertIngredients: "insert_ingredients",
		InsertTags:        "insert_tags",
		ExportCart:        "export_cart",
		Phase(99):         "",
	}
	for phase, want := range tests {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(phase), got, want)
		}
	}
}

func TestSendProgressNeverBlocks(t *testing.T) {
	engine := NewEngine(nil, nil, nil)
	progress := make(chan ProgressUpdate)
	engine.sendProgress(progress, readSourceUpdate("tags"))
	engine.sendProgress(nil, readSourceUpdate("tags"))
}
