// package testing contains shared testing utilities: database fixtures and failing writers.
//
// Fixtures insert rows with plain SQL so that any package, including repositories, can use them.
package testing

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/desertthunder/foodgram/internal/shared"
)

// TestPNG is a 1x1 transparent PNG encoded as a data URI.
const TestPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// NewDB creates an in-memory SQLite database with migrations applied and closes it when the test ends.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

// InsertUser adds a user whose email is derived from username and returns its id.
// The stored password hash is not a valid bcrypt hash.
func InsertUser(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()
	now := time.Now().UTC()
	res, err := db.Exec(`
		INSERT INTO users (email, username, first_name, last_name, password, is_staff, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'x', 0, ?, ?)
	`, username+"@example.com", username, "First", "Last", now, now)
	return lastID(t, res, err, "user")
}

// MakeStaff grants the staff flag to a user.
func MakeStaff(t *testing.T, db *sql.DB, userID int64) {
	t.Helper()
	if _, err := db.Exec("UPDATE users SET is_staff = 1 WHERE id = ?", userID); err != nil {
		t.Fatalf("failed to grant staff: %v", err)
	}
}

// InsertIngredient adds an ingredient and returns its id.
func InsertIngredient(t *testing.T, db *sql.DB, name, unit string) int64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?)", name, unit)
	return lastID(t, res, err, "ingredient")
}

// TagID returns the id of a tag by slug, such as one of the seeded breakfast, lunch and dinner tags.
func TagID(t *testing.T, db *sql.DB, slug string) int64 {
	t.Helper()
	var id int64
	if err := db.QueryRow("SELECT id FROM tags WHERE slug = ?", slug).Scan(&id); err != nil {
		t.Fatalf("failed to find tag %q: %v", slug, err)
	}
	return id
}

// Amount pairs an ingredient id with a quantity for [InsertRecipe].
type Amount struct {
	IngredientID int64
	Amount       int
}

// InsertRecipe adds a recipe published at pubDate with the given tags and ingredients and returns its id.
func InsertRecipe(t *testing.T, db *sql.DB, authorID int64, name string, pubDate time.Time, tagIDs []int64, items ...Amount) int64 {
	t.Helper()
	res, err := db.Exec(`
		INSERT INTO recipes (author_id, name, image, text, cooking_time, pub_date, updated_at)
		VALUES (?, ?, 'recipes/images/test.png', 'Text', 10, ?, ?)
	`, authorID, name, pubDate.UTC(), pubDate.UTC())
	id := lastID(t, res, err, "recipe")

	for _, tagID := range tagIDs {
		if _, err := db.Exec("INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)", id, tagID); err != nil {
			t.Fatalf("failed to link tag: %v", err)
		}
	}
	for _, item := range items {
		_, err := db.Exec(
			"INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES (?, ?, ?)",
			id, item.IngredientID, item.Amount,
		)
		if err != nil {
			t.Fatalf("failed to add ingredient: %v", err)
		}
	}
	return id
}

// Link inserts a (user, recipe) row into favorites or carts.
func Link(t *testing.T, db *sql.DB, table string, userID, recipeID int64) {
	t.Helper()
	query := fmt.Sprintf("INSERT INTO %s (user_id, recipe_id, created_at) VALUES (?, ?, ?)", table)
	if _, err := db.Exec(query, userID, recipeID, time.Now().UTC()); err != nil {
		t.Fatalf("failed to insert into %s: %v", table, err)
	}
}

// Subscribe makes userID follow authorID.
func Subscribe(t *testing.T, db *sql.DB, userID, authorID int64) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO subscriptions (user_id, author_id, created_at) VALUES (?, ?, ?)",
		userID, authorID, time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
}

func lastID(t *testing.T, res sql.Result, err error, entity string) int64 {
	t.Helper()
	if err != nil {
		t.Fatalf("failed to insert %s: %v", entity, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read %s id: %v", entity, err)
	}
	return id
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
