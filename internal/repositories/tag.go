package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
)

// TagRepository implements [models.Repository] for [models.Tag].
type TagRepository struct {
	db *sql.DB
}

// NewTagRepository creates a new [TagRepository] with the given database connection
func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

// Create inserts a tag. A taken slug yields a [models.FieldError] wrapping [shared.ErrAlreadyExists].
func (r *TagRepository) Create(tag *models.Tag) error {
	if err := tag.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	res, err := r.db.Exec("INSERT INTO tags (name, color, slug) VALUES (?, ?, ?)", tag.Name(), tag.Color(), tag.Slug())
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return slugConflict()
		}
		return fmt.Errorf("failed to insert tag: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read tag id: %w", err)
	}
	tag.SetID(id)
	return nil
}

// Get retrieves a tag by ID
func (r *TagRepository) Get(id int64) (*models.Tag, error) {
	tag, err := scanTag(r.db.QueryRow("SELECT id, name, color, slug FROM tags WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("tag", id)
	}
	return tag, err
}

// GetBySlug retrieves a tag by its slug
func (r *TagRepository) GetBySlug(slug string) (*models.Tag, error) {
	tag, err := scanTag(r.db.QueryRow("SELECT id, name, color, slug FROM tags WHERE slug = ?", slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("tag", slug)
	}
	return tag, err
}

// Update modifies an existing tag
func (r *TagRepository) Update(tag *models.Tag) error {
	if err := tag.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	res, err := r.db.Exec("UPDATE tags SET name = ?, color = ?, slug = ? WHERE id = ?", tag.Name(), tag.Color(), tag.Slug(), tag.ID())
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return slugConflict()
		}
		return fmt.Errorf("failed to update tag: %w", err)
	}

	rows, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("tag", tag.ID())
	}
	return nil
}

// Delete removes a tag and detaches it from every recipe
func (r *TagRepository) Delete(id int64) error {
	res, err := r.db.Exec("DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	rows, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("tag", id)
	}
	return nil
}

// List retrieves every tag ordered by slug
func (r *TagRepository) List() ([]*models.Tag, error) {
	rows, err := r.db.Query("SELECT id, name, color, slug FROM tags ORDER BY slug ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	return scanTags(rows)
}

// GetMany retrieves tags by id in the order given.
//
// Returns a [models.FieldError] for the "tags" field wrapping [shared.ErrNotFound] when any id is unknown.
func (r *TagRepository) GetMany(ids []int64) ([]*models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query("SELECT id, name, color, slug FROM tags WHERE id IN ("+placeholders(len(ids))+")", int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}

	found, err := scanTags(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.Tag, len(found))
	for _, t := range found {
		byID[t.ID()] = t
	}

	tags := make([]*models.Tag, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, &models.FieldError{
				Field:   "tags",
				Message: fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id),
				Err:     shared.ErrNotFound,
			}
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// scanTag scans a single row into a [models.Tag]
func scanTag(row rowScanner) (*models.Tag, error) {
	var (
		id    int64
		name  string
		color string
		slug  string
	)

	err := row.Scan(&id, &name, &color, &slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tag: %w", err)
	}

	tag := models.NewTag(name, color, slug)
	tag.SetID(id)
	return tag, nil
}

func scanTags(rows *sql.Rows) ([]*models.Tag, error) {
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tags, nil
}

func slugConflict() error {
	return &models.FieldError{Field: "slug", Message: "A tag with this slug already exists.", Err: shared.ErrAlreadyExists}
}
