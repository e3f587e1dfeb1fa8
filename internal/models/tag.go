package models

import "regexp"

var (
	colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	slugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Tag labels recipes with a meal category, e.g. breakfast.
type Tag struct {
	id    int64
	name  string
	color string
	slug  string
}

// NewTag creates a [Tag] with the given name, hex color and unique slug.
func NewTag(name, color, slug string) *Tag {
	return &Tag{name: name, color: color, slug: slug}
}

func (t *Tag) ID() int64     { return t.id }
func (t *Tag) Name() string  { return t.name }
func (t *Tag) Color() string { return t.color }
func (t *Tag) Slug() string  { return t.slug }

func (t *Tag) SetID(id int64)        { t.id = id }
func (t *Tag) SetName(name string)   { t.name = name }
func (t *Tag) SetColor(color string) { t.color = color }
func (t *Tag) SetSlug(slug string)   { t.slug = slug }

// Validate checks the name length, the #RRGGBB color and the slug character set.
func (t *Tag) Validate() error {
	if err := requireText("name", t.name, MaxNameLength); err != nil {
		return err
	}
	if !colorPattern.MatchString(t.color) {
		return &FieldError{Field: "color", Message: "Enter a color in #RRGGBB format."}
	}
	if err := requireText("slug", t.slug, MaxNameLength); err != nil {
		return err
	}
	if !slugPattern.MatchString(t.slug) {
		return &FieldError{Field: "slug", Message: "Enter a valid slug consisting of letters, numbers, underscores or hyphens."}
	}
	return nil
}
