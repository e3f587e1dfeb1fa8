package models

import (
	"fmt"
	"time"
)

// RecipeIngredient is an ingredient together with the amount one recipe calls for.
type RecipeIngredient struct {
	IngredientID    int64
	Name            string
	MeasurementUnit string
	Amount          int
}

// ShoppingListItem is the total amount of one ingredient across every recipe in a user's cart.
type ShoppingListItem struct {
	Name            string
	MeasurementUnit string
	Total           int
}

// Token is an opaque key that authenticates requests as its user.
type Token struct {
	Key       string
	UserID    int64
	CreatedAt time.Time
}

// Recipe is a dish published by an author.
//
// Tags and ingredients are loaded alongside the recipe row and replaced as a whole on update.
type Recipe struct {
	id          int64
	authorID    int64
	name        string
	image       string
	text        string
	cookingTime int
	pubDate     time.Time
	updatedAt   time.Time
	tags        []*Tag
	ingredients []RecipeIngredient
}

// NewRecipe creates a [Recipe] owned by authorID, published now.
func NewRecipe(authorID int64, name, text string, cookingTime int) *Recipe {
	now := time.Now().UTC()
	return &Recipe{
		authorID:    authorID,
		name:        name,
		text:        text,
		cookingTime: cookingTime,
		pubDate:     now,
		updatedAt:   now,
	}
}

func (r *Recipe) ID() int64                       { return r.id }
func (r *Recipe) AuthorID() int64                 { return r.authorID }
func (r *Recipe) Name() string                    { return r.name }
func (r *Recipe) Image() string                   { return r.image }
func (r *Recipe) Text() string                    { return r.text }
func (r *Recipe) CookingTime() int                { return r.cookingTime }
func (r *Recipe) PubDate() time.Time              { return r.pubDate }
func (r *Recipe) UpdatedAt() time.Time            { return r.updatedAt }
func (r *Recipe) Tags() []*Tag                    { return r.tags }
func (r *Recipe) Ingredients() []RecipeIngredient { return r.ingredients }

func (r *Recipe) SetID(id int64)                          { r.id = id }
func (r *Recipe) SetAuthorID(id int64)                    { r.authorID = id }
func (r *Recipe) SetName(name string)                     { r.name = name }
func (r *Recipe) SetImage(image string)                   { r.image = image }
func (r *Recipe) SetText(text string)                     { r.text = text }
func (r *Recipe) SetCookingTime(minutes int)              { r.cookingTime = minutes }
func (r *Recipe) SetPubDate(t time.Time)                  { r.pubDate = t }
func (r *Recipe) SetUpdatedAt(t time.Time)                { r.updatedAt = t }
func (r *Recipe) SetTags(tags []*Tag)                     { r.tags = tags }
func (r *Recipe) SetIngredients(items []RecipeIngredient) { r.ingredients = items }

// TagIDs returns the ids of the recipe's tags in order.
func (r *Recipe) TagIDs() []int64 {
	ids := make([]int64, 0, len(r.tags))
	for _, t := range r.tags {
		ids = append(ids, t.ID())
	}
	return ids
}

// Validate checks scalar fields and that tags and ingredients are present, unique and positive.
func (r *Recipe) Validate() error {
	if r.authorID == 0 {
		return &FieldError{Field: "author", Message: "This field is required."}
	}
	if err := requireText("name", r.name, MaxNameLength); err != nil {
		return err
	}
	if err := requireText("text", r.text, 1<<20); err != nil {
		return err
	}
	if r.image == "" {
		return &FieldError{Field: "image", Message: "No file was submitted."}
	}
	if r.cookingTime < 1 {
		return &FieldError{Field: "cooking_time", Message: "Ensure this value is greater than or equal to 1."}
	}

	if len(r.tags) == 0 {
		return &FieldError{Field: "tags", Message: "At least one tag is required."}
	}
	seenTags := make(map[int64]bool, len(r.tags))
	for _, t := range r.tags {
		if seenTags[t.ID()] {
			return &FieldError{Field: "tags", Message: fmt.Sprintf("Tag %d is listed more than once.", t.ID())}
		}
		seenTags[t.ID()] = true
	}

	if len(r.ingredients) == 0 {
		return &FieldError{Field: "ingredients", Message: "At least one ingredient is required."}
	}
	seenIngredients := make(map[int64]bool, len(r.ingredients))
	for _, item := range r.ingredients {
		if seenIngredients[item.IngredientID] {
			return &FieldError{Field: "ingredients", Message: fmt.Sprintf("Ingredient %d is listed more than once.", item.IngredientID)}
		}
		seenIngredients[item.IngredientID] = true
		if item.Amount < 1 {
			return &FieldError{Field: "ingredients", Message: "Ensure each amount is greater than or equal to 1."}
		}
	}

	return nil
}
