package repositories

import "database/sql"

// Store bundles every repository over a single database handle.
type Store struct {
	DB            *sql.DB
	Users         *UserRepository
	Tokens        *TokenRepository
	Tags          *TagRepository
	Ingredients   *IngredientRepository
	Recipes       *RecipeRepository
	Favorites     *FavoriteRepository
	Carts         *CartRepository
	Subscriptions *SubscriptionRepository
}

// NewStore creates a [Store] with all repositories sharing db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:            db,
		Users:         NewUserRepository(db),
		Tokens:        NewTokenRepository(db),
		Tags:          NewTagRepository(db),
		Ingredients:   NewIngredientRepository(db),
		Recipes:       NewRecipeRepository(db),
		Favorites:     NewFavoriteRepository(db),
		Carts:         NewCartRepository(db),
		Subscriptions: NewSubscriptionRepository(db),
	}
}
