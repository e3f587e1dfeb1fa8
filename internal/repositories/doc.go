// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with plain SQL over [database/sql]. Rows are removed with hard deletes;
// dependent rows (tags, ingredient amounts, favorites, carts, subscriptions, tokens) follow through ON DELETE CASCADE.
//
// Key Implementations:
//   - [UserRepository] : Accounts with case-insensitive email lookups
//   - [TagRepository] : Meal tags ordered by slug
//   - [IngredientRepository] : Ingredient catalog with substring search and bulk loading
//   - [RecipeRepository] : Recipes with their tag and ingredient sets, filtered listings
//   - [FavoriteRepository] and [CartRepository] : Per-user recipe sets, the cart also builds the shopping list
//   - [SubscriptionRepository] : Author subscriptions
//   - [TokenRepository] : Authentication keys, one per user
//
// Constraint violations are translated into [shared.ErrAlreadyExists], [shared.ErrNotFound] or the relation
// specific sentinels so the HTTP layer can map them without inspecting driver errors.
package repositories
