// Package models defines domain entities and persistence interfaces for the Foodgram recipe service.
//
// The package contains two categories of types:
//
// 1. Persistent Entities: Database-backed models with accessors and validation
//   - [User] : Accounts authenticated by email and password
//   - [Tag] : Meal categories recipes are labelled with
//   - [Ingredient] : Catalog entries with a measurement unit
//   - [Recipe] : Author-owned recipes with tags and ingredient amounts
//
// 2. Value Types: Plain structs read from joins and aggregates
//   - [RecipeIngredient] : An ingredient with its amount inside one recipe
//   - [ShoppingListItem] : Summed ingredient amount across a user's cart
//   - [Token] : Opaque authentication key issued at login
//
// All persistent entities implement the [Model] interface providing identity and validation.
// The [Repository] interface defines the CRUD operations shared by every repository.
package models
