package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
	tu "github.com/desertthunder/foodgram/internal/testing"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newTestUser(email, username string) *models.User {
	user := models.NewUser(email, username, "Test", "User")
	user.SetPasswordHash("hash")
	return user
}

func newTestRecipe(authorID int64, tagIDs []int64, items ...models.RecipeIngredient) *models.Recipe {
	recipe := models.NewRecipe(authorID, "Pancakes", "Mix and fry.", 20)
	recipe.SetImage("recipes/images/pancakes.png")

	tags := make([]*models.Tag, len(tagIDs))
	for i, id := range tagIDs {
		tags[i] = models.NewTag("", "", "")
		tags[i].SetID(id)
	}
	recipe.SetTags(tags)
	recipe.SetIngredients(items)
	return recipe
}

func TestUserRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := newTestUser("cook@example.com", "cook")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if user.ID() == 0 {
			t.Error("user ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := newTestUser("cook@example.com", "cook")
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		got, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if got.Email() != "cook@example.com" || got.Username() != "cook" {
			t.Errorf("unexpected user: %s %s", got.Email(), got.Username())
		}
		if got.PasswordHash() != "hash" {
			t.Errorf("expected password hash to round-trip, got %q", got.PasswordHash())
		}
	})

	t.Run("GetByEmail ignores case", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := newTestUser("Cook@Example.com", "cook")
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		got, err := repo.GetByEmail("COOK@example.COM")
		if err != nil {
			t.Fatalf("failed to get user by email: %v", err)
		}
		if got.ID() != user.ID() {
			t.Errorf("expected user %d, got %d", user.ID(), got.ID())
		}
	})

	t.Run("GetByUsername", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := newTestUser("cook@example.com", "cook")
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		got, err := repo.GetByUsername("cook")
		if err != nil {
			t.Fatalf("failed to get user by username: %v", err)
		}
		if got.ID() != user.ID() {
			t.Errorf("expected user %d, got %d", user.ID(), got.ID())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := newTestUser("cook@example.com", "cook")
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		user.SetFirstName("Julia")
		user.SetStaff(true)
		if err := repo.Update(user); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		got, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if got.FirstName() != "Julia" || !got.IsStaff() {
			t.Errorf("update not persisted: %s staff=%v", got.FirstName(), got.IsStaff())
		}
	})

	t.Run("SetPassword", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := newTestUser("cook@example.com", "cook")
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if err := repo.SetPassword(user.ID(), "new-hash"); err != nil {
			t.Fatalf("failed to set password: %v", err)
		}

		got, _ := repo.Get(user.ID())
		if got.PasswordHash() != "new-hash" {
			t.Errorf("expected new hash, got %q", got.PasswordHash())
		}
	})

	t.Run("List and Count", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		for _, name := range []string{"carol", "alice", "bob"} {
			if err := repo.Create(newTestUser(name+"@example.com", name)); err != nil {
				t.Fatalf("failed to create user: %v", err)
			}
		}

		users, err := repo.List(models.Page{Limit: 2})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 2 || users[0].Username() != "alice" || users[1].Username() != "bob" {
			t.Errorf("unexpected first page: %v", usernames(users))
		}

		users, err = repo.List(models.Page{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 1 || users[0].Username() != "carol" {
			t.Errorf("unexpected second page: %v", usernames(users))
		}

		count, err := repo.Count()
		if err != nil {
			t.Fatalf("failed to count users: %v", err)
		}
		if count != 3 {
			t.Errorf("expected 3 users, got %d", count)
		}
	})

	t.Run("GetMany", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		a := newTestUser("a@example.com", "a")
		b := newTestUser("b@example.com", "b")
		for _, u := range []*models.User{a, b} {
			if err := repo.Create(u); err != nil {
				t.Fatalf("failed to create user: %v", err)
			}
		}

		users, err := repo.GetMany([]int64{a.ID(), b.ID(), 999})
		if err != nil {
			t.Fatalf("failed to get users: %v", err)
		}
		if len(users) != 2 || users[a.ID()] == nil || users[b.ID()] == nil {
			t.Errorf("expected both users keyed by id, got %d", len(users))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := newTestUser("cook@example.com", "cook")
		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if err := repo.Delete(user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := repo.Get(user.ID()); err == nil {
			t.Error("expected error getting deleted user")
		}
	})
}

func usernames(users []*models.User) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username()
	}
	return names
}

func TestTagRepository(t *testing.T) {
	t.Run("List is ordered by slug", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		tags, err := NewTagRepository(db).List()
		if err != nil {
			t.Fatalf("failed to list tags: %v", err)
		}

		want := []string{"breakfast", "dinner", "lunch"}
		if len(tags) != len(want) {
			t.Fatalf("expected %d tags, got %d", len(want), len(tags))
		}
		for i, tag := range tags {
			if tag.Slug() != want[i] {
				t.Errorf("tag %d: expected %s, got %s", i, want[i], tag.Slug())
			}
		}
	})

	t.Run("Create, Update and Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTagRepository(db)
		tag := models.NewTag("Dessert", "#FFC0CB", "dessert")
		if err := repo.Create(tag); err != nil {
			t.Fatalf("failed to create tag: %v", err)
		}

		tag.SetColor("#AA00AA")
		if err := repo.Update(tag); err != nil {
			t.Fatalf("failed to update tag: %v", err)
		}

		got, err := repo.GetBySlug("dessert")
		if err != nil {
			t.Fatalf("failed to get tag: %v", err)
		}
		if got.Color() != "#AA00AA" {
			t.Errorf("expected updated color, got %s", got.Color())
		}

		if err := repo.Delete(tag.ID()); err != nil {
			t.Fatalf("failed to delete tag: %v", err)
		}
		if _, err := repo.Get(tag.ID()); err == nil {
			t.Error("expected error getting deleted tag")
		}
	})

	t.Run("GetMany keeps order", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		lunch, breakfast := tu.TagID(t, db, "lunch"), tu.TagID(t, db, "breakfast")
		tags, err := NewTagRepository(db).GetMany([]int64{lunch, breakfast})
		if err != nil {
			t.Fatalf("failed to get tags: %v", err)
		}
		if len(tags) != 2 || tags[0].ID() != lunch || tags[1].ID() != breakfast {
			t.Errorf("unexpected tags: %v", tags)
		}
	})
}

func TestIngredientRepository(t *testing.T) {
	t.Run("List searches names case-insensitively", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewIngredientRepository(db)
		for _, i := range []*models.Ingredient{
			models.NewIngredient("Сахар", "г"),
			models.NewIngredient("ванильный сахар", "г"),
			models.NewIngredient("Мука", "г"),
		} {
			if err := repo.Create(i); err != nil {
				t.Fatalf("failed to create ingredient: %v", err)
			}
		}

		found, err := repo.List("сах")
		if err != nil {
			t.Fatalf("failed to list ingredients: %v", err)
		}
		if len(found) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(found))
		}
		if found[0].Name() != "Сахар" || found[1].Name() != "ванильный сахар" {
			t.Errorf("unexpected order: %s, %s", found[0].Name(), found[1].Name())
		}

		all, err := repo.List("")
		if err != nil {
			t.Fatalf("failed to list ingredients: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 ingredients, got %d", len(all))
		}
	})

	t.Run("List treats wildcards literally", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewIngredientRepository(db)
		if err := repo.Create(models.NewIngredient("salt", "g")); err != nil {
			t.Fatalf("failed to create ingredient: %v", err)
		}

		found, err := repo.List("%")
		if err != nil {
			t.Fatalf("failed to list ingredients: %v", err)
		}
		if len(found) != 0 {
			t.Errorf("expected no matches for a bare wildcard, got %d", len(found))
		}
	})

	t.Run("BulkCreate skips existing rows", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewIngredientRepository(db)
		if err := repo.Create(models.NewIngredient("salt", "g")); err != nil {
			t.Fatalf("failed to create ingredient: %v", err)
		}

		inserted, err := repo.BulkCreate([]*models.Ingredient{
			models.NewIngredient("salt", "g"),
			models.NewIngredient("salt", "pinch"),
			models.NewIngredient("flour", "g"),
		})
		if err != nil {
			t.Fatalf("failed to bulk create: %v", err)
		}
		if inserted != 2 {
			t.Errorf("expected 2 inserted rows, got %d", inserted)
		}

		count, _ := repo.Count()
		if count != 3 {
			t.Errorf("expected 3 ingredients, got %d", count)
		}
	})
}

func TestRecipeRepository(t *testing.T) {
	t.Run("Create stores tags and ingredients", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		author := tu.InsertUser(t, db, "chef")
		flour := tu.InsertIngredient(t, db, "flour", "g")
		milk := tu.InsertIngredient(t, db, "milk", "ml")
		breakfast := tu.TagID(t, db, "breakfast")

		repo := NewRecipeRepository(db)
		recipe := newTestRecipe(author, []int64{breakfast},
			models.RecipeIngredient{IngredientID: flour, Amount: 200},
			models.RecipeIngredient{IngredientID: milk, Amount: 300},
		)
		if err := repo.Create(recipe); err != nil {
			t.Fatalf("failed to create recipe: %v", err)
		}

		got, err := repo.Get(recipe.ID())
		if err != nil {
			t.Fatalf("failed to get recipe: %v", err)
		}

		if len(got.Tags()) != 1 || got.Tags()[0].Slug() != "breakfast" {
			t.Errorf("unexpected tags: %v", got.Tags())
		}

		items := got.Ingredients()
		if len(items) != 2 {
			t.Fatalf("expected 2 ingredients, got %d", len(items))
		}
		if items[0].Name != "flour" || items[0].MeasurementUnit != "g" || items[0].Amount != 200 {
			t.Errorf("unexpected first ingredient: %+v", items[0])
		}
		if items[1].Name != "milk" || items[1].Amount != 300 {
			t.Errorf("unexpected second ingredient: %+v", items[1])
		}
	})

	t.Run("Update replaces sets", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		author := tu.InsertUser(t, db, "chef")
		flour := tu.InsertIngredient(t, db, "flour", "g")
		eggs := tu.InsertIngredient(t, db, "eggs", "pcs")

		repo := NewRecipeRepository(db)
		recipe := newTestRecipe(author, []int64{tu.TagID(t, db, "breakfast")},
			models.RecipeIngredient{IngredientID: flour, Amount: 200},
		)
		if err := repo.Create(recipe); err != nil {
			t.Fatalf("failed to create recipe: %v", err)
		}

		updated := newTestRecipe(author, []int64{tu.TagID(t, db, "dinner"), tu.TagID(t, db, "lunch")},
			models.RecipeIngredient{IngredientID: eggs, Amount: 3},
		)
		updated.SetID(recipe.ID())
		updated.SetName("Omelette")
		if err := repo.Update(updated); err != nil {
			t.Fatalf("failed to update recipe: %v", err)
		}

		got, err := repo.Get(recipe.ID())
		if err != nil {
			t.Fatalf("failed to get recipe: %v", err)
		}
		if got.Name() != "Omelette" {
			t.Errorf("expected updated name, got %s", got.Name())
		}
		if len(got.Tags()) != 2 {
			t.Errorf("expected 2 tags, got %d", len(got.Tags()))
		}
		if len(got.Ingredients()) != 1 || got.Ingredients()[0].Name != "eggs" {
			t.Errorf("unexpected ingredients: %+v", got.Ingredients())
		}
	})

	t.Run("List filters and paginates", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		alice := tu.InsertUser(t, db, "alice")
		bob := tu.InsertUser(t, db, "bob")
		breakfast, lunch, dinner := tu.TagID(t, db, "breakfast"), tu.TagID(t, db, "lunch"), tu.TagID(t, db, "dinner")

		base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		porridge := tu.InsertRecipe(t, db, alice, "Porridge", base, []int64{breakfast})
		soup := tu.InsertRecipe(t, db, alice, "Soup", base.Add(time.Hour), []int64{lunch})
		steak := tu.InsertRecipe(t, db, bob, "Steak", base.Add(2*time.Hour), []int64{dinner, breakfast})

		tu.Link(t, db, "favorites", bob, soup)
		tu.Link(t, db, "carts", bob, porridge)

		repo := NewRecipeRepository(db)
		tests := []struct {
			name   string
			filter RecipeFilter
			want   []int64
		}{
			{"no filter newest first", RecipeFilter{}, []int64{steak, soup, porridge}},
			{"author", RecipeFilter{AuthorID: alice}, []int64{soup, porridge}},
			{"any of tags", RecipeFilter{TagSlugs: []string{"breakfast", "lunch"}}, []int64{steak, soup, porridge}},
			{"single tag", RecipeFilter{TagSlugs: []string{"breakfast"}}, []int64{steak, porridge}},
			{"favorited", RecipeFilter{FavoritedBy: bob}, []int64{soup}},
			{"in cart", RecipeFilter{InCartOf: bob}, []int64{porridge}},
			{"combined", RecipeFilter{AuthorID: alice, TagSlugs: []string{"dinner"}}, nil},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				recipes, total, err := repo.List(tt.filter, models.Page{})
				if err != nil {
					t.Fatalf("failed to list recipes: %v", err)
				}
				if total != len(tt.want) {
					t.Errorf("expected total %d, got %d", len(tt.want), total)
				}
				if len(recipes) != len(tt.want) {
					t.Fatalf("expected %d recipes, got %d", len(tt.want), len(recipes))
				}
				for i, r := range recipes {
					if r.ID() != tt.want[i] {
						t.Errorf("position %d: expected recipe %d, got %d", i, tt.want[i], r.ID())
					}
				}
			})
		}

		recipes, total, err := repo.List(RecipeFilter{}, models.Page{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("failed to list recipes: %v", err)
		}
		if total != 3 || len(recipes) != 1 || recipes[0].ID() != porridge {
			t.Errorf("unexpected last page: total=%d len=%d", total, len(recipes))
		}
		if len(recipes[0].Tags()) != 1 {
			t.Errorf("expected tags to be loaded for listed recipes")
		}
	})

	t.Run("ListByAuthor and CountByAuthors", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		alice := tu.InsertUser(t, db, "alice")
		bob := tu.InsertUser(t, db, "bob")
		base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		for i := range 3 {
			tu.InsertRecipe(t, db, alice, "Recipe", base.Add(time.Duration(i)*time.Minute), nil)
		}

		repo := NewRecipeRepository(db)
		recipes, err := repo.ListByAuthor(alice, 2)
		if err != nil {
			t.Fatalf("failed to list recipes: %v", err)
		}
		if len(recipes) != 2 {
			t.Errorf("expected 2 recipes, got %d", len(recipes))
		}

		counts, err := repo.CountByAuthors([]int64{alice, bob})
		if err != nil {
			t.Fatalf("failed to count recipes: %v", err)
		}
		if counts[alice] != 3 || counts[bob] != 0 {
			t.Errorf("unexpected counts: %v", counts)
		}
	})

	t.Run("Delete cascades", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		author := tu.InsertUser(t, db, "chef")
		recipe := tu.InsertRecipe(t, db, author, "Soup", time.Now(), []int64{tu.TagID(t, db, "lunch")})
		tu.Link(t, db, "favorites", author, recipe)

		repo := NewRecipeRepository(db)
		if err := repo.Delete(recipe); err != nil {
			t.Fatalf("failed to delete recipe: %v", err)
		}

		exists, err := repo.Exists(recipe)
		if err != nil {
			t.Fatalf("failed to check recipe: %v", err)
		}
		if exists {
			t.Error("recipe should not exist after delete")
		}

		var favorites int
		if err := db.QueryRow("SELECT COUNT(*) FROM favorites").Scan(&favorites); err != nil {
			t.Fatalf("failed to count favorites: %v", err)
		}
		if favorites != 0 {
			t.Errorf("expected favorites to cascade, got %d", favorites)
		}
	})
}

func TestFavoriteAndCartRepositories(t *testing.T) {
	t.Run("Favorites", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := tu.InsertUser(t, db, "eater")
		recipe := tu.InsertRecipe(t, db, user, "Soup", time.Now(), nil)
		other := tu.InsertRecipe(t, db, user, "Salad", time.Now(), nil)

		repo := NewFavoriteRepository(db)
		if err := repo.Add(user, recipe); err != nil {
			t.Fatalf("failed to add favorite: %v", err)
		}

		exists, err := repo.Exists(user, recipe)
		if err != nil || !exists {
			t.Errorf("expected favorite to exist: %v", err)
		}

		found, err := repo.Contains(user, []int64{recipe, other})
		if err != nil {
			t.Fatalf("failed to check favorites: %v", err)
		}
		if !found[recipe] || found[other] {
			t.Errorf("unexpected favorites: %v", found)
		}

		if err := repo.Remove(user, recipe); err != nil {
			t.Fatalf("failed to remove favorite: %v", err)
		}
		exists, _ = repo.Exists(user, recipe)
		if exists {
			t.Error("favorite should be gone after remove")
		}
	})

	t.Run("Contains for anonymous user", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		found, err := NewCartRepository(db).Contains(0, []int64{1, 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(found) != 0 {
			t.Errorf("expected empty result, got %v", found)
		}
	})

	t.Run("ShoppingList sums by ingredient", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := tu.InsertUser(t, db, "shopper")
		flour := tu.InsertIngredient(t, db, "flour", "g")
		sugar := tu.InsertIngredient(t, db, "sugar", "g")
		salt := tu.InsertIngredient(t, db, "salt", "g")

		bread := tu.InsertRecipe(t, db, user, "Bread", time.Now(), nil,
			tu.Amount{IngredientID: flour, Amount: 500}, tu.Amount{IngredientID: salt, Amount: 10})
		cake := tu.InsertRecipe(t, db, user, "Cake", time.Now(), nil,
			tu.Amount{IngredientID: flour, Amount: 250}, tu.Amount{IngredientID: sugar, Amount: 200})
		tu.InsertRecipe(t, db, user, "Not in cart", time.Now(), nil,
			tu.Amount{IngredientID: flour, Amount: 1000})

		repo := NewCartRepository(db)
		for _, id := range []int64{bread, cake} {
			if err := repo.Add(user, id); err != nil {
				t.Fatalf("failed to add to cart: %v", err)
			}
		}

		items, err := repo.ShoppingList(user)
		if err != nil {
			t.Fatalf("failed to build shopping list: %v", err)
		}

		want := []models.ShoppingListItem{
			{Name: "flour", MeasurementUnit: "g", Total: 750},
			{Name: "salt", MeasurementUnit: "g", Total: 10},
			{Name: "sugar", MeasurementUnit: "g", Total: 200},
		}
		if len(items) != len(want) {
			t.Fatalf("expected %d items, got %d", len(want), len(items))
		}
		for i := range want {
			if items[i] != want[i] {
				t.Errorf("item %d: expected %+v, got %+v", i, want[i], items[i])
			}
		}
	})

	t.Run("ShoppingList of empty cart", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := tu.InsertUser(t, db, "shopper")
		items, err := NewCartRepository(db).ShoppingList(user)
		if err != nil {
			t.Fatalf("failed to build shopping list: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("expected empty list, got %d items", len(items))
		}
	})

	t.Run("Owners lists users with a non-empty cart", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		alice := tu.InsertUser(t, db, "alice")
		bob := tu.InsertUser(t, db, "bob")
		tu.InsertUser(t, db, "carol")
		recipe := tu.InsertRecipe(t, db, alice, "Soup", time.Now(), nil)
		tu.Link(t, db, "carts", bob, recipe)
		tu.Link(t, db, "carts", alice, recipe)

		owners, err := NewCartRepository(db).Owners()
		if err != nil {
			t.Fatalf("failed to list owners: %v", err)
		}
		if len(owners) != 2 || owners[0] != alice || owners[1] != bob {
			t.Errorf("expected [%d %d], got %v", alice, bob, owners)
		}
	})
}

func TestSubscriptionRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	reader := tu.InsertUser(t, db, "reader")
	zed := tu.InsertUser(t, db, "zed")
	amy := tu.InsertUser(t, db, "amy")
	repo := NewSubscriptionRepository(db)

	for _, author := range []int64{zed, amy} {
		if err := repo.Add(reader, author); err != nil {
			t.Fatalf("failed to subscribe: %v", err)
		}
	}

	t.Run("ListAuthors ordered by username", func(t *testing.T) {
		authors, err := repo.ListAuthors(reader, models.Page{})
		if err != nil {
			t.Fatalf("failed to list authors: %v", err)
		}
		if len(authors) != 2 || authors[0].Username() != "amy" || authors[1].Username() != "zed" {
			t.Errorf("unexpected authors: %v", usernames(authors))
		}

		count, err := repo.Count(reader)
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 subscriptions, got %d", count)
		}
	})

	t.Run("SubscribedTo", func(t *testing.T) {
		found, err := repo.SubscribedTo(reader, []int64{zed, reader})
		if err != nil {
			t.Fatalf("failed to check subscriptions: %v", err)
		}
		if !found[zed] || found[reader] {
			t.Errorf("unexpected result: %v", found)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		removed, err := repo.Remove(reader, zed)
		if err != nil || !removed {
			t.Fatalf("expected subscription to be removed: %v", err)
		}

		removed, err = repo.Remove(reader, zed)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if removed {
			t.Error("second remove should report nothing removed")
		}
	})
}

func TestTokenRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := tu.InsertUser(t, db, "login")
	repo := NewTokenRepository(db)

	first, err := repo.GetOrCreate(user)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	if len(first.Key) != 32 {
		t.Errorf("expected 32 character key, got %q", first.Key)
	}

	second, err := repo.GetOrCreate(user)
	if err != nil {
		t.Fatalf("failed to get token: %v", err)
	}
	if second.Key != first.Key {
		t.Error("expected the existing token to be reused")
	}

	id, err := repo.UserID(first.Key)
	if err != nil || id != user {
		t.Errorf("expected user %d, got %d (%v)", user, id, err)
	}

	if err := repo.Delete(user); err != nil {
		t.Fatalf("failed to delete token: %v", err)
	}
	if _, err := repo.UserID(first.Key); err == nil {
		t.Error("expected error resolving a deleted token")
	}
}
