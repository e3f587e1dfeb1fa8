package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/foodgram/internal/repositories"
	"github.com/desertthunder/foodgram/internal/shared"
	tu "github.com/desertthunder/foodgram/internal/testing"
	"github.com/desertthunder/foodgram/internal/ui"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
)

// newTestRunner returns a runner whose database lives in a temp dir, along with its output buffer.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "foodgram.db")
	output := &bytes.Buffer{}

	return NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	}), output
}

// seedDB opens the runner's database with migrations applied for fixtures.
func seedDB(t *testing.T, r *Runner) *repositories.Store {
	t.Helper()
	db, store, err := r.openStore()
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store
}

func runCLI(r *Runner, args ...string) error {
	app := &cli.Command{
		Name:      "foodgram",
		Writer:    io.Discard,
		ErrWriter: io.Discard,
		Commands:  r.register(),
	}
	return app.Run(context.Background(), append([]string{"foodgram"}, args...))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "custom.toml",
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "custom.toml" {
				t.Errorf("expected config path custom.toml, got %q", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config")
			}
			if runner.configPath != defaultConfigPath {
				t.Errorf("expected default config path, got %q", runner.configPath)
			}
			if runner.logger == nil {
				t.Error("expected default logger")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes pretty JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := "{\n  \"key\": \"value\"\n}\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes formatted text", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("writePlainln surrounds text with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("Total: %d", 3)
			if output.String() != "\nTotal: 3\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := make(map[string]bool)
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if names[cmd.Name] {
				t.Errorf("command %q registered twice", cmd.Name)
			}
			names[cmd.Name] = true
		}

		for _, name := range []string{"serve", "setup", "load", "cart", "users", "browse"} {
			if !names[name] {
				t.Errorf("expected %q command to be registered", name)
			}
		}
	})

	t.Run("useConfig", func(t *testing.T) {
		t.Run("keeps the current config without --config", func(t *testing.T) {
			runner, _ := newTestRunner(t)
			path := runner.config.Database.Path

			if err := runCLI(runner, "users", "list"); err != nil {
				t.Fatalf("users list failed: %v", err)
			}
			if runner.config.Database.Path != path {
				t.Errorf("expected database path %q, got %q", path, runner.config.Database.Path)
			}
		})

		t.Run("loads the file given with --config", func(t *testing.T) {
			runner, _ := newTestRunner(t)
			dbPath := filepath.Join(t.TempDir(), "other.db")
			configPath := writeFile(t, "config.toml", "[database]\npath = \""+filepath.ToSlash(dbPath)+"\"\n")

			if err := runCLI(runner, "users", "list", "--config", configPath); err != nil {
				t.Fatalf("users list failed: %v", err)
			}
			if runner.config.Database.Path != filepath.ToSlash(dbPath) {
				t.Errorf("expected database path %q, got %q", dbPath, runner.config.Database.Path)
			}
			if runner.configPath != configPath {
				t.Errorf("expected config path %q, got %q", configPath, runner.configPath)
			}
			tu.AssertFileExists(t, dbPath)
		})

		t.Run("rejects an invalid config", func(t *testing.T) {
			runner, _ := newTestRunner(t)
			configPath := writeFile(t, "config.toml", "[server]\nport = 0\n")

			err := runCLI(runner, "users", "list", "--config", configPath)
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("setup config writes the template once", func(t *testing.T) {
		runner, output := newTestRunner(t)
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := runCLI(runner, "setup", "config", "--config", path); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(tu.MustReadFile(t, path), "[database]") {
			t.Error("expected config template to contain [database]")
		}
		if !strings.Contains(output.String(), "Wrote "+path) {
			t.Errorf("unexpected output %q", output.String())
		}

		err := runCLI(runner, "setup", "config", "--config", path)
		if !errors.Is(err, shared.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}

		if err := os.WriteFile(path, []byte("# stale\n"), 0644); err != nil {
			t.Fatalf("failed to write stale config: %v", err)
		}
		if err := runCLI(runner, "setup", "config", "--config", path, "--force"); err != nil {
			t.Fatalf("expected --force to overwrite, got %v", err)
		}
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "[database]") {
			t.Errorf("expected --force to restore the template, got %q", content)
		}
	})

	t.Run("setup database migrates the configured database", func(t *testing.T) {
		runner, output := newTestRunner(t)
		dbPath := filepath.Join(t.TempDir(), "setup.db")
		configPath := writeFile(t, "config.toml", "[database]\npath = \""+filepath.ToSlash(dbPath)+"\"\n")

		if err := runCLI(runner, "setup", "database", "--config", configPath); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		tu.AssertFileExists(t, dbPath)
		if !strings.Contains(output.String(), "Database ready") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("status and rollback", func(t *testing.T) {
		runner, output := newTestRunner(t)
		seedDB(t, runner)

		status := func() []migrationRow {
			t.Helper()
			output.Reset()
			if err := runCLI(runner, "setup", "status", "--json"); err != nil {
				t.Fatalf("setup status failed: %v", err)
			}
			var rows []migrationRow
			if err := json.Unmarshal(output.Bytes(), &rows); err != nil {
				t.Fatalf("failed to decode status: %v (%q)", err, output.String())
			}
			return rows
		}

		rows := status()
		if len(rows) == 0 {
			t.Fatal("expected at least one migration")
		}
		for _, row := range rows {
			if row.AppliedAt == nil {
				t.Errorf("expected migration %d to be applied", row.Version)
			}
		}

		if err := runCLI(runner, "setup", "rollback"); err != nil {
			t.Fatalf("setup rollback failed: %v", err)
		}

		rows = status()
		if last := rows[len(rows)-1]; last.AppliedAt != nil {
			t.Errorf("expected migration %d to be pending after rollback", last.Version)
		}
	})

	t.Run("status in plain text", func(t *testing.T) {
		runner, output := newTestRunner(t)
		seedDB(t, runner)

		if err := runCLI(runner, "setup", "status"); err != nil {
			t.Fatalf("setup status failed: %v", err)
		}
		if !strings.Contains(output.String(), "Migrations") {
			t.Errorf("expected header in output, got %q", output.String())
		}
		if strings.Contains(output.String(), "pending") {
			t.Errorf("expected no pending migrations, got %q", output.String())
		}
	})
}

func TestLoadCommands(t *testing.T) {
	t.Run("load ingredients", func(t *testing.T) {
		runner, output := newTestRunner(t)
		path := writeFile(t, "ingredients.json", `[
			{"name": "flour", "measurement_unit": "g"},
			{"name": "milk", "measurement_unit": "ml"}
		]`)

		if err := runCLI(runner, "load", "ingredients", "--file", path); err != nil {
			t.Fatalf("load ingredients failed: %v", err)
		}
		if !strings.Contains(output.String(), "Inserted: 2") {
			t.Errorf("expected two inserted, got %q", output.String())
		}

		output.Reset()
		if err := runCLI(runner, "load", "ingredients", "--file", path); err != nil {
			t.Fatalf("second load failed: %v", err)
		}
		if !strings.Contains(output.String(), "Skipped:  2") {
			t.Errorf("expected two skipped on reload, got %q", output.String())
		}

		store := seedDB(t, runner)
		count, err := store.Ingredients.Count()
		if err != nil {
			t.Fatalf("failed to count ingredients: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 ingredients, got %d", count)
		}
	})

	t.Run("load tags skips existing slugs", func(t *testing.T) {
		runner, output := newTestRunner(t)
		path := writeFile(t, "tags.json", `[
			{"name": "Breakfast", "color": "#FFFF00", "slug": "breakfast"},
			{"name": "Brunch", "color": "#FFA500", "slug": "brunch"}
		]`)

		if err := runCLI(runner, "load", "tags", "--file", path); err != nil {
			t.Fatalf("load tags failed: %v", err)
		}
		out := output.String()
		if !strings.Contains(out, "Inserted: 1") || !strings.Contains(out, "Skipped:  1") {
			t.Errorf("expected one inserted and one skipped, got %q", out)
		}

		store := seedDB(t, runner)
		if _, err := store.Tags.GetBySlug("brunch"); err != nil {
			t.Errorf("expected brunch tag to exist: %v", err)
		}
	})

	t.Run("errors", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		if err := runCLI(runner, "load", "ingredients"); err == nil {
			t.Error("expected error without --file")
		}

		missing := filepath.Join(t.TempDir(), "missing.json")
		if err := runCLI(runner, "load", "ingredients", "--file", missing); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not-exist error, got %v", err)
		}

		bad := writeFile(t, "bad.json", `{"name": "flour"}`)
		if err := runCLI(runner, "load", "tags", "--file", bad); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

// cartFixture gives alice a cart with two recipes and bob a cart with one; carol has none.
func cartFixture(t *testing.T, r *Runner) {
	t.Helper()
	db := seedDB(t, r).DB

	alice := tu.InsertUser(t, db, "alice")
	bob := tu.InsertUser(t, db, "bob")
	tu.InsertUser(t, db, "carol")
	flour := tu.InsertIngredient(t, db, "flour", "g")
	eggs := tu.InsertIngredient(t, db, "eggs", "pcs")

	bread := tu.InsertRecipe(t, db, alice, "Bread", time.Now(), nil, tu.Amount{IngredientID: flour, Amount: 500})
	cake := tu.InsertRecipe(t, db, alice, "Cake", time.Now(), nil,
		tu.Amount{IngredientID: flour, Amount: 250}, tu.Amount{IngredientID: eggs, Amount: 3})

	tu.Link(t, db, "carts", alice, bread)
	tu.Link(t, db, "carts", alice, cake)
	tu.Link(t, db, "carts", bob, bread)
}

func TestCartExport(t *testing.T) {
	t.Run("prints one user's list", func(t *testing.T) {
		runner, output := newTestRunner(t)
		cartFixture(t, runner)

		if err := runCLI(runner, "cart", "export", "--email", "alice@example.com"); err != nil {
			t.Fatalf("cart export failed: %v", err)
		}

		expected := "eggs (pcs) - 3\nflour (g) - 750\n"
		if output.String() != expected {
			t.Errorf("expected %q, got %q", expected, output.String())
		}
	})

	t.Run("writes one user's list to a file", func(t *testing.T) {
		runner, output := newTestRunner(t)
		cartFixture(t, runner)
		path := filepath.Join(t.TempDir(), "alice.csv")

		err := runCLI(runner, "cart", "export", "--email", "ALICE@example.com", "--format", "csv", "--output", path)
		if err != nil {
			t.Fatalf("cart export failed: %v", err)
		}

		tu.AssertFileExists(t, path)
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "flour,g,750") {
			t.Errorf("expected flour row in CSV, got %q", content)
		}
		if !strings.Contains(output.String(), "Exported 2 items for alice") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("exports every cart owner with --all", func(t *testing.T) {
		runner, output := newTestRunner(t)
		cartFixture(t, runner)
		dir := filepath.Join(t.TempDir(), "carts")

		err := runCLI(runner, "cart", "export", "--all", "--format", "md", "--output-dir", dir, "--workers", "2")
		if err != nil {
			t.Fatalf("cart export --all failed: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "alice-cart-list.md"))
		tu.AssertFileExists(t, filepath.Join(dir, "bob-cart-list.md"))
		if _, err := os.Stat(filepath.Join(dir, "carol-cart-list.md")); !os.IsNotExist(err) {
			t.Error("expected no export for a user with an empty cart")
		}

		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		if !strings.Contains(output.String(), "Successful: 2") {
			t.Errorf("expected two successful exports, got %q", output.String())
		}
	})

	t.Run("--all with no carts", func(t *testing.T) {
		runner, output := newTestRunner(t)
		seedDB(t, runner)

		if err := runCLI(runner, "cart", "export", "--all", "--output-dir", t.TempDir()); err != nil {
			t.Fatalf("cart export --all failed: %v", err)
		}
		if !strings.Contains(output.String(), "No shopping carts to export") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("errors", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		cartFixture(t, runner)

		tests := []struct {
			name string
			args []string
			want error
		}{
			{"neither email nor all", []string{}, shared.ErrMissingArgument},
			{"both email and all", []string{"--email", "alice@example.com", "--all"}, shared.ErrInvalidArgument},
			{"unknown format", []string{"--email", "alice@example.com", "--format", "pdf"}, shared.ErrUnsupportedFormat},
			{"unknown user", []string{"--email", "nobody@example.com"}, shared.ErrNotFound},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				args := append([]string{"cart", "export"}, tt.args...)
				if err := runCLI(runner, args...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})
}

func TestUsersCommands(t *testing.T) {
	runner, output := newTestRunner(t)
	cartFixture(t, runner)

	if err := runCLI(runner, "users", "staff", "--email", "bob@example.com"); err != nil {
		t.Fatalf("users staff failed: %v", err)
	}
	if !strings.Contains(output.String(), "bob is now staff") {
		t.Errorf("unexpected output %q", output.String())
	}

	output.Reset()
	if err := runCLI(runner, "users", "list", "--json"); err != nil {
		t.Fatalf("users list failed: %v", err)
	}

	var rows []userRow
	if err := json.Unmarshal(output.Bytes(), &rows); err != nil {
		t.Fatalf("failed to decode users: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 users, got %d", len(rows))
	}
	for _, row := range rows {
		if want := row.Username == "bob"; row.IsStaff != want {
			t.Errorf("%s: expected is_staff %v, got %v", row.Username, want, row.IsStaff)
		}
	}

	output.Reset()
	if err := runCLI(runner, "users", "staff", "--email", "bob@example.com", "--revoke"); err != nil {
		t.Fatalf("users staff --revoke failed: %v", err)
	}
	if !strings.Contains(output.String(), "bob is no longer staff") {
		t.Errorf("unexpected output %q", output.String())
	}

	output.Reset()
	if err := runCLI(runner, "users", "list"); err != nil {
		t.Fatalf("users list failed: %v", err)
	}
	if out := output.String(); strings.Contains(out, "[staff]") || !strings.Contains(out, "Total: 3") {
		t.Errorf("unexpected plain listing %q", out)
	}

	if err := runCLI(runner, "users", "staff", "--email", "nobody@example.com"); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBrowseOptions(t *testing.T) {
	runner, _ := newTestRunner(t)
	cartFixture(t, runner)
	store := seedDB(t, runner)

	resolve := func(args ...string) (opts ui.Options, err error) {
		cmd := &cli.Command{
			Name:      "browse",
			Writer:    io.Discard,
			ErrWriter: io.Discard,
			Flags:     browseCommand(runner).Flags,
			Action: func(ctx context.Context, cmd *cli.Command) error {
				opts, err = browseOptions(cmd, store)
				return nil
			},
		}
		if runErr := cmd.Run(context.Background(), append([]string{"browse"}, args...)); runErr != nil {
			t.Fatalf("failed to parse flags: %v", runErr)
		}
		return opts, err
	}

	t.Run("defaults", func(t *testing.T) {
		opts, err := resolve()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.Limit != 100 || opts.UserID != 0 || opts.Filter.AuthorID != 0 || len(opts.Filter.TagSlugs) != 0 {
			t.Errorf("unexpected defaults %+v", opts)
		}
	})

	t.Run("resolves author, user and tags", func(t *testing.T) {
		opts, err := resolve("--author", "alice", "--email", "bob@example.com", "--tags", "lunch", "--tags", "dinner", "--limit", "5")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		alice, _ := store.Users.GetByUsername("alice")
		bob, _ := store.Users.GetByUsername("bob")
		if opts.Filter.AuthorID != alice.ID() {
			t.Errorf("expected author %d, got %d", alice.ID(), opts.Filter.AuthorID)
		}
		if opts.UserID != bob.ID() {
			t.Errorf("expected user %d, got %d", bob.ID(), opts.UserID)
		}
		if len(opts.Filter.TagSlugs) != 2 || opts.Filter.TagSlugs[0] != "lunch" || opts.Filter.TagSlugs[1] != "dinner" {
			t.Errorf("unexpected tags %v", opts.Filter.TagSlugs)
		}
		if opts.Limit != 5 {
			t.Errorf("expected limit 5, got %d", opts.Limit)
		}
	})

	t.Run("unknown author or user", func(t *testing.T) {
		if _, err := resolve("--author", "nobody"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for author, got %v", err)
		}
		if _, err := resolve("--email", "nobody@example.com"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for user, got %v", err)
		}
	})
}
