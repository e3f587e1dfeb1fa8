package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/foodgram/internal/repositories"
	"github.com/desertthunder/foodgram/internal/shared"
	"github.com/desertthunder/foodgram/internal/ui"
	"github.com/urfave/cli/v3"
)

// Browse launches the interactive terminal recipe browser.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	db, store, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	opts, err := browseOptions(cmd, store)
	if err != nil {
		return err
	}

	source := ui.Source{Recipes: store.Recipes, Users: store.Users}
	if opts.UserID != 0 {
		source.Carts = store.Carts
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, source, opts)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// browseOptions resolves the browse flags against the store.
func browseOptions(cmd *cli.Command, store *repositories.Store) (ui.Options, error) {
	opts := ui.Options{
		Filter: repositories.RecipeFilter{TagSlugs: cmd.StringSlice("tags")},
		Limit:  int(cmd.Int("limit")),
	}

	if username := cmd.String("author"); username != "" {
		author, err := store.Users.GetByUsername(username)
		if err != nil {
			return opts, err
		}
		opts.Filter.AuthorID = author.ID()
	}

	if email := cmd.String("email"); email != "" {
		user, err := store.Users.GetByEmail(email)
		if err != nil {
			return opts, err
		}
		opts.UserID = user.ID()
	}

	return opts, nil
}
