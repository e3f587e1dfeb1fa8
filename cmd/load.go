package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/foodgram/internal/tasks"
	"github.com/urfave/cli/v3"
)

type loadFunc func(*tasks.Engine, context.Context, io.Reader, chan<- tasks.ProgressUpdate) (*tasks.LoadResult, error)

// LoadIngredients imports ingredients from a JSON file.
func (r *Runner) LoadIngredients(ctx context.Context, cmd *cli.Command) error {
	return r.load(ctx, cmd, "ingredients", (*tasks.Engine).LoadIngredients)
}

// LoadTags imports tags from a JSON file, skipping slugs that already exist.
func (r *Runner) LoadTags(ctx context.Context, cmd *cli.Command) error {
	return r.load(ctx, cmd, "tags", (*tasks.Engine).LoadTags)
}

func (r *Runner) load(ctx context.Context, cmd *cli.Command, kind string, fn loadFunc) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	path := cmd.String("file")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s file: %w", kind, err)
	}
	defer f.Close()

	db, store, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Info("loading catalog data", "kind", kind, "file", path)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.printProgress(progressCh, done)

	result, err := fn(newEngine(store), ctx, f, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return fmt.Errorf("failed to load %s: %w", kind, err)
	}

	r.writePlain("\n")
	r.writePlainHeader(fmt.Sprintf("Loaded %s", kind))
	r.writePlain("Records:  %d\n", result.Total)
	r.writePlain("Inserted: %d\n", result.Inserted)
	r.writePlain("Skipped:  %d\n", result.Skipped)
	return nil
}
