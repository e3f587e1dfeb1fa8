package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/foodgram/internal/formatter"
	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/repositories"
	"github.com/desertthunder/foodgram/internal/shared"
	"github.com/desertthunder/foodgram/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CartExport writes a shopping list for one user, or for every cart owner when --all is given.
func (r *Runner) CartExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	email := cmd.String("email")
	all := cmd.Bool("all")
	switch {
	case email == "" && !all:
		return fmt.Errorf("%w: either --email or --all must be provided", shared.ErrMissingArgument)
	case email != "" && all:
		return fmt.Errorf("%w: cannot specify both --email and --all", shared.ErrInvalidArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	db, store, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if all {
		return r.exportAllCarts(ctx, cmd, store, format)
	}

	user, err := store.Users.GetByEmail(email)
	if err != nil {
		return err
	}

	items, err := store.Carts.ShoppingList(user.ID())
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		return formatter.Write(r.output, format, items)
	}

	path, err := formatter.WriteExport(format, items, output)
	if err != nil {
		return err
	}

	r.logger.Info("exported shopping list", "user", user.Username(), "items", len(items), "path", path)
	r.writePlain("✓ Exported %d items for %s to %s\n", len(items), user.Username(), path)
	return nil
}

func (r *Runner) exportAllCarts(ctx context.Context, cmd *cli.Command, store *repositories.Store, format formatter.Format) error {
	ids, err := store.Carts.Owners()
	if err != nil {
		return err
	}

	byID, err := store.Users.GetMany(ids)
	if err != nil {
		return err
	}
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			users = append(users, u)
		}
	}

	if len(users) == 0 {
		r.writePlain("No shopping carts to export\n")
		return nil
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.printProgress(progressCh, done)

	result, err := newEngine(store).ExportCarts(ctx, progressCh, users, tasks.CartExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: int(cmd.Int("workers")),
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Cart Export Complete")
	r.writePlain("Directory:  %s\n", result.OutputDirectory)
	r.writePlain("Successful: %d\n", result.Successful)
	r.writePlain("Failed:     %d\n", result.Failed)
	r.writePlain("Manifest:   %s\n", result.ManifestPath)

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d cart exports failed", result.Failed, len(users))
	}
	return nil
}
