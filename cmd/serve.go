package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/foodgram/internal/metrics"
	"github.com/desertthunder/foodgram/internal/server"
	"github.com/desertthunder/foodgram/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the API until SIGINT or SIGTERM, then shuts down gracefully.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}

	db, store, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	media := shared.NewMediaStore(cfg.MediaDir, cfg.MediaURL)
	if err := os.MkdirAll(media.Root(), 0755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}

	api := server.NewAPI(server.Options{
		Store:    store,
		Media:    media,
		Logger:   r.logger,
		Registry: metrics.NewRegistry(),
		Server:   cfg,
		Auth:     r.config.Auth,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(cfg.Addr(), api, r.logger, cfg.ShutdownTimeout.Duration)
	r.logger.Info("serving", "addr", srv.Addr(), "database", r.config.Database.Path, "media", media.Root())
	return srv.Run(ctx)
}
