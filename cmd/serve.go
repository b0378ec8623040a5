package main

import (
	"context"

	"github.com/desertthunder/ytplaylists/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the API server until the context is cancelled (SIGINT or SIGTERM).
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		cfg.Port = int(port)
	}
	if cmd.Bool("metrics") {
		cfg.Metrics = true
	}

	st, err := r.openStore()
	if err != nil {
		return err
	}

	srv, err := server.New(server.Opts{
		Config:   cfg,
		Store:    st,
		Provider: r.openProvider(ctx),
		Logger:   r.logger,
		Registry: r.registry,
	})
	if err != nil {
		return err
	}

	r.logger.Info("starting server", "addr", cfg.Addr(), "storage", r.config.Database.Driver)
	if err := srv.Run(ctx); err != nil {
		return err
	}
	r.logger.Info("server stopped")
	return nil
}
