package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cadence/internal/server"
	"github.com/desertthunder/cadence/internal/services"
)

// Serve migrates and seeds the database, then runs the API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if port := cmd.Int("port"); port > 0 {
		r.config.Server.Port = port
	}
	if err := r.config.ValidateServer(); err != nil {
		return err
	}
	if r.config.Server.SessionSecret == "change-me" {
		r.logger.Warn("server.session_secret is the example value; set CADENCE_SESSION_SECRET")
	}

	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := r.seed(ctx, store); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	tokens, err := services.NewTokenIssuer(r.config.Server.SessionSecret, r.config.Server.TokenTTL.Duration)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Config: r.config.Server,
		Store:  store,
		Auth:   services.NewAuthService(store, r.logger),
		Tokens: tokens,
		Logger: r.logger,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
