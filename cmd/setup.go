package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cadence/internal/shared"
)

// SetupDatabase creates the config file if needed, migrates the database and seeds sample data.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if !r.configLoaded {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			r.logger.Info("config file not found, creating from template", "path", configPath)
			if err := shared.CreateConfigFile(configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			}
		}
	}

	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := r.seed(ctx, store); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	r.logger.Info("setup complete", "driver", r.config.Database.Driver, "source", r.config.Database.Path)
	return r.writePlainln("%s database ready", r.styles.OK("✓"))
}

// SetupRollback reverts the latest applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	db, err := shared.OpenFromConfig(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := shared.RollbackMigration(db, r.config.Database.Driver)
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return r.writePlainln("%s rolled back migration %04d", r.styles.OK("✓"), version)
}
