package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cadence/internal/tasks"
)

// ExportSQL dumps every table as INSERT statements to stdout or --output.
func (r *Runner) ExportSQL(ctx context.Context, cmd *cli.Command) error {
	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	var w io.Writer = r.output
	output := cmd.String("output")
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	stats, err := tasks.DumpSQL(ctx, store, w)
	if err != nil {
		return err
	}

	r.logger.Info("sql export complete",
		"users", stats["users"], "songs", stats["songs"], "playlists", stats["playlists"],
		"memberships", stats["playlist_songs"], "ratings", stats["ratings"],
		"history", stats["history"], "subscriptions", stats["subscriptions"],
	)
	if output != "" {
		return r.writePlainln("%s wrote %s", r.styles.OK("✓"), output)
	}
	return nil
}
