package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cadence/internal/formatter"
	"github.com/desertthunder/cadence/internal/shared"
	"github.com/desertthunder/cadence/internal/tasks"
)

// PlaylistsList prints a user's playlists with their song counts.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	userID, err := argID(cmd, "user-id")
	if err != nil {
		return err
	}

	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	playlists, err := store.Playlists.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	aggregates := make([]*formatter.PlaylistResponse, 0, len(playlists))
	for _, p := range playlists {
		agg, err := formatter.PlaylistToResponse(ctx, store.Playlists, p)
		if err != nil {
			return err
		}
		aggregates = append(aggregates, agg)
	}

	if cmd.Bool("json") {
		return r.writeJSON(aggregates, true)
	}
	if len(aggregates) == 0 {
		return r.writePlainln("%s", r.styles.Help("no playlists"))
	}

	rows := make([][]string, 0, len(aggregates))
	for _, p := range aggregates {
		rows = append(rows, []string{strconv.FormatInt(p.ID, 10), p.Name, strconv.Itoa(len(p.Songs)), p.CreatedAt})
	}
	return r.writeTable([]string{"ID", "Name", "Songs", "Created"}, rows)
}

// PlaylistsShow renders one playlist in the chosen format to stdout or --output.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, "id")
	if err != nil {
		return err
	}
	format := cmd.String("format")

	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	playlist, err := store.Playlists.Get(ctx, id)
	if err != nil {
		return err
	}
	if playlist == nil {
		return fmt.Errorf("playlist %d: %w", id, shared.ErrNotFound)
	}

	agg, err := formatter.PlaylistToResponse(ctx, store.Playlists, playlist)
	if err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" {
		if err := formatter.WriteExport(agg, format, output); err != nil {
			return err
		}
		r.logger.Info("playlist exported", "id", id, "path", output)
		return r.writePlainln("%s wrote %s", r.styles.OK("✓"), output)
	}

	data, err := formatter.Render(agg, format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// PlaylistsExport writes every playlist of a user to a directory with a manifest.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	userID, err := argID(cmd, "user-id")
	if err != nil {
		return err
	}

	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	playlists, err := store.Playlists.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		return r.writePlainln("%s", r.styles.Warn("user has no playlists to export"))
	}

	ids := make([]int64, 0, len(playlists))
	for _, p := range playlists {
		ids = append(ids, p.ID)
	}

	progress := make(chan tasks.ExportProgress, len(ids))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Err != nil {
				r.logger.Warn("playlist export failed", "playlist", update.PlaylistName, "error", update.Err)
				continue
			}
			r.logger.Info("exported playlist", "playlist", update.PlaylistName, "done", update.Completed, "total", update.Total)
		}
	}()

	result, err := tasks.BulkExport(ctx, store, ids, tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Progress:   progress,
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if err := r.writePlainHeader("Export complete"); err != nil {
		return err
	}
	return r.writePlainln("%s", r.styles.KeyValue([][2]string{
		{"Directory", result.OutputDirectory},
		{"Exported", fmt.Sprintf("%d/%d", result.SuccessfulExports, result.TotalPlaylists)},
		{"Failed", strconv.Itoa(result.FailedExports)},
		{"Manifest", result.ManifestPath},
	}))
}
