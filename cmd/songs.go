package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cadence/internal/formatter"
	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

// SongsList prints the whole catalog.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	songs, err := store.Songs.List(ctx)
	if err != nil {
		return err
	}
	return r.writeSongs(songs, cmd.Bool("json"))
}

// SongsSearch prints songs matching the query argument.
func (r *Runner) SongsSearch(ctx context.Context, cmd *cli.Command) error {
	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	songs, err := store.Songs.Search(ctx, cmd.StringArg("query"))
	if err != nil {
		return err
	}
	return r.writeSongs(songs, cmd.Bool("json"))
}

// SongsShow prints one song with its genre and average rating.
func (r *Runner) SongsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, "id")
	if err != nil {
		return err
	}

	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	song, err := store.Songs.Get(ctx, id)
	if err != nil {
		return err
	}
	if song == nil {
		return fmt.Errorf("song %d: %w", id, shared.ErrNotFound)
	}

	detail, err := formatter.SongDetail(ctx, store.Ratings, song)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(detail, true)
	}

	if err := r.writePlainHeader(song.Title); err != nil {
		return err
	}
	return r.writePlainln("%s", r.styles.KeyValue([][2]string{
		{"ID", strconv.FormatInt(song.ID, 10)},
		{"Artist", song.Artist},
		{"Album", orDash(song.Album)},
		{"Genre", orDash(song.Genre)},
		{"Duration", shared.FormatDuration(song.Duration)},
		{"File", song.FilePath},
		{"Rating", fmt.Sprintf("%.2f", detail.AverageRating)},
	}))
}

func (r *Runner) writeSongs(songs []*models.Song, asJSON bool) error {
	if asJSON {
		return r.writeJSON(formatter.SongsToResponse(songs), true)
	}
	if len(songs) == 0 {
		return r.writePlainln("%s", r.styles.Help("no songs found"))
	}

	rows := make([][]string, 0, len(songs))
	for _, s := range songs {
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10), s.Title, s.Artist, orDash(s.Album), shared.FormatDuration(s.Duration),
		})
	}
	return r.writeTable([]string{"ID", "Title", "Artist", "Album", "Duration"}, rows)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
