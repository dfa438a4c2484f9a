package tasks

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cadence/internal/repositories"
)

const sqlTimeLayout = "2006-01-02 15:04:05"

// DumpStats counts the rows written per table by [DumpSQL].
type DumpStats map[string]int

// DumpSQL writes INSERT statements for every table in foreign key order.
//
// The output can be replayed into an empty, migrated database of either dialect.
func DumpSQL(ctx context.Context, store *repositories.Store, w io.Writer) (DumpStats, error) {
	bw := bufio.NewWriter(w)
	stats := DumpStats{}

	fmt.Fprintf(bw, "-- cadence data export\n-- generated %s UTC\n", store.Now().Format(sqlTimeLayout))

	err := store.WithTx(ctx, func(tx *repositories.Store) error {
		users, err := tx.Users.List(ctx)
		if err != nil {
			return err
		}
		section(bw, "users")
		for _, u := range users {
			insert(bw, "users", []string{"id", "username", "email", "password_hash", "created_at"},
				u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt)
		}
		stats["users"] = len(users)

		songs, err := tx.Songs.List(ctx)
		if err != nil {
			return err
		}
		section(bw, "songs")
		for _, s := range songs {
			insert(bw, "songs", []string{"id", "title", "artist", "album", "genre", "duration", "file_path", "album_cover", "created_at"},
				s.ID, s.Title, s.Artist, s.Album, s.Genre, s.Duration, s.FilePath, s.AlbumCover, s.CreatedAt)
		}
		stats["songs"] = len(songs)

		playlists, err := tx.Playlists.List(ctx)
		if err != nil {
			return err
		}
		section(bw, "playlists")
		for _, p := range playlists {
			insert(bw, "playlists", []string{"id", "name", "user_id", "created_at"}, p.ID, p.Name, p.UserID, p.CreatedAt)
		}
		stats["playlists"] = len(playlists)

		memberships, err := tx.Playlists.Memberships(ctx)
		if err != nil {
			return err
		}
		section(bw, "playlist_songs")
		for _, m := range memberships {
			insert(bw, "playlist_songs", []string{"playlist_id", "song_id", "added_at"}, m.PlaylistID, m.SongID, m.AddedAt)
		}
		stats["playlist_songs"] = len(memberships)

		ratings, err := tx.Ratings.List(ctx)
		if err != nil {
			return err
		}
		section(bw, "ratings")
		for _, r := range ratings {
			insert(bw, "ratings", []string{"user_id", "song_id", "rating", "created_at"}, r.UserID, r.SongID, r.Rating, r.CreatedAt)
		}
		stats["ratings"] = len(ratings)

		history, err := tx.History.List(ctx)
		if err != nil {
			return err
		}
		section(bw, "history")
		for _, h := range history {
			insert(bw, "history", []string{"id", "user_id", "song_id", "played_at"}, h.ID, h.UserID, h.SongID, h.PlayedAt)
		}
		stats["history"] = len(history)

		subs, err := tx.Subscriptions.List(ctx)
		if err != nil {
			return err
		}
		section(bw, "subscriptions")
		for _, s := range subs {
			insert(bw, "subscriptions", []string{"user_id", "level", "start_date", "end_date"}, s.UserID, s.Level, s.StartDate, s.EndDate)
		}
		stats["subscriptions"] = len(subs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read tables for export: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	return stats, nil
}

func section(w *bufio.Writer, table string) {
	fmt.Fprintf(w, "\n-- %s\n", table)
}

func insert(w *bufio.Writer, table string, columns []string, values ...any) {
	rendered := make([]string, len(values))
	for i, v := range values {
		rendered[i] = sqlLiteral(v)
	}
	fmt.Fprintf(w, "INSERT INTO %s (%s) VALUES (%s);\n", table, strings.Join(columns, ", "), strings.Join(rendered, ", "))
}

// sqlLiteral renders a Go value as a SQL literal. Nil pointers become NULL.
func sqlLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quote(val)
	case *string:
		if val == nil {
			return "NULL"
		}
		return quote(*val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case *int:
		if val == nil {
			return "NULL"
		}
		return strconv.Itoa(*val)
	case time.Time:
		return quote(val.UTC().Format(sqlTimeLayout))
	case *time.Time:
		if val == nil {
			return "NULL"
		}
		return quote(val.UTC().Format(sqlTimeLayout))
	default:
		return quote(fmt.Sprint(val))
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
