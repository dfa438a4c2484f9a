package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

const playlistColumns = "id, name, user_id, created_at"

// PlaylistRepository persists [models.Playlist] rows and their song memberships.
type PlaylistRepository struct {
	db  DBTX
	now Clock
}

// NewPlaylistRepository creates a new [PlaylistRepository] with the given connection and clock.
func NewPlaylistRepository(db DBTX, now Clock) *PlaylistRepository {
	return &PlaylistRepository{db: db, now: orUTCNow(now)}
}

// Create inserts a playlist owned by userID.
func (r *PlaylistRepository) Create(ctx context.Context, userID int64, name string) (*models.Playlist, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: playlist name is required", shared.ErrValidation)
	}

	playlist := &models.Playlist{Name: name, UserID: userID, CreatedAt: r.now()}
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO playlists (name, user_id, created_at) VALUES (?, ?, ?)",
		playlist.Name, playlist.UserID, playlist.CreatedAt,
	)
	if err != nil {
		return nil, classify("insert playlist", err)
	}

	if playlist.ID, err = result.LastInsertId(); err != nil {
		return nil, classify("read playlist id", err)
	}
	return playlist, nil
}

// Get retrieves a playlist by ID. It returns nil without error when no playlist matches.
func (r *PlaylistRepository) Get(ctx context.Context, id int64) (*models.Playlist, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+playlistColumns+" FROM playlists WHERE id = ?", id)
	playlist, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return playlist, err
}

// ListByUser returns the playlists owned by userID in creation order.
func (r *PlaylistRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Playlist, error) {
	return r.list(ctx, "SELECT "+playlistColumns+" FROM playlists WHERE user_id = ? ORDER BY id ASC", userID)
}

// List returns every playlist in creation order.
func (r *PlaylistRepository) List(ctx context.Context) ([]*models.Playlist, error) {
	return r.list(ctx, "SELECT "+playlistColumns+" FROM playlists ORDER BY id ASC")
}

// Delete removes a playlist and, by cascade, its memberships. Songs are untouched.
func (r *PlaylistRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return classify("delete playlist", err)
	}
	return affected("delete playlist", result, "playlist", id)
}

// HasSong reports whether songID is a member of playlistID.
func (r *PlaylistRepository) HasSong(ctx context.Context, playlistID, songID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM playlist_songs WHERE playlist_id = ? AND song_id = ?)",
		playlistID, songID,
	).Scan(&exists)
	if err != nil {
		return false, classify("check membership", err)
	}
	return exists, nil
}

// AddSong links songID to playlistID. It returns false when the pair already exists.
//
// The composite primary key is the guard against concurrent duplicates; the pre-check only
// skips a doomed insert. Unknown playlist or song IDs fail with [shared.ErrConstraintViolation].
func (r *PlaylistRepository) AddSong(ctx context.Context, playlistID, songID int64) (bool, error) {
	exists, err := r.HasSong(ctx, playlistID, songID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO playlist_songs (playlist_id, song_id, added_at) VALUES (?, ?, ?)",
		playlistID, songID, r.now(),
	)
	if err == nil {
		return true, nil
	}

	err = classify("add song to playlist", err)
	if errors.Is(err, shared.ErrConstraintViolation) {
		// Lost a race with another insert of the same pair.
		if exists, checkErr := r.HasSong(ctx, playlistID, songID); checkErr == nil && exists {
			return false, nil
		}
	}
	return false, err
}

// RemoveSong unlinks songID from playlistID. It returns false when there was no such membership.
func (r *PlaylistRepository) RemoveSong(ctx context.Context, playlistID, songID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?",
		playlistID, songID,
	)
	if err != nil {
		return false, classify("remove song from playlist", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, classify("remove song from playlist", err)
	}
	return rows > 0, nil
}

// Songs returns the songs linked to playlistID in the order they were added.
func (r *PlaylistRepository) Songs(ctx context.Context, playlistID int64) ([]*models.Song, error) {
	query := `
		SELECT s.id, s.title, s.artist, s.album, s.genre, s.duration, s.file_path, s.album_cover, s.created_at
		FROM playlist_songs ps
		JOIN songs s ON s.id = ps.song_id
		WHERE ps.playlist_id = ?
		ORDER BY ps.added_at ASC, ps.song_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, playlistID)
	if err != nil {
		return nil, classify("query playlist songs", err)
	}
	defer rows.Close()
	return collectSongs(rows)
}

// Memberships returns every (playlist, song) row ordered by playlist then insertion.
func (r *PlaylistRepository) Memberships(ctx context.Context) ([]*models.PlaylistSong, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT playlist_id, song_id, added_at FROM playlist_songs ORDER BY playlist_id ASC, added_at ASC, song_id ASC",
	)
	if err != nil {
		return nil, classify("query memberships", err)
	}
	defer rows.Close()

	memberships := []*models.PlaylistSong{}
	for rows.Next() {
		var m models.PlaylistSong
		if err := rows.Scan(&m.PlaylistID, &m.SongID, &m.AddedAt); err != nil {
			return nil, classify("scan membership", err)
		}
		m.AddedAt = m.AddedAt.UTC()
		memberships = append(memberships, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("iterate memberships", err)
	}
	return memberships, nil
}

func (r *PlaylistRepository) list(ctx context.Context, query string, args ...any) ([]*models.Playlist, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("query playlists", err)
	}
	defer rows.Close()

	playlists := []*models.Playlist{}
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("iterate playlists", err)
	}
	return playlists, nil
}

func scanPlaylist(row rowScanner) (*models.Playlist, error) {
	var p models.Playlist
	err := row.Scan(&p.ID, &p.Name, &p.UserID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, classify("scan playlist", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}
