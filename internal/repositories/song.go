package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/desertthunder/cadence/internal/models"
)

const songColumns = "id, title, artist, album, genre, duration, file_path, album_cover, created_at"

// SongRepository persists the [models.Song] catalog.
type SongRepository struct {
	db  DBTX
	now Clock
}

// NewSongRepository creates a new [SongRepository] with the given connection and clock.
func NewSongRepository(db DBTX, now Clock) *SongRepository {
	return &SongRepository{db: db, now: orUTCNow(now)}
}

// Create validates and inserts a song, returning it with ID and CreatedAt set.
func (r *SongRepository) Create(ctx context.Context, song models.Song) (*models.Song, error) {
	if err := song.Validate(); err != nil {
		return nil, err
	}

	song.CreatedAt = r.now()
	query := `
		INSERT INTO songs (title, artist, album, genre, duration, file_path, album_cover, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		song.Title,
		song.Artist,
		nullString(song.Album),
		nullString(song.Genre),
		nullInt(song.Duration),
		song.FilePath,
		nullString(song.AlbumCover),
		song.CreatedAt,
	)
	if err != nil {
		return nil, classify("insert song", err)
	}

	if song.ID, err = result.LastInsertId(); err != nil {
		return nil, classify("read song id", err)
	}
	return &song, nil
}

// Get retrieves a song by ID. It returns nil without error when no song matches.
func (r *SongRepository) Get(ctx context.Context, id int64) (*models.Song, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+songColumns+" FROM songs WHERE id = ?", id)
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return song, err
}

// List returns the full catalog in insertion order.
func (r *SongRepository) List(ctx context.Context) ([]*models.Song, error) {
	return r.query(ctx, "query songs", "SELECT "+songColumns+" FROM songs ORDER BY id ASC")
}

// Search matches query case-insensitively as a substring of title, artist or album.
//
// An empty query matches nothing. LIKE wildcards in query are matched literally.
func (r *SongRepository) Search(ctx context.Context, query string) ([]*models.Song, error) {
	if query == "" {
		return []*models.Song{}, nil
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	stmt := "SELECT " + songColumns + ` FROM songs
		WHERE LOWER(title) LIKE ? ESCAPE '!'
		   OR LOWER(artist) LIKE ? ESCAPE '!'
		   OR LOWER(album) LIKE ? ESCAPE '!'
		ORDER BY id ASC`

	return r.query(ctx, "search songs", stmt, pattern, pattern, pattern)
}

// Delete removes a song. Memberships, history and ratings referencing it cascade.
func (r *SongRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM songs WHERE id = ?", id)
	if err != nil {
		return classify("delete song", err)
	}
	return affected("delete song", result, "song", id)
}

// Count returns the catalog size.
func (r *SongRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM songs").Scan(&n); err != nil {
		return 0, classify("count songs", err)
	}
	return n, nil
}

func (r *SongRepository) query(ctx context.Context, action, stmt string, args ...any) ([]*models.Song, error) {
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, classify(action, err)
	}
	defer rows.Close()
	return collectSongs(rows)
}

func collectSongs(rows *sql.Rows) ([]*models.Song, error) {
	songs := []*models.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("iterate songs", err)
	}
	return songs, nil
}

func scanSong(row rowScanner) (*models.Song, error) {
	var (
		song       models.Song
		album      sql.NullString
		genre      sql.NullString
		duration   sql.NullInt64
		albumCover sql.NullString
	)

	err := row.Scan(&song.ID, &song.Title, &song.Artist, &album, &genre, &duration, &song.FilePath, &albumCover, &song.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, classify("scan song", err)
	}

	song.Album = stringPtr(album)
	song.Genre = stringPtr(genre)
	song.Duration = intPtr(duration)
	song.AlbumCover = stringPtr(albumCover)
	song.CreatedAt = song.CreatedAt.UTC()
	return &song, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
