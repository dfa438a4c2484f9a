package tasks

import (
	"context"
	_ "embed"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/repositories"
	"github.com/desertthunder/cadence/internal/shared"
)

//go:embed seed.toml
var seedData []byte

// SeedCatalog is the sample data inserted into an empty store.
type SeedCatalog struct {
	Demo  SeedDemo   `toml:"demo"`
	Songs []SeedSong `toml:"songs"`
}

// SeedDemo describes the demo account and its starter playlist.
type SeedDemo struct {
	Username     string `toml:"username"`
	Email        string `toml:"email"`
	Password     string `toml:"password"`
	Playlist     string `toml:"playlist"`
	PlaylistSize int    `toml:"playlist_size"`
}

// SeedSong is one catalog entry in seed.toml.
type SeedSong struct {
	Title      string `toml:"title"`
	Artist     string `toml:"artist"`
	Album      string `toml:"album"`
	Genre      string `toml:"genre"`
	Duration   int    `toml:"duration"`
	FilePath   string `toml:"file_path"`
	AlbumCover string `toml:"album_cover"`
}

func (s SeedSong) model() models.Song {
	song := models.Song{Title: s.Title, Artist: s.Artist, FilePath: s.FilePath}
	if s.Album != "" {
		song.Album = &s.Album
	}
	if s.Genre != "" {
		song.Genre = &s.Genre
	}
	if s.Duration > 0 {
		song.Duration = &s.Duration
	}
	if s.AlbumCover != "" {
		song.AlbumCover = &s.AlbumCover
	}
	return song
}

// DefaultSeedCatalog parses the embedded seed.toml.
func DefaultSeedCatalog() (*SeedCatalog, error) {
	var catalog SeedCatalog
	if err := toml.Unmarshal(seedData, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse seed catalog: %w", err)
	}
	return &catalog, nil
}

// SeedResult reports what a [Seeder] run inserted.
type SeedResult struct {
	Skipped     bool
	Songs       int
	UserCreated bool
	PlaylistID  int64
}

// Seeder populates an empty store with the sample catalog.
type Seeder struct {
	store   *repositories.Store
	catalog *SeedCatalog
	logger  *log.Logger
}

// NewSeeder creates a [Seeder]. A nil catalog uses [DefaultSeedCatalog]; a nil logger discards output.
func NewSeeder(store *repositories.Store, catalog *SeedCatalog, logger *log.Logger) (*Seeder, error) {
	if catalog == nil {
		var err error
		if catalog, err = DefaultSeedCatalog(); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Seeder{store: store, catalog: catalog, logger: logger}, nil
}

// Seed inserts the catalog when no songs exist, and the demo user when no users exist.
//
// Everything is written in one transaction; a failure leaves the store untouched.
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	songCount, err := s.store.Songs.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check catalog: %w", err)
	}
	if songCount > 0 {
		s.logger.Debug("catalog already populated, skipping seed", "songs", songCount)
		return &SeedResult{Skipped: true}, nil
	}

	demo := s.catalog.Demo
	hash, err := shared.HashPassword(demo.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash demo password: %w", err)
	}

	result := &SeedResult{}
	err = s.store.WithTx(ctx, func(tx *repositories.Store) error {
		var songs []*models.Song
		for _, entry := range s.catalog.Songs {
			song, err := tx.Songs.Create(ctx, entry.model())
			if err != nil {
				return fmt.Errorf("failed to seed song %q: %w", entry.Title, err)
			}
			songs = append(songs, song)
		}
		result.Songs = len(songs)

		userCount, err := tx.Users.Count(ctx)
		if err != nil {
			return err
		}
		if userCount > 0 {
			return nil
		}

		user, err := tx.Users.CreateWithHash(ctx, demo.Username, demo.Email, hash)
		if err != nil {
			return fmt.Errorf("failed to seed demo user: %w", err)
		}
		result.UserCreated = true

		playlist, err := tx.Playlists.Create(ctx, user.ID, demo.Playlist)
		if err != nil {
			return fmt.Errorf("failed to seed demo playlist: %w", err)
		}
		result.PlaylistID = playlist.ID

		for i, song := range songs {
			if i >= demo.PlaylistSize {
				break
			}
			if _, err := tx.Playlists.AddSong(ctx, playlist.ID, song.ID); err != nil {
				return fmt.Errorf("failed to seed playlist song: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("seeded sample data", "songs", result.Songs, "demo_user", result.UserCreated)
	return result, nil
}
