// package models defines the plain data records of the music catalog
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/cadence/internal/shared"
)

// Subscription levels.
const (
	LevelFree    = "free"
	LevelPremium = "premium"
)

// MaxSubscriptionDays caps the length of a fixed-term subscription.
const MaxSubscriptionDays = 36500

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// User is an account that owns playlists, history, ratings and a subscription.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Song is a catalog item. FilePath and AlbumCover are opaque location strings.
type Song struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Album      *string   `json:"album"`
	Genre      *string   `json:"genre"`
	Duration   *int      `json:"duration"`
	FilePath   string    `json:"file_path"`
	AlbumCover *string   `json:"album_cover"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks the required catalog fields.
func (s Song) Validate() error {
	var missing []string
	if strings.TrimSpace(s.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(s.Artist) == "" {
		missing = append(missing, "artist")
	}
	if strings.TrimSpace(s.FilePath) == "" {
		missing = append(missing, "file_path")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: song requires %s", shared.ErrValidation, strings.Join(missing, ", "))
	}
	if s.Duration != nil && *s.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", shared.ErrValidation)
	}
	return nil
}

// Playlist is a user-owned collection of songs, linked through [PlaylistSong].
type Playlist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PlaylistSong is a membership row joining a playlist and a song.
type PlaylistSong struct {
	PlaylistID int64     `json:"playlist_id"`
	SongID     int64     `json:"song_id"`
	AddedAt    time.Time `json:"added_at"`
}

// Rating is a user's score for a song. There is at most one per (user, song).
type Rating struct {
	UserID    int64     `json:"user_id"`
	SongID    int64     `json:"song_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateRating rejects values outside [MinRating, MaxRating].
func ValidateRating(v int) error {
	if v < MinRating || v > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d, got %d", shared.ErrValidation, MinRating, MaxRating, v)
	}
	return nil
}

// HistoryEntry records one play of a song by a user.
type HistoryEntry struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user_id"`
	SongID   int64     `json:"song_id"`
	PlayedAt time.Time `json:"played_at"`
}

// Subscription is the 1:1 plan record of a user.
type Subscription struct {
	UserID    int64      `json:"user_id"`
	Level     string     `json:"level"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// IsActive reports whether the subscription has no end date or ends after now.
func (s Subscription) IsActive(now time.Time) bool {
	if s.EndDate == nil {
		return true
	}
	return s.EndDate.After(now.UTC())
}

// ValidateLevel rejects unknown subscription levels.
func ValidateLevel(level string) error {
	switch level {
	case LevelFree, LevelPremium:
		return nil
	default:
		return fmt.Errorf("%w: unknown subscription level %q", shared.ErrValidation, level)
	}
}

// ValidateSubscriptionDays accepts 0 (open-ended) through [MaxSubscriptionDays].
func ValidateSubscriptionDays(days int) error {
	if days < 0 || days > MaxSubscriptionDays {
		return fmt.Errorf("%w: days must be between 0 and %d, got %d", shared.ErrValidation, MaxSubscriptionDays, days)
	}
	return nil
}

// ValidateEndDate rejects end dates that storage cannot represent.
func ValidateEndDate(end time.Time) error {
	if y := end.UTC().Year(); y < 1 || y > 9999 {
		return fmt.Errorf("%w: end date year %d is out of range", shared.ErrValidation, y)
	}
	return nil
}
