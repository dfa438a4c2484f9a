package formatter

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/cadence/internal/models"
)

// SongResponse is the wire shape of a song. Genre and timestamps are left out.
type SongResponse struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Album      *string `json:"album"`
	Duration   *int    `json:"duration"`
	FilePath   string  `json:"file_path"`
	AlbumCover *string `json:"album_cover"`
}

// SongDetailResponse extends [SongResponse] with genre and the average rating.
type SongDetailResponse struct {
	SongResponse
	Genre         *string `json:"genre"`
	AverageRating float64 `json:"average_rating"`
}

// PlaylistResponse is a playlist with its songs in membership order.
type PlaylistResponse struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	UserID    int64          `json:"user_id"`
	CreatedAt string         `json:"created_at"`
	Songs     []SongResponse `json:"songs"`
}

// HistoryEntryResponse is a play event with its song resolved.
type HistoryEntryResponse struct {
	ID       int64         `json:"id"`
	UserID   int64         `json:"user_id"`
	Song     *SongResponse `json:"song"`
	PlayedAt string        `json:"played_at"`
}

// SubscriptionResponse reports a subscription together with its state at a point in time.
type SubscriptionResponse struct {
	UserID    int64   `json:"user_id"`
	Level     string  `json:"level"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Active    bool    `json:"active"`
}

// UserResponse is the public shape of a user; the password hash never leaves the server.
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// PlaylistSongLister resolves the songs of a playlist.
type PlaylistSongLister interface {
	Songs(ctx context.Context, playlistID int64) ([]*models.Song, error)
}

// SongFinder resolves a song by id, returning nil when it does not exist.
type SongFinder interface {
	Get(ctx context.Context, id int64) (*models.Song, error)
}

// RatingAverager computes a song's mean rating.
type RatingAverager interface {
	Average(ctx context.Context, songID int64) (float64, error)
}

// Timestamp renders t as an ISO-8601 string in UTC.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// SongToResponse projects a song onto its wire shape.
func SongToResponse(song *models.Song) SongResponse {
	return SongResponse{
		ID:         song.ID,
		Title:      song.Title,
		Artist:     song.Artist,
		Album:      song.Album,
		Duration:   song.Duration,
		FilePath:   song.FilePath,
		AlbumCover: song.AlbumCover,
	}
}

// SongsToResponse maps a song list, never returning nil.
func SongsToResponse(songs []*models.Song) []SongResponse {
	out := make([]SongResponse, 0, len(songs))
	for _, song := range songs {
		out = append(out, SongToResponse(song))
	}
	return out
}

// PlaylistToResponse builds a playlist aggregate. An empty playlist yields an empty songs list.
func PlaylistToResponse(ctx context.Context, lister PlaylistSongLister, playlist *models.Playlist) (*PlaylistResponse, error) {
	songs, err := lister.Songs(ctx, playlist.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load songs for playlist %d: %w", playlist.ID, err)
	}

	return &PlaylistResponse{
		ID:        playlist.ID,
		Name:      playlist.Name,
		UserID:    playlist.UserID,
		CreatedAt: Timestamp(playlist.CreatedAt),
		Songs:     SongsToResponse(songs),
	}, nil
}

// HistoryEntryToResponse builds a history aggregate. Song is nil if the song no longer exists.
func HistoryEntryToResponse(ctx context.Context, finder SongFinder, entry *models.HistoryEntry) (*HistoryEntryResponse, error) {
	song, err := finder.Get(ctx, entry.SongID)
	if err != nil {
		return nil, fmt.Errorf("failed to load song %d: %w", entry.SongID, err)
	}

	resp := &HistoryEntryResponse{
		ID:       entry.ID,
		UserID:   entry.UserID,
		PlayedAt: Timestamp(entry.PlayedAt),
	}
	if song != nil {
		s := SongToResponse(song)
		resp.Song = &s
	}
	return resp, nil
}

// SongDetail builds the song detail aggregate with its average rating.
func SongDetail(ctx context.Context, averager RatingAverager, song *models.Song) (*SongDetailResponse, error) {
	avg, err := averager.Average(ctx, song.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to average ratings for song %d: %w", song.ID, err)
	}
	return &SongDetailResponse{SongResponse: SongToResponse(song), Genre: song.Genre, AverageRating: avg}, nil
}

// SubscriptionToResponse builds the subscription aggregate evaluated at now.
func SubscriptionToResponse(sub *models.Subscription, now time.Time) SubscriptionResponse {
	resp := SubscriptionResponse{
		UserID:    sub.UserID,
		Level:     sub.Level,
		StartDate: Timestamp(sub.StartDate),
		Active:    sub.IsActive(now),
	}
	if sub.EndDate != nil {
		end := Timestamp(*sub.EndDate)
		resp.EndDate = &end
	}
	return resp
}

// UserToResponse projects a user onto its public shape.
func UserToResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: Timestamp(user.CreatedAt),
	}
}
