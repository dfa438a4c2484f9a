package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

// RatingRepository persists per-user [models.Rating] scores.
type RatingRepository struct {
	db  DBTX
	now Clock
}

// NewRatingRepository creates a new [RatingRepository] with the given connection and clock.
func NewRatingRepository(db DBTX, now Clock) *RatingRepository {
	return &RatingRepository{db: db, now: orUTCNow(now)}
}

// Rate records value as userID's rating of songID, replacing any earlier rating.
//
// Out-of-range values fail with [shared.ErrValidation] before anything is written.
func (r *RatingRepository) Rate(ctx context.Context, userID, songID int64, value int) (*models.Rating, error) {
	if err := models.ValidateRating(value); err != nil {
		return nil, err
	}

	rating := &models.Rating{UserID: userID, SongID: songID, Rating: value, CreatedAt: r.now()}

	updated, err := r.update(ctx, rating)
	if err != nil || updated {
		return rating, err
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO ratings (user_id, song_id, rating, created_at) VALUES (?, ?, ?, ?)",
		rating.UserID, rating.SongID, rating.Rating, rating.CreatedAt,
	)
	if err == nil {
		return rating, nil
	}

	err = classify("insert rating", err)
	if errors.Is(err, shared.ErrConstraintViolation) {
		// A concurrent insert won; overwrite it.
		if updated, retryErr := r.update(ctx, rating); retryErr == nil && updated {
			return rating, nil
		}
	}
	return nil, err
}

func (r *RatingRepository) update(ctx context.Context, rating *models.Rating) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE ratings SET rating = ?, created_at = ? WHERE user_id = ? AND song_id = ?",
		rating.Rating, rating.CreatedAt, rating.UserID, rating.SongID,
	)
	if err != nil {
		return false, classify("update rating", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, classify("update rating", err)
	}
	return rows > 0, nil
}

// Get returns userID's rating of songID, or nil when there is none.
func (r *RatingRepository) Get(ctx context.Context, userID, songID int64) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, song_id, rating, created_at FROM ratings WHERE user_id = ? AND song_id = ?",
		userID, songID,
	).Scan(&rating.UserID, &rating.SongID, &rating.Rating, &rating.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("query rating", err)
	}
	rating.CreatedAt = rating.CreatedAt.UTC()
	return &rating, nil
}

// Average returns the mean rating of songID, or 0 when it has no ratings.
func (r *RatingRepository) Average(ctx context.Context, songID int64) (float64, error) {
	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, "SELECT AVG(rating) FROM ratings WHERE song_id = ?", songID).Scan(&avg); err != nil {
		return 0, classify("average rating", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// List returns every rating ordered by user then song.
func (r *RatingRepository) List(ctx context.Context) ([]*models.Rating, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT user_id, song_id, rating, created_at FROM ratings ORDER BY user_id ASC, song_id ASC")
	if err != nil {
		return nil, classify("query ratings", err)
	}
	defer rows.Close()

	ratings := []*models.Rating{}
	for rows.Next() {
		var rating models.Rating
		if err := rows.Scan(&rating.UserID, &rating.SongID, &rating.Rating, &rating.CreatedAt); err != nil {
			return nil, classify("scan rating", err)
		}
		rating.CreatedAt = rating.CreatedAt.UTC()
		ratings = append(ratings, &rating)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("iterate ratings", err)
	}
	return ratings, nil
}
