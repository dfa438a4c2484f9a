package repositories

import (
	"context"

	"github.com/desertthunder/cadence/internal/models"
)

// DefaultHistoryLimit caps [HistoryRepository.Recent] when no positive limit is given.
const DefaultHistoryLimit = 20

// HistoryRepository persists the append-only play log.
type HistoryRepository struct {
	db  DBTX
	now Clock
}

// NewHistoryRepository creates a new [HistoryRepository] with the given connection and clock.
func NewHistoryRepository(db DBTX, now Clock) *HistoryRepository {
	return &HistoryRepository{db: db, now: orUTCNow(now)}
}

// Record appends one play of songID by userID.
func (r *HistoryRepository) Record(ctx context.Context, userID, songID int64) (*models.HistoryEntry, error) {
	entry := &models.HistoryEntry{UserID: userID, SongID: songID, PlayedAt: r.now()}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO history (user_id, song_id, played_at) VALUES (?, ?, ?)",
		entry.UserID, entry.SongID, entry.PlayedAt,
	)
	if err != nil {
		return nil, classify("insert history", err)
	}

	if entry.ID, err = result.LastInsertId(); err != nil {
		return nil, classify("read history id", err)
	}
	return entry, nil
}

// Recent returns at most limit of userID's plays, newest first.
func (r *HistoryRepository) Recent(ctx context.Context, userID int64, limit int) ([]*models.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	query := `
		SELECT id, user_id, song_id, played_at
		FROM history
		WHERE user_id = ?
		ORDER BY played_at DESC, id DESC
		LIMIT ?
	`
	return r.list(ctx, query, userID, limit)
}

// List returns the whole log in insertion order.
func (r *HistoryRepository) List(ctx context.Context) ([]*models.HistoryEntry, error) {
	return r.list(ctx, "SELECT id, user_id, song_id, played_at FROM history ORDER BY id ASC")
}

func (r *HistoryRepository) list(ctx context.Context, query string, args ...any) ([]*models.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("query history", err)
	}
	defer rows.Close()

	entries := []*models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.SongID, &e.PlayedAt); err != nil {
			return nil, classify("scan history", err)
		}
		e.PlayedAt = e.PlayedAt.UTC()
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("iterate history", err)
	}
	return entries, nil
}
