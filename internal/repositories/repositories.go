// package repositories provides persistence for the music catalog.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"github.com/desertthunder/cadence/internal/shared"
)

// DBTX is satisfied by both [*sql.DB] and [*sql.Tx], so repositories can run inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Clock returns the current time. Repositories always store its value in UTC.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

func orUTCNow(now Clock) Clock {
	if now == nil {
		return utcNow
	}
	return now
}

// Store groups the entity repositories over one connection or transaction.
type Store struct {
	db  *sql.DB
	now Clock

	Users         *UserRepository
	Songs         *SongRepository
	Playlists     *PlaylistRepository
	Ratings       *RatingRepository
	History       *HistoryRepository
	Subscriptions *SubscriptionRepository
}

// StoreOption customizes a [Store].
type StoreOption func(*Store)

// WithClock replaces the time source used for created_at, played_at and subscription checks.
func WithClock(now Clock) StoreOption {
	return func(s *Store) {
		s.now = func() time.Time { return now().UTC() }
	}
}

// NewStore creates a [Store] backed by db.
func NewStore(db *sql.DB, opts ...StoreOption) *Store {
	s := &Store{db: db, now: utcNow}
	for _, opt := range opts {
		opt(s)
	}
	s.bind(db)
	return s
}

func (s *Store) bind(conn DBTX) {
	s.Users = NewUserRepository(conn, s.now)
	s.Songs = NewSongRepository(conn, s.now)
	s.Playlists = NewPlaylistRepository(conn, s.now)
	s.Ratings = NewRatingRepository(conn, s.now)
	s.History = NewHistoryRepository(conn, s.now)
	s.Subscriptions = NewSubscriptionRepository(conn, s.now)
}

// Now returns the store's current UTC time.
func (s *Store) Now() time.Time {
	return s.now()
}

// WithTx runs fn against a copy of the store bound to a single transaction.
//
// The transaction commits when fn returns nil and rolls back otherwise. Calling WithTx on a
// store that is already transaction-bound runs fn in the existing transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer tx.Rollback()

	txStore := &Store{now: s.now}
	txStore.bind(tx)

	if err := fn(txStore); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// classify wraps a driver error with the matching shared sentinel.
func classify(action string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		if liteErr.ExtendedCode == sqlite3.ErrConstraintCheck {
			return fmt.Errorf("failed to %s: %w: %w", action, shared.ErrValidation, err)
		}
		return fmt.Errorf("failed to %s: %w: %w", action, shared.ErrConstraintViolation, err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062, 1451, 1452:
			return fmt.Errorf("failed to %s: %w: %w", action, shared.ErrConstraintViolation, err)
		case 3819:
			return fmt.Errorf("failed to %s: %w: %w", action, shared.ErrValidation, err)
		}
	}

	return fmt.Errorf("failed to %s: %w: %w", action, shared.ErrStorageUnavailable, err)
}

// affected returns ErrNotFound when a mutation touched no rows.
func affected(action string, result sql.Result, what string, id any) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return classify(action, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %v: %w", what, id, shared.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time.UTC()
	return &v
}
