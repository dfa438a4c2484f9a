package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

const subscriptionColumns = "user_id, level, start_date, end_date"

// SubscriptionRepository persists the one [models.Subscription] each user may have.
type SubscriptionRepository struct {
	db  DBTX
	now Clock
}

// NewSubscriptionRepository creates a new [SubscriptionRepository] with the given connection and clock.
func NewSubscriptionRepository(db DBTX, now Clock) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, now: orUTCNow(now)}
}

// Get returns userID's subscription, or nil when there is none.
func (r *SubscriptionRepository) Get(ctx context.Context, userID int64) (*models.Subscription, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+subscriptionColumns+" FROM subscriptions WHERE user_id = ?", userID)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return sub, err
}

// Set creates or replaces userID's subscription, restarting it now.
func (r *SubscriptionRepository) Set(ctx context.Context, userID int64, level string, endDate *time.Time) (*models.Subscription, error) {
	if err := models.ValidateLevel(level); err != nil {
		return nil, err
	}

	sub := &models.Subscription{UserID: userID, Level: level, StartDate: r.now()}
	if endDate != nil {
		if err := models.ValidateEndDate(*endDate); err != nil {
			return nil, err
		}
		end := endDate.UTC()
		sub.EndDate = &end
	}

	updated, err := r.update(ctx, sub)
	if err != nil || updated {
		return sub, err
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO subscriptions (user_id, level, start_date, end_date) VALUES (?, ?, ?, ?)",
		sub.UserID, sub.Level, sub.StartDate, nullTime(sub.EndDate),
	)
	if err == nil {
		return sub, nil
	}

	err = classify("insert subscription", err)
	if errors.Is(err, shared.ErrConstraintViolation) {
		if updated, retryErr := r.update(ctx, sub); retryErr == nil && updated {
			return sub, nil
		}
	}
	return nil, err
}

func (r *SubscriptionRepository) update(ctx context.Context, sub *models.Subscription) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE subscriptions SET level = ?, start_date = ?, end_date = ? WHERE user_id = ?",
		sub.Level, sub.StartDate, nullTime(sub.EndDate), sub.UserID,
	)
	if err != nil {
		return false, classify("update subscription", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, classify("update subscription", err)
	}
	return rows > 0, nil
}

// End sets the subscription's end date to at.
func (r *SubscriptionRepository) End(ctx context.Context, userID int64, at time.Time) error {
	result, err := r.db.ExecContext(ctx, "UPDATE subscriptions SET end_date = ? WHERE user_id = ?", at.UTC(), userID)
	if err != nil {
		return classify("end subscription", err)
	}
	return affected("end subscription", result, "subscription for user", userID)
}

// IsActive reports whether sub is active at the repository clock's now.
func (r *SubscriptionRepository) IsActive(sub *models.Subscription) bool {
	return sub != nil && sub.IsActive(r.now())
}

// List returns every subscription ordered by user.
func (r *SubscriptionRepository) List(ctx context.Context) ([]*models.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+subscriptionColumns+" FROM subscriptions ORDER BY user_id ASC")
	if err != nil {
		return nil, classify("query subscriptions", err)
	}
	defer rows.Close()

	subs := []*models.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("iterate subscriptions", err)
	}
	return subs, nil
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		sub models.Subscription
		end sql.NullTime
	)
	err := row.Scan(&sub.UserID, &sub.Level, &sub.StartDate, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, classify("scan subscription", err)
	}
	sub.StartDate = sub.StartDate.UTC()
	sub.EndDate = timePtr(end)
	return &sub, nil
}
