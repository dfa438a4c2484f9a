package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cadence/internal/formatter"
	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

// SubscriptionsSet replaces a user's subscription, optionally ending it after --days.
func (r *Runner) SubscriptionsSet(ctx context.Context, cmd *cli.Command) error {
	userID, err := argID(cmd, "user-id")
	if err != nil {
		return err
	}
	days := cmd.Int("days")
	if err := models.ValidateSubscriptionDays(days); err != nil {
		return fmt.Errorf("%w: --days: %w", shared.ErrInvalidFlag, err)
	}

	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := store.Users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %d: %w", userID, shared.ErrNotFound)
	}

	var end *time.Time
	if days > 0 {
		t := store.Now().AddDate(0, 0, days)
		end = &t
	}

	sub, err := store.Subscriptions.Set(ctx, userID, cmd.StringArg("level"), end)
	if err != nil {
		return err
	}
	return r.writePlainln("%s %s is now on %s", r.styles.OK("✓"), user.Username, sub.Level)
}

// SubscriptionsShow prints a user's subscription and whether it is active now.
func (r *Runner) SubscriptionsShow(ctx context.Context, cmd *cli.Command) error {
	userID, err := argID(cmd, "user-id")
	if err != nil {
		return err
	}

	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	sub, err := store.Subscriptions.Get(ctx, userID)
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("subscription for user %d: %w", userID, shared.ErrNotFound)
	}

	agg := formatter.SubscriptionToResponse(sub, store.Now())
	if cmd.Bool("json") {
		return r.writeJSON(agg, true)
	}

	end := "-"
	if agg.EndDate != nil {
		end = *agg.EndDate
	}
	return r.writePlainln("%s", r.styles.KeyValue([][2]string{
		{"User", strconv.FormatInt(agg.UserID, 10)},
		{"Level", agg.Level},
		{"Started", agg.StartDate},
		{"Ends", end},
		{"Active", strconv.FormatBool(agg.Active)},
	}))
}
