package main

import (
	"context"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cadence/internal/formatter"
	"github.com/desertthunder/cadence/internal/services"
)

// UsersList prints every account.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	users, err := store.Users.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]formatter.UserResponse, 0, len(users))
		for _, u := range users {
			out = append(out, formatter.UserToResponse(u))
		}
		return r.writeJSON(out, true)
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Username, u.Email, formatter.Timestamp(u.CreatedAt)})
	}
	return r.writeTable([]string{"ID", "Username", "Email", "Created"}, rows)
}

// UsersCreate registers an account through the same path as the API.
func (r *Runner) UsersCreate(ctx context.Context, cmd *cli.Command) error {
	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	auth := services.NewAuthService(store, r.logger)
	user, err := auth.Register(ctx, cmd.StringArg("username"), cmd.StringArg("email"), cmd.String("password"))
	if err != nil {
		return err
	}
	return r.writePlainln("%s created user %s (id %d)", r.styles.OK("✓"), user.Username, user.ID)
}

// UsersDelete removes an account; owned rows cascade.
func (r *Runner) UsersDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, "id")
	if err != nil {
		return err
	}

	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := store.Users.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlainln("%s deleted user %d", r.styles.OK("✓"), id)
}

// UsersPasswd resets a password without the old one.
func (r *Runner) UsersPasswd(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd, "id")
	if err != nil {
		return err
	}

	store, closeDB, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := store.Users.UpdatePassword(ctx, id, cmd.String("password")); err != nil {
		return err
	}
	return r.writePlainln("%s password updated for user %d", r.styles.OK("✓"), id)
}
