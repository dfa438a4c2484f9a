// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cadence/internal/formatter"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, csv, md, txt",
		Value:   formatter.FormatJSON,
	}
}

func passwordFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "password",
		Aliases:  []string{"p"},
		Usage:    "Account password",
		Required: true,
	}
}

// setupCommand handles database initialization and rollback.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config if missing, run migrations and seed sample data",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// serveCommand starts the JSON API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override server.port",
			},
		},
		Action: r.Serve,
	}
}

// songsCommand handles catalog browsing.
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Browse the song catalog",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List every song",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.SongsList,
			},
			{
				Name:      "search",
				Usage:     "Search titles, artists and albums",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.SongsSearch,
			},
			{
				Name:      "show",
				Usage:     "Show a song with its average rating",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.SongsShow,
			},
		},
	}
}

// usersCommand handles account administration.
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage user accounts",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List users",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.UsersList,
			},
			{
				Name:  "create",
				Usage: "Register a user with a free subscription",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
					&cli.StringArg{Name: "email"},
				},
				Flags:  []cli.Flag{passwordFlag()},
				Action: r.UsersCreate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a user and everything they own",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.UsersDelete,
			},
			{
				Name:      "passwd",
				Usage:     "Reset a user's password",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{passwordFlag()},
				Action:    r.UsersPasswd,
			},
		},
	}
}

// playlistsCommand handles playlist inspection and export.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "Inspect and export playlists",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List a user's playlists",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user-id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.PlaylistsList,
			},
			{
				Name:      "show",
				Usage:     "Render a playlist with its songs",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
				},
				Action: r.PlaylistsShow,
			},
			{
				Name:      "export",
				Usage:     "Export all of a user's playlists to a directory",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user-id"}},
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Output directory (default: playlists_export_{timestamp})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers (max 10)",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Playlists exported per second",
						Value: 20,
					},
				},
				Action: r.PlaylistsExport,
			},
		},
	}
}

// subscriptionsCommand handles plan changes.
func subscriptionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "subscriptions",
		Aliases: []string{"subs"},
		Usage:   "Manage user subscriptions",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Set a user's subscription level",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "user-id"},
					&cli.StringArg{Name: "level"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "days",
						Usage: "End the subscription after N days (0 for open-ended)",
					},
				},
				Action: r.SubscriptionsSet,
			},
			{
				Name:      "show",
				Usage:     "Show a user's subscription",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user-id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.SubscriptionsShow,
			},
		},
	}
}

// exportCommand handles whole-database dumps.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export database contents",
		Commands: []*cli.Command{
			{
				Name:  "sql",
				Usage: "Write every table as INSERT statements",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default: stdout)",
					},
				},
				Action: r.ExportSQL,
			},
		},
	}
}
