package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cadence/internal/repositories"
	"github.com/desertthunder/cadence/internal/shared"
	"github.com/desertthunder/cadence/internal/tasks"
	"github.com/desertthunder/cadence/internal/ui"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config       *shared.Config
	configLoaded bool
	logger       *log.Logger
	customLogger bool
	output       io.Writer
	styles       *ui.Palette
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A non-nil Config is used as-is instead of reading --config.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	r := &Runner{
		config:       opts.Config,
		configLoaded: opts.Config != nil,
		logger:       opts.Logger,
		customLogger: opts.Logger != nil,
		output:       opts.Output,
		styles:       ui.Styles,
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	if r.logger == nil {
		r.logger = shared.NewLogger(nil)
	}
	if r.output == nil {
		r.output = os.Stdout
	}
	return r
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "cadence",
		Usage:   "Manage a music streaming catalog and serve its API",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, songsCommand, usersCommand, playlistsCommand, subscriptionsCommand, exportCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads --config once, falling back to defaults when the file is missing, then applies the environment.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	if r.configLoaded {
		return nil
	}

	path := cmd.String("config")
	config, err := shared.LoadConfig(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		r.logger.Debug("config file not found, using defaults", "path", path)
		config = shared.DefaultConfig()
	default:
		return err
	}

	if err := config.ApplyEnv(); err != nil {
		return err
	}

	if !r.customLogger {
		logger, err := shared.NewLoggerFromConfig(config.Log, os.Stderr)
		if err != nil {
			return err
		}
		r.logger = logger
	}

	r.config = config
	r.configLoaded = true
	return nil
}

// openStore opens the configured database, applies pending migrations and returns a store with its closer.
func (r *Runner) openStore(cmd *cli.Command) (*repositories.Store, func(), error) {
	if err := r.loadConfig(cmd); err != nil {
		return nil, nil, err
	}
	if err := r.config.Validate(); err != nil {
		return nil, nil, err
	}

	db, err := shared.OpenFromConfig(r.config.Database)
	if err != nil {
		return nil, nil, err
	}

	if err := shared.RunMigrations(db, r.config.Database.Driver); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	closer := func() {
		if err := db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
	}
	return repositories.NewStore(db), closer, nil
}

// seed runs the sample data seeder when [seed].enabled is set.
func (r *Runner) seed(ctx context.Context, store *repositories.Store) error {
	if !r.config.Seed.Enabled {
		return nil
	}

	seeder, err := tasks.NewSeeder(store, nil, r.logger)
	if err != nil {
		return err
	}
	_, err = seeder.Seed(ctx)
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain(format+"\n", args...)
}

func (r *Runner) writePlainHeader(title string) error {
	return r.writePlain("%s\n\n", r.styles.Title(title))
}

func (r *Runner) writeTable(headers []string, rows [][]string) error {
	return r.writePlainln("%s", r.styles.Table(headers, rows))
}

// argID parses a positional argument as a positive row ID.
func argID(cmd *cli.Command, name string) (int64, error) {
	raw := cmd.StringArg(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
}
