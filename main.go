package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"runcoach/internal/config"
	"runcoach/internal/intervals"
	"runcoach/internal/service"
	"runcoach/internal/store"
	"runcoach/internal/tui"
)

// env bundles everything a command needs
type env struct {
	cfg   *config.Config
	db    *store.DB
	sync  *service.SyncService
	query *service.QueryService
	coach *service.CoachService
}

func (e *env) Close() error {
	return e.db.Close()
}

// loadConfig reads the config file, writing an example on first run
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	path := c.String("config")
	if c.IsSet("config") {
		log.Info().Str("file", path).Msg("config")
		cfg, err = config.LoadPath(path)
	} else {
		cfg, err = config.Load()
	}
	if errors.Is(err, config.ErrNoConfig) {
		if c.IsSet("config") {
			err = config.CreateExamplePath(path)
		} else {
			path, err = config.CreateExample()
		}
		if err != nil {
			return nil, fmt.Errorf("creating example config: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "No config file found. Wrote an example to:\n  %s\n\n", path)
		fmt.Fprintln(c.App.Writer, "Add your intervals.icu API key, or run 'runcoach login'.")
		return nil, cli.Exit("", 1)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newEnv loads and validates the config, opens the database and wires the
// services
func newEnv(c *cli.Context) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := store.Open()
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	client := intervals.NewClient(cfg.Intervals.AccessToken, cfg.Intervals.AthleteID)
	return &env{
		cfg:   cfg,
		db:    db,
		sync:  service.NewSyncService(client, db, cfg.Eval, cfg.Sync.LookbackDays, log.Logger),
		query: service.NewQueryService(db),
		coach: service.NewCoachService(db, cfg, log.Logger),
	}, nil
}

func runTUI(c *cli.Context) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()

	// the console writer would draw over the alt screen
	zerolog.SetGlobalLevel(zerolog.Disabled)

	app := tui.NewApp(e.sync, e.query, e.coach, e.cfg.Display)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(c.Context))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:     "runcoach",
		HelpName: "runcoach",
		Usage:    "interval session scoring and weekly planning for intervals.icu",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the config file",
				EnvVars: []string{"RUNCOACH_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "tui",
				Usage:  "interactive dashboard",
				Action: runTUI,
			},
			loginCommand(),
			syncCommand(),
			evaluateCommand(),
			planCommand(),
			learnCommand(),
		},
		ExitErrHandler: func(c *cli.Context, err error) {
			if err == nil {
				return
			}
			var coder cli.ExitCoder
			if errors.As(err, &coder) && err.Error() == "" {
				return
			}
			log.Error().Err(err).Msg(c.App.Name)
		},
		Before: func(c *cli.Context) error {
			level := zerolog.InfoLevel
			if c.Bool("verbose") {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			zerolog.DurationFieldUnit = time.Millisecond
			zerolog.DurationFieldInteger = false
			log.Logger = log.Output(
				zerolog.ConsoleWriter{
					Out:        c.App.ErrWriter,
					NoColor:    false,
					TimeFormat: time.RFC3339,
				},
			)
			return nil
		},
		Action: runTUI,
	}
	if err := app.RunContext(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}
