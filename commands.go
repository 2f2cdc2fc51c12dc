package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"runcoach/internal/analysis"
	"runcoach/internal/auth"
	"runcoach/internal/config"
	"runcoach/internal/learning"
	"runcoach/internal/service"
)

const dayLayout = "2006-01-02"

// dayFlag parses a YYYY-MM-DD flag, defaulting to today
func dayFlag(c *cli.Context, name string) (time.Time, error) {
	if !c.IsSet(name) {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse(dayLayout, c.String(name))
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD, got %q", name, c.String(name))
	}
	return d, nil
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "authorize with intervals.icu and store the token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "client-id",
				Usage:   "OAuth client id",
				EnvVars: []string{"INTERVALS_CLIENT_ID"},
			},
			&cli.StringFlag{
				Name:    "client-secret",
				Usage:   "OAuth client secret",
				EnvVars: []string{"INTERVALS_CLIENT_SECRET"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("client-id") {
				cfg.Intervals.ClientID = c.String("client-id")
			}
			if c.IsSet("client-secret") {
				cfg.Intervals.ClientSecret = c.String("client-secret")
			}
			if cfg.Intervals.ClientID == "" || cfg.Intervals.ClientSecret == "" {
				return fmt.Errorf("intervals.client_id and intervals.client_secret are required for login")
			}

			oauthCfg := auth.NewOAuthConfig(auth.Config{
				ClientID:     cfg.Intervals.ClientID,
				ClientSecret: cfg.Intervals.ClientSecret,
				RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", auth.CallbackPort),
			})

			result, err := auth.Authenticate(c.Context, oauthCfg, c.App.Writer)
			if err != nil {
				return fmt.Errorf("authentication: %w", err)
			}

			cfg.Intervals.AccessToken = result.Token.AccessToken
			if result.AthleteID != "" {
				cfg.Intervals.AthleteID = result.AthleteID
			}
			if err := saveConfig(c, cfg); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}

			log.Info().Str("athlete", result.AthleteID).Str("name", result.AthleteName).Msg("authenticated")
			return nil
		},
	}
}

func saveConfig(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("config") {
		return config.SavePath(cfg, c.String("config"))
	}
	return config.Save(cfg)
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "fetch runs and wellness, then score new sessions",
		Action: func(c *cli.Context) error {
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			progress := make(chan service.SyncProgress, 16)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for p := range progress {
					if p.Error != nil {
						log.Warn().Err(p.Error).Str("phase", p.Phase).Msg("sync")
						continue
					}
					log.Debug().Str("phase", p.Phase).Int("completed", p.Completed).Int("total", p.Total).Msg("sync")
				}
			}()

			result, err := e.sync.SyncAll(c.Context, progress)
			<-done
			if err != nil {
				return err
			}
			for _, err := range result.Errors {
				log.Warn().Err(err).Msg("sync")
			}
			return nil
		},
	}
}

func evaluateCommand() *cli.Command {
	return &cli.Command{
		Name:  "evaluate",
		Usage: "score one activity against its planned intent",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "activity",
				Usage:    "intervals.icu activity id",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "intent",
				Usage: "planned intent: racepace, threshold or vo2",
			},
			&cli.Float64Flag{
				Name:  "dose-km",
				Usage: "planned quality distance in km",
			},
			&cli.Float64Flag{
				Name:  "dose-min",
				Usage: "planned quality time in minutes",
			},
		},
		Action: func(c *cli.Context) error {
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			var dose analysis.DoseTarget
			if c.IsSet("dose-km") {
				m := c.Float64("dose-km") * 1000
				dose.DistanceM = &m
			}
			if c.IsSet("dose-min") {
				s := c.Float64("dose-min") * 60
				dose.TimeSec = &s
			}

			ev, err := e.sync.EvaluateActivity(c.Context, c.String("activity"), analysis.ParseIntent(c.String("intent")), dose)
			if err != nil {
				return err
			}
			printEvaluation(c, ev)
			return nil
		},
	}
}

func printEvaluation(c *cli.Context, ev *service.Evaluation) {
	w := c.App.Writer
	s := ev.Analysis.Scores
	fmt.Fprintf(w, "%s  %s\n", ev.Activity.StartDateLocal.Format(dayLayout), ev.Activity.Name)
	fmt.Fprintf(w, "planned %s, looked %s, %d reps\n\n", ev.Planned, s.Intent, len(s.Reps))
	fmt.Fprintf(w, "  overall       %3d  %s\n", s.Overall, analysis.ScoreLabel(s.Overall))
	fmt.Fprintf(w, "  execution     %3d\n", s.Execution)
	fmt.Fprintf(w, "  dose          %3d\n", s.Dose)
	fmt.Fprintf(w, "  strain        %3d\n", s.Strain)
	fmt.Fprintf(w, "  intent match  %3d\n", s.IntentMatch)
	if d := ev.Analysis.Decoupling; d != nil {
		fmt.Fprintf(w, "  decoupling    %.1f%%  %s, %s\n", *d, ev.Analysis.Drift, analysis.DecouplingAssessment(*d))
	}
	if d := ev.Delta; d != nil {
		fmt.Fprintf(w, "\nvs %s: rep %+.0fs, volume %+.0fm, execution %+d, overall %+d\n",
			d.Previous.Date, d.AvgRepSec, d.QualityVolumeM, d.Execution, d.Overall)
	}
	for _, n := range s.Notes {
		fmt.Fprintf(w, "  - %s\n", n)
	}
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "build the plan for the week containing a date",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "date",
				Usage: "any day of the week, YYYY-MM-DD (default today)",
			},
			&cli.BoolFlag{
				Name:  "deload",
				Usage: "force a deload week",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "show the week without recording its progression step",
			},
		},
		Action: func(c *cli.Context) error {
			date, err := dayFlag(c, "date")
			if err != nil {
				return err
			}
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			wp, err := e.coach.PlanWeek(date, service.PlanOptions{
				Deload: c.Bool("deload"),
				Record: !c.Bool("dry-run"),
			})
			if err != nil {
				return err
			}

			w := c.App.Writer
			r := wp.Result
			fmt.Fprintf(w, "Week of %s  (form %s, VDOT %.1f %s)\n\n",
				wp.WeekStart.Format(dayLayout), wp.Form, wp.VDOT, analysis.GetVDOTLabel(wp.VDOT))
			for _, wo := range r.Workouts {
				marker := " "
				if wo.Key {
					marker = "*"
				}
				fmt.Fprintf(w, " %s %s  %-28s %s\n", marker, wo.Date.Format("Mon 01-02"), wo.Label, wo.Provenance)
			}
			fmt.Fprintf(w, "\n%s\n", r.Rationale)
			if wp.Learning != nil {
				fmt.Fprintf(w, "\n%s\n", wp.Learning.Narrative)
			}
			return nil
		},
	}
}

func learnCommand() *cli.Command {
	return &cli.Command{
		Name:  "learn",
		Usage: "record how a week went and show what has been learned",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "day",
				Usage: "day the outcome refers to, YYYY-MM-DD (default today)",
			},
			&cli.StringFlag{
				Name:  "outcome",
				Usage: "GOOD, NEUTRAL or BAD; omit to only show evidence",
			},
			&cli.StringFlag{
				Name:  "arm",
				Usage: "strategy actually followed, overriding the derived one",
			},
			&cli.BoolFlag{
				Name:  "arm-from-signals",
				Usage: "record the strategy derived from the day's signals",
				Value: true,
			},
		},
		Action: func(c *cli.Context) error {
			day, err := dayFlag(c, "day")
			if err != nil {
				return err
			}
			if c.IsSet("arm-from-signals") {
				switch {
				case c.Bool("arm-from-signals") && c.IsSet("arm"):
					return fmt.Errorf("--arm and --arm-from-signals are mutually exclusive")
				case !c.Bool("arm-from-signals") && !c.IsSet("arm"):
					return fmt.Errorf("--arm is required with --arm-from-signals=false")
				}
			}
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			w := c.App.Writer
			if c.IsSet("outcome") {
				arm := learning.Arm(strings.ToUpper(c.String("arm")))
				outcome := learning.Outcome(strings.ToUpper(c.String("outcome")))
				ev, err := e.coach.RecordOutcome(day, outcome, arm)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "recorded %s for %s (%s)\n\n", ev.Outcome, ev.Arm, ev.ContextKey)
			}

			rep, err := e.coach.Learning(day)
			if err != nil {
				return err
			}
			sig := rep.Signals
			fmt.Fprintf(w, "context   %s\n", sig.ContextKey)
			fmt.Fprintf(w, "arm       %s", sig.Decision.Arm)
			if sig.Decision.PolicyReason != "" {
				fmt.Fprintf(w, " (%s)", sig.Decision.PolicyReason)
			}
			fmt.Fprintln(w)
			for _, warning := range sig.Warnings {
				fmt.Fprintf(w, "  ! %s\n", warning)
			}
			fmt.Fprintln(w)
			for _, a := range rep.Evidence.Arms {
				fmt.Fprintf(w, "  %-15s n=%-3d n_eff=%4.1f good=%.2f bad=%.2f\n", a.Arm, a.N, a.NEff, a.PGood, a.PBad)
			}
			fmt.Fprintf(w, "\n%s\n", rep.Narrative)
			return nil
		},
	}
}
