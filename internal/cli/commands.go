package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"buildops/internal/app"
	"buildops/internal/database"
	"buildops/internal/weather"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(c *app.Container) error {
				if err := database.Migrate(c.DB); err != nil {
					return err
				}
				fmt.Fprintln(opts.Out, "schema up to date")
				return nil
			})
		},
	}
}

func newSeedCmd(opts Options) *cobra.Command {
	var withDemo bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin user and the default weather-sensitive activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(c *app.Container) error {
				if err := database.SeedAdmin(c.DB, c.Config.AdminUsername, c.Config.AdminPassword, c.Logger); err != nil {
					return err
				}
				if withDemo {
					database.SeedDemoUsers(c.DB, c.Logger)
				}
				created, err := database.SeedActivities(c.DB, c.Logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(opts.Out, "seeded %d activities\n", created)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&withDemo, "demo", false, "also create demo manager and foreman accounts")
	return cmd
}

func newRiskCmd(opts Options) *cobra.Command {
	var history int

	cmd := &cobra.Command{
		Use:   "risk <project-id>",
		Short: "Score project risk and store the assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd, opts, func(c *app.Container) error {
				if history > 0 {
					rows, err := c.Scorer.History(cmd.Context(), pid, history)
					if err != nil {
						return err
					}
					return printJSON(opts.Out, rows)
				}
				a, err := c.Scorer.Analyze(cmd.Context(), pid)
				if err != nil {
					return err
				}
				return printJSON(opts.Out, a)
			})
		},
	}
	cmd.Flags().IntVar(&history, "history", 0, "print the last N stored assessments instead of scoring")
	return cmd
}

func newCostCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "cost <project-id>",
		Short: "Predict the final project cost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd, opts, func(c *app.Container) error {
				p, err := c.Predictor.Predict(cmd.Context(), pid)
				if err != nil {
					return err
				}
				return printJSON(opts.Out, p)
			})
		},
	}
}

var errWeatherDisabled = errors.New("weather rescheduling is disabled: set WEATHER_API_KEY")

func newWeatherCmd(opts Options) *cobra.Command {
	var (
		taskID uint
		date   string
		reason string
		impact int
	)

	cmd := &cobra.Command{
		Use:   "weather <project-id>",
		Short: "Check the forecast against weather-sensitive tasks",
		Long: `Without flags, analyzes the 5-day forecast, auto-applies high-impact
moves and prints the rest as proposals. With --task and --date, applies
one proposal manually.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			if (taskID == 0) != (strings.TrimSpace(date) == "") {
				return errors.New("--task and --date must be used together")
			}

			return withContainer(cmd, opts, func(c *app.Container) error {
				if c.Rescheduler == nil {
					return errWeatherDisabled
				}

				if taskID == 0 {
					a, err := c.Rescheduler.Analyze(cmd.Context(), pid)
					if err != nil {
						return err
					}
					return printJSON(opts.Out, a)
				}

				newDate, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				adj, err := c.Rescheduler.Apply(cmd.Context(), pid, weather.ApplyRequest{
					TaskID:      taskID,
					NewDate:     newDate,
					Reason:      reason,
					ImpactScore: impact,
				}, 0)
				if err != nil {
					return err
				}
				return printJSON(opts.Out, adj)
			})
		},
	}
	cmd.Flags().UintVar(&taskID, "task", 0, "task to move")
	cmd.Flags().StringVar(&date, "date", "", "new start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded with the move")
	cmd.Flags().IntVar(&impact, "impact", 0, "impact score recorded with the move")
	return cmd
}
