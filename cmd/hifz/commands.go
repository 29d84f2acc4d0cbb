package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/phrazzld/hifz/internal/config"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/export"
	"github.com/phrazzld/hifz/internal/platform/postgres"
	"github.com/spf13/cobra"
)

// =============================================================================
// Practice
// =============================================================================

func newStartCmd(c *cli) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "start SUBJECT",
		Short: "Start memorizing a subject",
		Long:  "Creates a learning record for SUBJECT (1-114) scheduled for its first review. Starting an existing subject changes nothing.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.user()
			if err != nil {
				return err
			}
			subjectID, err := parseSubject(args[0])
			if err != nil {
				return err
			}
			rec, err := c.service.StartSubject(cmd.Context(), userID, subjectID, name)
			if err != nil {
				return err
			}
			return c.render(cmd, rec, func() error { return printRecord(cmd.OutOrStdout(), rec) })
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (default \"Surah N\")")
	return cmd
}

func newPracticeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "practice SUBJECT ACCURACY",
		Short: "Record a practice session",
		Long:  "Records a recitation of SUBJECT scored at ACCURACY percent and reschedules its next review.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.user()
			if err != nil {
				return err
			}
			subjectID, err := parseSubject(args[0])
			if err != nil {
				return err
			}
			accuracy, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid accuracy %q: must be an integer", args[1])
			}
			rec, err := c.service.RecordPractice(cmd.Context(), userID, subjectID, accuracy)
			if err != nil {
				return err
			}
			return c.render(cmd, rec, func() error { return printRecord(cmd.OutOrStdout(), rec) })
		},
	}
}

func newListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List started subjects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.user()
			if err != nil {
				return err
			}
			records, err := c.service.ListRecords(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return c.render(cmd, records, func() error { return printRecords(cmd.OutOrStdout(), records) })
		},
	}
}

// =============================================================================
// Progress
// =============================================================================

func newReviewsCmd(c *cli) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Show subjects due for review, most urgent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.user()
			if err != nil {
				return err
			}
			at, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			reviews, err := c.service.GetDueReviews(cmd.Context(), userID, at)
			if err != nil {
				return err
			}
			return c.render(cmd, reviews, func() error { return printReviews(cmd.OutOrStdout(), reviews) })
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluate at this RFC3339 time instead of now")
	return cmd
}

func newSummaryCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show progress totals and streaks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.user()
			if err != nil {
				return err
			}
			summary, err := c.service.GetSummary(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return c.render(cmd, summary, func() error { return printSummary(cmd.OutOrStdout(), summary) })
		},
	}
}

func newActivityCmd(c *cli) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Mark today as an active day for the streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.user()
			if err != nil {
				return err
			}
			at, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			streak, err := c.service.RecordDailyActivity(cmd.Context(), userID, at)
			if err != nil {
				return err
			}
			return c.render(cmd, streak, func() error { return printStreak(cmd.OutOrStdout(), streak) })
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "record activity for the day containing this RFC3339 time")
	return cmd
}

func newExportCmd(c *cli) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write progress to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := c.user()
			if err != nil {
				return err
			}
			records, err := c.service.ListRecords(cmd.Context(), userID)
			if err != nil {
				return err
			}
			summary, err := c.service.GetSummary(cmd.Context(), userID)
			if err != nil {
				return err
			}

			rep := export.Report{
				UserID:      userID,
				GeneratedAt: time.Now().UTC(),
				Records:     records,
				Summary:     summary,
			}
			if err := export.Save(out, rep); err != nil {
				return err
			}
			c.logger.Info("progress exported",
				slog.String("path", out),
				slog.Int("subjects", len(records)))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d subjects to %s\n", len(records), out)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "hifz-progress.xlsx", "output file")
	return cmd
}

// =============================================================================
// Maintenance
// =============================================================================

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|reset|status|version]",
		Short:     "Apply PostgreSQL schema migrations",
		Long:      "Runs the embedded goose migrations against store.database_url. Other drivers manage their own schema.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "reset", "status", "version"},
		// Overrides the root hook: migrations must not need the schema they create.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			if c.cfg.Store.Driver != config.DriverPostgres {
				_, err := fmt.Fprintf(cmd.OutOrStdout(),
					"Store driver %q manages its own schema; nothing to migrate.\n", c.cfg.Store.Driver)
				return err
			}

			db, err := postgres.Open(cmd.Context(), c.cfg.Store.DatabaseURL, c.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			return postgres.Migrate(cmd.Context(), db, command, c.logger)
		},
	}
}

// =============================================================================
// Helpers
// =============================================================================

func (c *cli) render(cmd *cobra.Command, v any, table func() error) error {
	if c.jsonOutput {
		return printJSON(cmd.OutOrStdout(), v)
	}
	return table()
}

func parseSubject(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid subject %q: must be an integer", arg)
	}
	if err := domain.ValidateSubjectID(id); err != nil {
		return 0, err
	}
	return id, nil
}

// parseAsOf returns the zero time for an empty flag, which the service
// reads as now.
func parseAsOf(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: expected RFC3339", value)
	}
	return t, nil
}
