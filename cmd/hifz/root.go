package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/config"
	"github.com/phrazzld/hifz/internal/platform/logger"
	"github.com/phrazzld/hifz/internal/platform/storage"
	"github.com/phrazzld/hifz/internal/service/memorization"
	"github.com/phrazzld/hifz/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errUserRequired = errors.New("--user is required")

// cli carries the global flags and the session opened before each command.
type cli struct {
	configFile string
	userFlag   string
	jsonOutput bool

	cfg     *config.Config
	logger  *slog.Logger
	store   store.Store
	service memorization.Service
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "hifz",
		Short: "Track Quran memorization practice, reviews and streaks",
		Long: `hifz records practice sessions for each surah, schedules spaced
reviews and keeps a daily activity streak.

Configuration comes from config.yaml, a .env file and HIFZ_* environment
variables, the same as the server. Select a durable backend with
HIFZ_STORE_DRIVER=sqlite|badger|postgres.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.open,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default ./config.yaml)")
	root.PersistentFlags().StringVarP(&c.userFlag, "user", "u", "", "user ID (UUID)")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newStartCmd(c),
		newPracticeCmd(c),
		newListCmd(c),
		newReviewsCmd(c),
		newSummaryCmd(c),
		newActivityCmd(c),
		newExportCmd(c),
		newMigrateCmd(c),
	)
	return root
}

// loadConfig reads settings and builds a logger that writes to stderr so
// command output stays parseable.
func (c *cli) loadConfig(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if c.configFile != "" {
		v := viper.New()
		v.SetConfigFile(c.configFile)
		cfg, err = config.LoadWithViper(v)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	c.cfg = cfg
	c.logger = logger.New(cmd.ErrOrStderr(), cfg.Server.LogLevel).
		With(slog.String("command", cmd.Name()))
	return nil
}

func (c *cli) open(cmd *cobra.Command, args []string) error {
	if err := c.loadConfig(cmd); err != nil {
		return err
	}

	st, err := storage.Open(cmd.Context(), c.cfg.Store, c.logger)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", c.cfg.Store.Driver, err)
	}
	c.store = st

	svcCfg, err := memorization.ConfigFromEngine(c.cfg.Engine, nil)
	if err != nil {
		_ = c.close()
		return fmt.Errorf("invalid engine configuration: %w", err)
	}
	c.service, err = memorization.NewService(st, svcCfg, c.logger)
	if err != nil {
		_ = c.close()
		return fmt.Errorf("failed to create memorization service: %w", err)
	}
	return nil
}

func (c *cli) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func (c *cli) user() (uuid.UUID, error) {
	if c.userFlag == "" {
		return uuid.Nil, errUserRequired
	}
	id, err := uuid.Parse(c.userFlag)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --user %q: %w", c.userFlag, err)
	}
	return id, nil
}
