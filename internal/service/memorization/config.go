package memorization

import (
	"time"

	"github.com/phrazzld/hifz/internal/config"
	"github.com/phrazzld/hifz/internal/domain/srs"
	"github.com/phrazzld/hifz/internal/metrics"
)

// Config assembles the engine. The zero value is usable: default
// parameters, UTC calendar days, streaks decoupled from practice,
// the wall clock and no metrics.
type Config struct {
	// Params tunes scheduling. Nil means srs.NewDefaultParams().
	Params *srs.Params

	// Location decides which calendar day an instant belongs to for streaks.
	Location *time.Location

	// StreakOnPractice makes every successful RecordPractice also record
	// daily activity at the same instant.
	StreakOnPractice bool

	// Now is the clock. Nil means time.Now.
	Now func() time.Time

	Metrics *metrics.Metrics
}

// ConfigFromEngine builds a Config from loaded settings.
func ConfigFromEngine(cfg config.EngineConfig, m *metrics.Metrics) (Config, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Config{}, err
	}
	params, err := srs.NewParams(srs.ParamsConfig{
		ReviewIntervals:   cfg.ReviewIntervals,
		InitialReviewDays: cfg.InitialReviewDays,
	})
	if err != nil {
		return Config{}, err
	}
	return Config{
		Params:           params,
		Location:         loc,
		StreakOnPractice: cfg.StreakOnPractice,
		Metrics:          m,
	}, nil
}

func (c Config) withDefaults() Config {
	if c.Params == nil {
		c.Params = srs.NewDefaultParams()
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}
