// Package reminder periodically sweeps every user with memorization records
// and hands the ones with due reviews to a Notifier.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/config"
	"github.com/phrazzld/hifz/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Reminder is one user's due reviews at the time of a sweep.
type Reminder struct {
	UserID  uuid.UUID
	AsOf    time.Time
	Reviews []domain.ReviewEntry
}

// Notifier delivers reminders.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// UserLister enumerates users with at least one record.
// store.MemorizationStore satisfies it.
type UserLister interface {
	ListUsers(ctx context.Context) ([]uuid.UUID, error)
}

// DueReviewer computes a user's due reviews.
// memorization.Service satisfies it.
type DueReviewer interface {
	GetDueReviews(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]domain.ReviewEntry, error)
}

// SweepResult counts the outcome of one sweep.
type SweepResult struct {
	Users    int
	Notified int
	Failed   int
}

// Scheduler runs Sweep on a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	users     UserLister
	reviews   DueReviewer
	notifier  Notifier
	cfg       config.ReminderConfig
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Scheduler. It does nothing until Start is called.
func New(
	users UserLister,
	reviews DueReviewer,
	notifier Notifier,
	cfg config.ReminderConfig,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		users:     users,
		reviews:   reviews,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "reminder_scheduler")),
		now:       time.Now,
	}
}

// Start schedules the sweep every cfg.Interval, running the first one
// immediately. Overlapping runs are skipped.
func (s *Scheduler) Start() error {
	if s.cfg.Interval <= 0 {
		return fmt.Errorf("reminder interval must be positive, got %s", s.cfg.Interval)
	}
	if _, err := s.scheduler.Every(s.cfg.Interval).SingletonMode().Do(s.runSweep); err != nil {
		return fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("reminder scheduler started",
		slog.Duration("interval", s.cfg.Interval),
		slog.Int("concurrency", s.cfg.Concurrency))
	return nil
}

// Stop halts the schedule. A sweep already running finishes on its own.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("reminder scheduler stopped")
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Interval)
	defer cancel()

	start := time.Now()
	result, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("reminder sweep failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("reminder sweep completed",
		slog.Int("users", result.Users),
		slog.Int("notified", result.Notified),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", time.Since(start)))
}

// Sweep checks every user once. A failure for one user is logged and
// counted without stopping the others; only listing users or a canceled
// ctx fails the sweep.
func (s *Scheduler) Sweep(ctx context.Context) (SweepResult, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to list users: %w", err)
	}

	asOf := s.now()
	var notified, failed atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, userID := range users {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			sent, err := s.remind(gCtx, userID, asOf)
			switch {
			case err != nil:
				failed.Add(1)
				s.logger.Warn("reminder failed",
					slog.String("user_id", userID.String()),
					slog.String("error", err.Error()))
			case sent:
				notified.Add(1)
			}
			return nil
		})
	}

	err = g.Wait()
	result := SweepResult{
		Users:    len(users),
		Notified: int(notified.Load()),
		Failed:   int(failed.Load()),
	}
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return result, err
	}
	return result, nil
}

func (s *Scheduler) remind(ctx context.Context, userID uuid.UUID, asOf time.Time) (bool, error) {
	reviews, err := s.reviews.GetDueReviews(ctx, userID, asOf)
	if err != nil {
		return false, err
	}
	if len(reviews) == 0 {
		return false, nil
	}
	if err := s.notifier.Notify(ctx, Reminder{UserID: userID, AsOf: asOf, Reviews: reviews}); err != nil {
		return false, err
	}
	return true, nil
}
