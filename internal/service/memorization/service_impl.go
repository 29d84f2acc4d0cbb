package memorization

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/domain/srs"
	"github.com/phrazzld/hifz/internal/platform/logger"
	"github.com/phrazzld/hifz/internal/store"
)

// serviceImpl implements the Service interface
type serviceImpl struct {
	records store.MemorizationStore
	streaks store.StreakStore
	srs     srs.Service
	cfg     Config
	logger  *slog.Logger
}

var _ Service = (*serviceImpl)(nil)

// NewService creates a memorization Service over st.
func NewService(st store.Store, cfg Config, log *slog.Logger) (Service, error) {
	if st == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "store cannot be nil", Err: ErrNilStore}
	}
	cfg = cfg.withDefaults()

	srsService, err := srs.NewServiceWithParams(cfg.Params)
	if err != nil {
		return nil, &ServiceError{Operation: "create_service", Message: "invalid scheduling parameters", Err: err}
	}

	if log == nil {
		log = slog.Default()
	}

	return &serviceImpl{
		records: st.Memorization(),
		streaks: st.Streaks(),
		srs:     srsService,
		cfg:     cfg,
		logger:  log.With(slog.String("component", "memorization_service")),
	}, nil
}

func (s *serviceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

func validateIDs(userID uuid.UUID, subjectID int) error {
	if userID == uuid.Nil {
		return ErrInvalidUser
	}
	return domain.ValidateSubjectID(subjectID)
}

// RecordPractice implements Service.RecordPractice
func (s *serviceImpl) RecordPractice(
	ctx context.Context,
	userID uuid.UUID,
	subjectID int,
	accuracy int,
) (*domain.MemorizationRecord, error) {
	log := s.log(ctx).With(
		slog.String("user_id", userID.String()),
		slog.Int("subject_id", subjectID))

	if err := validateIDs(userID, subjectID); err != nil {
		return nil, err
	}
	if accuracy < 0 || accuracy > 100 {
		log.Warn("accuracy out of range, clamping", slog.Int("accuracy", accuracy))
	}

	now := s.cfg.Now()
	record, err := s.records.Modify(ctx, userID, subjectID, func(current *domain.MemorizationRecord) (*domain.MemorizationRecord, error) {
		if current == nil {
			created, err := s.srs.NewRecord(userID, subjectID, "", now)
			if err != nil {
				return nil, err
			}
			current = created
		}
		return s.srs.CalculatePractice(current, accuracy, now)
	})
	if err != nil {
		s.cfg.Metrics.ObserveStoreFailure("record_practice")
		log.Error("failed to record practice", slog.String("error", err.Error()))
		return nil, NewServiceError("record_practice", "failed to persist practice", err)
	}

	s.cfg.Metrics.ObservePractice(s.cfg.Params.Band(accuracy), string(record.Status), min(max(accuracy, 0), 100))
	log.Info("practice recorded",
		slog.String("status", string(record.Status)),
		slog.Int("progress", record.Progress),
		slog.Int("mastery_level", record.MasteryLevel),
		slog.Time("next_review_at", *record.NextReviewAt))

	if s.cfg.StreakOnPractice {
		// The practice is already committed; a streak failure is logged, not returned.
		if _, err := s.RecordDailyActivity(ctx, userID, now); err != nil {
			log.Error("failed to record daily activity after practice", slog.String("error", err.Error()))
		}
	}

	return record, nil
}

// StartSubject implements Service.StartSubject
func (s *serviceImpl) StartSubject(
	ctx context.Context,
	userID uuid.UUID,
	subjectID int,
	displayName string,
) (*domain.MemorizationRecord, error) {
	if err := validateIDs(userID, subjectID); err != nil {
		return nil, err
	}

	now := s.cfg.Now()
	record, err := s.records.Modify(ctx, userID, subjectID, func(current *domain.MemorizationRecord) (*domain.MemorizationRecord, error) {
		if current != nil {
			return current, nil
		}
		return s.srs.NewRecord(userID, subjectID, displayName, now)
	})
	if err != nil {
		s.cfg.Metrics.ObserveStoreFailure("start_subject")
		s.log(ctx).Error("failed to start subject",
			slog.String("user_id", userID.String()),
			slog.Int("subject_id", subjectID),
			slog.String("error", err.Error()))
		return nil, NewServiceError("start_subject", "failed to create record", err)
	}
	return record, nil
}

// GetRecord implements Service.GetRecord
func (s *serviceImpl) GetRecord(
	ctx context.Context,
	userID uuid.UUID,
	subjectID int,
) (*domain.MemorizationRecord, error) {
	if err := validateIDs(userID, subjectID); err != nil {
		return nil, err
	}
	record, err := s.records.Get(ctx, userID, subjectID)
	if err != nil {
		if !store.IsNotFoundError(err) {
			s.cfg.Metrics.ObserveStoreFailure("get_record")
		}
		return nil, NewServiceError("get_record", "failed to load record", err)
	}
	return record, nil
}

// ListRecords implements Service.ListRecords
func (s *serviceImpl) ListRecords(ctx context.Context, userID uuid.UUID) ([]*domain.MemorizationRecord, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUser
	}
	records, err := s.records.List(ctx, userID)
	if err != nil {
		s.cfg.Metrics.ObserveStoreFailure("list_records")
		return nil, NewServiceError("list_records", "failed to list records", err)
	}
	return records, nil
}

// GetDueReviews implements Service.GetDueReviews
func (s *serviceImpl) GetDueReviews(
	ctx context.Context,
	userID uuid.UUID,
	asOf time.Time,
) ([]domain.ReviewEntry, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUser
	}
	if asOf.IsZero() {
		asOf = s.cfg.Now()
	}

	records, err := s.records.List(ctx, userID)
	if err != nil {
		s.cfg.Metrics.ObserveStoreFailure("get_due_reviews")
		return nil, NewServiceError("get_due_reviews", "failed to list records", err)
	}

	entries := s.srs.DueReviews(records, asOf)
	s.cfg.Metrics.ObserveDueReviews(len(entries))
	s.log(ctx).Debug("due reviews computed",
		slog.String("user_id", userID.String()),
		slog.Int("due", len(entries)))
	return entries, nil
}

// GetSummary implements Service.GetSummary
func (s *serviceImpl) GetSummary(ctx context.Context, userID uuid.UUID) (domain.Summary, error) {
	if userID == uuid.Nil {
		return domain.Summary{}, ErrInvalidUser
	}

	records, err := s.records.List(ctx, userID)
	if err != nil {
		s.cfg.Metrics.ObserveStoreFailure("get_summary")
		return domain.Summary{}, NewServiceError("get_summary", "failed to list records", err)
	}

	streak, err := s.streaks.Get(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrStreakNotFound) {
		s.cfg.Metrics.ObserveStoreFailure("get_summary")
		return domain.Summary{}, NewServiceError("get_summary", "failed to load streak", err)
	}

	return domain.Summarize(records, streak), nil
}

// RecordDailyActivity implements Service.RecordDailyActivity
func (s *serviceImpl) RecordDailyActivity(
	ctx context.Context,
	userID uuid.UUID,
	asOf time.Time,
) (*domain.StreakState, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUser
	}
	now := s.cfg.Now()
	if asOf.IsZero() {
		asOf = now
	}
	today := domain.CalendarDate(asOf, s.cfg.Location)

	var transition domain.StreakTransition
	state, err := s.streaks.Modify(ctx, userID, func(current *domain.StreakState) (*domain.StreakState, error) {
		if current == nil {
			current = domain.NewStreakState(userID)
		}
		next, tr := current.Advance(today, now)
		transition = tr
		return next, nil
	})
	if err != nil {
		s.cfg.Metrics.ObserveStoreFailure("record_daily_activity")
		s.log(ctx).Error("failed to record daily activity",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("record_daily_activity", "failed to update streak", err)
	}

	s.cfg.Metrics.ObserveStreak(string(transition))
	s.log(ctx).Info("daily activity recorded",
		slog.String("user_id", userID.String()),
		slog.String("date", today.String()),
		slog.String("transition", string(transition)),
		slog.Int("current_streak", state.CurrentStreak))
	return state, nil
}
