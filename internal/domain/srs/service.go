package srs

import (
	"cmp"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
)

// Common errors
var (
	ErrNilRecord = errors.New("memorization record cannot be nil")
	ErrNilParams = errors.New("SRS params cannot be nil")
)

// Service defines the interface for memorization scheduling operations.
// Implementations are pure: they never mutate their inputs and take the
// current time as an argument.
type Service interface {
	// NewRecord creates a learning record for a subject that has not been
	// practiced yet, scheduled for its first review.
	NewRecord(
		userID uuid.UUID,
		subjectID int,
		displayName string,
		now time.Time,
	) (*domain.MemorizationRecord, error)

	// CalculatePractice computes the record that results from one practice
	// session scored at accuracy. Out-of-range accuracy is clamped.
	CalculatePractice(
		record *domain.MemorizationRecord,
		accuracy int,
		now time.Time,
	) (*domain.MemorizationRecord, error)

	// DueReviews selects the records due as of asOf and orders them by
	// priority, then by due time.
	DueReviews(records []*domain.MemorizationRecord, asOf time.Time) []domain.ReviewEntry

	// Interval returns the review interval for a mastery level.
	Interval(masteryLevel int) time.Duration
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		return nil, ErrNilParams
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{
		params: params,
	}, nil
}

// NewRecord implements Service.NewRecord
func (s *defaultService) NewRecord(
	userID uuid.UUID,
	subjectID int,
	displayName string,
	now time.Time,
) (*domain.MemorizationRecord, error) {
	if displayName == "" {
		displayName = domain.DefaultDisplayName(subjectID)
	}

	next := now.Add(time.Duration(s.params.InitialReviewDays) * day)
	record := &domain.MemorizationRecord{
		UserID:       userID,
		SubjectID:    subjectID,
		DisplayName:  displayName,
		Status:       domain.StatusLearning,
		NextReviewAt: &next,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

// CalculatePractice implements Service.CalculatePractice
func (s *defaultService) CalculatePractice(
	record *domain.MemorizationRecord,
	accuracy int,
	now time.Time,
) (*domain.MemorizationRecord, error) {
	if record == nil {
		return nil, ErrNilRecord
	}

	updated := record.Clone()
	updated.PracticeCount++
	practicedAt := now
	updated.LastPracticedAt = &practicedAt
	updated.UpdatedAt = now

	updated.Progress, updated.MasteryLevel = applyAccuracy(
		updated.Progress,
		updated.MasteryLevel,
		clampAccuracy(accuracy),
		s.params,
	)
	updated.Status = statusFor(updated.Progress, updated.MasteryLevel, s.params)

	next := now.Add(s.Interval(updated.MasteryLevel))
	updated.NextReviewAt = &next

	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return updated, nil
}

// DueReviews implements Service.DueReviews
func (s *defaultService) DueReviews(
	records []*domain.MemorizationRecord,
	asOf time.Time,
) []domain.ReviewEntry {
	entries := make([]domain.ReviewEntry, 0)
	for _, r := range records {
		if r == nil || !r.IsDue(asOf) {
			continue
		}
		overdue := daysOverdue(asOf, *r.NextReviewAt)
		entries = append(entries, domain.ReviewEntry{
			SubjectID:   r.SubjectID,
			DisplayName: r.DisplayName,
			DueAt:       *r.NextReviewAt,
			DaysOverdue: overdue,
			Priority:    priorityFor(overdue, s.params),
			Reason:      reasonFor(overdue),
		})
	}

	slices.SortStableFunc(entries, func(a, b domain.ReviewEntry) int {
		if c := cmp.Compare(a.Priority.Rank(), b.Priority.Rank()); c != 0 {
			return c
		}
		if c := a.DueAt.Compare(b.DueAt); c != 0 {
			return c
		}
		return cmp.Compare(a.SubjectID, b.SubjectID)
	})
	return entries
}

// Interval implements Service.Interval
func (s *defaultService) Interval(masteryLevel int) time.Duration {
	return time.Duration(intervalDays(masteryLevel, s.params)) * day
}
