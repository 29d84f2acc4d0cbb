package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MemorizationStatus is the lifecycle stage of a memorization subject.
type MemorizationStatus string

// Possible memorization status values
const (
	StatusNotStarted MemorizationStatus = "not_started"
	StatusLearning   MemorizationStatus = "learning"
	StatusReviewing  MemorizationStatus = "reviewing"
	StatusMastered   MemorizationStatus = "mastered"
)

// Bounds for memorization records.
const (
	MinSubjectID    = 1
	MaxSubjectID    = 114
	MaxProgress     = 100
	MaxMasteryLevel = 5
)

// Validation errors for MemorizationRecord
var (
	ErrEmptyRecordUserID   = errors.New("memorization record user ID cannot be empty")
	ErrInvalidSubjectID    = errors.New("subject ID must be between 1 and 114")
	ErrInvalidStatus       = errors.New("invalid memorization status")
	ErrProgressOutOfRange  = errors.New("progress must be between 0 and 100")
	ErrMasteryOutOfRange   = errors.New("mastery level must be between 0 and 5")
	ErrNegativePracticeCnt = errors.New("practice count cannot be negative")
)

// MemorizationRecord tracks one user's memorization state for one subject
// (a surah of the Quran, identified by its chapter number).
type MemorizationRecord struct {
	UserID          uuid.UUID          `json:"user_id"`
	SubjectID       int                `json:"subject_id"`
	DisplayName     string             `json:"display_name"`
	Status          MemorizationStatus `json:"status"`
	Progress        int                `json:"progress"`      // 0-100
	MasteryLevel    int                `json:"mastery_level"` // 0-5, drives the review interval
	PracticeCount   int                `json:"practice_count"`
	LastPracticedAt *time.Time         `json:"last_practiced_at,omitempty"`
	NextReviewAt    *time.Time         `json:"next_review_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// DefaultDisplayName is the label given to subjects created on demand.
func DefaultDisplayName(subjectID int) string {
	return fmt.Sprintf("Surah %d", subjectID)
}

// ValidateSubjectID reports whether subjectID names a surah.
func ValidateSubjectID(subjectID int) error {
	if subjectID < MinSubjectID || subjectID > MaxSubjectID {
		return ErrInvalidSubjectID
	}
	return nil
}

// IsValid reports whether s is one of the known statuses.
func (s MemorizationStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusLearning, StatusReviewing, StatusMastered:
		return true
	default:
		return false
	}
}

// Validate checks the record's identity fields and numeric invariants.
func (r *MemorizationRecord) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrEmptyRecordUserID
	}
	if err := ValidateSubjectID(r.SubjectID); err != nil {
		return err
	}
	if !r.Status.IsValid() {
		return ErrInvalidStatus
	}
	if r.Progress < 0 || r.Progress > MaxProgress {
		return ErrProgressOutOfRange
	}
	if r.MasteryLevel < 0 || r.MasteryLevel > MaxMasteryLevel {
		return ErrMasteryOutOfRange
	}
	if r.PracticeCount < 0 {
		return ErrNegativePracticeCnt
	}
	return nil
}

// Clone returns a deep copy so callers can derive a new record without
// aliasing the optional timestamps of the original.
func (r *MemorizationRecord) Clone() *MemorizationRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.LastPracticedAt != nil {
		t := *r.LastPracticedAt
		c.LastPracticedAt = &t
	}
	if r.NextReviewAt != nil {
		t := *r.NextReviewAt
		c.NextReviewAt = &t
	}
	return &c
}

// IsDue reports whether the record should be reviewed as of asOf.
// Records that were never started or never scheduled are not due.
func (r *MemorizationRecord) IsDue(asOf time.Time) bool {
	if r.Status == StatusNotStarted || r.NextReviewAt == nil {
		return false
	}
	return !r.NextReviewAt.After(asOf)
}
