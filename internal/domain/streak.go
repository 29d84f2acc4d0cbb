package domain

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Validation errors for StreakState
var (
	ErrEmptyStreakUserID = errors.New("streak state user ID cannot be empty")
	ErrNegativeStreak    = errors.New("streak counters cannot be negative")
	ErrStreakInvariant   = errors.New("longest streak cannot be shorter than current streak")
)

// StreakTransition names the edge taken by the streak state machine.
type StreakTransition string

// Possible streak transitions
const (
	StreakUnchanged StreakTransition = "unchanged" // same day, or activity older than the last recorded day
	StreakExtended  StreakTransition = "extended"  // activity on the day after the last one
	StreakStarted   StreakTransition = "started"   // first activity, or the previous run was broken
)

// StreakState is a user's run of consecutive days with qualifying activity.
type StreakState struct {
	UserID           uuid.UUID   `json:"user_id"`
	CurrentStreak    int         `json:"current_streak"`
	LongestStreak    int         `json:"longest_streak"`
	LastActivityDate *civil.Date `json:"last_activity_date,omitempty"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// NewStreakState returns an empty streak for userID.
func NewStreakState(userID uuid.UUID) *StreakState {
	return &StreakState{UserID: userID}
}

// Validate checks the streak counters.
func (s *StreakState) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrEmptyStreakUserID
	}
	if s.CurrentStreak < 0 || s.LongestStreak < 0 {
		return ErrNegativeStreak
	}
	if s.LongestStreak < s.CurrentStreak {
		return ErrStreakInvariant
	}
	return nil
}

// Advance applies one activity on day today and returns the resulting state
// together with the transition taken. The receiver is not modified.
//
// An activity dated before the last recorded day leaves the state as is;
// the streak never moves backwards in time.
func (s *StreakState) Advance(today civil.Date, now time.Time) (*StreakState, StreakTransition) {
	next := *s
	if s.LastActivityDate != nil {
		last := *s.LastActivityDate
		next.LastActivityDate = &last

		switch gap := today.DaysSince(last); {
		case gap <= 0:
			return &next, StreakUnchanged
		case gap == 1:
			next.CurrentStreak++
			next.finish(today, now)
			return &next, StreakExtended
		}
	}

	next.CurrentStreak = 1
	next.finish(today, now)
	return &next, StreakStarted
}

func (s *StreakState) finish(today civil.Date, now time.Time) {
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastActivityDate = &today
	s.UpdatedAt = now
}

// CalendarDate strips the time of day from t as observed in loc.
func CalendarDate(t time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(t.In(loc))
}
