package api

import (
	"time"

	"github.com/phrazzld/hifz/internal/domain"
)

// PracticeRequest is the body of a practice submission. Accuracy outside
// 0-100 is accepted and clamped by the engine.
type PracticeRequest struct {
	Accuracy *int `json:"accuracy" validate:"required"`
}

// StartSubjectRequest is the optional body of a subject start.
type StartSubjectRequest struct {
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
}

// ActivityRequest is the optional body of a daily activity event.
// A missing as_of means now.
type ActivityRequest struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}

// RecordResponse is one memorization record.
type RecordResponse struct {
	SubjectID       int        `json:"subject_id"`
	DisplayName     string     `json:"display_name"`
	Status          string     `json:"status"`
	Progress        int        `json:"progress"`
	MasteryLevel    int        `json:"mastery_level"`
	PracticeCount   int        `json:"practice_count"`
	LastPracticedAt *time.Time `json:"last_practiced_at,omitempty"`
	NextReviewAt    *time.Time `json:"next_review_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// RecordListResponse lists a user's records.
type RecordListResponse struct {
	Subjects []RecordResponse `json:"subjects"`
}

// ReviewsResponse lists due reviews, most urgent first. Degraded is set
// when the records could not be read and the list is empty for that reason.
type ReviewsResponse struct {
	AsOf     time.Time            `json:"as_of"`
	Reviews  []domain.ReviewEntry `json:"reviews"`
	Degraded bool                 `json:"degraded,omitempty"`
}

// SummaryResponse is a user's progress summary.
type SummaryResponse struct {
	domain.Summary
	Degraded bool `json:"degraded,omitempty"`
}

// StreakResponse is a user's streak after an activity event.
type StreakResponse struct {
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
	LastActivityDate *string `json:"last_activity_date,omitempty"`
}

func recordToResponse(r *domain.MemorizationRecord) RecordResponse {
	return RecordResponse{
		SubjectID:       r.SubjectID,
		DisplayName:     r.DisplayName,
		Status:          string(r.Status),
		Progress:        r.Progress,
		MasteryLevel:    r.MasteryLevel,
		PracticeCount:   r.PracticeCount,
		LastPracticedAt: r.LastPracticedAt,
		NextReviewAt:    r.NextReviewAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func streakToResponse(s *domain.StreakState) StreakResponse {
	resp := StreakResponse{
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
	}
	if s.LastActivityDate != nil {
		d := s.LastActivityDate.String()
		resp.LastActivityDate = &d
	}
	return resp
}
