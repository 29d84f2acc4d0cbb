package srs

import (
	"fmt"
	"time"

	"github.com/phrazzld/hifz/internal/domain"
)

const day = 24 * time.Hour

// clampAccuracy bounds an externally supplied accuracy score to 0-100.
func clampAccuracy(accuracy int) int {
	return min(max(accuracy, 0), 100)
}

// applyAccuracy returns the progress and mastery level after one practice
// session scored at accuracy.
//
// Excellent sessions advance mastery by one level and progress by the
// excellent gain. Good sessions only advance progress. Anything lower
// loses progress. Both values stay within their domain bounds.
func applyAccuracy(progress, mastery, accuracy int, params *Params) (int, int) {
	switch {
	case accuracy >= params.ExcellentAccuracy:
		mastery = min(mastery+1, domain.MaxMasteryLevel)
		progress = min(progress+params.ExcellentProgressGain, domain.MaxProgress)
	case accuracy >= params.GoodAccuracy:
		progress = min(progress+params.GoodProgressGain, domain.MaxProgress)
	default:
		progress = max(progress-params.PoorProgressPenalty, 0)
	}
	return progress, mastery
}

// statusFor derives the memorization status from progress and mastery.
func statusFor(progress, mastery int, params *Params) domain.MemorizationStatus {
	switch {
	case progress >= params.MasteredProgress && mastery >= params.MasteredLevel:
		return domain.StatusMastered
	case progress >= params.ReviewingProgress:
		return domain.StatusReviewing
	default:
		return domain.StatusLearning
	}
}

// intervalDays looks up the review interval for a mastery level, clamping
// the level to the bounds of the table.
func intervalDays(mastery int, params *Params) int {
	idx := min(max(mastery, 0), len(params.ReviewIntervals)-1)
	return params.ReviewIntervals[idx]
}

// daysOverdue counts whole days elapsed since dueAt. The caller guarantees
// dueAt is not after asOf.
func daysOverdue(asOf, dueAt time.Time) int {
	return int(asOf.Sub(dueAt) / day)
}

// priorityFor ranks a due review by how long it has been overdue.
func priorityFor(overdue int, params *Params) domain.ReviewPriority {
	switch {
	case overdue > params.HighPriorityAfterDays:
		return domain.PriorityHigh
	case overdue < params.LowPriorityBelowDays:
		return domain.PriorityLow
	default:
		return domain.PriorityMedium
	}
}

// reasonFor is the human readable explanation shown next to a due review.
func reasonFor(overdue int) string {
	if overdue > 0 {
		return fmt.Sprintf("%d days overdue", overdue)
	}
	return "Due for review"
}
