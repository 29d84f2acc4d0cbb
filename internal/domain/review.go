package domain

import "time"

// ReviewPriority ranks due reviews. Lower rank is more urgent.
type ReviewPriority string

// Possible review priorities
const (
	PriorityHigh   ReviewPriority = "high"
	PriorityMedium ReviewPriority = "medium"
	PriorityLow    ReviewPriority = "low"
)

// Rank orders priorities high < medium < low. Unknown values sort last.
func (p ReviewPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// ReviewEntry is a subject that is due for review. It is derived from a
// MemorizationRecord on every query and never persisted.
type ReviewEntry struct {
	SubjectID   int            `json:"subject_id"`
	DisplayName string         `json:"display_name"`
	DueAt       time.Time      `json:"due_at"`
	DaysOverdue int            `json:"days_overdue"`
	Priority    ReviewPriority `json:"priority"`
	Reason      string         `json:"reason"`
}
