package domain

// Summary aggregates a user's memorization records and streak.
type Summary struct {
	TotalSubjects         int `json:"total_subjects"`
	Learning              int `json:"learning"`
	Reviewing             int `json:"reviewing"`
	Mastered              int `json:"mastered"`
	TotalPracticeSessions int `json:"total_practice_sessions"`
	CurrentStreak         int `json:"current_streak"`
	LongestStreak         int `json:"longest_streak"`
}

// Summarize counts records by status in a single pass and copies the streak
// counters. A nil streak contributes zeros.
func Summarize(records []*MemorizationRecord, streak *StreakState) Summary {
	var s Summary
	for _, r := range records {
		if r == nil {
			continue
		}
		s.TotalSubjects++
		s.TotalPracticeSessions += r.PracticeCount
		switch r.Status {
		case StatusLearning:
			s.Learning++
		case StatusReviewing:
			s.Reviewing++
		case StatusMastered:
			s.Mastered++
		}
	}
	if streak != nil {
		s.CurrentStreak = streak.CurrentStreak
		s.LongestStreak = streak.LongestStreak
	}
	return s
}
