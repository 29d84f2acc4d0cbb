package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/phrazzld/hifz/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func printRecord(w io.Writer, r *domain.MemorizationRecord) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Subject:\t%d (%s)\n", r.SubjectID, r.DisplayName)
	fmt.Fprintf(tw, "Status:\t%s\n", r.Status)
	fmt.Fprintf(tw, "Progress:\t%d\n", r.Progress)
	fmt.Fprintf(tw, "Mastery level:\t%d\n", r.MasteryLevel)
	fmt.Fprintf(tw, "Practice count:\t%d\n", r.PracticeCount)
	fmt.Fprintf(tw, "Last practiced:\t%s\n", formatTime(r.LastPracticedAt))
	fmt.Fprintf(tw, "Next review:\t%s\n", formatTime(r.NextReviewAt))
	return tw.Flush()
}

func printRecords(w io.Writer, records []*domain.MemorizationRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No subjects started.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SUBJECT\tNAME\tSTATUS\tPROGRESS\tMASTERY\tPRACTICES\tNEXT REVIEW")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.SubjectID, r.DisplayName, r.Status, r.Progress, r.MasteryLevel,
			r.PracticeCount, formatTime(r.NextReviewAt))
	}
	return tw.Flush()
}

func printReviews(w io.Writer, reviews []domain.ReviewEntry) error {
	if len(reviews) == 0 {
		_, err := fmt.Fprintln(w, "Nothing due for review.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "PRIORITY\tSUBJECT\tNAME\tDUE\tREASON")
	for _, e := range reviews {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			e.Priority, e.SubjectID, e.DisplayName, formatTime(&e.DueAt), e.Reason)
	}
	return tw.Flush()
}

func printSummary(w io.Writer, s domain.Summary) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total subjects:\t%d\n", s.TotalSubjects)
	fmt.Fprintf(tw, "Learning:\t%d\n", s.Learning)
	fmt.Fprintf(tw, "Reviewing:\t%d\n", s.Reviewing)
	fmt.Fprintf(tw, "Mastered:\t%d\n", s.Mastered)
	fmt.Fprintf(tw, "Practice sessions:\t%d\n", s.TotalPracticeSessions)
	fmt.Fprintf(tw, "Current streak:\t%d\n", s.CurrentStreak)
	fmt.Fprintf(tw, "Longest streak:\t%d\n", s.LongestStreak)
	return tw.Flush()
}

func printStreak(w io.Writer, s *domain.StreakState) error {
	last := "-"
	if s.LastActivityDate != nil {
		last = s.LastActivityDate.String()
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "Current streak:\t%d\n", s.CurrentStreak)
	fmt.Fprintf(tw, "Longest streak:\t%d\n", s.LongestStreak)
	fmt.Fprintf(tw, "Last activity:\t%s\n", last)
	return tw.Flush()
}
