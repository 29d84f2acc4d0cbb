// Package export writes a user's memorization progress to an Excel workbook
// with a Subjects sheet and a Summary sheet.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	SubjectsSheet = "Subjects"
	SummarySheet  = "Summary"
)

var subjectHeaders = []interface{}{
	"Subject ID",
	"Name",
	"Status",
	"Progress",
	"Mastery Level",
	"Practice Count",
	"Last Practiced",
	"Next Review",
}

// Report is the data exported for one user.
type Report struct {
	UserID      uuid.UUID
	GeneratedAt time.Time
	Records     []*domain.MemorizationRecord
	Summary     domain.Summary
}

// Build renders rep into a new workbook. The caller must Close it.
func Build(rep Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := build(f, rep); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func build(f *excelize.File, rep Report) error {
	if err := f.SetSheetName("Sheet1", SubjectsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSubjects(f, rep.Records, bold); err != nil {
		return err
	}
	return writeSummary(f, rep, bold)
}

func writeSubjects(f *excelize.File, records []*domain.MemorizationRecord, headerStyle int) error {
	if err := f.SetSheetRow(SubjectsSheet, "A1", &subjectHeaders); err != nil {
		return fmt.Errorf("failed to write subject headers: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(subjectHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SubjectsSheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("failed to style subject headers: %w", err)
	}

	row := 2
	for _, r := range records {
		if r == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.SubjectID,
			r.DisplayName,
			string(r.Status),
			r.Progress,
			r.MasteryLevel,
			r.PracticeCount,
			formatTime(r.LastPracticedAt),
			formatTime(r.NextReviewAt),
		}
		if err := f.SetSheetRow(SubjectsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write subject %d: %w", r.SubjectID, err)
		}
		row++
	}

	if err := f.SetColWidth(SubjectsSheet, "B", "B", 24); err != nil {
		return err
	}
	return f.SetColWidth(SubjectsSheet, "G", "H", 22)
}

func writeSummary(f *excelize.File, rep Report, labelStyle int) error {
	s := rep.Summary
	rows := [][]interface{}{
		{"User", rep.UserID.String()},
		{"Generated At", rep.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Total Subjects", s.TotalSubjects},
		{"Learning", s.Learning},
		{"Reviewing", s.Reviewing},
		{"Mastered", s.Mastered},
		{"Total Practice Sessions", s.TotalPracticeSessions},
		{"Current Streak", s.CurrentStreak},
		{"Longest Streak", s.LongestStreak},
	}
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	lastLabel, err := excelize.CoordinatesToCellName(1, len(rows))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", lastLabel, labelStyle); err != nil {
		return fmt.Errorf("failed to style summary labels: %w", err)
	}
	return f.SetColWidth(SummarySheet, "A", "B", 38)
}

// Write renders rep as an .xlsx document to w.
func Write(w io.Writer, rep Report) error {
	f, err := Build(rep)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Save renders rep to the .xlsx file at path.
func Save(path string, rep Report) error {
	f, err := Build(rep)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
