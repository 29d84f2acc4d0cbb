package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/hifz/internal/domain"
	"github.com/phrazzld/hifz/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// useSQLite points every command at one SQLite file so state survives
// between invocations.
func useSQLite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HIFZ_STORE_DRIVER", "sqlite")
	t.Setenv("HIFZ_STORE_SQLITE_PATH", filepath.Join(dir, "hifz.db"))
	t.Setenv("HIFZ_SERVER_LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func executeJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := execute(t, append(args, "--json")...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestStartAndPractice(t *testing.T) {
	useSQLite(t)
	user := uuid.NewString()

	var started domain.MemorizationRecord
	executeJSON(t, &started, "start", "36", "--name", "Ya-Sin", "--user", user)
	assert.Equal(t, 36, started.SubjectID)
	assert.Equal(t, "Ya-Sin", started.DisplayName)
	assert.Equal(t, domain.StatusLearning, started.Status)

	var practiced domain.MemorizationRecord
	executeJSON(t, &practiced, "practice", "36", "95", "--user", user)
	assert.Equal(t, 10, practiced.Progress)
	assert.Equal(t, 1, practiced.MasteryLevel)
	assert.Equal(t, 1, practiced.PracticeCount)
	assert.Equal(t, "Ya-Sin", practiced.DisplayName)

	out, err := execute(t, "list", "--user", user)
	require.NoError(t, err)
	assert.Contains(t, out, "SUBJECT")
	assert.Contains(t, out, "Ya-Sin")

	out, err = execute(t, "practice", "36", "60", "-u", user)
	require.NoError(t, err)
	assert.Contains(t, out, "Practice count:")
	assert.Contains(t, out, "learning")
}

func TestReviews(t *testing.T) {
	useSQLite(t)
	user := uuid.NewString()

	out, err := execute(t, "reviews", "--user", user)
	require.NoError(t, err)
	assert.Equal(t, "Nothing due for review.\n", out)

	_, err = execute(t, "start", "1", "--user", user)
	require.NoError(t, err)

	asOf := time.Now().Add(20*24*time.Hour + 12*time.Hour).UTC().Format(time.RFC3339)
	var reviews []domain.ReviewEntry
	executeJSON(t, &reviews, "reviews", "--as-of", asOf, "--user", user)
	require.Len(t, reviews, 1)
	assert.Equal(t, 1, reviews[0].SubjectID)
	assert.Equal(t, domain.PriorityHigh, reviews[0].Priority)
	assert.Equal(t, "19 days overdue", reviews[0].Reason)

	out, err = execute(t, "reviews", "--as-of", asOf, "--user", user)
	require.NoError(t, err)
	assert.Contains(t, out, "PRIORITY")
	assert.Contains(t, out, "19 days overdue")
}

func TestActivityAndSummary(t *testing.T) {
	useSQLite(t)
	user := uuid.NewString()

	var streak domain.StreakState
	for _, day := range []string{"2026-10-01T08:00:00Z", "2026-10-02T21:00:00Z", "2026-10-02T22:00:00Z"} {
		executeJSON(t, &streak, "activity", "--as-of", day, "--user", user)
	}
	assert.Equal(t, 2, streak.CurrentStreak)
	assert.Equal(t, 2, streak.LongestStreak)
	require.NotNil(t, streak.LastActivityDate)
	assert.Equal(t, "2026-10-02", streak.LastActivityDate.String())

	_, err := execute(t, "practice", "2", "80", "--user", user)
	require.NoError(t, err)

	var summary domain.Summary
	executeJSON(t, &summary, "summary", "--user", user)
	assert.Equal(t, domain.Summary{
		TotalSubjects:         1,
		Learning:              1,
		TotalPracticeSessions: 1,
		CurrentStreak:         2,
		LongestStreak:         2,
	}, summary)

	out, err := execute(t, "summary", "--user", user)
	require.NoError(t, err)
	assert.Contains(t, out, "Total subjects:")
	assert.Contains(t, out, "Current streak:")
}

func TestExport(t *testing.T) {
	dir := useSQLite(t)
	user := uuid.NewString()
	path := filepath.Join(dir, "progress.xlsx")

	for _, subject := range []string{"1", "2"} {
		_, err := execute(t, "practice", subject, "92", "--user", user)
		require.NoError(t, err)
	}

	out, err := execute(t, "export", "--out", path, "--user", user)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 subjects")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SubjectsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestMigrateSkipsEmbeddedDrivers(t *testing.T) {
	useSQLite(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to migrate")

	_, err = execute(t, "migrate", "sideways")
	assert.Error(t, err)
}

func TestCommandErrors(t *testing.T) {
	useSQLite(t)
	user := uuid.NewString()

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{"missing user", []string{"summary"}, errUserRequired, ""},
		{"malformed user", []string{"summary", "--user", "nobody"}, nil, "invalid --user"},
		{"subject out of range", []string{"start", "115", "--user", user}, domain.ErrInvalidSubjectID, ""},
		{"subject not a number", []string{"start", "fatiha", "--user", user}, nil, "invalid subject"},
		{"accuracy not a number", []string{"practice", "1", "high", "--user", user}, nil, "invalid accuracy"},
		{"bad as-of", []string{"reviews", "--as-of", "yesterday", "--user", user}, nil, "expected RFC3339"},
		{"missing arguments", []string{"practice", "1", "--user", user}, nil, "accepts 2 arg(s)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			if tc.wantMsg != "" {
				assert.Contains(t, err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestInvalidConfigFile(t *testing.T) {
	useSQLite(t)

	_, err := execute(t, "summary", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--user", uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}
