package reminder

import (
	"context"
	"log/slog"
)

// LogNotifier writes reminders to a logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With(slog.String("component", "log_notifier"))}
}

// Notify logs the number of due reviews and the most urgent one.
func (n *LogNotifier) Notify(ctx context.Context, r Reminder) error {
	if len(r.Reviews) == 0 {
		return nil
	}
	top := r.Reviews[0]
	n.logger.InfoContext(ctx, "reviews due",
		slog.String("user_id", r.UserID.String()),
		slog.Int("due", len(r.Reviews)),
		slog.Int("top_subject_id", top.SubjectID),
		slog.String("top_display_name", top.DisplayName),
		slog.String("top_priority", string(top.Priority)),
		slog.String("top_reason", top.Reason))
	return nil
}
