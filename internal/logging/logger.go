package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithLedger returns a logger with investment-ledger context fields attached.
// Use this for all logging within an invest or cancel operation.
func WithLedger(operation, userID, projectID string) *slog.Logger {
	return slog.With(
		"operation", operation,
		"user_id", userID,
		"project_id", projectID,
	)
}

// WithDispatch returns a logger scoped to a fire-and-forget dispatch attempt
func WithDispatch(kind, recipient string) *slog.Logger {
	return slog.With(
		"dispatch_kind", kind,
		"recipient", recipient,
	)
}
