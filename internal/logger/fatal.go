package logger

import (
	"fmt"
	"log/slog"
	"os"
)

// Fatal logs msg at error level to the default slog logger and exits(1).
// Only use this before a StyledLogger exists (e.g. while still parsing
// config); once one is built, prefer FatalWithLogger so the failure goes
// through the same handler and theme as the rest of startup.
func Fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

// Fatalf formats a message and exits(1), for callers that want printf-style
// formatting instead of slog's key/value args.
func Fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}

// FatalWithLogger logs msg at error level through logger and exits(1). Used
// by main once the configured logger is available, so a fatal startup error
// (bad config, listener bind failure) is reported through the same handler
// the rest of the run uses.
func FatalWithLogger(logger *slog.Logger, msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}
