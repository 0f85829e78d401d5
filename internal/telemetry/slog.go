package telemetry

import (
	"log/slog"
	"os"
	"strings"
)

// SetupLogger installs the global slog logger from the logging configuration.
// format "json" selects the JSONHandler; anything else falls back to text for
// local development. level accepts debug/info/warn/error (case-insensitive),
// defaulting to info. Source locations are attached only at debug level.
//
// Installing the default logger means nothing else in the application carries
// a *slog.Logger around; package-level slog calls pick it up.
func SetupLogger(format, level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialised", "format", format, "level", lvl.String())
}
