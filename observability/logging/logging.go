// Package logging configures the consortium daemon's structured JSON log
// stream.
package logging

import (
	"log"
	"log/slog"
	"os"
	"strings"
)

// Setup builds the daemon's JSON logger, tags every line with the service
// name and deployment environment, and installs it as the slog default.
// Verbosity comes from DBC_LOG_LEVEL (debug, info, warn, error); unset means
// info.
func Setup(service, env string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       levelFromEnv(os.Getenv("DBC_LOG_LEVEL")),
		ReplaceAttr: renameCoreKeys,
	})

	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}

	tagged := handler.WithAttrs(attrs)
	logger := slog.New(tagged)
	slog.SetDefault(logger)

	// net/http servers report accept and handshake failures through the
	// standard library logger; route those lines into the same JSON stream.
	bridge := slog.NewLogLogger(tagged, slog.LevelWarn)
	log.SetOutput(bridge.Writer())
	log.SetFlags(0)

	return logger
}

func levelFromEnv(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// renameCoreKeys maps slog's default keys onto the field names the log
// pipeline indexes on.
func renameCoreKeys(groups []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "timestamp"
	case slog.LevelKey:
		return slog.String("severity", strings.ToUpper(attr.Value.String()))
	case slog.MessageKey:
		attr.Key = "message"
	}
	return attr
}
