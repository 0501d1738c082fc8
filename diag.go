package brokerimport

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Diagnostics is the sink for non-fatal findings made while ingesting broker
// data: missing optional files, deduplicated transactions, partially
// supported corporate actions. It is injected into every component so that
// message emission stays decoupled from presentation. Fatal structural errors
// never go through this sink, they are returned as errors.
type Diagnostics struct {
	log *slog.Logger
}

// NewDiagnostics returns a sink writing structured records to the given logger.
func NewDiagnostics(l *slog.Logger) *Diagnostics {
	return &Diagnostics{log: l}
}

// NewDiagnosticsSink returns a sink writing text records to stderr at the
// given level ("debug", "info", "warn", "error").
func NewDiagnosticsSink(level string) *Diagnostics {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return &Diagnostics{log: slog.New(handler)}
}

// Discard returns a sink that drops everything. Useful in tests.
func Discard() *Diagnostics {
	return &Diagnostics{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (d *Diagnostics) logger() *slog.Logger {
	if d == nil || d.log == nil {
		return slog.Default()
	}
	return d.log
}

// Info reports a noteworthy but expected event.
func (d *Diagnostics) Info(msg string, args ...any) { d.logger().Info(msg, args...) }

// Warn reports a non-fatal anomaly the user should review.
func (d *Diagnostics) Warn(msg string, args ...any) { d.logger().Warn(msg, args...) }
