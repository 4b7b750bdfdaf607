package monitoring

import (
	"log"

	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// DecodeReporter forwards decoder diagnostics at or above MinLevel to
// Logf.
type DecodeReporter struct {
	Prefix   string
	MinLevel mmwave.Level
}

// NewDecodeReporter returns a reporter logging diagnostics at or above
// min, tagged with the given prefix (usually the port name).
func NewDecodeReporter(prefix string, min mmwave.Level) *DecodeReporter {
	return &DecodeReporter{Prefix: prefix, MinLevel: min}
}

func (r *DecodeReporter) Report(d mmwave.Diagnostic) {
	if d.Level < r.MinLevel {
		return
	}
	if r.Prefix != "" {
		Logf("[%s] %s", r.Prefix, d)
		return
	}
	Logf("%s", d)
}

// ParseLevel maps a config string to a decoder level. Unknown values
// fall back to warn.
func ParseLevel(s string) mmwave.Level {
	switch s {
	case "debug":
		return mmwave.LevelDebug
	case "info":
		return mmwave.LevelInfo
	case "error":
		return mmwave.LevelError
	default:
		return mmwave.LevelWarn
	}
}
