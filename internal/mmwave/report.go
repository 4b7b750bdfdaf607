package mmwave

import "fmt"

// Level is the severity hint attached to a Diagnostic. What to do with
// it is up to the Reporter.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Kind classifies a Diagnostic.
type Kind string

const (
	KindNoData              Kind = "no_data"
	KindResync              Kind = "resync"
	KindIncompleteHeader    Kind = "incomplete_header"
	KindIncompleteFrame     Kind = "incomplete_frame"
	KindInvalidPacketLength Kind = "invalid_packet_length"
	KindShortTLVHeader      Kind = "short_tlv_header"
	KindMalformedTLV        Kind = "malformed_tlv"
	KindInvalidPayload      Kind = "invalid_payload"
	KindTrailingBytes       Kind = "trailing_bytes"
	KindUnknownTLV          Kind = "unknown_tlv"
)

// Diagnostic is a non-fatal condition observed while decoding.
type Diagnostic struct {
	Level       Level
	Kind        Kind
	FrameNumber uint32
	Type        TLVType // zero when not tied to a TLV
	Err         error
	Message     string
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s %s", d.Level, d.Kind)
	if d.FrameNumber != 0 {
		s += fmt.Sprintf(" frame=%d", d.FrameNumber)
	}
	if d.Type != 0 {
		s += fmt.Sprintf(" tlv=%s", d.Type)
	}
	if d.Message != "" {
		s += ": " + d.Message
	}
	if d.Err != nil {
		s += fmt.Sprintf(" (%v)", d.Err)
	}
	return s
}

// Reporter receives decoder diagnostics.
type Reporter interface {
	Report(Diagnostic)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

type nopReporter struct{}

func (nopReporter) Report(Diagnostic) {}

// NopReporter discards all diagnostics.
var NopReporter Reporter = nopReporter{}

func orNop(r Reporter) Reporter {
	if r == nil {
		return NopReporter
	}
	return r
}
