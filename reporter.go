package miele

import (
	"log/slog"

	"github.com/nlowe/miele/log"
)

// Reporter receives every failure a Decoder runs into. Decoders call it from whatever goroutine is decoding, so
// implementations must be safe for concurrent use and should not block.
type Reporter interface {
	DecodeFailed(err *DecodeError)
}

// The ReporterFunc type is an adapter to allow the use of ordinary functions as a Reporter.
type ReporterFunc func(*DecodeError)

func (f ReporterFunc) DecodeFailed(err *DecodeError) {
	f(err)
}

// MultiReporter hands each failure to every Reporter in order.
type MultiReporter []Reporter

func (m MultiReporter) DecodeFailed(err *DecodeError) {
	for _, r := range m {
		r.DecodeFailed(err)
	}
}

type logReporter struct {
	log *slog.Logger
}

// LogReporter returns a Reporter that logs failures at warn level. If l is nil, the logger for the "decoder"
// component is used; see the log package for configuring it.
func LogReporter(l *slog.Logger) Reporter {
	if l == nil {
		l = log.ForComponent("decoder")
	}

	return &logReporter{log: l}
}

func (r *logReporter) DecodeFailed(err *DecodeError) {
	r.log.With(slog.Any("failure", err)).Warn("Failed to decode channel value")
}
