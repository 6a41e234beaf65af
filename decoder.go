package miele

import (
	"errors"
	"log/slog"

	"github.com/nlowe/miele/log"
	"github.com/nlowe/miele/state"
)

// Decoder decodes raw values for any selector and reports failures instead of returning them. The zero value is not
// usable; construct one with NewDecoder. A Decoder is safe for concurrent use.
type Decoder struct {
	reporter   Reporter
	timePolicy TimeParsePolicy

	log *slog.Logger
}

// DecoderOption configures a Decoder built by NewDecoder.
type DecoderOption func(*Decoder)

// WithReporter sets the Reporter failures are handed to. The default is LogReporter(nil).
func WithReporter(r Reporter) DecoderOption {
	return func(d *Decoder) {
		d.reporter = r
	}
}

// WithTimeParsePolicy sets how minute-count channels treat values that are not integers. The default is
// TimeParseDegradeToEpoch.
func WithTimeParsePolicy(p TimeParsePolicy) DecoderOption {
	return func(d *Decoder) {
		d.timePolicy = p
	}
}

// NewDecoder constructs a Decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		timePolicy: TimeParseDegradeToEpoch,
		log:        log.ForComponent("decoder"),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.reporter == nil {
		d.reporter = LogReporter(d.log)
	}

	return d
}

// Decode decodes raw for sel, localized by md if it is not nil. The second return value is false when the value could
// not be decoded, in which case the failure has been reported and the channel has no state this cycle.
func (d *Decoder) Decode(sel *ChannelSelector, raw string, md *MetaData) (state.State, bool) {
	v, err := sel.decode(raw, md, d.timePolicy)
	if err != nil {
		d.report(sel, raw, err)
		return nil, false
	}

	return v, true
}

// DecodeExtended extracts sel's value from an extended device state blob and decodes it. An empty blob yields no
// state without reporting a failure.
func (d *Decoder) DecodeExtended(sel *ChannelSelector, blob string) (state.State, bool) {
	raw, err := sel.Extract(blob)
	if errors.Is(err, ErrEmptyExtendedState) {
		d.log.With(log.Channel(sel.ChannelID())).Debug("Extended device state is empty")
		return nil, false
	}

	if err != nil {
		d.report(sel, blob, &DecodeError{Selector: sel, Raw: blob, Resolved: blob, Err: err})
		return nil, false
	}

	return d.Decode(sel, raw, nil)
}

func (d *Decoder) report(sel *ChannelSelector, raw string, err error) {
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		decodeErr = &DecodeError{Selector: sel, Raw: raw, Resolved: raw, Err: err}
	}

	d.reporter.DecodeFailed(decodeErr)
}
