package miele

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nlowe/miele/log"
)

var (
	// ErrUnparseable is wrapped by every DecodeError.
	ErrUnparseable = errors.New("unparseable value")
	// ErrExtendedState is returned when a value cannot be extracted from an extended device state blob.
	ErrExtendedState = errors.New("invalid extended device state")
	// ErrEmptyExtendedState is returned by ChannelSelector.Extract for an empty blob. Appliances report an empty
	// extended state while it is unavailable, so a Decoder does not report it as a failure.
	ErrEmptyExtendedState = errors.New("empty extended device state")
	// ErrDuplicateChannel is returned by NewRegistry when two selectors feed the same channel.
	ErrDuplicateChannel = errors.New("duplicate channel")
	// ErrEmptyChannel is returned by NewRegistry for a selector without a channel ID.
	ErrEmptyChannel = errors.New("selector has no channel")
	// ErrNoSource is returned by NewRegistry for a selector that neither reads a device property nor has a default
	// state, so it could never produce a value.
	ErrNoSource = errors.New("selector has no source key and no default state")
)

// DecodeError describes a raw value a ChannelSelector could not turn into a state. It implements slog.LogValuer.
type DecodeError struct {
	Selector *ChannelSelector
	// Raw is the value as reported by the device.
	Raw string
	// Resolved is Raw after localization, which is the string that failed to parse.
	Resolved string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q for channel %s: %v", e.Resolved, e.Selector.ChannelID(), e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrUnparseable, e.Err}
}

func (e *DecodeError) LogValue() slog.Value {
	return slog.GroupValue(
		log.Channel(e.Selector.ChannelID()),
		slog.String("source_key", e.Selector.String()),
		slog.String("kind", e.Selector.Kind().String()),
		log.Raw(e.Raw),
		slog.String("resolved", e.Resolved),
		log.Error(e.Err),
	)
}
