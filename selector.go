package miele

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/guregu/null"

	"github.com/nlowe/miele/state"
)

// ValueKind is the type of state a ChannelSelector produces. It implements fmt.Stringer.
type ValueKind uint8

const (
	KindString ValueKind = iota
	KindDateTime
	KindOpenClosed
	KindOnOff
	KindQuantity
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindDateTime:
		return "datetime"
	case KindOpenClosed:
		return "open_closed"
	case KindOnOff:
		return "on_off"
	case KindQuantity:
		return "quantity"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// parseFunc turns a resolved value into a state of one ValueKind. unit is only meaningful for KindQuantity.
type parseFunc func(s string, unit state.Unit) (state.State, error)

// parsers is the generic rule for every ValueKind, used by selectors without a channel-specific rule.
var parsers = map[ValueKind]parseFunc{
	KindString: func(s string, _ state.Unit) (state.State, error) {
		return state.String(s), nil
	},
	KindDateTime: func(s string, _ state.Unit) (state.State, error) {
		return state.ParseDateTime(s)
	},
	KindOpenClosed: func(s string, _ state.Unit) (state.State, error) {
		return state.ParseOpenClosed(s)
	},
	KindOnOff: func(s string, _ state.Unit) (state.State, error) {
		return state.ParseOnOff(s)
	},
	KindQuantity: func(s string, unit state.Unit) (state.State, error) {
		return state.ParseQuantity(s, unit)
	},
}

// TimeParsePolicy decides what a minute-count channel reports when its value is not an integer. It implements
// fmt.Stringer.
type TimeParsePolicy uint8

const (
	// TimeParseDegradeToEpoch treats an unparseable minute count as zero and reports 1970-01-01T00:00:00. This is the
	// default.
	TimeParseDegradeToEpoch TimeParsePolicy = iota
	// TimeParseFail treats an unparseable minute count like any other decode failure.
	TimeParseFail
)

func (p TimeParsePolicy) String() string {
	switch p {
	case TimeParseDegradeToEpoch:
		return "degrade_to_epoch"
	case TimeParseFail:
		return "fail"
	default:
		return "unknown(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParseTimeParsePolicy parses the String form of a TimeParsePolicy. The empty string selects TimeParseDegradeToEpoch.
func ParseTimeParsePolicy(s string) (TimeParsePolicy, error) {
	switch s {
	case "", TimeParseDegradeToEpoch.String():
		return TimeParseDegradeToEpoch, nil
	case TimeParseFail.String():
		return TimeParseFail, nil
	default:
		return 0, fmt.Errorf("unknown time parse policy %q", s)
	}
}

// rule is a channel-specific decoding rule that replaces the generic parser for its ValueKind.
type rule func(s string, policy TimeParsePolicy) (state.State, error)

// extendedField locates a selector's value inside the extended device state blob.
type extendedField struct {
	offset  int
	divisor int
}

// ChannelSelector binds a device property to a channel and knows how to decode the property's raw values. Selectors
// are immutable and safe for concurrent use. It implements fmt.Stringer and slog.LogValuer.
type ChannelSelector struct {
	sourceKey null.String
	channelID string
	kind      ValueKind
	unit      state.Unit

	property bool
	extended *extendedField

	rule         rule
	defaultState state.State
}

// SelectorOption configures a ChannelSelector built by NewSelector.
type SelectorOption func(*ChannelSelector)

// AsProperty marks the selector as a static appliance property that only has to be fetched once.
func AsProperty() SelectorOption {
	return func(s *ChannelSelector) {
		s.property = true
	}
}

// FromExtendedState marks the selector as reading a single byte of the extended device state blob at offset. The byte
// is divided by divisor to get the value in the selector's unit.
func FromExtendedState(offset, divisor int) SelectorOption {
	return func(s *ChannelSelector) {
		s.extended = &extendedField{offset: offset, divisor: max(divisor, 1)}
	}
}

// WithUnit sets the unit of a KindQuantity selector.
func WithUnit(u state.Unit) SelectorOption {
	return func(s *ChannelSelector) {
		s.unit = u
	}
}

// WithDefault sets the state a selector reports before any value was received. Selectors without a source key use it
// as their only state.
func WithDefault(v state.State) SelectorOption {
	return func(s *ChannelSelector) {
		s.defaultState = v
	}
}

// MinuteTimestamp decodes values as a number of minutes since 1970-01-01T00:00:00 UTC. Appliances report start,
// finish, duration and elapsed times this way.
func MinuteTimestamp() SelectorOption {
	return func(s *ChannelSelector) {
		s.rule = minutesSinceEpoch
	}
}

// DoorSignal decodes "true" as state.Open and "false" as state.Closed. Anything else is state.Undefined rather than a
// failure.
func DoorSignal() SelectorOption {
	return func(s *ChannelSelector) {
		s.rule = doorSignal
	}
}

// NewSelector constructs a ChannelSelector reading sourceKey (or nothing, for a synthetic channel) into channelID.
func NewSelector(sourceKey null.String, channelID string, kind ValueKind, opts ...SelectorOption) *ChannelSelector {
	s := &ChannelSelector{
		sourceKey: sourceKey,
		channelID: channelID,
		kind:      kind,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SourceKey returns the device property this selector reads. It is not valid for synthetic selectors.
func (s *ChannelSelector) SourceKey() null.String {
	return s.sourceKey
}

// ChannelID returns the identifier of the channel this selector feeds.
func (s *ChannelSelector) ChannelID() string {
	return s.channelID
}

// Kind returns the ValueKind this selector produces.
func (s *ChannelSelector) Kind() ValueKind {
	return s.kind
}

// Unit returns the unit of a KindQuantity selector, or the empty Unit.
func (s *ChannelSelector) Unit() state.Unit {
	return s.unit
}

// IsProperty reports whether the selector reads a static appliance property rather than a changing state.
func (s *ChannelSelector) IsProperty() bool {
	return s.property
}

// IsExtendedState reports whether the raw value has to be extracted from the extended device state blob.
func (s *ChannelSelector) IsExtendedState() bool {
	return s.extended != nil
}

// Default returns the state reported before any value was received, if the selector has one.
func (s *ChannelSelector) Default() (state.State, bool) {
	return s.defaultState, s.defaultState != nil
}

// String returns the source key, or the channel ID for synthetic selectors.
func (s *ChannelSelector) String() string {
	if s.sourceKey.Valid {
		return s.sourceKey.String
	}

	return s.channelID
}

func (s *ChannelSelector) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source_key", s.sourceKey.String),
		slog.String("channel", s.channelID),
		slog.String("kind", s.kind.String()),
	)
}

// State decodes raw, localized by md if it is not nil, using TimeParseDegradeToEpoch. It returns a *DecodeError when
// the value cannot be decoded. Use a Decoder to have failures reported instead.
func (s *ChannelSelector) State(raw string, md *MetaData) (state.State, error) {
	return s.decode(raw, md, TimeParseDegradeToEpoch)
}

func (s *ChannelSelector) decode(raw string, md *MetaData, policy TimeParsePolicy) (state.State, error) {
	resolved := raw
	if md != nil {
		resolved = md.Resolve(raw)
	}

	v, err := s.parse(resolved, policy)
	if err != nil {
		return nil, &DecodeError{Selector: s, Raw: raw, Resolved: resolved, Err: err}
	}

	return v, nil
}

func (s *ChannelSelector) parse(resolved string, policy TimeParsePolicy) (state.State, error) {
	if s.rule != nil {
		return s.rule(resolved, policy)
	}

	parse, ok := parsers[s.kind]
	if !ok {
		return nil, fmt.Errorf("no parser for %s", s.kind)
	}

	return parse(resolved, s.unit)
}

var epoch = time.Unix(0, 0)

func minutesSinceEpoch(s string, policy TimeParsePolicy) (state.State, error) {
	minutes, err := strconv.ParseInt(s, 10, 64)
	if err == nil && (minutes > math.MaxInt64/60 || minutes < math.MinInt64/60) {
		err = fmt.Errorf("%d minutes is out of range", minutes)
	}

	if err != nil {
		if policy == TimeParseFail {
			return nil, fmt.Errorf("not a minute count: %w", err)
		}

		return state.NewDateTime(epoch), nil
	}

	return state.NewDateTime(time.Unix(minutes*60, 0)), nil
}

func doorSignal(s string, _ TimeParsePolicy) (state.State, error) {
	switch s {
	case "true":
		return state.Open, nil
	case "false":
		return state.Closed, nil
	default:
		return state.Undefined, nil
	}
}
