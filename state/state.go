package state

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nlowe/miele/mqtt"
)

// ErrInvalid is wrapped by every parse function in this package when the input is not a valid representation of the
// requested type.
var ErrInvalid = errors.New("invalid state")

// DateTimeLayout is the layout used to print and parse DateTime values. There is no zone suffix, values are always UTC.
const DateTimeLayout = "2006-01-02T15:04:05"

// State is a decoded channel value.
type State interface {
	fmt.Stringer
}

var (
	// Marshaler writes the textual form of any State to MQTT.
	Marshaler mqtt.ValueMarshaler[State] = func(v State) ([]byte, error) {
		if v == nil {
			return nil, fmt.Errorf("%w: nil", ErrInvalid)
		}

		return mqtt.StringMarshaler(v.String())
	}
)

// String is a free-form text state.
type String string

func (s String) String() string {
	return string(s)
}

// OnOff is the state of a switch-like channel.
type OnOff string

const (
	On  OnOff = "ON"
	Off OnOff = "OFF"
)

func (o OnOff) String() string {
	return string(o)
}

// ParseOnOff accepts exactly "ON" or "OFF".
func ParseOnOff(s string) (OnOff, error) {
	switch OnOff(s) {
	case On, Off:
		return OnOff(s), nil
	default:
		return "", fmt.Errorf("%w: %q is not an on/off value", ErrInvalid, s)
	}
}

// OpenClosed is the state of a contact such as a door.
type OpenClosed string

const (
	Open   OpenClosed = "OPEN"
	Closed OpenClosed = "CLOSED"
)

func (o OpenClosed) String() string {
	return string(o)
}

// ParseOpenClosed accepts exactly "OPEN" or "CLOSED".
func ParseOpenClosed(s string) (OpenClosed, error) {
	switch OpenClosed(s) {
	case Open, Closed:
		return OpenClosed(s), nil
	default:
		return "", fmt.Errorf("%w: %q is not an open/closed value", ErrInvalid, s)
	}
}

// DateTime is a point in time, held and printed in UTC with second precision.
type DateTime struct {
	time.Time
}

// NewDateTime converts t to UTC and truncates it to whole seconds.
func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t.UTC().Truncate(time.Second)}
}

func (d DateTime) String() string {
	return d.UTC().Format(DateTimeLayout)
}

// ParseDateTime parses a timestamp in DateTimeLayout as UTC.
func ParseDateTime(s string) (DateTime, error) {
	t, err := time.ParseInLocation(DateTimeLayout, s, time.UTC)
	if err != nil {
		return DateTime{}, fmt.Errorf("%w: %q is not a timestamp: %w", ErrInvalid, s, err)
	}

	return DateTime{Time: t}, nil
}

// Quantity is a measured magnitude in a specific Unit. It implements fmt.Stringer and slog.LogValuer.
type Quantity struct {
	Value float64
	Unit  Unit
}

func (q Quantity) String() string {
	return strconv.FormatFloat(q.Value, 'f', -1, 64) + " " + string(q.Unit)
}

func (q Quantity) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("value", q.Value),
		slog.String("unit", string(q.Unit)),
	)
}

// ParseQuantity parses a finite number, optionally followed by whitespace and a unit symbol, as a Quantity in unit. A
// unit symbol other than unit is rejected; no conversion between units is performed.
func ParseQuantity(s string, unit Unit) (Quantity, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
	case 2:
		if Unit(fields[1]) != unit {
			return Quantity{}, fmt.Errorf("%w: %q is not expressed in %s", ErrInvalid, s, unit)
		}
	default:
		return Quantity{}, fmt.Errorf("%w: %q is not a quantity", ErrInvalid, s)
	}

	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("%w: %q is not a number: %w", ErrInvalid, s, err)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Quantity{}, fmt.Errorf("%w: %q is not finite", ErrInvalid, s)
	}

	return Quantity{Value: v, Unit: unit}, nil
}

// UnDef is the explicit "no meaningful value" state. It is a real state that gets published, unlike a failed decode
// which publishes nothing.
type UnDef struct{}

// Undefined is the only UnDef value.
var Undefined = UnDef{}

func (UnDef) String() string {
	return "UNDEF"
}
