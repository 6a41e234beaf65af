package miele

import (
	"strconv"
	"testing"
	"time"

	"github.com/guregu/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlowe/miele/state"
)

func TestMinuteTimestamps(t *testing.T) {
	for _, sel := range []*ChannelSelector{DishwasherStartTime, DishwasherDuration, DishwasherElapsedTime, DishwasherFinishTime} {
		t.Run(sel.ChannelID(), func(t *testing.T) {
			for _, tt := range []struct {
				raw  string
				want string
			}{
				{raw: "0", want: "1970-01-01T00:00:00"},
				{raw: "1", want: "1970-01-01T00:01:00"},
				{raw: "90", want: "1970-01-01T01:30:00"},
				{raw: "1440", want: "1970-01-02T00:00:00"},
				{raw: "-1", want: "1969-12-31T23:59:00"},
				{raw: "+5", want: "1970-01-01T00:05:00"},
				{raw: "abc", want: "1970-01-01T00:00:00"},
				{raw: "", want: "1970-01-01T00:00:00"},
				{raw: "1.5", want: "1970-01-01T00:00:00"},
				{raw: " 1", want: "1970-01-01T00:00:00"},
				{raw: "99999999999999999999", want: "1970-01-01T00:00:00"},
			} {
				t.Run(tt.raw, func(t *testing.T) {
					got, err := sel.State(tt.raw, nil)
					require.NoError(t, err)
					require.IsType(t, state.DateTime{}, got)
					assert.Equal(t, tt.want, got.String())
				})
			}
		})
	}
}

func TestMinuteTimestampMatchesOffset(t *testing.T) {
	for _, minutes := range []int64{0, 1, 59, 60, 525600, 27_000_000, -30} {
		t.Run(strconv.FormatInt(minutes, 10), func(t *testing.T) {
			got, err := DishwasherFinishTime.State(strconv.FormatInt(minutes, 10), nil)
			require.NoError(t, err)

			want := time.UnixMilli(minutes * 60000).UTC()
			assert.True(t, want.Equal(got.(state.DateTime).Time), "want %s got %s", want, got)
			assert.Equal(t, want.Format(state.DateTimeLayout), got.String())
		})
	}
}

func TestMinuteTimestampFailPolicy(t *testing.T) {
	_, err := DishwasherStartTime.decode("abc", nil, TimeParseFail)
	require.ErrorIs(t, err, ErrUnparseable)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Same(t, DishwasherStartTime, decodeErr.Selector)
	assert.Equal(t, "abc", decodeErr.Raw)

	got, err := DishwasherStartTime.decode("2", nil, TimeParseFail)
	require.NoError(t, err)
	assert.Equal(t, "1970-01-01T00:02:00", got.String())
}

func TestDoorSignal(t *testing.T) {
	for _, tt := range []struct {
		raw  string
		want state.State
	}{
		{raw: "true", want: state.Open},
		{raw: "false", want: state.Closed},
		{raw: "unknown", want: state.Undefined},
		{raw: "TRUE", want: state.Undefined},
		{raw: "OPEN", want: state.Undefined},
		{raw: "", want: state.Undefined},
	} {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := DishwasherDoor.State(tt.raw, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringChannelsNeverFail(t *testing.T) {
	for _, raw := range []string{"", "Running", "  padded ", "1", "ÄÖÜ"} {
		got, err := DishwasherProgram.State(raw, nil)
		require.NoError(t, err)
		assert.Equal(t, state.String(raw), got)
	}
}

func TestSwitch(t *testing.T) {
	got, err := DishwasherSwitch.State("ON", nil)
	require.NoError(t, err)
	assert.Equal(t, state.On, got)

	_, err = DishwasherSwitch.State("yes", nil)
	require.ErrorIs(t, err, ErrUnparseable)
	require.ErrorIs(t, err, state.ErrInvalid)

	def, ok := DishwasherSwitch.Default()
	require.True(t, ok)
	assert.Equal(t, state.Off, def)
	assert.False(t, DishwasherSwitch.SourceKey().Valid)
	assert.Equal(t, "switch", DishwasherSwitch.String())
}

func TestQuantityChannels(t *testing.T) {
	got, err := DishwasherPowerConsumption.State("1.2", nil)
	require.NoError(t, err)
	assert.Equal(t, state.Quantity{Value: 1.2, Unit: state.KilowattHour}, got)

	got, err = DishwasherWaterConsumption.State("12 l", nil)
	require.NoError(t, err)
	assert.Equal(t, state.Quantity{Value: 12, Unit: state.Litre}, got)

	_, err = DishwasherWaterConsumption.State("twelve", nil)
	require.ErrorIs(t, err, ErrUnparseable)
}

func TestGenericKinds(t *testing.T) {
	t.Run("DateTime without minute rule", func(t *testing.T) {
		sel := NewSelector(null.StringFrom("lastSeen"), "lastSeen", KindDateTime)

		got, err := sel.State("2021-03-04T05:06:07", nil)
		require.NoError(t, err)
		assert.Equal(t, "2021-03-04T05:06:07", got.String())

		_, err = sel.State("10", nil)
		require.ErrorIs(t, err, ErrUnparseable)
	})

	t.Run("OpenClosed without door rule", func(t *testing.T) {
		sel := NewSelector(null.StringFrom("lid"), "lid", KindOpenClosed)

		got, err := sel.State("CLOSED", nil)
		require.NoError(t, err)
		assert.Equal(t, state.Closed, got)

		_, err = sel.State("true", nil)
		require.ErrorIs(t, err, ErrUnparseable)
	})

	t.Run("Unknown kind", func(t *testing.T) {
		sel := NewSelector(null.StringFrom("x"), "x", ValueKind(42))

		_, err := sel.State("x", nil)
		require.ErrorIs(t, err, ErrUnparseable)
		assert.Equal(t, "unknown(42)", sel.Kind().String())
	})
}

func TestLocalizationFeedsTypedParsing(t *testing.T) {
	md := &MetaData{Enum: Enum{{Key: "ON", Value: "Ein"}, {Key: "OFF", Value: "Aus"}}}

	got, err := DishwasherSwitch.State(" Aus ", md)
	require.NoError(t, err)
	assert.Equal(t, state.Off, got)

	door := &MetaData{LocalizedValue: null.StringFrom("Geschlossen")}
	got, err = DishwasherDoor.State("false", door)
	require.NoError(t, err)
	assert.Equal(t, state.Undefined, got, "the localized value replaces the raw signal")

	_, err = DishwasherSwitch.State("Halb", md)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "Halb", decodeErr.Raw)
	assert.Equal(t, "Halb", decodeErr.Resolved)
}

func TestParseTimeParsePolicy(t *testing.T) {
	for _, p := range []TimeParsePolicy{TimeParseDegradeToEpoch, TimeParseFail} {
		got, err := ParseTimeParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := ParseTimeParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, TimeParseDegradeToEpoch, got)

	_, err = ParseTimeParsePolicy("explode")
	require.Error(t, err)
}
