package miele

import (
	"bytes"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlowe/miele/state"
)

type recordingReporter struct {
	mu       sync.Mutex
	failures []*DecodeError
}

func (r *recordingReporter) DecodeFailed(err *DecodeError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, err)
}

func (r *recordingReporter) Failures() []*DecodeError {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*DecodeError(nil), r.failures...)
}

func TestDecoderReportsFailures(t *testing.T) {
	rep := &recordingReporter{}
	sut := NewDecoder(WithReporter(rep))

	v, ok := sut.Decode(DishwasherPowerConsumption, "1.5", nil)
	require.True(t, ok)
	assert.Equal(t, state.Quantity{Value: 1.5, Unit: state.KilowattHour}, v)

	v, ok = sut.Decode(DishwasherWaterConsumption, "a lot", nil)
	require.False(t, ok)
	assert.Nil(t, v)

	// A failure on one channel does not affect the next one in the same cycle.
	v, ok = sut.Decode(DishwasherWaterConsumption, "3", nil)
	require.True(t, ok)
	assert.Equal(t, state.Quantity{Value: 3, Unit: state.Litre}, v)

	v, ok = sut.Decode(DishwasherDoor, "unknown", nil)
	require.True(t, ok)
	assert.Equal(t, state.Undefined, v)

	failures := rep.Failures()
	require.Len(t, failures, 1)
	assert.Same(t, DishwasherWaterConsumption, failures[0].Selector)
	assert.Equal(t, "a lot", failures[0].Raw)
	assert.ErrorIs(t, failures[0], ErrUnparseable)
}

func TestDecoderTimeParsePolicy(t *testing.T) {
	t.Run("Default degrades to epoch", func(t *testing.T) {
		rep := &recordingReporter{}
		sut := NewDecoder(WithReporter(rep))

		v, ok := sut.Decode(DishwasherElapsedTime, "abc", nil)
		require.True(t, ok)
		assert.Equal(t, "1970-01-01T00:00:00", v.String())
		assert.Empty(t, rep.Failures())
	})

	t.Run("Fail reports", func(t *testing.T) {
		rep := &recordingReporter{}
		sut := NewDecoder(WithReporter(rep), WithTimeParsePolicy(TimeParseFail))

		_, ok := sut.Decode(DishwasherElapsedTime, "abc", nil)
		require.False(t, ok)
		require.Len(t, rep.Failures(), 1)

		v, ok := sut.Decode(DishwasherElapsedTime, "61", nil)
		require.True(t, ok)
		assert.Equal(t, "1970-01-01T01:01:00", v.String())
	})
}

func TestDecodeExtended(t *testing.T) {
	rep := &recordingReporter{}
	sut := NewDecoder(WithReporter(rep))

	blob := extendedState(ExtendedStateMinSize, map[int]byte{16: 7, 18: 11})

	v, ok := sut.DecodeExtended(DishwasherPowerConsumption, blob)
	require.True(t, ok)
	assert.Equal(t, state.Quantity{Value: 0.7, Unit: state.KilowattHour}, v)

	v, ok = sut.DecodeExtended(DishwasherWaterConsumption, blob)
	require.True(t, ok)
	assert.Equal(t, state.Quantity{Value: 11, Unit: state.Litre}, v)

	_, ok = sut.DecodeExtended(DishwasherWaterConsumption, "")
	require.False(t, ok)
	assert.Empty(t, rep.Failures(), "an empty blob is not a failure")

	_, ok = sut.DecodeExtended(DishwasherWaterConsumption, "00FF")
	require.False(t, ok)

	failures := rep.Failures()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], ErrExtendedState)
	assert.ErrorIs(t, failures[0], ErrUnparseable)
	assert.Equal(t, "00FF", failures[0].Raw)
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	sut := NewDecoder(WithReporter(LogReporter(slog.New(slog.NewTextHandler(&buf, nil)))))

	_, ok := sut.Decode(DishwasherSwitch, "maybe", nil)
	require.False(t, ok)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "failure.channel=switch")
	assert.Contains(t, out, "failure.raw=maybe")
}

func TestMultiReporter(t *testing.T) {
	a, b := &recordingReporter{}, &recordingReporter{}
	var calls int

	sut := NewDecoder(WithReporter(MultiReporter{a, b, ReporterFunc(func(*DecodeError) { calls++ })}))
	_, ok := sut.Decode(DishwasherSwitch, "maybe", nil)
	require.False(t, ok)

	assert.Len(t, a.Failures(), 1)
	assert.Len(t, b.Failures(), 1)
	assert.Equal(t, 1, calls)
}

func TestDecodeConcurrently(t *testing.T) {
	rep := &recordingReporter{}
	sut := NewDecoder(WithReporter(rep))

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			minutes := strconv.Itoa(i)
			v, ok := sut.Decode(DishwasherStartTime, minutes, &MetaData{Enum: Enum{{Key: minutes, Value: "x" + minutes}}})
			assert.True(t, ok)
			assert.Equal(t, expectedMinute(i), v.String())

			_, ok = sut.Decode(DishwasherSwitch, "bad", nil)
			assert.False(t, ok)
		}()
	}
	wg.Wait()

	assert.Len(t, rep.Failures(), 32)
}

// expectedMinute formats the timestamp i minutes after the epoch.
func expectedMinute(i int) string {
	return time.Unix(int64(i)*60, 0).UTC().Format(state.DateTimeLayout)
}
