package miele

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// extendedState builds an upper case hex blob of size bytes with the given byte values set.
func extendedState(size int, values map[int]byte) string {
	data := make([]byte, size)
	for offset, v := range values {
		data[offset] = v
	}

	return strings.ToUpper(hex.EncodeToString(data))
}

func TestExtract(t *testing.T) {
	blob := extendedState(ExtendedStateMinSize, map[int]byte{16: 12, 18: 0xFA})

	power, err := DishwasherPowerConsumption.Extract(blob)
	require.NoError(t, err)
	assert.Equal(t, "1.2", power)

	water, err := DishwasherWaterConsumption.Extract(blob)
	require.NoError(t, err)
	assert.Equal(t, "250", water)

	t.Run("Lower case hex", func(t *testing.T) {
		water, err := DishwasherWaterConsumption.Extract(strings.ToLower(blob))
		require.NoError(t, err)
		assert.Equal(t, "250", water)
	})

	t.Run("Too short", func(t *testing.T) {
		_, err := DishwasherWaterConsumption.Extract(extendedState(ExtendedStateMinSize-1, nil))
		require.ErrorIs(t, err, ErrExtendedState)
	})

	t.Run("Not hex", func(t *testing.T) {
		_, err := DishwasherPowerConsumption.Extract("zz")
		require.ErrorIs(t, err, ErrExtendedState)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := DishwasherPowerConsumption.Extract("  ")
		require.ErrorIs(t, err, ErrEmptyExtendedState)
	})

	t.Run("Not an extended selector", func(t *testing.T) {
		_, err := DishwasherDoor.Extract(blob)
		require.ErrorIs(t, err, ErrExtendedState)
	})
}
