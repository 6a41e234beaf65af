package miele

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ExtendedStateMinSize is the smallest extended device state blob, in bytes, that values are extracted from.
const ExtendedStateMinSize = 19

// Extract cuts this selector's raw value out of an extended device state blob, which appliances report as a hex
// string. The result is the decimal value in the selector's unit, ready to be decoded by State.
func (s *ChannelSelector) Extract(blob string) (string, error) {
	if s.extended == nil {
		return "", fmt.Errorf("%w: channel %s is not part of the extended state", ErrExtendedState, s.channelID)
	}

	blob = strings.TrimSpace(blob)
	if blob == "" {
		return "", ErrEmptyExtendedState
	}

	data, err := hex.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtendedState, err)
	}

	if size := max(ExtendedStateMinSize, s.extended.offset+1); len(data) < size {
		return "", fmt.Errorf("%w: got %d bytes, need at least %d", ErrExtendedState, len(data), size)
	}

	v := int(data[s.extended.offset])
	if s.extended.divisor == 1 {
		return strconv.Itoa(v), nil
	}

	return strconv.FormatFloat(float64(v)/float64(s.extended.divisor), 'f', -1, 64), nil
}
