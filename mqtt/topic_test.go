package mqtt

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimTopic(t *testing.T) {
	for _, tt := range []struct {
		topic string
		want  string
	}{
		{topic: "", want: ""},
		{topic: "/", want: ""},
		{topic: "/a", want: "a"},
		{topic: "a/", want: "a"},
		{topic: "/a/b/", want: "a/b"},
		{topic: "a/b", want: "a/b"},
	} {
		t.Run(tt.topic, func(t *testing.T) {
			require.Equal(t, tt.want, TrimTopic(tt.topic))
		})
	}
}

func TestJoinTopic(t *testing.T) {
	for i, tt := range []struct {
		parts []string
		want  string
	}{
		// JoinTopic should drop empty parts
		{parts: []string{""}, want: ""},
		{parts: []string{"", ""}, want: ""},
		{parts: []string{"", "a"}, want: "a"},
		{parts: []string{"a", ""}, want: "a"},
		{parts: []string{"", "a", "", "b"}, want: "a/b"},

		// JoinTopic should trim each individual part
		{parts: []string{"a", "/", "b"}, want: "a/b"},
		{parts: []string{"/a/", "b"}, want: "a/b"},
		{parts: []string{"/a/b/", "c"}, want: "a/b/c"},
		{parts: []string{"miele", "dishwasher-1", "raw", "signalDoor"}, want: "miele/dishwasher-1/raw/signalDoor"},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			require.Equal(t, tt.want, JoinTopic(tt.parts...))
		})
	}
}

func TestCutTopicPrefix(t *testing.T) {
	for _, tt := range []struct {
		topic, prefix string
		want          string
		ok            bool
	}{
		{topic: "miele/dw/raw/state", prefix: "miele/dw", want: "raw/state", ok: true},
		{topic: "miele/dw/raw/state", prefix: "/miele/dw/", want: "raw/state", ok: true},
		{topic: "miele/dw", prefix: "miele/dw", want: "", ok: true},
		{topic: "miele/dw2/raw/state", prefix: "miele/dw", ok: false},
		{topic: "other/dw/raw/state", prefix: "miele/dw", ok: false},
		{topic: "a/b", prefix: "", want: "a/b", ok: true},
	} {
		t.Run(tt.topic+"|"+tt.prefix, func(t *testing.T) {
			got, ok := CutTopicPrefix(tt.topic, tt.prefix)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidTopicLevel(t *testing.T) {
	assert.True(t, ValidTopicLevel("dishwasher-1"))
	assert.False(t, ValidTopicLevel(""))
	assert.False(t, ValidTopicLevel("a/b"))
	assert.False(t, ValidTopicLevel("+"))
	assert.False(t, ValidTopicLevel("kitchen#"))
}
