package metrics

import (
	"fmt"
	"log/slog"

	"github.com/DataDog/datadog-go/statsd"

	"github.com/nlowe/miele"
	"github.com/nlowe/miele/log"
)

const decodeFailureMetric = "decode.failure"

// Incrementer is the part of a DogStatsD client used by StatsdReporter.
type Incrementer interface {
	Incr(name string, tags []string, rate float64) error
}

// StatsdReporter sends a DogStatsD counter for every decode failure, tagged with the channel and any extra tags.
type StatsdReporter struct {
	client Incrementer
	tags   []string

	log *slog.Logger
}

var _ miele.Reporter = &StatsdReporter{}

// NewStatsdReporter constructs a StatsdReporter sending through client.
func NewStatsdReporter(client Incrementer, tags ...string) *StatsdReporter {
	return &StatsdReporter{
		client: client,
		tags:   tags,
		log:    log.ForComponent("metrics.statsd"),
	}
}

// DialStatsd creates a DogStatsD client for address with the "miele." namespace and a StatsdReporter using it. Close
// the returned client on shutdown.
func DialStatsd(address string, tags ...string) (*StatsdReporter, *statsd.Client, error) {
	client, err := statsd.New(address, statsd.WithNamespace(namespace+"."))
	if err != nil {
		return nil, nil, fmt.Errorf("statsd: %w", err)
	}

	return NewStatsdReporter(client, tags...), client, nil
}

// FormatTag formats a DogStatsD key:value tag.
func FormatTag(key, value string) string {
	return fmt.Sprintf("%s:%s", key, value)
}

func (s *StatsdReporter) DecodeFailed(err *miele.DecodeError) {
	tags := make([]string, 0, len(s.tags)+2)
	tags = append(tags, s.tags...)
	tags = append(tags,
		FormatTag("channel", err.Selector.ChannelID()),
		FormatTag("kind", err.Selector.Kind().String()),
	)

	if sendErr := s.client.Incr(decodeFailureMetric, tags, 1); sendErr != nil {
		s.log.With(log.Error(sendErr)).Warn("Failed to send decode failure metric")
	}
}
