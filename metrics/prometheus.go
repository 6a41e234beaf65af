package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nlowe/miele"
)

const namespace = "miele"

// PrometheusReporter counts decode failures per channel.
type PrometheusReporter struct {
	failures *prometheus.CounterVec
}

var _ miele.Reporter = &PrometheusReporter{}

// NewPrometheusReporter registers the decode failure counter with reg.
func NewPrometheusReporter(reg prometheus.Registerer) (*PrometheusReporter, error) {
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Number of raw appliance values that could not be decoded into a channel state.",
		},
		[]string{
			"channel",
			"kind",
		},
	)

	if err := reg.Register(failures); err != nil {
		return nil, err
	}

	return &PrometheusReporter{failures: failures}, nil
}

func (p *PrometheusReporter) DecodeFailed(err *miele.DecodeError) {
	p.failures.WithLabelValues(err.Selector.ChannelID(), err.Selector.Kind().String()).Inc()
}
