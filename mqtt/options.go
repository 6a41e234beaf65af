package mqtt

import (
	"fmt"
	"log/slog"
)

// QualityOfService determines what level of guarantee the broker should provide when delivering messages. It implements
// fmt.Stringer and slog.LogValuer.
type QualityOfService uint8

func (q QualityOfService) String() string {
	switch q {
	case QOSAtMostOnce:
		return "at most once (0)"
	case QOSAtLeastOnce:
		return "at least once (1)"
	case QOSExactlyOnce:
		return "exactly once (2)"
	default:
		return fmt.Sprintf("invalid (%d)", uint8(q))
	}
}

func (q QualityOfService) LogValue() slog.Value {
	return slog.StringValue(q.String())
}

// Valid reports whether q is one of the three levels defined by MQTT.
func (q QualityOfService) Valid() bool {
	return q <= QOSExactlyOnce
}

const (
	// QOSAtMostOnce offers "fire and forget" messaging with no acknowledgment from the receiver. This is the default.
	QOSAtMostOnce QualityOfService = iota
	// QOSAtLeastOnce ensures that messages are delivered at least once by requiring a PUBACK acknowledgment.
	QOSAtLeastOnce
	// QOSExactlyOnce guarantees that each message is delivered exactly once.
	QOSExactlyOnce
)

// WriteOptions holds options for publishing channel states. The zero value uses a QoS of 0 with no retain. It
// implements slog.LogValuer.
type WriteOptions struct {
	QoS QualityOfService

	// Retain instructs the broker to keep the last state of a channel and hand it to new subscribers.
	Retain bool
}

func (w WriteOptions) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("qos", w.QoS),
		slog.Bool("retain", w.Retain),
	)
}

// ReadOptions holds options for subscribing to raw appliance reports. It implements slog.LogValuer.
type ReadOptions struct {
	QoS QualityOfService

	// NoLocal asks the broker not to echo messages published by this client.
	NoLocal bool
}

func (r ReadOptions) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("qos", r.QoS),
		slog.Bool("no_local", r.NoLocal),
	)
}
