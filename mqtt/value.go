package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nlowe/miele/log"
)

// ErrNoMarshaler is the error returned when a Value does not have an associated ValueMarshaler, which is required to
// write the value to MQTT.
var ErrNoMarshaler = errors.New("no marshaler configured")

// Value holds the last value written to a topic, such as the published state of one channel.
type Value[T any] struct {
	topic string

	marshaler ValueMarshaler[T]
	opts      WriteOptions

	mu sync.RWMutex

	v           T
	initialized bool
}

// NewValue constructs a Value for the provided topic that encodes values with marshal and writes them with opts.
func NewValue[T any](topic string, marshal ValueMarshaler[T], opts WriteOptions) *Value[T] {
	return &Value[T]{
		topic:     topic,
		marshaler: marshal,
		opts:      opts,
	}
}

// FullyQualifiedTopic calculates the MQTT Topic for this value when given the specified prefix. If the underlying Value
// (not the value it holds) is nil, the empty string is returned.
func (v *Value[T]) FullyQualifiedTopic(prefix string) string {
	if v == nil {
		return ""
	}

	return JoinTopic(prefix, v.topic)
}

// Get returns the most recently written value and whether anything has been written yet.
func (v *Value[T]) Get() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.v, v.initialized
}

// Write encodes newValue and publishes it below prefix. The held value is only updated if encoding succeeds.
func (v *Value[T]) Write(ctx context.Context, w Writer, prefix string, newValue T) error {
	if v.marshaler == nil {
		return ErrNoMarshaler
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := v.marshaler(newValue)
	if err != nil {
		return fmt.Errorf("marshal %+v: %w", newValue, err)
	}

	v.v = newValue
	v.initialized = true
	return w.WriteTopic(ctx, JoinTopic(prefix, v.topic), v.opts, data)
}

// RemoteValue holds the last value received on a subscribed topic, such as the raw report for one appliance property.
type RemoteValue[T any] struct {
	topic       string
	unmarshaler ValueUnmarshaler[T]
	opts        ReadOptions

	mu sync.RWMutex

	watchers []func(T)

	v           T
	initialized bool

	log *slog.Logger
}

// NewRemoteValue constructs a RemoteValue for the provided topic that decodes payloads with unmarshaler. A nil
// unmarshaler decodes json.
func NewRemoteValue[T any](topic string, unmarshaler ValueUnmarshaler[T], opts ReadOptions) *RemoteValue[T] {
	if unmarshaler == nil {
		unmarshaler = JsonValueUnmarshaler[T]()
	}

	return &RemoteValue[T]{
		topic:       topic,
		unmarshaler: unmarshaler,
		opts:        opts,

		log: log.ForComponent("mqtt.value.remote").With(slog.String("topic", topic)),
	}
}

// ServeMQTT implements Handler. Payloads for other topics are ignored. If the payload cannot be decoded, a warning is
// logged and watchers are not called.
func (v *RemoteValue[T]) ServeMQTT(_ Writer, topic string, payload []byte) {
	if v == nil || v.topic != topic {
		return
	}

	parsed, err := v.unmarshaler(payload)
	if err != nil {
		v.log.With(log.Error(err)).Warn("Failed to unmarshal payload from mqtt")
		return
	}

	v.mu.Lock()
	v.v, v.initialized = parsed, true
	watchers := v.watchers
	v.mu.Unlock()

	v.log.With(slog.Int("count", len(watchers))).Debug("Received new value from mqtt")
	for _, w := range watchers {
		w(parsed)
	}
}

// FullyQualifiedTopic calculates the MQTT Topic for this value when given the specified prefix. If the underlying
// RemoteValue (not the value it holds) is nil, the empty string is returned.
func (v *RemoteValue[T]) FullyQualifiedTopic(prefix string) string {
	if v == nil {
		return ""
	}

	return JoinTopic(prefix, v.topic)
}

// AppendSubscription adds the Subscription for this RemoteValue to existing if it is not nil and has a topic.
func (v *RemoteValue[T]) AppendSubscription(existing []Subscription, prefix string) []Subscription {
	if v == nil || v.topic == "" {
		return existing
	}

	return append(existing, Subscription{
		Topic:   v.FullyQualifiedTopic(prefix),
		Options: v.opts,
	})
}

// Get returns the most recent value received from mqtt and whether one has been received yet.
func (v *RemoteValue[T]) Get() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.v, v.initialized
}

// Watch registers a callback for every value received after this call. Watchers are called serially from the
// goroutine delivering the message and must not block.
func (v *RemoteValue[T]) Watch(callback func(T)) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.watchers = append(v.watchers, callback)
}
