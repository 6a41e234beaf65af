package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nlowe/miele"
	"github.com/nlowe/miele/log"
	"github.com/nlowe/miele/mqtt"
	"github.com/nlowe/miele/state"
)

const rawTopic = "raw"

var (
	// ErrAlreadyStarted is returned by Appliance.Start when it was started before. Call Appliance.Stop first.
	ErrAlreadyStarted = errors.New("appliance already started")
	// ErrInvalidApplianceID is returned by New for IDs that cannot be used as a single topic level.
	ErrInvalidApplianceID = errors.New("invalid appliance id")
	// ErrInvalidSourceKey is returned by New when a selector's source key cannot be used as a single topic level.
	ErrInvalidSourceKey = errors.New("invalid source key")
)

// Options configure the topics and delivery guarantees of an Appliance.
type Options struct {
	// TopicPrefix is prepended to every topic of the appliance.
	TopicPrefix string

	// WriteOptions are used when publishing states. States of property channels are always retained.
	WriteOptions mqtt.WriteOptions

	// ReadOptions are used when subscribing to raw values.
	ReadOptions mqtt.ReadOptions
}

// Appliance decodes the raw values of one appliance and publishes a state per channel.
type Appliance struct {
	id       string
	prefix   string
	registry *miele.Registry
	decoder  *miele.Decoder

	raw      map[string]*mqtt.RemoteValue[Report]
	channels map[string]*mqtt.Value[state.State]

	mu         sync.Mutex
	started    bool
	subscribed []string
	// ctx and w are the context and Writer passed to Start, used to publish states decoded from later messages.
	ctx context.Context
	w   mqtt.Writer

	log *slog.Logger
}

// New constructs an Appliance for the selectors in registry. Raw values are decoded with decoder.
func New(id string, registry *miele.Registry, decoder *miele.Decoder, opts Options) (*Appliance, error) {
	if !mqtt.ValidTopicLevel(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidApplianceID, id)
	}

	a := &Appliance{
		id:       id,
		prefix:   mqtt.JoinTopic(opts.TopicPrefix, id),
		registry: registry,
		decoder:  decoder,

		raw:      make(map[string]*mqtt.RemoteValue[Report]),
		channels: make(map[string]*mqtt.Value[state.State]),

		log: log.ForComponent("bridge").With(slog.String("appliance", id)),
	}

	for _, key := range registry.SourceKeys() {
		if !mqtt.ValidTopicLevel(key) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSourceKey, key)
		}

		topic := mqtt.JoinTopic(rawTopic, key)
		remote := mqtt.NewRemoteValue(topic, ReportUnmarshaler, opts.ReadOptions)
		remote.Watch(func(r Report) {
			a.mu.Lock()
			ctx, w := a.ctx, a.w
			a.mu.Unlock()

			if w == nil {
				a.log.With(slog.String("source_key", key)).Debug("Dropping report received while stopped")
				return
			}

			a.handle(ctx, w, key, r)
		})

		a.raw[topic] = remote
	}

	for _, sel := range registry.All() {
		writeOpts := opts.WriteOptions
		if sel.IsProperty() {
			writeOpts.Retain = true
		}

		a.channels[sel.ChannelID()] = mqtt.NewValue(sel.ChannelID(), state.Marshaler, writeOpts)
	}

	return a, nil
}

// ID returns the appliance ID.
func (a *Appliance) ID() string {
	return a.id
}

// Topic returns the fully qualified topic a channel's state is published to.
func (a *Appliance) Topic(channelID string) string {
	return a.channels[channelID].FullyQualifiedTopic(a.prefix)
}

// State returns the last state published for a channel.
func (a *Appliance) State(channelID string) (state.State, bool) {
	v, ok := a.channels[channelID]
	if !ok {
		return nil, false
	}

	return v.Get()
}

// Start publishes the default state of every synthetic channel, then subscribes to the appliance's raw topics. States
// decoded from later messages are published with w. If any step fails the appliance is left stopped, so Start can be
// retried.
func (a *Appliance) Start(ctx context.Context, w mqtt.Writer, s mqtt.Subscriber) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}

	a.started = true
	a.ctx, a.w = ctx, w
	a.mu.Unlock()

	for _, sel := range a.registry.All() {
		if sel.SourceKey().Valid {
			continue
		}

		if def, ok := sel.Default(); ok {
			if err := a.publish(ctx, w, sel, def); err != nil {
				a.reset()
				return err
			}
		}
	}

	var subscriptions []mqtt.Subscription
	for _, key := range a.registry.SourceKeys() {
		subscriptions = a.raw[mqtt.JoinTopic(rawTopic, key)].AppendSubscription(subscriptions, a.prefix)
	}

	if err := s.Subscribe(ctx, mqtt.HandlerFunc(a.ServeMQTT), subscriptions...); err != nil {
		a.reset()
		return fmt.Errorf("subscribe: %w", err)
	}

	topics := make([]string, len(subscriptions))
	for i, sub := range subscriptions {
		topics[i] = sub.Topic
	}

	a.mu.Lock()
	a.subscribed = topics
	a.mu.Unlock()

	a.log.With(slog.Int("subscriptions", len(subscriptions))).Info("Started appliance")
	return nil
}

// Stop removes the subscriptions made by Start. Reports still in flight are dropped.
func (a *Appliance) Stop(ctx context.Context, s mqtt.Subscriber) error {
	topics := a.reset()
	if len(topics) == 0 {
		return nil
	}

	return s.Unsubscribe(ctx, topics...)
}

func (a *Appliance) reset() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	topics := a.subscribed
	a.subscribed = nil
	a.started = false
	a.ctx, a.w = nil, nil

	return topics
}

// ServeMQTT implements mqtt.Handler by routing raw payloads below the appliance's prefix to the matching source key.
func (a *Appliance) ServeMQTT(w mqtt.Writer, topic string, payload []byte) {
	rest, ok := mqtt.CutTopicPrefix(topic, a.prefix)
	if !ok {
		return
	}

	remote, ok := a.raw[rest]
	if !ok {
		a.log.With(slog.String("topic", topic)).Debug("Ignoring message for unknown property")
		return
	}

	remote.ServeMQTT(w, rest, payload)
}

func (a *Appliance) handle(ctx context.Context, w mqtt.Writer, key string, r Report) {
	for _, sel := range a.registry.BySourceKey(key) {
		var v state.State
		var ok bool
		if sel.IsExtendedState() {
			v, ok = a.decoder.DecodeExtended(sel, r.Value)
		} else {
			v, ok = a.decoder.Decode(sel, r.Value, r.MetaData)
		}

		if !ok {
			continue
		}

		if err := a.publish(ctx, w, sel, v); err != nil {
			a.log.With(log.Channel(sel.ChannelID()), log.Error(err)).Error("Failed to publish state")
		}
	}
}

func (a *Appliance) publish(ctx context.Context, w mqtt.Writer, sel *miele.ChannelSelector, v state.State) error {
	a.log.With(log.Channel(sel.ChannelID()), slog.Any("state", v)).Debug("Publishing state")

	if err := a.channels[sel.ChannelID()].Write(ctx, w, a.prefix, v); err != nil {
		return fmt.Errorf("publish %s: %w", sel.ChannelID(), err)
	}

	return nil
}
