// Package autopaho implements mqtt.Writer and mqtt.Subscriber on top of an autopaho connection, re-sending
// subscriptions whenever the connection comes back up.
package autopaho

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/nlowe/miele/log"
	"github.com/nlowe/miele/mqtt"
)

// Conn is a managed broker connection. It is safe for concurrent use.
type Conn struct {
	mu sync.Mutex

	cm *autopaho.ConnectionManager
	r  paho.Router

	subscriptions map[string]paho.SubscribeOptions

	log *slog.Logger
}

var _ mqtt.Writer = &Conn{}
var _ mqtt.Subscriber = &Conn{}

// Dial connects to the broker described by config and waits until the first connection is up. Any OnConnectionUp
// callback in config still runs, after subscriptions have been re-sent.
func Dial(ctx context.Context, config autopaho.ClientConfig) (*Conn, error) {
	c := &Conn{
		r: paho.NewStandardRouter(),

		subscriptions: map[string]paho.SubscribeOptions{},

		log: log.ForComponent("autopaho"),
	}

	onConnectionUp := config.OnConnectionUp
	config.OnConnectionUp = func(cm *autopaho.ConnectionManager, connack *paho.Connack) {
		c.resubscribe(ctx)

		if onConnectionUp != nil {
			onConnectionUp(cm, connack)
		}
	}

	// The first OnConnectionUp may fire before NewConnection returns; it blocks on mu until c.cm is set.
	c.mu.Lock()
	cm, err := autopaho.NewConnection(ctx, config)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("mqtt: connect: %w", err)
	}

	c.cm = cm
	c.mu.Unlock()

	if err = cm.AwaitConnection(ctx); err != nil {
		return nil, fmt.Errorf("mqtt: wait for connection: %w", err)
	}

	cm.AddOnPublishReceived(func(rx autopaho.PublishReceived) (bool, error) {
		c.r.Route(rx.Packet.Packet())
		return true, nil
	})

	c.log.Debug("Connected to mqtt broker")
	return c, nil
}

// Disconnect closes the connection. Subscriptions are not removed from the broker first.
func (c *Conn) Disconnect(ctx context.Context) error {
	return c.cm.Disconnect(ctx)
}

func (c *Conn) resubscribe(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.subscriptions) == 0 {
		return
	}

	sub := &paho.Subscribe{Subscriptions: make([]paho.SubscribeOptions, 0, len(c.subscriptions))}
	for _, s := range c.subscriptions {
		sub.Subscriptions = append(sub.Subscriptions, s)
	}

	c.log.With(slog.Int("count", len(sub.Subscriptions))).Info("Reconnected to mqtt, re-sending subscriptions")
	if _, err := c.cm.Subscribe(ctx, sub); err != nil {
		c.log.With(log.Error(err)).Error("Failed to re-subscribe to appliance topics")
	}
}

func (c *Conn) WriteTopic(ctx context.Context, topic string, options mqtt.WriteOptions, value []byte) error {
	c.log.With(slog.String("topic", topic), slog.Any("options", options), slog.String("payload", string(value))).Debug("Publishing state")

	_, err := c.cm.Publish(ctx, &paho.Publish{
		QoS:     uint8(options.QoS),
		Retain:  options.Retain,
		Topic:   topic,
		Payload: value,
	})

	return err
}

// Subscribe registers handler for every subscription and subscribes on the broker. If the broker rejects the request,
// the handlers are removed again so a later Subscribe starts clean.
func (c *Conn) Subscribe(ctx context.Context, handler mqtt.Handler, subscriptions ...mqtt.Subscription) error {
	if len(subscriptions) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &paho.Subscribe{Subscriptions: make([]paho.SubscribeOptions, len(subscriptions))}
	for i, s := range subscriptions {
		opts := subscribeOptions(s)

		c.subscriptions[s.Topic] = opts
		sub.Subscriptions[i] = opts

		c.r.RegisterHandler(s.Topic, func(p *paho.Publish) {
			handler.ServeMQTT(c, p.Topic, p.Payload)
		})
	}

	c.log.With(slog.Any("subscriptions", subscriptions)).Debug("Subscribing to appliance topics")
	if _, err := c.cm.Subscribe(ctx, sub); err != nil {
		for _, s := range subscriptions {
			c.forget(s.Topic)
		}

		return err
	}

	return nil
}

func (c *Conn) Unsubscribe(ctx context.Context, topics ...string) error {
	if len(topics) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range topics {
		c.forget(t)
	}

	c.log.With(slog.Any("topics", topics)).Debug("Unsubscribing from appliance topics")
	_, err := c.cm.Unsubscribe(ctx, &paho.Unsubscribe{Topics: topics})

	return err
}

// forget drops the handler and re-subscription state for topic. c.mu must be held.
func (c *Conn) forget(topic string) {
	delete(c.subscriptions, topic)
	c.r.UnregisterHandler(topic)
}

func subscribeOptions(s mqtt.Subscription) paho.SubscribeOptions {
	return paho.SubscribeOptions{
		Topic:   s.Topic,
		QoS:     uint8(s.Options.QoS),
		NoLocal: s.Options.NoLocal,
	}
}
