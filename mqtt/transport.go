package mqtt

import (
	"context"
	"log/slog"
)

// Writer publishes encoded states.
type Writer interface {
	WriteTopic(ctx context.Context, topic string, options WriteOptions, value []byte) error
}

// WriterFunc lets a plain function act as a Writer.
type WriterFunc func(ctx context.Context, topic string, options WriteOptions, value []byte) error

func (f WriterFunc) WriteTopic(ctx context.Context, topic string, options WriteOptions, value []byte) error {
	return f(ctx, topic, options, value)
}

// Subscription is a topic filter to receive raw appliance reports on. It implements fmt.Stringer and slog.LogValuer.
type Subscription struct {
	Topic   string
	Options ReadOptions
}

func (s Subscription) String() string {
	return s.Topic
}

func (s Subscription) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("topic", s.Topic),
		slog.Any("options", s.Options),
	)
}

// Handler receives the messages of a Subscription, much like an http.Handler receives requests.
//
// ServeMQTT is called from the connection's receive loop, so it must not block and has nowhere to return an error to.
// Neither w nor message may be retained after it returns.
type Handler interface {
	ServeMQTT(w Writer, topic string, message []byte)
}

// HandlerFunc lets a plain function act as a Handler.
type HandlerFunc func(w Writer, topic string, message []byte)

func (f HandlerFunc) ServeMQTT(w Writer, topic string, message []byte) {
	f(w, topic, message)
}

// Subscriber adds and removes subscriptions on a broker connection.
type Subscriber interface {
	// Subscribe routes messages for every subscription to handler. Subscriptions outlive reconnects.
	Subscribe(ctx context.Context, handler Handler, subscriptions ...Subscription) error

	// Unsubscribe drops the subscriptions for topics along with their handlers.
	Unsubscribe(ctx context.Context, topics ...string) error
}
