package broker

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"pvsim/internal/record"
)

// Well-known destinations for production readings, shared with downstream
// consumers.
const (
	DefaultExchange   = "pv.production"
	DefaultRoutingKey = "pv.production.readings"
	DefaultTopic      = "pv/production/readings"
)

// Publisher delivers readings to a message broker with confirmed, ordered,
// at-least-once semantics. Connect and Close bracket the connection's
// lifetime; Close is safe to call more than once.
type Publisher interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, r record.Reading) error
	// PublishEnd sends the end-of-run marker so downstream consumers can
	// stop waiting for further readings.
	PublishEnd(ctx context.Context) error
	Close() error
}

// Options carries the transport-independent publisher configuration.
type Options struct {
	Exchange       string
	RoutingKey     string
	Topic          string
	RunID          string
	ConfirmTimeout time.Duration
	Retry          RetryPolicy
	Logger         zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.Exchange == "" {
		o.Exchange = DefaultExchange
	}
	if o.RoutingKey == "" {
		o.RoutingKey = DefaultRoutingKey
	}
	if o.Topic == "" {
		o.Topic = DefaultTopic
	}
	if o.ConfirmTimeout <= 0 {
		o.ConfirmTimeout = 5 * time.Second
	}
	o.Retry = o.Retry.withDefaults()
	return o
}

// New returns the publisher matching the broker URL scheme: amqp/amqps for
// AMQP 0-9-1 brokers, mqtt/tcp/ssl/ws/wss for MQTT brokers.
func New(rawURL string, opts Options) (Publisher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse broker url: %w", err)
	}
	opts = opts.withDefaults()
	switch u.Scheme {
	case "amqp", "amqps":
		return newAMQPPublisher(rawURL, opts), nil
	case "mqtt", "tcp", "ssl", "ws", "wss":
		return newMQTTPublisher(rawURL, opts), nil
	default:
		return nil, fmt.Errorf("unsupported broker scheme %q", u.Scheme)
	}
}

// endOfRun is the sentinel body closing a run's message stream.
type endOfRun struct {
	EndOfRun bool `json:"end_of_run"`
}
