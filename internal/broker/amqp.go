package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"pvsim/internal/record"
)

// AMQPPublisher delivers readings to an AMQP 0-9-1 broker through a durable
// direct exchange with publisher confirms. One message is in flight at a
// time, so the confirm channel preserves publish order.
type AMQPPublisher struct {
	url  string
	opts Options

	conn     *amqp.Connection
	ch       *amqp.Channel
	confirms <-chan amqp.Confirmation
	seq      uint64
}

func newAMQPPublisher(rawURL string, opts Options) *AMQPPublisher {
	return &AMQPPublisher{url: rawURL, opts: opts}
}

// Connect dials the broker, opens a confirm-mode channel and declares the
// readings exchange. Network-level dial failures are retried with the
// publisher's bounded backoff; protocol rejections (bad credentials, vhost)
// fail immediately.
func (p *AMQPPublisher) Connect(ctx context.Context) error {
	return p.opts.Retry.Do(ctx, func() error {
		if err := p.open(); err != nil {
			var ae *amqp.Error
			if errors.As(err, &ae) && !ae.Recover {
				return err
			}
			return Transient(err)
		}
		return nil
	})
}

func (p *AMQPPublisher) open() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return fmt.Errorf("enable confirms: %w", err)
	}
	if err := ch.ExchangeDeclare(p.opts.Exchange, "direct", true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.opts.Exchange, err)
	}
	p.conn = conn
	p.ch = ch
	p.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.opts.Logger.Info().Str("exchange", p.opts.Exchange).Msg("amqp connected")
	return nil
}

// Publish sends one reading and blocks until the broker confirms it. NACKs,
// confirm timeouts and dropped connections are retried; the connection is
// re-established when the channel died between attempts.
func (p *AMQPPublisher) Publish(ctx context.Context, r record.Reading) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	p.seq++
	msgID := fmt.Sprintf("%s-%d", p.opts.RunID, p.seq)
	return p.opts.Retry.Do(ctx, func() error {
		return p.publishConfirmed(ctx, msgID, r.Timestamp, body)
	})
}

func (p *AMQPPublisher) PublishEnd(ctx context.Context) error {
	body, err := json.Marshal(endOfRun{EndOfRun: true})
	if err != nil {
		return fmt.Errorf("marshal end marker: %w", err)
	}
	return p.opts.Retry.Do(ctx, func() error {
		return p.publishConfirmed(ctx, p.opts.RunID+"-end", time.Time{}, body)
	})
}

func (p *AMQPPublisher) publishConfirmed(ctx context.Context, msgID string, ts time.Time, body []byte) error {
	if p.ch == nil || p.ch.IsClosed() {
		p.Close()
		if err := p.open(); err != nil {
			return Transient(fmt.Errorf("reconnect: %w", err))
		}
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msgID,
		Body:         body,
	}
	if !ts.IsZero() {
		pub.Timestamp = ts
	}
	if err := p.ch.PublishWithContext(ctx, p.opts.Exchange, p.opts.RoutingKey, false, false, pub); err != nil {
		var ae *amqp.Error
		if errors.As(err, &ae) && !ae.Recover {
			return err
		}
		return Transient(err)
	}
	select {
	case c, ok := <-p.confirms:
		if !ok {
			return Transient(errors.New("confirm channel closed"))
		}
		if !c.Ack {
			return Transient(fmt.Errorf("broker nacked delivery %d", c.DeliveryTag))
		}
		return nil
	case <-time.After(p.opts.ConfirmTimeout):
		return Transient(fmt.Errorf("no confirm within %s", p.opts.ConfirmTimeout))
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the channel and connection. It is safe on a publisher that
// never connected or was already closed.
func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		if err != nil && !errors.Is(err, amqp.ErrClosed) {
			return err
		}
	}
	return nil
}
