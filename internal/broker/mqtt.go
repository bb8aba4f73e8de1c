package broker

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"pvsim/internal/record"
)

// MQTTPublisher delivers readings to an MQTT broker at QoS 1. Waiting on the
// publish token plays the role of the delivery confirm.
type MQTTPublisher struct {
	url    string
	opts   Options
	client mqtt.Client
}

func newMQTTPublisher(rawURL string, opts Options) *MQTTPublisher {
	return &MQTTPublisher{url: rawURL, opts: opts}
}

func (p *MQTTPublisher) Connect(ctx context.Context) error {
	clientID := "pvsim"
	if p.opts.RunID != "" {
		clientID = "pvsim-" + p.opts.RunID
	}
	copts := mqtt.NewClientOptions().
		AddBroker(p.url).
		SetClientID(clientID).
		SetCleanSession(true)
	p.client = mqtt.NewClient(copts)
	return p.opts.Retry.Do(ctx, func() error {
		token := p.client.Connect()
		if !token.WaitTimeout(p.opts.ConfirmTimeout) {
			return Transient(fmt.Errorf("connect timed out after %s", p.opts.ConfirmTimeout))
		}
		if err := token.Error(); err != nil {
			return Transient(fmt.Errorf("mqtt connect: %w", err))
		}
		p.opts.Logger.Info().Str("topic", p.opts.Topic).Msg("mqtt connected")
		return nil
	})
}

func (p *MQTTPublisher) Publish(ctx context.Context, r record.Reading) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	return p.publishQoS1(ctx, body)
}

func (p *MQTTPublisher) PublishEnd(ctx context.Context) error {
	body, err := json.Marshal(endOfRun{EndOfRun: true})
	if err != nil {
		return fmt.Errorf("marshal end marker: %w", err)
	}
	return p.publishQoS1(ctx, body)
}

func (p *MQTTPublisher) publishQoS1(ctx context.Context, body []byte) error {
	return p.opts.Retry.Do(ctx, func() error {
		token := p.client.Publish(p.opts.Topic, 1, false, body)
		if !token.WaitTimeout(p.opts.ConfirmTimeout) {
			return Transient(fmt.Errorf("no ack within %s", p.opts.ConfirmTimeout))
		}
		if err := token.Error(); err != nil {
			return Transient(fmt.Errorf("mqtt publish: %w", err))
		}
		return nil
	})
}

func (p *MQTTPublisher) Close() error {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	p.client = nil
	return nil
}
