// Package bus carries log events across process boundaries over NATS, so
// the aggregator can live in its own listener process.
package bus

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/draftworks/batchd/internal/logstream"
)

// Client wraps a NATS connection for event publishing and subscription.
type Client struct{ nc *nats.Conn }

// Connect dials the NATS server with persistent reconnects.
func Connect(url string) (*Client, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Client{nc: nc}, nil
}

// Close drains the connection.
func (c *Client) Close() {
	if c.nc != nil {
		_ = c.nc.Drain()
	}
}

// Conn exposes the underlying connection.
func (c *Client) Conn() *nats.Conn { return c.nc }

// PublishEvent publishes one event as JSON on subject.
func (c *Client) PublishEvent(subject string, ev logstream.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.nc.Publish(subject, b)
}

// SubscribeEvents decodes events from subject and hands them to handler.
// Undecodable payloads are dropped.
func (c *Client) SubscribeEvents(subject string, handler func(logstream.Event)) (*nats.Subscription, error) {
	return c.nc.Subscribe(subject, func(msg *nats.Msg) {
		var ev logstream.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		handler(ev)
	})
}

// Sink adapts a Client into a logstream.Sink publishing on one subject.
type Sink struct {
	client  *Client
	subject string
}

// NewSink creates a publishing sink.
func NewSink(client *Client, subject string) *Sink {
	return &Sink{client: client, subject: subject}
}

// Consume implements logstream.Sink.
func (s *Sink) Consume(ev logstream.Event) error {
	return s.client.PublishEvent(s.subject, ev)
}

// Close implements logstream.Sink. The connection is shared; closing the
// sink does not drain it.
func (s *Sink) Close() error { return nil }
