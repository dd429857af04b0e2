// Package eventbus fans out a per-session "dirty" signal over RabbitMQ so a
// push layer running on another instance than the one that handled the
// command can still learn a session changed and relay it to its own
// WebSocket clients.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeName = "nightwatch.session-dirty"

// DirtySignal is published once per committed command.
type DirtySignal struct {
	SessionID string    `json:"sessionId"`
	Action    string    `json:"action"`
	At        time.Time `json:"at"`
}

type EventBus struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func New(url string) (*EventBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &EventBus{conn: conn, ch: ch}, nil
}

// PublishDirty announces that sessionID was just mutated by action. Delivery
// is best-effort: a publish failure is logged by the caller, never fails the
// command that already committed.
func (b *EventBus) PublishDirty(ctx context.Context, sessionID, action string) error {
	body, err := json.Marshal(DirtySignal{SessionID: sessionID, Action: action, At: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal dirty signal: %w", err)
	}

	return b.ch.PublishWithContext(ctx, exchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// Subscribe opens a fresh, exclusive queue bound to the fan-out exchange and
// returns its delivery channel; each subscribing instance gets its own copy
// of every signal.
func (b *EventBus) Subscribe(ctx context.Context) (<-chan amqp.Delivery, error) {
	q, err := b.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to declare subscriber queue: %w", err)
	}
	if err := b.ch.QueueBind(q.Name, "", exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind subscriber queue: %w", err)
	}
	return b.ch.ConsumeWithContext(ctx, q.Name, "", true, true, false, false, nil)
}

func (b *EventBus) Close() error {
	if err := b.ch.Close(); err != nil {
		return err
	}
	return b.conn.Close()
}
