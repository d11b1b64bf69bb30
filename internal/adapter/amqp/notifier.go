package amqpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"phishsim/internal/core/domain"
)

// Notifier publishes engagement notifications to a durable RabbitMQ queue
// consumed by the external notification service. Publishing is best-effort
// by contract; callers log and swallow errors.
type Notifier struct {
	conn  *amqp.Connection
	queue string

	// amqp channels are not safe for concurrent publishes
	mu sync.Mutex
	ch *amqp.Channel
}

// NewNotifier connects to the broker and declares the queue.
func NewNotifier(addr, queue string) (*Notifier, error) {
	conn, err := amqp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}
	return &Notifier{conn: conn, queue: queue, ch: ch}, nil
}

// Notify publishes one notification as persistent JSON.
func (n *Notifier) Notify(ctx context.Context, notif domain.Notification) error {
	body, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.ch.Publish("", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.ch.Close(); err != nil {
		n.conn.Close()
		return err
	}
	return n.conn.Close()
}

// NopNotifier discards notifications. It stands in when the broker is
// unreachable at boot so the engine can still serve traffic.
type NopNotifier struct{}

// Notify implements port.Notifier and does nothing.
func (NopNotifier) Notify(context.Context, domain.Notification) error { return nil }
