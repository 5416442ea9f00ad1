package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPNotifier publishes notifications to a RabbitMQ queue.
type AMQPNotifier struct {
	channel *amqp.Channel
	queue   string
}

// AMQPNotifierConfig configures the AMQP notifier.
type AMQPNotifierConfig struct {
	URL   string
	Queue string
}

// NewAMQPNotifier dials the broker and declares the durable queue.
func NewAMQPNotifier(cfg AMQPNotifierConfig) (*AMQPNotifier, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("amqp url required")
	}
	queue := strings.TrimSpace(cfg.Queue)
	if queue == "" {
		queue = "revendo.notifications"
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &AMQPNotifier{channel: channel, queue: queue}, nil
}

// Notify publishes the notification as a persistent JSON message.
func (n *AMQPNotifier) Notify(ctx context.Context, target, subject, body string) error {
	payload, err := json.Marshal(Notification{
		Target:    target,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return n.channel.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
}
