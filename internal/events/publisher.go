package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher emits scan events. Publishing is best-effort: the scan result
// is already committed when it runs, so callers log failures and move on.
type Publisher interface {
	PublishScanRecorded(ctx context.Context, ev ScanRecordedEvent) error
}

// AMQPPublisher publishes to a durable RabbitMQ queue. Each publish dials
// its own short-lived connection; scan volume is low enough (one human per
// scan) that connection reuse is not worth the reconnect handling.
type AMQPPublisher struct {
	url   string
	queue string
}

// NewAMQPPublisher creates a publisher for the given broker URL and queue.
func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	if queue == "" {
		queue = "attendance.scan_recorded"
	}
	return &AMQPPublisher{url: url, queue: queue}
}

// PublishScanRecorded sends the event as a persistent JSON message. Errors
// are logged and returned so the caller can decide to ignore them.
func (p *AMQPPublisher) PublishScanRecorded(ctx context.Context, ev ScanRecordedEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("amqp: dial failed: %v", err)
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("amqp: channel open failed: %v", err)
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare so the service works against a fresh broker.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		log.Printf("amqp: queue declare failed: %v", err)
		return fmt.Errorf("amqp queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal scan event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		log.Printf("amqp: publish failed: %v", err)
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}
