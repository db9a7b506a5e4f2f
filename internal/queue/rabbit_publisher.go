package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 3 * time.Second

// channel is the slice of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher emits password.reset_requested events on a topic exchange.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	now      func() time.Time
}

func NewRabbit(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbit: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return newRabbitPublisher(conn, ch, exchange), nil
}

func newRabbitPublisher(conn *amqp.Connection, ch channel, exchange string) *RabbitPublisher {
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange, now: time.Now}
}

func (p *RabbitPublisher) SendResetLink(ctx context.Context, email, url string) error {
	return p.PublishResetRequested(ctx, PasswordResetRequested{
		Email:       email,
		ResetURL:    url,
		RequestedAt: p.now().UTC(),
	})
}

// PublishResetRequested sends ev as a persistent JSON message. The request id
// from ctx travels in the X-Request-ID header.
func (p *RabbitPublisher) PublishResetRequested(ctx context.Context, ev PasswordResetRequested) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyPasswordResetRequested, err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    ev.RequestedAt,
		Body:         body,
	}
	if id := RequestID(ctx); id != "" {
		msg.Headers = amqp.Table{"X-Request-ID": id}
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.ch.PublishWithContext(ctx, p.exchange, KeyPasswordResetRequested, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", KeyPasswordResetRequested, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
