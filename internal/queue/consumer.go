package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrDrop marks a handler failure that a retry cannot fix. Such messages are
// rejected without requeue, so they go to the dead-letter exchange if one is set.
var ErrDrop = errors.New("drop message")

func Drop(err error) error { return fmt.Errorf("%w: %w", ErrDrop, err) }

type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	q    string
}

func NewConsumer(url, exchange, queue, key string) (*Consumer, error) {
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
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	qd, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(qd.Name, key, exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &Consumer{conn: conn, ch: ch, q: qd.Name}, nil
}

func (c *Consumer) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Delivery is the part of an AMQP delivery a worker needs.
type Delivery interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Consume runs workers until ctx is done or the channel closes.
func (c *Consumer) Consume(ctx context.Context, workers int, handle func([]byte) error) error {
	if c == nil || c.ch == nil {
		return fmt.Errorf("consumer is not initialized")
	}
	if err := c.ch.Qos(50, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	msgs, err := c.ch.Consume(c.q, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	serve(ctx, msgs, workers, handle)
	return nil
}

// serve feeds deliveries to the worker pool and returns once both sides stop.
func serve(ctx context.Context, msgs <-chan amqp.Delivery, workers int, handle func([]byte) error) {
	in := make(chan job)
	done := make(chan struct{})
	go func() {
		defer close(done)
		fanIn(ctx, msgs, in)
	}()
	runWorkers(ctx, workers, in, handle)
	<-done
}

// fanIn forwards deliveries until msgs closes or ctx ends. A delivery still in
// hand at cancellation is requeued.
func fanIn(ctx context.Context, msgs <-chan amqp.Delivery, in chan<- job) {
	defer close(in)
	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				return
			}
			select {
			case in <- job{body: d.Body, ack: d}:
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

type job struct {
	body []byte
	ack  Delivery
}

func runWorkers(ctx context.Context, workers int, in <-chan job, handle func([]byte) error) {
	if workers <= 0 {
		workers = 1
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case j, ok := <-in:
					if !ok {
						return
					}
					settle(j.ack, handle(j.body))
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	wg.Wait()
}

func settle(d Delivery, err error) {
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrDrop):
		_ = d.Nack(false, false)
	default:
		_ = d.Nack(false, true)
	}
}
