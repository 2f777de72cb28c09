package rabbitmq

import (
	"fmt"
	"log"
	"time"

	amqp "github.com/streadway/amqp"
)

const (
	// DefaultQueue carries product update events.
	DefaultQueue = "product_updates"
	// DefaultRetryDelay is how long a failed delivery waits before it is requeued.
	DefaultRetryDelay = 2 * time.Second
)

// Client holds the RabbitMQ connection and channel bound to one durable queue.
type Client struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	queue      string
	retryDelay time.Duration
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL        string
	Queue      string        // DefaultQueue when empty
	RetryDelay time.Duration // DefaultRetryDelay when zero
}

// NewClient connects to RabbitMQ, opens a channel and declares the queue.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareQueue(ch, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Printf("RabbitMQ client connected and %s declared.", cfg.Queue)

	return &Client{
		conn:       conn,
		channel:    ch,
		queue:      cfg.Queue,
		retryDelay: cfg.RetryDelay,
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return q, fmt.Errorf("failed to declare %s: %w", name, err)
	}
	return q, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends a persistent JSON message to the client's queue through the default exchange.
func (c *Client) Publish(body []byte) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	err := c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key is the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Consume registers a manual-ack consumer on the client's queue and processes
// deliveries in a goroutine until the channel closes. A handler error nacks the
// delivery with requeue after the retry delay; nil acks it.
func (c *Client) Consume(handler func(body []byte) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := declareQueue(c.channel, c.queue)
	if err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf("Waiting for messages on %s", queue.Name)

	go func() {
		for msg := range msgs {
			c.process(msg, handler)
		}
		log.Printf("Consumer on %s stopped", queue.Name)
	}()

	return nil
}

// process acks a handled delivery. A failed one is held for the retry delay and
// then requeued, which also pauses this consumer while storage is failing.
func (c *Client) process(msg amqp.Delivery, handler func(body []byte) error) {
	err := handler(msg.Body)
	if err == nil {
		if ackErr := msg.Ack(false); ackErr != nil {
			log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
		}
		return
	}

	log.Printf("Error processing message %d (redelivered=%t), retrying in %s: %v",
		msg.DeliveryTag, msg.Redelivered, c.retryDelay, err)
	time.Sleep(c.retryDelay)
	if nackErr := msg.Nack(false, true); nackErr != nil {
		log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
	}
}
