// internal/messaging/rabbit.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"guestbook/internal/metrics"
)

// Publisher emits domain events. The guestbook treats publishing as best effort.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

type noop struct{}

// NewNoop is used when no broker is configured.
func NewNoop() Publisher { return noop{} }

func (noop) Publish(context.Context, string, any) error { return nil }
func (noop) Close() error                               { return nil }

type RabbitClient struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	mu       sync.Mutex
	exchange string
	logger   *zap.Logger
	URL      string
}

// NewRabbitClient connects and declares the durable topic exchange events are published to.
func NewRabbitClient(url, exchange string, logger *zap.Logger) (*RabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &RabbitClient{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		logger:   logger,
		URL:      url,
	}, nil
}

func (r *RabbitClient) GetChannel() *amqp.Channel {
	return r.channel
}

func (r *RabbitClient) GetConnection() *amqp.Connection {
	return r.conn
}

func (r *RabbitClient) Exchange() string {
	return r.exchange
}

// DeclareQueue creates a durable queue bound to the exchange, with a dead-letter queue
// for deliveries the workers reject.
func (r *RabbitClient) DeclareQueue(queueName, bindingKey string) error {
	dlqName := queueName + "_dlq"

	r.mu.Lock()
	defer r.mu.Unlock()

	// 1. DLQ
	_, err := r.channel.QueueDeclare(
		dlqName,
		true, false, false, false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}

	// 2. Main Queue with DLQ binding
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlqName,
	}
	_, err = r.channel.QueueDeclare(
		queueName,
		true, false, false, false,
		args,
	)
	if err != nil {
		return fmt.Errorf("declare main queue: %w", err)
	}

	if err := r.channel.QueueBind(queueName, bindingKey, r.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	r.logger.Info("queues declared", zap.String("queue", queueName), zap.String("binding", bindingKey))
	return nil
}

// Publish sends a JSON event to the exchange under routingKey
func (r *RabbitClient) Publish(ctx context.Context, routingKey string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	err = r.channel.Publish(
		r.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

// Close cleans up connection and channel
func (r *RabbitClient) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	if err := r.conn.Close(); err != nil {
		return err
	}
	return nil
}

func (r *RabbitClient) UpdateQueueDepth(queueName string) {
	r.mu.Lock()
	q, err := r.channel.QueueInspect(queueName)
	r.mu.Unlock()
	if err != nil {
		r.logger.Warn("failed to inspect queue", zap.String("queue", queueName), zap.Error(err))
		return
	}

	metrics.QueueDepth.Set(float64(q.Messages))
}
