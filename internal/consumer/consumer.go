// internal/consumer/consumer.go
package consumer

import (
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

type MessageHandlerFunc func(delivery amqp.Delivery)

// channel is the part of *amqp.Channel a consumer drives after it started consuming.
type channel interface {
	Cancel(consumer string, noWait bool) error
	Close() error
}

// Consumer holds control channels and metadata for a running queue consumer
type Consumer struct {
	QueueName   string
	Channel     channel
	StopChan    chan struct{}
	DoneChan    chan struct{}
	Handler     MessageHandlerFunc
	ConsumerTag string
	logger      *zap.Logger

	cancelOnce sync.Once
	closeOnce  sync.Once
}

// StartConsumer starts a goroutine that consumes messages from queueName
func StartConsumer(conn *amqp.Connection, queueName string, handler MessageHandlerFunc, logger *zap.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("queue %s: failed to open channel: %w", queueName, err)
	}

	consumerTag := fmt.Sprintf("consumer-%s", queueName)

	msgs, err := ch.Consume(
		queueName,
		consumerTag,
		false, // autoAck: false to handle manually
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("queue %s: failed to start consuming: %w", queueName, err)
	}

	c := newConsumer(queueName, consumerTag, ch, msgs, handler, logger)
	c.logger.Info("started consumer")
	return c, nil
}

func newConsumer(queueName, tag string, ch channel, msgs <-chan amqp.Delivery, handler MessageHandlerFunc, logger *zap.Logger) *Consumer {
	c := &Consumer{
		QueueName:   queueName,
		Channel:     ch,
		StopChan:    make(chan struct{}),
		DoneChan:    make(chan struct{}),
		Handler:     handler,
		ConsumerTag: tag,
		logger:      logger.With(zap.String("queue", queueName)),
	}
	go c.consumeLoop(msgs)
	return c
}

// consumeLoop processes messages until StopChan is closed
func (c *Consumer) consumeLoop(msgs <-chan amqp.Delivery) {
	defer close(c.DoneChan)
	Run(msgs, c.StopChan, c.Handler, func() {
		if err := c.Channel.Cancel(c.ConsumerTag, false); err != nil {
			c.logger.Warn("failed to cancel consumer", zap.Error(err))
		}
	}, c.logger)
}

// Run forwards deliveries to handler until msgs closes or stop fires; onStop runs in the latter case.
func Run(msgs <-chan amqp.Delivery, stop <-chan struct{}, handler MessageHandlerFunc, onStop func(), logger *zap.Logger) {
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("delivery channel closed")
				return
			}
			handler(msg)

		case <-stop:
			logger.Info("stopping consumer")
			if onStop != nil {
				onStop()
			}
			return
		}
	}
}

// Cancel stops the broker from delivering and waits for the loop to return.
// The channel stays open so deliveries already handed out can still be acked.
func (c *Consumer) Cancel() {
	c.cancelOnce.Do(func() {
		close(c.StopChan)
	})
	<-c.DoneChan
}

// Stop cancels the consumer if needed and closes its channel. Unacked
// deliveries go back to the queue when the channel closes.
func (c *Consumer) Stop() {
	c.Cancel()
	c.closeOnce.Do(func() {
		_ = c.Channel.Close()
		c.logger.Info("stopped consumer")
	})
}
