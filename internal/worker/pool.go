package worker

import (
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"guestbook/internal/metrics"
)

// HandleFunc processes one delivery; an error sends it to the dead-letter queue.
type HandleFunc func(msg amqp.Delivery) error

type WorkerPool struct {
	name    string
	jobs    chan amqp.Delivery
	stopCh  chan struct{}
	workers int
	handle  HandleFunc
	logger  *zap.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewWorkerPool(name string, workerCount int, handle HandleFunc, logger *zap.Logger) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{
		name:    name,
		jobs:    make(chan amqp.Delivery),
		stopCh:  make(chan struct{}),
		workers: workerCount,
		handle:  handle,
		logger:  logger.With(zap.String("pool", name)),
	}
}

func (wp *WorkerPool) Start() {
	wp.logger.Info("starting worker pool", zap.Int("workers", wp.workers))

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go func() {
			defer wp.wg.Done()
			metrics.WorkerActive.Inc()
			defer metrics.WorkerActive.Dec()

			for {
				select {
				case <-wp.stopCh:
					return
				case msg := <-wp.jobs:
					wp.process(msg)
				}
			}
		}()
	}
}

// Submit hands a delivery to the next free worker. It reports false once the pool is stopped.
func (wp *WorkerPool) Submit(msg amqp.Delivery) bool {
	select {
	case <-wp.stopCh:
		return false
	case wp.jobs <- msg:
		return true
	}
}

// Stop signals every worker and waits for in-flight deliveries to finish.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.stopCh)
	})
	wp.wg.Wait()
	wp.logger.Info("worker pool stopped")
}

func (wp *WorkerPool) process(msg amqp.Delivery) {
	if err := wp.handle(msg); err != nil {
		wp.logger.Warn("failed to process delivery", zap.String("message_id", msg.MessageId), zap.Error(err))
		_ = msg.Reject(false) // send to DLQ
		metrics.FeedProcessed.WithLabelValues("rejected").Inc()
		return
	}

	_ = msg.Ack(false)
	metrics.FeedProcessed.WithLabelValues("ok").Inc()
}

// Dispatch is a consumer handler: deliveries arriving after Stop go back to the queue.
func (wp *WorkerPool) Dispatch(msg amqp.Delivery) {
	if !wp.Submit(msg) {
		_ = msg.Nack(false, true)
	}
}
