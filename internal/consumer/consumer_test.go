package consumer

import (
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRun_ForwardsUntilClosed(t *testing.T) {
	msgs := make(chan amqp.Delivery, 3)
	for i := uint64(1); i <= 3; i++ {
		msgs <- amqp.Delivery{DeliveryTag: i}
	}
	close(msgs)

	var got []uint64
	stopped := false
	Run(msgs, make(chan struct{}), func(d amqp.Delivery) {
		got = append(got, d.DeliveryTag)
	}, func() { stopped = true }, zap.NewNop())

	require.Equal(t, []uint64{1, 2, 3}, got)
	require.False(t, stopped)
}

func TestRun_StopsOnSignal(t *testing.T) {
	msgs := make(chan amqp.Delivery)
	stop := make(chan struct{})
	close(stop)

	stopped := false
	Run(msgs, stop, func(amqp.Delivery) {
		t.Fatal("no deliveries expected")
	}, func() { stopped = true }, zap.NewNop())

	require.True(t, stopped)
}

type fakeChannel struct {
	mu      sync.Mutex
	calls []string
}

func (f *fakeChannel) Cancel(tag string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "cancel:"+tag)
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "close")
	return nil
}

func (f *fakeChannel) log() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestConsumer_CancelKeepsChannelOpen(t *testing.T) {
	ch := &fakeChannel{}
	msgs := make(chan amqp.Delivery)
	var handled []uint64
	c := newConsumer("feed", "consumer-feed", ch, msgs, func(d amqp.Delivery) {
		handled = append(handled, d.DeliveryTag)
	}, zap.NewNop())

	msgs <- amqp.Delivery{DeliveryTag: 1}
	c.Cancel()
	c.Cancel()

	// nothing reads deliveries once cancelled
	select {
	case msgs <- amqp.Delivery{DeliveryTag: 2}:
		t.Fatal("delivery accepted after cancel")
	case <-time.After(20 * time.Millisecond):
	}

	require.Equal(t, []uint64{1}, handled)
	require.Equal(t, []string{"cancel:consumer-feed"}, ch.log())

	c.Stop()
	c.Stop()
	require.Equal(t, []string{"cancel:consumer-feed", "close"}, ch.log())
}

func TestConsumer_StopCancelsBeforeClosing(t *testing.T) {
	ch := &fakeChannel{}
	c := newConsumer("feed", "consumer-feed", ch, make(chan amqp.Delivery), func(amqp.Delivery) {}, zap.NewNop())

	c.Stop()
	require.Equal(t, []string{"cancel:consumer-feed", "close"}, ch.log())
}
