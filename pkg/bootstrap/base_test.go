package bootstrap

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance/internal/broker"
	"compliance/internal/config"
	"compliance/internal/logger"
	"compliance/pkg/models"
)

// blockingConsumer delivers one message, then blocks until closed.
type blockingConsumer struct {
	closed  chan struct{}
	handled atomic.Int32
}

func (c *blockingConsumer) Consume(ctx context.Context, topic string, handler broker.HandlerFunc) error {
	env := models.NewMessageEnvelopeBuilder().WithSource("test").Build()
	if err := handler(ctx, *env); err != nil {
		return err
	}
	c.handled.Add(1)
	select {
	case <-ctx.Done():
	case <-c.closed:
	}
	return nil
}

func (c *blockingConsumer) Close() error {
	close(c.closed)
	return nil
}

func (c *blockingConsumer) SetServiceName(string) {}

func TestBase_InitBrokerNone(t *testing.T) {
	b := NewBase(&config.Config{Broker: config.BrokerConfig{Type: "none"}}, logger.NopLogger())
	require.NoError(t, b.InitBroker("compliance-service"))

	assert.IsType(t, broker.NopProducer{}, b.Producer)
	assert.Nil(t, b.Consumer)
	assert.False(t, b.StartConsumer(context.Background(), "rules", nil))
	assert.Empty(t, b.ShutdownBroker())
}

func TestBase_InitBrokerUnknown(t *testing.T) {
	b := NewBase(&config.Config{Broker: config.BrokerConfig{Type: "carrier-pigeon"}}, logger.NopLogger())
	assert.Error(t, b.InitBroker(""))
}

func TestBase_StartConsumerAndShutdown(t *testing.T) {
	consumer := &blockingConsumer{closed: make(chan struct{})}
	b := NewBase(&config.Config{}, logger.NopLogger())
	b.Producer = broker.NopProducer{}
	b.Consumer = consumer

	handled := make(chan struct{})
	started := b.StartConsumer(context.Background(), "rules", func(ctx context.Context, msg models.MessageEnvelope) error {
		close(handled)
		return nil
	})
	require.True(t, started)
	<-handled

	var extra atomic.Bool
	require.NoError(t, b.Shutdown(context.Background(), func(ctx context.Context) []error {
		extra.Store(true)
		return nil
	}))
	assert.True(t, extra.Load())
	assert.Equal(t, int32(1), consumer.handled.Load())
}
