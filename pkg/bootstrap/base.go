package bootstrap

import (
	"context"
	"fmt"
	"sync"

	"compliance/internal/broker"
	"compliance/internal/config"
	"compliance/internal/logger"
)

// Base holds the pieces every entrypoint shares: config, logger and the
// broker clients.
type Base struct {
	Config   *config.Config
	Logger   logger.Logger
	Producer broker.Producer
	Consumer broker.Consumer

	consumers sync.WaitGroup
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

// InitBroker creates the producer and consumer for the configured broker.
// With broker type "none" the producer drops messages and Consumer stays nil.
func (b *Base) InitBroker(serviceName string) error {
	producer, err := broker.NewProducer(b.Config.Broker, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create producer: %w", err)
	}

	consumer, err := broker.NewConsumer(b.Config.Broker, b.Logger)
	if err != nil {
		producer.Close()
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	if consumer != nil && serviceName != "" {
		consumer.SetServiceName(serviceName)
	}

	b.Producer = producer
	b.Consumer = consumer
	b.Logger.InfowCtx(context.Background(), "Broker initialized", "type", b.Config.Broker.Type, "consumer", consumer != nil)
	return nil
}

// StartConsumer runs handler for topic in the background until ctx is done
// or the consumer is closed. It reports false when there is no consumer.
func (b *Base) StartConsumer(ctx context.Context, topic string, handler broker.HandlerFunc) bool {
	if b.Consumer == nil || topic == "" {
		return false
	}

	b.consumers.Add(1)
	go func() {
		defer b.consumers.Done()
		if err := b.Consumer.Consume(ctx, topic, handler); err != nil && ctx.Err() == nil {
			b.Logger.ErrorwCtx(ctx, "Consumer stopped", "topic", topic, "error", err)
		}
	}()
	b.Logger.InfowCtx(ctx, "Consuming events", "topic", topic)
	return true
}

// ShutdownBroker closes the clients and waits for running consumers.
func (b *Base) ShutdownBroker() []error {
	var errs []error

	if b.Producer != nil {
		if err := b.Producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("producer close error: %w", err))
		}
	}

	if b.Consumer != nil {
		if err := b.Consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("consumer close error: %w", err))
		}
	}
	b.consumers.Wait()

	return errs
}

func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.InfowCtx(ctx, "Shutting down application")

	var errs []error

	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	errs = append(errs, b.ShutdownBroker()...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.InfowCtx(ctx, "Application exited successfully")
	return nil
}
