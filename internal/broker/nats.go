package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"compliance/internal/config"
	"compliance/internal/constants"
	"compliance/internal/logger"
	"compliance/pkg/logging"
	"compliance/pkg/metrics"
	"compliance/pkg/models"
	"compliance/pkg/tracing"
)

// ConnectNATS dials the server with unlimited reconnects and logs
// connection state changes.
func ConnectNATS(cfg config.NATSConfig, log logger.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(constants.ServiceName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnw("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Infow("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", cfg.URL, err)
	}
	return conn, nil
}

type NATSProducer struct {
	conn   *nats.Conn
	logger logger.Logger
}

func NewNATSProducer(conn *nats.Conn, log logger.Logger) *NATSProducer {
	return &NATSProducer{conn: conn, logger: log}
}

func (p *NATSProducer) Publish(ctx context.Context, subject string, msg models.MessageEnvelope) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	m := nats.NewMsg(subject)
	m.Data = body
	tracing.InjectNATSHeaders(ctx, m.Header)

	start := time.Now()
	err = p.conn.PublishMsg(m)
	if err == nil {
		err = p.conn.FlushWithContext(ctx)
	}
	metrics.ObserveBrokerWriteDuration(constants.BrokerNATS, subject, time.Since(start))
	metrics.IncEventPublished(constants.BrokerNATS, subject, err)

	if err != nil {
		return fmt.Errorf("failed to publish nats message: %w", err)
	}
	return nil
}

func (p *NATSProducer) Close() error {
	return p.conn.Drain()
}

type NATSConsumer struct {
	conn        *nats.Conn
	cfg         config.NATSConfig
	logger      logger.Logger
	serviceName string
}

func NewNATSConsumer(conn *nats.Conn, cfg config.NATSConfig, log logger.Logger) *NATSConsumer {
	return &NATSConsumer{
		conn:        conn,
		cfg:         cfg,
		logger:      log,
		serviceName: constants.ServiceName,
	}
}

func (c *NATSConsumer) SetServiceName(name string) {
	c.serviceName = name
}

// Consume joins the configured queue group on subject and blocks until ctx
// is cancelled.
func (c *NATSConsumer) Consume(ctx context.Context, subject string, handler HandlerFunc) error {
	sub, err := c.conn.QueueSubscribe(subject, c.cfg.QueueGroup, func(m *nats.Msg) {
		c.handleMessage(ctx, m, subject, handler)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	consumeCtx := logging.WithServiceName(ctx, c.serviceName)
	c.logger.InfowCtx(consumeCtx, "Started consuming",
		"subject", subject,
		"queue_group", c.cfg.QueueGroup,
	)

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) && !errors.Is(err, nats.ErrConnectionDraining) {
		c.logger.WarnwCtx(consumeCtx, "Failed to unsubscribe", "subject", subject, "error", err)
	}
	c.logger.InfowCtx(consumeCtx, "Stopped consuming", "subject", subject, "reason", "context canceled")
	return ctx.Err()
}

func (c *NATSConsumer) handleMessage(ctx context.Context, m *nats.Msg, subject string, handler HandlerFunc) {
	msgCtx, span := tracing.StartSpanFromNATSMessage(ctx, "nats.consume", m.Header)
	defer span.End()
	msgCtx = logging.WithServiceName(msgCtx, c.serviceName)

	var envelope models.MessageEnvelope
	if err := json.Unmarshal(m.Data, &envelope); err != nil {
		c.logger.ErrorwCtx(msgCtx, "Failed to unmarshal message", "error", err, "subject", subject)
		return
	}

	if envelope.Metadata.TraceID != "" {
		msgCtx = logging.WithTraceID(msgCtx, envelope.Metadata.TraceID)
	}
	metrics.IncEventConsumed(constants.BrokerNATS, subject)

	if err := processWithRetry(msgCtx, c.cfg.Retry, c.logger, envelope, handler, subject); err != nil {
		c.logger.ErrorwCtx(msgCtx, "Failed to process message after retries", "error", err, "subject", subject)
	}
}

// Close drains the connection, letting in-flight handlers finish.
func (c *NATSConsumer) Close() error {
	return c.conn.Drain()
}
