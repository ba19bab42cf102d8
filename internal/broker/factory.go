package broker

import (
	"fmt"

	"compliance/internal/config"
	"compliance/internal/constants"
	"compliance/internal/logger"
)

// NewProducer returns the producer for the configured broker type. With no
// broker configured it returns a NopProducer.
func NewProducer(cfg config.BrokerConfig, log logger.Logger) (Producer, error) {
	switch cfg.Type {
	case constants.BrokerKafka:
		return NewKafkaProducer(cfg.Kafka, log), nil
	case constants.BrokerNATS:
		conn, err := ConnectNATS(cfg.NATS, log)
		if err != nil {
			return nil, err
		}
		return NewNATSProducer(conn, log), nil
	case "", constants.BrokerNone:
		return NopProducer{}, nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

// NewConsumer returns the consumer for the configured broker type, or nil
// when no broker is configured.
func NewConsumer(cfg config.BrokerConfig, log logger.Logger) (Consumer, error) {
	switch cfg.Type {
	case constants.BrokerKafka:
		return NewKafkaConsumer(cfg.Kafka, log), nil
	case constants.BrokerNATS:
		conn, err := ConnectNATS(cfg.NATS, log)
		if err != nil {
			return nil, err
		}
		return NewNATSConsumer(conn, cfg.NATS, log), nil
	case "", constants.BrokerNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

// Topics returns the rule and check event topics (or subjects) for cfg.
func Topics(cfg config.BrokerConfig) (ruleEvents, checkEvents string) {
	if cfg.Type == constants.BrokerNATS {
		return cfg.NATS.RuleEventsSubject, cfg.NATS.CheckEventsSubject
	}
	return cfg.Kafka.RuleEventsTopic, cfg.Kafka.CheckEventsTopic
}
