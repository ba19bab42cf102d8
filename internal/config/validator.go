package config

import (
	"fmt"
	"strings"

	"compliance/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateStorage(cfg.Storage, cfg.Database); err != nil {
		errors = append(errors, err)
	}

	if err := validateBroker(cfg.Broker); err != nil {
		errors = append(errors, err)
	}

	if err := validateDatabase(cfg.Database); err != nil {
		errors = append(errors, err)
	}

	if err := validateReviewer(cfg.Reviewer); err != nil {
		errors = append(errors, err)
	}

	if err := validateCircuitBreaker(cfg.CircuitBreaker); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateStorage(cfg StorageConfig, db DatabaseConfig) error {
	if cfg.Key == "" {
		return &ValidationError{
			Field:   "storage.key",
			Message: "storage key is required",
		}
	}

	switch cfg.Backend {
	case constants.StorageBackendMemory:
		return nil
	case constants.StorageBackendFile:
		if cfg.File.Dir == "" {
			return &ValidationError{
				Field:   "storage.file.dir",
				Message: "file storage requires a directory",
			}
		}
		if cfg.File.Debounce < 0 {
			return &ValidationError{
				Field:   "storage.file.debounce",
				Message: "debounce must be non-negative",
			}
		}
		return nil
	case constants.StorageBackendRedis:
		if !db.Redis.Enabled() {
			return &ValidationError{
				Field:   "database.redis.host",
				Message: "redis storage requires database.redis to be configured",
			}
		}
		return nil
	case constants.StorageBackendMongoDB:
		if !db.MongoDB.Enabled() {
			return &ValidationError{
				Field:   "database.mongodb.uri",
				Message: "mongodb storage requires database.mongodb to be configured",
			}
		}
		return nil
	case constants.StorageBackendPostgres:
		if !db.Postgres.Enabled() {
			return &ValidationError{
				Field:   "database.postgres.host",
				Message: "postgres storage requires database.postgres to be configured",
			}
		}
		return nil
	default:
		return &ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("unknown storage backend: %s (supported: memory, file, redis, mongodb, postgres)", cfg.Backend),
		}
	}
}

func validateBroker(cfg BrokerConfig) error {
	switch cfg.Type {
	case "", constants.BrokerNone:
		return nil
	case constants.BrokerKafka:
		return validateKafka(cfg.Kafka)
	case constants.BrokerNATS:
		return validateNATS(cfg.NATS)
	default:
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type: %s (supported: kafka, nats, none)", cfg.Type),
		}
	}
}

func validateKafka(cfg KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return &ValidationError{
			Field:   "broker.kafka.brokers",
			Message: "at least one Kafka broker is required",
		}
	}

	for i, broker := range cfg.Brokers {
		if broker == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("broker.kafka.brokers[%d]", i),
				Message: "broker address cannot be empty",
			}
		}
	}

	if cfg.GroupID == "" {
		return &ValidationError{
			Field:   "broker.kafka.group_id",
			Message: "Kafka consumer group ID is required",
		}
	}

	if cfg.RuleEventsTopic == "" {
		return &ValidationError{
			Field:   "broker.kafka.rule_events_topic",
			Message: "rule events topic is required",
		}
	}

	return validateRetry("broker.kafka.retry", cfg.Retry)
}

func validateNATS(cfg NATSConfig) error {
	if !strings.HasPrefix(cfg.URL, "nats://") && !strings.HasPrefix(cfg.URL, "tls://") {
		return &ValidationError{
			Field:   "broker.nats.url",
			Message: "NATS URL must start with nats:// or tls://",
		}
	}

	if cfg.RuleEventsSubject == "" {
		return &ValidationError{
			Field:   "broker.nats.rule_events_subject",
			Message: "rule events subject is required",
		}
	}

	return nil
}

func validateRetry(prefix string, cfg RetryConfig) error {
	if cfg.MaxAttempts < 0 {
		return &ValidationError{
			Field:   prefix + ".max_attempts",
			Message: "max_attempts must be non-negative",
		}
	}

	if cfg.InitialInterval < 0 {
		return &ValidationError{
			Field:   prefix + ".initial_interval",
			Message: "initial_interval must be non-negative",
		}
	}

	if cfg.MaxInterval < 0 {
		return &ValidationError{
			Field:   prefix + ".max_interval",
			Message: "max_interval must be non-negative",
		}
	}

	if cfg.MaxInterval > 0 && cfg.InitialInterval > 0 && cfg.MaxInterval < cfg.InitialInterval {
		return &ValidationError{
			Field:   prefix + ".max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	if cfg.Multiplier <= 0 {
		return &ValidationError{
			Field:   prefix + ".multiplier",
			Message: "multiplier must be positive",
		}
	}

	return nil
}

func validateDatabase(cfg DatabaseConfig) error {
	if cfg.Postgres.Host != "" || cfg.Postgres.Port > 0 {
		if err := validatePostgres(cfg.Postgres); err != nil {
			return err
		}
	}

	if cfg.Redis.Host != "" || cfg.Redis.Port > 0 {
		if err := validateRedis(cfg.Redis); err != nil {
			return err
		}
	}

	if cfg.MongoDB.URI != "" {
		if err := validateMongoDB(cfg.MongoDB); err != nil {
			return err
		}
	}

	return nil
}

func validatePostgres(cfg PostgresConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.postgres.host",
			Message: "PostgreSQL host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.postgres.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.User == "" {
		return &ValidationError{
			Field:   "database.postgres.user",
			Message: "PostgreSQL user is required",
		}
	}

	if cfg.DBName == "" {
		return &ValidationError{
			Field:   "database.postgres.dbname",
			Message: "PostgreSQL database name is required",
		}
	}

	validSSLModes := map[string]bool{
		"disable": true, "allow": true, "prefer": true,
		"require": true, "verify-ca": true, "verify-full": true,
	}
	if cfg.SSLMode != "" && !validSSLModes[strings.ToLower(cfg.SSLMode)] {
		return &ValidationError{
			Field:   "database.postgres.sslmode",
			Message: fmt.Sprintf("invalid SSL mode: %s (valid: disable, allow, prefer, require, verify-ca, verify-full)", cfg.SSLMode),
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.redis.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}

func validateMongoDB(cfg MongoDBConfig) error {
	if !strings.HasPrefix(cfg.URI, "mongodb://") && !strings.HasPrefix(cfg.URI, "mongodb+srv://") {
		return &ValidationError{
			Field:   "database.mongodb.uri",
			Message: "MongoDB URI must start with mongodb:// or mongodb+srv://",
		}
	}

	if cfg.Database == "" {
		return &ValidationError{
			Field:   "database.mongodb.database",
			Message: "MongoDB database name is required",
		}
	}

	return nil
}

func validateReviewer(cfg ReviewerConfig) error {
	if !cfg.Enabled {
		return nil
	}

	switch cfg.Provider {
	case constants.ReviewerProviderOpenAI:
		if cfg.APIKey == "" && cfg.APIKeyEnv == "" {
			return &ValidationError{
				Field:   "reviewer.api_key_env",
				Message: "an API key or the name of its environment variable is required",
			}
		}
	case constants.ReviewerProviderStatic:
		if strings.TrimSpace(cfg.StaticText) == "" {
			return &ValidationError{
				Field:   "reviewer.static_text",
				Message: "static reviewer requires text",
			}
		}
	default:
		return &ValidationError{
			Field:   "reviewer.provider",
			Message: fmt.Sprintf("unknown reviewer provider: %s (supported: openai, static)", cfg.Provider),
		}
	}

	if cfg.Timeout <= 0 {
		return &ValidationError{
			Field:   "reviewer.timeout",
			Message: "reviewer timeout must be positive",
		}
	}

	return validateRetry("reviewer.retry", cfg.Retry)
}

func validateCircuitBreaker(cfg CircuitBreakerConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		return &ValidationError{
			Field:   "circuit_breaker.failure_ratio",
			Message: fmt.Sprintf("failure ratio must be in (0, 1], got %g", cfg.FailureRatio),
		}
	}

	if cfg.Timeout <= 0 {
		return &ValidationError{
			Field:   "circuit_breaker.timeout",
			Message: "open-state timeout must be positive",
		}
	}

	return nil
}
