package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"compliance/internal/constants"
	"compliance/internal/prompt"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if configFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout_seconds", constants.DefaultServerTimeout)
	viper.SetDefault("server.write_timeout_seconds", constants.DefaultServerTimeout)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("storage.backend", constants.StorageBackendFile)
	viper.SetDefault("storage.key", constants.DefaultRuleSlotKey)
	viper.SetDefault("storage.file.dir", "data")
	viper.SetDefault("storage.file.debounce", constants.DefaultWatchDebounce)
	viper.SetDefault("storage.retry.max_attempts", 3)
	viper.SetDefault("storage.retry.initial_interval", "100ms")
	viper.SetDefault("storage.retry.max_interval", "2s")
	viper.SetDefault("storage.retry.multiplier", 2.0)

	viper.SetDefault("broker.type", constants.BrokerNone)
	viper.SetDefault("broker.kafka.group_id", "compliance-service")
	viper.SetDefault("broker.kafka.rule_events_topic", constants.DefaultRuleEventsTopic)
	viper.SetDefault("broker.kafka.check_events_topic", constants.DefaultCheckEventsTopic)
	viper.SetDefault("broker.kafka.retry.max_attempts", 3)
	viper.SetDefault("broker.kafka.retry.multiplier", 2.0)
	viper.SetDefault("broker.nats.url", "nats://127.0.0.1:4222")
	viper.SetDefault("broker.nats.queue_group", "compliance-service")
	viper.SetDefault("broker.nats.rule_events_subject", constants.DefaultRuleEventsTopic)
	viper.SetDefault("broker.nats.check_events_subject", constants.DefaultCheckEventsTopic)
	viper.SetDefault("broker.nats.retry.max_attempts", 3)
	viper.SetDefault("broker.nats.retry.multiplier", 2.0)

	viper.SetDefault("reviewer.provider", constants.ReviewerProviderOpenAI)
	viper.SetDefault("reviewer.api_key_env", "OPENAI_API_KEY")
	viper.SetDefault("reviewer.timeout", constants.DefaultReviewerTimeout)
	viper.SetDefault("reviewer.retry.max_attempts", 3)
	viper.SetDefault("reviewer.retry.initial_interval", "500ms")
	viper.SetDefault("reviewer.retry.max_interval", "5s")
	viper.SetDefault("reviewer.retry.multiplier", 2.0)

	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", "60s")
	viper.SetDefault("circuit_breaker.timeout", "30s")
	viper.SetDefault("circuit_breaker.failure_ratio", 0.5)
	viper.SetDefault("circuit_breaker.min_requests", 3)

	viper.SetDefault("report.dir", "reports")
	viper.SetDefault("check.concurrency", 4)

	viper.SetDefault("management.rate_limit.rps", 20)
	viper.SetDefault("management.rate_limit.burst", 40)
	viper.SetDefault("management.rate_limit.cleanup_interval", 60)
	viper.SetDefault("management.rate_limit.max_age", 300)

	viper.SetDefault("tracing.service_name", constants.ServiceName)
	viper.SetDefault("tracing.sampler.type", "always_on")
}

func bindEnvVariables() {
	viper.BindEnv("storage.backend", "STORAGE_BACKEND")
	viper.BindEnv("storage.key", "STORAGE_KEY")
	viper.BindEnv("storage.file.dir", "STORAGE_FILE_DIR")

	viper.BindEnv("broker.type", "BROKER_TYPE")
	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.group_id", "BROKER_KAFKA_GROUP_ID")
	viper.BindEnv("broker.kafka.rule_events_topic", "BROKER_KAFKA_RULE_EVENTS_TOPIC")
	viper.BindEnv("broker.kafka.check_events_topic", "BROKER_KAFKA_CHECK_EVENTS_TOPIC")
	viper.BindEnv("broker.nats.url", "BROKER_NATS_URL")

	viper.BindEnv("database.postgres.host", "DATABASE_POSTGRES_HOST")
	viper.BindEnv("database.postgres.port", "DATABASE_POSTGRES_PORT")
	viper.BindEnv("database.postgres.user", "DATABASE_POSTGRES_USER")
	viper.BindEnv("database.postgres.password", "DATABASE_POSTGRES_PASSWORD")
	viper.BindEnv("database.postgres.dbname", "DATABASE_POSTGRES_DBNAME")
	viper.BindEnv("database.postgres.sslmode", "DATABASE_POSTGRES_SSLMODE")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("database.mongodb.uri", "DATABASE_MONGODB_URI")
	viper.BindEnv("database.mongodb.database", "DATABASE_MONGODB_DATABASE")

	viper.BindEnv("reviewer.enabled", "REVIEWER_ENABLED")
	viper.BindEnv("reviewer.base_url", "REVIEWER_BASE_URL")
	viper.BindEnv("reviewer.model", "REVIEWER_MODEL")
	viper.BindEnv("reviewer.api_key", "REVIEWER_API_KEY")

	viper.BindEnv("report.dir", "REPORT_DIR")

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout_seconds", "SERVER_READ_TIMEOUT_SECONDS")
	viper.BindEnv("server.write_timeout_seconds", "SERVER_WRITE_TIMEOUT_SECONDS")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(cfg *Config) error {
	if brokersEnv := viper.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	if otlpEndpoint := viper.GetString("TRACING_OTLP_ENDPOINT"); otlpEndpoint != "" {
		cfg.Tracing.OTLP.Endpoint = otlpEndpoint
	}

	return nil
}

// ProfileOrDefault returns the configured record profile, or the meeting profile when
// none is configured.
func (c CheckConfig) ProfileOrDefault() prompt.Profile {
	p := c.Profile
	if p.Header == "" && p.Title == "" && len(p.Attributes) == 0 {
		return prompt.DefaultProfile()
	}
	return p
}
