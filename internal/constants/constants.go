package constants

import "time"

const (
	ServiceName = "compliance-service"
)

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultServerTimeout = 30 * time.Second
	ShutdownTimeout      = 5 * time.Second
)

const (
	StorageBackendMemory   = "memory"
	StorageBackendFile     = "file"
	StorageBackendRedis    = "redis"
	StorageBackendMongoDB  = "mongodb"
	StorageBackendPostgres = "postgres"
)

const (
	DefaultRuleSlotKey   = "document_compliance_check_rules"
	DefaultWatchDebounce = 200 * time.Millisecond
)

const (
	BrokerKafka = "kafka"
	BrokerNATS  = "nats"
	BrokerNone  = "none"
)

const (
	DefaultRuleEventsTopic  = "compliance.rules.updated"
	DefaultCheckEventsTopic = "compliance.checks.completed"
)

const (
	ReviewerProviderOpenAI = "openai"
	ReviewerProviderStatic = "static"
	DefaultReviewerTimeout = 2 * time.Minute
)

const (
	RunIDCounterKey = "compliance:run_id"
)

const (
	DefaultMongoDBName = "compliance"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)
