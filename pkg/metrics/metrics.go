package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RuleMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_mutations_total",
			Help: "Total number of rule store mutations (count)",
		},
		[]string{"action", "status"},
	)

	ActiveRules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_rules",
			Help: "Number of rules currently in the store (count)",
		},
	)

	RuleReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_reloads_total",
			Help: "Total number of rule store reloads triggered by external changes (count)",
		},
		[]string{"source", "status"},
	)

	CheckRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "check_runs_total",
			Help: "Total number of compliance check runs by final state (count)",
		},
		[]string{"mode", "outcome"},
	)

	CheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "check_duration_ms",
			Help:    "Duration of a check run from start to completed or error in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"outcome"},
	)

	FindingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "check_findings_total",
			Help: "Total number of field results produced by the validation engine (count)",
		},
		[]string{"severity"},
	)

	ReviewerStreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewer_streams_total",
			Help: "Total number of reviewer narrative streams by status (count)",
		},
		[]string{"status"},
	)

	ReviewerStreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reviewer_stream_duration_ms",
			Help:    "Duration of reviewer narrative streams in milliseconds",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
		},
		[]string{"status"},
	)

	ReportExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_exports_total",
			Help: "Total number of report exports (count)",
		},
		[]string{"status"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"component"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_events_published_total",
			Help: "Total number of events published to the broker (count)",
		},
		[]string{"broker", "topic", "status"},
	)

	EventsConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_events_consumed_total",
			Help: "Total number of events consumed from the broker (count)",
		},
		[]string{"broker", "topic"},
	)

	BrokerWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "broker_write_duration_ms",
			Help:    "Duration of writing events to the broker in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"broker", "topic"},
	)

	SlotOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rule_slot_operations_total",
			Help: "Total number of rule slot reads and writes (count)",
		},
		[]string{"backend", "operation", "status"},
	)

	SlotOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rule_slot_operation_duration_ms",
			Help:    "Duration of rule slot reads and writes in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"backend", "operation"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RuleMutationsTotal,
			ActiveRules,
			RuleReloadsTotal,
			CheckRunsTotal,
			CheckDuration,
			FindingsTotal,
			ReviewerStreamsTotal,
			ReviewerStreamDuration,
			ReportExportsTotal,
			RetryAttemptsTotal,
			CircuitBreakerState,
			CircuitBreakerRequests,
			CircuitBreakerFailures,
			RateLimitRequestsTotal,
			EventsPublishedTotal,
			EventsConsumedTotal,
			BrokerWriteDuration,
			SlotOperationsTotal,
			SlotOperationDuration,
		)
	})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func IncRuleMutation(action string, err error) {
	RuleMutationsTotal.WithLabelValues(action, status(err)).Inc()
}

func SetActiveRules(count int) {
	ActiveRules.Set(float64(count))
}

func IncRuleReload(source string, err error) {
	RuleReloadsTotal.WithLabelValues(source, status(err)).Inc()
}

func ObserveCheckRun(mode, outcome string, duration time.Duration) {
	CheckRunsTotal.WithLabelValues(mode, outcome).Inc()
	CheckDuration.WithLabelValues(outcome).Observe(float64(duration.Milliseconds()))
}

func AddFindings(severity string, count int) {
	if count > 0 {
		FindingsTotal.WithLabelValues(severity).Add(float64(count))
	}
}

func ObserveReviewerStream(status string, duration time.Duration) {
	ReviewerStreamsTotal.WithLabelValues(status).Inc()
	ReviewerStreamDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func IncReportExport(err error) {
	ReportExportsTotal.WithLabelValues(status(err)).Inc()
}

func IncRetryAttempt(component string) {
	RetryAttemptsTotal.WithLabelValues(component).Inc()
}

func IncEventPublished(broker, topic string, err error) {
	EventsPublishedTotal.WithLabelValues(broker, topic, status(err)).Inc()
}

func IncEventConsumed(broker, topic string) {
	EventsConsumedTotal.WithLabelValues(broker, topic).Inc()
}

func ObserveBrokerWriteDuration(broker, topic string, duration time.Duration) {
	BrokerWriteDuration.WithLabelValues(broker, topic).Observe(float64(duration.Milliseconds()))
}

func ObserveSlotOperation(backend, operation string, err error, duration time.Duration) {
	SlotOperationsTotal.WithLabelValues(backend, operation, status(err)).Inc()
	SlotOperationDuration.WithLabelValues(backend, operation).Observe(float64(duration.Milliseconds()))
}
