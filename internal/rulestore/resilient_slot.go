package rulestore

import (
	"context"
	"time"

	"compliance/internal/logger"
	"compliance/pkg/metrics"
	"compliance/pkg/retry"
)

// ResilientSlot retries transient slot failures and records per-backend
// metrics. It wraps the network-backed slots (redis, mongodb, postgres).
type ResilientSlot struct {
	backend string
	next    Slot
	policy  retry.Policy
	logger  logger.Logger
}

func NewResilientSlot(backend string, next Slot, policy retry.Policy, log logger.Logger) *ResilientSlot {
	if log == nil {
		log = logger.NopLogger()
	}
	return &ResilientSlot{backend: backend, next: next, policy: policy, logger: log}
}

func (s *ResilientSlot) onRetry(ctx context.Context, op string) func(int, error, time.Duration) {
	return func(attempt int, err error, next time.Duration) {
		metrics.IncRetryAttempt("rule_slot_" + s.backend)
		s.logger.WarnwCtx(ctx, "Rule slot operation failed, retrying",
			"backend", s.backend,
			"operation", op,
			"attempt", attempt,
			"next_delay", next,
			"error", err,
		)
	}
}

func (s *ResilientSlot) Load(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	var (
		data []byte
		ok   bool
	)
	err := retry.RetryWithCallback(ctx, s.policy, func() error {
		var err error
		data, ok, err = s.next.Load(ctx, key)
		return err
	}, s.onRetry(ctx, "load"))

	metrics.ObserveSlotOperation(s.backend, "load", err, time.Since(start))
	return data, ok, err
}

func (s *ResilientSlot) Save(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	err := retry.RetryWithCallback(ctx, s.policy, func() error {
		return s.next.Save(ctx, key, data)
	}, s.onRetry(ctx, "save"))

	metrics.ObserveSlotOperation(s.backend, "save", err, time.Since(start))
	return err
}
