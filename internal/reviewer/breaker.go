package reviewer

import (
	"context"
	"time"

	"compliance/internal/logger"
	"compliance/pkg/circuitbreaker"
	"compliance/pkg/metrics"
	"compliance/pkg/retry"
)

// BreakerReviewer guards another Reviewer with a circuit breaker and retries
// failures that happen before the first chunk was emitted. Once text has
// reached the caller a failure is returned as is, so no text is duplicated.
type BreakerReviewer struct {
	next    Reviewer
	breaker *circuitbreaker.Wrapper
	policy  retry.Policy
	logger  logger.Logger
}

func NewBreakerReviewer(next Reviewer, breaker *circuitbreaker.Wrapper, policy retry.Policy, log logger.Logger) *BreakerReviewer {
	if log == nil {
		log = logger.NopLogger()
	}
	return &BreakerReviewer{next: next, breaker: breaker, policy: policy, logger: log}
}

func (r *BreakerReviewer) Stream(ctx context.Context, prompt string, emit func(chunk string)) error {
	emitted := false
	forward := func(chunk string) {
		emitted = true
		emit(chunk)
	}

	return retry.RetryWithCallback(ctx, r.policy, func() error {
		err := r.breaker.Run(ctx, func(ctx context.Context) error {
			return r.next.Stream(ctx, prompt, forward)
		})
		if err != nil && (emitted || ctx.Err() != nil) {
			return retry.NewFatalError(err)
		}
		return err
	}, func(attempt int, err error, next time.Duration) {
		metrics.IncRetryAttempt("reviewer")
		r.logger.WarnwCtx(ctx, "Reviewer stream failed to start, retrying",
			"attempt", attempt,
			"next_delay", next,
			"error", err,
		)
	})
}
