package reviewer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"compliance/internal/logger"
	apperrors "compliance/pkg/errors"
	"compliance/pkg/metrics"
)

const DefaultTimeout = 2 * time.Minute

// NarrativeState is a point-in-time copy of the narrative.
type NarrativeState struct {
	Text      string
	Streaming bool
	Err       error
}

// Narrative owns the single reviewer text buffer of a check. At most one
// stream writes into it; starting a new run clears it first.
type Narrative struct {
	reviewer Reviewer
	timeout  time.Duration
	logger   logger.Logger

	mu         sync.Mutex
	buf        strings.Builder
	streaming  bool
	err        error
	cancel     context.CancelFunc
	done       chan struct{}
	generation uint64
}

type NarrativeOption func(*Narrative)

func WithTimeout(d time.Duration) NarrativeOption {
	return func(n *Narrative) {
		if d > 0 {
			n.timeout = d
		}
	}
}

func WithNarrativeLogger(log logger.Logger) NarrativeOption {
	return func(n *Narrative) {
		if log != nil {
			n.logger = log
		}
	}
}

func NewNarrative(r Reviewer, opts ...NarrativeOption) *Narrative {
	n := &Narrative{
		reviewer: r,
		timeout:  DefaultTimeout,
		logger:   logger.NopLogger(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Run clears the buffer and starts streaming prompt in the background. The
// stream outlives the caller's context cancellation but not its values; it
// is bounded by the narrative timeout and by Cancel.
func (n *Narrative) Run(ctx context.Context, prompt string) error {
	if n.reviewer == nil {
		return apperrors.ErrAnalysis.WithDetail("message", "No reviewer is configured.")
	}

	n.mu.Lock()
	if n.streaming {
		n.mu.Unlock()
		return apperrors.ErrConflict.WithDetail("message", "Reviewer analysis is already running.")
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	n.generation++
	gen := n.generation
	n.buf.Reset()
	n.err = nil
	n.streaming = true
	n.cancel = cancel
	n.done = make(chan struct{})
	done := n.done
	n.mu.Unlock()

	go n.stream(runCtx, cancel, gen, done, prompt)
	return nil
}

func (n *Narrative) stream(ctx context.Context, cancel context.CancelFunc, gen uint64, done chan struct{}, prompt string) {
	defer close(done)
	defer cancel()

	start := time.Now()
	err := n.reviewer.Stream(ctx, prompt, func(chunk string) {
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.generation == gen {
			n.buf.WriteString(chunk)
		}
	})

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.generation != gen {
		metrics.ObserveReviewerStream("cancelled", time.Since(start))
		return
	}

	n.streaming = false
	n.cancel = nil

	switch {
	case err == nil:
		metrics.ObserveReviewerStream("completed", time.Since(start))
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		n.err = apperrors.Wrap(err, apperrors.ErrAnalysis).
			WithDetail("message", "Reviewer analysis timed out after "+n.timeout.String()+".")
		metrics.ObserveReviewerStream("timeout", time.Since(start))
		n.logger.WarnwCtx(ctx, "Reviewer stream timed out", "timeout", n.timeout)
	default:
		n.err = apperrors.WrapPreserve(err, apperrors.ErrAnalysis)
		metrics.ObserveReviewerStream("failed", time.Since(start))
		n.logger.ErrorwCtx(ctx, "Reviewer stream failed", "error", err)
	}
}

// Cancel stops an in-flight stream and discards anything it emits later.
// The buffer keeps the text received so far.
func (n *Narrative) Cancel() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()
}

// Clear cancels any stream and empties the buffer.
func (n *Narrative) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()
	n.buf.Reset()
	n.err = nil
}

func (n *Narrative) stopLocked() {
	if !n.streaming {
		return
	}
	n.generation++
	n.streaming = false
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}

// Wait blocks until the current stream ends or ctx is done.
func (n *Narrative) Wait(ctx context.Context) error {
	n.mu.Lock()
	done := n.done
	n.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Narrative) Streaming() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.streaming
}

func (n *Narrative) Text() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.buf.String()
}

func (n *Narrative) State() NarrativeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return NarrativeState{
		Text:      n.buf.String(),
		Streaming: n.streaming,
		Err:       n.err,
	}
}
