package check

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"compliance/internal/ingest"
	"compliance/internal/logger"
	"compliance/internal/prompt"
	"compliance/internal/report"
	"compliance/internal/reviewer"
	"compliance/internal/rules"
	"compliance/internal/validation"
	apperrors "compliance/pkg/errors"
	"compliance/pkg/logging"
	"compliance/pkg/metrics"
	"compliance/pkg/models"
	"compliance/pkg/tracing"
)

// RuleSource supplies the active rules for a run.
type RuleSource interface {
	List(ctx context.Context) []rules.CheckRule
}

// Validator evaluates a record against rules. *validation.Engine is the
// production implementation.
type Validator interface {
	Validate(ctx context.Context, checkRules []rules.CheckRule, record rules.Record) []validation.Result
}

// Lifecycle runs one compliance check at a time:
// idle -> parsing -> validating -> completed, or error on failure. A
// completed run may stream a reviewer narrative alongside.
type Lifecycle struct {
	rules     RuleSource
	ingestor  ingest.Ingestor
	engine    Validator
	narrative *reviewer.Narrative
	sink      report.Sink
	runIDs    RunIDSource
	profile   prompt.Profile
	events    *EventPublisher
	logger    logger.Logger

	mu         sync.Mutex
	state      State
	generation uint64
	current    *run
}

type Option func(*Lifecycle)

func WithIngestor(i ingest.Ingestor) Option {
	return func(l *Lifecycle) {
		l.ingestor = i
	}
}

func WithValidator(v Validator) Option {
	return func(l *Lifecycle) {
		if v != nil {
			l.engine = v
		}
	}
}

func WithNarrative(n *reviewer.Narrative) Option {
	return func(l *Lifecycle) {
		if n != nil {
			l.narrative = n
		}
	}
}

func WithSink(s report.Sink) Option {
	return func(l *Lifecycle) {
		if s != nil {
			l.sink = s
		}
	}
}

func WithRunIDSource(src RunIDSource) Option {
	return func(l *Lifecycle) {
		if src != nil {
			l.runIDs = src
		}
	}
}

func WithProfile(p prompt.Profile) Option {
	return func(l *Lifecycle) {
		l.profile = p
	}
}

func WithEventPublisher(p *EventPublisher) Option {
	return func(l *Lifecycle) {
		l.events = p
	}
}

func WithLogger(log logger.Logger) Option {
	return func(l *Lifecycle) {
		if log != nil {
			l.logger = log
		}
	}
}

func NewLifecycle(source RuleSource, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		rules:     source,
		ingestor:  ingest.NewStructuredIngestor(),
		engine:    validation.NewEngine(),
		narrative: reviewer.NewNarrative(nil),
		sink:      report.DiscardSink{},
		runIDs:    NewCounterSource(),
		profile:   prompt.DefaultProfile(),
		logger:    logger.NopLogger(),
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start runs ingestion and validation synchronously and returns the
// resulting snapshot. Deep analysis continues in the background.
func (l *Lifecycle) Start(ctx context.Context, req Request) (Snapshot, error) {
	mode, err := req.resolveMode()
	if err != nil {
		return Snapshot{}, err
	}
	if len(req.Artifacts) == 0 {
		return Snapshot{}, apperrors.ErrValidation.WithDetail("message", "No records were provided for the check.")
	}
	checkRules := l.rules.List(ctx)
	if len(checkRules) == 0 {
		return Snapshot{}, apperrors.ErrValidation.WithDetail("message", "No check rules are configured.")
	}

	l.mu.Lock()
	if l.state.Busy() {
		l.mu.Unlock()
		return Snapshot{}, apperrors.ErrConflict.WithDetail("message", "A check is already running.")
	}
	l.generation++
	r := &run{
		generation:    l.generation,
		startedAt:     time.Now(),
		mode:          mode,
		saveToKB:      req.SaveToKB,
		artifactCount: len(req.Artifacts),
		rules:         checkRules,
	}
	l.current = r
	l.state = StateParsing
	l.mu.Unlock()

	l.narrative.Clear()

	runID, err := l.runIDs.Next(ctx)
	if err != nil {
		return l.fail(ctx, r, err)
	}
	l.mu.Lock()
	r.id = runID
	l.mu.Unlock()

	ctx = logging.WithRunID(ctx, runID)
	ctx, span := tracing.StartSpan(ctx, "check.Run",
		attribute.String("check.run_id", runID),
		attribute.String("check.mode", string(mode)),
		attribute.Int("check.artifacts", len(req.Artifacts)),
	)

	l.logger.InfowCtx(ctx, "Check started", "mode", mode, "artifacts", len(req.Artifacts), "rules", len(checkRules))

	record, err := l.ingestor.Ingest(ctx, req.Artifacts)
	if err != nil {
		err = apperrors.WrapPreserve(err, apperrors.ErrIngestion)
		tracing.EndSpan(span, err)
		return l.fail(ctx, r, err)
	}

	if !l.advance(r, StateValidating, func() { r.record = record }) {
		tracing.EndSpan(span, nil)
		return l.Snapshot(), reset()
	}

	results, err := l.validate(ctx, checkRules, record)
	if err != nil {
		tracing.EndSpan(span, err)
		return l.fail(ctx, r, err)
	}
	summary := validation.Summarize(results)
	promptText := prompt.Synthesize(l.profile, checkRules, record)

	if !l.advance(r, StateCompleted, func() {
		r.results = results
		r.summary = summary
		r.prompt = promptText
	}) {
		tracing.EndSpan(span, nil)
		return l.Snapshot(), reset()
	}
	tracing.EndSpan(span, nil)

	metrics.ObserveCheckRun(string(mode), string(StateCompleted), time.Since(r.startedAt))
	metrics.AddFindings(string(validation.SeverityWarning), summary.Warnings)
	metrics.AddFindings(string(validation.SeverityError), summary.Errors)
	l.logger.InfowCtx(ctx, "Check completed",
		"total", summary.Total,
		"passed", summary.Passed,
		"warnings", summary.Warnings,
		"errors", summary.Errors,
	)

	l.publishCompleted(ctx, r)

	if mode == report.ModeLocalRulesWithReview {
		if err := l.narrative.Run(ctx, promptText); err != nil {
			l.logger.WarnwCtx(ctx, "Reviewer analysis not started", "error", err)
			l.mu.Lock()
			r.analysisErr = err
			l.mu.Unlock()
		}
	}

	return l.Snapshot(), nil
}

func reset() error {
	return apperrors.ErrConflict.WithDetail("message", "The check was reset while it was running.")
}

// advance moves r to state unless a Reset or newer run replaced it.
func (l *Lifecycle) advance(r *run, state State, apply func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != r {
		return false
	}
	apply()
	l.state = state
	return true
}

func (l *Lifecycle) fail(ctx context.Context, r *run, err error) (Snapshot, error) {
	l.advance(r, StateError, func() { r.err = err })
	metrics.ObserveCheckRun(string(r.mode), string(StateError), time.Since(r.startedAt))
	l.logger.ErrorwCtx(ctx, "Check failed", "error", err)
	return l.Snapshot(), err
}

func (l *Lifecycle) validate(ctx context.Context, checkRules []rules.CheckRule, record rules.Record) (results []validation.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.RecoverPanic(r, "validation")
		}
	}()
	return l.engine.Validate(ctx, checkRules, record), nil
}

func (l *Lifecycle) publishCompleted(ctx context.Context, r *run) {
	event := models.CheckCompletedEvent{
		RunID:         r.id,
		Mode:          string(r.mode),
		ArtifactCount: r.artifactCount,
		Total:         r.summary.Total,
		Passed:        r.summary.Passed,
		Warnings:      r.summary.Warnings,
		Errors:        r.summary.Errors,
		SaveToKB:      r.saveToKB,
		CompletedAt:   time.Now().UTC(),
	}
	if err := l.events.PublishCompleted(ctx, event); err != nil {
		l.logger.WarnwCtx(ctx, "Failed to publish check completed event", "error", err)
	}
}

// Regenerate restarts the reviewer narrative from the stored prompt.
func (l *Lifecycle) Regenerate(ctx context.Context) error {
	l.mu.Lock()
	if l.state != StateCompleted {
		l.mu.Unlock()
		return apperrors.ErrConflict.WithDetail("message", "Only a completed check can be analysed again.")
	}
	r := l.current
	l.mu.Unlock()

	if l.narrative.Streaming() {
		return apperrors.ErrConflict.WithDetail("message", "Reviewer analysis is already running.")
	}

	ctx = logging.WithRunID(ctx, r.id)
	err := l.narrative.Run(ctx, r.prompt)

	l.mu.Lock()
	if l.current == r {
		r.analysisErr = err
	}
	l.mu.Unlock()
	return err
}

// Reset returns to idle and stops any narrative in flight.
func (l *Lifecycle) Reset() {
	l.mu.Lock()
	l.state = StateIdle
	l.current = nil
	l.mu.Unlock()

	l.narrative.Clear()
}

// WaitNarrative blocks until the current narrative stream ends.
func (l *Lifecycle) WaitNarrative(ctx context.Context) error {
	return l.narrative.Wait(ctx)
}

func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Lifecycle) Snapshot() Snapshot {
	l.mu.Lock()
	snap := Snapshot{State: l.state, Results: []validation.Result{}}
	r := l.current
	if r != nil {
		startedAt := r.startedAt
		snap.RunID = r.id
		snap.StartedAt = &startedAt
		snap.Mode = r.mode
		snap.ArtifactCount = r.artifactCount
		snap.SaveToKB = r.saveToKB
		snap.Record = r.record
		if r.results != nil {
			snap.Results = r.results
		}
		snap.Summary = r.summary
		snap.Prompt = r.prompt
		if r.err != nil {
			snap.Error = errorMessage(r.err)
		}
		if r.analysisErr != nil {
			snap.NarrativeError = errorMessage(r.analysisErr)
		}
	}
	l.mu.Unlock()

	if r == nil {
		return snap
	}
	ns := l.narrative.State()
	snap.Narrative = ns.Text
	snap.Streaming = ns.Streaming
	if ns.Err != nil {
		snap.NarrativeError = errorMessage(ns.Err)
	}
	return snap
}

// Report renders the report of the completed run without delivering it.
func (l *Lifecycle) Report() (report.Document, error) {
	l.mu.Lock()
	if l.state != StateCompleted {
		l.mu.Unlock()
		return report.Document{}, apperrors.ErrConflict.WithDetail("message", "There is no completed check to export.")
	}
	r := l.current
	in := report.Input{
		RunID:         r.id,
		Timestamp:     r.startedAt,
		ArtifactCount: r.artifactCount,
		Mode:          r.mode,
		SaveToKB:      r.saveToKB,
		Profile:       l.profile,
		Record:        r.record,
		Results:       r.results,
		Rules:         r.rules,
	}
	l.mu.Unlock()

	in.Narrative = l.narrative.Text()
	return report.Export(in), nil
}

// Export renders the report and writes it through the sink. A sink failure
// is returned as ErrExport together with the rendered document; the run
// itself is unaffected.
func (l *Lifecycle) Export(ctx context.Context) (report.Document, string, error) {
	doc, err := l.Report()
	if err != nil {
		return report.Document{}, "", err
	}

	location, err := l.sink.Write(ctx, doc)
	metrics.IncReportExport(err)
	if err != nil {
		err = apperrors.WrapPreserve(err, apperrors.ErrExport)
		l.logger.WarnwCtx(ctx, "Report export failed", "file", doc.Filename, "error", err)
		return doc, "", err
	}
	if location != "" {
		l.logger.InfowCtx(ctx, "Report exported", "location", location)
	}
	return doc, location, nil
}

// SynthesizePrompt builds the reviewer prompt for record against the
// current rules without running a check.
func (l *Lifecycle) SynthesizePrompt(ctx context.Context, record rules.Record) (string, error) {
	checkRules := l.rules.List(ctx)
	if len(checkRules) == 0 {
		return "", apperrors.ErrValidation.WithDetail("message", "No check rules are configured.")
	}
	return prompt.Synthesize(l.profile, checkRules, record), nil
}

func errorMessage(err error) string {
	var appErr *apperrors.Error
	if stderrors.As(err, &appErr) {
		if msg, ok := appErr.Details["message"].(string); ok && msg != "" {
			return msg
		}
		return appErr.Message
	}
	return err.Error()
}
