package management

import (
	"context"
	"time"

	"compliance/internal/constants"
	"compliance/internal/logger"
	"compliance/internal/rules"
	pkgerrors "compliance/pkg/errors"
	"compliance/pkg/logging"
	"compliance/pkg/metrics"
	"compliance/pkg/models"
	"compliance/pkg/tracing"
)

type service struct {
	store               RuleStore
	historyRepo         HistoryRepository
	configEventProducer *ConfigEventProducer
	logger              logger.Logger
}

type ServiceOption func(*service)

func WithHistory(historyRepo HistoryRepository) ServiceOption {
	return func(s *service) {
		s.historyRepo = historyRepo
	}
}

func WithConfigEvents(configEventProducer *ConfigEventProducer) ServiceOption {
	return func(s *service) {
		s.configEventProducer = configEventProducer
	}
}

func WithLogger(log logger.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.logger = log
		}
	}
}

func NewService(store RuleStore, opts ...ServiceOption) Service {
	s := &service{
		store:  store,
		logger: logger.NopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *service) ListRules(ctx context.Context) ([]rules.CheckRule, error) {
	list := s.store.List(ctx)
	metrics.SetActiveRules(len(list))
	return list, nil
}

func (s *service) GetRule(ctx context.Context, id string) (*rules.CheckRule, error) {
	rule, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *service) CreateRule(ctx context.Context, req CreateRuleRequest) (*rules.CheckRule, error) {
	ctx, span := tracing.StartSpan(ctx, "management.CreateRule")
	rule, err := s.store.Create(ctx, DraftFromCreate(req))
	tracing.EndSpan(span, err)
	metrics.IncRuleMutation(models.ActionCreate, err)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, models.ActionCreate, rule.ID, nil, &rule)
	return &rule, nil
}

func (s *service) UpdateRule(ctx context.Context, id string, req UpdateRuleRequest) (*rules.CheckRule, error) {
	if err := ValidateUpdateRuleRequest(req); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "management.UpdateRule")
	existing, rule, err := s.store.UpdateFunc(ctx, id, func(current rules.CheckRule) rules.CheckRule {
		return MergeUpdate(current, req)
	})
	tracing.EndSpan(span, err)
	metrics.IncRuleMutation(models.ActionUpdate, err)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, models.ActionUpdate, id, &existing, &rule)
	return &rule, nil
}

func (s *service) DeleteRule(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "management.DeleteRule")
	removed, err := s.store.Remove(ctx, id)
	tracing.EndSpan(span, err)
	metrics.IncRuleMutation(models.ActionDelete, err)
	if err != nil {
		return err
	}

	s.afterMutation(ctx, models.ActionDelete, id, &removed, nil)
	return nil
}

func (s *service) DuplicateRule(ctx context.Context, id string) (*rules.CheckRule, error) {
	ctx, span := tracing.StartSpan(ctx, "management.DuplicateRule")
	rule, err := s.store.Duplicate(ctx, id)
	tracing.EndSpan(span, err)
	metrics.IncRuleMutation(models.ActionDuplicate, err)
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, models.ActionDuplicate, rule.ID, nil, &rule)
	return &rule, nil
}

func (s *service) GetProtection(ctx context.Context) (*ProtectionStatus, error) {
	return &ProtectionStatus{
		ProtectedIDs: s.store.ProtectedIDs(),
		Override:     s.store.Override(),
	}, nil
}

func (s *service) SetProtectionOverride(ctx context.Context, enabled bool) (*ProtectionStatus, error) {
	s.store.SetOverride(enabled)
	metrics.IncRuleMutation(models.ActionOverride, nil)

	a := actorFrom(ctx)
	s.logger.InfowCtx(ctx, "Protection override changed",
		"override", enabled,
		"changed_by", a.changedBy,
	)
	s.recordAudit(ctx, buildAuditLog(ctx, "", models.ActionOverride, nil, nil))
	s.publishConfigEvent(ctx, models.ActionOverride, "", map[string]interface{}{"override": enabled})

	return s.GetProtection(ctx)
}

func (s *service) NewDraft(ctx context.Context) rules.CheckRule {
	return rules.NewBlankDraft()
}

func (s *service) DuplicateDraftField(ctx context.Context, req DuplicateFieldRequest) (*rules.CheckRule, error) {
	rule, ok := rules.DuplicateField(req.Rule, req.FieldID)
	if !ok {
		return nil, pkgerrors.ErrNotFound.
			WithDetail("message", "field "+req.FieldID+" not found in draft").
			WithDetail("field_id", req.FieldID)
	}
	return &rule, nil
}

func (s *service) GetRuleVersions(ctx context.Context, ruleID string) ([]RuleVersion, error) {
	if s.historyRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "versioning not enabled")
	}
	versions, err := s.historyRepo.GetVersions(ctx, ruleID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return versions, nil
}

func (s *service) GetAuditLogs(ctx context.Context, ruleID *string, limit int) ([]AuditLog, error) {
	if s.historyRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "audit logging not enabled")
	}
	if limit <= 0 || limit > constants.MaxLimit {
		limit = constants.DefaultLimit
	}
	logs, err := s.historyRepo.GetAuditLogs(ctx, ruleID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return logs, nil
}

// afterMutation records history and announces the change. The store has
// already committed, so failures here are logged and not returned.
func (s *service) afterMutation(ctx context.Context, action, ruleID string, oldValue, newValue *rules.CheckRule) {
	ctx = logging.WithRuleID(ctx, ruleID)
	s.logger.InfowCtx(ctx, "Rule changed", "action", action)
	metrics.SetActiveRules(len(s.store.List(ctx)))

	if newValue != nil {
		s.recordVersion(ctx, action, *newValue)
	}
	s.recordAudit(ctx, buildAuditLog(ctx, ruleID, action, oldValue, newValue))
	s.publishConfigEvent(ctx, action, ruleID, nil)
}

func (s *service) recordVersion(ctx context.Context, action string, rule rules.CheckRule) {
	if s.historyRepo == nil {
		return
	}

	next, err := s.historyRepo.GetNextVersion(ctx, rule.ID)
	if err != nil {
		s.logger.WarnwCtx(ctx, "Failed to get next rule version", "error", err)
		return
	}

	version := &RuleVersion{
		RuleID:    rule.ID,
		Rule:      rule,
		Version:   next,
		Action:    action,
		ChangedBy: actorFrom(ctx).changedBy,
		CreatedAt: time.Now(),
	}
	if err := s.historyRepo.CreateVersion(ctx, version); err != nil {
		s.logger.WarnwCtx(ctx, "Failed to store rule version", "error", err)
	}
}

func (s *service) recordAudit(ctx context.Context, entry *AuditLog) {
	if s.historyRepo == nil {
		return
	}
	if err := s.historyRepo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.WarnwCtx(ctx, "Failed to write audit log", "error", err)
	}
}

func (s *service) publishConfigEvent(ctx context.Context, action, ruleID string, metadata map[string]interface{}) {
	if s.configEventProducer == nil {
		return
	}
	if err := s.configEventProducer.PublishRuleEvent(ctx, action, ruleID, actorFrom(ctx).changedBy, metadata); err != nil {
		s.logger.WarnwCtx(ctx, "Failed to publish rule change event", "action", action, "error", err)
	}
}
