package rulestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"compliance/internal/logger"
	"compliance/internal/rules"
	apperrors "compliance/pkg/errors"
)

// Store is the ordered rule collection backed by a Slot. Every mutation
// computes the next collection on a copy, saves it, and only then swaps it
// in, so a failed save leaves memory and slot unchanged.
type Store struct {
	mu        sync.RWMutex
	slot      Slot
	key       string
	rules     []rules.CheckRule
	lastSaved []byte
	protected map[string]bool
	override  atomic.Bool
	logger    logger.Logger
}

type StoreOption func(*Store)

func WithKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(log logger.Logger) StoreOption {
	return func(s *Store) {
		s.logger = log
	}
}

// WithProtectedIDs replaces the protected id set. The default set is the
// shipped default rules.
func WithProtectedIDs(ids ...string) StoreOption {
	return func(s *Store) {
		s.protected = make(map[string]bool, len(ids))
		for _, id := range ids {
			s.protected[id] = true
		}
	}
}

func NewStore(slot Slot, opts ...StoreOption) *Store {
	s := &Store{
		slot:   slot,
		key:    DefaultKey,
		logger: logger.NopLogger(),
	}
	WithProtectedIDs(rules.ProtectedRuleIDs...)(s)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Key() string {
	return s.key
}

// Load reads the slot. An absent key is seeded with the default rule set,
// which is saved immediately.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.loadLocked(ctx, false)
	return err
}

// Reload re-reads the slot after an external change. It reports whether the
// in-memory collection changed.
func (s *Store) Reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx, true)
}

func (s *Store) loadLocked(ctx context.Context, skipUnchanged bool) (bool, error) {
	data, ok, err := s.slot.Load(ctx, s.key)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrInternal.WithDetail("slot_key", s.key))
	}

	if !ok {
		seed := rules.DefaultRules()
		if err := s.saveLocked(ctx, seed); err != nil {
			return false, err
		}
		s.rules = seed
		s.logger.InfowCtx(ctx, "Seeded rule slot with default rules", "key", s.key, "count", len(seed))
		return true, nil
	}

	if skipUnchanged && bytes.Equal(data, s.lastSaved) {
		return false, nil
	}

	var loaded []rules.CheckRule
	if err := json.Unmarshal(data, &loaded); err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrInternal.WithDetail("message", fmt.Sprintf("rule slot %q is not a valid rule collection", s.key)))
	}
	if loaded == nil {
		loaded = []rules.CheckRule{}
	}
	if err := validateCollection(loaded); err != nil {
		s.logger.ErrorwCtx(ctx, "Rejected rule slot contents", "key", s.key, "error", err)
		return false, apperrors.ErrInternal.
			WithDetail("message", fmt.Sprintf("rule slot %q holds an invalid rule collection", s.key)).
			WithCause(err)
	}

	s.rules = loaded
	s.lastSaved = data
	s.logger.InfowCtx(ctx, "Loaded rules from slot", "key", s.key, "count", len(loaded))
	return true, nil
}

// validateCollection applies draft validation to every stored rule and
// requires unique, non-empty rule ids.
func validateCollection(list []rules.CheckRule) error {
	seen := make(map[string]bool, len(list))
	for i, r := range list {
		if r.ID == "" {
			return fmt.Errorf("rules[%d]: missing id", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("rules[%d]: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = true
		if err := rules.ValidateDraft(r); err != nil {
			return fmt.Errorf("rules[%d] (%s): %w", i, r.ID, err)
		}
	}
	return nil
}

// Check reads the slot without touching the in-memory collection. A missing
// key is reported as an error.
func (s *Store) Check(ctx context.Context) error {
	_, ok, err := s.slot.Load(ctx, s.key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("rule slot %q is missing", s.key)
	}
	return nil
}

func (s *Store) saveLocked(ctx context.Context, next []rules.CheckRule) error {
	data, err := json.Marshal(next)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal)
	}
	if err := s.slot.Save(ctx, s.key, data); err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to persist rules", "key", s.key, "error", err)
		return apperrors.Wrap(err, apperrors.ErrInternal.WithDetail("slot_key", s.key))
	}
	s.lastSaved = data
	return nil
}

// commitLocked persists next and swaps it in.
func (s *Store) commitLocked(ctx context.Context, next []rules.CheckRule) error {
	if err := s.saveLocked(ctx, next); err != nil {
		return err
	}
	s.rules = next
	return nil
}

func (s *Store) List(ctx context.Context) []rules.CheckRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rules.CloneAll(s.rules)
}

func (s *Store) indexLocked(id string) int {
	for i, r := range s.rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func notFound(id string) error {
	return apperrors.ErrNotFound.WithDetail("message", fmt.Sprintf("rule %q not found", id)).WithDetail("rule_id", id)
}

func (s *Store) Get(ctx context.Context, id string) (rules.CheckRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return rules.CheckRule{}, notFound(id)
	}
	return rules.Clone(s.rules[i]), nil
}

// Create assigns the draft a fresh rule id (and ids to any field or
// constraint without one), validates it and appends it.
func (s *Store) Create(ctx context.Context, draft rules.CheckRule) (rules.CheckRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(ctx, draft)
}

func (s *Store) createLocked(ctx context.Context, draft rules.CheckRule) (rules.CheckRule, error) {
	rule := rules.Clone(draft)
	rule.ID = ""
	rules.AssignIDs(&rule)

	if err := rules.ValidateDraft(rule); err != nil {
		return rules.CheckRule{}, err
	}

	next := append(rules.CloneAll(s.rules), rule)
	if err := s.commitLocked(ctx, next); err != nil {
		return rules.CheckRule{}, err
	}
	return rules.Clone(rule), nil
}

func (s *Store) checkWritable(id string) error {
	if s.IsProtected(id) && !s.Override() {
		return apperrors.ErrPermissionDenied.
			WithDetail("message", fmt.Sprintf("rule %q is a protected default rule; enable the override to change it", id)).
			WithDetail("rule_id", id)
	}
	return nil
}

// Update replaces the rule with id in place. The stored id is kept even if
// draft carries a different one.
func (s *Store) Update(ctx context.Context, id string, draft rules.CheckRule) (rules.CheckRule, error) {
	_, rule, err := s.UpdateFunc(ctx, id, func(rules.CheckRule) rules.CheckRule {
		return draft
	})
	return rule, err
}

// UpdateFunc builds the replacement from the current rule while holding the
// write lock, so concurrent partial edits never merge against a stale copy.
// It returns the rule before and after the change.
func (s *Store) UpdateFunc(ctx context.Context, id string, mutate func(current rules.CheckRule) rules.CheckRule) (rules.CheckRule, rules.CheckRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return rules.CheckRule{}, rules.CheckRule{}, notFound(id)
	}
	if err := s.checkWritable(id); err != nil {
		return rules.CheckRule{}, rules.CheckRule{}, err
	}

	before := rules.Clone(s.rules[i])
	rule := rules.Clone(mutate(rules.Clone(before)))
	rule.ID = id
	rules.AssignIDs(&rule)
	if err := rules.ValidateDraft(rule); err != nil {
		return rules.CheckRule{}, rules.CheckRule{}, err
	}

	next := rules.CloneAll(s.rules)
	next[i] = rule
	if err := s.commitLocked(ctx, next); err != nil {
		return rules.CheckRule{}, rules.CheckRule{}, err
	}
	return before, rules.Clone(rule), nil
}

// Remove deletes the rule with id and returns what was removed.
func (s *Store) Remove(ctx context.Context, id string) (rules.CheckRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return rules.CheckRule{}, notFound(id)
	}
	if err := s.checkWritable(id); err != nil {
		return rules.CheckRule{}, err
	}

	removed := s.rules[i]
	next := make([]rules.CheckRule, 0, len(s.rules)-1)
	next = append(next, rules.CloneAll(s.rules[:i])...)
	next = append(next, rules.CloneAll(s.rules[i+1:])...)
	if err := s.commitLocked(ctx, next); err != nil {
		return rules.CheckRule{}, err
	}
	return rules.Clone(removed), nil
}

// Duplicate copies the rule with id under new ids and appends the copy.
func (s *Store) Duplicate(ctx context.Context, id string) (rules.CheckRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return rules.CheckRule{}, notFound(id)
	}
	return s.createLocked(ctx, rules.Copy(s.rules[i]))
}

// Seed replaces the whole collection with the default rule set.
func (s *Store) Seed(ctx context.Context) ([]rules.CheckRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seed := rules.DefaultRules()
	if err := s.commitLocked(ctx, seed); err != nil {
		return nil, err
	}
	return rules.CloneAll(seed), nil
}

func (s *Store) SetOverride(enabled bool) {
	s.override.Store(enabled)
}

func (s *Store) Override() bool {
	return s.override.Load()
}

func (s *Store) IsProtected(id string) bool {
	return s.protected[id]
}

// ProtectedIDs returns the protected ids in default-rule order followed by
// any extra configured ids.
func (s *Store) ProtectedIDs() []string {
	ids := make([]string, 0, len(s.protected))
	seen := make(map[string]bool, len(s.protected))
	for _, id := range rules.ProtectedRuleIDs {
		if s.protected[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	extra := make([]string, 0)
	for id := range s.protected {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	return append(ids, extra...)
}
