package management

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"compliance/internal/rules"
)

type postgresHistoryRepository struct {
	db *sql.DB
}

func NewPostgresHistoryRepository(db *sql.DB) HistoryRepository {
	return &postgresHistoryRepository{db: db}
}

func (r *postgresHistoryRepository) CreateVersion(ctx context.Context, version *RuleVersion) error {
	if version.ID == "" {
		version.ID = uuid.New().String()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now()
	}

	ruleJSON, err := json.Marshal(version.Rule)
	if err != nil {
		return fmt.Errorf("failed to marshal rule version: %w", err)
	}

	query := `
		INSERT INTO rule_versions (id, rule_id, rule_data, version, action, changed_by, created_at)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		version.ID, version.RuleID, string(ruleJSON),
		version.Version, version.Action, version.ChangedBy, version.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule version: %w", err)
	}

	return nil
}

func (r *postgresHistoryRepository) GetVersions(ctx context.Context, ruleID string) ([]RuleVersion, error) {
	query := `
		SELECT id, rule_id, rule_data, version, action, changed_by, created_at
		FROM rule_versions
		WHERE rule_id = $1
		ORDER BY version DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	defer rows.Close()

	versions := []RuleVersion{}
	for rows.Next() {
		var v RuleVersion
		var ruleJSON []byte
		if err := rows.Scan(
			&v.ID, &v.RuleID, &ruleJSON,
			&v.Version, &v.Action, &v.ChangedBy, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		if err := json.Unmarshal(ruleJSON, &v.Rule); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rule version: %w", err)
		}
		versions = append(versions, v)
	}

	return versions, rows.Err()
}

func (r *postgresHistoryRepository) GetNextVersion(ctx context.Context, ruleID string) (int, error) {
	query := `SELECT COALESCE(MAX(version), 0) + 1 FROM rule_versions WHERE rule_id = $1`

	var version int
	if err := r.db.QueryRowContext(ctx, query, ruleID).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get next version: %w", err)
	}

	return version, nil
}

func (r *postgresHistoryRepository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}

	oldValueJSON, err := nullableRuleJSON(log.OldValue)
	if err != nil {
		return fmt.Errorf("failed to marshal old value: %w", err)
	}
	newValueJSON, err := nullableRuleJSON(log.NewValue)
	if err != nil {
		return fmt.Errorf("failed to marshal new value: %w", err)
	}

	query := `
		INSERT INTO rule_audit_logs (id, rule_id, action, old_value, new_value, diff, changed_by, ip_address, timestamp)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		log.ID, log.RuleID, log.Action,
		oldValueJSON, newValueJSON, log.Diff,
		log.ChangedBy, log.IPAddress, log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	return nil
}

func (r *postgresHistoryRepository) GetAuditLogs(ctx context.Context, ruleID *string, limit int) ([]AuditLog, error) {
	var query string
	var args []interface{}

	if ruleID != nil {
		query = `
			SELECT id, rule_id, action, old_value, new_value, diff, changed_by, ip_address, timestamp
			FROM rule_audit_logs
			WHERE rule_id = $1
			ORDER BY timestamp DESC
			LIMIT $2
		`
		args = []interface{}{*ruleID, limit}
	} else {
		query = `
			SELECT id, rule_id, action, old_value, new_value, diff, changed_by, ip_address, timestamp
			FROM rule_audit_logs
			ORDER BY timestamp DESC
			LIMIT $1
		`
		args = []interface{}{limit}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	logs := []AuditLog{}
	for rows.Next() {
		var log AuditLog
		var oldValueJSON, newValueJSON []byte
		var ruleIDPtr *string

		if err := rows.Scan(
			&log.ID, &ruleIDPtr, &log.Action,
			&oldValueJSON, &newValueJSON, &log.Diff,
			&log.ChangedBy, &log.IPAddress, &log.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}

		log.RuleID = ruleIDPtr
		if log.OldValue, err = ruleFromJSON(oldValueJSON); err != nil {
			return nil, fmt.Errorf("failed to unmarshal old value: %w", err)
		}
		if log.NewValue, err = ruleFromJSON(newValueJSON); err != nil {
			return nil, fmt.Errorf("failed to unmarshal new value: %w", err)
		}

		logs = append(logs, log)
	}

	return logs, rows.Err()
}

// nullableRuleJSON encodes rule for a JSONB column; nil becomes SQL NULL.
func nullableRuleJSON(rule *rules.CheckRule) (interface{}, error) {
	if rule == nil {
		return nil, nil
	}
	data, err := json.Marshal(rule)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func ruleFromJSON(data []byte) (*rules.CheckRule, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var rule rules.CheckRule
	if err := json.Unmarshal(data, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// memoryHistoryRepository keeps history for the lifetime of the process.
// It is used when no postgres database is configured.
type memoryHistoryRepository struct {
	mu       sync.RWMutex
	versions map[string][]RuleVersion
	logs     []AuditLog
}

func NewMemoryHistoryRepository() HistoryRepository {
	return &memoryHistoryRepository{versions: make(map[string][]RuleVersion)}
}

func (r *memoryHistoryRepository) CreateVersion(ctx context.Context, version *RuleVersion) error {
	if version.ID == "" {
		version.ID = uuid.New().String()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.versions[version.RuleID] {
		if v.Version == version.Version {
			return fmt.Errorf("version %d of rule %s already exists", version.Version, version.RuleID)
		}
	}
	stored := *version
	stored.Rule = rules.Clone(version.Rule)
	r.versions[version.RuleID] = append(r.versions[version.RuleID], stored)
	return nil
}

func (r *memoryHistoryRepository) GetVersions(ctx context.Context, ruleID string) ([]RuleVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := make([]RuleVersion, 0, len(r.versions[ruleID]))
	for _, v := range r.versions[ruleID] {
		v.Rule = rules.Clone(v.Rule)
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version > versions[j].Version })
	return versions, nil
}

func (r *memoryHistoryRepository) GetNextVersion(ctx context.Context, ruleID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	next := 1
	for _, v := range r.versions[ruleID] {
		if v.Version >= next {
			next = v.Version + 1
		}
	}
	return next, nil
}

func (r *memoryHistoryRepository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *memoryHistoryRepository) GetAuditLogs(ctx context.Context, ruleID *string, limit int) ([]AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logs := []AuditLog{}
	for i := len(r.logs) - 1; i >= 0 && len(logs) < limit; i-- {
		entry := r.logs[i]
		if ruleID != nil && (entry.RuleID == nil || *entry.RuleID != *ruleID) {
			continue
		}
		logs = append(logs, entry)
	}
	return logs, nil
}
