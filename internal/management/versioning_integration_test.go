package management

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance/internal/rules"
	"compliance/internal/rulestore"
	"compliance/internal/testinfra"
	"compliance/pkg/models"
)

func TestPostgresHistory_Integration(t *testing.T) {
	db := testinfra.Postgres(t)
	ctx := WithActor(context.Background(), "carol", "192.0.2.10")

	store := rulestore.NewStore(rulestore.NewPostgresSlot(db))
	require.NoError(t, store.Load(ctx))
	history := NewPostgresHistoryRepository(db)
	svc := NewService(store, WithHistory(history))

	created, err := svc.CreateRule(ctx, agendaRequest())
	require.NoError(t, err)

	desc := "Agenda items must be listed"
	_, err = svc.UpdateRule(ctx, created.ID, UpdateRuleRequest{Description: &desc})
	require.NoError(t, err)

	_, err = svc.SetProtectionOverride(ctx, true)
	require.NoError(t, err)

	versions, err := svc.GetRuleVersions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, desc, versions[0].Rule.Description)
	assert.Equal(t, "carol", versions[0].ChangedBy)

	logs, err := svc.GetAuditLogs(ctx, &created.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionUpdate, logs[0].Action)
	require.NotNil(t, logs[0].OldValue)
	require.NotNil(t, logs[0].NewValue)
	assert.Equal(t, desc, logs[0].NewValue.Description)
	assert.Equal(t, "192.0.2.10", logs[0].IPAddress)
	assert.Contains(t, logs[0].Diff, desc)

	all, err := svc.GetAuditLogs(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, models.ActionOverride, all[0].Action)
	assert.Nil(t, all[0].RuleID)
	assert.Nil(t, all[0].OldValue)

	next, err := history.GetNextVersion(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, next)

	_, err = history.GetVersions(ctx, rules.DefaultDurationRuleID)
	require.NoError(t, err)
}
