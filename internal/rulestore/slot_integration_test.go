package rulestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance/internal/rules"
	"compliance/internal/testinfra"
)

func exerciseSlot(t *testing.T, slot Slot) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := slot.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	first := NewStore(slot)
	require.NoError(t, first.Load(ctx))
	require.Len(t, first.List(ctx), 3)

	created, err := first.Create(ctx, customDraft())
	require.NoError(t, err)
	first.SetOverride(true)
	_, err = first.Remove(ctx, rules.DefaultDurationRuleID)
	require.NoError(t, err)

	second := NewStore(slot)
	require.NoError(t, second.Load(ctx))
	list := second.List(ctx)
	require.Len(t, list, 3)
	assert.Equal(t, created.ID, list[2].ID)
	assert.False(t, second.Override(), "override is never persisted")
}

func TestRedisSlot_Integration(t *testing.T) {
	exerciseSlot(t, NewRedisSlot(testinfra.Redis(t)))
}

func TestMongoSlot_Integration(t *testing.T) {
	exerciseSlot(t, NewMongoSlot(testinfra.Mongo(t)))
}

func TestPostgresSlot_Integration(t *testing.T) {
	exerciseSlot(t, NewPostgresSlot(testinfra.Postgres(t)))
}
