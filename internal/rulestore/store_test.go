package rulestore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance/internal/rules"
	apperrors "compliance/pkg/errors"
)

type failingSlot struct {
	*MemorySlot
	failSave bool
}

func (s *failingSlot) Save(ctx context.Context, key string, data []byte) error {
	if s.failSave {
		return errors.New("disk full")
	}
	return s.MemorySlot.Save(ctx, key, data)
}

func newLoadedStore(t *testing.T) (*Store, *failingSlot) {
	t.Helper()
	slot := &failingSlot{MemorySlot: NewMemorySlot()}
	store := NewStore(slot)
	require.NoError(t, store.Load(context.Background()))
	return store, slot
}

func customDraft() rules.CheckRule {
	return rules.CheckRule{
		Name:        "Agenda",
		Description: "Agenda must be recorded",
		Fields: []rules.CheckField{
			{Name: "Agenda", Key: "agenda", Type: rules.FieldTypeText, Required: true},
		},
	}
}

func storedRule(id string) rules.CheckRule {
	rule := customDraft()
	rule.ID = id
	return rule
}

func TestLoad_SeedsDefaults(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	store := NewStore(slot)

	require.NoError(t, store.Load(ctx))

	list := store.List(ctx)
	require.Len(t, list, 3)
	assert.Equal(t, rules.DefaultBasicInfoRuleID, list[0].ID)

	data, ok, err := slot.Load(ctx, DefaultKey)
	require.NoError(t, err)
	require.True(t, ok, "defaults must be persisted on first load")

	var persisted []rules.CheckRule
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, list, persisted)
}

func TestLoad_ExistingSlot(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	data, _ := json.Marshal([]rules.CheckRule{storedRule("agenda")})
	require.NoError(t, slot.Save(ctx, "custom", data))

	store := NewStore(slot, WithKey("custom"))
	require.NoError(t, store.Load(ctx))

	list := store.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "Agenda", list[0].Name)
}

func TestLoad_CorruptSlot(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	require.NoError(t, slot.Save(ctx, DefaultKey, []byte("{not json")))

	err := NewStore(slot).Load(ctx)
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	store, _ := newLoadedStore(t)

	draft := customDraft()
	draft.ID = rules.DefaultDurationRuleID
	created, err := store.Create(ctx, draft)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, rules.DefaultDurationRuleID, created.ID)
	assert.NotEmpty(t, created.Fields[0].ID)

	list := store.List(ctx)
	require.Len(t, list, 4)
	assert.Equal(t, created, list[3])
}

func TestCreate_InvalidLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	store, slot := newLoadedStore(t)
	before := store.List(ctx)
	saved, _, _ := slot.Load(ctx, DefaultKey)

	tests := []struct {
		name  string
		draft rules.CheckRule
	}{
		{name: "empty name", draft: rules.CheckRule{Fields: customDraft().Fields}},
		{name: "no fields", draft: rules.CheckRule{Name: "x"}},
		{name: "semantic without requirement", draft: rules.CheckRule{Name: "x", Fields: []rules.CheckField{
			{Name: "Tone", Key: "tone", Type: rules.FieldTypeSemantic},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(ctx, tt.draft)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, before, store.List(ctx))

			after, _, _ := slot.Load(ctx, DefaultKey)
			assert.Equal(t, saved, after)
		})
	}
}

func TestCreate_SaveFailureLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	store, slot := newLoadedStore(t)
	before := store.List(ctx)

	slot.failSave = true
	_, err := store.Create(ctx, customDraft())
	require.Error(t, err)
	assert.Equal(t, before, store.List(ctx))

	slot.failSave = false
	_, err = store.Create(ctx, customDraft())
	require.NoError(t, err)
	assert.Len(t, store.List(ctx), 4)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	store, _ := newLoadedStore(t)
	created, err := store.Create(ctx, customDraft())
	require.NoError(t, err)

	draft := created
	draft.ID = "ignored"
	draft.Name = "Agenda v2"
	updated, err := store.Update(ctx, created.ID, draft)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	list := store.List(ctx)
	assert.Equal(t, "Agenda v2", list[3].Name, "position must be unchanged")

	_, err = store.Update(ctx, "missing", draft)
	assert.True(t, apperrors.IsNotFound(err))

	draft.Fields = nil
	_, err = store.Update(ctx, created.ID, draft)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "Agenda v2", store.List(ctx)[3].Name)
}

func TestUpdate_SemanticWithoutRequirementRejected(t *testing.T) {
	ctx := context.Background()
	store, _ := newLoadedStore(t)
	created, err := store.Create(ctx, customDraft())
	require.NoError(t, err)

	draft := created
	draft.Fields[0].Type = rules.FieldTypeSemantic
	_, err = store.Update(ctx, created.ID, draft)
	assert.True(t, apperrors.IsValidation(err))
}

func TestProtection(t *testing.T) {
	ctx := context.Background()
	store, _ := newLoadedStore(t)

	assert.False(t, store.Override())
	assert.True(t, store.IsProtected(rules.DefaultDurationRuleID))

	rule, err := store.Get(ctx, rules.DefaultDurationRuleID)
	require.NoError(t, err)
	rule.Name = "Edited"

	_, err = store.Update(ctx, rule.ID, rule)
	assert.True(t, apperrors.IsPermissionDenied(err))
	_, err = store.Remove(ctx, rule.ID)
	assert.True(t, apperrors.IsPermissionDenied(err))
	assert.Len(t, store.List(ctx), 3)

	store.SetOverride(true)
	_, err = store.Update(ctx, rule.ID, rule)
	require.NoError(t, err)
	_, err = store.Remove(ctx, rule.ID)
	require.NoError(t, err)
	assert.Len(t, store.List(ctx), 2)

	store.SetOverride(false)
	_, err = store.Remove(ctx, rules.DefaultBasicInfoRuleID)
	assert.True(t, apperrors.IsPermissionDenied(err))
}

func TestProtection_NotFoundBeforePermission(t *testing.T) {
	store := NewStore(NewMemorySlot(), WithProtectedIDs("ghost"))
	require.NoError(t, store.Load(context.Background()))

	_, err := store.Remove(context.Background(), "ghost")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, []string{"ghost"}, store.ProtectedIDs())
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	store, _ := newLoadedStore(t)
	created, err := store.Create(ctx, customDraft())
	require.NoError(t, err)

	removed, err := store.Remove(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, removed)
	assert.Len(t, store.List(ctx), 3)

	_, err = store.Remove(ctx, created.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDuplicate(t *testing.T) {
	ctx := context.Background()
	store, _ := newLoadedStore(t)

	dup, err := store.Duplicate(ctx, rules.DefaultAttendanceRuleID)
	require.NoError(t, err)

	original, err := store.Get(ctx, rules.DefaultAttendanceRuleID)
	require.NoError(t, err)

	assert.NotEqual(t, original.ID, dup.ID)
	assert.Equal(t, "Attendance (copy)", dup.Name)
	require.Len(t, dup.Fields, len(original.Fields))
	for i := range dup.Fields {
		assert.NotEqual(t, original.Fields[i].ID, dup.Fields[i].ID)
		assert.Equal(t, original.Fields[i].Key, dup.Fields[i].Key)
		assert.Equal(t, original.Fields[i].Type, dup.Fields[i].Type)
		assert.Equal(t, original.Fields[i].Required, dup.Fields[i].Required)
	}
	assert.False(t, store.IsProtected(dup.ID))

	list := store.List(ctx)
	assert.Equal(t, dup.ID, list[len(list)-1].ID)

	_, err = store.Duplicate(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestList_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store, _ := newLoadedStore(t)

	list := store.List(ctx)
	list[0].Name = "mutated"
	list[0].Fields[0].Key = "mutated"

	fresh := store.List(ctx)
	assert.Equal(t, "Meeting basics", fresh[0].Name)
	assert.Equal(t, "host", fresh[0].Fields[0].Key)
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	store := NewStore(slot)
	require.NoError(t, store.Load(ctx))

	changed, err := store.Reload(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "reload of our own write is a no-op")

	data, _ := json.Marshal([]rules.CheckRule{storedRule("agenda")})
	require.NoError(t, slot.Save(ctx, DefaultKey, data))

	changed, err = store.Reload(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, store.List(ctx), 1)
}

func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	store, _ := newLoadedStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Create(ctx, customDraft())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list := store.List(ctx)
	assert.Len(t, list, 23)
	ids := make(map[string]bool)
	for _, r := range list {
		assert.False(t, ids[r.ID], "duplicate id %s", r.ID)
		ids[r.ID] = true
	}
}

func TestSeed_RestoresDefaults(t *testing.T) {
	ctx := context.Background()
	store, slot := newLoadedStore(t)

	_, err := store.Create(ctx, customDraft())
	require.NoError(t, err)
	require.Len(t, store.List(ctx), len(rules.DefaultRules())+1)

	seeded, err := store.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, rules.DefaultRules(), seeded)
	assert.Equal(t, rules.DefaultRules(), store.List(ctx))

	data, ok, err := slot.Load(ctx, store.Key())
	require.NoError(t, err)
	require.True(t, ok)
	var persisted []rules.CheckRule
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Len(t, persisted, len(rules.DefaultRules()))

	slot.failSave = true
	_, err = store.Create(ctx, customDraft())
	require.Error(t, err)
	_, err = store.Seed(ctx)
	require.Error(t, err)
	assert.Len(t, store.List(ctx), len(rules.DefaultRules()))
}

func TestReload_RejectsInvalidCollection(t *testing.T) {
	semanticOnly := rules.CheckRule{
		ID:   "x",
		Name: "",
		Fields: []rules.CheckField{
			{Name: "Summary", Key: "summary", Type: rules.FieldTypeSemantic},
		},
	}

	tests := []struct {
		name string
		list []rules.CheckRule
	}{
		{name: "invalid draft", list: []rules.CheckRule{semanticOnly}},
		{name: "duplicate ids", list: []rules.CheckRule{storedRule("x"), storedRule("x")}},
		{name: "missing id", list: []rules.CheckRule{customDraft()}},
		{name: "no fields", list: []rules.CheckRule{{ID: "y", Name: "dup", Fields: []rules.CheckField{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, slot := newLoadedStore(t)
			before := store.List(ctx)

			data, err := json.Marshal(tt.list)
			require.NoError(t, err)
			require.NoError(t, slot.Save(ctx, store.Key(), data))

			changed, err := store.Reload(ctx)
			require.Error(t, err)
			assert.False(t, changed)
			var appErr *apperrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperrors.ErrInternal.Code, appErr.Code)
			assert.Equal(t, before, store.List(ctx))
		})
	}
}

func TestLoad_RejectsInvalidCollection(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	data, _ := json.Marshal([]rules.CheckRule{storedRule("x"), storedRule("x")})
	require.NoError(t, slot.Save(ctx, DefaultKey, data))

	store := NewStore(slot)
	assert.Error(t, store.Load(ctx))
	assert.Empty(t, store.List(ctx))
}

func TestCheck_DoesNotTouchCollection(t *testing.T) {
	ctx := context.Background()
	store, slot := newLoadedStore(t)
	_, err := store.Create(ctx, customDraft())
	require.NoError(t, err)
	before := store.List(ctx)

	require.NoError(t, store.Check(ctx))

	slot.mu.Lock()
	delete(slot.data, store.Key())
	slot.mu.Unlock()

	assert.Error(t, store.Check(ctx))
	assert.Equal(t, before, store.List(ctx))
	_, ok, err := slot.Load(ctx, store.Key())
	require.NoError(t, err)
	assert.False(t, ok, "check must not reseed the slot")
}

func TestUpdateFunc(t *testing.T) {
	ctx := context.Background()
	store, _ := newLoadedStore(t)
	created, err := store.Create(ctx, customDraft())
	require.NoError(t, err)

	before, after, err := store.UpdateFunc(ctx, created.ID, func(current rules.CheckRule) rules.CheckRule {
		current.Description = current.Description + " and signed"
		return current
	})
	require.NoError(t, err)
	assert.Equal(t, created, before)
	assert.Equal(t, "Agenda must be recorded and signed", after.Description)

	_, _, err = store.UpdateFunc(ctx, rules.DefaultBasicInfoRuleID, func(current rules.CheckRule) rules.CheckRule {
		return current
	})
	assert.True(t, apperrors.IsPermissionDenied(err))
}
