package rulestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance/pkg/retry"
)

type flakySlot struct {
	*MemorySlot
	failures int
	calls    int
}

func (s *flakySlot) Save(ctx context.Context, key string, data []byte) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("connection reset")
	}
	return s.MemorySlot.Save(ctx, key, data)
}

func TestResilientSlot_RetriesSave(t *testing.T) {
	inner := &flakySlot{MemorySlot: NewMemorySlot(), failures: 2}
	slot := NewResilientSlot("test", inner, retry.Policy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      1,
	}, nil)

	require.NoError(t, slot.Save(context.Background(), "k", []byte("v")))
	assert.Equal(t, 3, inner.calls)

	data, ok, err := slot.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(data))
}

func TestResilientSlot_GivesUp(t *testing.T) {
	inner := &flakySlot{MemorySlot: NewMemorySlot(), failures: 10}
	slot := NewResilientSlot("test", inner, retry.Policy{
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      1,
	}, nil)

	assert.Error(t, slot.Save(context.Background(), "k", []byte("v")))
	assert.Equal(t, 2, inner.calls)
}
