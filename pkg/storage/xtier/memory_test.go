package xtier_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xmemo/pkg/storage/xtier"
)

func newTestMemory(t *testing.T) *xtier.Memory {
	t.Helper()
	m, err := xtier.NewMemory(xtier.WithMemoryNumCounters(1000), xtier.WithMemoryMaxCost(1<<20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMemory_SetGetDelete(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	m.Wait()

	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)

	st := m.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
}

func TestMemory_NonPositiveTTLSkipsWrite(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	m.Wait()
	_, ok, _ := m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_Clear(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), time.Minute))
	m.Wait()
	require.NoError(t, m.Clear(ctx))

	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok)
}

func TestMemory_Closed(t *testing.T) {
	m, err := xtier.NewMemory()
	require.NoError(t, err)
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Close(), xtier.ErrClosed)

	ctx := context.Background()
	_, _, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, xtier.ErrClosed)
	assert.ErrorIs(t, m.Set(ctx, "k", nil, time.Minute), xtier.ErrClosed)
	assert.Equal(t, xtier.MemoryStats{}, m.Stats())
}
