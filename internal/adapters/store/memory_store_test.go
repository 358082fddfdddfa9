package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore(zap.NewNop(), 0, 0)
	defer s.Close()
	ctx := context.Background()

	done, err := s.IsDone(ctx, "a")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.MarkDone(ctx, "a"))
	done, err = s.IsDone(ctx, "a")
	require.NoError(t, err)
	assert.True(t, done)

	require.NoError(t, s.MarkUndone(ctx, "a"))
	done, err = s.IsDone(ctx, "a")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestMemoryStoreDoneIDsOrder(t *testing.T) {
	s := NewMemoryStore(zap.NewNop(), 0, 0)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.MarkDone(ctx, "first"))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, s.MarkDone(ctx, "second"))

	ids, err := s.DoneIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, ids)
}

func TestMemoryStoreClear(t *testing.T) {
	s := NewMemoryStore(zap.NewNop(), 0, 0)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.MarkDone(ctx, "a"))
	require.NoError(t, s.MarkDone(ctx, "b"))
	require.NoError(t, s.Clear(ctx))

	ids, err := s.DoneIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMemoryStoreSweep(t *testing.T) {
	s := NewMemoryStore(zap.NewNop(), 0, time.Hour)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.MarkDone(ctx, "old"))
	require.NoError(t, s.MarkDone(ctx, "new"))

	// Age one mark past the retention window directly.
	s.mu.Lock()
	s.marks["old"] = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()

	require.NoError(t, s.sweep(ctx))

	done, err := s.IsDone(ctx, "old")
	require.NoError(t, err)
	assert.False(t, done, "aged mark should be swept")

	done, err = s.IsDone(ctx, "new")
	require.NoError(t, err)
	assert.True(t, done, "recent mark should survive")
}
