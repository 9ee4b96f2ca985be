package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkpointStores(t *testing.T) map[string]CheckpointStore {
	t.Helper()

	mr := miniredis.RunT(t)
	redisStore, err := NewRedisCheckpointStore(context.Background(), RedisConfig{
		Addr: mr.Addr(),
		TTL:  time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { redisStore.Close() })

	return map[string]CheckpointStore{
		"memory": NewMemoryCheckpointStore(),
		"redis":  redisStore,
	}
}

func TestCheckpointSaveLoadOverwrite(t *testing.T) {
	for name, store := range checkpointStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Load(ctx, "s1")
			assert.ErrorIs(t, err, ErrCheckpointNotFound)

			cp := &Checkpoint{
				SessionID:  "s1",
				TicketID:   "T1",
				CustomerID: "C001",
				NextAgent:  "knowledge",
				Messages: []ChatMessage{
					{Role: RoleUser, Content: "hello"},
				},
			}
			require.NoError(t, store.Save(ctx, cp))

			got, err := store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "T1", got.TicketID)
			assert.Len(t, got.Messages, 1)
			assert.False(t, got.UpdatedAt.IsZero())

			// Save overwrites, never appends.
			cp.Messages = append(cp.Messages, ChatMessage{Role: RoleAgent, Content: "hi"})
			cp.NextAgent = "account"
			require.NoError(t, store.Save(ctx, cp))

			got, err = store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "account", got.NextAgent)
			assert.Len(t, got.Messages, 2)
		})
	}
}

func TestCheckpointDelete(t *testing.T) {
	for name, store := range checkpointStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Save(ctx, &Checkpoint{SessionID: "s1"}))
			require.NoError(t, store.Delete(ctx, "s1"))

			_, err := store.Load(ctx, "s1")
			assert.ErrorIs(t, err, ErrCheckpointNotFound)

			// Deleting a missing checkpoint is fine.
			assert.NoError(t, store.Delete(ctx, "s1"))
		})
	}
}

func TestMemorySweepRemovesIdle(t *testing.T) {
	store := NewMemoryCheckpointStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Checkpoint{
		SessionID: "stale",
		UpdatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}))
	require.NoError(t, store.Save(ctx, &Checkpoint{SessionID: "fresh"}))

	removed, err := store.Sweep(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Load(ctx, "stale")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
	_, err = store.Load(ctx, "fresh")
	assert.NoError(t, err)
}

func TestRedisTTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisCheckpointStore(context.Background(), RedisConfig{
		Addr: mr.Addr(),
		TTL:  time.Minute,
	})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &Checkpoint{SessionID: "s1"}))

	mr.FastForward(2 * time.Minute)

	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)

	// Sweep is a no-op for the Redis backend.
	removed, err := store.Sweep(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
