package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(3)
	require.NoError(t, err)
	return store
}

func TestNewMemoryStoreInvalidDims(t *testing.T) {
	_, err := NewMemoryStore(0)
	assert.Error(t, err)
}

func TestUpsertValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	tests := []struct {
		name string
		doc  Document
	}{
		{"empty id", Document{Content: "x", Embedding: []float32{1, 0, 0}}},
		{"empty content", Document{ID: "a", Embedding: []float32{1, 0, 0}}},
		{"empty embedding", Document{ID: "a", Content: "x"}},
		{"dimension mismatch", Document{ID: "a", Content: "x", Embedding: []float32{1, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Upsert(ctx, []Document{tt.doc})
			assert.Error(t, err)
		})
	}
}

func TestSearchOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	docs := []Document{
		{ID: "far", Content: "far away", Embedding: []float32{0, 0, 5}},
		{ID: "near", Content: "nearby", Embedding: []float32{1, 0, 0}},
		{ID: "mid", Content: "in between", Embedding: []float32{0, 2, 0}},
	}
	require.NoError(t, store.Upsert(ctx, docs))

	results, err := store.Search(ctx, SearchQuery{Embedding: []float32{1, 0, 0}, TopK: 3})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "near", results[0].Document.ID)
	assert.Equal(t, "mid", results[1].Document.ID)
	assert.Equal(t, "far", results[2].Document.ID)
	assert.Equal(t, float32(0), results[0].Distance)
	assert.Less(t, results[1].Distance, results[2].Distance)
}

func TestSearchTopK(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	docs := []Document{
		{ID: "a", Content: "a", Embedding: []float32{1, 0, 0}},
		{ID: "b", Content: "b", Embedding: []float32{0, 1, 0}},
		{ID: "c", Content: "c", Embedding: []float32{0, 0, 1}},
	}
	require.NoError(t, store.Upsert(ctx, docs))

	results, err := store.Search(ctx, SearchQuery{Embedding: []float32{1, 0, 0}, TopK: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Upsert(ctx, []Document{
		{ID: "a", Content: "old", Embedding: []float32{1, 0, 0}},
	}))
	require.NoError(t, store.Upsert(ctx, []Document{
		{ID: "a", Content: "new", Embedding: []float32{0, 1, 0}},
	}))

	docs, err := store.Get(ctx, []string{"a"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "new", docs[0].Content)
	assert.Equal(t, 1, store.Count())
}

func TestGetAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Upsert(ctx, []Document{
		{ID: "a", Content: "a", Embedding: []float32{1, 0, 0}},
	}))

	docs, err := store.Get(ctx, []string{"a", "missing"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, store.Delete(ctx, []string{"a"}))
	docs, err = store.Get(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, docs)
}
