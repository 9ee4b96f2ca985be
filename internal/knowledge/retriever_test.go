package knowledge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udahub/udahub/pkg/vectorstore"
)

// fixedEmbedder returns a preset vector for every text, so index distances
// are fully controlled by the stored document embeddings.
type fixedEmbedder struct {
	vector []float32
}

func (f *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out := make([]float32, len(f.vector))
	copy(out, f.vector)
	return out, nil
}

func (f *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, _ := f.Embed(ctx, texts[i])
		out[i] = v
	}
	return out, nil
}

func (f *fixedEmbedder) Dimensions() int   { return len(f.vector) }
func (f *fixedEmbedder) ModelName() string { return "fixed" }
func (f *fixedEmbedder) Close() error      { return nil }

func seedStore(t *testing.T) *vectorstore.MemoryStore {
	t.Helper()
	store, err := vectorstore.NewMemoryStore(2)
	require.NoError(t, err)
	now := time.Now().UTC()

	// Query vector is (1,0). Distances: exact=0, near=0.2, far=2.0.
	docs := []vectorstore.Document{
		{
			ID:        "kb-001",
			Content:   "How to reset your password\n\nOpen settings and choose reset.",
			Embedding: []float32{1, 0},
			Metadata:  map[string]any{"title": "How to reset your password", "tags": "account"},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID:        "kb-002",
			Content:   "Login troubleshooting\n\nClear the app cache and retry.",
			Embedding: []float32{0.8, 0},
			Metadata:  map[string]any{"title": "Login troubleshooting", "tags": "account,technical"},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID:        "kb-003",
			Content:   "Refund policy\n\nRefunds require a cancelled reservation.",
			Embedding: []float32{-1, 0},
			Metadata:  map[string]any{"title": "Refund policy", "tags": "billing"},
			CreatedAt: now, UpdatedAt: now,
		},
	}
	require.NoError(t, store.Upsert(context.Background(), docs))
	return store
}

func TestSearchConfidenceOrdering(t *testing.T) {
	store := seedStore(t)
	r := NewRetriever(&fixedEmbedder{vector: []float32{1, 0}}, store)

	candidates, err := r.Search(context.Background(), "I cannot log in", 3)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, "kb-001", candidates[0].ArticleID)
	assert.InDelta(t, 1.0, candidates[0].Confidence, 1e-6)

	assert.Equal(t, "kb-002", candidates[1].ArticleID)
	assert.InDelta(t, 1.0/1.2, candidates[1].Confidence, 1e-6)

	assert.Equal(t, "kb-003", candidates[2].ArticleID)
	assert.InDelta(t, 1.0/3.0, candidates[2].Confidence, 1e-6)

	// Descending order must hold for the whole list.
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Confidence, candidates[i].Confidence)
	}

	assert.Equal(t, "How to reset your password", candidates[0].Title)
}

func TestSearchTopKDefault(t *testing.T) {
	store := seedStore(t)
	r := NewRetriever(&fixedEmbedder{vector: []float32{1, 0}}, store, WithTopK(1))

	candidates, err := r.Search(context.Background(), "password", 0)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestUsableGate(t *testing.T) {
	r := NewRetriever(nil, nil)

	tests := []struct {
		name       string
		candidates []Candidate
		want       bool
	}{
		{name: "no candidates", candidates: nil, want: false},
		{name: "below threshold", candidates: []Candidate{{Confidence: 0.69}}, want: false},
		{name: "at threshold", candidates: []Candidate{{Confidence: 0.7}}, want: true},
		{name: "above threshold", candidates: []Candidate{{Confidence: 0.82}, {Confidence: 0.3}}, want: true},
		{name: "only top counts", candidates: []Candidate{{Confidence: 0.5}, {Confidence: 0.9}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Usable(tt.candidates))
		})
	}
}

func TestUsableCustomThreshold(t *testing.T) {
	r := NewRetriever(nil, nil, WithThreshold(0.5))
	assert.True(t, r.Usable([]Candidate{{Confidence: 0.6}}))
	assert.Equal(t, 0.5, r.Threshold())
}

func TestGetByID(t *testing.T) {
	store := seedStore(t)
	r := NewRetriever(&fixedEmbedder{vector: []float32{1, 0}}, store)

	got, err := r.GetByID(context.Background(), "kb-003")
	require.NoError(t, err)
	assert.Equal(t, "Refund policy", got.Title)
	assert.Equal(t, 1.0, got.Confidence)

	_, err = r.GetByID(context.Background(), "kb-999")
	assert.ErrorIs(t, err, ErrArticleNotFound)
}
