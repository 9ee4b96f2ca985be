package embeddings

import (
	"context"
	"hash/fnv"
	"math"
)

// MockEmbeddings is a deterministic embedder for tests and local development.
// Identical texts produce identical vectors; similar vectors are not
// semantically meaningful.
type MockEmbeddings struct {
	dims int

	// Calls records every embedded text for assertions.
	Calls []string
}

// NewMock creates a mock embedder with the given dimensions.
func NewMock(dims int) *MockEmbeddings {
	return &MockEmbeddings{dims: dims}
}

// Embed generates a deterministic pseudo-embedding for a text.
func (m *MockEmbeddings) Embed(ctx context.Context, text string) ([]float32, error) {
	m.Calls = append(m.Calls, text)
	return m.vector(text), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (m *MockEmbeddings) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		m.Calls = append(m.Calls, t)
		out[i] = m.vector(t)
	}
	return out, nil
}

// Dimensions returns the dimension size of the embeddings.
func (m *MockEmbeddings) Dimensions() int { return m.dims }

// ModelName returns the name of the embedding model.
func (m *MockEmbeddings) ModelName() string { return "mock" }

// Close is a no-op.
func (m *MockEmbeddings) Close() error { return nil }

// vector derives a unit vector from an FNV hash of the text so that equal
// inputs always embed identically.
func (m *MockEmbeddings) vector(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.dims)
	var norm float64
	for i := range vec {
		// xorshift over the seed for a stable pseudo-random sequence
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float64(int64(seed%2000)-1000) / 1000.0
		vec[i] = float32(v)
		norm += v * v
	}

	if norm > 0 {
		scale := float32(1.0 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
