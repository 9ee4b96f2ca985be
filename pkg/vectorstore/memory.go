package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore implements an in-memory vector store using brute-force search.
// Suitable for corpora the size of a support knowledge base; not intended for
// large datasets.
type MemoryStore struct {
	documents map[string]Document
	dims      int
	mu        sync.RWMutex
}

// NewMemoryStore creates an in-memory vector store for embeddings of the
// given dimensionality.
func NewMemoryStore(dims int) (*MemoryStore, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be greater than 0, got %d", dims)
	}
	return &MemoryStore{
		documents: make(map[string]Document),
		dims:      dims,
	}, nil
}

// Upsert inserts or updates documents with embeddings.
func (m *MemoryStore) Upsert(ctx context.Context, documents []Document) error {
	if len(documents) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range documents {
		if err := ValidateDocument(&documents[i]); err != nil {
			return fmt.Errorf("invalid document at index %d: %w", i, err)
		}
		if len(documents[i].Embedding) != m.dims {
			return fmt.Errorf("document %s embedding dimension mismatch: expected %d, got %d",
				documents[i].ID, m.dims, len(documents[i].Embedding))
		}
	}

	for _, doc := range documents {
		m.documents[doc.ID] = copyDocument(doc)
	}

	return nil
}

// Search performs brute-force L2 nearest-neighbor search.
func (m *MemoryStore) Search(ctx context.Context, query SearchQuery) ([]SearchResult, error) {
	if err := ValidateSearchQuery(&query); err != nil {
		return nil, fmt.Errorf("invalid search query: %w", err)
	}
	if len(query.Embedding) != m.dims {
		return nil, fmt.Errorf("query embedding dimension mismatch: expected %d, got %d",
			m.dims, len(query.Embedding))
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]SearchResult, 0, len(m.documents))
	for _, doc := range m.documents {
		results = append(results, SearchResult{
			Document: copyDocument(doc),
			Distance: euclideanDistance(query.Embedding, doc.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance == results[j].Distance {
			return results[i].Document.ID < results[j].Document.ID
		}
		return results[i].Distance < results[j].Distance
	})

	if len(results) > query.TopK {
		results = results[:query.TopK]
	}

	return results, nil
}

// Get retrieves documents by their IDs. Missing IDs are skipped.
func (m *MemoryStore) Get(ctx context.Context, ids []string) ([]Document, error) {
	if len(ids) == 0 {
		return []Document{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var documents []Document
	for _, id := range ids {
		if doc, exists := m.documents[id]; exists {
			documents = append(documents, copyDocument(doc))
		}
	}
	return documents, nil
}

// Delete removes documents by their IDs.
func (m *MemoryStore) Delete(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.documents, id)
	}
	return nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// Count returns the number of stored documents.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents)
}

func euclideanDistance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return float32(math.Sqrt(float64(sum)))
}

// copyDocument copies a document so callers cannot mutate stored state.
func copyDocument(doc Document) Document {
	embedding := make([]float32, len(doc.Embedding))
	copy(embedding, doc.Embedding)

	var metadata map[string]any
	if doc.Metadata != nil {
		metadata = make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
	}

	return Document{
		ID:        doc.ID,
		Content:   doc.Content,
		Embedding: embedding,
		Metadata:  metadata,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
