// Package vectorstore provides vector similarity storage and search for the
// knowledge base.
package vectorstore

import (
	"context"
	"fmt"
	"time"
)

// VectorStore is the main interface for vector database operations.
type VectorStore interface {
	// Upsert inserts or updates documents with embeddings
	Upsert(ctx context.Context, documents []Document) error

	// Search performs similarity search and returns the most similar documents
	Search(ctx context.Context, query SearchQuery) ([]SearchResult, error)

	// Get retrieves documents by their IDs
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs
	Delete(ctx context.Context, ids []string) error

	// Close closes the connection to the vector database
	Close() error
}

// Document represents a document with an embedding and metadata.
type Document struct {
	// ID is the unique identifier for the document
	ID string `json:"id"`

	// Content is the text content of the document
	Content string `json:"content"`

	// Embedding is the vector representation of the content
	Embedding []float32 `json:"embedding"`

	// Metadata contains additional information (title, tags, ...)
	Metadata map[string]any `json:"metadata,omitempty"`

	// CreatedAt is when the document was first created
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the document was last updated
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchQuery defines the parameters for a similarity search.
type SearchQuery struct {
	// Embedding is the query vector to search for
	Embedding []float32

	// TopK is the number of results to return
	TopK int
}

// SearchResult represents a single search result.
type SearchResult struct {
	// Document is the matched document
	Document Document

	// Distance is the raw L2 distance to the query vector.
	// Zero means identical; larger means less similar.
	Distance float32
}

// ValidateDocument checks if a document is valid before storage.
func ValidateDocument(doc *Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}
	if doc.Content == "" {
		return fmt.Errorf("document content cannot be empty")
	}
	if len(doc.Embedding) == 0 {
		return fmt.Errorf("document embedding cannot be empty")
	}
	for i, val := range doc.Embedding {
		if isNaN(val) || isInf(val) {
			return fmt.Errorf("embedding contains invalid value at index %d: %f", i, val)
		}
	}
	return nil
}

// ValidateSearchQuery checks if a search query is valid.
func ValidateSearchQuery(query *SearchQuery) error {
	if len(query.Embedding) == 0 {
		return fmt.Errorf("query embedding cannot be empty")
	}
	for i, val := range query.Embedding {
		if isNaN(val) || isInf(val) {
			return fmt.Errorf("query embedding contains invalid value at index %d: %f", i, val)
		}
	}
	if query.TopK < 1 {
		return fmt.Errorf("TopK must be at least 1, got %d", query.TopK)
	}
	return nil
}

func isNaN(f float32) bool {
	return f != f
}

func isInf(f float32) bool {
	return f > maxFloat32 || f < -maxFloat32
}

const maxFloat32 = 3.40282346638528859811704183484516925440e+38
