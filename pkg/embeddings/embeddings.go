// Package embeddings provides text embedding generation for knowledge
// retrieval.
package embeddings

import (
	"context"
	"fmt"
)

// EmbeddingService is the main interface for generating text embeddings.
type EmbeddingService interface {
	// Embed generates an embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimension size of the embeddings
	Dimensions() int

	// ModelName returns the name of the embedding model
	ModelName() string

	// Close closes any resources held by the service
	Close() error
}

// Config holds configuration for embedding providers.
type Config struct {
	// Provider specifies which embedding service to use: "openai" or "mock".
	Provider string

	// APIKey authenticates against the provider.
	APIKey string

	// Model specifies which embedding model to use.
	Model string

	// Dimensions overrides the embedding dimensions (text-embedding-3 only).
	Dimensions int

	// RequestsPerSecond rate-limits outbound embedding calls (0 = unlimited).
	RequestsPerSecond float64
}

// New creates an EmbeddingService from the configuration.
func New(cfg Config) (EmbeddingService, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg)
	case "mock":
		dims := cfg.Dimensions
		if dims <= 0 {
			dims = 1536
		}
		return NewMock(dims), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
