// Package knowledge retrieves support articles by semantic similarity and
// gates them behind a confidence threshold.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel/attribute"

	"github.com/udahub/udahub/pkg/embeddings"
	"github.com/udahub/udahub/pkg/observability"
	"github.com/udahub/udahub/pkg/vectorstore"
)

// DefaultConfidenceThreshold is the minimum top-candidate confidence at which
// a retrieval is considered usable.
const DefaultConfidenceThreshold = 0.7

// DefaultTopK is the number of candidates returned when the caller does not
// specify one.
const DefaultTopK = 3

// ErrArticleNotFound is returned by GetByID for unknown article IDs.
var ErrArticleNotFound = errors.New("article not found")

// ErrRetrieval wraps any failure of the retrieval pipeline (embedding or
// index search). Callers treat it as "no usable answer".
var ErrRetrieval = errors.New("knowledge retrieval failed")

// Candidate is one retrieved article with its relevance confidence.
// Candidates are ephemeral; they are never persisted.
type Candidate struct {
	ArticleID  string  `json:"article_id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Tags       string  `json:"tags,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Retriever searches the article index.
type Retriever struct {
	embedder  embeddings.EmbeddingService
	store     vectorstore.VectorStore
	threshold float64
	topK      int
}

// RetrieverOption customizes a Retriever.
type RetrieverOption func(*Retriever)

// WithThreshold overrides the confidence threshold.
func WithThreshold(t float64) RetrieverOption {
	return func(r *Retriever) { r.threshold = t }
}

// WithTopK overrides the default number of candidates.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) { r.topK = k }
}

// NewRetriever creates a retriever over an embedder and a vector store.
func NewRetriever(embedder embeddings.EmbeddingService, store vectorstore.VectorStore, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		embedder:  embedder,
		store:     store,
		threshold: DefaultConfidenceThreshold,
		topK:      DefaultTopK,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search returns up to topK candidates ordered by descending confidence,
// where confidence = 1/(1+distance). topK <= 0 uses the default.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]Candidate, error) {
	if topK <= 0 {
		topK = r.topK
	}

	ctx, span := observability.StartSpan(ctx, "knowledge.search",
		attribute.Int("knowledge.top_k", topK),
	)
	defer span.End()

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: embed query: %v", ErrRetrieval, err)
	}

	results, err := r.store.Search(ctx, vectorstore.SearchQuery{
		Embedding: embedding,
		TopK:      topK,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: index search: %v", ErrRetrieval, err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, res := range results {
		candidates = append(candidates, candidateFromResult(res))
	}

	top := 0.0
	if len(candidates) > 0 {
		top = candidates[0].Confidence
	}
	observability.RecordKnowledgeSearch(r.Usable(candidates))
	log.Printf("knowledge search completed results=%d top_confidence=%.4f", len(candidates), top)
	return candidates, nil
}

// GetByID fetches a single article directly. The confidence on the result is
// 1.0 since no similarity is involved.
func (r *Retriever) GetByID(ctx context.Context, id string) (*Candidate, error) {
	docs, err := r.store.Get(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("%w: get article %s: %v", ErrRetrieval, id, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, id)
	}

	c := candidateFromDocument(docs[0])
	c.Confidence = 1.0
	return &c, nil
}

// Usable reports whether the top candidate clears the confidence threshold.
// Candidates are ordered by descending confidence, so only the first matters.
func (r *Retriever) Usable(candidates []Candidate) bool {
	if len(candidates) == 0 {
		return false
	}
	return candidates[0].Confidence >= r.threshold
}

// Threshold returns the configured confidence threshold.
func (r *Retriever) Threshold() float64 {
	return r.threshold
}

func candidateFromResult(res vectorstore.SearchResult) Candidate {
	c := candidateFromDocument(res.Document)
	c.Confidence = 1.0 / (1.0 + float64(res.Distance))
	return c
}

func candidateFromDocument(doc vectorstore.Document) Candidate {
	c := Candidate{
		ArticleID: doc.ID,
		Content:   doc.Content,
	}
	if title, ok := doc.Metadata["title"].(string); ok {
		c.Title = title
	}
	if tags, ok := doc.Metadata["tags"].(string); ok {
		c.Tags = tags
	}
	return c
}
