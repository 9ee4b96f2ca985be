package knowledge

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/udahub/udahub/pkg/embeddings"
	"github.com/udahub/udahub/pkg/vectorstore"
)

// Article is one knowledge base entry as stored in the corpus file.
type Article struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Tags    string `yaml:"tags,omitempty"`
}

// Corpus is the on-disk article collection.
type Corpus struct {
	Articles []Article `yaml:"articles"`
}

// LoadCorpus reads and validates an article corpus from a YAML file.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	var corpus Corpus
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}

	seen := make(map[string]bool, len(corpus.Articles))
	for i, a := range corpus.Articles {
		if a.ID == "" {
			return nil, fmt.Errorf("article %d has no id", i)
		}
		if a.Title == "" || a.Content == "" {
			return nil, fmt.Errorf("article %s missing title or content", a.ID)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("duplicate article id %s", a.ID)
		}
		seen[a.ID] = true
	}
	return &corpus, nil
}

// Indexer embeds a corpus and writes it into a vector store.
type Indexer struct {
	embedder  embeddings.EmbeddingService
	store     vectorstore.VectorStore
	batchSize int
	workers   int
}

// NewIndexer creates an indexer. Batches of articles are embedded
// concurrently with a bounded worker count.
func NewIndexer(embedder embeddings.EmbeddingService, store vectorstore.VectorStore) *Indexer {
	return &Indexer{
		embedder:  embedder,
		store:     store,
		batchSize: 16,
		workers:   4,
	}
}

// BuildIndex embeds every article and upserts it. Articles are indexed as
// "title\n\ncontent" so the title contributes to similarity. Returns the
// number of articles indexed.
func (ix *Indexer) BuildIndex(ctx context.Context, corpus *Corpus) (int, error) {
	if len(corpus.Articles) == 0 {
		log.Printf("knowledge index skipped: corpus is empty")
		return 0, nil
	}

	batches := make([][]Article, 0, (len(corpus.Articles)+ix.batchSize-1)/ix.batchSize)
	for start := 0; start < len(corpus.Articles); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(corpus.Articles) {
			end = len(corpus.Articles)
		}
		batches = append(batches, corpus.Articles[start:end])
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)

	docBatches := make([][]vectorstore.Document, len(batches))
	for i, batch := range batches {
		g.Go(func() error {
			docs, err := ix.embedBatch(ctx, batch)
			if err != nil {
				return err
			}
			docBatches[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("embed corpus: %w", err)
	}

	total := 0
	for _, docs := range docBatches {
		if err := ix.store.Upsert(ctx, docs); err != nil {
			return total, fmt.Errorf("upsert batch: %w", err)
		}
		total += len(docs)
	}

	log.Printf("knowledge index built articles=%d batches=%d", total, len(batches))
	return total, nil
}

func (ix *Indexer) embedBatch(ctx context.Context, batch []Article) ([]vectorstore.Document, error) {
	texts := make([]string, len(batch))
	for i, a := range batch {
		texts[i] = a.Title + "\n\n" + a.Content
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
	}

	now := time.Now().UTC()
	docs := make([]vectorstore.Document, len(batch))
	for i, a := range batch {
		docs[i] = vectorstore.Document{
			ID:        a.ID,
			Content:   texts[i],
			Embedding: vectors[i],
			Metadata: map[string]any{
				"title":      a.Title,
				"tags":       a.Tags,
				"article_id": a.ID,
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return docs, nil
}
