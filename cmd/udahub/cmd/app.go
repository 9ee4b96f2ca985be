package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/udahub/udahub/internal/account"
	"github.com/udahub/udahub/internal/escalation"
	"github.com/udahub/udahub/internal/knowledge"
	"github.com/udahub/udahub/internal/memory"
	"github.com/udahub/udahub/internal/router"
	"github.com/udahub/udahub/internal/triage"
	"github.com/udahub/udahub/pkg/config"
	"github.com/udahub/udahub/pkg/embeddings"
	"github.com/udahub/udahub/pkg/observability"
	"github.com/udahub/udahub/pkg/vectorstore"
)

// app holds the wired components shared by the CLI commands.
type app struct {
	cfg         *config.Config
	engine      *router.Engine
	accounts    *account.SQLiteStore
	memories    *memory.SQLiteStore
	checkpoints memory.CheckpointStore
	embedder    embeddings.EmbeddingService
	store       vectorstore.VectorStore
}

// buildApp wires every component from configuration. The knowledge index is
// built at startup; the in-memory vector store holds it for the process
// lifetime.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	observability.InitMetrics()
	if err := observability.InitTracingFromEnv(); err != nil {
		log.Printf("tracing init failed, continuing without: %v", err)
	}

	embedder, err := embeddings.New(embeddings.Config{
		Provider:   cfg.Knowledge.Provider,
		APIKey:     cfg.OpenAIKey,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.Knowledge.EmbeddingDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	store, err := vectorstore.NewMemoryStore(embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}

	if cfg.Knowledge.ArticlesPath != "" {
		if _, statErr := os.Stat(cfg.Knowledge.ArticlesPath); statErr == nil {
			corpus, err := knowledge.LoadCorpus(cfg.Knowledge.ArticlesPath)
			if err != nil {
				return nil, fmt.Errorf("load corpus: %w", err)
			}
			if _, err := knowledge.NewIndexer(embedder, store).BuildIndex(ctx, corpus); err != nil {
				return nil, fmt.Errorf("build index: %w", err)
			}
		} else {
			log.Printf("articles corpus not found at %s, knowledge base is empty", cfg.Knowledge.ArticlesPath)
		}
	}

	retriever := knowledge.NewRetriever(embedder, store,
		knowledge.WithThreshold(cfg.Knowledge.ConfidenceThreshold),
		knowledge.WithTopK(cfg.Knowledge.TopK),
	)

	provider, err := triage.NewOpenAIProvider(triage.OpenAIConfig{
		APIKey:      cfg.OpenAIKey,
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("triage provider: %w", err)
	}
	classifier := triage.NewClassifier(provider)

	if err := ensureDir(cfg.AccountDBPath); err != nil {
		return nil, err
	}
	accounts, err := account.NewSQLiteStore(cfg.AccountDBPath)
	if err != nil {
		return nil, fmt.Errorf("account store: %w", err)
	}
	if err := accounts.Seed(ctx); err != nil {
		return nil, fmt.Errorf("seed account store: %w", err)
	}

	if err := ensureDir(cfg.MemoryDBPath); err != nil {
		return nil, err
	}
	memories, err := memory.NewSQLiteStore(cfg.MemoryDBPath)
	if err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}

	var checkpoints memory.CheckpointStore
	if cfg.Redis.Addr != "" {
		checkpoints, err = memory.NewRedisCheckpointStore(ctx, memory.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.CheckpointTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("redis checkpoints: %w", err)
		}
	} else {
		checkpoints = memory.NewMemoryCheckpointStore()
	}

	policy := escalation.NewPolicy(cfg.Escalation.AlwaysEscalate)
	engine := router.NewEngine(classifier, retriever, accounts, memories, checkpoints, policy)

	return &app{
		cfg:         cfg,
		engine:      engine,
		accounts:    accounts,
		memories:    memories,
		checkpoints: checkpoints,
		embedder:    embedder,
		store:       store,
	}, nil
}

func (a *app) close() {
	a.accounts.Close()
	a.memories.Close()
	a.checkpoints.Close()
	a.embedder.Close()
	a.store.Close()
	_ = observability.ShutdownTracing(context.Background())
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
