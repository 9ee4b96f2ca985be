package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/udahub/udahub/internal/knowledge"
	"github.com/udahub/udahub/pkg/embeddings"
	"github.com/udahub/udahub/pkg/vectorstore"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Validate and embed the knowledge article corpus",
	Long: `Loads the article corpus, embeds every article and reports the result.
Run and chat build the index at startup; this command verifies the corpus
and the embedding configuration ahead of time.`,
	Run: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}
	if cfg.Knowledge.ArticlesPath == "" {
		fatal(fmt.Errorf("knowledge.articles_path is not configured"))
	}

	corpus, err := knowledge.LoadCorpus(cfg.Knowledge.ArticlesPath)
	if err != nil {
		fatal(err)
	}
	color.Cyan("Loaded %d articles from %s", len(corpus.Articles), cfg.Knowledge.ArticlesPath)

	embedder, err := embeddings.New(embeddings.Config{
		Provider:   cfg.Knowledge.Provider,
		APIKey:     cfg.OpenAIKey,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.Knowledge.EmbeddingDimensions,
	})
	if err != nil {
		fatal(err)
	}
	defer embedder.Close()

	store, err := vectorstore.NewMemoryStore(embedder.Dimensions())
	if err != nil {
		fatal(err)
	}

	n, err := knowledge.NewIndexer(embedder, store).BuildIndex(context.Background(), corpus)
	if err != nil {
		fatal(err)
	}

	color.Green("Indexed %d articles (%s, %d dimensions)", n, embedder.ModelName(), embedder.Dimensions())
}
