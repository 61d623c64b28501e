// Package cli provides the cobra command tree wiring the retrieval
// pipeline services to their adapters.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	embeddingopenai "github.com/FWU-DE/telli-dialog-sub001/internal/adapters/driven/embedding/openai"
	llmopenai "github.com/FWU-DE/telli-dialog-sub001/internal/adapters/driven/llm/openai"
	"github.com/FWU-DE/telli-dialog-sub001/internal/adapters/driven/storage/sqlite"
	"github.com/FWU-DE/telli-dialog-sub001/internal/chunker"
	"github.com/FWU-DE/telli-dialog-sub001/internal/config"
	"github.com/FWU-DE/telli-dialog-sub001/internal/core/ports/driven"
	"github.com/FWU-DE/telli-dialog-sub001/internal/core/services"
	"github.com/FWU-DE/telli-dialog-sub001/internal/logger"
)

var version = "dev"

var (
	cfgFile     string
	verboseFlag bool

	cfg              *config.Config
	store            *sqlite.Store
	ingestionService *services.IngestionService
	retrievalService *services.RetrievalService
)

var rootCmd = &cobra.Command{
	Use:   "telli-rag",
	Short: "Document retrieval pipeline for grounded chat",
	Long: `telli-rag ingests documents into an embedded chunk store and answers
conversation queries with hybrid (vector + keyword) retrieval.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		return setup(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

// Execute runs the root command. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// setup loads config and wires services to their adapters. The LLM and
// embedding services stay nil without a credential; retrieval then runs
// on its documented fallbacks.
func setup(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	store, err = sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open chunk store: %w", err)
	}

	var embedder driven.EmbeddingService
	var llm driven.LLMService

	if cfg.OpenAIAPIKey != "" {
		embedder, err = embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.EmbeddingModel,
		})
		if err != nil {
			return fmt.Errorf("embedding service: %w", err)
		}

		llm, err = llmopenai.NewLLMService(llmopenai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.LLMModel,
		})
		if err != nil {
			return fmt.Errorf("llm service: %w", err)
		}
	} else {
		logger.Warn("No API key configured: ingestion disabled, retrieval degrades to keyword search")
	}

	chk := chunker.New(
		chunker.WithSentenceOverlap(cfg.SentenceOverlap),
		chunker.WithLowerBoundWordCount(cfg.ChunkWordCount),
	)

	ingestionService = services.NewIngestionService(chk, embedder, store, services.IngestionConfig{
		BatchSize:   cfg.EmbedBatchSize,
		Concurrency: cfg.EmbedConcurrency,
	})

	ranker := services.NewRanker(store, cfg.SearchLimit)
	retrievalService = services.NewRetrievalService(embedder, llm, ranker)

	return nil
}
