// Package config loads application configuration from file, environment
// and defaults via viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all tunables for the retrieval pipeline. Batch size and
// concurrency are explicit values handed to the ingestion service, not
// package-level state.
type Config struct {
	// DataDir is where the chunk store lives.
	DataDir string `mapstructure:"dataDir"`

	// OpenAIAPIKey is the credential for the embedding and LLM providers.
	OpenAIAPIKey string `mapstructure:"openaiApiKey"`

	// OpenAIBaseURL overrides the provider endpoint (gateways, Azure).
	OpenAIBaseURL string `mapstructure:"openaiBaseUrl"`

	// EmbeddingModel is the embedding model identifier.
	EmbeddingModel string `mapstructure:"embeddingModel"`

	// LLMModel is the auxiliary text model identifier.
	LLMModel string `mapstructure:"llmModel"`

	// EmbedBatchSize is the number of chunk texts per embedding request.
	EmbedBatchSize int `mapstructure:"embedBatchSize"`

	// EmbedConcurrency is the maximum number of in-flight embedding requests.
	EmbedConcurrency int `mapstructure:"embedConcurrency"`

	// SearchLimit caps the number of fused search results per query.
	SearchLimit int `mapstructure:"searchLimit"`

	// SentenceOverlap is the chunker's overlap-sentence distance.
	SentenceOverlap int `mapstructure:"sentenceOverlap"`

	// ChunkWordCount is the word count a chunk targets before closing.
	ChunkWordCount int `mapstructure:"chunkWordCount"`

	// WindowLimitFirst is the number of leading turn-pairs always kept.
	WindowLimitFirst int `mapstructure:"windowLimitFirst"`

	// WindowLimitRecent is the number of trailing turn-pairs always kept.
	WindowLimitRecent int `mapstructure:"windowLimitRecent"`

	// WindowCharacterLimit is the context window character budget.
	WindowCharacterLimit int `mapstructure:"windowCharacterLimit"`
}

// Load reads configuration from the given file (optional), the
// TELLI_RAG_* environment and built-in defaults, in that precedence.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("dataDir", "")
	v.SetDefault("embeddingModel", "text-embedding-3-small")
	v.SetDefault("llmModel", "gpt-4o-mini")
	v.SetDefault("embedBatchSize", 200)
	v.SetDefault("embedConcurrency", 5)
	v.SetDefault("searchLimit", 10)
	v.SetDefault("sentenceOverlap", 1)
	v.SetDefault("chunkWordCount", 200)
	v.SetDefault("windowLimitFirst", 1)
	v.SetDefault("windowLimitRecent", 2)
	v.SetDefault("windowCharacterLimit", 10000)

	v.SetEnvPrefix("TELLI_RAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The credential usually arrives via the conventional variable.
	_ = v.BindEnv("openaiApiKey", "TELLI_RAG_OPENAI_API_KEY", "OPENAI_API_KEY")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
