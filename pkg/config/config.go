// Package config loads UDA-Hub configuration from YAML with environment
// variable fallback for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// API Keys
	OpenAIKey string `yaml:"openai_key"`

	// Model Configuration
	LLMModel       string  `yaml:"llm_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`

	// Knowledge retrieval
	Knowledge KnowledgeConfig `yaml:"knowledge"`

	// Escalation policy
	Escalation EscalationConfig `yaml:"escalation"`

	// Storage
	AccountDBPath string      `yaml:"account_db_path"`
	MemoryDBPath  string      `yaml:"memory_db_path"`
	Redis         RedisConfig `yaml:"redis"`

	// Servers
	ToolServerAddr string `yaml:"tool_server_addr"`
	MetricsAddr    string `yaml:"metrics_addr"`

	// Checkpoint garbage collection
	CheckpointTTL   time.Duration `yaml:"checkpoint_ttl"`
	CheckpointSweep string        `yaml:"checkpoint_sweep"` // cron expression
}

// KnowledgeConfig holds retrieval settings.
type KnowledgeConfig struct {
	// ArticlesPath is the YAML corpus indexed into the vector store.
	ArticlesPath string `yaml:"articles_path"`
	// ConfidenceThreshold gates whether a result set is usable.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	// TopK is the default number of candidates per search.
	TopK int `yaml:"top_k"`
	// EmbeddingDimensions must match the embedding model output.
	EmbeddingDimensions int `yaml:"embedding_dimensions"`
	// Provider selects the embedder: "openai" or "mock".
	Provider string `yaml:"provider"`
}

// EscalationConfig holds escalation policy settings.
type EscalationConfig struct {
	// AlwaysEscalate lists issue types that unconditionally escalate.
	AlwaysEscalate []string `yaml:"always_escalate"`
}

// RedisConfig holds the optional Redis checkpoint backend settings.
// When Addr is empty the in-memory checkpoint store is used.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with all defaults applied, suitable for
// development and tests without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.LLMModel == "" {
		c.LLMModel = "gpt-4o-mini"
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = "text-embedding-3-small"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 500
	}
	if c.Knowledge.ConfidenceThreshold == 0 {
		c.Knowledge.ConfidenceThreshold = 0.7
	}
	if c.Knowledge.TopK == 0 {
		c.Knowledge.TopK = 3
	}
	if c.Knowledge.EmbeddingDimensions == 0 {
		c.Knowledge.EmbeddingDimensions = 1536
	}
	if c.Knowledge.Provider == "" {
		c.Knowledge.Provider = "openai"
	}
	if len(c.Escalation.AlwaysEscalate) == 0 {
		c.Escalation.AlwaysEscalate = []string{"legal"}
	}
	if c.AccountDBPath == "" {
		c.AccountDBPath = "data/cultpass.db"
	}
	if c.MemoryDBPath == "" {
		c.MemoryDBPath = "data/udahub.db"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "udahub:checkpoint:"
	}
	if c.ToolServerAddr == "" {
		c.ToolServerAddr = ":8080"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9090"
	}
	if c.CheckpointTTL == 0 {
		c.CheckpointTTL = 24 * time.Hour
	}
	if c.CheckpointSweep == "" {
		c.CheckpointSweep = "@hourly"
	}

	// Load API key from environment if not in config
	if c.OpenAIKey == "" {
		c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Save writes the configuration to a YAML file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.LLMModel == "" {
		return fmt.Errorf("llm_model is required")
	}
	if c.Knowledge.ConfidenceThreshold <= 0 || c.Knowledge.ConfidenceThreshold > 1 {
		return fmt.Errorf("knowledge.confidence_threshold must be in (0,1], got %f", c.Knowledge.ConfidenceThreshold)
	}
	if c.Knowledge.TopK < 1 {
		return fmt.Errorf("knowledge.top_k must be at least 1")
	}
	if c.Knowledge.Provider == "openai" && c.OpenAIKey == "" {
		return fmt.Errorf("openai_key is required when knowledge.provider is openai")
	}
	return nil
}
