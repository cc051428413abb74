package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"cortex-sources"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// Ordered generation candidates; the first is primary, the rest are
	// fallbacks tried on failure.
	GenerationModels []string `envconfig:"GENERATION_MODELS" default:"gpt-4o,gpt-4o-mini,gpt-3.5-turbo"`

	// Context assembly bounds. The character ceiling is a cost and quality
	// control: generative models charge and degrade on oversized input.
	MaxContextChars  int `envconfig:"MAX_CONTEXT_CHARS" default:"10000"`
	SearchTopK       int `envconfig:"SEARCH_TOP_K" default:"5"`
	SnapshotProjects int `envconfig:"SNAPSHOT_PROJECTS" default:"5"`
	SnapshotMembers  int `envconfig:"SNAPSHOT_MEMBERS" default:"10"`

	// EmbedCharBudget bounds the text sent to the embedding endpoint.
	EmbedCharBudget int `envconfig:"EMBED_CHAR_BUDGET" default:"6000"`

	// IngestConcurrency caps parallel extraction+upsert cycles during
	// batch ingestion.
	IngestConcurrency int `envconfig:"INGEST_CONCURRENCY" default:"2"`

	// DeckConverterCommand converts legacy presentation files to text.
	DeckConverterCommand string `envconfig:"DECK_CONVERTER_COMMAND"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("CORTEX", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.MaxContextChars <= 0 {
		return fmt.Errorf("CORTEX_MAX_CONTEXT_CHARS must be positive")
	}
	if c.SearchTopK <= 0 {
		return fmt.Errorf("CORTEX_SEARCH_TOP_K must be positive")
	}
	if c.IngestConcurrency <= 0 {
		return fmt.Errorf("CORTEX_INGEST_CONCURRENCY must be positive")
	}
	if len(c.GenerationModels) == 0 {
		return fmt.Errorf("CORTEX_GENERATION_MODELS must name at least one model")
	}
	for _, m := range c.GenerationModels {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("CORTEX_GENERATION_MODELS contains an empty model name")
		}
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
