// Package config loads and validates runtime configuration for the veracity
// CLI and services. Values come from the environment, with an optional .env
// file loaded first for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/veracity-ai/veracity/pkg/logging"
)

// Provider names accepted by ProviderConfig.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// Config is the full runtime configuration.
type Config struct {
	Provider       string
	OpenAIKey      string
	AnthropicKey   string
	GeminiKey      string
	Model          string
	EmbeddingModel string

	CorpusDir   string
	TopK        int
	Mode        string
	CallTimeout time.Duration

	Redis RedisConfig
	Pg    PgConfig
	Mongo MongoConfig
}

// RedisConfig configures the optional embedding cache.
type RedisConfig struct {
	Addr string
	DB   int
	TTL  time.Duration
}

// Enabled reports whether a cache endpoint was configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// PgConfig configures the optional index snapshot store.
type PgConfig struct {
	DSN   string
	Table string
}

// Enabled reports whether a snapshot store was configured.
func (c PgConfig) Enabled() bool { return c.DSN != "" }

// MongoConfig configures the optional run recorder.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// Enabled reports whether a run recorder was configured.
func (c MongoConfig) Enabled() bool { return c.URI != "" }

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first; a missing file is not an error.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.WithComponent("config").Warn("failed to load .env file", "error", err)
	}

	return &Config{
		Provider:       getEnv("VERACITY_PROVIDER", ProviderOpenAI),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		Model:          os.Getenv("VERACITY_MODEL"),
		EmbeddingModel: os.Getenv("VERACITY_EMBEDDING_MODEL"),

		CorpusDir:   getEnv("VERACITY_CORPUS_DIR", "corpus"),
		TopK:        getEnvInt("VERACITY_TOP_K", 3),
		Mode:        getEnv("VERACITY_MODE", "responsible"),
		CallTimeout: getEnvDuration("VERACITY_CALL_TIMEOUT", 60*time.Second),

		Redis: RedisConfig{
			Addr: os.Getenv("VERACITY_REDIS_ADDR"),
			DB:   getEnvInt("VERACITY_REDIS_DB", 0),
			TTL:  getEnvDuration("VERACITY_REDIS_TTL", 24*time.Hour),
		},
		Pg: PgConfig{
			DSN:   os.Getenv("VERACITY_PG_DSN"),
			Table: getEnv("VERACITY_PG_TABLE", "index_snapshots"),
		},
		Mongo: MongoConfig{
			URI:        os.Getenv("VERACITY_MONGO_URI"),
			Database:   getEnv("VERACITY_MONGO_DATABASE", "veracity"),
			Collection: getEnv("VERACITY_MONGO_COLLECTION", "runs"),
		},
	}
}

// APIKey returns the key for the selected provider.
func (c *Config) APIKey() string {
	switch c.Provider {
	case ProviderClaude:
		return c.AnthropicKey
	case ProviderGemini:
		return c.GeminiKey
	default:
		return c.OpenAIKey
	}
}

// Validate checks the fields every command depends on.
func (c *Config) Validate() error {
	v := NewValidator()
	v.ValidateOneOf("provider", c.Provider, ProviderOpenAI, ProviderClaude, ProviderGemini)
	v.RequireNonEmpty("api_key", c.APIKey())
	v.ValidateOneOf("mode", c.Mode, "plain", "grounded", "responsible")
	v.RequirePositive("top_k", c.TopK)

	if c.Redis.Enabled() {
		v.ValidateRange("redis_db", c.Redis.DB, 0, 15)
	}
	if c.Mongo.Enabled() {
		v.RequireNonEmpty("mongo_database", c.Mongo.Database)
		v.RequireNonEmpty("mongo_collection", c.Mongo.Collection)
	}
	if c.Pg.Enabled() {
		v.RequireNonEmpty("pg_table", c.Pg.Table)
	}
	return v.Error()
}

// ValidateIndexing additionally checks the fields indexing needs.
func (c *Config) ValidateIndexing() error {
	if err := c.Validate(); err != nil {
		return err
	}
	v := NewValidator()
	v.RequireNonEmpty("corpus_dir", c.CorpusDir)
	// Embeddings always go through the OpenAI embeddings API, whichever
	// provider answers questions.
	v.RequireNonEmpty("openai_api_key", c.OpenAIKey)
	return v.Error()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		logging.WithComponent("config").Warn("invalid integer in environment, using default",
			"key", key, "value", raw, "default", fallback)
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		logging.WithComponent("config").Warn("invalid duration in environment, using default",
			"key", key, "value", raw, "default", fallback)
		return fallback
	}
	return value
}
