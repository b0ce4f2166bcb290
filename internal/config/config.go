package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned when a required provider credential is absent.
var ErrMissingAPIKey = errors.New("missing API key")

// AppInfo contains basic information about the application.
type AppInfo struct {
	Name        string `yaml:"name"`        // Application name
	Environment string `yaml:"environment"` // Runtime environment (e.g. "development", "production")
}

// LoggerConfig configures the structured logger.
type LoggerConfig struct {
	Level string `yaml:"level"` // Log level (e.g. "info", "debug", "warn", "error")
}

// GeminiConfig holds credentials and model selection for the Gemini API.
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"` // Gemini API key; overridden by GOOGLE_API_KEY
	Model  string `yaml:"model"`  // Model name (e.g. "gemini-1.5-flash", "models/embedding-001")
}

// OllamaConfig holds the connection settings for a local Ollama instance.
type OllamaConfig struct {
	BaseURL string `yaml:"baseURL"` // Ollama base URL; defaults to http://localhost:11434
	Model   string `yaml:"model"`   // Model name (e.g. "llama3.1", "nomic-embed-text")
}

// LLMConfig selects and configures the generative model provider.
type LLMConfig struct {
	Provider string       `yaml:"provider"` // "gemini" or "ollama"
	Gemini   GeminiConfig `yaml:"gemini"`
	Ollama   OllamaConfig `yaml:"ollama"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string       `yaml:"provider"` // "gemini" or "ollama"
	Gemini   GeminiConfig `yaml:"gemini"`
	Ollama   OllamaConfig `yaml:"ollama"`
}

// TavilyConfig configures the optional web search provider. A missing key
// disables the web-search tool instead of failing startup.
type TavilyConfig struct {
	APIKey     string `yaml:"apiKey"`     // Tavily API key; overridden by TAVILY_API_KEY
	MaxResults int    `yaml:"maxResults"` // Number of results to summarize (default 3)
}

// SearchConfig groups external search providers.
type SearchConfig struct {
	Tavily TavilyConfig `yaml:"tavily"`
}

// MilvusConfig defines the Milvus connection and collection identity.
type MilvusConfig struct {
	Address    string `yaml:"address"`    // Milvus service address (e.g. "localhost:19530")
	Collection string `yaml:"collection"` // Collection name, stable across ingestion runs
}

// DatabaseConfigs contains all database configuration.
type DatabaseConfigs struct {
	Milvus MilvusConfig `yaml:"milvus"`
}

// IngestConfig controls the document ingestion pipeline.
type IngestConfig struct {
	DataDir      string `yaml:"dataDir"`      // Folder scanned (non-recursively) for .pdf/.txt/.md files
	ChunkSize    int    `yaml:"chunkSize"`    // Maximum chunk size in characters (default 1000)
	ChunkOverlap int    `yaml:"chunkOverlap"` // Overlap between consecutive chunks (default 200)
	Watch        bool   `yaml:"watch"`        // Re-ingest the whole folder when it changes
}

// AgentConfig controls the tool-routing conversation loop.
type AgentConfig struct {
	MaxAutoReplies int `yaml:"maxAutoReplies"` // Round budget before the loop is forced to stop (default 5)
	RetrievalTopK  int `yaml:"retrievalTopK"`  // Chunks retrieved per knowledge-base query (default 3)
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Address string `yaml:"address"` // Listen address (e.g. ":8080")
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App       AppInfo         `yaml:"app"`
	Logger    LoggerConfig    `yaml:"logger"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Databases DatabaseConfigs `yaml:"databases"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Agent     AgentConfig     `yaml:"agent"`
	Server    ServerConfig    `yaml:"server"`
}

// Load reads the YAML configuration from path, loads a .env file if one is
// present, applies environment-variable overrides for credentials, and fills
// in defaults. Call Validate before using the result.
func Load(path string) (*AppConfig, error) {
	// Credentials live in .env during development; absence is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *AppConfig) applyEnvOverrides() {
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.LLM.Gemini.APIKey = key
		c.Embedding.Gemini.APIKey = key
	}
	if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		c.Search.Tavily.APIKey = key
	}
}

func (c *AppConfig) applyDefaults() {
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Ingest.DataDir == "" {
		c.Ingest.DataDir = "data"
	}
	if c.Ingest.ChunkSize == 0 {
		c.Ingest.ChunkSize = 1000
	}
	if c.Ingest.ChunkOverlap == 0 {
		c.Ingest.ChunkOverlap = 200
	}
	if c.Agent.MaxAutoReplies == 0 {
		c.Agent.MaxAutoReplies = 5
	}
	if c.Agent.RetrievalTopK == 0 {
		c.Agent.RetrievalTopK = 3
	}
	if c.Search.Tavily.MaxResults == 0 {
		c.Search.Tavily.MaxResults = 3
	}
	if c.Databases.Milvus.Collection == "" {
		c.Databases.Milvus.Collection = "foxo_docs"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
}

// Validate fails fast on configuration that would only surface as a broken
// request later. The Tavily key is deliberately not required: the web-search
// tool degrades to "unavailable" without it.
func (c *AppConfig) Validate() error {
	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.Gemini.APIKey == "" {
			return fmt.Errorf("llm provider gemini: %w (set GOOGLE_API_KEY or llm.gemini.apiKey)", ErrMissingAPIKey)
		}
		if c.LLM.Gemini.Model == "" {
			return fmt.Errorf("llm provider gemini: model is required")
		}
	case "ollama":
		if c.LLM.Ollama.Model == "" {
			return fmt.Errorf("llm provider ollama: model is required")
		}
	default:
		return fmt.Errorf("unsupported llm provider: %q", c.LLM.Provider)
	}

	switch c.Embedding.Provider {
	case "gemini":
		if c.Embedding.Gemini.APIKey == "" {
			return fmt.Errorf("embedding provider gemini: %w (set GOOGLE_API_KEY or embedding.gemini.apiKey)", ErrMissingAPIKey)
		}
		if c.Embedding.Gemini.Model == "" {
			return fmt.Errorf("embedding provider gemini: model is required")
		}
	case "ollama":
		if c.Embedding.Ollama.Model == "" {
			return fmt.Errorf("embedding provider ollama: model is required")
		}
	default:
		return fmt.Errorf("unsupported embedding provider: %q", c.Embedding.Provider)
	}

	if c.Databases.Milvus.Address == "" {
		return fmt.Errorf("databases.milvus.address is required")
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunkOverlap (%d) must be smaller than ingest.chunkSize (%d)",
			c.Ingest.ChunkOverlap, c.Ingest.ChunkSize)
	}
	return nil
}
