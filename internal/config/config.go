package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDatasetPath = "atp_matches_1968.csv"
	DefaultDatasetURL  = "https://raw.githubusercontent.com/JeffSackmann/tennis_atp/master/atp_matches_1968.csv"
)

// DatasetConfig says where the match CSV lives and where to fetch it from.
type DatasetConfig struct {
	Path        string `yaml:"path"`
	URL         string `yaml:"url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RemoteEmbedderConfig holds configuration for an HTTP embeddings API.
type RemoteEmbedderConfig struct {
	BaseURL           string `yaml:"base_url"`
	APIKeyEnv         string `yaml:"api_key_env"`
	Model             string `yaml:"model"`
	TimeoutSecs       int    `yaml:"timeout_secs"`
	BatchSize         int    `yaml:"batch_size"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	MaxRetries        int    `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	Gemini *RemoteEmbedderConfig `yaml:"gemini,omitempty"`
	OpenAI *RemoteEmbedderConfig `yaml:"openai,omitempty"`
}

// GeneratorConfig holds configuration for a text generation API.
type GeneratorConfig struct {
	BaseURL           string   `yaml:"base_url"`
	APIKeyEnv         string   `yaml:"api_key_env"`
	Model             string   `yaml:"model"`
	Temperature       *float64 `yaml:"temperature,omitempty"`
	TimeoutSecs       int      `yaml:"timeout_secs"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
}

// LLMConfig selects the model used for query enhancement. Type "none"
// disables enhancement.
type LLMConfig struct {
	Type   string           `yaml:"type"`
	Gemini *GeneratorConfig `yaml:"gemini,omitempty"`
	OpenAI *GeneratorConfig `yaml:"openai,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Memory *MemoryConfig `yaml:"memory,omitempty"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// MemoryConfig configures the in-process store.
type MemoryConfig struct {
	Distance string `yaml:"distance"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	Addr       string `yaml:"addr"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
	Collection string `yaml:"collection"`
	Distance   string `yaml:"distance"`
}

type RetrieverConfig struct {
	TopK int `yaml:"top_k"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Dataset     DatasetConfig     `yaml:"dataset"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	LLM         LLMConfig         `yaml:"llm"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retriever   RetrieverConfig   `yaml:"retriever"`
	Log         LogConfig         `yaml:"log"`
}

// Timeout converts a seconds setting to a duration.
func Timeout(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/tennisrag/config.yaml.
// If neither exists, defaults are returned with an empty path.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	return Default(), "", nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tennisrag", "config.yaml"), nil
}

// Default returns the configuration used when no file is present:
// Gemini for both embeddings and query enhancement, in-memory L2 index.
func Default() *AppConfig {
	cfg := &AppConfig{
		Embedder:    EmbedderConfig{Type: "gemini"},
		LLM:         LLMConfig{Type: "gemini"},
		VectorStore: VectorStoreConfig{Type: "memory"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

// Validate rejects unknown component types.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "gemini", "openai", "tfidf":
	default:
		return fmt.Errorf("unknown embedder type %q", c.Embedder.Type)
	}
	switch c.LLM.Type {
	case "gemini", "openai", "none":
	default:
		return fmt.Errorf("unknown llm type %q", c.LLM.Type)
	}
	switch c.VectorStore.Type {
	case "memory", "qdrant":
	default:
		return fmt.Errorf("unknown vector store type %q", c.VectorStore.Type)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = DefaultDatasetPath
	}
	if cfg.Dataset.URL == "" {
		cfg.Dataset.URL = DefaultDatasetURL
	}
	if cfg.Dataset.TimeoutSecs == 0 {
		cfg.Dataset.TimeoutSecs = 60
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "gemini"
	}
	switch cfg.Embedder.Type {
	case "gemini":
		if cfg.Embedder.Gemini == nil {
			cfg.Embedder.Gemini = &RemoteEmbedderConfig{}
		}
		embedderDefaults(cfg.Embedder.Gemini, "GOOGLE_API_KEY", "models/text-embedding-004", 100)
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &RemoteEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		embedderDefaults(cfg.Embedder.OpenAI, "OPENAI_API_KEY", "text-embedding-3-small", 32)
	}

	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "gemini"
	}
	switch cfg.LLM.Type {
	case "gemini":
		if cfg.LLM.Gemini == nil {
			cfg.LLM.Gemini = &GeneratorConfig{}
		}
		generatorDefaults(cfg.LLM.Gemini, "GOOGLE_API_KEY", "gemini-2.0-flash")
	case "openai":
		if cfg.LLM.OpenAI == nil {
			cfg.LLM.OpenAI = &GeneratorConfig{}
		}
		if cfg.LLM.OpenAI.BaseURL == "" {
			cfg.LLM.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		generatorDefaults(cfg.LLM.OpenAI, "OPENAI_API_KEY", "gpt-4o-mini")
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	switch cfg.VectorStore.Type {
	case "memory":
		if cfg.VectorStore.Memory == nil {
			cfg.VectorStore.Memory = &MemoryConfig{}
		}
		if cfg.VectorStore.Memory.Distance == "" {
			cfg.VectorStore.Memory.Distance = "l2"
		}
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		if cfg.VectorStore.Qdrant.Addr == "" {
			cfg.VectorStore.Qdrant.Addr = "localhost:6334"
		}
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "atp_matches"
		}
		if cfg.VectorStore.Qdrant.Distance == "" {
			cfg.VectorStore.Qdrant.Distance = "cosine"
		}
	}

	if cfg.Retriever.TopK <= 0 {
		cfg.Retriever.TopK = 4
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func embedderDefaults(c *RemoteEmbedderConfig, keyEnv, model string, batch int) {
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = keyEnv
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 30
	}
	if c.BatchSize == 0 {
		c.BatchSize = batch
	}
}

func generatorDefaults(c *GeneratorConfig, keyEnv, model string) {
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = keyEnv
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 30
	}
}
