// Package config loads the service configuration from a YAML file, an optional
// .env file and the process environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pdf-rag/internal/models"
)

type Config struct {
	Debug        bool              `yaml:"debug"`
	Server       ServerConfig      `yaml:"server"`
	EmbedLLM     LLMConfig         `yaml:"embed_llm"`
	InferenceLLM LLMConfig         `yaml:"inference_llm"`
	VectorStore  VectorStoreConfig `yaml:"vector_store"`
	RAG          RAGConfig         `yaml:"rag"`
}

type ServerConfig struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// LLMConfig selects a model provider. Provider is one of googleai, openai, ollama.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	BatchSize   int     `yaml:"batch_size"`
}

// VectorStoreConfig selects the vector index. Type is chromem or pgvector.
type VectorStoreConfig struct {
	Type          string `yaml:"type"`
	Path          string `yaml:"path"`
	Collection    string `yaml:"collection"`
	InMemory      bool   `yaml:"in_memory"`
	SnapshotFile  string `yaml:"snapshot_file"`
	EncryptionKey string `yaml:"encryption_key"`
	Compress      bool   `yaml:"compress"`
	DatabaseURL   string `yaml:"database_url"`
	Dimensions    int    `yaml:"dimensions"`
}

type RAGConfig struct {
	DocumentPath     string        `yaml:"document_path"`
	ChunkSize        int           `yaml:"chunk_size"`
	ChunkOverlap     int           `yaml:"chunk_overlap"`
	TopK             int           `yaml:"top_k"`
	SourceTextLimit  int           `yaml:"source_text_limit"`
	PreviewLimit     int           `yaml:"preview_limit"`
	HistoryWindow    int           `yaml:"history_window"`
	Contextualizer   string        `yaml:"contextualizer"`
	ResponseLanguage string        `yaml:"response_language"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
}

// LoadConfig starts from Default, overlays the YAML file at path, then .env
// and environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// .env is optional and never overrides variables already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDerivedDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst ...*string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			for _, d := range dst {
				*d = v
			}
		}
	}
	setInt := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer: %v", models.ErrConfiguration, key, err)
		}
		*dst = n
		return nil
	}

	setString("GOOGLE_API_KEY", &cfg.EmbedLLM.Key, &cfg.InferenceLLM.Key)
	setString("LLM_PROVIDER", &cfg.EmbedLLM.Provider, &cfg.InferenceLLM.Provider)
	setString("LLM_BASE_URL", &cfg.EmbedLLM.BaseURL, &cfg.InferenceLLM.BaseURL)
	setString("EMBED_MODEL", &cfg.EmbedLLM.Model)
	setString("LLM_MODEL", &cfg.InferenceLLM.Model)
	setString("CHROMA_DIR", &cfg.VectorStore.Path)
	setString("VECTOR_STORE", &cfg.VectorStore.Type)
	setString("DATABASE_URL", &cfg.VectorStore.DatabaseURL)
	setString("PDF_PATH", &cfg.RAG.DocumentPath)
	setString("RESPONSE_LANGUAGE", &cfg.RAG.ResponseLanguage)

	for key, dst := range map[string]*int{
		"TOP_K":         &cfg.RAG.TopK,
		"CHUNK_SIZE":    &cfg.RAG.ChunkSize,
		"CHUNK_OVERLAP": &cfg.RAG.ChunkOverlap,
		"PORT":          &cfg.Server.Port,
	} {
		if err := setInt(key, dst); err != nil {
			return err
		}
	}

	if v, ok := os.LookupEnv("DEBUG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: DEBUG must be a boolean: %v", models.ErrConfiguration, err)
		}
		cfg.Debug = b
	}
	return nil
}

// RequiresKey reports whether the provider needs an API credential.
func (c LLMConfig) RequiresKey() bool {
	return c.Provider == ProviderGoogleAI || c.Provider == ProviderOpenAI
}

// Validate checks the settings needed by both ingestion and querying.
// All failures wrap models.ErrConfiguration.
func (c *Config) Validate() error {
	for name, llm := range map[string]LLMConfig{"embedding": c.EmbedLLM, "inference": c.InferenceLLM} {
		switch llm.Provider {
		case ProviderGoogleAI, ProviderOpenAI, ProviderOllama:
		default:
			return fmt.Errorf("%w: unknown %s provider %q", models.ErrConfiguration, name, llm.Provider)
		}
		if llm.RequiresKey() && strings.TrimSpace(llm.Key) == "" {
			return fmt.Errorf("%w: %s provider %s requires an API key (GOOGLE_API_KEY)", models.ErrConfiguration, name, llm.Provider)
		}
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", models.ErrConfiguration)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size)", models.ErrConfiguration)
	}
	switch c.VectorStore.Type {
	case StoreChromem:
	case StorePGVector:
		if c.VectorStore.DatabaseURL == "" {
			return fmt.Errorf("%w: pgvector store requires database_url", models.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown vector store %q", models.ErrConfiguration, c.VectorStore.Type)
	}
	if c.VectorStore.InMemory && c.VectorStore.EncryptionKey != "" && len(c.VectorStore.EncryptionKey) != 32 {
		return fmt.Errorf("%w: encryption_key must be 32 bytes", models.ErrConfiguration)
	}
	return nil
}
