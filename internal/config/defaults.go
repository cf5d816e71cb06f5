package config

import "time"

const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"

	StoreChromem  = "chromem"
	StorePGVector = "pgvector"

	ContextualizerLLM      = "llm"
	ContextualizerTemplate = "template"
)

// Default returns the configuration used before the YAML file and the
// environment are applied. Explicit zero values in either survive.
func Default() Config {
	var cfg Config
	applyBaseDefaults(&cfg)
	return cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	applyBaseDefaults(cfg)
	applyDerivedDefaults(cfg)
}

func applyBaseDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.SessionTTL == 0 {
		cfg.Server.SessionTTL = 30 * time.Minute
	}

	applyLLMDefaults(&cfg.EmbedLLM, "models/embedding-001")
	applyLLMDefaults(&cfg.InferenceLLM, "gemini-2.5-flash")
	if cfg.EmbedLLM.BatchSize == 0 {
		cfg.EmbedLLM.BatchSize = 32
	}
	if cfg.InferenceLLM.Temperature == 0 {
		cfg.InferenceLLM.Temperature = 0.2
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = StoreChromem
	}
	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = "vectorstore"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "documents"
	}
	if cfg.VectorStore.Dimensions == 0 {
		cfg.VectorStore.Dimensions = 768
	}

	if cfg.RAG.DocumentPath == "" {
		cfg.RAG.DocumentPath = "data/document.pdf"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 200
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 4
	}
	if cfg.RAG.SourceTextLimit == 0 {
		cfg.RAG.SourceTextLimit = 800
	}
	if cfg.RAG.PreviewLimit == 0 {
		cfg.RAG.PreviewLimit = 200
	}
	if cfg.RAG.Contextualizer == "" {
		cfg.RAG.Contextualizer = ContextualizerLLM
	}
	if cfg.RAG.ResponseLanguage == "" {
		cfg.RAG.ResponseLanguage = "English"
	}
	if cfg.RAG.RequestTimeout == 0 {
		cfg.RAG.RequestTimeout = 60 * time.Second
	}
}

func applyLLMDefaults(llm *LLMConfig, model string) {
	if llm.Provider == "" {
		llm.Provider = ProviderGoogleAI
	}
	if llm.Model == "" {
		llm.Model = model
	}
}

// applyDerivedDefaults fills values that depend on other settings, so it runs
// after the file and the environment are applied.
func applyDerivedDefaults(cfg *Config) {
	if cfg.VectorStore.SnapshotFile == "" {
		cfg.VectorStore.SnapshotFile = cfg.VectorStore.Path + "/" + cfg.VectorStore.Collection + ".chromem"
	}
	for _, llm := range []*LLMConfig{&cfg.EmbedLLM, &cfg.InferenceLLM} {
		if llm.Provider == ProviderOllama && llm.BaseURL == "" {
			llm.BaseURL = "http://localhost:11434"
		}
	}
}
