package main

import (
	"fmt"
	"log/slog"

	"tennisrag/internal/config"
	"tennisrag/internal/domain"
	"tennisrag/internal/embedding/gemini"
	"tennisrag/internal/embedding/openai"
	"tennisrag/internal/embedding/tfidf"
	"tennisrag/internal/enhancer"
	"tennisrag/internal/httpclient"
	llmgemini "tennisrag/internal/llm/gemini"
	llmopenai "tennisrag/internal/llm/openai"
	"tennisrag/internal/retriever"
	"tennisrag/internal/service"
	"tennisrag/internal/vectorstore"
	"tennisrag/internal/vectorstore/memory"
	"tennisrag/internal/vectorstore/qdrant"
)

func buildEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	case "gemini":
		if cfg.Gemini == nil {
			return nil, fmt.Errorf("gemini embedder config missing")
		}
		return gemini.NewClient(gemini.Config{
			BaseURL:           cfg.Gemini.BaseURL,
			APIKeyEnv:         cfg.Gemini.APIKeyEnv,
			Model:             cfg.Gemini.Model,
			Timeout:           config.Timeout(cfg.Gemini.TimeoutSecs),
			BatchSize:         cfg.Gemini.BatchSize,
			RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
			MaxRetries:        cfg.Gemini.MaxRetries,
		})
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		return openai.NewClient(openai.Config{
			BaseURL:           cfg.OpenAI.BaseURL,
			APIKeyEnv:         cfg.OpenAI.APIKeyEnv,
			Model:             cfg.OpenAI.Model,
			Timeout:           config.Timeout(cfg.OpenAI.TimeoutSecs),
			BatchSize:         cfg.OpenAI.BatchSize,
			RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
			MaxRetries:        cfg.OpenAI.MaxRetries,
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

// buildGenerator returns nil for type "none", which disables query enhancement.
func buildGenerator(cfg config.LLMConfig) (domain.Generator, error) {
	switch cfg.Type {
	case "none":
		return nil, nil
	case "gemini":
		if cfg.Gemini == nil {
			return nil, fmt.Errorf("gemini llm config missing")
		}
		return llmgemini.New(llmgemini.Config{
			BaseURL:           cfg.Gemini.BaseURL,
			APIKeyEnv:         cfg.Gemini.APIKeyEnv,
			Model:             cfg.Gemini.Model,
			Temperature:       cfg.Gemini.Temperature,
			Timeout:           config.Timeout(cfg.Gemini.TimeoutSecs),
			RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
		})
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai llm config missing")
		}
		return llmopenai.New(llmopenai.Config{
			BaseURL:           cfg.OpenAI.BaseURL,
			APIKeyEnv:         cfg.OpenAI.APIKeyEnv,
			Model:             cfg.OpenAI.Model,
			Temperature:       cfg.OpenAI.Temperature,
			Timeout:           config.Timeout(cfg.OpenAI.TimeoutSecs),
			RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
		})
	default:
		return nil, fmt.Errorf("unknown llm: %s", cfg.Type)
	}
}

// buildStore returns the configured store and a func releasing its resources.
func buildStore(cfg config.VectorStoreConfig) (vectorstore.Storage, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Type {
	case "memory":
		distance := ""
		if cfg.Memory != nil {
			distance = cfg.Memory.Distance
		}
		metric, err := memory.ParseMetric(distance)
		if err != nil {
			return nil, noop, err
		}
		return memory.NewStorage(metric), noop, nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, noop, fmt.Errorf("qdrant config missing")
		}
		st, err := qdrant.NewStorage(qdrant.Config{
			Addr:       cfg.Qdrant.Addr,
			APIKey:     cfg.Qdrant.APIKey,
			UseTLS:     cfg.Qdrant.UseTLS,
			Collection: cfg.Qdrant.Collection,
			Distance:   cfg.Qdrant.Distance,
		})
		if err != nil {
			return nil, noop, err
		}
		return st, st.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}

// buildService assembles the pipeline. The returned func closes the store.
func buildService(cfg *config.AppConfig, logger *slog.Logger) (*service.RAGService, func() error, error) {
	emb, err := buildEmbedder(cfg.Embedder)
	if err != nil {
		return nil, nil, fmt.Errorf("embedder init failed: %w", err)
	}
	gen, err := buildGenerator(cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("llm init failed: %w", err)
	}
	st, closeStore, err := buildStore(cfg.VectorStore)
	if err != nil {
		return nil, nil, fmt.Errorf("vector store init failed: %w", err)
	}

	svc := service.NewRAGService(
		httpclient.New(config.Timeout(cfg.Dataset.TimeoutSecs)),
		emb,
		st,
		enhancer.New(gen, logger),
		retriever.New(cfg.Retriever.TopK, logger),
		service.Options{DatasetPath: cfg.Dataset.Path, DatasetURL: cfg.Dataset.URL},
		logger,
	)
	return svc, closeStore, nil
}
