package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"studymate/internal/answer"
	"studymate/internal/chunker"
	"studymate/internal/config"
	"studymate/internal/domain"
	"studymate/internal/embedding/gemini"
	"studymate/internal/embedding/openai"
	"studymate/internal/embedding/tfidf"
	"studymate/internal/service"
	"studymate/internal/summarizer"
	"studymate/internal/vectorstore/memory"
	"studymate/internal/vectorstore/qdrant"
	"studymate/internal/vectorstore/sqlite"
)

func buildEmbedder(ctx context.Context, cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		return openai.NewClient(openai.Config{
			BaseURL:    oc.BaseURL,
			APIKeyEnv:  oc.APIKeyEnv,
			Model:      oc.Model,
			Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
			AllowNoKey: oc.AllowNoKey,
		})
	case "gemini":
		gc := cfg.Embedder.Gemini
		if gc == nil {
			return nil, fmt.Errorf("gemini embedder config missing")
		}
		return gemini.NewEmbedder(ctx, os.Getenv(gc.APIKeyEnv), gc.Model, gc.TaskType)
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func buildChunker(cfg *config.AppConfig) (domain.Chunker, error) {
	switch cfg.Chunker.Type {
	case "word", "":
		return chunker.NewWordChunker(cfg.Chunker.ChunkWords, cfg.Chunker.OverlapWords, cfg.Chunker.MinChars), nil
	case "sentence":
		return chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Chunker.Type)
	}
}

// buildStore returns the vector store and a function releasing it.
func buildStore(cfg *config.AppConfig) (domain.VectorStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.VectorStore.Type {
	case "memory":
		return memory.NewStorage(), noop, nil
	case "sqlite", "":
		path := ""
		if cfg.VectorStore.SQLite != nil {
			path = cfg.VectorStore.SQLite.Path
		}
		if path == "" {
			return nil, nil, fmt.Errorf("sqlite vector store path missing")
		}
		st, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case "qdrant":
		qc := cfg.VectorStore.Qdrant
		if qc == nil {
			return nil, nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        qc.URL,
			APIKey:     qc.APIKey,
			Collection: qc.Collection,
			Timeout:    time.Duration(qc.TimeoutSecs) * time.Second,
		}), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}

func buildSummarizer(cfg *config.AppConfig) (domain.Summarizer, error) {
	switch cfg.Summarizer.Type {
	case "frequency", "":
		return summarizer.NewFrequencySummarizer(), nil
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}
}

// buildGenerator picks the answer generator. "auto" prefers Gemini when a
// key is present; a Gemini client that cannot be created degrades to the
// template instead of failing the service.
func buildGenerator(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (domain.Generator, error) {
	gc := cfg.Generator
	switch gc.Type {
	case "template":
		return answer.Template{}, nil
	case "auto", "":
		if gc.Key() == "" {
			return answer.Template{}, nil
		}
	case "gemini":
	default:
		return nil, fmt.Errorf("unknown generator: %s", gc.Type)
	}
	gen, err := answer.NewGemini(ctx, gc.Key(), gc.Model, gc.Temperature)
	if err != nil {
		if logger != nil {
			logger.Warn("gemini unavailable, answering from the template", zap.Error(err))
		}
		return answer.Template{}, nil
	}
	return gen, nil
}

// buildService assembles the answering pipeline from cfg. The returned
// closer releases the vector store.
func buildService(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*service.RAGService, func() error, error) {
	emb, err := buildEmbedder(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("embedder: %w", err)
	}
	ch, err := buildChunker(cfg)
	if err != nil {
		return nil, nil, err
	}
	sum, err := buildSummarizer(cfg)
	if err != nil {
		return nil, nil, err
	}
	gen, err := buildGenerator(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("generator: %w", err)
	}
	st, closeStore, err := buildStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("vector store: %w", err)
	}
	svc := service.NewRAGService(ch, emb, st, sum, gen, service.Options{
		TopK:                cfg.Retrieval.TopK,
		SummaryMaxSentences: cfg.Summarizer.MaxSentences,
		Clean:               cfg.Chunker.Clean,
	}, logger)
	return svc, closeStore, nil
}
