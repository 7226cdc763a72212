// Package gemini embeds text with Google's Gemini embedding models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-embedding-001"

// Embedder generates embeddings using the Gemini API.
type Embedder struct {
	client   *genai.Client
	model    string
	taskType string

	mu        sync.Mutex
	dimension int
}

// NewEmbedder creates a Gemini embedder. An empty taskType selects
// RETRIEVAL_DOCUMENT, which suits both indexed passages and short queries.
func NewEmbedder(ctx context.Context, apiKey, model, taskType string) (*Embedder, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if taskType == "" {
		taskType = "RETRIEVAL_DOCUMENT"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Embedder{client: client, model: model, taskType: taskType}, nil
}

// Name returns the engine name.
func (e *Embedder) Name() string { return "gemini:" + e.model }

// Prepare is a no-op for hosted embeddings.
func (e *Embedder) Prepare(corpus []string) error { return nil }

// Dimension is known after the first successful Embed.
func (e *Embedder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dimension
}

// Embed generates an embedding for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: e.taskType,
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, errors.New("no embeddings returned")
	}
	vec := widen(result.Embeddings[0].Values)
	e.mu.Lock()
	if e.dimension == 0 {
		e.dimension = len(vec)
	}
	e.mu.Unlock()
	return vec, nil
}

func widen(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
