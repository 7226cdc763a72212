package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini answers with a hosted Gemini model, grounded on the passages.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGemini creates a Gemini generator for apiKey.
func NewGemini(ctx context.Context, apiKey, model string, temperature float32) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY not set")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini: %w", err)
	}
	return &Gemini{client: client, model: model, temperature: temperature}, nil
}

func (g *Gemini) Name() string { return "gemini:" + g.model }

func (g *Gemini) Generate(ctx context.Context, question, passages string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(Prompt(question, passages)), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini returned an empty answer")
	}
	return text, nil
}

// Prompt is the tutoring prompt sent to the model.
func Prompt(question, passages string) string {
	return fmt.Sprintf(`You are an educational assistant helping school students with their textbooks.

**Context from the textbooks:**
%s

**Student's Question:**
%s

**Instructions:**
1. Answer the question based ONLY on the provided context
2. If the context doesn't contain enough information, say so clearly
3. Use simple, student-friendly language
4. Structure your answer with clear explanations
5. Add examples if relevant from the context
6. Keep the answer educational and encouraging

**Answer:**`, passages, question)
}
