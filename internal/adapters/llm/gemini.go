package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/jothelearningguy/alignus/internal/domain"
)

// GeminiClient implements the sentiment classifier and insight generator on
// top of Vertex AI (Gemini).
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a Gemini-backed client. Project and location come
// from the caller (ALIGNUS_GCP_PROJECT / ALIGNUS_GCP_LOCATION).
func NewGeminiClient(ctx context.Context, projectID, location, modelName string) (*GeminiClient, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("gemini client requires project and location")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// ScoreSentiment asks for a bare scalar and parses it, clamped to [-1, 1].
func (g *GeminiClient) ScoreSentiment(ctx context.Context, text string) (float64, error) {
	reply, err := g.generate(ctx, BuildSentimentPrompt(text))
	if err != nil {
		return 0, err
	}
	return ParseSentiment(reply), nil
}

// CooldownMessage implements domain.InsightGenerator.
func (g *GeminiClient) CooldownMessage(ctx context.Context, combinedSentiment float64, cooldownMinutes int) (string, error) {
	return g.insight(ctx, BuildCooldownPrompt(combinedSentiment, cooldownMinutes))
}

// ExchangeInsight implements domain.InsightGenerator.
func (g *GeminiClient) ExchangeInsight(ctx context.Context, first, second *domain.Message) (string, error) {
	return g.insight(ctx, BuildInsightPrompt(
		first.Text, first.SentimentOrNeutral(),
		second.Text, second.SentimentOrNeutral()))
}

// insight runs a counselor prompt. An empty reply falls back to FallbackText
// rather than erroring, so a thin model response never blocks the batch.
func (g *GeminiClient) insight(ctx context.Context, prompt string) (string, error) {
	reply, err := g.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if reply == "" {
		return FallbackText, nil
	}
	return reply, nil
}

func (g *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	temp := float32(0.7)
	topP := float32(0.9)
	outputTokens := int32(1024)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: outputTokens,
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return res.Text(), nil
}
