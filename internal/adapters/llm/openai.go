package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"

	"github.com/jothelearningguy/alignus/internal/domain"
)

// OpenAIClient implements the classifier and generator contracts on the
// OpenAI Responses API. Reads OPENAI_API_KEY from the environment.
type OpenAIClient struct {
	client openai.Client
	model  string
}

func NewOpenAIClient(model string) *OpenAIClient {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClient{
		client: openai.NewClient(),
		model:  model,
	}
}

func (o *OpenAIClient) ScoreSentiment(ctx context.Context, text string) (float64, error) {
	reply, err := o.generate(ctx, BuildSentimentPrompt(text))
	if err != nil {
		return 0, err
	}
	return ParseSentiment(reply), nil
}

// CooldownMessage implements domain.InsightGenerator.
func (o *OpenAIClient) CooldownMessage(ctx context.Context, combinedSentiment float64, cooldownMinutes int) (string, error) {
	return o.insight(ctx, BuildCooldownPrompt(combinedSentiment, cooldownMinutes))
}

// ExchangeInsight implements domain.InsightGenerator.
func (o *OpenAIClient) ExchangeInsight(ctx context.Context, first, second *domain.Message) (string, error) {
	return o.insight(ctx, BuildInsightPrompt(
		first.Text, first.SentimentOrNeutral(),
		second.Text, second.SentimentOrNeutral()))
}

func (o *OpenAIClient) insight(ctx context.Context, prompt string) (string, error) {
	reply, err := o.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if reply == "" {
		return FallbackText, nil
	}
	return reply, nil
}

func (o *OpenAIClient) generate(ctx context.Context, prompt string) (string, error) {
	params := responses.ResponseNewParams{
		Model: o.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
	}

	resp, err := o.callWithRetry(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai response: %w", err)
	}
	return strings.TrimSpace(resp.OutputText()), nil
}

// callWithRetry retries rate-limit and server errors with a short backoff.
func (o *OpenAIClient) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	const maxRetries = 3
	waits := []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := o.client.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == maxRetries-1 {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waits[attempt]):
		}
	}
	return nil, lastErr
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "too many requests") ||
		strings.Contains(s, "500") ||
		strings.Contains(s, "server_error") ||
		strings.Contains(s, "internal server error")
}
