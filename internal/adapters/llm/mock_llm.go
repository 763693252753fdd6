package llm

import (
	"context"
	"strings"

	"github.com/jothelearningguy/alignus/internal/domain"
)

// MockLLM is a deterministic provider for local mode and tests. Sentiment is
// a small keyword heuristic; insights are canned text with the required
// prefixes.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

var mockNegativeWords = []string{"hate", "never", "angry", "stupid", "worst", "always blame"}
var mockPositiveWords = []string{"love", "thank", "appreciate", "happy", "great"}

func (m *MockLLM) ScoreSentiment(ctx context.Context, text string) (float64, error) {
	lower := strings.ToLower(text)
	score := 0.0
	for _, w := range mockNegativeWords {
		if strings.Contains(lower, w) {
			score -= 0.4
		}
	}
	for _, w := range mockPositiveWords {
		if strings.Contains(lower, w) {
			score += 0.4
		}
	}
	return clamp(score, -1, 1), nil
}

func (m *MockLLM) CooldownMessage(ctx context.Context, combinedSentiment float64, cooldownMinutes int) (string, error) {
	return CooldownPrefix + " Take five minutes apart. " +
		"Breathe in for four counts, hold for four, out for four. Repeat for one minute.", nil
}

func (m *MockLLM) ExchangeInsight(ctx context.Context, first, second *domain.Message) (string, error) {
	return InsightPrefix + " You are both trying to be heard at the same time. " +
		"Suggestion: You might find the Active Listening exercise helpful. " +
		"You can find it in your dashboard.", nil
}
