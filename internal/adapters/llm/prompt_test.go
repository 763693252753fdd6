package llm_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jothelearningguy/alignus/internal/adapters/llm"
	"github.com/jothelearningguy/alignus/internal/domain"
)

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  float64
	}{
		{"bare number", "-0.75", -0.75},
		{"with whitespace", "  0.5\n", 0.5},
		{"trailing period", "0.25.", 0.25},
		{"number then prose", "-0.5 because the tone is hostile", -0.5},
		{"clamped high", "3", 1},
		{"clamped low", "-2", -1},
		{"empty reply", "", 0},
		{"prose only", "The sentiment is negative", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := llm.ParseSentiment(tt.reply); got != tt.want {
				t.Fatalf("ParseSentiment(%q) = %v, want %v", tt.reply, got, tt.want)
			}
		})
	}
}

func TestBuildCooldownPromptMentionsPrefixAndDuration(t *testing.T) {
	prompt := llm.BuildCooldownPrompt(-0.7, 5)
	if !strings.Contains(prompt, llm.CooldownPrefix) {
		t.Fatalf("prompt missing cool-down phrase: %q", prompt)
	}
	if !strings.Contains(prompt, "5-minute") {
		t.Fatalf("prompt missing cool-down duration: %q", prompt)
	}
}

func TestBuildInsightPromptListsExercises(t *testing.T) {
	prompt := llm.BuildInsightPrompt("you never listen", -0.6, "that is unfair", -0.4)
	if !strings.Contains(prompt, llm.InsightPrefix) {
		t.Fatalf("prompt missing insight phrase: %q", prompt)
	}
	for _, title := range llm.ExerciseTitles {
		if !strings.Contains(prompt, title) {
			t.Fatalf("prompt missing exercise %q", title)
		}
	}
}

func TestMockLLMHonorsPrefixes(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockLLM()

	text, err := mock.CooldownMessage(ctx, -0.7, 5)
	if err != nil {
		t.Fatalf("CooldownMessage failed: %v", err)
	}
	if !strings.HasPrefix(text, llm.CooldownPrefix) {
		t.Fatalf("cool-down text %q missing prefix", text)
	}

	text, err = mock.ExchangeInsight(ctx, &domain.Message{Text: "a"}, &domain.Message{Text: "b"})
	if err != nil {
		t.Fatalf("ExchangeInsight failed: %v", err)
	}
	if !strings.HasPrefix(text, llm.InsightPrefix) {
		t.Fatalf("insight text %q missing prefix", text)
	}
}

func TestMockLLMSentimentHeuristic(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockLLM()

	pos, err := mock.ScoreSentiment(ctx, "I love and appreciate you")
	if err != nil {
		t.Fatalf("ScoreSentiment failed: %v", err)
	}
	if pos <= 0 {
		t.Fatalf("positive text scored %v", pos)
	}

	neg, err := mock.ScoreSentiment(ctx, "I hate this, you never listen")
	if err != nil {
		t.Fatalf("ScoreSentiment failed: %v", err)
	}
	if neg >= 0 {
		t.Fatalf("negative text scored %v", neg)
	}

	if neutral, _ := mock.ScoreSentiment(ctx, "the weather is cloudy"); neutral != 0 {
		t.Fatalf("neutral text scored %v", neutral)
	}
}
