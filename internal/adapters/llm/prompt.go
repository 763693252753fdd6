package llm

import (
	"fmt"
	"strconv"
	"strings"
)

// Fixed phrases the generated text must honor. The chat UI and the tests
// key off these prefixes to tell a cool-down notice from a regular insight.
const (
	CooldownPrefix = "Let's pause and breathe."
	InsightPrefix  = "Insight:"

	// FallbackText is committed when the model answers with no usable text.
	FallbackText = "Analysis could not be completed."
)

// ExerciseTitles are the communication exercises an insight may recommend.
// They match the dashboard catalog.
var ExerciseTitles = []string{
	"Active Listening",
	"'I Feel' Statements",
	"Validating Feelings",
}

// BuildSentimentPrompt asks for a bare scalar so the reply can be parsed
// with ParseSentiment.
func BuildSentimentPrompt(text string) string {
	return fmt.Sprintf(
		"Analyze the sentiment of this text on a scale of -1 (very negative) to 1 (very positive). "+
			"Respond with ONLY the number. Text: %q", text)
}

// BuildCooldownPrompt requests a calming message plus a short breathing
// exercise for a heated exchange.
func BuildCooldownPrompt(combinedSentiment float64, cooldownMinutes int) string {
	return fmt.Sprintf(
		"The conversation has become very heated (sentiment: %.2f). "+
			"Provide a short, calming message (under 50 words) to both partners, "+
			"suggesting a %d-minute cool-down period. Also, provide a simple, 1-minute "+
			"breathing exercise they can do. Start with %q. Format the exercise with clear steps.",
		combinedSentiment, cooldownMinutes, CooldownPrefix)
}

// BuildInsightPrompt requests a counseling insight over one exchange.
func BuildInsightPrompt(text1 string, sentiment1 float64, text2 string, sentiment2 float64) string {
	return fmt.Sprintf(
		"As a relationship counselor, analyze this exchange. Sentiment scores are %.2f and %.2f.\n"+
			"Partner 1: %q\n"+
			"Partner 2: %q\n"+
			"Provide a concise, gentle insight (under 150 words). If the sentiment is low, "+
			"suggest a relevant communication exercise from this list: [%s]. "+
			"Start with %q and if suggesting an exercise, end with "+
			"\"Suggestion: You might find the [Exercise Name] exercise helpful. "+
			"You can find it in your dashboard.\"",
		sentiment1, sentiment2, text1, text2,
		strings.Join(ExerciseTitles, ", "), InsightPrefix)
}

// ParseSentiment extracts a scalar from a classifier reply and clamps it to
// [-1, 1]. Unparseable replies score neutral, per the classifier contract.
func ParseSentiment(reply string) float64 {
	fields := strings.Fields(strings.TrimSpace(reply))
	if len(fields) == 0 {
		return 0
	}
	score, err := strconv.ParseFloat(strings.TrimRight(fields[0], "."), 64)
	if err != nil {
		return 0
	}
	return clamp(score, -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
