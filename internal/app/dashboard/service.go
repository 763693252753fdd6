package dashboard

import (
	"context"

	"github.com/jothelearningguy/alignus/internal/app/turns"
	"github.com/jothelearningguy/alignus/internal/domain"
)

// Point is one scored message on the sentiment-over-time chart.
type Point struct {
	At        domain.Timestamp
	Sentiment float64
	Author    domain.UserID
	Counselor bool // true for analysis messages, drawn as the overlay line
}

// Service projects stored data into the dashboard views.
type Service struct {
	messages domain.MessageStore
}

func NewService(messages domain.MessageStore) *Service {
	return &Service{messages: messages}
}

// SentimentSeries returns the chronological series of scored messages.
// Unscored messages are skipped, not defaulted: an unscored entry carries
// no signal worth charting.
func (s *Service) SentimentSeries(ctx context.Context, sessionID domain.SessionID) ([]Point, error) {
	msgs, err := s.messages.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	turns.SortMessages(msgs)

	points := make([]Point, 0, len(msgs))
	for _, m := range msgs {
		if m.Sentiment == nil {
			continue
		}
		points = append(points, Point{
			At:        m.CreatedAt,
			Sentiment: *m.Sentiment,
			Author:    m.Author,
			Counselor: m.Kind == domain.KindAnalysis,
		})
	}
	return points, nil
}

// SentimentLabel buckets a score for display.
func SentimentLabel(score float64) string {
	switch {
	case score > 0.5:
		return "Very Positive"
	case score > 0.1:
		return "Positive"
	case score > -0.1:
		return "Neutral"
	case score > -0.5:
		return "Negative"
	default:
		return "Very Negative"
	}
}

// Exercise is one entry of the fixed communication-exercise catalog.
type Exercise struct {
	Title       string
	Description string
}

var exercises = []Exercise{
	{
		Title: "Active Listening",
		Description: "One partner speaks for 3 minutes about their day or feelings. " +
			"The other listens without interrupting, then summarizes what they heard " +
			"and how they think their partner feels.",
	},
	{
		Title: "'I Feel' Statements",
		Description: "Practice expressing needs and feelings without blaming. " +
			"Start sentences with 'I feel...' instead of 'You always...'. For example, " +
			"'I feel lonely when...' instead of 'You never spend time with me.'",
	},
	{
		Title: "Validating Feelings",
		Description: "Acknowledge your partner's feelings, even if you don't agree. " +
			"Use phrases like, 'I can see why you would feel that way,' or " +
			"'It makes sense that you're upset about that.'",
	},
}

// Exercises returns the catalog the insight generator can recommend from.
func Exercises() []Exercise {
	out := make([]Exercise, len(exercises))
	copy(out, exercises)
	return out
}
