package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jothelearningguy/alignus/internal/domain"
	"github.com/jothelearningguy/alignus/internal/observability"
)

// Exchange pairs the two most recent user messages of a session. It is
// derived from the timeline, never stored.
type Exchange struct {
	First  *domain.Message
	Second *domain.Message
}

// CombinedSentiment is the arithmetic mean of the two scores. An unscored
// message counts as neutral.
func (e Exchange) CombinedSentiment() float64 {
	return (e.First.SentimentOrNeutral() + e.Second.SentimentOrNeutral()) / 2
}

// DetectExchange reports whether the tail of the sorted history is an
// analyzable exchange: both user messages, different authors, and the later
// one not yet analyzed.
func DetectExchange(history []*domain.Message) (Exchange, bool) {
	if len(history) < 2 {
		return Exchange{}, false
	}
	first, second := history[len(history)-2], history[len(history)-1]
	if first.Kind != domain.KindUser || second.Kind != domain.KindUser {
		return Exchange{}, false
	}
	if first.Author == second.Author {
		return Exchange{}, false
	}
	if second.Analyzed {
		return Exchange{}, false
	}
	return Exchange{First: first, Second: second}, true
}

// Analyzer turns eligible exchanges into counselor analysis messages and,
// when sentiment turns hostile, a session-wide cool-down. All side effects
// of one exchange go through a single conditional batch commit.
type Analyzer struct {
	insights domain.InsightGenerator
	messages domain.MessageStore
	now      func() time.Time

	threshold float64       // combined sentiment below this triggers cool-down
	cooldown  time.Duration // lockout length on the cool-down branch

	mu       sync.Mutex
	inFlight map[domain.SessionID]bool
}

func NewAnalyzer(insights domain.InsightGenerator, messages domain.MessageStore, threshold float64, cooldown time.Duration) *Analyzer {
	return &Analyzer{
		insights:  insights,
		messages:  messages,
		now:       time.Now,
		threshold: threshold,
		cooldown:  cooldown,
		inFlight:  make(map[domain.SessionID]bool),
	}
}

// Analyze runs the decision procedure for one exchange and commits its batch.
// Duplicate concurrent attempts from this process are suppressed by a
// per-session guard; duplicate attempts from other clients are rejected by
// the store's conditional commit and absorbed here.
//
// On classifier or generator failure nothing is committed: the analyzed
// flags stay false and the next snapshot retries the exchange.
func (a *Analyzer) Analyze(ctx context.Context, session *domain.Session, ex Exchange) error {
	a.mu.Lock()
	if a.inFlight[session.ID] {
		a.mu.Unlock()
		return nil
	}
	a.inFlight[session.ID] = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.inFlight, session.ID)
		a.mu.Unlock()
	}()

	log := observability.LoggerFromContext(ctx).With(
		"session_id", session.ID,
		"first_msg", ex.First.ID,
		"second_msg", ex.Second.ID,
	)

	combined := ex.CombinedSentiment()
	now := a.now()

	var (
		text          string
		err           error
		cooldownUntil *domain.Timestamp
	)

	if combined < a.threshold {
		until := now.Add(a.cooldown)
		cooldownUntil = &until
		minutes := int(a.cooldown / time.Minute)
		text, err = a.insights.CooldownMessage(ctx, combined, minutes)
		log.Info("exchange analysis: cool-down branch", "combined_sentiment", combined)
	} else {
		text, err = a.insights.ExchangeInsight(ctx, ex.First, ex.Second)
		log.Info("exchange analysis: standard branch", "combined_sentiment", combined)
	}
	if err != nil {
		// Absorbed, never user-visible. The exchange stays unanalyzed.
		log.Error("insight generation failed", "error", err)
		return fmt.Errorf("insight generation: %w", err)
	}

	batch := domain.AnalysisBatch{
		SessionID:    session.ID,
		MarkAnalyzed: []domain.MessageID{ex.First.ID, ex.Second.ID},
		Insert: &domain.Message{
			ID:        domain.MessageID(uuid.NewString()),
			SessionID: session.ID,
			Author:    domain.CounselorID,
			Text:      text,
			Kind:      domain.KindAnalysis,
			CreatedAt: now,
			Sentiment: &combined,
		},
		CooldownUntil: cooldownUntil,
	}

	if err := a.messages.CommitAnalysis(ctx, batch); err != nil {
		if errors.Is(err, domain.ErrExchangeAnalyzed) {
			log.Info("exchange analyzed by another client, skipping")
			return nil
		}
		log.Error("analysis batch commit failed", "error", err)
		return fmt.Errorf("analysis commit: %w", err)
	}

	log.Info("exchange analysis committed", "cooldown", cooldownUntil != nil)
	return nil
}
