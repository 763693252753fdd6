package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jothelearningguy/alignus/internal/app/cooldown"
	"github.com/jothelearningguy/alignus/internal/app/turns"
	"github.com/jothelearningguy/alignus/internal/domain"
	"github.com/jothelearningguy/alignus/internal/observability"
)

// Service handles message composition and timeline reads. Composition
// rights are derived per request from the message history (turn-taking) and
// the session document (cool-down); they are never stored.
type Service struct {
	sessions   domain.SessionStore
	messages   domain.MessageStore
	classifier domain.SentimentClassifier
	gate       *cooldown.Gate
	now        func() time.Time
}

func NewService(
	sessions domain.SessionStore,
	messages domain.MessageStore,
	classifier domain.SentimentClassifier,
	gate *cooldown.Gate,
) *Service {
	return &Service{
		sessions:   sessions,
		messages:   messages,
		classifier: classifier,
		gate:       gate,
		now:        time.Now,
	}
}

type SendMessageInput struct {
	SessionID domain.SessionID
	UserID    domain.UserID
	Text      string
}

// SendMessage validates composition rights, scores the text, and appends the
// message. The sentiment is attached before the append so the exchange
// analyzer never has to wait for a score; classifier failure scores neutral
// and is only logged. A rejected send loses nothing: the caller keeps the
// text for resubmission.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*domain.Message, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}
	if len([]rune(text)) > domain.MaxMessageLen {
		return nil, domain.ErrMessageTooLong
	}

	session, err := s.sessions.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", session.ID,
		"user_id", in.UserID,
	)

	if session.Status != domain.StatusActive || !session.HasParticipant(in.UserID) {
		return nil, domain.ErrSessionNotActive
	}
	if s.gate.Blocked(session) {
		return nil, domain.ErrCooldownActive
	}

	history, err := s.messages.ListMessages(ctx, session.ID)
	if err != nil {
		log.Error("failed to load history", "error", err)
		return nil, err
	}
	turns.SortMessages(history)

	if !turns.CanCompose(session, history, in.UserID) {
		return nil, domain.ErrNotYourTurn
	}

	sentiment, err := s.classifier.ScoreSentiment(ctx, text)
	if err != nil {
		// Neutral on failure; the conversation is never blocked by the
		// analysis subsystem.
		log.Error("sentiment classification failed", "error", err)
		sentiment = 0
	}

	msg := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: session.ID,
		Author:    in.UserID,
		Text:      text,
		Kind:      domain.KindUser,
		CreatedAt: s.now(),
		Sentiment: &sentiment,
		Analyzed:  false,
	}

	if err := s.messages.AppendMessage(ctx, msg); err != nil {
		log.Error("failed to append message", "error", err)
		return nil, err
	}

	log.Info("message sent", "message_id", msg.ID, "sentiment", sentiment)
	return msg, nil
}

// Timeline is a session plus everything the chat view derives from it.
type Timeline struct {
	Session         *domain.Session
	Messages        []*domain.Message
	YourTurn        bool
	CooldownSeconds int
}

// GetTimeline returns the sorted history with the viewer's derived state.
// Observing the timeline also gives the cool-down gate a chance to reset a
// lapsed expiry.
func (s *Service) GetTimeline(ctx context.Context, sessionID domain.SessionID, viewer domain.UserID) (*Timeline, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	turns.SortMessages(msgs)

	left := s.gate.Observe(ctx, session)

	yourTurn := false
	if session.Status == domain.StatusActive && left == 0 {
		yourTurn = turns.CanCompose(session, msgs, viewer)
	}

	return &Timeline{
		Session:         session,
		Messages:        msgs,
		YourTurn:        yourTurn,
		CooldownSeconds: left,
	}, nil
}
