package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jothelearningguy/alignus/internal/domain"
	"github.com/jothelearningguy/alignus/internal/observability"
)

// Service establishes two-party sessions: one partner creates a waiting
// session, the other joins with the creator's id.
type Service struct {
	sessions domain.SessionStore
	now      func() time.Time
}

func NewService(sessions domain.SessionStore) *Service {
	return &Service{
		sessions: sessions,
		now:      time.Now,
	}
}

type CreateInput struct {
	UserID domain.UserID

	// Partner optionally narrows the idempotent match to sessions shared
	// with this participant.
	Partner domain.UserID
}

// Create starts a new waiting session for the user, or returns the session
// the user already belongs to. The membership match ignores status: a user
// already paired in an active session gets that session back instead of a
// duplicate, since a repeat create is almost always a reconnect.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Session, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", in.UserID)

	existing, err := s.sessions.FindSessionByParticipant(ctx, in.UserID, in.Partner)
	if err == nil {
		log.Info("create: returning existing session", "session_id", existing.ID)
		return existing, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		log.Error("create: participant lookup failed", "error", err)
		return nil, err
	}

	session := &domain.Session{
		ID:           domain.SessionID(uuid.NewString()),
		Participants: []domain.UserID{in.UserID},
		Status:       domain.StatusWaiting,
		CreatedAt:    s.now(),
	}

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		log.Error("create: insert failed", "error", err)
		return nil, err
	}

	log.Info("session created", "session_id", session.ID)
	return session, nil
}

type JoinInput struct {
	UserID  domain.UserID
	Partner domain.UserID
}

// Join finds the waiting session whose participant list is exactly
// [partner] and atomically activates it with the joiner appended. When no
// such session exists, domain.ErrNoWaitingSession is returned and nothing
// is mutated; the caller may retry with a corrected partner id.
func (s *Service) Join(ctx context.Context, in JoinInput) (*domain.Session, error) {
	log := observability.LoggerFromContext(ctx).With(
		"user_id", in.UserID,
		"partner_id", in.Partner,
	)

	session, err := s.sessions.JoinWaitingSession(ctx, in.Partner, in.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNoWaitingSession) {
			log.Info("join: no waiting session for partner")
		} else {
			log.Error("join failed", "error", err)
		}
		return nil, err
	}

	log.Info("session joined", "session_id", session.ID)
	return session, nil
}

// Get returns a session by id.
func (s *Service) Get(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	return s.sessions.GetSession(ctx, id)
}
