package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jothelearningguy/alignus/internal/domain"
)

var errSessionExists = errors.New("session already exists")

// Store is an in-memory implementation of every storage port, including the
// realtime watchers. One struct implements all interfaces, mirroring the
// firestore adapter. Not persistent; development and tests only.
type Store struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*domain.Session
	messages map[domain.SessionID][]*domain.Message
	goals    map[domain.SessionID][]*domain.Goal

	sessionSubs map[domain.SessionID][]chan *domain.Session
	messageSubs map[domain.SessionID][]chan []*domain.Message

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions:    make(map[domain.SessionID]*domain.Session),
		messages:    make(map[domain.SessionID][]*domain.Message),
		goals:       make(map[domain.SessionID][]*domain.Goal),
		sessionSubs: make(map[domain.SessionID][]chan *domain.Session),
		messageSubs: make(map[domain.SessionID][]chan []*domain.Message),
		now:         time.Now,
	}
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	if _, exists := s.sessions[session.ID]; exists {
		s.mu.Unlock()
		return errSessionExists
	}
	stored := cloneSession(session)
	s.sessions[session.ID] = stored
	s.notifySession(session.ID, cloneSession(stored))
	s.mu.Unlock()
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(sess), nil
}

func (s *Store) FindSessionByParticipant(ctx context.Context, user, partner domain.UserID) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.Session
	for _, sess := range s.sessions {
		if !sess.HasParticipant(user) {
			continue
		}
		if partner != "" && !sess.HasParticipant(partner) {
			continue
		}
		if best == nil || sess.CreatedAt.Before(best.CreatedAt) {
			best = sess
		}
	}
	if best == nil {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(best), nil
}

func (s *Store) JoinWaitingSession(ctx context.Context, partner, joiner domain.UserID) (*domain.Session, error) {
	s.mu.Lock()

	var target *domain.Session
	for _, sess := range s.sessions {
		if sess.Status == domain.StatusWaiting &&
			len(sess.Participants) == 1 &&
			sess.Participants[0] == partner {
			target = sess
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return nil, domain.ErrNoWaitingSession
	}

	target.Participants = []domain.UserID{partner, joiner}
	target.Status = domain.StatusActive

	snap := cloneSession(target)
	s.notifySession(target.ID, cloneSession(target))
	s.mu.Unlock()
	return snap, nil
}

func (s *Store) ClearCooldown(ctx context.Context, id domain.SessionID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		// Clearing a vanished session is a no-op; the write is idempotent.
		return nil
	}
	sess.CooldownUntil = nil
	s.notifySession(id, cloneSession(sess))
	s.mu.Unlock()
	return nil
}

// DeleteSession simulates the external deletion event: watchers observe a
// nil snapshot and collapse their local state.
func (s *Store) DeleteSession(ctx context.Context, id domain.SessionID) error {
	s.mu.Lock()
	delete(s.sessions, id)
	delete(s.messages, id)
	delete(s.goals, id)
	s.notifySession(id, nil)
	s.mu.Unlock()
	return nil
}

func cloneSession(sess *domain.Session) *domain.Session {
	if sess == nil {
		return nil
	}
	out := *sess
	out.Participants = append([]domain.UserID(nil), sess.Participants...)
	if sess.CooldownUntil != nil {
		t := *sess.CooldownUntil
		out.CooldownUntil = &t
	}
	return &out
}
