package memory

import (
	"context"
	"time"

	"github.com/jothelearningguy/alignus/internal/domain"
)

// AppendMessage stores a message. The creation timestamp is store-assigned
// and strictly monotonic per session, matching the contract the turn and
// exchange logic depends on.
func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) error {
	s.mu.Lock()
	stored := cloneMessage(msg)
	stored.CreatedAt = s.nextStamp(msg.SessionID)
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], stored)
	msg.CreatedAt = stored.CreatedAt
	s.notifyMessages(msg.SessionID)
	s.mu.Unlock()
	return nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID domain.SessionID) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotMessages(sessionID), nil
}

// CommitAnalysis applies one exchange's side effects under the store lock,
// which is this adapter's notion of an atomic batch. The commit is
// conditional on the source messages being unanalyzed.
func (s *Store) CommitAnalysis(ctx context.Context, batch domain.AnalysisBatch) error {
	s.mu.Lock()

	msgs := s.messages[batch.SessionID]
	targets := make([]*domain.Message, 0, len(batch.MarkAnalyzed))
	for _, id := range batch.MarkAnalyzed {
		var found *domain.Message
		for _, m := range msgs {
			if m.ID == id {
				found = m
				break
			}
		}
		if found == nil {
			s.mu.Unlock()
			return domain.ErrSessionNotFound
		}
		if found.Analyzed {
			s.mu.Unlock()
			return domain.ErrExchangeAnalyzed
		}
		targets = append(targets, found)
	}

	for _, m := range targets {
		m.Analyzed = true
	}

	inserted := cloneMessage(batch.Insert)
	inserted.CreatedAt = s.nextStamp(batch.SessionID)
	s.messages[batch.SessionID] = append(s.messages[batch.SessionID], inserted)

	if batch.CooldownUntil != nil {
		if sess, ok := s.sessions[batch.SessionID]; ok {
			t := *batch.CooldownUntil
			sess.CooldownUntil = &t
			s.notifySession(batch.SessionID, cloneSession(sess))
		}
	}

	s.notifyMessages(batch.SessionID)
	s.mu.Unlock()
	return nil
}

// nextStamp must be called with the lock held.
func (s *Store) nextStamp(sessionID domain.SessionID) time.Time {
	now := s.now()
	if msgs := s.messages[sessionID]; len(msgs) > 0 {
		last := msgs[len(msgs)-1].CreatedAt
		if !now.After(last) {
			now = last.Add(time.Microsecond)
		}
	}
	return now
}

// snapshotMessages must be called with the lock held.
func (s *Store) snapshotMessages(sessionID domain.SessionID) []*domain.Message {
	msgs := s.messages[sessionID]
	out := make([]*domain.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, cloneMessage(m))
	}
	return out
}

func cloneMessage(msg *domain.Message) *domain.Message {
	if msg == nil {
		return nil
	}
	out := *msg
	if msg.Sentiment != nil {
		v := *msg.Sentiment
		out.Sentiment = &v
	}
	return &out
}
