package memory

import (
	"context"

	"github.com/jothelearningguy/alignus/internal/domain"
)

// Watch channels are buffered with capacity one and coalesce: a slow
// consumer sees the latest snapshot, not every intermediate one. That
// matches the snapshot (not event-log) contract of the ports.
//
// Notification and unsubscribe both run under the store mutex, so a send
// can never race a close. Sends are non-blocking (drop-and-replace), so
// holding the lock while notifying is bounded.

// WatchSession implements domain.SessionWatcher. The current snapshot is
// delivered immediately; the channel closes when ctx is cancelled.
func (s *Store) WatchSession(ctx context.Context, id domain.SessionID) (<-chan *domain.Session, error) {
	ch := make(chan *domain.Session, 1)

	s.mu.Lock()
	s.sessionSubs[id] = append(s.sessionSubs[id], ch)
	if snap := cloneSession(s.sessions[id]); snap != nil {
		ch <- snap
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		s.sessionSubs[id] = removeSessionSub(s.sessionSubs[id], ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch, nil
}

// WatchMessages implements domain.MessageWatcher.
func (s *Store) WatchMessages(ctx context.Context, sessionID domain.SessionID) (<-chan []*domain.Message, error) {
	ch := make(chan []*domain.Message, 1)

	s.mu.Lock()
	s.messageSubs[sessionID] = append(s.messageSubs[sessionID], ch)
	ch <- s.snapshotMessages(sessionID)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		s.messageSubs[sessionID] = removeMessageSub(s.messageSubs[sessionID], ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch, nil
}

// notifySession must be called with the lock held.
func (s *Store) notifySession(id domain.SessionID, snap *domain.Session) {
	for _, ch := range s.sessionSubs[id] {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// notifyMessages must be called with the lock held.
func (s *Store) notifyMessages(sessionID domain.SessionID) {
	snap := s.snapshotMessages(sessionID)
	for _, ch := range s.messageSubs[sessionID] {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func removeSessionSub(subs []chan *domain.Session, ch chan *domain.Session) []chan *domain.Session {
	for i, c := range subs {
		if c == ch {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}

func removeMessageSub(subs []chan []*domain.Message, ch chan []*domain.Message) []chan []*domain.Message {
	for i, c := range subs {
		if c == ch {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}
