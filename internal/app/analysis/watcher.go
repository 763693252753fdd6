package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/jothelearningguy/alignus/internal/app/cooldown"
	"github.com/jothelearningguy/alignus/internal/app/turns"
	"github.com/jothelearningguy/alignus/internal/domain"
	"github.com/jothelearningguy/alignus/internal/observability"
)

// Watcher drives one session reactively: it subscribes to the session
// document and its message collection, re-sorts incoming snapshots, feeds
// them to the analyzer, and lets the cool-down gate reset lapsed expiries.
// Cancelling the context is the guaranteed unsubscribe.
type Watcher struct {
	sessions    domain.SessionStore
	sessionFeed domain.SessionWatcher
	messageFeed domain.MessageWatcher
	analyzer    *Analyzer
	gate        *cooldown.Gate
}

func NewWatcher(
	sessions domain.SessionStore,
	sessionFeed domain.SessionWatcher,
	messageFeed domain.MessageWatcher,
	analyzer *Analyzer,
	gate *cooldown.Gate,
) *Watcher {
	return &Watcher{
		sessions:    sessions,
		sessionFeed: sessionFeed,
		messageFeed: messageFeed,
		analyzer:    analyzer,
		gate:        gate,
	}
}

// Run blocks until the context is cancelled or the session is deleted.
// Each notification is handled to completion before the next is taken.
func (w *Watcher) Run(ctx context.Context, sessionID domain.SessionID) error {
	log := observability.LoggerFromContext(ctx).With("session_id", sessionID)

	sessCh, err := w.sessionFeed.WatchSession(ctx, sessionID)
	if err != nil {
		return err
	}
	msgCh, err := w.messageFeed.WatchMessages(ctx, sessionID)
	if err != nil {
		return err
	}

	session, err := w.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	// recheck fires once the current cool-down lapses so the clearing
	// write happens without waiting for another store event.
	recheck := time.NewTimer(0)
	if !recheck.Stop() {
		<-recheck.C
	}
	defer recheck.Stop()

	armRecheck := func() {
		if session == nil || session.CooldownUntil == nil {
			return
		}
		left := cooldown.Remaining(session.CooldownUntil, time.Now())
		recheck.Reset(time.Duration(left)*time.Second + 50*time.Millisecond)
	}

	w.gate.Observe(ctx, session)
	armRecheck()

	log.Info("session watcher started")

	for {
		select {
		case <-ctx.Done():
			log.Info("session watcher stopped")
			return nil

		case s, ok := <-sessCh:
			if !ok {
				return nil
			}
			if s == nil {
				// Session deleted externally; local state collapses to none.
				log.Info("session deleted, stopping watcher")
				return nil
			}
			session = s
			w.gate.Observe(ctx, session)
			armRecheck()

		case <-recheck.C:
			w.gate.Observe(ctx, session)

		case msgs, ok := <-msgCh:
			if !ok {
				return nil
			}
			turns.SortMessages(msgs)
			ex, eligible := DetectExchange(msgs)
			if !eligible || session == nil || session.Status != domain.StatusActive {
				continue
			}
			if err := w.analyzer.Analyze(ctx, session, ex); err != nil {
				// Logged inside; the exchange stays unanalyzed and the
				// next snapshot retries it.
				continue
			}
		}
	}
}

// Supervisor keeps at most one running watcher per session. Watchers live
// on the supervisor's base context, not on whatever request context asked
// for them.
type Supervisor struct {
	baseCtx context.Context
	watcher *Watcher

	mu      sync.Mutex
	cancels map[domain.SessionID]context.CancelFunc
	wg      sync.WaitGroup
}

func NewSupervisor(baseCtx context.Context, watcher *Watcher) *Supervisor {
	return &Supervisor{
		baseCtx: baseCtx,
		watcher: watcher,
		cancels: make(map[domain.SessionID]context.CancelFunc),
	}
}

// Ensure starts a watcher for the session unless one is already running.
func (s *Supervisor) Ensure(sessionID domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, running := s.cancels[sessionID]; running {
		return
	}

	wctx, cancel := context.WithCancel(s.baseCtx)
	s.cancels[sessionID] = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(sessionID)
		if err := s.watcher.Run(wctx, sessionID); err != nil {
			observability.Logger().Error("session watcher exited",
				"session_id", sessionID, "error", err)
		}
	}()
}

// Stop cancels the watcher for one session, if running.
func (s *Supervisor) Stop(sessionID domain.SessionID) {
	s.mu.Lock()
	cancel := s.cancels[sessionID]
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close cancels every watcher and waits for them to unwind.
func (s *Supervisor) Close() {
	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Supervisor) release(sessionID domain.SessionID) {
	s.mu.Lock()
	if cancel, ok := s.cancels[sessionID]; ok {
		cancel()
		delete(s.cancels, sessionID)
	}
	s.mu.Unlock()
}
