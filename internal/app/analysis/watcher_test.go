package analysis_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jothelearningguy/alignus/internal/adapters/llm"
	"github.com/jothelearningguy/alignus/internal/adapters/storage/memory"
	"github.com/jothelearningguy/alignus/internal/app/analysis"
	"github.com/jothelearningguy/alignus/internal/app/cooldown"
	"github.com/jothelearningguy/alignus/internal/domain"
)

func newSupervisor(t *testing.T, store *memory.Store) *analysis.Supervisor {
	t.Helper()

	analyzer := analysis.NewAnalyzer(llm.NewMockLLM(), store, -0.5, 5*time.Minute)
	gate := cooldown.NewGate(store)
	watcher := analysis.NewWatcher(store, store, store, analyzer, gate)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sup := analysis.NewSupervisor(ctx, watcher)
	t.Cleanup(sup.Close)
	return sup
}

func waitForMessages(t *testing.T, store *memory.Store, sessionID domain.SessionID, want int) []*domain.Message {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		msgs, err := store.ListMessages(context.Background(), sessionID)
		if err != nil {
			t.Fatalf("ListMessages failed: %v", err)
		}
		if len(msgs) >= want {
			return msgs
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d messages", want)
	return nil
}

func TestWatcherAnalyzesExchange(t *testing.T) {
	store := memory.NewStore()
	session := newActiveSession(t, store)

	sup := newSupervisor(t, store)
	sup.Ensure(session.ID)

	appendScored(t, store, "m1", alice, 0.5)
	appendScored(t, store, "m2", bob, 0.25)

	msgs := waitForMessages(t, store, session.ID, 3)

	var inserted *domain.Message
	for _, m := range msgs {
		if m.Kind == domain.KindAnalysis {
			inserted = m
		}
	}
	if inserted == nil {
		t.Fatalf("no analysis message produced")
	}
	if !strings.HasPrefix(inserted.Text, llm.InsightPrefix) {
		t.Fatalf("analysis text %q missing prefix %q", inserted.Text, llm.InsightPrefix)
	}
}

func TestWatcherTriggersCooldownOnHostileExchange(t *testing.T) {
	store := memory.NewStore()
	session := newActiveSession(t, store)

	sup := newSupervisor(t, store)
	sup.Ensure(session.ID)

	appendScored(t, store, "m1", alice, -0.8)
	appendScored(t, store, "m2", bob, -0.6)

	waitForMessages(t, store, session.ID, 3)

	got, err := store.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.CooldownUntil == nil {
		t.Fatalf("hostile exchange did not set a cool-down")
	}
}

func TestWatcherStopsWhenSessionDeleted(t *testing.T) {
	store := memory.NewStore()
	session := newActiveSession(t, store)

	sup := newSupervisor(t, store)
	sup.Ensure(session.ID)

	if err := store.DeleteSession(context.Background(), session.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	// Close waits for every watcher goroutine; a watcher that ignored the
	// deletion would hang here past the test timeout. Give the nil snapshot
	// a moment to be observed first.
	time.Sleep(50 * time.Millisecond)
	sup.Stop(session.ID)
	sup.Close()
}

func TestSupervisorEnsureIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	session := newActiveSession(t, store)

	sup := newSupervisor(t, store)
	sup.Ensure(session.ID)
	sup.Ensure(session.ID)
	sup.Ensure(session.ID)

	appendScored(t, store, "m1", alice, 0.5)
	appendScored(t, store, "m2", bob, 0.25)

	// Give any duplicate watcher time to double-commit, then verify the
	// exchange produced exactly one analysis message.
	waitForMessages(t, store, session.ID, 3)
	time.Sleep(100 * time.Millisecond)

	msgs, _ := store.ListMessages(context.Background(), session.ID)
	count := 0
	for _, m := range msgs {
		if m.Kind == domain.KindAnalysis {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one analysis message, got %d", count)
	}
}
