package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jothelearningguy/alignus/internal/adapters/storage/memory"
	"github.com/jothelearningguy/alignus/internal/domain"
)

func seedSession(t *testing.T, store *memory.Store, id domain.SessionID, status domain.SessionStatus, participants ...domain.UserID) {
	t.Helper()

	err := store.CreateSession(context.Background(), &domain.Session{
		ID:           id,
		Participants: participants,
		Status:       status,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
}

func TestJoinWaitingSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSession(t, store, "s1", domain.StatusWaiting, "alice")

	joined, err := store.JoinWaitingSession(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("JoinWaitingSession failed: %v", err)
	}
	if joined.Status != domain.StatusActive {
		t.Fatalf("status = %s, want active", joined.Status)
	}
	if len(joined.Participants) != 2 || joined.Participants[1] != "bob" {
		t.Fatalf("participants = %v", joined.Participants)
	}

	// Only one waiting slot per creator: a second joiner misses.
	if _, err := store.JoinWaitingSession(ctx, "alice", "carol"); !errors.Is(err, domain.ErrNoWaitingSession) {
		t.Fatalf("err = %v, want ErrNoWaitingSession", err)
	}
}

func TestFindSessionByParticipant(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSession(t, store, "s1", domain.StatusActive, "alice", "bob")
	seedSession(t, store, "s2", domain.StatusWaiting, "carol")

	found, err := store.FindSessionByParticipant(ctx, "bob", "")
	if err != nil {
		t.Fatalf("FindSessionByParticipant failed: %v", err)
	}
	if found.ID != "s1" {
		t.Fatalf("found %s, want s1", found.ID)
	}

	// Partner filter excludes sessions without both members.
	if _, err := store.FindSessionByParticipant(ctx, "alice", "carol"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestAppendMessageAssignsMonotonicStamps(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSession(t, store, "s1", domain.StatusActive, "alice", "bob")

	var prev time.Time
	for i, id := range []domain.MessageID{"m1", "m2", "m3"} {
		msg := &domain.Message{ID: id, SessionID: "s1", Author: "alice", Kind: domain.KindUser}
		if err := store.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
		if i > 0 && !msg.CreatedAt.After(prev) {
			t.Fatalf("stamp %v not after previous %v", msg.CreatedAt, prev)
		}
		prev = msg.CreatedAt
	}
}

func TestCommitAnalysisIsConditional(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSession(t, store, "s1", domain.StatusActive, "alice", "bob")

	for _, id := range []domain.MessageID{"m1", "m2"} {
		if err := store.AppendMessage(ctx, &domain.Message{
			ID: id, SessionID: "s1", Author: "alice", Kind: domain.KindUser,
		}); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	score := 0.25
	batch := domain.AnalysisBatch{
		SessionID:    "s1",
		MarkAnalyzed: []domain.MessageID{"m1", "m2"},
		Insert: &domain.Message{
			ID:        "a1",
			SessionID: "s1",
			Author:    domain.CounselorID,
			Kind:      domain.KindAnalysis,
			Sentiment: &score,
		},
	}

	if err := store.CommitAnalysis(ctx, batch); err != nil {
		t.Fatalf("first commit failed: %v", err)
	}

	batch.Insert = &domain.Message{ID: "a2", SessionID: "s1", Author: domain.CounselorID, Kind: domain.KindAnalysis}
	if err := store.CommitAnalysis(ctx, batch); !errors.Is(err, domain.ErrExchangeAnalyzed) {
		t.Fatalf("err = %v, want ErrExchangeAnalyzed", err)
	}

	msgs, _ := store.ListMessages(ctx, "s1")
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3 (duplicate rejected)", len(msgs))
	}
}

func TestCommitAnalysisSetsCooldown(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSession(t, store, "s1", domain.StatusActive, "alice", "bob")

	for _, id := range []domain.MessageID{"m1", "m2"} {
		if err := store.AppendMessage(ctx, &domain.Message{
			ID: id, SessionID: "s1", Author: "alice", Kind: domain.KindUser,
		}); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	until := time.Now().Add(5 * time.Minute)
	err := store.CommitAnalysis(ctx, domain.AnalysisBatch{
		SessionID:     "s1",
		MarkAnalyzed:  []domain.MessageID{"m1", "m2"},
		Insert:        &domain.Message{ID: "a1", SessionID: "s1", Author: domain.CounselorID, Kind: domain.KindAnalysis},
		CooldownUntil: &until,
	})
	if err != nil {
		t.Fatalf("CommitAnalysis failed: %v", err)
	}

	got, _ := store.GetSession(ctx, "s1")
	if got.CooldownUntil == nil || !got.CooldownUntil.Equal(until) {
		t.Fatalf("cooldown = %v, want %v", got.CooldownUntil, until)
	}

	if err := store.ClearCooldown(ctx, "s1"); err != nil {
		t.Fatalf("ClearCooldown failed: %v", err)
	}
	got, _ = store.GetSession(ctx, "s1")
	if got.CooldownUntil != nil {
		t.Fatalf("cooldown still set after clear")
	}
}

func TestWatchSessionDeliversSnapshots(t *testing.T) {
	store := memory.NewStore()
	seedSession(t, store, "s1", domain.StatusWaiting, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.WatchSession(ctx, "s1")
	if err != nil {
		t.Fatalf("WatchSession failed: %v", err)
	}

	// Initial snapshot.
	select {
	case snap := <-ch:
		if snap == nil || snap.Status != domain.StatusWaiting {
			t.Fatalf("unexpected initial snapshot: %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatalf("no initial snapshot")
	}

	if _, err := store.JoinWaitingSession(ctx, "alice", "bob"); err != nil {
		t.Fatalf("JoinWaitingSession failed: %v", err)
	}

	select {
	case snap := <-ch:
		if snap == nil || snap.Status != domain.StatusActive {
			t.Fatalf("unexpected snapshot after join: %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatalf("no snapshot after join")
	}
}

func TestWatchSessionNilOnDelete(t *testing.T) {
	store := memory.NewStore()
	seedSession(t, store, "s1", domain.StatusWaiting, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.WatchSession(ctx, "s1")
	if err != nil {
		t.Fatalf("WatchSession failed: %v", err)
	}
	<-ch // initial snapshot

	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	select {
	case snap := <-ch:
		if snap != nil {
			t.Fatalf("expected nil snapshot on deletion, got %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatalf("no deletion snapshot")
	}
}

func TestWatchChannelClosesOnCancel(t *testing.T) {
	store := memory.NewStore()
	seedSession(t, store, "s1", domain.StatusWaiting, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := store.WatchMessages(ctx, "s1")
	if err != nil {
		t.Fatalf("WatchMessages failed: %v", err)
	}
	<-ch // initial snapshot

	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("channel not closed after cancel")
		}
	}
}

func TestWatchMessagesCoalesces(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedSession(t, store, "s1", domain.StatusActive, "alice", "bob")

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := store.WatchMessages(wctx, "s1")
	if err != nil {
		t.Fatalf("WatchMessages failed: %v", err)
	}
	<-ch // initial snapshot

	// Nobody draining: later snapshots replace earlier ones.
	for _, id := range []domain.MessageID{"m1", "m2", "m3"} {
		if err := store.AppendMessage(ctx, &domain.Message{
			ID: id, SessionID: "s1", Author: "alice", Kind: domain.KindUser,
		}); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	select {
	case msgs := <-ch:
		if len(msgs) != 3 {
			t.Fatalf("coalesced snapshot has %d messages, want the latest 3", len(msgs))
		}
	case <-time.After(time.Second):
		t.Fatalf("no snapshot delivered")
	}
}
