package cooldown_test

import (
	"context"
	"testing"
	"time"

	"github.com/jothelearningguy/alignus/internal/app/cooldown"
	"github.com/jothelearningguy/alignus/internal/domain"
)

func TestRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		until *time.Time
		want  int
	}{
		{"nil expiry", nil, 0},
		{"already lapsed", ptr(now.Add(-time.Second)), 0},
		{"exactly now", ptr(now), 0},
		{"partial second rounds up", ptr(now.Add(1500 * time.Millisecond)), 2},
		{"whole seconds stay whole", ptr(now.Add(3 * time.Second)), 3},
		{"just over a boundary", ptr(now.Add(3*time.Second + time.Millisecond)), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cooldown.Remaining(tt.until, now); got != tt.want {
				t.Fatalf("Remaining = %d, want %d", got, tt.want)
			}
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }

// countingStore records ClearCooldown calls.
type countingStore struct {
	clears int
}

func (c *countingStore) CreateSession(ctx context.Context, s *domain.Session) error { return nil }
func (c *countingStore) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (c *countingStore) FindSessionByParticipant(ctx context.Context, user, partner domain.UserID) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (c *countingStore) JoinWaitingSession(ctx context.Context, partner, joiner domain.UserID) (*domain.Session, error) {
	return nil, domain.ErrNoWaitingSession
}
func (c *countingStore) ClearCooldown(ctx context.Context, id domain.SessionID) error {
	c.clears++
	return nil
}

func TestObserveClearsLapsedCooldownOnce(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{}
	gate := cooldown.NewGate(store)

	expired := time.Now().Add(-time.Second)
	session := &domain.Session{
		ID:            "s1",
		CooldownUntil: &expired,
	}

	for i := 0; i < 3; i++ {
		if left := gate.Observe(ctx, session); left != 0 {
			t.Fatalf("observation %d: remaining = %d, want 0", i, left)
		}
	}

	if store.clears != 1 {
		t.Fatalf("ClearCooldown called %d times, want exactly 1", store.clears)
	}
}

func TestObserveClearsAgainForNewExpiry(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{}
	gate := cooldown.NewGate(store)

	first := time.Now().Add(-2 * time.Minute)
	gate.Observe(ctx, &domain.Session{ID: "s1", CooldownUntil: &first})

	second := time.Now().Add(-time.Minute)
	gate.Observe(ctx, &domain.Session{ID: "s1", CooldownUntil: &second})

	if store.clears != 2 {
		t.Fatalf("ClearCooldown called %d times, want 2 (one per distinct expiry)", store.clears)
	}
}

func TestObserveActiveCooldownDoesNotClear(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{}
	gate := cooldown.NewGate(store)

	until := time.Now().Add(time.Minute)
	session := &domain.Session{ID: "s1", CooldownUntil: &until}

	if left := gate.Observe(ctx, session); left <= 0 {
		t.Fatalf("remaining = %d, want positive", left)
	}
	if store.clears != 0 {
		t.Fatalf("ClearCooldown called during active cool-down")
	}
	if !gate.Blocked(session) {
		t.Fatalf("Blocked = false during active cool-down")
	}
}
