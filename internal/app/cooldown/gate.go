package cooldown

import (
	"context"
	"sync"
	"time"

	"github.com/jothelearningguy/alignus/internal/domain"
	"github.com/jothelearningguy/alignus/internal/observability"
)

// Remaining returns the whole seconds left until the expiry, rounded up
// and clamped to zero. A nil expiry means no cool-down.
func Remaining(until *time.Time, now time.Time) int {
	if until == nil {
		return 0
	}
	left := until.Sub(now)
	if left <= 0 {
		return 0
	}
	secs := int((left + time.Second - 1) / time.Second)
	return secs
}

// Gate tracks cool-down state for observed sessions and resets the stored
// expiry once it lapses. Cool-down blocks composition for the whole session,
// not just one participant.
type Gate struct {
	sessions domain.SessionStore
	now      func() time.Time

	mu      sync.Mutex
	cleared map[domain.SessionID]time.Time // last expiry value already cleared
}

func NewGate(sessions domain.SessionStore) *Gate {
	return &Gate{
		sessions: sessions,
		now:      time.Now,
		cleared:  make(map[domain.SessionID]time.Time),
	}
}

// Observe reports the remaining seconds for the session's cool-down and,
// on the transition to zero, issues exactly one clearing write per distinct
// expiry value. The clear is idempotent on the store side, so a concurrent
// clear from the partner's client is harmless.
func (g *Gate) Observe(ctx context.Context, session *domain.Session) int {
	if session == nil || session.CooldownUntil == nil {
		return 0
	}

	left := Remaining(session.CooldownUntil, g.now())
	if left > 0 {
		return left
	}

	g.mu.Lock()
	already := g.cleared[session.ID].Equal(*session.CooldownUntil)
	if !already {
		g.cleared[session.ID] = *session.CooldownUntil
	}
	g.mu.Unlock()

	if !already {
		if err := g.sessions.ClearCooldown(ctx, session.ID); err != nil {
			observability.LoggerFromContext(ctx).Error("failed to clear cool-down",
				"session_id", session.ID, "error", err)
			// Let a later observation retry the write.
			g.mu.Lock()
			delete(g.cleared, session.ID)
			g.mu.Unlock()
		}
	}
	return 0
}

// Blocked reports whether composition is currently locked out.
func (g *Gate) Blocked(session *domain.Session) bool {
	return Remaining(session.CooldownUntil, g.now()) > 0
}
