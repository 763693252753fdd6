package turns

import (
	"sort"

	"github.com/jothelearningguy/alignus/internal/domain"
)

// SortMessages orders a snapshot by store-assigned creation time.
// Realtime snapshots can arrive out of order, so callers sort before any
// turn or exchange logic runs. The id is the tie-breaker for equal stamps.
func SortMessages(msgs []*domain.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}

// CanCompose computes whether user may send the next message, given the
// sorted history. Rules:
//   - empty history: only the first-listed participant speaks;
//   - last message is a counselor analysis: the turn resets, anyone may
//     speak (including whoever spoke before the analysis);
//   - last message is a user message: anyone except its author.
//
// Sessions with fewer than two participants never reach the chat view, so
// that case is the lifecycle manager's to enforce, not this function's.
func CanCompose(session *domain.Session, history []*domain.Message, user domain.UserID) bool {
	if len(history) == 0 {
		return len(session.Participants) > 0 && session.Participants[0] == user
	}

	last := history[len(history)-1]
	if last.Kind != domain.KindUser {
		return true
	}
	return last.Author != user
}

// Latest returns the most recent message of the sorted history, or nil.
func Latest(history []*domain.Message) *domain.Message {
	if len(history) == 0 {
		return nil
	}
	return history[len(history)-1]
}
