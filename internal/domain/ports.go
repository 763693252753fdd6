package domain

import "context"

// SentimentClassifier scores a piece of text in [-1, 1]. Implementations
// clamp the score; callers substitute 0 when the call fails.
type SentimentClassifier interface {
	ScoreSentiment(ctx context.Context, text string) (float64, error)
}

// InsightGenerator produces counselor text for the two analysis branches.
// Prompt construction is the implementation's concern; the returned text
// starts with the fixed cool-down or insight phrase.
type InsightGenerator interface {
	// CooldownMessage requests a calming message plus a short breathing
	// exercise for a heated exchange.
	CooldownMessage(ctx context.Context, combinedSentiment float64, cooldownMinutes int) (string, error)

	// ExchangeInsight requests a counseling insight over the two messages
	// of an exchange, optionally recommending a named exercise.
	ExchangeInsight(ctx context.Context, first, second *Message) (string, error)
}

// SessionStore defines session persistence.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id SessionID) (*Session, error)

	// FindSessionByParticipant returns a session containing user. When
	// partner is non-empty the session must contain both. Returns
	// ErrSessionNotFound when none matches.
	FindSessionByParticipant(ctx context.Context, user, partner UserID) (*Session, error)

	// JoinWaitingSession atomically moves the waiting session whose
	// participant list is exactly [partner] to active with participants
	// [partner, joiner]. Returns ErrNoWaitingSession when absent.
	JoinWaitingSession(ctx context.Context, partner, joiner UserID) (*Session, error)

	// ClearCooldown resets the session's cool-down expiry to unset.
	// The write is idempotent.
	ClearCooldown(ctx context.Context, id SessionID) error
}

// MessageStore defines message persistence.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, sessionID SessionID) ([]*Message, error)

	// CommitAnalysis applies one exchange's side effects atomically:
	// both source messages marked analyzed, the analysis message inserted,
	// and the session cool-down expiry set when present. The commit is
	// conditional: ErrExchangeAnalyzed when a source message is already
	// analyzed, with nothing applied.
	CommitAnalysis(ctx context.Context, batch AnalysisBatch) error
}

// GoalStore defines shared-goal persistence.
type GoalStore interface {
	AddGoal(ctx context.Context, goal *Goal) error
	ListGoals(ctx context.Context, sessionID SessionID) ([]*Goal, error)
	SetGoalCompleted(ctx context.Context, sessionID SessionID, id GoalID, completed bool) error
	DeleteGoal(ctx context.Context, sessionID SessionID, id GoalID) error
}

// AnalysisBatch is the atomic write set produced by analyzing one exchange.
type AnalysisBatch struct {
	SessionID SessionID

	// MarkAnalyzed holds the ids of the two exchange messages.
	MarkAnalyzed []MessageID

	// Insert is the counselor analysis message.
	Insert *Message

	// CooldownUntil sets the session expiry on the cool-down branch;
	// nil leaves the session untouched.
	CooldownUntil *Timestamp
}

// SessionWatcher delivers session document snapshots as they change.
// A nil snapshot means the session was deleted. The channel closes when the
// context is cancelled; cancelling is the guaranteed unsubscribe.
type SessionWatcher interface {
	WatchSession(ctx context.Context, id SessionID) (<-chan *Session, error)
}

// MessageWatcher delivers full message-list snapshots as they change.
// Snapshots may arrive out of order relative to CreatedAt; consumers re-sort.
type MessageWatcher interface {
	WatchMessages(ctx context.Context, sessionID SessionID) (<-chan []*Message, error)
}
