package domain

// Session represents a shared space between two partners. It is created by
// the first participant (waiting) and becomes active when the partner joins.
type Session struct {
	ID           SessionID
	Participants []UserID // ordered: creator first, joiner second
	Status       SessionStatus
	CreatedAt    Timestamp

	// CooldownUntil, when set, pauses composition for the whole session
	// until the timestamp passes.
	CooldownUntil *Timestamp
}

// HasParticipant reports whether the user belongs to the session.
func (s *Session) HasParticipant(user UserID) bool {
	for _, p := range s.Participants {
		if p == user {
			return true
		}
	}
	return false
}

// Message is any entry in a session timeline: a partner's message or an
// automated counselor analysis.
type Message struct {
	ID        MessageID
	SessionID SessionID
	Author    UserID // a participant id, or CounselorID
	Text      string
	Kind      MessageKind
	CreatedAt Timestamp // store-assigned, orders the timeline

	// Sentiment is the classifier score in [-1, 1], present once scored.
	Sentiment *float64

	// Analyzed marks a user message as consumed by exchange analysis.
	// Meaningful only for KindUser.
	Analyzed bool
}

// SentimentOrNeutral scores an unclassified message as neutral.
func (m *Message) SentimentOrNeutral() float64 {
	if m.Sentiment == nil {
		return 0
	}
	return *m.Sentiment
}

// Goal is a shared to-do item the partners track on their dashboard.
type Goal struct {
	ID        GoalID
	SessionID SessionID
	Text      string
	Completed bool
	CreatedBy UserID
	CreatedAt Timestamp
}
