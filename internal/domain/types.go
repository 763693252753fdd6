package domain

import "time"

type SessionID string
type UserID string
type MessageID string
type GoalID string

// CounselorID is the sentinel author identity for automated analysis messages.
const CounselorID UserID = "ai-counselor"

// MaxMessageLen caps user-authored message text.
const MaxMessageLen = 200

type MessageKind string

const (
	KindUser     MessageKind = "user"
	KindAnalysis MessageKind = "analysis"
)

type SessionStatus string

const (
	StatusWaiting SessionStatus = "waiting" // one participant, waiting for a partner
	StatusActive  SessionStatus = "active"  // two participants, chat open
)

type Timestamp = time.Time
