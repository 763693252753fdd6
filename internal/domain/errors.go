package domain

import "errors"

var (
	// ErrSessionNotFound is returned for point reads of unknown sessions.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoWaitingSession is returned when a join finds no waiting session
	// for the given partner. Nothing is mutated.
	ErrNoWaitingSession = errors.New("no waiting session for partner")

	// ErrNotYourTurn rejects a message sent out of turn.
	ErrNotYourTurn = errors.New("not your turn")

	// ErrCooldownActive rejects composition while the session is cooling down.
	ErrCooldownActive = errors.New("cool-down period active")

	// ErrMessageTooLong rejects user text over MaxMessageLen characters.
	ErrMessageTooLong = errors.New("message too long")

	// ErrEmptyMessage rejects blank user text.
	ErrEmptyMessage = errors.New("message text is empty")

	// ErrSessionNotActive rejects chat operations on a session that does not
	// have two participants yet.
	ErrSessionNotActive = errors.New("session is not active")

	// ErrExchangeAnalyzed is returned by a conditional analysis commit when
	// another client already analyzed the same exchange. Callers treat it as
	// a benignly lost race.
	ErrExchangeAnalyzed = errors.New("exchange already analyzed")

	// ErrGoalNotFound is returned for operations on unknown goals.
	ErrGoalNotFound = errors.New("goal not found")
)
