package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jothelearningguy/alignus/internal/domain"
	"github.com/jothelearningguy/alignus/internal/observability"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (ALIGNUS_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection("sessions")
}

func (s *Store) sessionDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

func (s *Store) messagesCol(sessionID domain.SessionID) *firestore.CollectionRef {
	return s.sessionDoc(sessionID).Collection("messages")
}

func (s *Store) messageDoc(sessionID domain.SessionID, msgID domain.MessageID) *firestore.DocumentRef {
	return s.messagesCol(sessionID).Doc(string(msgID))
}

func (s *Store) goalsCol(sessionID domain.SessionID) *firestore.CollectionRef {
	return s.sessionDoc(sessionID).Collection("goals")
}

func (s *Store) goalDoc(sessionID domain.SessionID, goalID domain.GoalID) *firestore.DocumentRef {
	return s.goalsCol(sessionID).Doc(string(goalID))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type sessionDoc struct {
	Participants  []string   `firestore:"participants"`
	Status        string     `firestore:"status"`
	CreatedAt     time.Time  `firestore:"created_at"`
	CooldownUntil *time.Time `firestore:"cooldown_until"`
}

type messageDoc struct {
	Text      string    `firestore:"text"`
	Author    string    `firestore:"author"`
	Kind      string    `firestore:"kind"`
	CreatedAt time.Time `firestore:"created_at,serverTimestamp"`
	Sentiment *float64  `firestore:"sentiment"`
	Analyzed  bool      `firestore:"analyzed"`
}

type goalDoc struct {
	Text      string    `firestore:"text"`
	Completed bool      `firestore:"completed"`
	CreatedBy string    `firestore:"created_by"`
	CreatedAt time.Time `firestore:"created_at,serverTimestamp"`
}

func toSessionDoc(session *domain.Session) sessionDoc {
	participants := make([]string, 0, len(session.Participants))
	for _, p := range session.Participants {
		participants = append(participants, string(p))
	}
	return sessionDoc{
		Participants:  participants,
		Status:        string(session.Status),
		CreatedAt:     session.CreatedAt,
		CooldownUntil: session.CooldownUntil,
	}
}

func fromSessionSnap(snap *firestore.DocumentSnapshot) (*domain.Session, error) {
	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode sessionDoc: %w", err)
	}

	participants := make([]domain.UserID, 0, len(doc.Participants))
	for _, p := range doc.Participants {
		participants = append(participants, domain.UserID(p))
	}

	return &domain.Session{
		ID:            domain.SessionID(snap.Ref.ID),
		Participants:  participants,
		Status:        domain.SessionStatus(doc.Status),
		CreatedAt:     doc.CreatedAt,
		CooldownUntil: doc.CooldownUntil,
	}, nil
}

func fromMessageSnap(sessionID domain.SessionID, snap *firestore.DocumentSnapshot) (*domain.Message, error) {
	var doc messageDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode messageDoc: %w", err)
	}

	return &domain.Message{
		ID:        domain.MessageID(snap.Ref.ID),
		SessionID: sessionID,
		Author:    domain.UserID(doc.Author),
		Text:      doc.Text,
		Kind:      domain.MessageKind(doc.Kind),
		CreatedAt: doc.CreatedAt,
		Sentiment: doc.Sentiment,
		Analyzed:  doc.Analyzed,
	}, nil
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	if _, err := s.sessionDoc(session.ID).Create(ctx, toSessionDoc(session)); err != nil {
		return fmt.Errorf("firestore CreateSession: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	snap, err := s.sessionDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("firestore GetSession: %w", err)
	}
	return fromSessionSnap(snap)
}

func (s *Store) FindSessionByParticipant(ctx context.Context, user, partner domain.UserID) (*domain.Session, error) {
	q := s.sessionsCol().Where("participants", "array-contains", string(user))

	iter := q.Documents(ctx)
	defer iter.Stop()

	var best *domain.Session
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore FindSessionByParticipant: %w", err)
		}

		sess, err := fromSessionSnap(snap)
		if err != nil {
			return nil, err
		}
		if partner != "" && !sess.HasParticipant(partner) {
			continue
		}
		if best == nil || sess.CreatedAt.Before(best.CreatedAt) {
			best = sess
		}
	}

	if best == nil {
		return nil, domain.ErrSessionNotFound
	}
	return best, nil
}

// JoinWaitingSession finds the waiting session for the partner and flips it
// to active inside a transaction, so two joiners cannot both claim it.
func (s *Store) JoinWaitingSession(ctx context.Context, partner, joiner domain.UserID) (*domain.Session, error) {
	q := s.sessionsCol().
		Where("participants", "==", []string{string(partner)}).
		Where("status", "==", string(domain.StatusWaiting)).
		Limit(1)

	iter := q.Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, domain.ErrNoWaitingSession
		}
		return nil, fmt.Errorf("firestore JoinWaitingSession query: %w", err)
	}

	ref := snap.Ref
	var joined *domain.Session

	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		cur, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return domain.ErrNoWaitingSession
			}
			return err
		}

		sess, err := fromSessionSnap(cur)
		if err != nil {
			return err
		}
		// Re-check inside the transaction: someone may have joined first.
		if sess.Status != domain.StatusWaiting ||
			len(sess.Participants) != 1 ||
			sess.Participants[0] != partner {
			return domain.ErrNoWaitingSession
		}

		if err := tx.Update(ref, []firestore.Update{
			{Path: "participants", Value: []string{string(partner), string(joiner)}},
			{Path: "status", Value: string(domain.StatusActive)},
		}); err != nil {
			return err
		}

		sess.Participants = []domain.UserID{partner, joiner}
		sess.Status = domain.StatusActive
		joined = sess
		return nil
	})
	if err != nil {
		if err == domain.ErrNoWaitingSession {
			return nil, err
		}
		return nil, fmt.Errorf("firestore JoinWaitingSession: %w", err)
	}

	return joined, nil
}

func (s *Store) ClearCooldown(ctx context.Context, id domain.SessionID) error {
	_, err := s.sessionDoc(id).Update(ctx, []firestore.Update{
		{Path: "cooldown_until", Value: nil},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			// Session deleted; nothing left to clear.
			return nil
		}
		return fmt.Errorf("firestore ClearCooldown: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) error {
	doc := messageDoc{
		Text:      msg.Text,
		Author:    string(msg.Author),
		Kind:      string(msg.Kind),
		Sentiment: msg.Sentiment,
		Analyzed:  msg.Analyzed,
	}

	// created_at carries the serverTimestamp option: the store assigns the
	// stamp, which is what keeps per-session ordering trustworthy.
	if _, err := s.messageDoc(msg.SessionID, msg.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID domain.SessionID) ([]*domain.Message, error) {
	iter := s.messagesCol(sessionID).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*domain.Message
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListMessages: %w", err)
		}

		msg, err := fromMessageSnap(sessionID, snap)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// CommitAnalysis applies one exchange's writes in a transaction. The reads
// make the commit conditional: when another client already marked a source
// message analyzed, the whole batch aborts with domain.ErrExchangeAnalyzed
// and nothing is applied.
func (s *Store) CommitAnalysis(ctx context.Context, batch domain.AnalysisBatch) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		refs := make([]*firestore.DocumentRef, 0, len(batch.MarkAnalyzed))
		for _, id := range batch.MarkAnalyzed {
			ref := s.messageDoc(batch.SessionID, id)
			snap, err := tx.Get(ref)
			if err != nil {
				return err
			}
			var doc messageDoc
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("decode messageDoc: %w", err)
			}
			if doc.Analyzed {
				return domain.ErrExchangeAnalyzed
			}
			refs = append(refs, ref)
		}

		for _, ref := range refs {
			if err := tx.Update(ref, []firestore.Update{
				{Path: "analyzed", Value: true},
			}); err != nil {
				return err
			}
		}

		insert := messageDoc{
			Text:      batch.Insert.Text,
			Author:    string(batch.Insert.Author),
			Kind:      string(batch.Insert.Kind),
			Sentiment: batch.Insert.Sentiment,
		}
		if err := tx.Create(s.messageDoc(batch.SessionID, batch.Insert.ID), insert); err != nil {
			return err
		}

		if batch.CooldownUntil != nil {
			if err := tx.Update(s.sessionDoc(batch.SessionID), []firestore.Update{
				{Path: "cooldown_until", Value: *batch.CooldownUntil},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if err == domain.ErrExchangeAnalyzed {
			return err
		}
		return fmt.Errorf("firestore CommitAnalysis: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// GoalStore implementation
// ─────────────────────────────────────────

func (s *Store) AddGoal(ctx context.Context, goal *domain.Goal) error {
	doc := goalDoc{
		Text:      goal.Text,
		Completed: goal.Completed,
		CreatedBy: string(goal.CreatedBy),
	}
	if _, err := s.goalDoc(goal.SessionID, goal.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore AddGoal: %w", err)
	}
	return nil
}

func (s *Store) ListGoals(ctx context.Context, sessionID domain.SessionID) ([]*domain.Goal, error) {
	iter := s.goalsCol(sessionID).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*domain.Goal
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListGoals: %w", err)
		}

		var doc goalDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode goalDoc: %w", err)
		}

		out = append(out, &domain.Goal{
			ID:        domain.GoalID(snap.Ref.ID),
			SessionID: sessionID,
			Text:      doc.Text,
			Completed: doc.Completed,
			CreatedBy: domain.UserID(doc.CreatedBy),
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, nil
}

func (s *Store) SetGoalCompleted(ctx context.Context, sessionID domain.SessionID, id domain.GoalID, completed bool) error {
	_, err := s.goalDoc(sessionID, id).Update(ctx, []firestore.Update{
		{Path: "completed", Value: completed},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrGoalNotFound
		}
		return fmt.Errorf("firestore SetGoalCompleted: %w", err)
	}
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, sessionID domain.SessionID, id domain.GoalID) error {
	if _, err := s.goalDoc(sessionID, id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore DeleteGoal: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// Watchers (realtime snapshot listeners)
// ─────────────────────────────────────────

// WatchSession implements domain.SessionWatcher on a document snapshot
// listener. A deleted document is delivered as a nil snapshot and ends the
// stream; cancelling ctx ends it too and closes the channel.
func (s *Store) WatchSession(ctx context.Context, id domain.SessionID) (<-chan *domain.Session, error) {
	ch := make(chan *domain.Session, 1)

	go func() {
		defer close(ch)

		snaps := s.sessionDoc(id).Snapshots(ctx)
		defer snaps.Stop()

		for {
			snap, err := snaps.Next()
			if err != nil {
				if ctx.Err() == nil {
					observability.Logger().Error("session snapshot listener failed",
						"session_id", id, "error", err)
				}
				return
			}

			if !snap.Exists() {
				select {
				case ch <- nil:
				case <-ctx.Done():
				}
				return
			}

			sess, err := fromSessionSnap(snap)
			if err != nil {
				observability.Logger().Error("bad session snapshot",
					"session_id", id, "error", err)
				continue
			}
			select {
			case ch <- sess:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// WatchMessages implements domain.MessageWatcher on a query snapshot
// listener delivering the full message list on any change.
func (s *Store) WatchMessages(ctx context.Context, sessionID domain.SessionID) (<-chan []*domain.Message, error) {
	ch := make(chan []*domain.Message, 1)

	go func() {
		defer close(ch)

		snaps := s.messagesCol(sessionID).Query.Snapshots(ctx)
		defer snaps.Stop()

		for {
			qsnap, err := snaps.Next()
			if err != nil {
				if ctx.Err() == nil {
					observability.Logger().Error("message snapshot listener failed",
						"session_id", sessionID, "error", err)
				}
				return
			}

			var msgs []*domain.Message
			docs := qsnap.Documents
			bad := false
			for {
				snap, err := docs.Next()
				if err != nil {
					if err == iterator.Done {
						break
					}
					observability.Logger().Error("bad message snapshot",
						"session_id", sessionID, "error", err)
					bad = true
					break
				}
				msg, err := fromMessageSnap(sessionID, snap)
				if err != nil {
					observability.Logger().Error("bad message snapshot",
						"session_id", sessionID, "error", err)
					bad = true
					break
				}
				msgs = append(msgs, msg)
			}
			if bad {
				continue
			}

			select {
			case ch <- msgs:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}
