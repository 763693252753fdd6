package goals

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jothelearningguy/alignus/internal/domain"
)

// Service holds the shared-goal list logic. Goals have an independent
// lifecycle from the chat: plain list membership, no uniqueness.
type Service struct {
	store domain.GoalStore
	now   func() time.Time
}

func NewService(store domain.GoalStore) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// Add appends a goal to the session's shared list.
func (s *Service) Add(ctx context.Context, sessionID domain.SessionID, user domain.UserID, text string) (*domain.Goal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}

	goal := &domain.Goal{
		ID:        domain.GoalID(uuid.NewString()),
		SessionID: sessionID,
		Text:      text,
		Completed: false,
		CreatedBy: user,
		CreatedAt: s.now(),
	}

	if err := s.store.AddGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// Toggle flips a goal's completed flag.
func (s *Service) Toggle(ctx context.Context, sessionID domain.SessionID, id domain.GoalID) error {
	goals, err := s.store.ListGoals(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, g := range goals {
		if g.ID == id {
			return s.store.SetGoalCompleted(ctx, sessionID, id, !g.Completed)
		}
	}
	return domain.ErrGoalNotFound
}

// Delete removes a goal.
func (s *Service) Delete(ctx context.Context, sessionID domain.SessionID, id domain.GoalID) error {
	return s.store.DeleteGoal(ctx, sessionID, id)
}

// List returns the session's goals ordered by creation time.
func (s *Service) List(ctx context.Context, sessionID domain.SessionID) ([]*domain.Goal, error) {
	goals, err := s.store.ListGoals(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(goals, func(i, j int) bool {
		return goals[i].CreatedAt.Before(goals[j].CreatedAt)
	})
	return goals, nil
}
