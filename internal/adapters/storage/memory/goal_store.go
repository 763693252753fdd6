package memory

import (
	"context"

	"github.com/jothelearningguy/alignus/internal/domain"
)

func (s *Store) AddGoal(ctx context.Context, goal *domain.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := *goal
	s.goals[goal.SessionID] = append(s.goals[goal.SessionID], &g)
	return nil
}

func (s *Store) ListGoals(ctx context.Context, sessionID domain.SessionID) ([]*domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	goals := s.goals[sessionID]
	out := make([]*domain.Goal, 0, len(goals))
	for _, g := range goals {
		copied := *g
		out = append(out, &copied)
	}
	return out, nil
}

func (s *Store) SetGoalCompleted(ctx context.Context, sessionID domain.SessionID, id domain.GoalID, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.goals[sessionID] {
		if g.ID == id {
			g.Completed = completed
			return nil
		}
	}
	return domain.ErrGoalNotFound
}

func (s *Store) DeleteGoal(ctx context.Context, sessionID domain.SessionID, id domain.GoalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals := s.goals[sessionID]
	for i, g := range goals {
		if g.ID == id {
			s.goals[sessionID] = append(goals[:i], goals[i+1:]...)
			return nil
		}
	}
	return domain.ErrGoalNotFound
}
