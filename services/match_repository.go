package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"touchline_server/models"
)

// MatchRepository is the persistence boundary for matches.
type MatchRepository interface {
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
	CreateMatch(ctx context.Context, match *models.Match) error
	// SaveMatch replaces the stored match when its version still equals
	// expectedVersion, and returns ErrVersionConflict otherwise.
	SaveMatch(ctx context.Context, match *models.Match, expectedVersion int64) error
	ListMatchesByCoach(ctx context.Context, coachID string) ([]models.Match, error)
	ListMatchesByCounterparty(ctx context.Context, counterpartyID string) ([]models.Match, error)
}

// MemoryMatchRepository keeps matches in process memory.
type MemoryMatchRepository struct {
	mu      sync.RWMutex
	matches map[string]*models.Match
}

func NewMemoryMatchRepository() *MemoryMatchRepository {
	return &MemoryMatchRepository{matches: make(map[string]*models.Match)}
}

func (r *MemoryMatchRepository) GetMatch(_ context.Context, matchID string) (*models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	return m.Clone(), nil
}

func (r *MemoryMatchRepository) CreateMatch(_ context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.matches[match.MatchID]; exists {
		return fmt.Errorf("match %s: %w", match.MatchID, ErrVersionConflict)
	}
	r.matches[match.MatchID] = match.Clone()
	return nil
}

func (r *MemoryMatchRepository) SaveMatch(_ context.Context, match *models.Match, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.matches[match.MatchID]
	if !ok {
		return fmt.Errorf("match %s: %w", match.MatchID, ErrNotFound)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("match %s at version %d, expected %d: %w", match.MatchID, current.Version, expectedVersion, ErrVersionConflict)
	}
	r.matches[match.MatchID] = match.Clone()
	return nil
}

func (r *MemoryMatchRepository) ListMatchesByCoach(_ context.Context, coachID string) ([]models.Match, error) {
	return r.filter(func(m *models.Match) bool { return m.CoachID == coachID }), nil
}

func (r *MemoryMatchRepository) ListMatchesByCounterparty(_ context.Context, counterpartyID string) ([]models.Match, error) {
	return r.filter(func(m *models.Match) bool { return m.CounterpartyID == counterpartyID }), nil
}

func (r *MemoryMatchRepository) filter(keep func(*models.Match) bool) []models.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Match{}
	for _, m := range r.matches {
		if keep(m) {
			out = append(out, *m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
