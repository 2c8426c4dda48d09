package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"touchline_server/models"
)

// ConversationStore persists conversations bound to matches.
type ConversationStore interface {
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
	CreateConversation(ctx context.Context, conversation *models.Conversation) error
	UpdateMatchProgressStage(ctx context.Context, conversationID string, stage models.Stage, at time.Time) error
	ListConversations(ctx context.Context) ([]models.Conversation, error)
}

// ConversationService binds matches to their conversation threads and keeps
// the conversation's stage mirror in step with the match.
type ConversationService struct {
	Store   ConversationStore
	Logger  *zap.Logger
	Metrics *Metrics

	// MirrorMaxTries bounds mirror write attempts; zero means 3.
	MirrorMaxTries uint
	// MirrorInitialInterval is the first retry delay; zero means 50ms.
	MirrorInitialInterval time.Duration
}

func (s *ConversationService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// GetConversation fetches a conversation by id.
func (s *ConversationService) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	return s.Store.GetConversation(ctx, conversationID)
}

// MatchIDFor resolves the match bound to a conversation.
func (s *ConversationService) MatchIDFor(ctx context.Context, conversationID string) (string, error) {
	conv, err := s.Store.GetConversation(ctx, conversationID)
	if err != nil {
		return "", err
	}
	if conv.MatchID == "" {
		return "", fmt.Errorf("conversation %s has no bound match: %w", conversationID, ErrNotFound)
	}
	return conv.MatchID, nil
}

// Bind creates the conversation for a new match and initialises its mirror.
// The match's ConversationID is used when set, otherwise a new id is minted.
func (s *ConversationService) Bind(ctx context.Context, match *models.Match) (*models.Conversation, error) {
	convID := match.ConversationID
	if convID == "" {
		convID = uuid.NewString()
	}
	conv := &models.Conversation{
		ConversationID:     convID,
		MatchID:            match.MatchID,
		ParticipantIDs:     []string{match.CoachID, match.CounterpartyID},
		MatchProgressStage: match.Stage,
		CreatedAt:          match.CreatedAt,
		UpdatedAt:          match.CreatedAt,
	}
	if err := s.Store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to bind conversation for match %s: %w", match.MatchID, err)
	}
	return conv, nil
}

// MirrorStage writes stage into the conversation's mirror field. The write is
// best effort: it is retried with exponential backoff and a final failure is
// logged and counted, never returned. It reports whether the write landed.
func (s *ConversationService) MirrorStage(ctx context.Context, conversationID string, stage models.Stage) bool {
	if conversationID == "" {
		return false
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.MirrorInitialInterval
	if b.InitialInterval == 0 {
		b.InitialInterval = 50 * time.Millisecond
	}
	maxTries := s.MirrorMaxTries
	if maxTries == 0 {
		maxTries = 3
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := s.Store.UpdateMatchProgressStage(ctx, conversationID, stage, time.Now().UTC())
		if errors.Is(err, ErrNotFound) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(maxTries))
	if err != nil {
		s.logger().Warn("conversation stage mirror not updated",
			zap.String("conversationId", conversationID),
			zap.String("stage", string(stage)),
			zap.Error(err))
		s.Metrics.recordMirrorFailure()
		return false
	}
	return true
}

// MemoryConversationStore keeps conversations in process memory.
type MemoryConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
}

func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{conversations: make(map[string]*models.Conversation)}
}

func (s *MemoryConversationStore) GetConversation(_ context.Context, conversationID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[conversationID]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	cp := *c
	cp.ParticipantIDs = append([]string(nil), c.ParticipantIDs...)
	return &cp, nil
}

func (s *MemoryConversationStore) CreateConversation(_ context.Context, conversation *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *conversation
	cp.ParticipantIDs = append([]string(nil), conversation.ParticipantIDs...)
	s.conversations[conversation.ConversationID] = &cp
	return nil
}

func (s *MemoryConversationStore) UpdateMatchProgressStage(_ context.Context, conversationID string, stage models.Stage, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[conversationID]
	if !ok {
		return fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	c.MatchProgressStage = stage
	c.UpdatedAt = at
	return nil
}

func (s *MemoryConversationStore) ListConversations(_ context.Context) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConversationID < out[j].ConversationID })
	return out, nil
}
