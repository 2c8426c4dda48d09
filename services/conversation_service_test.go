package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touchline_server/models"
)

func TestBindCreatesConversationWithMirror(t *testing.T) {
	t.Parallel()
	store := NewMemoryConversationStore()
	svc := &ConversationService{Store: store}
	m := matchAt(models.MatchKindChildToTeam, models.StageInitialInterest)

	conv, err := svc.Bind(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "conv-1", conv.ConversationID)
	assert.Equal(t, []string{coach.UserID, parent.UserID}, conv.ParticipantIDs)
	assert.Equal(t, models.StageInitialInterest, conv.MatchProgressStage)

	matchID, err := svc.MatchIDFor(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, m.MatchID, matchID)
}

func TestBindMintsConversationID(t *testing.T) {
	t.Parallel()
	svc := &ConversationService{Store: NewMemoryConversationStore()}
	m := matchAt(models.MatchKindPlayerToTeam, models.StageInitialInterest)
	m.ConversationID = ""

	conv, err := svc.Bind(context.Background(), m)
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ConversationID)
}

func TestMatchIDForUnknownConversation(t *testing.T) {
	t.Parallel()
	svc := &ConversationService{Store: NewMemoryConversationStore()}

	_, err := svc.MatchIDFor(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Store.CreateConversation(context.Background(), &models.Conversation{ConversationID: "unbound"}))
	_, err = svc.MatchIDFor(context.Background(), "unbound")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMirrorStageRecoversFromTransientFailure(t *testing.T) {
	t.Parallel()
	store := &flakyConversationStore{MemoryConversationStore: NewMemoryConversationStore(), failing: true}
	svc := &ConversationService{Store: store, MirrorMaxTries: 5, MirrorInitialInterval: 20 * time.Millisecond}
	_, err := svc.Bind(context.Background(), matchAt(models.MatchKindPlayerToTeam, models.StageInitialInterest))
	require.NoError(t, err)

	done := make(chan bool)
	go func() { done <- svc.MirrorStage(context.Background(), "conv-1", models.StageDialogueActive) }()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.calls >= 1
	}, time.Second, time.Millisecond)
	store.mu.Lock()
	store.failing = false
	store.mu.Unlock()

	assert.True(t, <-done)
	conv, err := store.GetConversation(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, models.StageDialogueActive, conv.MatchProgressStage)
}

func TestMirrorStageWithoutConversation(t *testing.T) {
	t.Parallel()
	svc := &ConversationService{Store: NewMemoryConversationStore()}
	assert.False(t, svc.MirrorStage(context.Background(), "", models.StageDialogueActive))
	assert.False(t, svc.MirrorStage(context.Background(), "missing", models.StageDialogueActive))
}
