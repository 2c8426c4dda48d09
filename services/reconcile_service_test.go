package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touchline_server/models"
)

func TestReconcilerRepairsDriftedMirrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	matches := NewMemoryMatchRepository()
	conversations := NewMemoryConversationStore()
	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	inSync := matchAt(models.MatchKindPlayerToTeam, models.StageDialogueActive)
	inSync.MatchID, inSync.ConversationID = "m-sync", "c-sync"
	drifted := matchAt(models.MatchKindPlayerToTeam, models.StageTrialScheduled)
	drifted.MatchID, drifted.ConversationID = "m-drift", "c-drift"
	for _, m := range []*models.Match{inSync, drifted} {
		require.NoError(t, matches.CreateMatch(ctx, m))
	}

	require.NoError(t, conversations.CreateConversation(ctx, &models.Conversation{ConversationID: "c-sync", MatchID: "m-sync", MatchProgressStage: models.StageDialogueActive}))
	require.NoError(t, conversations.CreateConversation(ctx, &models.Conversation{ConversationID: "c-drift", MatchID: "m-drift", MatchProgressStage: models.StageTrialInvited}))
	require.NoError(t, conversations.CreateConversation(ctx, &models.Conversation{ConversationID: "c-orphan", MatchID: "m-gone"}))

	r := &Reconciler{Matches: matches, Conversations: conversations, Metrics: metrics}
	report, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Scanned: 3, Repaired: 1, Orphaned: 1}, report)

	conv, err := conversations.GetConversation(ctx, "c-drift")
	require.NoError(t, err)
	assert.Equal(t, models.StageTrialScheduled, conv.MatchProgressStage)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.reconciled))

	again, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Repaired)
}

func TestReconcilerStopsOnCancel(t *testing.T) {
	t.Parallel()
	conversations := NewMemoryConversationStore()
	require.NoError(t, conversations.CreateConversation(context.Background(), &models.Conversation{ConversationID: "c-1", MatchID: "m-1"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Reconciler{Matches: NewMemoryMatchRepository(), Conversations: conversations}
	_, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
