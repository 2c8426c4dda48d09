package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touchline_server/models"
)

var (
	testNow   = time.Date(2024, 9, 14, 10, 30, 0, 0, time.UTC)
	coach     = models.ActingParty{UserID: "coach-1", Role: models.PartyCoach}
	player    = models.ActingParty{UserID: "player-1", Role: models.PartyPlayer}
	parent    = models.ActingParty{UserID: "parent-1", Role: models.PartyParent}
	outsider  = models.ActingParty{UserID: "scout-9", Role: models.PartyCoach}
	createdAt = testNow.Add(-48 * time.Hour)
)

func matchAt(kind models.MatchKind, stage models.Stage) *models.Match {
	counterparty := player.UserID
	if kind == models.MatchKindChildToTeam {
		counterparty = parent.UserID
	}
	return &models.Match{
		MatchID:        "match-1",
		Kind:           kind,
		Stage:          stage,
		CoachID:        coach.UserID,
		CounterpartyID: counterparty,
		ConversationID: "conv-1",
		CreatedAt:      createdAt,
		LastActivityAt: createdAt,
		Version:        1,
	}
}

func TestApplyTransitionFollowsStageTable(t *testing.T) {
	t.Parallel()

	for _, from := range models.AllStages {
		for _, to := range models.AllStages {
			if from == to {
				continue
			}
			m := matchAt(models.MatchKindPlayerToTeam, from)
			updated, changed, err := ApplyTransition(m, to, coach, testNow)

			switch {
			case from.Terminal():
				require.ErrorIs(t, err, ErrTerminalStage, "%s -> %s", from, to)
			case from.IsLegalSuccessor(to):
				require.NoError(t, err, "%s -> %s", from, to)
				assert.True(t, changed)
				assert.Equal(t, to, updated.Stage)
				assert.Equal(t, testNow, updated.LastActivityAt)
			default:
				require.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, to)
			}
			assert.Equal(t, from, m.Stage, "input must not be modified")
		}
	}
}

func TestApplyTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		from        models.Stage
		to          models.Stage
		wantErr     error
		wantChanged bool
	}{
		{name: "advance to dialogue", from: models.StageInitialInterest, to: models.StageDialogueActive, wantChanged: true},
		{name: "skip trial", from: models.StageDialogueActive, to: models.StageDecisionPending, wantChanged: true},
		{name: "trial scheduled straight to confirmed", from: models.StageTrialScheduled, to: models.StageMatchConfirmed, wantErr: ErrInvalidTransition},
		{name: "backward move", from: models.StageTrialInvited, to: models.StageDialogueActive, wantErr: ErrInvalidTransition},
		{name: "decline mid trial", from: models.StageTrialScheduled, to: models.StageMatchDeclined, wantChanged: true},
		{name: "same stage is a no-op", from: models.StageTrialInvited, to: models.StageTrialInvited},
		{name: "unknown target", from: models.StageDialogueActive, to: "signed", wantErr: ErrInvalidStage},
		{name: "completed is terminal", from: models.StageCompleted, to: models.StageCompleted, wantErr: ErrTerminalStage},
		{name: "declined is terminal", from: models.StageMatchDeclined, to: models.StageDialogueActive, wantErr: ErrTerminalStage},
		{name: "terminal wins over unknown target", from: models.StageMatchDeclined, to: "signed", wantErr: ErrTerminalStage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			updated, changed, err := ApplyTransition(matchAt(models.MatchKindPlayerToTeam, tt.from), tt.to, player, testNow)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.to, updated.Stage)
			if !changed {
				assert.Equal(t, createdAt, updated.LastActivityAt)
			}
		})
	}
}

func TestApplyTransitionCompletedSetsCompletedAt(t *testing.T) {
	t.Parallel()

	m := matchAt(models.MatchKindPlayerToTeam, models.StageMatchConfirmed)
	updated, changed, err := ApplyTransition(m, models.StageCompleted, coach, testNow)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, testNow, *updated.CompletedAt)
	assert.True(t, updated.Stage.Terminal())
	assert.Nil(t, m.CompletedAt)

	_, _, err = ApplyTransition(updated, models.StageMatchDeclined, coach, testNow)
	require.ErrorIs(t, err, ErrTerminalStage)
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	assert.True(t, CanTransition(models.StageTrialCompleted, models.StageMatchConfirmed))
	assert.False(t, CanTransition(models.StageTrialScheduled, models.StageMatchConfirmed))
	assert.False(t, CanTransition(models.StageCompleted, models.StageMatchDeclined))
}
