package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touchline_server/models"
)

func TestConfirmScenarioPlayerToTeam(t *testing.T) {
	t.Parallel()

	m := matchAt(models.MatchKindPlayerToTeam, models.StageInitialInterest)

	first, err := Confirm(m, coach, true, testNow)
	require.NoError(t, err)
	assert.False(t, first.AllConfirmed)
	assert.True(t, first.Changed)
	assert.False(t, first.StageChanged)
	assert.Equal(t, models.StageInitialInterest, first.Match.Stage)
	assert.True(t, first.Match.CoachConfirmed)

	second, err := Confirm(first.Match, player, true, testNow)
	require.NoError(t, err)
	assert.True(t, second.AllConfirmed)
	assert.True(t, second.StageChanged)
	assert.Equal(t, models.StageInitialInterest, second.PreviousStage)
	assert.Equal(t, models.StageMatchConfirmed, second.Match.Stage)
	assert.Nil(t, second.Match.CompletedAt)
}

func TestConfirmRejectsWrongRoleForKind(t *testing.T) {
	t.Parallel()

	m := matchAt(models.MatchKindChildToTeam, models.StageDialogueActive)
	_, err := Confirm(m, models.ActingParty{UserID: "child-1", Role: models.PartyPlayer}, true, testNow)
	require.ErrorIs(t, err, ErrUnauthorized)

	m = matchAt(models.MatchKindPlayerToTeam, models.StageDialogueActive)
	_, err = Confirm(m, parent, true, testNow)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestConfirmOrderIndependence(t *testing.T) {
	t.Parallel()

	for _, kind := range []models.MatchKind{models.MatchKindPlayerToTeam, models.MatchKindChildToTeam} {
		counterparty := player
		if kind == models.MatchKindChildToTeam {
			counterparty = parent
		}

		a, err := Confirm(matchAt(kind, models.StageTrialCompleted), coach, true, testNow)
		require.NoError(t, err)
		a, err = Confirm(a.Match, counterparty, true, testNow)
		require.NoError(t, err)

		b, err := Confirm(matchAt(kind, models.StageTrialCompleted), counterparty, true, testNow)
		require.NoError(t, err)
		b, err = Confirm(b.Match, coach, true, testNow)
		require.NoError(t, err)

		assert.Equal(t, a.Match, b.Match, kind)
		assert.True(t, a.AllConfirmed)
		assert.Equal(t, models.StageMatchConfirmed, a.Match.Stage)
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	t.Parallel()

	first, err := Confirm(matchAt(models.MatchKindPlayerToTeam, models.StageDialogueActive), player, true, testNow)
	require.NoError(t, err)

	second, err := Confirm(first.Match, player, true, testNow.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.False(t, second.StageChanged)
	assert.Equal(t, first.Match, second.Match)
}

func TestConfirmAfterConsensusIsNoOp(t *testing.T) {
	t.Parallel()

	m := matchAt(models.MatchKindPlayerToTeam, models.StageMatchConfirmed)
	m.CoachConfirmed = true
	m.PlayerConfirmed = true

	res, err := Confirm(m, coach, true, testNow)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.True(t, res.AllConfirmed)
	assert.Equal(t, models.StageMatchConfirmed, res.Match.Stage)
}

func TestDeclineOverridesPendingConfirmation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		kind     models.MatchKind
		confirm  models.ActingParty
		decliner models.ActingParty
	}{
		{"player declines after coach confirmed", models.MatchKindPlayerToTeam, coach, player},
		{"coach declines after player confirmed", models.MatchKindPlayerToTeam, player, coach},
		{"parent declines after coach confirmed", models.MatchKindChildToTeam, coach, parent},
		{"coach declines after parent confirmed", models.MatchKindChildToTeam, parent, coach},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			first, err := Confirm(matchAt(tt.kind, models.StageTrialScheduled), tt.confirm, true, testNow)
			require.NoError(t, err)

			declined, err := Confirm(first.Match, tt.decliner, false, testNow)
			require.NoError(t, err)
			assert.True(t, declined.StageChanged)
			assert.False(t, declined.AllConfirmed)
			assert.Equal(t, models.StageMatchDeclined, declined.Match.Stage)

			_, err = Confirm(declined.Match, tt.confirm, true, testNow)
			require.ErrorIs(t, err, ErrTerminalStage)
			_, err = Confirm(declined.Match, tt.decliner, false, testNow)
			require.ErrorIs(t, err, ErrTerminalStage)
		})
	}
}

func TestConfirmOnTerminalMatch(t *testing.T) {
	t.Parallel()

	for _, stage := range []models.Stage{models.StageCompleted, models.StageMatchDeclined} {
		_, err := Confirm(matchAt(models.MatchKindPlayerToTeam, stage), coach, true, testNow)
		require.ErrorIs(t, err, ErrTerminalStage, stage)
	}
}
