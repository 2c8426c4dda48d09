package services

import (
	"fmt"
	"time"

	"touchline_server/models"
)

type confirmationFlag int

const (
	flagCoach confirmationFlag = iota
	flagPlayer
	flagParent
)

type flagKey struct {
	kind models.MatchKind
	role models.Party
}

// confirmationFlags maps (kind, role) to the flag that role controls. A pair
// missing from the table is not allowed to confirm or decline.
var confirmationFlags = map[flagKey]confirmationFlag{
	{models.MatchKindPlayerToTeam, models.PartyCoach}:  flagCoach,
	{models.MatchKindPlayerToTeam, models.PartyPlayer}: flagPlayer,
	{models.MatchKindChildToTeam, models.PartyCoach}:   flagCoach,
	{models.MatchKindChildToTeam, models.PartyParent}:  flagParent,
}

func (f confirmationFlag) get(m *models.Match) bool {
	switch f {
	case flagCoach:
		return m.CoachConfirmed
	case flagPlayer:
		return m.PlayerConfirmed
	default:
		return m.ParentConfirmed
	}
}

func (f confirmationFlag) set(m *models.Match, v bool) {
	switch f {
	case flagCoach:
		m.CoachConfirmed = v
	case flagPlayer:
		m.PlayerConfirmed = v
	default:
		m.ParentConfirmed = v
	}
}

// ConfirmResult is the outcome of a confirm or decline call.
type ConfirmResult struct {
	Match         *models.Match `json:"match"`
	AllConfirmed  bool          `json:"allConfirmed"`
	Changed       bool          `json:"-"`
	StageChanged  bool          `json:"-"`
	PreviousStage models.Stage  `json:"-"`
}

// Confirm records a confirmation (confirmed == true) or a decline
// (confirmed == false) by actor and derives consensus.
//
// A decline forces match_declined straight away. The first call that sees
// both required flags true forces match_confirmed; CompletedAt stays unset
// until the explicit move to completed. Repeating a confirmation that is
// already recorded returns the match unchanged.
func Confirm(match *models.Match, actor models.ActingParty, confirmed bool, now time.Time) (*ConfirmResult, error) {
	if match.Stage.Terminal() {
		return nil, fmt.Errorf("%w: match %s is %s", ErrTerminalStage, match.MatchID, match.Stage)
	}
	flag, ok := confirmationFlags[flagKey{match.Kind, actor.Role}]
	if !ok {
		return nil, fmt.Errorf("%w: role %q cannot confirm a %s match", ErrUnauthorized, actor.Role, match.Kind)
	}

	result := &ConfirmResult{PreviousStage: match.Stage}

	if confirmed && flag.get(match) {
		result.Match = match.Clone()
		result.AllConfirmed = match.AllConfirmed()
		return result, nil
	}

	updated := match.Clone()
	flag.set(updated, confirmed)
	updated.LastActivityAt = now
	result.Changed = true

	switch {
	case !confirmed:
		updated.Stage = models.StageMatchDeclined
	case updated.AllConfirmed() && updated.Stage != models.StageMatchConfirmed:
		updated.Stage = models.StageMatchConfirmed
	}

	result.Match = updated
	result.AllConfirmed = updated.AllConfirmed()
	result.StageChanged = updated.Stage != match.Stage
	return result, nil
}
