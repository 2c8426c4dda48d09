package services

import (
	"fmt"
	"time"

	"touchline_server/models"
)

// CanTransition reports whether the stage table allows moving from current
// to target.
func CanTransition(current, target models.Stage) bool {
	return current.IsLegalSuccessor(target)
}

// ApplyTransition validates a stage move and returns the updated copy of the
// match. The input is never modified. Requesting the current stage again is
// an idempotent no-op; changed reports whether anything was applied.
//
// Participancy of actor is checked by the caller; any participant may request
// any legal move, including a decline.
func ApplyTransition(match *models.Match, target models.Stage, actor models.ActingParty, now time.Time) (updated *models.Match, changed bool, err error) {
	if match.Stage.Terminal() {
		return nil, false, fmt.Errorf("%w: match %s is %s", ErrTerminalStage, match.MatchID, match.Stage)
	}
	if !target.Valid() {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidStage, target)
	}
	if match.Stage == target {
		return match.Clone(), false, nil
	}
	if !CanTransition(match.Stage, target) {
		return nil, false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, match.Stage, target)
	}

	updated = match.Clone()
	updated.Stage = target
	updated.LastActivityAt = now
	if target == models.StageCompleted {
		completedAt := now
		updated.CompletedAt = &completedAt
	}
	return updated, true, nil
}
