package models

import "time"

// EventKind names what happened to a match.
type EventKind string

// Match event kinds
const (
	EventStageChanged         EventKind = "stage_changed"
	EventConfirmationRecorded EventKind = "confirmation_recorded"
	EventMatchConfirmed       EventKind = "match_confirmed"
	EventMatchDeclined        EventKind = "match_declined"
	EventMatchCompleted       EventKind = "match_completed"
)

// MatchEvent is handed to the notification trigger after a committed change.
// Version is the match version the change committed; consumers can drop an
// event whose version is not above the last one they saw for the match.
type MatchEvent struct {
	MatchID        string    `json:"matchId"`
	ConversationID string    `json:"conversationId"`
	Event          EventKind `json:"event"`
	PreviousStage  Stage     `json:"previousStage"`
	NewStage       Stage     `json:"newStage"`
	Version        int64     `json:"version"`
	ActorID        string    `json:"actorId"`
	OccurredAt     time.Time `json:"occurredAt"`
	Match          *Match    `json:"match,omitempty"`
}

// EventForStage picks the most specific event kind for a stage change.
func EventForStage(newStage Stage) EventKind {
	switch newStage {
	case StageMatchConfirmed:
		return EventMatchConfirmed
	case StageMatchDeclined:
		return EventMatchDeclined
	case StageCompleted:
		return EventMatchCompleted
	}
	return EventStageChanged
}
