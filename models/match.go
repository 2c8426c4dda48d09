package models

import "time"

// MatchKind determines which non-coach party must confirm a match.
type MatchKind string

const (
	MatchKindPlayerToTeam MatchKind = "player_to_team"
	MatchKindChildToTeam  MatchKind = "child_to_team"
)

// Valid reports whether k is a known kind.
func (k MatchKind) Valid() bool {
	return k == MatchKindPlayerToTeam || k == MatchKindChildToTeam
}

// CounterpartyRole is the non-coach role whose confirmation the kind requires.
func (k MatchKind) CounterpartyRole() Party {
	if k == MatchKindChildToTeam {
		return PartyParent
	}
	return PartyPlayer
}

// Match tracks one candidate connection between a coach's team and a player
// or a parent acting for a child.
type Match struct {
	MatchID         string     `dynamodbav:"matchId" json:"matchId"`                       // Partition key
	Kind            MatchKind  `dynamodbav:"kind" json:"kind"`                             // player_to_team or child_to_team
	Stage           Stage      `dynamodbav:"stage" json:"stage"`                           // Current lifecycle stage
	CoachID         string     `dynamodbav:"coachId" json:"coachId"`                       // GSI coachId-index
	CounterpartyID  string     `dynamodbav:"counterpartyId" json:"counterpartyId"`         // GSI counterpartyId-index (player or parent)
	AdvertID        string     `dynamodbav:"advertId,omitempty" json:"advertId,omitempty"` // Posting that triggered the match
	CoachConfirmed  bool       `dynamodbav:"coachConfirmed" json:"coachConfirmed"`
	PlayerConfirmed bool       `dynamodbav:"playerConfirmed" json:"playerConfirmed"` // Counterparty flag for player_to_team
	ParentConfirmed bool       `dynamodbav:"parentConfirmed" json:"parentConfirmed"` // Counterparty flag for child_to_team
	ConversationID  string     `dynamodbav:"conversationId" json:"conversationId"`   // Bound conversation (not owned)
	CreatedAt       time.Time  `dynamodbav:"createdAt" json:"createdAt"`
	LastActivityAt  time.Time  `dynamodbav:"lastActivityAt" json:"lastActivityAt"`
	CompletedAt     *time.Time `dynamodbav:"completedAt,omitempty" json:"completedAt,omitempty"` // Set iff stage == completed
	Version         int64      `dynamodbav:"version" json:"version"`                             // Optimistic write token
}

// MatchesTable is the default DynamoDB table name for matches
const MatchesTable = "Matches"

// GSI names on the matches table
const (
	CoachIDIndex        = "coachId-index"
	CounterpartyIDIndex = "counterpartyId-index"
)

// AllConfirmed reports whether the coach and the kind's counterparty have
// both confirmed.
func (m *Match) AllConfirmed() bool {
	if !m.CoachConfirmed {
		return false
	}
	if m.Kind == MatchKindChildToTeam {
		return m.ParentConfirmed
	}
	return m.PlayerConfirmed
}

// IsParticipant reports whether userID is one of the two parties of the match.
func (m *Match) IsParticipant(userID string) bool {
	return userID != "" && (userID == m.CoachID || userID == m.CounterpartyID)
}

// Clone returns a deep copy so callers never share the CompletedAt pointer.
func (m *Match) Clone() *Match {
	c := *m
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
