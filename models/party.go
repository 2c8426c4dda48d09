package models

// Party is the role of an actor interacting with a match.
type Party string

const (
	PartyCoach  Party = "coach"
	PartyPlayer Party = "player"
	PartyParent Party = "parent"
)

// Valid reports whether p is a known role.
func (p Party) Valid() bool {
	switch p {
	case PartyCoach, PartyPlayer, PartyParent:
		return true
	}
	return false
}

// ActingParty is the authenticated actor behind a request.
type ActingParty struct {
	UserID string `json:"userId"`
	Role   Party  `json:"role"`
}
