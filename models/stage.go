package models

// Stage is the lifecycle position of a Match.
type Stage string

// Match lifecycle stages
const (
	StageInitialInterest Stage = "initial_interest"
	StageDialogueActive  Stage = "dialogue_active"
	StageTrialInvited    Stage = "trial_invited"
	StageTrialScheduled  Stage = "trial_scheduled"
	StageTrialCompleted  Stage = "trial_completed"
	StageDecisionPending Stage = "decision_pending"
	StageMatchConfirmed  Stage = "match_confirmed"
	StageMatchDeclined   Stage = "match_declined"
	StageCompleted       Stage = "completed"
)

// stageTable maps every stage to the set of stages it may move to.
// There are no backward edges: a match only progresses or is declined.
var stageTable = map[Stage]map[Stage]struct{}{
	StageInitialInterest: {
		StageDialogueActive: {},
		StageMatchDeclined:  {},
	},
	StageDialogueActive: {
		StageTrialInvited:    {},
		StageDecisionPending: {},
		StageMatchDeclined:   {},
	},
	StageTrialInvited: {
		StageTrialScheduled: {},
		StageMatchDeclined:  {},
	},
	StageTrialScheduled: {
		StageTrialCompleted: {},
		StageMatchDeclined:  {},
	},
	StageTrialCompleted: {
		StageMatchConfirmed:  {},
		StageDecisionPending: {},
		StageMatchDeclined:   {},
	},
	StageDecisionPending: {
		StageMatchConfirmed: {},
		StageMatchDeclined:  {},
	},
	StageMatchConfirmed: {
		StageCompleted:     {},
		StageMatchDeclined: {},
	},
	StageCompleted:     {},
	StageMatchDeclined: {},
}

// AllStages lists every stage in progression order.
var AllStages = []Stage{
	StageInitialInterest,
	StageDialogueActive,
	StageTrialInvited,
	StageTrialScheduled,
	StageTrialCompleted,
	StageDecisionPending,
	StageMatchConfirmed,
	StageCompleted,
	StageMatchDeclined,
}

// Valid reports whether s is a stage in the table.
func (s Stage) Valid() bool {
	_, ok := stageTable[s]
	return ok
}

// Terminal reports whether no further mutation is accepted in s.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageMatchDeclined
}

// NextStages returns the legal successors of s in progression order.
func (s Stage) NextStages() []Stage {
	next := stageTable[s]
	out := make([]Stage, 0, len(next))
	for _, candidate := range AllStages {
		if _, ok := next[candidate]; ok {
			out = append(out, candidate)
		}
	}
	return out
}

// IsLegalSuccessor reports whether the table has an edge from s to target.
func (s Stage) IsLegalSuccessor(target Stage) bool {
	next, ok := stageTable[s]
	if !ok {
		return false
	}
	_, ok = next[target]
	return ok
}
