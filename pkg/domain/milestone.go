package domain

// LedgerView is the read-only ledger surface visible to milestone predicates.
type LedgerView interface {
	Balance() int
	Deck() []string
	StarterEntity() string
	StarterCount() int
	IsAchieved(id string) bool
}

// ProgressFunc computes a milestone's current progress from the composed
// blueprint and the ledger. Progress is a non-negative number compared
// against the milestone target. Predicates must not depend on the order
// milestones are evaluated in.
type ProgressFunc func(Blueprint, LedgerView) float64

// MilestoneDefinition describes one gameplay goal.
type MilestoneDefinition struct {
	ID          string
	Name        string
	Description string
	Reward      int
	Target      float64
	Progress    ProgressFunc
}

// MilestoneStatus is one milestone's progress snapshot for presentation.
type MilestoneStatus struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Reward      int     `json:"reward"`
	Target      float64 `json:"target"`
	Current     float64 `json:"current"`
	Achieved    bool    `json:"achieved"`
}

// MilestoneReport partitions milestones for presentation: achieved entries
// (with the reward they granted) and open entries (with current/target
// progress for an indicator).
type MilestoneReport struct {
	Achieved []MilestoneStatus `json:"achieved"`
	Open     []MilestoneStatus `json:"open"`
}
