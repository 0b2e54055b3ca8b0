package domain

import "sort"

// GeneSummary describes one installed gene inside a composed blueprint.
type GeneSummary struct {
	Name         string `json:"name"`
	Cost         int    `json:"cost"`
	IsPolymerase bool   `json:"is_polymerase,omitempty"`
}

// Blueprint is the fully composed, derived description of a virus: the
// entities that can exist and the transition rules connecting them. It is
// always rebuilt from (installed order, database, starter selection) and
// never patched in place.
type Blueprint struct {
	StartingEntities map[string]int   `json:"starting_entities"`
	Genes            []GeneSummary    `json:"genes"`
	TransitionRules  []TransitionRule `json:"transition_rules"`
	// PossibleEntities is the union of the starter entity and every entity
	// named by any rule input or output, sorted for deterministic output.
	PossibleEntities []string `json:"possible_entities"`
}

// Clone returns a deep copy of the blueprint.
func (b Blueprint) Clone() Blueprint {
	cp := b
	if b.StartingEntities != nil {
		cp.StartingEntities = make(map[string]int, len(b.StartingEntities))
		for k, v := range b.StartingEntities {
			cp.StartingEntities[k] = v
		}
	}
	cp.Genes = append([]GeneSummary(nil), b.Genes...)
	if b.TransitionRules != nil {
		cp.TransitionRules = make([]TransitionRule, len(b.TransitionRules))
		for i, r := range b.TransitionRules {
			cp.TransitionRules[i] = r.Clone()
		}
	}
	cp.PossibleEntities = append([]string(nil), b.PossibleEntities...)
	return cp
}

// Rule returns the named transition rule, if composed.
func (b Blueprint) Rule(name string) (TransitionRule, bool) {
	for _, r := range b.TransitionRules {
		if r.Name == name {
			return r.Clone(), true
		}
	}
	return TransitionRule{}, false
}

// HasEntity reports whether name is reachable in the blueprint.
func (b Blueprint) HasEntity(name string) bool {
	i := sort.SearchStrings(b.PossibleEntities, name)
	return i < len(b.PossibleEntities) && b.PossibleEntities[i] == name
}

// TotalInterferonYield sums the interferon yield over all composed rules.
func (b Blueprint) TotalInterferonYield() int {
	total := 0
	for _, r := range b.TransitionRules {
		total += r.InterferonYield
	}
	return total
}
