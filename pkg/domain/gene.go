package domain

// EntityAmount pairs an entity name with a quantity consumed or produced by a
// transition rule. Order within a rule is preserved from the reference data.
type EntityAmount struct {
	Entity   string `json:"entity"`
	Quantity int    `json:"quantity"`
}

// TransitionRule is one probabilistic state change a virus can undergo. Rule
// names are unique within a composed blueprint.
type TransitionRule struct {
	Name            string         `json:"name"`
	Probability     float64        `json:"probability"`
	Inputs          []EntityAmount `json:"inputs"`
	Outputs         []EntityAmount `json:"outputs"`
	InterferonYield int            `json:"interferon_yield,omitempty"`
}

// Clone returns a deep copy of the rule.
func (r TransitionRule) Clone() TransitionRule {
	cp := r
	cp.Inputs = append([]EntityAmount(nil), r.Inputs...)
	cp.Outputs = append([]EntityAmount(nil), r.Outputs...)
	return cp
}

// EffectType tags the gene effect variant.
type EffectType string

const (
	// EffectAddTransition appends a new transition rule to the blueprint.
	EffectAddTransition EffectType = "add_transition"
	// EffectModifyTransition adjusts a rule added by an effect replayed
	// earlier in the same composition pass.
	EffectModifyTransition EffectType = "modify_transition"
)

// RuleModification adjusts fields of an already-added transition rule.
type RuleModification struct {
	ProbabilityDelta float64 `json:"probability_delta,omitempty"`
	InterferonDelta  int     `json:"interferon_delta,omitempty"`
}

// GeneEffect is a tagged variant: exactly one of Rule (add_transition) or
// RuleName+Modification (modify_transition) is meaningful, selected by Type.
// Composition handles the variants exhaustively; an unrecognized tag is a
// data-integrity fault, not a silent no-op.
type GeneEffect struct {
	Type         EffectType        `json:"type"`
	Rule         *TransitionRule   `json:"rule,omitempty"`
	RuleName     string            `json:"rule_name,omitempty"`
	Modification *RuleModification `json:"modification,omitempty"`
}

// Clone returns a deep copy of the effect.
func (e GeneEffect) Clone() GeneEffect {
	cp := e
	if e.Rule != nil {
		r := e.Rule.Clone()
		cp.Rule = &r
	}
	if e.Modification != nil {
		m := *e.Modification
		cp.Modification = &m
	}
	return cp
}

// GeneDefinition is immutable reference data describing one installable gene.
type GeneDefinition struct {
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Cost         int          `json:"cost"`
	RemoveCost   int          `json:"remove_cost,omitempty"`
	IsPolymerase bool         `json:"is_polymerase,omitempty"`
	Requires     []string     `json:"requires,omitempty"`
	Effects      []GeneEffect `json:"effects,omitempty"`
}

// Clone returns a deep copy of the definition.
func (g GeneDefinition) Clone() GeneDefinition {
	cp := g
	cp.Requires = append([]string(nil), g.Requires...)
	if g.Effects != nil {
		cp.Effects = make([]GeneEffect, len(g.Effects))
		for i, e := range g.Effects {
			cp.Effects[i] = e.Clone()
		}
	}
	return cp
}

// Database is the read-only gene/entity reference store shared by the
// composition engine and the milestone evaluator. Lookups return a not-found
// flag rather than an error so callers can distinguish an unknown entity used
// by a rule (tolerated, rendered with unknown class and location) from an
// unknown gene requested for install (rejected).
type Database interface {
	// LookupGene returns the definition for name, if present.
	LookupGene(name string) (GeneDefinition, bool)
	// LookupEntity returns the definition for name, if present.
	LookupEntity(name string) (EntityDefinition, bool)
	// AllGenes returns every gene definition in a stable order suitable for
	// deck seeding.
	AllGenes() []GeneDefinition
	// AllEntities returns every entity definition in a stable order.
	AllEntities() []EntityDefinition
}

// EntityClassOf resolves the class of an entity name against db, reporting
// ClassUnknown for names absent from the reference data.
func EntityClassOf(db Database, name string) EntityClass {
	if def, ok := db.LookupEntity(name); ok {
		return def.Class
	}
	return ClassUnknown
}

// EntityLocationOf resolves the compartment of an entity name against db,
// reporting LocationUnknown for names absent from the reference data.
func EntityLocationOf(db Database, name string) Location {
	if def, ok := db.LookupEntity(name); ok {
		return def.Location
	}
	return LocationUnknown
}
