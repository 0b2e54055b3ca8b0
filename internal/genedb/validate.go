package genedb

import (
	"fmt"

	"virocore/pkg/domain"
)

// Issue is one validation finding against the reference catalog.
type Issue struct {
	Gene    string `json:"gene,omitempty"`
	Entity  string `json:"entity,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	switch {
	case i.Gene != "":
		return fmt.Sprintf("gene %s: %s", i.Gene, i.Message)
	case i.Entity != "":
		return fmt.Sprintf("entity %s: %s", i.Entity, i.Message)
	default:
		return i.Message
	}
}

// Validate checks the catalog for defects that would surface later as
// data-integrity faults or broken compositions: dangling or cyclic requires,
// transition rule names added twice across the catalog, modifications
// targeting rules no reachable gene adds, prerequisite chains demanding two
// polymerase genes, out-of-range probabilities, and negative quantities,
// yields, or costs. An empty slice means a clean catalog.
func Validate(db domain.Database) []Issue {
	var issues []Issue

	genes := db.AllGenes()
	for _, e := range db.AllEntities() {
		if !domain.ValidClass(e.Class) {
			issues = append(issues, Issue{Entity: e.Name, Message: fmt.Sprintf("unknown class %q", e.Class)})
		}
		if !domain.ValidLocation(e.Location) {
			issues = append(issues, Issue{Entity: e.Name, Message: fmt.Sprintf("unknown location %q", e.Location)})
		}
	}

	// addedBy maps each add_transition rule name to the gene adding it.
	addedBy := make(map[string]string)
	for _, g := range genes {
		for _, eff := range g.Effects {
			if eff.Type != domain.EffectAddTransition || eff.Rule == nil {
				continue
			}
			if prev, dup := addedBy[eff.Rule.Name]; dup {
				issues = append(issues, Issue{Gene: g.Name, Message: fmt.Sprintf("rule %q already added by gene %s", eff.Rule.Name, prev)})
				continue
			}
			addedBy[eff.Rule.Name] = g.Name
		}
	}

	for _, g := range genes {
		issues = append(issues, validateGene(db, g, addedBy)...)
	}
	issues = append(issues, requireCycles(genes)...)
	return issues
}

func validateGene(db domain.Database, g domain.GeneDefinition, addedBy map[string]string) []Issue {
	var issues []Issue
	if g.Cost < 0 {
		issues = append(issues, Issue{Gene: g.Name, Message: fmt.Sprintf("negative cost %d", g.Cost)})
	}
	if g.RemoveCost < 0 {
		issues = append(issues, Issue{Gene: g.Name, Message: fmt.Sprintf("negative remove cost %d", g.RemoveCost)})
	}
	for _, req := range g.Requires {
		if req == g.Name {
			issues = append(issues, Issue{Gene: g.Name, Message: "requires itself"})
			continue
		}
		if _, ok := db.LookupGene(req); !ok {
			issues = append(issues, Issue{Gene: g.Name, Message: fmt.Sprintf("requires unknown gene %q", req)})
		}
	}

	closure := requireClosure(db, g.Name)

	// A gene pulling more than one polymerase gene into its prerequisite
	// closure can never be installed.
	polymerases := 0
	if g.IsPolymerase {
		polymerases++
	}
	for _, anc := range closure {
		if def, ok := db.LookupGene(anc); ok && def.IsPolymerase {
			polymerases++
		}
	}
	if polymerases > 1 {
		issues = append(issues, Issue{Gene: g.Name, Message: fmt.Sprintf("prerequisite closure contains %d polymerase genes", polymerases)})
	}

	// Names addable before this gene's effects replay: its own earlier adds
	// plus everything its transitive prerequisites add.
	reachable := make(map[string]struct{})
	for _, anc := range closure {
		def, ok := db.LookupGene(anc)
		if !ok {
			continue
		}
		for _, eff := range def.Effects {
			if eff.Type == domain.EffectAddTransition && eff.Rule != nil {
				reachable[eff.Rule.Name] = struct{}{}
			}
		}
	}

	for i, eff := range g.Effects {
		switch eff.Type {
		case domain.EffectAddTransition:
			if eff.Rule == nil {
				issues = append(issues, Issue{Gene: g.Name, Message: fmt.Sprintf("effect %d: add_transition without a rule", i)})
				continue
			}
			issues = append(issues, validateRule(g.Name, *eff.Rule)...)
			reachable[eff.Rule.Name] = struct{}{}
		case domain.EffectModifyTransition:
			if eff.RuleName == "" || eff.Modification == nil {
				issues = append(issues, Issue{Gene: g.Name, Message: fmt.Sprintf("effect %d: modify_transition without target or modification", i)})
				continue
			}
			if _, ok := reachable[eff.RuleName]; ok {
				continue
			}
			if by, ok := addedBy[eff.RuleName]; ok {
				issues = append(issues, Issue{Gene: g.Name, Message: fmt.Sprintf("modifies rule %q added by gene %s outside its prerequisites", eff.RuleName, by)})
			} else {
				issues = append(issues, Issue{Gene: g.Name, Message: fmt.Sprintf("modifies rule %q no gene adds", eff.RuleName)})
			}
		default:
			issues = append(issues, Issue{Gene: g.Name, Message: fmt.Sprintf("effect %d: unknown type %q", i, eff.Type)})
		}
	}
	return issues
}

func validateRule(gene string, rule domain.TransitionRule) []Issue {
	var issues []Issue
	if rule.Name == "" {
		issues = append(issues, Issue{Gene: gene, Message: "adds a rule with empty name"})
	}
	if rule.Probability < 0 || rule.Probability > 1 {
		issues = append(issues, Issue{Gene: gene, Message: fmt.Sprintf("rule %q probability %v out of [0,1]", rule.Name, rule.Probability)})
	}
	if rule.InterferonYield < 0 {
		issues = append(issues, Issue{Gene: gene, Message: fmt.Sprintf("rule %q negative interferon yield %d", rule.Name, rule.InterferonYield)})
	}
	for _, in := range rule.Inputs {
		if in.Quantity < 0 {
			issues = append(issues, Issue{Gene: gene, Message: fmt.Sprintf("rule %q input %s has negative quantity %d", rule.Name, in.Entity, in.Quantity)})
		}
	}
	for _, out := range rule.Outputs {
		if out.Quantity < 0 {
			issues = append(issues, Issue{Gene: gene, Message: fmt.Sprintf("rule %q output %s has negative quantity %d", rule.Name, out.Entity, out.Quantity)})
		}
	}
	return issues
}

// requireClosure returns the transitive prerequisites of name, excluding
// name itself. Unknown references are skipped; Validate reports them
// separately.
func requireClosure(db domain.Database, name string) []string {
	seen := map[string]struct{}{name: {}}
	var out []string
	stack := []string{name}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		def, ok := db.LookupGene(cur)
		if !ok {
			continue
		}
		for _, req := range def.Requires {
			if _, dup := seen[req]; dup {
				continue
			}
			seen[req] = struct{}{}
			out = append(out, req)
			stack = append(stack, req)
		}
	}
	return out
}

// requireCycles reports genes caught in a requires cycle. Uses the standard
// three-color depth-first sweep; each cycle is reported once, at the gene
// where the back edge closes it.
func requireCycles(genes []domain.GeneDefinition) []Issue {
	const (
		white = iota
		gray
		black
	)
	byName := make(map[string]domain.GeneDefinition, len(genes))
	for _, g := range genes {
		byName[g.Name] = g
	}
	color := make(map[string]int, len(genes))
	var issues []Issue

	var visit func(name string)
	visit = func(name string) {
		color[name] = gray
		for _, req := range byName[name].Requires {
			if _, known := byName[req]; !known {
				continue
			}
			switch color[req] {
			case white:
				visit(req)
			case gray:
				issues = append(issues, Issue{Gene: name, Message: fmt.Sprintf("requires cycle through %q", req)})
			}
		}
		color[name] = black
	}
	for _, g := range genes {
		if color[g.Name] == white {
			visit(g.Name)
		}
	}
	return issues
}
