package core

import (
	"sort"

	"virocore/pkg/domain"
)

// Compose rebuilds the blueprint from scratch: replay every installed gene's
// effects in install order, effect by effect in declaration order. It is a
// pure function of (installed order, database, starter selection). No
// incremental patching, so there is no stale state to get wrong.
func Compose(db domain.Database, installed []string, starter string, starterCount int) (domain.Blueprint, error) {
	bp := domain.Blueprint{
		StartingEntities: map[string]int{},
		Genes:            []domain.GeneSummary{},
		TransitionRules:  []domain.TransitionRule{},
	}
	if starter != "" {
		bp.StartingEntities[starter] = starterCount
	}

	index := map[string]int{} // rule name -> position in TransitionRules
	for _, name := range installed {
		def, ok := db.LookupGene(name)
		if !ok {
			return domain.Blueprint{}, domain.LegalityError{Op: "compose", Subject: name, Reason: domain.ReasonUnknownGene}
		}
		bp.Genes = append(bp.Genes, domain.GeneSummary{Name: def.Name, Cost: def.Cost, IsPolymerase: def.IsPolymerase})
		for _, effect := range def.Effects {
			switch effect.Type {
			case domain.EffectAddTransition:
				if effect.Rule == nil {
					return domain.Blueprint{}, domain.DataIntegrityError{Gene: name, Reason: domain.ReasonInvalidOperation}
				}
				rule := effect.Rule.Clone()
				if _, dup := index[rule.Name]; dup {
					return domain.Blueprint{}, domain.DataIntegrityError{Gene: name, RuleName: rule.Name, Reason: domain.ReasonDuplicateRuleName}
				}
				index[rule.Name] = len(bp.TransitionRules)
				bp.TransitionRules = append(bp.TransitionRules, rule)
			case domain.EffectModifyTransition:
				// The target must have been added by an effect replayed
				// earlier in this pass; anything else is malformed data.
				pos, found := index[effect.RuleName]
				if !found {
					return domain.Blueprint{}, domain.DataIntegrityError{Gene: name, RuleName: effect.RuleName, Reason: domain.ReasonUnknownRuleReference}
				}
				if effect.Modification != nil {
					applyModification(&bp.TransitionRules[pos], *effect.Modification)
				}
			default:
				return domain.Blueprint{}, domain.DataIntegrityError{Gene: name, RuleName: effect.RuleName, Reason: domain.ReasonInvalidOperation}
			}
		}
	}

	bp.PossibleEntities = possibleEntities(bp)
	return bp, nil
}

func applyModification(rule *domain.TransitionRule, mod domain.RuleModification) {
	rule.Probability += mod.ProbabilityDelta
	if rule.Probability < 0 {
		rule.Probability = 0
	}
	if rule.Probability > 1 {
		rule.Probability = 1
	}
	rule.InterferonYield += mod.InterferonDelta
	if rule.InterferonYield < 0 {
		rule.InterferonYield = 0
	}
}

func possibleEntities(bp domain.Blueprint) []string {
	set := make(map[string]struct{})
	for name := range bp.StartingEntities {
		set[name] = struct{}{}
	}
	for _, rule := range bp.TransitionRules {
		for _, in := range rule.Inputs {
			set[in.Entity] = struct{}{}
		}
		for _, out := range rule.Outputs {
			set[out.Entity] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
