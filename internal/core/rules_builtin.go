package core

import (
	"context"
	"fmt"
	"strings"

	"virocore/pkg/domain"
)

// NewDefaultRulesEngine builds a rules engine with the built-in invariant set.
// These rules run against the pending state of every mutating operation; a
// blocking violation rolls the operation back, so the invariants hold
// continuously rather than only at install time.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(PrerequisiteClosureRule())
	engine.Register(PolymeraseLimitRule())
	engine.Register(NonNegativeBalanceRule())
	engine.Register(UniqueRuleNamesRule())
	return engine
}

// PrerequisiteClosureRule blocks any state where an installed gene's
// prerequisite is not itself installed.
func PrerequisiteClosureRule() domain.Rule { return prerequisiteClosureRule{} }

type prerequisiteClosureRule struct{}

func (prerequisiteClosureRule) Name() string { return "prerequisite_closure" }

func (r prerequisiteClosureRule) Evaluate(_ context.Context, view domain.SessionView) (domain.Result, error) {
	installed := view.InstalledGenes()
	present := make(map[string]struct{}, len(installed))
	for _, g := range installed {
		present[g.Name] = struct{}{}
	}
	var result domain.Result
	for _, g := range installed {
		var missing []string
		for _, req := range g.Requires {
			if _, ok := present[req]; !ok {
				missing = append(missing, req)
			}
		}
		if len(missing) > 0 {
			result.Violations = append(result.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Gene:     g.Name,
				Message:  fmt.Sprintf("gene %s missing prerequisites: %s", g.Name, strings.Join(missing, ", ")),
			})
		}
	}
	return result, nil
}

// PolymeraseLimitRule blocks any state with more than one polymerase gene.
func PolymeraseLimitRule() domain.Rule { return polymeraseLimitRule{} }

type polymeraseLimitRule struct{}

func (polymeraseLimitRule) Name() string { return "polymerase_limit" }

func (r polymeraseLimitRule) Evaluate(_ context.Context, view domain.SessionView) (domain.Result, error) {
	var poly []string
	for _, g := range view.InstalledGenes() {
		if g.IsPolymerase {
			poly = append(poly, g.Name)
		}
	}
	var result domain.Result
	if len(poly) > 1 {
		result.Violations = append(result.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("multiple polymerase genes installed: %s", strings.Join(poly, ", ")),
		})
	}
	return result, nil
}

// NonNegativeBalanceRule blocks any state with a negative point balance.
func NonNegativeBalanceRule() domain.Rule { return nonNegativeBalanceRule{} }

type nonNegativeBalanceRule struct{}

func (nonNegativeBalanceRule) Name() string { return "non_negative_balance" }

func (r nonNegativeBalanceRule) Evaluate(_ context.Context, view domain.SessionView) (domain.Result, error) {
	var result domain.Result
	if view.Balance() < 0 {
		result.Violations = append(result.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("point balance is negative: %d", view.Balance()),
		})
	}
	return result, nil
}

// UniqueRuleNamesRule blocks any composed blueprint carrying duplicate
// transition rule names. Composition already rejects duplicates with a
// data-integrity error; this guards derived state handed to rules directly.
func UniqueRuleNamesRule() domain.Rule { return uniqueRuleNamesRule{} }

type uniqueRuleNamesRule struct{}

func (uniqueRuleNamesRule) Name() string { return "unique_rule_names" }

func (r uniqueRuleNamesRule) Evaluate(_ context.Context, view domain.SessionView) (domain.Result, error) {
	seen := make(map[string]struct{})
	var result domain.Result
	for _, rule := range view.Blueprint().TransitionRules {
		if _, dup := seen[rule.Name]; dup {
			result.Violations = append(result.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("duplicate transition rule name %q", rule.Name),
			})
			continue
		}
		seen[rule.Name] = struct{}{}
	}
	return result, nil
}
