package core

import (
	"testing"

	"virocore/pkg/domain"
)

func TestEvaluateMilestonesCreditsBeforeLaterPredicates(t *testing.T) {
	catalog := []domain.MilestoneDefinition{
		{
			ID: "always", Reward: 40, Target: 1,
			Progress: func(domain.Blueprint, domain.LedgerView) float64 { return 1 },
		},
		{
			ID: "rich", Reward: 5, Target: 50,
			Progress: func(_ domain.Blueprint, l domain.LedgerView) float64 { return float64(l.Balance()) },
		},
	}
	ledger := NewLedger(10)
	report := evaluateMilestones(catalog, domain.Blueprint{}, ledger)
	// "always" credits 40 first, lifting the balance to 50 for "rich".
	if len(report.Achieved) != 2 {
		t.Fatalf("achieved = %d, want 2", len(report.Achieved))
	}
	if ledger.Balance() != 55 {
		t.Fatalf("balance = %d, want 55", ledger.Balance())
	}
}

func TestEvaluateMilestonesIsIdempotent(t *testing.T) {
	catalog := []domain.MilestoneDefinition{{
		ID: "once", Reward: 10, Target: 1,
		Progress: func(domain.Blueprint, domain.LedgerView) float64 { return 1 },
	}}
	ledger := NewLedger(0)
	evaluateMilestones(catalog, domain.Blueprint{}, ledger)
	evaluateMilestones(catalog, domain.Blueprint{}, ledger)
	if ledger.Balance() != 10 {
		t.Fatalf("balance = %d, want reward credited once", ledger.Balance())
	}
}

func TestEvaluateMilestonesReportsOpenProgress(t *testing.T) {
	catalog := []domain.MilestoneDefinition{{
		ID: "rules", Reward: 10, Target: 5,
		Progress: func(bp domain.Blueprint, _ domain.LedgerView) float64 {
			return float64(len(bp.TransitionRules))
		},
	}}
	bp := domain.Blueprint{TransitionRules: []domain.TransitionRule{{Name: "a"}, {Name: "b"}}}
	report := evaluateMilestones(catalog, bp, NewLedger(0))
	if len(report.Open) != 1 {
		t.Fatalf("open = %d, want 1", len(report.Open))
	}
	status := report.Open[0]
	if status.Current != 2 || status.Target != 5 || status.Achieved {
		t.Fatalf("status = %+v", status)
	}
}

func TestDefaultMilestonesCatalogStable(t *testing.T) {
	catalog := DefaultMilestones()
	wantOrder := []string{"first_gene", "replication_ready", "pathway_engineer", "broad_tropism", "productive_exit", "silent_runner", "war_chest"}
	if len(catalog) != len(wantOrder) {
		t.Fatalf("catalog size = %d", len(catalog))
	}
	for i, m := range catalog {
		if m.ID != wantOrder[i] {
			t.Fatalf("catalog[%d] = %s, want %s", i, m.ID, wantOrder[i])
		}
		if m.Progress == nil {
			t.Fatalf("milestone %s has no progress function", m.ID)
		}
	}
}
