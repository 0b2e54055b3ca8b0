package core

import "virocore/pkg/domain"

// DefaultMilestones returns the built-in milestone catalog. Catalog order is
// evaluation order; keep it stable since achieving one milestone credits the
// ledger read by predicates later in the same pass.
func DefaultMilestones() []domain.MilestoneDefinition {
	return []domain.MilestoneDefinition{
		{
			ID:          "first_gene",
			Name:        "First Gene",
			Description: "Install your first gene.",
			Reward:      10,
			Target:      1,
			Progress: func(bp domain.Blueprint, _ domain.LedgerView) float64 {
				return float64(len(bp.Genes))
			},
		},
		{
			ID:          "replication_ready",
			Name:        "Replication Ready",
			Description: "Install a polymerase gene so the genome can replicate.",
			Reward:      25,
			Target:      1,
			Progress: func(bp domain.Blueprint, _ domain.LedgerView) float64 {
				for _, g := range bp.Genes {
					if g.IsPolymerase {
						return 1
					}
				}
				return 0
			},
		},
		{
			ID:          "pathway_engineer",
			Name:        "Pathway Engineer",
			Description: "Compose five transition rules.",
			Reward:      20,
			Target:      5,
			Progress: func(bp domain.Blueprint, _ domain.LedgerView) float64 {
				return float64(len(bp.TransitionRules))
			},
		},
		{
			ID:          "broad_tropism",
			Name:        "Broad Tropism",
			Description: "Make five distinct entities reachable.",
			Reward:      15,
			Target:      5,
			Progress: func(bp domain.Blueprint, _ domain.LedgerView) float64 {
				return float64(len(bp.PossibleEntities))
			},
		},
		{
			ID:          "productive_exit",
			Name:        "Productive Exit",
			Description: "Build a pathway that produces new virions.",
			Reward:      30,
			Target:      1,
			Progress: func(bp domain.Blueprint, ledger domain.LedgerView) float64 {
				// Counts rules that output an entity other than the starter:
				// without a reference database here, any non-starter output
				// marks productive capability.
				for _, rule := range bp.TransitionRules {
					for _, out := range rule.Outputs {
						if out.Entity != ledger.StarterEntity() {
							return 1
						}
					}
				}
				return 0
			},
		},
		{
			ID:          "silent_runner",
			Name:        "Silent Runner",
			Description: "Compose three or more rules without any interferon yield.",
			Reward:      25,
			Target:      1,
			Progress: func(bp domain.Blueprint, _ domain.LedgerView) float64 {
				if len(bp.TransitionRules) >= 3 && bp.TotalInterferonYield() == 0 {
					return 1
				}
				return 0
			},
		},
		{
			ID:          "war_chest",
			Name:        "War Chest",
			Description: "Hold a balance of 50 points.",
			Reward:      5,
			Target:      50,
			Progress: func(_ domain.Blueprint, ledger domain.LedgerView) float64 {
				return float64(ledger.Balance())
			},
		},
	}
}

// evaluateMilestones runs one deterministic pass over the catalog: each
// not-yet-achieved milestone's progress is computed against (blueprint,
// ledger); on reaching target the achievement is recorded before the reward
// is credited, so re-evaluation can never re-award. Returns the partitioned
// report for presentation.
func evaluateMilestones(catalog []domain.MilestoneDefinition, bp domain.Blueprint, ledger *Ledger) domain.MilestoneReport {
	var report domain.MilestoneReport
	for _, m := range catalog {
		status := domain.MilestoneStatus{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			Reward:      m.Reward,
			Target:      m.Target,
		}
		if ledger.IsAchieved(m.ID) {
			status.Achieved = true
			status.Current = m.Target
			report.Achieved = append(report.Achieved, status)
			continue
		}
		current := float64(0)
		if m.Progress != nil {
			current = m.Progress(bp, ledger)
		}
		if current < 0 {
			current = 0
		}
		status.Current = current
		if current >= m.Target {
			if ledger.Achieve(m.ID) {
				ledger.Credit(m.Reward)
			}
			status.Achieved = true
			report.Achieved = append(report.Achieved, status)
			continue
		}
		report.Open = append(report.Open, status)
	}
	return report
}
