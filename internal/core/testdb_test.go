package core

import (
	"testing"

	"virocore/internal/infra/genedb/memory"
	"virocore/pkg/domain"
)

func ruleUncoating() domain.TransitionRule {
	return domain.TransitionRule{
		Name:        "uncoating",
		Probability: 0.9,
		Inputs:      []domain.EntityAmount{{Entity: "Virion-X", Quantity: 1}},
		Outputs:     []domain.EntityAmount{{Entity: "Core-RNA", Quantity: 1}},
	}
}

func testDatabase(t *testing.T) *memory.Store {
	t.Helper()
	db := memory.NewStore()
	entities := []domain.EntityDefinition{
		{Name: "Virion-X", Class: domain.ClassVirion, Location: domain.LocationExtracellular},
		{Name: "Core-RNA", Class: domain.ClassRNA, Location: domain.LocationCytoplasm},
		{Name: "CapProt", Class: domain.ClassProtein, Location: domain.LocationCytoplasm},
	}
	for _, e := range entities {
		if err := db.AddEntity(e); err != nil {
			t.Fatalf("add entity %s: %v", e.Name, err)
		}
	}
	uncoating := ruleUncoating()
	capping := domain.TransitionRule{
		Name:            "capping",
		Probability:     0.5,
		Inputs:          []domain.EntityAmount{{Entity: "Core-RNA", Quantity: 1}},
		Outputs:         []domain.EntityAmount{{Entity: "CapProt", Quantity: 1}},
		InterferonYield: 2,
	}
	replication := domain.TransitionRule{
		Name:        "replication",
		Probability: 0.7,
		Inputs:      []domain.EntityAmount{{Entity: "Core-RNA", Quantity: 1}},
		Outputs:     []domain.EntityAmount{{Entity: "Core-RNA", Quantity: 2}},
	}
	genes := []domain.GeneDefinition{
		{
			Name:    "Uncoat",
			Cost:    10,
			Effects: []domain.GeneEffect{{Type: domain.EffectAddTransition, Rule: &uncoating}},
		},
		{
			Name:       "CapEnz",
			Cost:       15,
			RemoveCost: 2,
			Requires:   []string{"Uncoat"},
			Effects:    []domain.GeneEffect{{Type: domain.EffectAddTransition, Rule: &capping}},
		},
		{
			Name:     "Booster",
			Cost:     5,
			Requires: []string{"Uncoat"},
			Effects: []domain.GeneEffect{{
				Type:         domain.EffectModifyTransition,
				RuleName:     "uncoating",
				Modification: &domain.RuleModification{ProbabilityDelta: 0.05},
			}},
		},
		{
			Name:         "PolA",
			Cost:         20,
			IsPolymerase: true,
			Requires:     []string{"Uncoat"},
			Effects:      []domain.GeneEffect{{Type: domain.EffectAddTransition, Rule: &replication}},
		},
		{
			Name:         "PolB",
			Cost:         20,
			IsPolymerase: true,
		},
	}
	for _, g := range genes {
		if err := db.AddGene(g); err != nil {
			t.Fatalf("add gene %s: %v", g.Name, err)
		}
	}
	return db
}
