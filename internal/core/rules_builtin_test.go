package core

import (
	"context"
	"testing"

	"virocore/pkg/domain"
)

func TestPrerequisiteClosureRule(t *testing.T) {
	db := testDatabase(t)
	capEnz, _ := db.LookupGene("CapEnz")
	view := sessionView{db: db, genes: []domain.GeneDefinition{capEnz}}

	res, err := PrerequisiteClosureRule().Evaluate(context.Background(), view)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatal("missing prerequisite not flagged")
	}
	if res.Violations[0].Gene != "CapEnz" {
		t.Fatalf("violation = %+v", res.Violations[0])
	}
}

func TestPolymeraseLimitRule(t *testing.T) {
	db := testDatabase(t)
	polA, _ := db.LookupGene("PolA")
	polB, _ := db.LookupGene("PolB")

	res, err := PolymeraseLimitRule().Evaluate(context.Background(), sessionView{db: db, genes: []domain.GeneDefinition{polA}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.HasBlocking() {
		t.Fatal("single polymerase flagged")
	}

	res, err = PolymeraseLimitRule().Evaluate(context.Background(), sessionView{db: db, genes: []domain.GeneDefinition{polA, polB}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatal("two polymerases not flagged")
	}
}

func TestNonNegativeBalanceRule(t *testing.T) {
	res, err := NonNegativeBalanceRule().Evaluate(context.Background(), sessionView{balance: -1})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatal("negative balance not flagged")
	}
}

func TestUniqueRuleNamesRule(t *testing.T) {
	bp := domain.Blueprint{TransitionRules: []domain.TransitionRule{{Name: "dup"}, {Name: "dup"}}}
	res, err := UniqueRuleNamesRule().Evaluate(context.Background(), sessionView{bp: bp})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatal("duplicate rule names not flagged")
	}
}
