package domain

import (
	"strings"
	"testing"
)

func TestReasonOf(t *testing.T) {
	cases := []struct {
		err  error
		want Reason
		ok   bool
	}{
		{LegalityError{Op: "install", Subject: "X", Reason: ReasonUnknownGene}, ReasonUnknownGene, true},
		{&LegalityError{Reason: ReasonInsufficientPoints}, ReasonInsufficientPoints, true},
		{DataIntegrityError{Gene: "G", RuleName: "r", Reason: ReasonDuplicateRuleName}, ReasonDuplicateRuleName, true},
		{&DataIntegrityError{Reason: ReasonUnknownRuleReference}, ReasonUnknownRuleReference, true},
		{RuleViolationError{}, "", false},
		{nil, "", false},
	}
	for _, tc := range cases {
		got, ok := ReasonOf(tc.err)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ReasonOf(%v) = %q, %v; want %q, %v", tc.err, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLegalityErrorListsMissingPrerequisites(t *testing.T) {
	err := LegalityError{Op: "install", Subject: "CapEnz", Reason: ReasonMissingPrerequisites, Missing: []string{"Uncoat", "PolA"}}
	msg := err.Error()
	if !strings.Contains(msg, "missing_prerequisites") || !strings.Contains(msg, "Uncoat, PolA") {
		t.Fatalf("message = %q", msg)
	}
}
