package domain

import (
	"fmt"
	"strings"
)

// Reason classifies why an operation is illegal or why reference data is
// malformed. Every value maps to one entry of the engine's error taxonomy.
type Reason string

const (
	ReasonUnknownGene          Reason = "unknown_gene"
	ReasonUnknownEntity        Reason = "unknown_entity"
	ReasonAlreadyInstalled     Reason = "already_installed"
	ReasonNotInstalled         Reason = "not_installed"
	ReasonMissingPrerequisites Reason = "missing_prerequisites"
	ReasonPolymeraseLimit      Reason = "polymerase_limit"
	ReasonInsufficientPoints   Reason = "insufficient_points"
	ReasonDuplicateRuleName    Reason = "duplicate_rule_name"
	ReasonUnknownRuleReference Reason = "unknown_rule_reference"
	ReasonInvalidOperation     Reason = "invalid_operation"
)

// LegalityError reports a rejected install/remove/starter operation. These are
// ordinary, recoverable rejections of caller-supplied intent; state is never
// partially mutated when one is returned.
type LegalityError struct {
	Op      string
	Subject string
	Reason  Reason
	Missing []string // populated for missing_prerequisites
}

func (e LegalityError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s %s: %s (%s)", e.Op, e.Subject, e.Reason, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Subject, e.Reason)
}

// DataIntegrityError reports a malformed gene effect list discovered during
// blueprint composition: a duplicate rule name, or a modification targeting a
// rule no earlier effect added. It indicates bad reference data rather than an
// illegal player action, and callers should log it accordingly.
type DataIntegrityError struct {
	Gene     string
	RuleName string
	Reason   Reason
}

func (e DataIntegrityError) Error() string {
	return fmt.Sprintf("gene %s: rule %s: %s", e.Gene, e.RuleName, e.Reason)
}

// ReasonOf extracts the taxonomy reason carried by err, if any.
func ReasonOf(err error) (Reason, bool) {
	switch e := err.(type) {
	case LegalityError:
		return e.Reason, true
	case *LegalityError:
		return e.Reason, true
	case DataIntegrityError:
		return e.Reason, true
	case *DataIntegrityError:
		return e.Reason, true
	}
	return "", false
}
