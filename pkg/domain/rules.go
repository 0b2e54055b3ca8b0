package domain

import "context"

// Severity ranks rule violations.
type Severity string

const (
	// SeverityBlock violations abort the operation that produced them.
	SeverityBlock Severity = "block"
	// SeverityWarn violations are reported but do not abort.
	SeverityWarn Severity = "warn"
	// SeverityLog violations are informational.
	SeverityLog Severity = "log"
)

// Violation describes one rule finding.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Gene     string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "operation blocked by rules"
}

// SessionView exposes a read-only snapshot of session state to rules: the
// would-be state after the pending operation, before it commits.
type SessionView interface {
	// InstalledGenes returns the installed gene definitions in install order.
	InstalledGenes() []GeneDefinition
	// Blueprint returns the blueprint composed from the pending state.
	Blueprint() Blueprint
	// Balance returns the pending point balance.
	Balance() int
	// Database returns the shared read-only reference data.
	Database() Database
}

// Rule defines an invariant evaluated against the pending state of every
// mutating operation. A blocking violation rolls the operation back.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view SessionView) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view SessionView) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
