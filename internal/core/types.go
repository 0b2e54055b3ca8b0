package core

import "virocore/pkg/domain"

type (
	GeneDefinition      = domain.GeneDefinition
	GeneEffect          = domain.GeneEffect
	TransitionRule      = domain.TransitionRule
	EntityDefinition    = domain.EntityDefinition
	EntityAmount        = domain.EntityAmount
	Blueprint           = domain.Blueprint
	GeneSummary         = domain.GeneSummary
	MilestoneDefinition = domain.MilestoneDefinition
	MilestoneStatus     = domain.MilestoneStatus
	MilestoneReport     = domain.MilestoneReport
	Reason              = domain.Reason
	LegalityError       = domain.LegalityError
	DataIntegrityError  = domain.DataIntegrityError
	Result              = domain.Result
	Violation           = domain.Violation
	RuleViolationError  = domain.RuleViolationError
	Database            = domain.Database
)

const (
	ReasonUnknownGene          = domain.ReasonUnknownGene
	ReasonUnknownEntity        = domain.ReasonUnknownEntity
	ReasonAlreadyInstalled     = domain.ReasonAlreadyInstalled
	ReasonNotInstalled         = domain.ReasonNotInstalled
	ReasonMissingPrerequisites = domain.ReasonMissingPrerequisites
	ReasonPolymeraseLimit      = domain.ReasonPolymeraseLimit
	ReasonInsufficientPoints   = domain.ReasonInsufficientPoints
	ReasonDuplicateRuleName    = domain.ReasonDuplicateRuleName
	ReasonUnknownRuleReference = domain.ReasonUnknownRuleReference
	ReasonInvalidOperation     = domain.ReasonInvalidOperation
)
