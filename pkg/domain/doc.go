// Package domain holds the pure virus-engineering domain model: gene and
// entity reference definitions, transition rules, composed blueprints,
// milestones, the legality reason taxonomy, and the rules engine contract.
// It must stay free of engine and infrastructure imports so that reference
// data providers and the composition engine can share it without cycles.
package domain
