package core

import "virocore/pkg/domain"

// Builder owns the ordered sequence of installed gene names. Insertion order
// is semantically significant: it is the order gene effects replay in during
// blueprint composition.
type Builder struct {
	db        domain.Database
	installed []string
}

// NewBuilder constructs an empty builder over the shared reference database.
func NewBuilder(db domain.Database) *Builder {
	return &Builder{db: db}
}

// Installed returns a copy of the installed gene names in install order.
func (b *Builder) Installed() []string {
	return append([]string(nil), b.installed...)
}

// InstalledGenes resolves the installed names against the database, in
// install order. Names are guaranteed present: install rejects unknown genes.
func (b *Builder) InstalledGenes() []domain.GeneDefinition {
	out := make([]domain.GeneDefinition, 0, len(b.installed))
	for _, name := range b.installed {
		if def, ok := b.db.LookupGene(name); ok {
			out = append(out, def)
		}
	}
	return out
}

// IsInstalled reports whether name is currently installed.
func (b *Builder) IsInstalled(name string) bool {
	for _, n := range b.installed {
		if n == name {
			return true
		}
	}
	return false
}

// HasPolymerase reports whether a polymerase gene is installed.
func (b *Builder) HasPolymerase() bool {
	_, ok := b.PolymeraseGene()
	return ok
}

// PolymeraseGene returns the name of the (at most one) installed polymerase
// gene.
func (b *Builder) PolymeraseGene() (string, bool) {
	for _, name := range b.installed {
		if def, ok := b.db.LookupGene(name); ok && def.IsPolymerase {
			return name, true
		}
	}
	return "", false
}

// CanInstall checks install legality in the fixed taxonomy order: unknown
// gene, already installed, missing prerequisites, polymerase limit, then
// affordability. The first failing check wins so rejection reasons are
// deterministic. Missing prerequisite names are returned for presentation.
func (b *Builder) CanInstall(ledger *Ledger, name string) (bool, domain.Reason, []string) {
	def, ok := b.db.LookupGene(name)
	if !ok {
		return false, domain.ReasonUnknownGene, nil
	}
	if !ledger.InDeck(name) {
		return false, domain.ReasonUnknownGene, nil
	}
	if b.IsInstalled(name) {
		return false, domain.ReasonAlreadyInstalled, nil
	}
	var missing []string
	for _, req := range def.Requires {
		if !b.IsInstalled(req) {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return false, domain.ReasonMissingPrerequisites, missing
	}
	if def.IsPolymerase && b.HasPolymerase() {
		return false, domain.ReasonPolymeraseLimit, nil
	}
	if ledger.Balance() < def.Cost {
		return false, domain.ReasonInsufficientPoints, nil
	}
	return true, "", nil
}

// CanRemove checks remove legality: the gene must be installed and the
// ledger must cover its remove cost.
func (b *Builder) CanRemove(ledger *Ledger, name string) (bool, domain.Reason) {
	if !b.IsInstalled(name) {
		return false, domain.ReasonNotInstalled
	}
	def, _ := b.db.LookupGene(name)
	if ledger.Balance() < def.RemoveCost {
		return false, domain.ReasonInsufficientPoints
	}
	return true, ""
}

// install appends name to the installed sequence. Callers validate first.
func (b *Builder) install(name string) {
	b.installed = append(b.installed, name)
}

// DependentClosure returns every installed gene whose requires list, directly
// or transitively, includes name. The result is in install order and does not
// include name itself.
func (b *Builder) DependentClosure(name string) []string {
	doomed := map[string]struct{}{name: {}}
	// The installed sequence respects prerequisite order, so a single forward
	// sweep reaches the full transitive closure.
	for _, candidate := range b.installed {
		def, ok := b.db.LookupGene(candidate)
		if !ok {
			continue
		}
		for _, req := range def.Requires {
			if _, hit := doomed[req]; hit {
				doomed[candidate] = struct{}{}
				break
			}
		}
	}
	out := make([]string, 0, len(doomed)-1)
	for _, n := range b.installed {
		if n == name {
			continue
		}
		if _, hit := doomed[n]; hit {
			out = append(out, n)
		}
	}
	return out
}

// remove deletes name plus its transitive dependents from the installed
// sequence, in reverse install order, and returns the removed names in
// removal order. Callers validate first.
func (b *Builder) remove(name string) []string {
	doomed := map[string]struct{}{name: {}}
	for _, dep := range b.DependentClosure(name) {
		doomed[dep] = struct{}{}
	}
	removed := make([]string, 0, len(doomed))
	for i := len(b.installed) - 1; i >= 0; i-- {
		if _, hit := doomed[b.installed[i]]; hit {
			removed = append(removed, b.installed[i])
			b.installed = append(b.installed[:i], b.installed[i+1:]...)
		}
	}
	return removed
}

func (b *Builder) clone() *Builder {
	return &Builder{db: b.db, installed: append([]string(nil), b.installed...)}
}
