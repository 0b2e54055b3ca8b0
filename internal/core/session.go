package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"virocore/pkg/domain"
)

// Operation names used for audit, metrics, and tracing.
const (
	opInstall         = "install_gene"
	opRemove          = "remove_gene"
	opSetStarter      = "set_starter"
	opSetStarterCount = "set_starter_count"
	opCompose         = "compose_blueprint"
	opMilestones      = "evaluate_milestones"
)

// Session is the virus-building session: it owns the ledger and the builder,
// shares the reference database read-only, and exposes the install/remove/
// starter operations. Every mutating operation is atomic: it either fully
// commits (new installed set, new balance, fresh blueprint) or leaves state
// untouched, and runs the invariant rules against the pending state before
// committing. Milestones are evaluated after each successful mutation.
//
// A single mutex serializes operations; the engine is otherwise synchronous
// and single-writer by design.
type Session struct {
	mu      sync.Mutex
	db      domain.Database
	ledger  *Ledger
	builder *Builder
	engine  *domain.RulesEngine
	catalog []domain.MilestoneDefinition

	audit   AuditLogger
	metrics MetricsRecorder
	tracer  Tracer
	nowFn   func() time.Time

	// blueprint caches the last composition; nil means stale.
	blueprint *domain.Blueprint
}

// Option configures a Session.
type Option func(*Session)

// WithBalance sets the opening point balance.
func WithBalance(balance int) Option {
	return func(s *Session) { s.ledger.balance = balance }
}

// WithDeck restricts installs to the given gene names.
func WithDeck(names []string) Option {
	return func(s *Session) { s.ledger.SetDeck(names) }
}

// WithRules replaces the default invariant rules engine.
func WithRules(engine *domain.RulesEngine) Option {
	return func(s *Session) { s.engine = engine }
}

// WithMilestones replaces the default milestone catalog.
func WithMilestones(catalog []domain.MilestoneDefinition) Option {
	return func(s *Session) { s.catalog = catalog }
}

// WithAuditLogger wires an audit trail recorder.
func WithAuditLogger(audit AuditLogger) Option {
	return func(s *Session) {
		if audit != nil {
			s.audit = audit
		}
	}
}

// WithMetricsRecorder wires an operation metrics recorder.
func WithMetricsRecorder(metrics MetricsRecorder) Option {
	return func(s *Session) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithTracer wires an operation tracer.
func WithTracer(tracer Tracer) Option {
	return func(s *Session) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// NewSession constructs a session over the shared reference database. The
// starter defaults to the first virion-class entity in stable database order
// with a count of ten; SetStarter/SetStarterCount override it.
func NewSession(db domain.Database, opts ...Option) *Session {
	s := &Session{
		db:      db,
		ledger:  NewLedger(0),
		builder: NewBuilder(db),
		engine:  NewDefaultRulesEngine(),
		catalog: DefaultMilestones(),
		audit:   noopAudit{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
	for _, entity := range db.AllEntities() {
		if entity.Class == domain.ClassVirion {
			s.ledger.setStarter(entity.Name)
			break
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Database returns the shared read-only reference data.
func (s *Session) Database() domain.Database { return s.db }

// Balance returns the current point balance.
func (s *Session) Balance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Balance()
}

// Credit adds points to the balance (external rewards).
func (s *Session) Credit(amount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Credit(amount)
}

// Deck returns the configured deck.
func (s *Session) Deck() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Deck()
}

// InstalledGenes returns the installed gene names in install order.
func (s *Session) InstalledGenes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.Installed()
}

// HasPolymerase reports whether a polymerase gene is installed.
func (s *Session) HasPolymerase() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.HasPolymerase()
}

// PolymeraseGene returns the installed polymerase gene name, if any.
func (s *Session) PolymeraseGene() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.PolymeraseGene()
}

// StarterEntity returns the selected starter entity name.
func (s *Session) StarterEntity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.StarterEntity()
}

// StarterCount returns the starting entity count.
func (s *Session) StarterCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.StarterCount()
}

// StarterCandidates lists virion-class entities eligible as starters.
func (s *Session) StarterCandidates() []string {
	var out []string
	for _, entity := range s.db.AllEntities() {
		if entity.Class == domain.ClassVirion {
			out = append(out, entity.Name)
		}
	}
	return out
}

// CanInstall checks install legality without side effects. The reason is
// empty when allowed.
func (s *Session) CanInstall(name string) (bool, domain.Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	allowed, reason, _ := s.builder.CanInstall(s.ledger, name)
	return allowed, reason
}

// CanRemove checks remove legality without side effects.
func (s *Session) CanRemove(name string) (bool, domain.Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.CanRemove(s.ledger, name)
}

// DependentClosure previews which installed genes removal of name would take
// with it, in install order.
func (s *Session) DependentClosure(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.DependentClosure(name)
}

// Install deducts the gene's cost, appends it to the installed sequence, and
// recomposes the blueprint. Fails without side effects when legality checks,
// composition, or invariant rules reject the pending state.
func (s *Session) Install(ctx context.Context, name string) (domain.Blueprint, domain.Result, error) {
	started := s.nowFn()
	ctx, span := s.tracer.Start(ctx, opInstall)
	bp, res, err := s.installLocked(ctx, name)
	span.End(err)
	s.observe(ctx, opInstall, name, started, err)
	return bp, res, err
}

func (s *Session) installLocked(ctx context.Context, name string) (domain.Blueprint, domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed, reason, missing := s.builder.CanInstall(s.ledger, name)
	if !allowed {
		return domain.Blueprint{}, domain.Result{}, domain.LegalityError{Op: "install", Subject: name, Reason: reason, Missing: missing}
	}
	def, _ := s.db.LookupGene(name)

	ledger := s.ledger.clone()
	builder := s.builder.clone()
	if err := ledger.Spend(def.Cost); err != nil {
		return domain.Blueprint{}, domain.Result{}, err
	}
	builder.install(name)

	bp, res, err := s.settle(ctx, ledger, builder)
	if err != nil {
		return domain.Blueprint{}, res, err
	}
	s.commit(ledger, builder, bp)
	return bp.Clone(), res, nil
}

// RemoveOutcome reports what a remove operation took out and the blueprint
// composed afterward.
type RemoveOutcome struct {
	// Removed lists removed gene names in removal order (reverse install
	// order); the explicitly requested gene is included.
	Removed   []string
	Blueprint domain.Blueprint
}

// Remove charges the gene's remove cost, then removes it together with its
// transitive dependent closure (dependents fall out free) in reverse
// install order. All-or-nothing: an unaffordable remove cost rejects the
// whole operation with no partial removal.
func (s *Session) Remove(ctx context.Context, name string) (RemoveOutcome, domain.Result, error) {
	started := s.nowFn()
	ctx, span := s.tracer.Start(ctx, opRemove)
	outcome, res, err := s.removeLocked(ctx, name)
	span.End(err)
	s.observe(ctx, opRemove, name, started, err)
	return outcome, res, err
}

func (s *Session) removeLocked(ctx context.Context, name string) (RemoveOutcome, domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed, reason := s.builder.CanRemove(s.ledger, name)
	if !allowed {
		return RemoveOutcome{}, domain.Result{}, domain.LegalityError{Op: "remove", Subject: name, Reason: reason}
	}
	def, _ := s.db.LookupGene(name)

	ledger := s.ledger.clone()
	builder := s.builder.clone()
	if err := ledger.Spend(def.RemoveCost); err != nil {
		return RemoveOutcome{}, domain.Result{}, err
	}
	removed := builder.remove(name)

	bp, res, err := s.settle(ctx, ledger, builder)
	if err != nil {
		return RemoveOutcome{}, res, err
	}
	s.commit(ledger, builder, bp)
	return RemoveOutcome{Removed: removed, Blueprint: bp.Clone()}, res, nil
}

// SetStarter replaces the starter entity selection. The entity must exist in
// the database. Invalidates the cached blueprint.
func (s *Session) SetStarter(ctx context.Context, name string) error {
	started := s.nowFn()
	ctx, span := s.tracer.Start(ctx, opSetStarter)
	err := s.setStarterLocked(name)
	span.End(err)
	s.observe(ctx, opSetStarter, name, started, err)
	return err
}

func (s *Session) setStarterLocked(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.db.LookupEntity(name); !ok {
		return domain.LegalityError{Op: "set_starter", Subject: name, Reason: domain.ReasonUnknownEntity}
	}
	s.ledger.setStarter(name)
	s.blueprint = nil
	return nil
}

// SetStarterCount replaces the starting entity count (n >= 1). Invalidates
// the cached blueprint.
func (s *Session) SetStarterCount(ctx context.Context, n int) error {
	started := s.nowFn()
	ctx, span := s.tracer.Start(ctx, opSetStarterCount)
	err := s.setStarterCountLocked(n)
	span.End(err)
	s.observe(ctx, opSetStarterCount, "", started, err)
	return err
}

func (s *Session) setStarterCountLocked(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.setStarterCount(n); err != nil {
		return err
	}
	s.blueprint = nil
	return nil
}

// Blueprint returns the current composed blueprint, recomposing only when the
// cache is stale. Composition is deterministic, so two calls without an
// intervening mutation return identical results.
func (s *Session) Blueprint(ctx context.Context) (domain.Blueprint, error) {
	started := s.nowFn()
	ctx, span := s.tracer.Start(ctx, opCompose)
	bp, err := s.blueprintLocked()
	span.End(err)
	s.observe(ctx, opCompose, "", started, err)
	return bp, err
}

func (s *Session) blueprintLocked() (domain.Blueprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blueprint != nil {
		return s.blueprint.Clone(), nil
	}
	bp, err := Compose(s.db, s.builder.installed, s.ledger.StarterEntity(), s.ledger.StarterCount())
	if err != nil {
		return domain.Blueprint{}, err
	}
	s.blueprint = &bp
	return bp.Clone(), nil
}

// EvaluateMilestones runs one milestone pass over the current blueprint and
// ledger. Achievements are monotonic and rewards credit exactly once;
// re-evaluating without a state change is a no-op.
func (s *Session) EvaluateMilestones(ctx context.Context) (domain.MilestoneReport, error) {
	started := s.nowFn()
	ctx, span := s.tracer.Start(ctx, opMilestones)
	report, err := s.milestonesLocked()
	span.End(err)
	s.observe(ctx, opMilestones, "", started, err)
	return report, err
}

func (s *Session) milestonesLocked() (domain.MilestoneReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp, err := s.composeCached()
	if err != nil {
		return domain.MilestoneReport{}, err
	}
	return evaluateMilestones(s.catalog, bp, s.ledger), nil
}

// composeCached returns the cached blueprint, composing if stale. Callers
// hold the session mutex.
func (s *Session) composeCached() (domain.Blueprint, error) {
	if s.blueprint != nil {
		return *s.blueprint, nil
	}
	bp, err := Compose(s.db, s.builder.installed, s.ledger.StarterEntity(), s.ledger.StarterCount())
	if err != nil {
		return domain.Blueprint{}, err
	}
	s.blueprint = &bp
	return bp, nil
}

// settle composes the blueprint for the pending state and runs the invariant
// rules against it. Callers hold the session mutex.
func (s *Session) settle(ctx context.Context, ledger *Ledger, builder *Builder) (domain.Blueprint, domain.Result, error) {
	bp, err := Compose(s.db, builder.installed, ledger.StarterEntity(), ledger.StarterCount())
	if err != nil {
		return domain.Blueprint{}, domain.Result{}, err
	}
	if s.engine == nil {
		return bp, domain.Result{}, nil
	}
	view := sessionView{db: s.db, genes: builder.InstalledGenes(), bp: bp, balance: ledger.Balance()}
	res, err := s.engine.Evaluate(ctx, view)
	if err != nil {
		return domain.Blueprint{}, domain.Result{}, err
	}
	if res.HasBlocking() {
		return domain.Blueprint{}, res, domain.RuleViolationError{Result: res}
	}
	return bp, res, nil
}

// commit swaps in the staged state and milestone-evaluates it. Callers hold
// the session mutex.
func (s *Session) commit(ledger *Ledger, builder *Builder, bp domain.Blueprint) {
	s.ledger = ledger
	s.builder = builder
	s.blueprint = &bp
	evaluateMilestones(s.catalog, bp, s.ledger)
}

func (s *Session) observe(ctx context.Context, op, subject string, started time.Time, err error) {
	s.metrics.Observe(ctx, op, err == nil, s.nowFn().Sub(started))
	reason, _ := domain.ReasonOf(err)
	s.audit.Record(ctx, AuditEntry{
		ID:         newAuditID(),
		Operation:  op,
		Subject:    subject,
		Status:     auditStatusOf(err),
		Reason:     reason,
		Balance:    s.Balance(),
		OccurredAt: s.nowFn(),
	})
}

func auditStatusOf(err error) AuditStatus {
	if err == nil {
		return AuditOK
	}
	var legality domain.LegalityError
	if errors.As(err, &legality) {
		return AuditRejected
	}
	var blocked domain.RuleViolationError
	if errors.As(err, &blocked) {
		return AuditBlocked
	}
	return AuditError
}

// sessionView is the read-only pending-state snapshot handed to rules.
type sessionView struct {
	db      domain.Database
	genes   []domain.GeneDefinition
	bp      domain.Blueprint
	balance int
}

func (v sessionView) InstalledGenes() []domain.GeneDefinition { return v.genes }
func (v sessionView) Blueprint() domain.Blueprint             { return v.bp }
func (v sessionView) Balance() int                            { return v.balance }
func (v sessionView) Database() domain.Database               { return v.db }
