package core

import "virocore/pkg/domain"

// Ledger tracks the spendable point balance, the player's gene deck, the
// starter entity selection, and achieved-milestone bookkeeping. It is the
// sole mutator of the balance and the achieved set, and is owned exclusively
// by the session.
type Ledger struct {
	balance      int
	deck         []string
	starter      string
	starterCount int
	achieved     map[string]struct{}
}

// NewLedger constructs a ledger with the given opening balance.
func NewLedger(balance int) *Ledger {
	return &Ledger{
		balance:      balance,
		starterCount: defaultStarterCount,
		achieved:     make(map[string]struct{}),
	}
}

const defaultStarterCount = 10

// Balance returns the current point balance.
func (l *Ledger) Balance() int { return l.balance }

// Spend deducts amount from the balance. It fails with insufficient_points
// when the deduction would drive the balance negative; the balance is then
// left untouched.
func (l *Ledger) Spend(amount int) error {
	if amount < 0 {
		return domain.LegalityError{Op: "spend", Reason: domain.ReasonInvalidOperation}
	}
	if l.balance < amount {
		return domain.LegalityError{Op: "spend", Reason: domain.ReasonInsufficientPoints}
	}
	l.balance -= amount
	return nil
}

// Credit adds amount to the balance. Used for milestone rewards.
func (l *Ledger) Credit(amount int) {
	if amount < 0 {
		return
	}
	l.balance += amount
}

// Deck returns a copy of the gene names the player may choose from. An empty
// deck means the whole database is available.
func (l *Ledger) Deck() []string {
	return append([]string(nil), l.deck...)
}

// SetDeck replaces the deck, dropping duplicate names while preserving order.
func (l *Ledger) SetDeck(names []string) {
	seen := make(map[string]struct{}, len(names))
	deck := make([]string, 0, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		deck = append(deck, name)
	}
	l.deck = deck
}

// InDeck reports whether name is installable under the current deck. With no
// deck configured every gene is available.
func (l *Ledger) InDeck(name string) bool {
	if len(l.deck) == 0 {
		return true
	}
	for _, n := range l.deck {
		if n == name {
			return true
		}
	}
	return false
}

// StarterEntity returns the selected starter entity name.
func (l *Ledger) StarterEntity() string { return l.starter }

// StarterCount returns the starting entity count.
func (l *Ledger) StarterCount() int { return l.starterCount }

func (l *Ledger) setStarter(name string) { l.starter = name }

// setStarterCount enforces the n >= 1 invariant.
func (l *Ledger) setStarterCount(n int) error {
	if n < 1 {
		return domain.LegalityError{Op: "set_starter_count", Reason: domain.ReasonInvalidOperation}
	}
	l.starterCount = n
	return nil
}

// Achieve records a milestone as reached. Achievement is monotonic; recording
// twice is a no-op and the second call reports false.
func (l *Ledger) Achieve(id string) bool {
	if _, done := l.achieved[id]; done {
		return false
	}
	l.achieved[id] = struct{}{}
	return true
}

// IsAchieved reports whether the milestone has been reached.
func (l *Ledger) IsAchieved(id string) bool {
	_, done := l.achieved[id]
	return done
}

// AchievedCount returns how many milestones have been reached.
func (l *Ledger) AchievedCount() int { return len(l.achieved) }

func (l *Ledger) clone() *Ledger {
	cp := &Ledger{
		balance:      l.balance,
		deck:         append([]string(nil), l.deck...),
		starter:      l.starter,
		starterCount: l.starterCount,
		achieved:     make(map[string]struct{}, len(l.achieved)),
	}
	for id := range l.achieved {
		cp.achieved[id] = struct{}{}
	}
	return cp
}

var _ domain.LedgerView = (*Ledger)(nil)
