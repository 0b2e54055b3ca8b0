package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"virocore/pkg/domain"
)

// AuditStatus classifies the outcome of an audited session operation.
type AuditStatus string

const (
	AuditOK       AuditStatus = "ok"
	AuditRejected AuditStatus = "rejected"
	AuditBlocked  AuditStatus = "blocked"
	AuditError    AuditStatus = "error"
)

// AuditEntry captures one session operation for the audit trail.
type AuditEntry struct {
	ID         string        `json:"id"`
	Operation  string        `json:"operation"`
	Subject    string        `json:"subject,omitempty"`
	Status     AuditStatus   `json:"status"`
	Reason     domain.Reason `json:"reason,omitempty"`
	Balance    int           `json:"balance"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// AuditLogger records session audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder observes operation outcomes and durations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Span finalizes one traced operation.
type Span interface {
	End(err error)
}

// Tracer starts spans around session operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, Span)
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, AuditEntry) {}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type noopSpan struct{}

func (noopSpan) End(error) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

// MemoryAuditLog captures audit entries in memory for inspection.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a defensive copy of recorded entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func newAuditID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}
