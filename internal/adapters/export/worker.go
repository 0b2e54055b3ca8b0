// Package export renders composed blueprints into artifacts and stores them
// asynchronously in a blob store.
package export

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"virocore/internal/blob"
	"virocore/pkg/domain"
)

// Format identifies an artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Status describes the lifecycle stage of an export request.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Artifact captures one stored blueprint rendering.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record tracks an export request and its resulting artifacts.
type Record struct {
	ID          string     `json:"id"`
	Label       string     `json:"label,omitempty"`
	Formats     []Format   `json:"formats"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	RequestedBy string     `json:"requested_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Input represents an enqueue request for the worker.
type Input struct {
	Label       string
	Formats     []Format
	RequestedBy string
}

// Source yields the blueprint to export. The session service satisfies it.
type Source interface {
	Blueprint(ctx context.Context) (domain.Blueprint, error)
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for exports.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor,omitempty"`
	Label      string    `json:"label,omitempty"`
	Status     Status    `json:"status"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Worker executes blueprint exports asynchronously. Artifacts land in the
// blob store under blueprints/<id>.<ext>.
type Worker struct {
	source Source
	store  blob.Store
	audit  AuditLogger

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type task struct {
	id    string
	input Input
}

// NewWorker constructs an export worker over the given blueprint source and
// blob store.
func NewWorker(source Source, store blob.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		source: source,
		store:  store,
		audit:  audit,
		queue:  make(chan task, 32),
		jobs:   make(map[string]*Record),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue schedules an export job and returns the queued record.
func (w *Worker) Enqueue(ctx context.Context, input Input) (Record, error) {
	if w.source == nil {
		return Record{}, fmt.Errorf("export source not configured")
	}
	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, f := range formats {
		if _, dup := seen[f]; dup {
			continue
		}
		if f != FormatJSON && f != FormatCSV {
			return Record{}, fmt.Errorf("unsupported export format %s", f)
		}
		uniq = append(uniq, f)
		seen[f] = struct{}{}
	}

	id := newID()
	now := time.Now().UTC()
	record := Record{
		ID:          id,
		Label:       input.Label,
		Formats:     uniq,
		Status:      StatusQueued,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queued := record.copy()
	w.mu.Unlock()

	w.record(ctx, id, StatusQueued, "")

	select {
	case w.queue <- task{id: id, input: input}:
	default:
		return Record{}, fmt.Errorf("export queue full")
	}
	return queued, nil
}

// Get returns a snapshot of the export record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(t task) {
	w.updateStatus(t.id, StatusRunning, "")

	bp, err := w.source.Blueprint(w.ctx)
	if err != nil {
		w.fail(t.id, fmt.Sprintf("compose blueprint: %v", err))
		return
	}

	w.mu.RLock()
	var formats []Format
	if record, ok := w.jobs[t.id]; ok {
		formats = append(formats, record.Formats...)
	}
	w.mu.RUnlock()

	artifacts := make([]Artifact, 0, len(formats))
	for _, format := range formats {
		payload, contentType, err := render(bp, format)
		if err != nil {
			w.fail(t.id, err.Error())
			return
		}
		key := fmt.Sprintf("blueprints/%s.%s", t.id, format)
		artifact := Artifact{Key: key, Format: format, ContentType: contentType, SizeBytes: int64(len(payload)), CreatedAt: time.Now().UTC()}
		if w.store != nil {
			info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), blob.PutOptions{
				ContentType: contentType,
				Metadata:    map[string]string{"label": t.input.Label, "format": string(format)},
			})
			if err != nil {
				w.fail(t.id, fmt.Sprintf("store artifact: %v", err))
				return
			}
			artifact.SizeBytes = info.Size
			artifact.URL = info.URL
			if !info.LastModified.IsZero() {
				artifact.CreatedAt = info.LastModified
			}
		}
		artifacts = append(artifacts, artifact)
	}
	w.complete(t.id, artifacts)
}

// render encodes the blueprint for one format. JSON carries the full
// structure; CSV flattens the transition rules into a table.
func render(bp domain.Blueprint, format Format) ([]byte, string, error) {
	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(bp, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("marshal json: %w", err)
		}
		return payload, "application/json", nil
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write([]string{"rule", "probability", "interferon_yield", "inputs", "outputs"}); err != nil {
			return nil, "", err
		}
		for _, rule := range bp.TransitionRules {
			row := []string{
				rule.Name,
				strconv.FormatFloat(rule.Probability, 'f', -1, 64),
				strconv.Itoa(rule.InterferonYield),
				formatAmounts(rule.Inputs),
				formatAmounts(rule.Outputs),
			}
			if err := writer.Write(row); err != nil {
				return nil, "", err
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported export format %s", format)
	}
}

func formatAmounts(amounts []domain.EntityAmount) string {
	parts := make([]string, 0, len(amounts))
	for _, a := range amounts {
		parts = append(parts, fmt.Sprintf("%dx %s", a.Quantity, a.Entity))
	}
	return strings.Join(parts, "; ")
}

func (w *Worker) updateStatus(id string, status Status, note string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = note
		record.UpdatedAt = now
	}
	w.mu.Unlock()
	w.record(w.ctx, id, status, note)
}

func (w *Worker) complete(id string, artifacts []Artifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.record(w.ctx, id, StatusSucceeded, "")
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.record(w.ctx, id, StatusFailed, reason)
}

func (w *Worker) record(ctx context.Context, id string, status Status, note string) {
	if w.audit == nil {
		return
	}
	var actor, label string
	w.mu.RLock()
	if record, ok := w.jobs[id]; ok {
		actor = record.RequestedBy
		label = record.Label
	}
	w.mu.RUnlock()
	w.audit.Record(ctx, AuditEntry{
		ID:         newID(),
		Action:     "blueprint_export",
		Actor:      actor,
		Label:      label,
		Status:     status,
		Note:       note,
		OccurredAt: time.Now().UTC(),
	})
}

func (r Record) copy() Record {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]Artifact(nil), r.Artifacts...)
	}
	return dup
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}

// MemoryAuditLog captures audit entries in-memory for assertions.
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

// Entries returns a defensive copy of recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
