package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"virocore/internal/blob"
	"virocore/pkg/domain"
)

type staticSource struct {
	bp  domain.Blueprint
	err error
}

func (s staticSource) Blueprint(context.Context) (domain.Blueprint, error) { return s.bp, s.err }

func sampleBlueprint() domain.Blueprint {
	return domain.Blueprint{
		StartingEntities: map[string]int{"Virion-X": 10},
		Genes:            []domain.GeneSummary{{Name: "Uncoat", Cost: 10}},
		TransitionRules: []domain.TransitionRule{{
			Name:        "uncoating",
			Probability: 0.9,
			Inputs:      []domain.EntityAmount{{Entity: "Virion-X", Quantity: 1}},
			Outputs:     []domain.EntityAmount{{Entity: "Core-RNA", Quantity: 1}},
		}},
		PossibleEntities: []string{"Core-RNA", "Virion-X"},
	}
}

func waitFor(t *testing.T, w *Worker, id string, want Status) Record {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		record, ok := w.Get(id)
		if !ok {
			t.Fatalf("record %s missing", id)
		}
		if record.Status == want {
			return record
		}
		if record.Status == StatusFailed && want != StatusFailed {
			t.Fatalf("export failed: %s", record.Error)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("export %s never reached %s", id, want)
	return Record{}
}

func TestWorkerExportsBlueprintArtifacts(t *testing.T) {
	store := blob.NewMemory()
	audit := &MemoryAuditLog{}
	w := NewWorker(staticSource{bp: sampleBlueprint()}, store, audit)
	w.Start()
	defer func() { _ = w.Stop(context.Background()) }()

	record, err := w.Enqueue(context.Background(), Input{Label: "demo", RequestedBy: "tester"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if record.Status != StatusQueued {
		t.Fatalf("queued status = %s", record.Status)
	}

	done := waitFor(t, w, record.ID, StatusSucceeded)
	if len(done.Artifacts) != 2 {
		t.Fatalf("artifacts = %d, want json+csv", len(done.Artifacts))
	}
	jsonKey := fmt.Sprintf("blueprints/%s.json", record.ID)
	if done.Artifacts[0].Key != jsonKey {
		t.Fatalf("first artifact key = %s", done.Artifacts[0].Key)
	}

	_, rc, err := store.Get(context.Background(), jsonKey)
	if err != nil {
		t.Fatalf("get artifact: %v", err)
	}
	payload, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !strings.Contains(string(payload), `"uncoating"`) {
		t.Fatalf("json artifact missing rule: %s", payload)
	}

	csvKey := fmt.Sprintf("blueprints/%s.csv", record.ID)
	_, rc, err = store.Get(context.Background(), csvKey)
	if err != nil {
		t.Fatalf("get csv artifact: %v", err)
	}
	payload, _ = io.ReadAll(rc)
	_ = rc.Close()
	if !strings.Contains(string(payload), "uncoating,0.9,0,1x Virion-X,1x Core-RNA") {
		t.Fatalf("csv artifact = %s", payload)
	}

	var statuses []Status
	for _, entry := range audit.Entries() {
		statuses = append(statuses, entry.Status)
	}
	if len(statuses) < 3 || statuses[0] != StatusQueued || statuses[len(statuses)-1] != StatusSucceeded {
		t.Fatalf("audit statuses = %v", statuses)
	}
}

func TestWorkerRecordsSourceFailure(t *testing.T) {
	w := NewWorker(staticSource{err: errors.New("compose exploded")}, blob.NewMemory(), nil)
	w.Start()
	defer func() { _ = w.Stop(context.Background()) }()

	record, err := w.Enqueue(context.Background(), Input{Formats: []Format{FormatJSON}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	failed := waitFor(t, w, record.ID, StatusFailed)
	if !strings.Contains(failed.Error, "compose exploded") {
		t.Fatalf("error = %q", failed.Error)
	}
	if failed.CompletedAt == nil {
		t.Fatal("failed record has no completion time")
	}
}

func TestEnqueueValidatesFormats(t *testing.T) {
	w := NewWorker(staticSource{bp: sampleBlueprint()}, blob.NewMemory(), nil)
	if _, err := w.Enqueue(context.Background(), Input{Formats: []Format{"parquet"}}); err == nil {
		t.Fatal("unsupported format accepted")
	}

	record, err := w.Enqueue(context.Background(), Input{Formats: []Format{FormatJSON, FormatJSON}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(record.Formats) != 1 {
		t.Fatalf("formats = %v, want deduplicated", record.Formats)
	}
}

func TestGetUnknownExport(t *testing.T) {
	w := NewWorker(staticSource{}, nil, nil)
	if _, ok := w.Get("nope"); ok {
		t.Fatal("unknown export found")
	}
}
