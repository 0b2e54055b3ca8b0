package genedb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const seedJSON = `{
  "entities": [
    {"name": "Virion-X", "entity_class": "virion", "location": "extracellular"},
    {"name": "Core-RNA", "entity_class": "rna", "location": "cytoplasm"}
  ],
  "genes": [
    {
      "name": "Uncoat",
      "cost": 10,
      "effects": [{
        "type": "add_transition",
        "rule": {
          "name": "uncoating",
          "probability": 0.9,
          "inputs": [{"entity": "Virion-X", "quantity": 1}],
          "outputs": [{"entity": "Core-RNA", "quantity": 1}]
        }
      }]
    },
    {"name": "Booster", "cost": 5, "requires": ["Uncoat"],
     "effects": [{"type": "modify_transition", "rule_name": "uncoating",
                  "modification": {"probability_delta": 0.05}}]}
  ]
}`

func TestFromJSON(t *testing.T) {
	db, err := FromJSON(strings.NewReader(seedJSON))
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	def, ok := db.LookupGene("Uncoat")
	if !ok || def.Cost != 10 {
		t.Fatalf("gene = %+v, %v", def, ok)
	}
	if def.Effects[0].Rule.Probability != 0.9 {
		t.Fatalf("rule probability = %v", def.Effects[0].Rule.Probability)
	}
	if _, ok := db.LookupEntity("Core-RNA"); !ok {
		t.Fatal("entity missing")
	}
}

func TestFromJSONRejectsUnknownFields(t *testing.T) {
	if _, err := FromJSON(strings.NewReader(`{"genes": [], "extra": true}`)); err == nil {
		t.Fatal("unknown field accepted")
	}
}

func TestOpenFromEnvSelectsDriver(t *testing.T) {
	t.Setenv("VIROCORE_GENEDB_DRIVER", "memory")
	db, err := OpenFromEnv()
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if len(db.AllGenes()) != 0 {
		t.Fatal("memory store not empty")
	}

	seed := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(seed, []byte(seedJSON), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	t.Setenv("VIROCORE_GENEDB_DRIVER", "json")
	t.Setenv("VIROCORE_GENEDB_PATH", seed)
	db, err = OpenFromEnv()
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	if _, ok := db.LookupGene("Booster"); !ok {
		t.Fatal("json seed not loaded")
	}

	t.Setenv("VIROCORE_GENEDB_DRIVER", "sqlite")
	t.Setenv("VIROCORE_GENEDB_PATH", filepath.Join(t.TempDir(), "ref.db"))
	if _, err := OpenFromEnv(); err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	t.Setenv("VIROCORE_GENEDB_DRIVER", "carrier-pigeon")
	if _, err := OpenFromEnv(); err == nil {
		t.Fatal("unknown driver accepted")
	}
}

func TestOpenFromEnvJSONRequiresPath(t *testing.T) {
	t.Setenv("VIROCORE_GENEDB_DRIVER", "json")
	t.Setenv("VIROCORE_GENEDB_PATH", "")
	if _, err := OpenFromEnv(); err == nil {
		t.Fatal("json driver without path accepted")
	}
}
