// Package memory provides the in-memory gene/entity reference database. The
// SQL-backed providers embed it and hydrate it from their snapshot tables, so
// its lookup semantics define the contract for every driver.
package memory

import (
	"fmt"
	"sync"

	"virocore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.Database = (*Store)(nil)

// Store holds gene and entity definitions with stable insertion order.
// Reads are concurrency-safe; seeding is expected at startup only.
type Store struct {
	mu          sync.RWMutex
	genes       map[string]domain.GeneDefinition
	geneOrder   []string
	entities    map[string]domain.EntityDefinition
	entityOrder []string
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		genes:    make(map[string]domain.GeneDefinition),
		entities: make(map[string]domain.EntityDefinition),
	}
}

// Snapshot is the wire form the SQL providers and the JSON loader exchange.
// Slice order is the stable order lookups iterate in.
type Snapshot struct {
	Genes    []domain.GeneDefinition   `json:"genes"`
	Entities []domain.EntityDefinition `json:"entities"`
}

// AddGene registers a gene definition. Duplicate names are rejected so a bad
// seed file fails loudly instead of silently shadowing an earlier entry.
func (s *Store) AddGene(def domain.GeneDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("gene with empty name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.genes[def.Name]; dup {
		return fmt.Errorf("duplicate gene %q", def.Name)
	}
	s.genes[def.Name] = def.Clone()
	s.geneOrder = append(s.geneOrder, def.Name)
	return nil
}

// AddEntity registers an entity definition. Duplicate names are rejected.
func (s *Store) AddEntity(def domain.EntityDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("entity with empty name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.entities[def.Name]; dup {
		return fmt.Errorf("duplicate entity %q", def.Name)
	}
	s.entities[def.Name] = def
	s.entityOrder = append(s.entityOrder, def.Name)
	return nil
}

// ImportSnapshot replaces the store contents with the snapshot, preserving
// slice order as insertion order.
func (s *Store) ImportSnapshot(snapshot Snapshot) error {
	fresh := NewStore()
	for _, e := range snapshot.Entities {
		if err := fresh.AddEntity(e); err != nil {
			return err
		}
	}
	for _, g := range snapshot.Genes {
		if err := fresh.AddGene(g); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genes = fresh.genes
	s.geneOrder = fresh.geneOrder
	s.entities = fresh.entities
	s.entityOrder = fresh.entityOrder
	return nil
}

// ExportSnapshot returns the store contents in insertion order.
func (s *Store) ExportSnapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := Snapshot{
		Genes:    make([]domain.GeneDefinition, 0, len(s.geneOrder)),
		Entities: make([]domain.EntityDefinition, 0, len(s.entityOrder)),
	}
	for _, name := range s.geneOrder {
		snapshot.Genes = append(snapshot.Genes, s.genes[name].Clone())
	}
	for _, name := range s.entityOrder {
		snapshot.Entities = append(snapshot.Entities, s.entities[name])
	}
	return snapshot
}

// LookupGene returns the definition for name, if present.
func (s *Store) LookupGene(name string) (domain.GeneDefinition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.genes[name]
	if !ok {
		return domain.GeneDefinition{}, false
	}
	return def.Clone(), true
}

// LookupEntity returns the definition for name, if present.
func (s *Store) LookupEntity(name string) (domain.EntityDefinition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.entities[name]
	return def, ok
}

// AllGenes returns every gene definition in insertion order.
func (s *Store) AllGenes() []domain.GeneDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.GeneDefinition, 0, len(s.geneOrder))
	for _, name := range s.geneOrder {
		out = append(out, s.genes[name].Clone())
	}
	return out
}

// AllEntities returns every entity definition in insertion order.
func (s *Store) AllEntities() []domain.EntityDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.EntityDefinition, 0, len(s.entityOrder))
	for _, name := range s.entityOrder {
		out = append(out, s.entities[name])
	}
	return out
}

// Len returns the gene and entity counts.
func (s *Store) Len() (genes, entities int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.geneOrder), len(s.entityOrder)
}
