// Package schemastore implements the Component Schema Store: one
// schema reference plus the entity -> (instance, active) table that
// the Environment consults for every per-entity component lookup.
package schemastore

import (
	"io"
	"sync"

	"github.com/tailormade/ecs/internal/core/ecs/component"
	"github.com/tailormade/ecs/internal/core/ecs/value"
	"github.com/tailormade/ecs/pkg/generic"
)

type entry struct {
	instance *component.Component
	active   bool
}

// Store owns a schema reference and the instance table for one
// component name. All operations take the store's lock.
type Store struct {
	mu     sync.Mutex
	schema *component.Component
	table  map[int64]entry
	pool   *generic.Pool[*component.Component]
}

// New builds a store around schema, the canonical component built by
// component.NewFromSchemaDoc. schema is never mutated or handed out
// directly; every Subscribe clones it.
func New(schema *component.Component) *Store {
	return &Store{
		schema: schema,
		table:  make(map[int64]entry),
		pool: generic.NewPool(func() *component.Component {
			return schema.Clone()
		}),
	}
}

// Name returns the name of the schema this store was built from.
func (s *Store) Name() string {
	return s.schema.Name()
}

// SchemaChecksum fingerprints the store's schema for diagnostics; see
// Component.Checksum.
func (s *Store) SchemaChecksum() uint64 {
	return s.schema.Checksum()
}

// Subscribe is idempotent: if e already has an entry, it is a no-op;
// otherwise a fresh clone of the schema is inserted, active.
func (s *Store) Subscribe(e int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribeLocked(e)
}

func (s *Store) subscribeLocked(e int64) {
	if _, ok := s.table[e]; ok {
		return
	}
	instance := s.pool.Get()
	instance.CloneFrom(s.schema)
	s.table[e] = entry{instance: instance, active: true}
}

// SubscribeWithOverrides calls Subscribe(e) then applies each
// (field, value) override via the instance's Set.
func (s *Store) SubscribeWithOverrides(e int64, overrides map[string]value.V) {
	s.mu.Lock()
	s.subscribeLocked(e)
	ent := s.table[e]
	s.mu.Unlock()

	for field, v := range overrides {
		ent.instance.Set(field, v)
	}
}

// Unsubscribe removes e's entry if present; otherwise no-op. The
// instance is returned to the pool for reuse.
func (s *Store) Unsubscribe(e int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribeLocked(e)
}

func (s *Store) unsubscribeLocked(e int64) {
	ent, ok := s.table[e]
	if !ok {
		return
	}
	delete(s.table, e)
	s.pool.Put(ent.instance)
}

// HasEntity is true iff e is present in the table AND active.
func (s *Store) HasEntity(e int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, ok := s.table[e]
	return ok && ent.active
}

// HasRawEntity is true iff e has an entry at all, regardless of the
// active flag. Used where raw presence, not query visibility, matters.
func (s *Store) HasRawEntity(e int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.table[e]
	return ok
}

// State reads the active flag; a missing entity reads as false.
func (s *Store) State(e int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table[e].active
}

// SetState writes the active flag for e, if present.
func (s *Store) SetState(e int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, ok := s.table[e]
	if !ok {
		return
	}
	ent.active = active
	s.table[e] = ent
}

// GetComponent returns the owned instance for e, ignoring the active
// flag. It fails ErrNotSubscribed if e has no entry at all.
func (s *Store) GetComponent(e int64) (*component.Component, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, ok := s.table[e]
	if !ok {
		return nil, ErrNotSubscribed
	}
	return ent.instance, nil
}

// Entities returns every entity id in the table. If includeInactive is
// false, ids whose active flag is false are skipped. Iterating only
// when the table is non-empty, and always applying the filter, is the
// corrected behavior: the source's checkState-only-when-the-map-is-
// empty bug is not reproduced here.
func (s *Store) Entities(includeInactive bool) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.table) == 0 {
		return nil
	}
	out := make([]int64, 0, len(s.table))
	for e, ent := range s.table {
		if !includeInactive && !ent.active {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Give transfers the giver's entry to receiver, replacing any existing
// receiver entry (state included). If copy is false, the giver entry
// is erased. No-op if giver is absent.
func (s *Store) Give(giver, receiver int64, copy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.table[giver]
	if !ok {
		return
	}

	if old, exists := s.table[receiver]; exists {
		s.pool.Put(old.instance)
	}

	dst := s.pool.Get()
	dst.CloneFrom(ent.instance)
	s.table[receiver] = entry{instance: dst, active: ent.active}

	if !copy {
		delete(s.table, giver)
		s.pool.Put(ent.instance)
	}
}

// AppendText serializes every instance in the store for diagnostics.
func (s *Store) AppendText(w io.Writer) error {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.table))
	for e := range s.table {
		ids = append(ids, e)
	}
	instances := make(map[int64]*component.Component, len(s.table))
	for _, e := range ids {
		instances[e] = s.table[e].instance
	}
	s.mu.Unlock()

	for _, e := range ids {
		if err := instances[e].AppendText(w); err != nil {
			return err
		}
	}
	return nil
}
