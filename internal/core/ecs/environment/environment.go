// Package environment implements the Environment facade: the single
// entry point that ties the Entity Registry, every Component Schema
// Store, and the Subscription loader together, and fans out mutation
// notifications to registered systems.
package environment

import (
	"sync"
	"sync/atomic"

	"github.com/tailormade/ecs/internal/core/ecs/component"
	"github.com/tailormade/ecs/internal/core/ecs/docfmt"
	"github.com/tailormade/ecs/internal/core/ecs/entity"
	"github.com/tailormade/ecs/internal/core/ecs/schemastore"
	"github.com/tailormade/ecs/internal/core/ecs/subscription"
	"github.com/tailormade/ecs/internal/core/ecs/value"
	"github.com/tailormade/ecs/internal/core/observability/log"
)

// Options carries the three on-disk roots read at construction time.
type Options struct {
	EntityRoot       string
	ComponentRoot    string
	SubscriptionRoot string
}

// Environment is the facade described in section 4.5: a name -> schema
// store map, the Entity Registry, the Subscription loader, a
// systemID -> callback notifier table, and a name -> Snapshot map.
// It holds no lock of its own over the stores it delegates to; e.mu
// protects only the Environment's own bookkeeping (the stores map,
// the notifier table, and the snapshot map), matching the "not
// globally locked" concurrency model.
type Environment struct {
	mu        sync.Mutex
	stores    map[string]*schemastore.Store
	registry  *entity.Registry
	subs      *subscription.Loader
	notifiers map[uint64]func(int64)
	nextSysID atomic.Uint64
	snapshots map[string]map[string]map[string]map[string]value.V // name -> entity -> comp -> field -> V
}

// New builds an Environment, bootstrapping entities, component
// schemas, and subscriptions from the three configured roots in that
// order (subscriptions reference both entities and schemas).
func New(opts Options) (*Environment, error) {
	env := &Environment{
		stores:    make(map[string]*schemastore.Store),
		registry:  entity.New(),
		notifiers: make(map[uint64]func(int64)),
		snapshots: make(map[string]map[string]map[string]map[string]value.V),
	}

	if err := env.registry.Bootstrap(opts.EntityRoot); err != nil {
		return nil, err
	}
	if err := env.loadSchemas(opts.ComponentRoot); err != nil {
		return nil, err
	}

	env.subs = subscription.New(opts.SubscriptionRoot)
	env.subs.SetSource(env)
	if err := env.subs.Bootstrap(env.registry, env.storesCopy()); err != nil {
		return nil, err
	}
	return env, nil
}

func (e *Environment) loadSchemas(root string) error {
	paths, err := docfmt.WalkFiles(root)
	if err != nil {
		return err
	}
	for _, path := range paths {
		doc, loadErr := docfmt.Load(path)
		if loadErr != nil {
			log.Provide().Error("environment: schema file failed to load",
				log.String("path", path), log.ErrorWithKey("error", loadErr))
			continue
		}
		schema, buildErr := component.NewFromSchemaDoc(doc)
		if buildErr != nil {
			log.Provide().Error("environment: schema file rejected",
				log.String("path", path), log.ErrorWithKey("error", buildErr))
			continue
		}
		e.AddManager(schemastore.New(schema))
	}
	return nil
}

func (e *Environment) storesCopy() map[string]*schemastore.Store {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]*schemastore.Store, len(e.stores))
	for k, v := range e.stores {
		out[k] = v
	}
	return out
}

// resolveID accepts either an int64/int entity id or a string name
// and returns the id, mirroring the spec's overloaded e_or_name
// parameters without relying on Go method overloading.
func (e *Environment) resolveID(eOrName any) (int64, bool) {
	switch v := eOrName.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		id := e.registry.IDOf(v)
		if id == -1 {
			return -1, false
		}
		return id, true
	default:
		return -1, false
	}
}

// AddManager registers a schema store under its own schema name. If a
// store with the same name already exists, it is replaced and a
// diagnostic is logged comparing schema checksums, since two schema
// files defining the same name with a different shape is almost
// certainly a bootstrap mistake.
func (e *Environment) AddManager(store *schemastore.Store) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.stores[store.Name()]; ok && existing.SchemaChecksum() != store.SchemaChecksum() {
		log.Provide().Warn("environment: schema redefined with a different shape",
			log.String("name", store.Name()),
			log.Uint64("previous_checksum", existing.SchemaChecksum()),
			log.Uint64("new_checksum", store.SchemaChecksum()))
	}
	e.stores[store.Name()] = store
}

// Managers returns a snapshot of every registered schema store.
func (e *Environment) Managers() []*schemastore.Store {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*schemastore.Store, 0, len(e.stores))
	for _, s := range e.stores {
		out = append(out, s)
	}
	return out
}

// ManagerByName returns the store registered under name, if any. This
// is the corrected polarity: the source returns the value only when
// the name is absent; here presence and the boolean agree.
func (e *Environment) ManagerByName(name string) (*schemastore.Store, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.stores[name]
	return s, ok
}

// SetEntityState sets the active flag on every schema store that
// holds the entity (regardless of its current flag), then notifies
// once for the entity.
func (e *Environment) SetEntityState(eOrName any, state bool) {
	id, ok := e.resolveID(eOrName)
	if !ok {
		return
	}
	for _, s := range e.Managers() {
		if s.HasRawEntity(id) {
			s.SetState(id, state)
		}
	}
	e.Notify(id)
}

// SetEntitiesState applies SetEntityState to every id matched by the
// prefix-or-tag selector.
func (e *Environment) SetEntitiesState(prefixOrTag string, state bool, isPrefix bool) {
	for _, id := range e.registry.Entities(prefixOrTag, isPrefix) {
		e.SetEntityState(id, state)
	}
}

// SetState writes the active flag for one entity's one component.
func (e *Environment) SetState(eOrName any, compName string, state bool) {
	id, ok := e.resolveID(eOrName)
	if !ok {
		return
	}
	store, ok := e.ManagerByName(compName)
	if !ok {
		return
	}
	store.SetState(id, state)
	e.Notify(id)
}

// GetState reads one entity's one component's active flag; a missing
// entity or store reads as false.
func (e *Environment) GetState(eOrName any, compName string) bool {
	id, ok := e.resolveID(eOrName)
	if !ok {
		return false
	}
	store, ok := e.ManagerByName(compName)
	if !ok {
		return false
	}
	return store.State(id)
}

// SetStates applies SetState to every id matched by the prefix-or-tag selector.
func (e *Environment) SetStates(prefixOrTag string, compName string, state bool, isPrefix bool) {
	for _, id := range e.registry.Entities(prefixOrTag, isPrefix) {
		e.SetState(id, compName, state)
	}
}

// Component returns the named component instance for the resolved
// entity. It fails ErrNoSuchEntity when the entity itself does not
// resolve, and ErrNotAttached when the store is unknown or does not
// hold the entity as active. This is the one lookup that
// fails loudly instead of returning a sentinel, since a nil component
// would violate the "returned value is usable" contract.
func (e *Environment) Component(eOrName any, compName string) (*component.Component, error) {
	id, ok := e.resolveID(eOrName)
	if !ok {
		return nil, ErrNoSuchEntity
	}
	store, ok := e.ManagerByName(compName)
	if !ok {
		return nil, ErrNotAttached
	}
	if !store.HasEntity(id) {
		return nil, ErrNotAttached
	}
	return store.GetComponent(id)
}

// Components returns every component currently attached (present and
// active) to the resolved entity.
func (e *Environment) Components(eOrName any) []*component.Component {
	id, ok := e.resolveID(eOrName)
	if !ok {
		return nil
	}
	var out []*component.Component
	for _, s := range e.Managers() {
		if s.HasEntity(id) {
			if c, err := s.GetComponent(id); err == nil {
				out = append(out, c)
			}
		}
	}
	return out
}

// AllComponents implements subscription.ComponentSource: it returns
// every currently active component attached to id, keyed by schema
// name. Inactive components are excluded, matching ComponentManager's
// own hasEntity check in the save path this feeds.
func (e *Environment) AllComponents(id int64) map[string]*component.Component {
	out := make(map[string]*component.Component)
	for _, s := range e.Managers() {
		if s.HasEntity(id) {
			if c, err := s.GetComponent(id); err == nil {
				out[s.Name()] = c
			}
		}
	}
	return out
}

// HasComponent reports whether the resolved entity currently carries compName.
func (e *Environment) HasComponent(eOrName any, compName string) bool {
	id, ok := e.resolveID(eOrName)
	if !ok {
		return false
	}
	store, ok := e.ManagerByName(compName)
	if !ok {
		return false
	}
	return store.HasEntity(id)
}

// HasTag reports whether the resolved entity carries tag.
func (e *Environment) HasTag(eOrName any, tag string) bool {
	id, ok := e.resolveID(eOrName)
	if !ok {
		return false
	}
	return e.registry.HasTag(id, tag)
}

// AddTag adds tag to the resolved entity.
func (e *Environment) AddTag(eOrName any, tag string) {
	id, ok := e.resolveID(eOrName)
	if !ok {
		return
	}
	e.registry.AddTag(id, tag)
}

// CreateEntity allocates a new entity name in the registry.
func (e *Environment) CreateEntity(name string, createFile bool) int64 {
	return e.registry.Create(name, createFile)
}

// RemoveEntity unsubscribes the named entity from every schema store,
// then removes it from the registry.
func (e *Environment) RemoveEntity(name string) {
	id := e.registry.IDOf(name)
	if id == -1 {
		return
	}
	for _, s := range e.Managers() {
		s.Unsubscribe(id)
	}
	e.registry.Remove(name)
}

// Give delegates to compName's schema store's Give, and, when share is
// true (the default), notifies both the giver and the receiver.
func (e *Environment) Give(compName string, giverEOrName, receiverEOrName any, copyFlag bool, share ...bool) {
	giverID, ok := e.resolveID(giverEOrName)
	if !ok {
		return
	}
	receiverID, ok := e.resolveID(receiverEOrName)
	if !ok {
		return
	}
	store, ok := e.ManagerByName(compName)
	if !ok {
		return
	}
	store.Give(giverID, receiverID, copyFlag)
	if shareDefaultTrue(share) {
		e.Notify(giverID)
		e.Notify(receiverID)
	}
}

// Copy creates a new entity, then for every schema store holding src
// gives it to the new entity as a copy.
func (e *Environment) Copy(srcName, dstName string, createFile bool, share ...bool) (int64, error) {
	srcID, ok := e.resolveID(srcName)
	if !ok {
		return -1, ErrNoSuchEntity
	}
	newID := e.registry.Create(dstName, createFile)
	if newID == -1 {
		return -1, nil
	}
	for _, s := range e.Managers() {
		if s.HasRawEntity(srcID) {
			e.Give(s.Name(), srcID, newID, true, share...)
		}
	}
	return newID, nil
}

// Save delegates to the Subscription loader.
func (e *Environment) Save(eOrName any) error {
	id, ok := e.resolveID(eOrName)
	if !ok {
		return ErrNoSuchEntity
	}
	name := e.registry.NameOf(id)
	if name == "" {
		return ErrNoSuchEntity
	}
	return e.subs.Save(name, id)
}

// Join registers callback under a fresh, Environment-scoped
// monotonically increasing system id and returns that id.
func (e *Environment) Join(callback func(int64)) uint64 {
	id := e.nextSysID.Add(1) - 1
	e.mu.Lock()
	e.notifiers[id] = callback
	e.mu.Unlock()
	return id
}

// Leave unregisters a system's callback. Not part of the abridged
// public contract but needed so a system's lifetime can end cleanly.
func (e *Environment) Leave(systemID uint64) {
	e.mu.Lock()
	delete(e.notifiers, systemID)
	e.mu.Unlock()
}

// Notify fans entityID out to every registered callback, synchronously
// on the caller's goroutine. Callbacks run with no Environment lock
// held, so a callback calling back into the Environment cannot
// deadlock against Notify itself (though it may still race the store
// it touches, per the coarse per-object locking model).
func (e *Environment) Notify(entityID int64) {
	e.mu.Lock()
	callbacks := make([]func(int64), 0, len(e.notifiers))
	for _, cb := range e.notifiers {
		callbacks = append(callbacks, cb)
	}
	e.mu.Unlock()

	for _, cb := range callbacks {
		cb(entityID)
	}
}

// NotifySystem replays every currently known entity id to the single
// callback registered under systemID. This is how a system resyncs
// after changing its own filters.
func (e *Environment) NotifySystem(systemID uint64) {
	e.mu.Lock()
	cb, ok := e.notifiers[systemID]
	e.mu.Unlock()
	if !ok {
		return
	}
	for _, id := range e.registry.Entities("", true) {
		cb(id)
	}
}

// MakeSnapshot captures each field of each (entity, schema) pair where
// the schema store holds the entity. An empty entitiesSubset means
// every current entity name; an empty compsSubset means every schema
// store. Replaces any existing snapshot under the same name.
func (e *Environment) MakeSnapshot(name string, entitiesSubset []string, compsSubset []string) {
	names := entitiesSubset
	if len(names) == 0 {
		names = e.registry.Names()
	}
	comps := compsSubset
	if len(comps) == 0 {
		for _, s := range e.Managers() {
			comps = append(comps, s.Name())
		}
	}

	captured := make(map[string]map[string]map[string]value.V, len(names))
	for _, entName := range names {
		id := e.registry.IDOf(entName)
		if id == -1 {
			continue
		}
		for _, compName := range comps {
			store, ok := e.ManagerByName(compName)
			if !ok || !store.HasRawEntity(id) {
				continue
			}
			inst, err := store.GetComponent(id)
			if err != nil {
				continue
			}
			fields := inst.RawFields()
			values := make(map[string]value.V, len(fields))
			for field, f := range fields {
				values[field] = f.Value
			}
			if captured[entName] == nil {
				captured[entName] = make(map[string]map[string]value.V)
			}
			captured[entName][compName] = values
		}
	}

	e.mu.Lock()
	e.snapshots[name] = captured
	e.mu.Unlock()
}

// LoadSnapshot overwrites each captured field via Set, for every
// entity name in the snapshot that still resolves and every captured
// component that still exists as a schema store and holds the entity.
// Snapshots never create entities or subscriptions.
func (e *Environment) LoadSnapshot(name string) {
	e.mu.Lock()
	captured, ok := e.snapshots[name]
	e.mu.Unlock()
	if !ok {
		return
	}

	for entName, comps := range captured {
		id := e.registry.IDOf(entName)
		if id == -1 {
			continue
		}
		for compName, fields := range comps {
			store, ok := e.ManagerByName(compName)
			if !ok || !store.HasRawEntity(id) {
				continue
			}
			inst, err := store.GetComponent(id)
			if err != nil {
				continue
			}
			for field, v := range fields {
				inst.Set(field, v)
			}
		}
	}
}

// ClearSnapshot drops the named snapshot, if any.
func (e *Environment) ClearSnapshot(name string) {
	e.mu.Lock()
	delete(e.snapshots, name)
	e.mu.Unlock()
}

func shareDefaultTrue(share []bool) bool {
	if len(share) == 0 {
		return true
	}
	return share[0]
}
