// Package system implements the System Base Protocol: a filter over
// required components, rejected components, and desired tags, kept in
// sync with an Environment via incremental single-entity
// reconciliation on every mutation notification.
package system

import (
	"sync"

	"github.com/tailormade/ecs/internal/core/ecs/environment"
)

// System tracks membership of the entities matching its filters. All
// mutating operations and GetChange take the system's own lock.
type System struct {
	mu sync.Mutex

	env      *environment.Environment
	id       uint64
	joined   bool
	required []string
	rejected []string
	tags     []string
	entities map[int64]struct{}
	change   bool
}

// New builds a system against env. When autoUpdate is true, the
// system registers a callback with the Environment under a fresh
// system id and every subsequent Environment mutation drives
// reconciliation for the touched entity.
func New(env *environment.Environment, autoUpdate bool) *System {
	s := &System{
		env:      env,
		entities: make(map[int64]struct{}),
	}
	if autoUpdate {
		s.id = env.Join(s.reconcile)
		s.joined = true
	}
	return s
}

// Close unregisters the system's callback, if it was joined.
func (s *System) Close() {
	s.mu.Lock()
	joined := s.joined
	id := s.id
	s.joined = false
	s.mu.Unlock()
	if joined {
		s.env.Leave(id)
	}
}

// GetChange atomically reads and clears the change latch.
func (s *System) GetChange() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	change := s.change
	s.change = false
	return change
}

// Entities returns a snapshot of the currently matched entity ids.
func (s *System) Entities() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.entities))
	for e := range s.entities {
		out = append(out, e)
	}
	return out
}

// reconcile applies the single-entity reconciliation rule from
// section 4.7 to e: it is invoked synchronously by the Environment on
// every mutation, so it must not block or call back into the
// Environment in a way that could deadlock against the store it
// touches.
func (s *System) reconcile(e int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. Always drop first, so a state change can flip membership off.
	delete(s.entities, e)

	// 2. Tags short-circuit component filters.
	for _, tag := range s.tags {
		if s.env.HasTag(e, tag) {
			s.entities[e] = struct{}{}
			s.change = true
			return
		}
	}

	// 3. Any rejected component attached excludes the entity outright.
	for _, comp := range s.rejected {
		if s.env.HasComponent(e, comp) {
			return
		}
	}

	// 4. An untagged system with no required components matches nothing.
	if len(s.required) == 0 {
		return
	}
	for _, comp := range s.required {
		if !s.env.HasComponent(e, comp) {
			return
		}
	}
	s.entities[e] = struct{}{}
	s.change = true
}

// AddComponent appends comp to the required list and forces a full
// replay of every known entity against the updated filter.
func (s *System) AddComponent(comp string) {
	s.mu.Lock()
	s.required = append(s.required, comp)
	s.mu.Unlock()
	s.replay()
}

// AddComponents is the list variant of AddComponent.
func (s *System) AddComponents(comps []string) {
	s.mu.Lock()
	s.required = append(s.required, comps...)
	s.mu.Unlock()
	s.replay()
}

// AddRejected appends comp to the rejected list and replays.
func (s *System) AddRejected(comp string) {
	s.mu.Lock()
	s.rejected = append(s.rejected, comp)
	s.mu.Unlock()
	s.replay()
}

// AddRejectedComponents is the list variant of AddRejected.
func (s *System) AddRejectedComponents(comps []string) {
	s.mu.Lock()
	s.rejected = append(s.rejected, comps...)
	s.mu.Unlock()
	s.replay()
}

// AddTag appends tag to the desired tags list and replays.
func (s *System) AddTag(tag string) {
	s.mu.Lock()
	s.tags = append(s.tags, tag)
	s.mu.Unlock()
	s.replay()
}

// AddTags is the list variant of AddTag.
func (s *System) AddTags(tags []string) {
	s.mu.Lock()
	s.tags = append(s.tags, tags...)
	s.mu.Unlock()
	s.replay()
}

func (s *System) replay() {
	s.mu.Lock()
	joined := s.joined
	id := s.id
	s.mu.Unlock()
	if joined {
		s.env.NotifySystem(id)
	}
}
