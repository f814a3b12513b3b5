// Package entity implements the Entity Registry: the name<->id
// bijection, free-list id recycling, and tag index the rest of the
// ECS core resolves entity names and queries against.
package entity

import (
	"fmt"
	"sort"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/tailormade/ecs/internal/core/ecs/docfmt"
	"github.com/tailormade/ecs/internal/core/observability/log"
	"github.com/tailormade/ecs/pkg/concurrent"
	"github.com/tailormade/ecs/pkg/sequence"
)

// Registry is the name<->id bijection plus the tag index. All
// operations take the registry's lock.
type Registry struct {
	mu sync.Mutex

	byName *orderedmap.OrderedMap[string, int64] // insertion order, for Names()
	sorted []string                              // kept sorted, for prefix range queries
	byID   []string                               // dense id -> name, stale slots left in place
	free   []int64                                // FIFO free list

	count int64 // highest id ever issued; -1 before the first Create

	tags map[string][]int64 // tag -> ids currently tagged; order unspecified
	tagSet map[string]map[int64]struct{}
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byName: orderedmap.New[string, int64](),
		count:  -1,
		tags:   make(map[string][]int64),
		tagSet: make(map[string]map[int64]struct{}),
	}
}

// Create allocates an id for name, popping the free list if non-empty,
// otherwise incrementing count. Returns -1 if name already exists.
// createFile is accepted for parity with the on-disk bootstrap form
// but plain Create never touches the filesystem itself; callers that
// want a file written should do so with the returned id before or
// after this call as their workflow requires.
func (r *Registry) Create(name string, createFile bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(name, createFile)
}

func (r *Registry) createLocked(name string, createFile bool) int64 {
	if _, exists := r.byName.Get(name); exists {
		return -1
	}

	var id int64
	if len(r.free) > 0 {
		id = r.free[0]
		r.free = r.free[1:]
		r.byID[id] = name
	} else {
		r.count++
		id = r.count
		r.byID = append(r.byID, name)
	}

	r.byName.Set(name, id)
	r.insertSorted(name)

	if createFile {
		log.Provide().Debug("entity: create_file requested but no storage root configured", log.String("name", name))
	}
	return id
}

// Remove deletes name's mapping, pushes its id onto the free list, and
// removes it from every tag set. The dense name sequence entry is
// left as a stale slot.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, exists := r.byName.Get(name)
	if !exists {
		return
	}

	r.byName.Delete(name)
	r.removeSorted(name)
	r.free = append(r.free, id)

	for tag, set := range r.tagSet {
		if _, tagged := set[id]; tagged {
			delete(set, id)
			r.tags[tag] = removeID(r.tags[tag], id)
		}
	}
}

// IDOf returns name's id, or -1 if unknown. It never fails.
func (r *Registry) IDOf(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byName.Get(name)
	if !ok {
		return -1
	}
	return id
}

// NameOf returns id's name, or "" if id is out of range or stale. It
// never fails.
func (r *Registry) NameOf(id int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= int64(len(r.byID)) {
		return ""
	}
	name := r.byID[id]
	if current, ok := r.byName.Get(name); !ok || current != id {
		return ""
	}
	return name
}

// Names returns every current name in map (insertion) order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, r.byName.Len())
	for pair := r.byName.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Entities resolves a prefix-or-tag query:
//   - "" + isPrefix=true  -> every id (broadcast resync)
//   - "" + isPrefix=false -> empty
//   - non-empty + isPrefix=true  -> ids whose name starts with the prefix
//   - non-empty + isPrefix=false -> the tag's id set, or empty if unknown
func (r *Registry) Entities(prefixOrTag string, isPrefix bool) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prefixOrTag == "" {
		if !isPrefix {
			return nil
		}
		out := make([]int64, 0, r.byName.Len())
		for pair := r.byName.Oldest(); pair != nil; pair = pair.Next() {
			out = append(out, pair.Value)
		}
		return out
	}

	if !isPrefix {
		ids := r.tags[prefixOrTag]
		out := make([]int64, len(ids))
		copy(out, ids)
		return out
	}

	lo, hi := prefixRange(r.sorted, prefixOrTag)
	out := make([]int64, 0, hi-lo)
	for _, name := range r.sorted[lo:hi] {
		if id, ok := r.byName.Get(name); ok {
			out = append(out, id)
		}
	}
	return out
}

// AddTag adds tag to id's tag set. Idempotent.
func (r *Registry) AddTag(id int64, tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addTagLocked(id, tag)
}

func (r *Registry) addTagLocked(id int64, tag string) {
	set, ok := r.tagSet[tag]
	if !ok {
		set = make(map[int64]struct{})
		r.tagSet[tag] = set
	}
	if _, already := set[id]; already {
		return
	}
	set[id] = struct{}{}
	r.tags[tag] = append(r.tags[tag], id)
}

// HasTag reports whether id carries tag.
func (r *Registry) HasTag(id int64, tag string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tagSet[tag][id]
	return ok
}

// insertSorted and removeSorted keep r.sorted as a sorted slice of
// current names, maintained with binary search rather than a
// dedicated ordered-set structure: this is the range-query substitute
// for the original's std::map::lower_bound/upper_bound walk.
func (r *Registry) insertSorted(name string) {
	i := sort.SearchStrings(r.sorted, name)
	r.sorted = append(r.sorted, "")
	copy(r.sorted[i+1:], r.sorted[i:])
	r.sorted[i] = name
}

func (r *Registry) removeSorted(name string) {
	i := sort.SearchStrings(r.sorted, name)
	if i < len(r.sorted) && r.sorted[i] == name {
		r.sorted = append(r.sorted[:i], r.sorted[i+1:]...)
	}
}

// prefixRange returns the [lo, hi) index range in sorted (which must
// be sorted ascending) of every entry starting with prefix, using the
// standard trick of incrementing the prefix's last byte to compute
// the lexicographic upper bound.
func prefixRange(sorted []string, prefix string) (int, int) {
	lo := sort.SearchStrings(sorted, prefix)
	upper := incrementLastByte(prefix)
	hi := sort.SearchStrings(sorted, upper)
	return lo, hi
}

func incrementLastByte(s string) string {
	b := []byte(s)
	b[len(b)-1]++
	return string(b)
}

func removeID(ids []int64, target int64) []int64 {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// bootstrapDoc is the shape of one bootstrap file: {name|names, tags?, generate?}.
type bootstrapDoc struct {
	path string
	doc  map[string]any
}

// Bootstrap walks every regular file under root, decoding each
// concurrently (pure, non-mutating reads), then applies the decoded
// documents to the registry serially in lexicographic path order so
// id allocation is deterministic regardless of filesystem walk order
// or goroutine scheduling.
func (r *Registry) Bootstrap(root string) error {
	paths, err := docfmt.WalkFiles(root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	if len(paths) == 0 {
		return nil
	}

	workers := len(paths)
	if workers > 32 {
		workers = 32
	}
	results := concurrent.ParallelMap(sequence.From(paths), workers, func(path string) bootstrapDoc {
		doc, loadErr := docfmt.Load(path)
		if loadErr != nil {
			log.Provide().Error("entity: bootstrap file failed to load", log.String("path", path), log.ErrorWithKey("error", loadErr))
			return bootstrapDoc{path: path, doc: nil}
		}
		return bootstrapDoc{path: path, doc: doc}
	})

	sort.Slice(results, func(i, j int) bool { return results[i].path < results[j].path })

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range results {
		if item.doc != nil {
			r.applyBootstrapDocLocked(item.doc)
		}
	}
	return nil
}

func (r *Registry) applyBootstrapDocLocked(doc map[string]any) {
	names := bootstrapNames(doc)
	if len(names) == 0 {
		return
	}

	var tags []string
	if rawTags, ok := doc["tags"].([]any); ok {
		for _, t := range rawTags {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
	}

	generate := 0
	if n, ok := doc["generate"]; ok {
		if f, ok := toInt(n); ok {
			generate = f
		}
	}

	for _, base := range names {
		toCreate := []string{base}
		if generate > 0 {
			toCreate = make([]string, generate)
			for i := 0; i < generate; i++ {
				toCreate[i] = fmt.Sprintf("%s%d", base, i)
			}
		}
		for _, name := range toCreate {
			id := r.createLocked(name, false)
			if id == -1 {
				continue
			}
			for _, tag := range tags {
				r.addTagLocked(id, tag)
			}
		}
	}
}

func bootstrapNames(doc map[string]any) []string {
	if name, ok := doc["name"].(string); ok && name != "" {
		return []string{name}
	}
	if raw, ok := doc["names"].([]any); ok {
		out := make([]string, 0, len(raw))
		for _, n := range raw {
			if s, ok := n.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
