// Package subscription implements the Subscription Loader: the
// directory-of-files bootstrap that subscribes entities to component
// schemas with initial field values, and the save path that writes an
// entity's current components back to disk.
//
// The Environment/Subscription reference cycle in the original design
// is broken by giving the loader only what it needs, when it needs
// it: Bootstrap borrows the Entity Registry and the schema-store map
// for the duration of one walk, and Save talks to a narrow
// ComponentSource interface instead of holding the Environment
// itself.
package subscription

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tailormade/ecs/internal/core/ecs/component"
	"github.com/tailormade/ecs/internal/core/ecs/docfmt"
	"github.com/tailormade/ecs/internal/core/ecs/entity"
	"github.com/tailormade/ecs/internal/core/ecs/schemastore"
	"github.com/tailormade/ecs/internal/core/ecs/value"
	"github.com/tailormade/ecs/internal/core/observability/log"
)

// ComponentSource resolves every component instance currently
// attached to an entity, keyed by schema name. Environment implements
// this; Loader depends only on the interface, not on Environment.
type ComponentSource interface {
	AllComponents(id int64) map[string]*component.Component
}

// Loader is constructed with a root directory and wired to its
// ComponentSource once, then reused for the process lifetime.
type Loader struct {
	mu         sync.Mutex
	root       string
	entitiesFP map[string]string // entity name -> originating file path
	source     ComponentSource
}

// New returns a loader rooted at root, with no source configured yet.
func New(root string) *Loader {
	return &Loader{root: root, entitiesFP: make(map[string]string)}
}

// SetSource wires the loader to its ComponentSource. Called once, by
// the Environment, immediately after both are constructed.
func (l *Loader) SetSource(src ComponentSource) {
	l.mu.Lock()
	l.source = src
	l.mu.Unlock()
}

// Bootstrap walks every regular file under the loader's root and
// applies each subscription document to registry and stores.
func (l *Loader) Bootstrap(registry *entity.Registry, stores map[string]*schemastore.Store) error {
	paths, err := docfmt.WalkFiles(l.root)
	if err != nil {
		return err
	}
	for _, path := range paths {
		doc, loadErr := docfmt.Load(path)
		if loadErr != nil {
			log.Provide().Error("subscription: bootstrap file failed to load",
				log.String("path", path), log.ErrorWithKey("error", loadErr))
			continue
		}
		l.applyDoc(path, doc, registry, stores)
	}
	return nil
}

func (l *Loader) applyDoc(path string, doc map[string]any, registry *entity.Registry, stores map[string]*schemastore.Store) {
	ids := l.resolveSelector(path, doc, registry)
	if len(ids) == 0 {
		return
	}

	state := true
	if s, ok := doc["state"].(bool); ok {
		state = s
	}

	compsRaw, _ := doc["components"].([]any)
	for _, id := range ids {
		for _, compRaw := range compsRaw {
			l.applyComponent(id, compRaw, state, stores)
		}
	}
}

func (l *Loader) applyComponent(id int64, compRaw any, state bool, stores map[string]*schemastore.Store) {
	compDoc, ok := compRaw.(map[string]any)
	if !ok {
		return
	}
	schemaName, _ := compDoc["name"].(string)
	store, ok := stores[schemaName]
	if !ok {
		log.Provide().Warn("subscription: unknown component name", log.String("name", schemaName))
		return
	}

	store.Subscribe(id)
	inst, err := store.GetComponent(id)
	if err != nil {
		return
	}

	dataRaw, _ := compDoc["data"].(map[string]any)
	for field, raw := range dataRaw {
		tag := inst.TypeOf(field)
		if tag == "" {
			log.Provide().Warn("subscription: unknown field in component data",
				log.String("component", schemaName), log.String("field", field))
			continue
		}
		v, err := value.ParseValue(raw, tag)
		if err != nil {
			log.Provide().Warn("subscription: field value shape mismatch",
				log.String("component", schemaName), log.String("field", field), log.ErrorWithKey("error", err))
			continue
		}
		inst.Set(field, v)
	}

	if !state {
		store.SetState(id, false)
	}
}

// resolveSelector applies the {entity|tags, generated?} selector and,
// for a named non-generated single-entity subscription, records the
// originating file path for Save.
func (l *Loader) resolveSelector(path string, doc map[string]any, registry *entity.Registry) []int64 {
	if name, ok := doc["entity"].(string); ok {
		generated, _ := doc["generated"].(bool)
		if generated {
			return registry.Entities(name, true)
		}
		id := registry.IDOf(name)
		if id == -1 {
			return nil
		}
		l.mu.Lock()
		l.entitiesFP[name] = path
		l.mu.Unlock()
		return []int64{id}
	}

	if rawTags, ok := doc["tags"].([]any); ok {
		seen := make(map[int64]struct{})
		var out []int64
		for _, t := range rawTags {
			tag, ok := t.(string)
			if !ok {
				continue
			}
			for _, id := range registry.Entities(tag, false) {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
		return out
	}

	return nil
}

// Save writes name's current components to the file it was loaded
// from, if known, or to <root>/<name>.json otherwise. Components are
// written sorted by schema name; each component's fields keep the
// component's own field order.
func (l *Loader) Save(name string, id int64) error {
	l.mu.Lock()
	source := l.source
	path, hasPath := l.entitiesFP[name]
	l.mu.Unlock()

	if source == nil {
		return ErrNoSource
	}
	if !hasPath {
		path = filepath.Join(l.root, name+".json")
	}

	comps := source.AllComponents(id)
	schemaNames := make([]string, 0, len(comps))
	for schemaName := range comps {
		schemaNames = append(schemaNames, schemaName)
	}
	sort.Strings(schemaNames)

	compList := make([]any, 0, len(schemaNames))
	for _, schemaName := range schemaNames {
		inst := comps[schemaName]
		fields := inst.RawFields()
		data := make(docfmt.OrderedDoc, 0, len(fields))
		for _, field := range inst.Names() {
			data = append(data, docfmt.KV{Key: field, Value: value.Serialize(fields[field].Value)})
		}
		compList = append(compList, docfmt.OrderedDoc{
			{Key: "name", Value: schemaName},
			{Key: "data", Value: data},
		})
	}

	body := docfmt.OrderedDoc{
		{Key: "entity", Value: name},
		{Key: "components", Value: compList},
	}

	if err := docfmt.WriteJSONAtomic(path, body); err != nil {
		return fmt.Errorf("subscription: saving %q: %w", name, err)
	}

	l.mu.Lock()
	l.entitiesFP[name] = path
	l.mu.Unlock()
	return nil
}
