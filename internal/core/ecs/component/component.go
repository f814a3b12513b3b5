// Package component implements the Component Design model: a single
// named bag of (field name -> (type tag, value)) pairs. A Component
// plays two roles in the layers above this package: a schema store
// keeps one canonical instance (built by NewFromSchemaDoc, never
// mutated after construction) as the template it clones for every
// subscriber, and that clone is the live per-entity instance. Both
// roles share this one type, mirroring the original Component/
// referenceComp relationship rather than splitting it into a separate
// schema type.
package component

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/tailormade/ecs/internal/core/ecs/value"
	"github.com/tailormade/ecs/internal/core/observability/log"
	"github.com/tailormade/ecs/pkg/encoding"
)

var _ encoding.Serializable[*Component] = (*Component)(nil)

// Field is one (tag, value) slot, addressed by field name in Component.fields.
type Field struct {
	Tag   string
	Value value.V
}

// Component is a named, fixed-shape bag of fields. All mutating methods
// and Get take c.mu, matching the spec's per-instance locking rule.
type Component struct {
	mu     sync.Mutex
	name   string
	fields map[string]Field
	order  []string // field iteration order, fixed at construction/add time
}

// NewFromSchemaDoc parses a schema description of shape
// {name, data: {field: type_tag, ...}} and builds a component whose
// fields hold the default value of their declared tag.
func NewFromSchemaDoc(doc map[string]any) (*Component, error) {
	name, ok := doc["name"].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: missing or non-string \"name\"", ErrShapeMismatch)
	}
	data, ok := doc["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing or non-object \"data\"", ErrShapeMismatch)
	}

	c := &Component{name: name, fields: make(map[string]Field, len(data))}
	// map iteration order is random; sort field names so repeated loads
	// of the same schema document produce the same append_text order.
	names := make([]string, 0, len(data))
	for field := range data {
		names = append(names, field)
	}
	sort.Strings(names)

	for _, field := range names {
		tag, ok := data[field].(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q has a non-string type tag", ErrShapeMismatch, field)
		}
		def, err := value.DefaultFor(tag)
		if err != nil {
			return nil, err
		}
		c.fields[field] = Field{Tag: tag, Value: def}
		c.order = append(c.order, field)
	}
	return c, nil
}

// NewNamed builds a component directly from an explicit field map,
// with iteration order sorted by field name for determinism.
func NewNamed(name string, fields map[string]Field) *Component {
	c := &Component{name: name, fields: make(map[string]Field, len(fields))}
	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, field)
	}
	sort.Strings(names)
	for _, field := range names {
		c.fields[field] = fields[field]
		c.order = append(c.order, field)
	}
	return c
}

// Clone returns a new Component that is a deep copy of c.
func (c *Component) Clone() *Component {
	clone := &Component{}
	clone.CloneFrom(c)
	return clone
}

// CloneFrom replaces c's name and fields with a deep copy of other.
func (c *Component) CloneFrom(other *Component) {
	other.mu.Lock()
	name := other.name
	order := make([]string, len(other.order))
	copy(order, other.order)
	fields := make(map[string]Field, len(other.fields))
	for k, v := range other.fields {
		fields[k] = v
	}
	other.mu.Unlock()

	c.mu.Lock()
	c.name = name
	c.order = order
	c.fields = fields
	c.mu.Unlock()
}

// Name returns the component's schema name.
func (c *Component) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// Names returns the field names in iteration order.
func (c *Component) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// TypeOf returns field's declared type tag, or "" if field is unknown.
// It never fails.
func (c *Component) TypeOf(field string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields[field].Tag
}

// RawFields returns a copy of the field table, keyed by field name.
func (c *Component) RawFields() map[string]Field {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Field, len(c.fields))
	for k, v := range c.fields {
		out[k] = v
	}
	return out
}

// Get returns the value stored under field, type-asserted to T. On a
// missing field or a type mismatch it logs a diagnostic and returns
// the zero value of T; it never panics or returns an error.
func Get[T any](c *Component, field string) T {
	var zero T

	c.mu.Lock()
	slot, known := c.fields[field]
	name := c.name
	c.mu.Unlock()

	if !known {
		log.Provide().Warn("component: get on unknown field",
			log.String("component", name), log.String("field", field))
		return zero
	}

	got, ok := slot.Value.Any().(T)
	if !ok {
		log.Provide().Warn("component: get type mismatch",
			log.String("component", name), log.String("field", field), log.String("tag", slot.Tag))
		return zero
	}
	return got
}

// Set writes v to an existing field. It silently no-ops, after logging
// a diagnostic, if field is unknown or v's kind does not match the
// field's declared tag.
func (c *Component) Set(field string, v value.V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, known := c.fields[field]
	if !known {
		log.Provide().Warn("component: set on unknown field",
			log.String("component", c.name), log.String("field", field))
		return
	}
	if slot.Tag != v.Kind().String() && !tagAliasesKind(slot.Tag, v.Kind()) {
		log.Provide().Warn("component: set tag mismatch",
			log.String("component", c.name), log.String("field", field),
			log.String("declared_tag", slot.Tag), log.String("value_kind", v.Kind().String()))
		return
	}
	slot.Value = v
	c.fields[field] = slot
}

// tagAliasesKind covers the tag aliases DefaultFor/ParseValue accept
// (e.g. "integer" for KindInt) that Kind.String() never produces.
func tagAliasesKind(tag string, k value.Kind) bool {
	def, err := value.DefaultFor(tag)
	return err == nil && def.Kind() == k
}

// Add appends a new field with the default value of tag. Used only
// during schema authoring, before a schema is handed to a store.
func (c *Component) Add(field, tag string) error {
	def, err := value.DefaultFor(tag)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.fields[field]; !exists {
		c.order = append(c.order, field)
	}
	c.fields[field] = Field{Tag: tag, Value: def}
	return nil
}

// AppendText writes "name:\n" followed by one "Name: <field>, Type:
// <tag>, Value: <v>" line per field, in the component's iteration
// order, to w.
func (c *Component) AppendText(w io.Writer) error {
	c.mu.Lock()
	name := c.name
	order := make([]string, len(c.order))
	copy(order, c.order)
	fields := make(map[string]Field, len(c.fields))
	for k, v := range c.fields {
		fields[k] = v
	}
	c.mu.Unlock()

	if _, err := fmt.Fprintf(w, "%s:\n", name); err != nil {
		return err
	}
	for _, field := range order {
		slot := fields[field]
		if _, err := fmt.Fprintf(w, "Name: %s, Type: %s, Value: %s\n", field, slot.Tag, slot.Value.String()); err != nil {
			return err
		}
	}
	return nil
}

// jsonForm is the wire shape used by Serialize/Deserialize: a document
// preserving field iteration order via a parallel []string, since a
// bare map would let encoding/json re-sort keys.
type jsonForm struct {
	Name   string   `json:"name"`
	Order  []string `json:"order"`
	Fields map[string]struct {
		Tag   string `json:"tag"`
		Value any    `json:"value"`
	} `json:"fields"`
}

// Serialize implements encoding.Serializable[*Component].
func (c *Component) Serialize() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	form := jsonForm{Name: c.name, Order: append([]string(nil), c.order...)}
	form.Fields = make(map[string]struct {
		Tag   string `json:"tag"`
		Value any    `json:"value"`
	}, len(c.fields))
	for field, slot := range c.fields {
		form.Fields[field] = struct {
			Tag   string `json:"tag"`
			Value any    `json:"value"`
		}{Tag: slot.Tag, Value: value.Serialize(slot.Value)}
	}
	return json.Marshal(form)
}

// Deserialize implements encoding.Serializable[*Component], replacing
// c's contents with the decoded form.
func (c *Component) Deserialize(data []byte) error {
	var form jsonForm
	if err := json.Unmarshal(data, &form); err != nil {
		return fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	fields := make(map[string]Field, len(form.Fields))
	for field, raw := range form.Fields {
		v, err := value.ParseValue(raw.Value, raw.Tag)
		if err != nil {
			return err
		}
		fields[field] = Field{Tag: raw.Tag, Value: v}
	}

	c.mu.Lock()
	c.name = form.Name
	c.order = form.Order
	c.fields = fields
	c.mu.Unlock()
	return nil
}

// Checksum fingerprints c's sorted (field, tag) pairs with xxhash for
// diagnostics only, e.g. flagging two schema files that redefine the
// same name with a different shape. It never participates in equality
// or lookup.
func (c *Component) Checksum() uint64 {
	c.mu.Lock()
	order := make([]string, len(c.order))
	copy(order, c.order)
	fields := make(map[string]Field, len(c.fields))
	for k, v := range c.fields {
		fields[k] = v
	}
	c.mu.Unlock()

	sort.Strings(order)
	h := xxhash.New()
	for _, field := range order {
		_, _ = h.WriteString(field)
		_, _ = h.WriteString(":")
		_, _ = h.WriteString(fields[field].Tag)
		_, _ = h.WriteString(";")
	}
	return h.Sum64()
}
