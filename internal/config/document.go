package config

import (
	"fmt"
	"strings"
)

// Document is an ordered mapping of unique keys to values. Once built it
// is treated as immutable: With and Merge return new documents and never
// touch the receiver, so one base document can seed any number of runs.
type Document struct {
	keys   []string
	values map[string]Value
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{values: make(map[string]Value)}
}

func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order.
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

func (d *Document) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	v, ok := d.values[key]
	if !ok {
		return Value{}, false
	}
	return v.clone(), true
}

func (d *Document) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.values[key]
	return ok
}

// With returns a copy of d with key set to v. An existing key keeps its
// position; a new key is appended.
func (d *Document) With(key string, v Value) *Document {
	out := d.Clone()
	out.set(key, v.clone())
	return out
}

// Merge returns a copy of d in which every key of overrides replaces the
// value in d. Keys missing from d are appended in overrides' order.
// Nested mappings are replaced, not merged.
func (d *Document) Merge(overrides *Document) *Document {
	out := d.Clone()
	for _, k := range overrides.Keys() {
		out.set(k, overrides.values[k].clone())
	}
	return out
}

// Clone returns a deep copy. Cloning a nil document yields an empty one.
func (d *Document) Clone() *Document {
	out := NewDocument()
	if d == nil {
		return out
	}
	out.keys = make([]string, len(d.keys))
	copy(out.keys, d.keys)
	for k, v := range d.values {
		out.values[k] = v.clone()
	}
	return out
}

// Equal reports whether both documents hold the same keys in the same
// order with equal values.
func (d *Document) Equal(o *Document) bool {
	if d.Len() != o.Len() {
		return false
	}
	for i := 0; i < d.Len(); i++ {
		if d.keys[i] != o.keys[i] {
			return false
		}
		if !d.values[d.keys[i]].Equal(o.values[o.keys[i]]) {
			return false
		}
	}
	return true
}

func (d *Document) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range d.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", k, d.values[k])
	}
	sb.WriteByte('}')
	return sb.String()
}

// set is only used while a document is being built.
func (d *Document) set(key string, v Value) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

// Builder assembles a Document key by key.
type Builder struct {
	doc *Document
}

func NewBuilder() *Builder {
	return &Builder{doc: NewDocument()}
}

// Set adds or replaces a key. It returns the builder for chaining.
func (b *Builder) Set(key string, v Value) *Builder {
	b.doc.set(key, v.clone())
	return b
}

// Document returns the built document. The builder must not be reused.
func (b *Builder) Document() *Document {
	d := b.doc
	b.doc = nil
	return d
}
