// Package kgx defines the record/node/edge data model shared by every
// reader, transform, writer, and graph operation in kgxflow: the KGX
// (Knowledge Graph Exchange) convention of two row streams, nodes and edges,
// carrying a semi-structured, Biolink-derived property bag.
package kgx

import (
	"fmt"
)

// Value is the semantic type union a Record's fields may hold:
// string | int | int64 | float64 | []string | nil.
type Value = any

// Record is an ordered, string-keyed property bag. Insertion order of keys
// is preserved so TSV output can reproduce the order a reader (or a user
// transform) produced them in, before canonical column ordering is applied.
type Record struct {
	keys   []string
	values map[string]Value
}

// NewRecord returns an empty Record ready for Set calls.
func NewRecord() *Record {
	return &Record{values: make(map[string]Value)}
}

// RecordFromMap builds a Record from a map, with keys ordered per the
// supplied order slice. Keys present in the map but absent from order are
// appended afterward in map iteration order (non-deterministic callers
// should supply an explicit order).
func RecordFromMap(m map[string]Value, order []string) *Record {
	r := NewRecord()
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		if v, ok := m[k]; ok {
			r.Set(k, v)
			seen[k] = true
		}
	}
	for k, v := range m {
		if !seen[k] {
			r.Set(k, v)
		}
	}
	return r
}

// Set assigns a value to key, appending key to the key order if new.
func (r *Record) Set(key string, value Value) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value at key and whether it was present.
func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// GetString returns the value at key coerced to a string, or "" if absent
// or not a string.
func (r *Record) GetString(key string) string {
	v, ok := r.values[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetList returns the value at key as a []string. A bare string is returned
// as a single-element list so callers don't have to special-case scalar vs.
// multivalued fields that happen to carry one value.
func (r *Record) GetList(key string) []string {
	v, ok := r.values[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return []string{fmt.Sprintf("%v", t)}
	}
}

// Delete removes key from the record.
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Has reports whether key is present (even if its value is nil).
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the record's keys in insertion order. The returned slice is
// owned by the caller; mutating it does not affect the record.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields in the record.
func (r *Record) Len() int {
	return len(r.keys)
}

// Clone returns a deep-enough copy: the key order and value map are copied,
// but []string values are shared (callers must not mutate them in place).
func (r *Record) Clone() *Record {
	clone := &Record{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]Value, len(r.values)),
	}
	copy(clone.keys, r.keys)
	for k, v := range r.values {
		clone.values[k] = v
	}
	return clone
}

// ToMap returns the record's values as a plain map, discarding key order.
func (r *Record) ToMap() map[string]Value {
	out := make(map[string]Value, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// IsNode reports whether the record carries an "id" field and lacks the
// subject/predicate/object triple that marks an edge.
func (r *Record) IsNode() bool {
	return r.Has("id") && !r.IsEdge()
}

// IsEdge reports whether the record carries subject, predicate, and object.
func (r *Record) IsEdge() bool {
	return r.Has("subject") && r.Has("predicate") && r.Has("object")
}

// NewNode returns a Record with the required id and category fields set.
func NewNode(id string, category ...string) *Record {
	r := NewRecord()
	r.Set("id", id)
	if len(category) > 0 {
		r.Set("category", category)
	}
	return r
}

// NewEdge returns a Record with the required subject/predicate/object fields set.
func NewEdge(subject, predicate, object string) *Record {
	r := NewRecord()
	r.Set("subject", subject)
	r.Set("predicate", predicate)
	r.Set("object", object)
	return r
}

// MultivaluedColumns lists the Biolink-derived columns that graph export
// decodes from their stored JSON-array text back into lists, which the TSV
// writer then flattens with "|" (§4.G). Loading and unification store each
// cell as it was read: a pipe-delimited string in one of these columns is
// kept as one string and is not split into a list.
var MultivaluedColumns = map[string]bool{
	"category":     true,
	"publications": true,
	"has_evidence": true,
	"provided_by":  true,
	"synonym":      true,
	"xref":         true,
	"qualifiers":   true,
}

// NodeColumnPrefix is the canonical leading column order the TSV writer
// applies to node records before falling back to alphabetical order for the
// remaining columns.
var NodeColumnPrefix = []string{
	"id", "category", "name", "description", "xref", "provided_by", "synonym",
}

// EdgeColumnPrefix is the canonical leading column order the TSV writer
// applies to edge records.
var EdgeColumnPrefix = []string{
	"id", "subject", "predicate", "object", "category", "provided_by",
}
