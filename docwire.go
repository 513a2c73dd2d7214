// Package docwire translates schema-less documents to and from two wire
// formats: a textual one (JSON extended with comments, trailing commas and
// bare top-level scalars) and a binary one (BSON).
//
// Both codecs build and read the same in-memory graph: a Document is an
// ordered collection of key/value pairs and every value is a tagged Value.
// Numbers are held as arbitrary-precision decimals so nothing is lost when a
// value crosses from one wire format to the other.
//
//	doc, err := docwire.NewTextCodec().DecodeDocument(r)
//	...
//	raw, err := docwire.NewBinaryCodec().Marshal(doc)
package docwire

import (
	"iter"
	"slices"
)

// Document represents a document, defined as an ordered collection of
// key-value pairs with unique keys. The zero value is an empty document ready
// to use.
type Document struct {
	entries []Entry
}

// Array represents an array, defined as a slice of values.
type Array []Value

// Entry represents a single entry in a document. It consists of a string key
// and an associated value.
type Entry struct {
	Key   string
	Value Value
}

// NewDocument returns a document holding the given entries in order. A later
// entry with a key already seen replaces the earlier value in place.
func NewDocument(entries ...Entry) *Document {
	d := &Document{entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		d.Set(e.Key, e.Value)
	}
	return d
}

func (d *Document) index(key string) int {
	if d == nil {
		return -1
	}
	for i := range d.entries {
		if d.entries[i].Key == key {
			return i
		}
	}
	return -1
}

// Len returns the number of entries.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (Value, bool) {
	if i := d.index(key); i >= 0 {
		return d.entries[i].Value, true
	}
	return Value{}, false
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	return d.index(key) >= 0
}

// Set stores v under key. An existing key keeps its position.
func (d *Document) Set(key string, v Value) {
	if i := d.index(key); i >= 0 {
		d.entries[i].Value = v
		return
	}
	d.entries = append(d.entries, Entry{Key: key, Value: v})
}

// Delete removes key and reports whether it was present.
func (d *Document) Delete(key string) bool {
	i := d.index(key)
	if i < 0 {
		return false
	}
	d.entries = slices.Delete(d.entries, i, i+1)
	return true
}

// Keys returns the keys in insertion order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, d.Len())
	for k := range d.All() {
		keys = append(keys, k)
	}
	return keys
}

// Entries returns a copy of the entries in insertion order.
func (d *Document) Entries() []Entry {
	if d == nil {
		return nil
	}
	return slices.Clone(d.entries)
}

// All iterates over the entries in insertion order.
func (d *Document) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if d == nil {
			return
		}
		for _, e := range d.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := &Document{entries: make([]Entry, 0, d.Len())}
	for k, v := range d.All() {
		out.entries = append(out.entries, Entry{Key: k, Value: v.Clone()})
	}
	return out
}

// Equal reports whether d and other hold equal values under the same keys in
// the same order. Numbers compare by decimal value, ignoring their width.
func (d *Document) Equal(other *Document) bool {
	if d.Len() != other.Len() {
		return false
	}
	for i := 0; i < d.Len(); i++ {
		a, b := d.entries[i], other.entries[i]
		if a.Key != b.Key || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}
