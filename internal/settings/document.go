package settings

import (
	"bytes"
	"fmt"
	"sort"
)

// Document is an ordered mapping of keys to values: the root of a
// settings.json file or any nested JSON object. Keys keep the order in which
// they were first inserted. A nil *Document behaves as an empty, read-only
// document.
type Document struct {
	keys   []string
	values map[string]Value
}

// New returns an empty document.
func New() *Document {
	return &Document{values: make(map[string]Value)}
}

// FromMap builds a document from a Go map. Keys are inserted in sorted order.
func FromMap(m map[string]any) (*Document, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := New()
	for _, k := range keys {
		v, err := FromAny(m[k])
		if err != nil {
			if mErr, ok := err.(*MalformedInputError); ok {
				mErr.Path = joinPath(k, mErr.Path)
			}
			return nil, err
		}
		d.Set(k, v)
	}
	return d, nil
}

// Len returns the number of keys.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in document order.
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.values[key]
	return ok
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	v, ok := d.values[key]
	return v, ok
}

// GetString returns the string stored under key, or fallback when the key is
// missing or not a string.
func (d *Document) GetString(key, fallback string) string {
	v, ok := d.Get(key)
	if !ok || v.Kind() != KindString {
		return fallback
	}
	return v.AsString()
}

// Set stores v under key. New keys are appended; existing keys keep their
// position.
func (d *Document) Set(key string, v Value) {
	if d.values == nil {
		d.values = make(map[string]Value)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

// Delete removes key if present.
func (d *Document) Delete(key string) {
	if d == nil {
		return
	}
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Lookup walks a key path through nested objects.
func (d *Document) Lookup(path []string) (Value, bool) {
	if len(path) == 0 {
		return Value{}, false
	}
	cur := d
	for i, seg := range path {
		v, ok := cur.Get(seg)
		if !ok {
			return Value{}, false
		}
		if i == len(path)-1 {
			return v, true
		}
		if v.Kind() != KindObject {
			return Value{}, false
		}
		cur = v.AsObject()
	}
	return Value{}, false
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := New()
	if d == nil {
		return out
	}
	out.keys = make([]string, len(d.keys))
	copy(out.keys, d.keys)
	for k, v := range d.values {
		out.values[k] = v.Clone()
	}
	return out
}

// Equal reports whether both documents hold the same keys with equal values.
// Key order is ignored.
func (d *Document) Equal(o *Document) bool {
	if d.Len() != o.Len() {
		return false
	}
	for _, k := range d.Keys() {
		ov, ok := o.Get(k)
		if !ok {
			return false
		}
		dv, _ := d.Get(k)
		if !dv.Equal(ov) {
			return false
		}
	}
	return true
}

// Validate checks every value in the document. A nil document is malformed.
func (d *Document) Validate() error {
	if d == nil {
		return &MalformedInputError{Reason: "document is nil"}
	}
	return d.validate("")
}

func (d *Document) validate(prefix string) error {
	if len(d.keys) != len(d.values) {
		return &MalformedInputError{Path: prefix, Reason: "inconsistent key index"}
	}
	for _, k := range d.keys {
		v, ok := d.values[k]
		if !ok {
			return &MalformedInputError{Path: joinPath(prefix, k), Reason: "key without value"}
		}
		if err := v.validate(joinPath(prefix, k)); err != nil {
			return err
		}
	}
	return nil
}

// ToMap converts the document into plain Go values (numbers as float64 when
// they parse, otherwise their literal string). Used for yaml/koanf interop.
func (d *Document) ToMap() map[string]any {
	out := make(map[string]any, d.Len())
	for _, k := range d.Keys() {
		v, _ := d.Get(k)
		out[k] = v.toAny()
	}
	return out
}

func (v Value) toAny() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if i, err := v.num.Int64(); err == nil {
			return i
		}
		if f, err := v.num.Float64(); err == nil {
			return f
		}
		return string(v.num)
	case KindString:
		return v.str
	case KindArray:
		items := make([]any, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.toAny()
		}
		return items
	case KindObject:
		return v.obj.ToMap()
	default:
		return nil
	}
}

// MarshalJSON encodes the document compactly in key order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

func (d *Document) writeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, k := range d.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, k)
		buf.WriteByte(':')
		v, _ := d.Get(k)
		if err := v.writeJSON(buf); err != nil {
			if mErr, ok := err.(*MalformedInputError); ok {
				mErr.Path = joinPath(k, mErr.Path)
			}
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// String renders the document as compact JSON.
func (d *Document) String() string {
	data, err := d.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid: %v>", err)
	}
	return string(data)
}

func joinPath(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	case key[0] == '[':
		return prefix + key
	default:
		return prefix + "." + key
	}
}
