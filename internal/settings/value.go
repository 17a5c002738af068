// Package settings models editor settings files as ordered, schema-less JSON
// documents. A Value is a tagged variant over the six JSON shapes and a
// Document is an ordered key/value mapping, so merge rules can dispatch on
// Value.Kind instead of runtime type inspection.
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies which JSON shape a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is one JSON value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  *Document
}

// Null returns the JSON null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a JSON number literal. The literal is kept verbatim so that
// documents round-trip without reformatting numbers.
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// Int wraps an integer.
func Int(i int64) Value { return Number(json.Number(strconv.FormatInt(i, 10))) }

// Float wraps a float. Non-finite floats produce a value that fails Validate.
func Float(f float64) Value {
	return Number(json.Number(strconv.FormatFloat(f, 'g', -1, 64)))
}

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array wraps a list of values.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// Object wraps a document. A nil document becomes an empty object.
func Object(d *Document) Value {
	if d == nil {
		d = New()
	}
	return Value{kind: KindObject, obj: d}
}

// Kind reports the shape of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload; false for other kinds.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the number literal; empty for other kinds.
func (v Value) AsNumber() json.Number { return v.num }

// AsString returns the string payload; empty for other kinds.
func (v Value) AsString() string { return v.str }

// AsArray returns the array elements. The slice is shared with v.
func (v Value) AsArray() []Value { return v.arr }

// AsObject returns the object payload; nil for other kinds.
func (v Value) AsObject() *Document { return v.obj }

// Len returns the number of elements of an array or keys of an object.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	default:
		return 0
	}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		items := make([]Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.Clone()
		}
		return Value{kind: KindArray, arr: items}
	case KindObject:
		return Value{kind: KindObject, obj: v.obj.Clone()}
	default:
		return v
	}
}

// Equal reports structural equality. Object key order is ignored; numbers
// compare equal when their literals match or they denote the same float.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return numbersEqual(v.num, o.num)
	case KindString:
		return v.str == o.str
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.obj.Equal(o.obj)
	default:
		return false
	}
}

func numbersEqual(a, b json.Number) bool {
	if a == b {
		return true
	}
	fa, errA := strconv.ParseFloat(string(a), 64)
	fb, errB := strconv.ParseFloat(string(b), 64)
	return errA == nil && errB == nil && fa == fb
}

// Validate checks that v is a well-formed JSON-compatible tree.
// The returned error is a *MalformedInputError naming the offending path.
func (v Value) Validate() error {
	return v.validate("")
}

func (v Value) validate(path string) error {
	switch v.kind {
	case KindNull, KindBool, KindString:
		return nil
	case KindNumber:
		if !validNumber(v.num) {
			return &MalformedInputError{Path: path, Reason: fmt.Sprintf("invalid number %q", string(v.num))}
		}
		return nil
	case KindArray:
		for i, item := range v.arr {
			if err := item.validate(fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case KindObject:
		if v.obj == nil {
			return &MalformedInputError{Path: path, Reason: "nil object"}
		}
		return v.obj.validate(path)
	default:
		return &MalformedInputError{Path: path, Reason: fmt.Sprintf("unknown value kind %d", uint8(v.kind))}
	}
}

func validNumber(n json.Number) bool {
	if n == "" {
		return false
	}
	c := n[0]
	if c != '-' && (c < '0' || c > '9') {
		return false
	}
	if !json.Valid([]byte(n)) {
		return false
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		// Out-of-range literals are still valid JSON.
		return math.IsInf(f, 0)
	}
	return !math.IsNaN(f)
}

// FromAny converts decoded Go data (as produced by encoding/json or yaml
// decoders) into a Value. Map keys are sorted since Go maps carry no order.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		v := Number(t)
		return v, v.Validate()
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return Value{}, &MalformedInputError{Reason: fmt.Sprintf("non-finite number %v", t)}
		}
		return Float(t), nil
	case float32:
		return FromAny(float64(t))
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case int32:
		return Int(int64(t)), nil
	case uint64:
		return Number(json.Number(strconv.FormatUint(t, 10))), nil
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Array(items...), nil
	case []string:
		items := make([]Value, 0, len(t))
		for _, s := range t {
			items = append(items, String(s))
		}
		return Array(items...), nil
	case map[string]any:
		d, err := FromMap(t)
		if err != nil {
			return Value{}, err
		}
		return Object(d), nil
	case *Document:
		return Object(t.Clone()), nil
	case Value:
		return t.Clone(), nil
	default:
		return Value{}, &MalformedInputError{Reason: fmt.Sprintf("unsupported type %T", x)}
	}
}

// MarshalJSON encodes v compactly, preserving object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON value, preserving object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := newDecoder(data)
	parsed, err := dec.value()
	if err != nil {
		return err
	}
	if err := dec.end(); err != nil {
		return err
	}
	*v = parsed
	return nil
}

// String renders v as compact JSON.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid: %v>", err)
	}
	return string(data)
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if !validNumber(v.num) {
			return &MalformedInputError{Reason: fmt.Sprintf("invalid number %q", string(v.num))}
		}
		buf.WriteString(string(v.num))
	case KindString:
		writeString(buf, v.str)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		return v.obj.writeJSON(buf)
	default:
		return &MalformedInputError{Reason: fmt.Sprintf("unknown value kind %d", uint8(v.kind))}
	}
	return nil
}

// writeString encodes s as a JSON string without HTML escaping, so settings
// like "editor.wordSeparators" keep their characters readable.
func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encoder.Encode appends a newline.
	buf.Truncate(buf.Len() - 1)
}
