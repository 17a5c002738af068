package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/jsonc"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse decodes a settings document. The input may carry a UTF-8 byte order
// mark and JSONC extensions (// and /* */ comments, trailing commas), as
// editor settings files commonly do. Empty input yields an empty document.
// Anything that is not a JSON object is rejected with *MalformedInputError.
func Parse(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	stripped := jsonc.ToJSON(data)
	if len(bytes.TrimSpace(stripped)) == 0 {
		return New(), nil
	}

	dec := newDecoder(stripped)
	v, err := dec.value()
	if err != nil {
		return nil, err
	}
	if err := dec.end(); err != nil {
		return nil, err
	}
	if v.Kind() != KindObject {
		return nil, &MalformedInputError{Reason: fmt.Sprintf("top-level value is %s, want object", v.Kind())}
	}
	return v.AsObject(), nil
}

// ReadFile parses the settings file at path. A missing file yields an empty
// document so that absent profiles or fresh installs merge cleanly.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		var mErr *MalformedInputError
		if errors.As(err, &mErr) {
			mErr.Source = path
		}
		return nil, err
	}
	return doc, nil
}

// decoder walks encoding/json tokens to build Values while keeping object key
// order, which map-based decoding would lose.
type decoder struct {
	dec *json.Decoder
}

func newDecoder(data []byte) *decoder {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return &decoder{dec: dec}
}

func (d *decoder) value() (Value, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return Value{}, d.wrap(err)
	}
	return d.fromToken(tok)
}

func (d *decoder) fromToken(tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '{':
			return d.object()
		case '[':
			return d.array()
		}
	}
	return Value{}, &MalformedInputError{Offset: d.dec.InputOffset(), Reason: fmt.Sprintf("unexpected token %v", tok)}
}

func (d *decoder) object() (Value, error) {
	doc := New()
	for d.dec.More() {
		tok, err := d.dec.Token()
		if err != nil {
			return Value{}, d.wrap(err)
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, &MalformedInputError{Offset: d.dec.InputOffset(), Reason: fmt.Sprintf("object key is %v, want string", tok)}
		}
		v, err := d.value()
		if err != nil {
			return Value{}, err
		}
		// Duplicate keys: the last occurrence wins, as in JSON.parse.
		doc.Set(key, v)
	}
	if _, err := d.dec.Token(); err != nil {
		return Value{}, d.wrap(err)
	}
	return Object(doc), nil
}

func (d *decoder) array() (Value, error) {
	items := []Value{}
	for d.dec.More() {
		v, err := d.value()
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	if _, err := d.dec.Token(); err != nil {
		return Value{}, d.wrap(err)
	}
	return Array(items...), nil
}

// end fails when anything but whitespace follows the first value.
func (d *decoder) end() error {
	if _, err := d.dec.Token(); err != io.EOF {
		if err == nil {
			return &MalformedInputError{Offset: d.dec.InputOffset(), Reason: "unexpected data after top-level value"}
		}
		return d.wrap(err)
	}
	return nil
}

func (d *decoder) wrap(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &MalformedInputError{Offset: d.dec.InputOffset(), Reason: "invalid JSON", Err: err}
}
