package boundary

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// Attributes is a feature's attribute mapping that remembers key order as it
// appeared in the source. Resolution walks keys in this order.
type Attributes struct {
	keys   []string
	values map[string]any
}

// NewAttributes builds an Attributes from alternating key/value pairs.
func NewAttributes(kv ...any) Attributes {
	var a Attributes
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		a.Set(k, kv[i+1])
	}
	return a
}

// Set assigns a value. A new key is appended; an existing key keeps its
// original position.
func (a *Attributes) Set(key string, value any) {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Get returns the value stored under key.
func (a Attributes) Get(key string) (any, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Keys returns the keys in source order.
func (a Attributes) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of attributes.
func (a Attributes) Len() int { return len(a.keys) }

// Map returns an unordered copy of the attributes.
func (a Attributes) Map() map[string]any {
	out := make(map[string]any, len(a.keys))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy that can be extended without touching a.
func (a Attributes) Clone() Attributes {
	c := Attributes{keys: make([]string, len(a.keys)), values: make(map[string]any, len(a.values))}
	copy(c.keys, a.keys)
	for k, v := range a.values {
		c.values[k] = v
	}
	return c
}

// MarshalJSON writes the attributes as a JSON object in key order.
func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, eris.Wrap(err, "boundary: marshal attribute key")
		}
		vb, err := json.Marshal(a.values[k])
		if err != nil {
			return nil, eris.Wrapf(err, "boundary: marshal attribute %q", k)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object token by token so that key order is kept.
// Numbers become float64. A duplicate key keeps its first position and its
// last value. null decodes to empty attributes.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	*a = Attributes{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return eris.Wrap(err, "boundary: read attributes")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return eris.Errorf("boundary: attributes must be an object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return eris.Wrap(err, "boundary: read attribute key")
		}
		key, ok := tok.(string)
		if !ok {
			return eris.Errorf("boundary: unexpected attribute key %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return eris.Wrapf(err, "boundary: read attribute %q", key)
		}
		a.Set(key, plainNumbers(v))
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return eris.Wrap(err, "boundary: close attributes")
	}
	return nil
}

// plainNumbers converts json.Number values to float64, recursing into
// nested arrays and objects.
func plainNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case []any:
		for i := range t {
			t[i] = plainNumbers(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = plainNumbers(t[k])
		}
		return t
	}
	return v
}
