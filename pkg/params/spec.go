package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrKeyCollision is returned when two merged specs define the same option.
	ErrKeyCollision = errors.New("parameter key collision")
	// ErrDuplicateKey is returned when a spec literal names an option twice.
	ErrDuplicateKey = errors.New("duplicate parameter key")
	// ErrNotObject is returned when parsing params that are not a JSON object.
	ErrNotObject = errors.New("params must be a JSON object")
)

// Spec is an immutable ordered mapping from option name to Value. The zero
// Spec is the null spec, used by cases that take no parameters; Empty() is
// the distinct non-null spec with no options.
type Spec struct {
	fields []Field
	valid  bool
}

// Empty returns the non-null spec with no options.
func Empty() Spec { return Spec{valid: true} }

// NewSpec builds a spec from fields, rejecting repeated names.
func NewSpec(fields ...Field) (Spec, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f.Name]; ok {
			return Spec{}, fmt.Errorf("%w: %q", ErrDuplicateKey, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return Spec{fields: append([]Field(nil), fields...), valid: true}, nil
}

// MustSpec is like NewSpec but panics on error.
func MustSpec(fields ...Field) Spec {
	s, err := NewSpec(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// F builds a Field from plain Go data. It panics if x has no parameter
// representation, so it is meant for literals only.
func F(name string, x any) Field {
	return Field{Name: name, Value: MustValue(x)}
}

// SpecFromMap builds a spec from a Go map. Keys are sorted so the result is
// deterministic.
func SpecFromMap(m map[string]any) (Spec, error) {
	if m == nil {
		return Spec{}, nil
	}
	v, err := FromGo(m)
	if err != nil {
		return Spec{}, err
	}
	return Spec{fields: v.fields, valid: true}, nil
}

// IsNull reports whether s is the null spec.
func (s Spec) IsNull() bool { return !s.valid }

// Len returns the number of options.
func (s Spec) Len() int { return len(s.fields) }

// Keys returns the option names in insertion order.
func (s Spec) Keys() []string {
	keys := make([]string, len(s.fields))
	for i, f := range s.fields {
		keys[i] = f.Name
	}
	return keys
}

// Fields returns a copy of the options in insertion order.
func (s Spec) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Get returns the value of option name.
func (s Spec) Get(name string) (Value, bool) {
	return lookup(s.fields, name)
}

// Lookup returns the value of option name, or Undefined.
func (s Spec) Lookup(name string) Value {
	v, _ := lookup(s.fields, name)
	return v
}

// Equal reports whether both specs are null, or both are non-null with the
// same options and equal values. Option order is irrelevant.
func (s Spec) Equal(other Spec) bool {
	if s.valid != other.valid {
		return false
	}
	return fieldsEqual(s.fields, other.fields)
}

// Contains reports whether every option of sub is present in s with an equal
// value. A null sub is contained in everything. Undefined options of sub are
// ignored.
func (s Spec) Contains(sub Spec) bool {
	for _, f := range sub.fields {
		if f.Value.IsUndefined() {
			continue
		}
		v, ok := lookup(s.fields, f.Name)
		if !ok || !Equal(v, f.Value) {
			return false
		}
	}
	return true
}

// Merge returns the union of s and other, s's options first. A name defined
// in both returns ErrKeyCollision.
func (s Spec) Merge(other Spec) (Spec, error) {
	out := make([]Field, 0, len(s.fields)+len(other.fields))
	out = append(out, s.fields...)
	for _, f := range other.fields {
		if _, ok := lookup(s.fields, f.Name); ok {
			return Spec{}, fmt.Errorf("%w: %q", ErrKeyCollision, f.Name)
		}
		out = append(out, f)
	}
	return Spec{fields: out, valid: true}, nil
}

// Canonical renders s as JSON with keys sorted at every level. Two specs are
// Equal exactly when their canonical forms match, except for the NaN and
// Undefined corner cases that JSON cannot express.
func (s Spec) Canonical() string {
	if !s.valid {
		return "null"
	}
	return string(appendObject(nil, s.fields, true))
}

// String returns the canonical form.
func (s Spec) String() string { return s.Canonical() }

// MarshalJSON renders the options in insertion order.
func (s Spec) MarshalJSON() ([]byte, error) {
	if !s.valid {
		return []byte("null"), nil
	}
	return appendObject(nil, s.fields, false), nil
}

// UnmarshalJSON accepts a JSON object or null.
func (s *Spec) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*s = Spec{}
		return nil
	}
	parsed, err := ParseSpec(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalJSON renders v with insertion-ordered maps.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.appendJSON(nil, false), nil
}

// UnmarshalJSON decodes any JSON value, keeping object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseSpec parses a JSON object into a spec. Later duplicate keys replace
// earlier ones.
func ParseSpec(s string) (Spec, error) {
	v, err := ParseValue(s)
	if err != nil {
		return Spec{}, err
	}
	if v.kind != KindMap {
		return Spec{}, fmt.Errorf("%w: got %s", ErrNotObject, v.kind)
	}
	return Spec{fields: v.fields, valid: true}, nil
}

// ParseValue parses a single JSON document into a Value.
func ParseValue(s string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("invalid params json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("invalid params json: trailing data after value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		n, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return Value{}, err
		}
		return Number(n), nil
	case json.Delim:
		switch t {
		case '[':
			list := []Value{}
			for dec.More() {
				e, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				list = append(list, e)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: KindList, list: list}, nil
		case '{':
			var fields []Field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key %v is not a string", keyTok)
				}
				e, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				fields = append(fields, Field{Name: key, Value: e})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: KindMap, fields: dedupe(fields)}, nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func (v Value) appendJSON(buf []byte, canonical bool) []byte {
	switch v.kind {
	case KindBool:
		return strconv.AppendBool(buf, v.b)
	case KindNumber:
		return appendNumber(buf, v.n)
	case KindString:
		return appendString(buf, v.s)
	case KindList:
		buf = append(buf, '[')
		for i, e := range v.list {
			if i > 0 {
				buf = append(buf, ',')
			}
			if e.kind == KindUndefined {
				buf = append(buf, "null"...)
				continue
			}
			buf = e.appendJSON(buf, canonical)
		}
		return append(buf, ']')
	case KindMap:
		return appendObject(buf, v.fields, canonical)
	default:
		return append(buf, "null"...)
	}
}

func appendObject(buf []byte, fields []Field, canonical bool) []byte {
	if canonical {
		fields = append([]Field(nil), fields...)
		sort.SliceStable(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	}
	buf = append(buf, '{')
	first := true
	for _, f := range fields {
		if f.Value.kind == KindUndefined {
			continue
		}
		if !first {
			buf = append(buf, ',')
		}
		first = false
		buf = appendString(buf, f.Name)
		buf = append(buf, ':')
		buf = f.Value.appendJSON(buf, canonical)
	}
	return append(buf, '}')
}

// appendNumber follows the ECMAScript number formatting used by JSON.stringify:
// plain decimals between 1e-6 and 1e21, exponent form outside, null for NaN and
// infinities.
func appendNumber(buf []byte, n float64) []byte {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return append(buf, "null"...)
	}
	if n == 0 {
		n = 0 // -0 -> 0
	}
	abs := math.Abs(n)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	start := len(buf)
	buf = strconv.AppendFloat(buf, n, format, -1, 64)
	if format == 'e' {
		// e-07 -> e-7
		out := buf[start:]
		if i := bytes.IndexByte(out, 'e'); i >= 0 && i+3 < len(out) && out[i+2] == '0' {
			copy(out[i+2:], out[i+3:])
			buf = buf[:len(buf)-1]
		}
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return append(buf, bytes.TrimRight(b.Bytes(), "\n")...)
}
