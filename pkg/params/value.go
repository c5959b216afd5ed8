package params

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindUndefined is the absent-value sentinel. It is omitted from JSON
	// objects and rendered as null inside JSON arrays.
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// String makes Kind satisfy the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// ErrCyclicValue is returned by FromGo when the input refers to itself.
var ErrCyclicValue = errors.New("cyclic parameter value")

// ErrUnsupportedValue is returned by FromGo for Go values that have no
// parameter representation (channels, funcs, structs...).
var ErrUnsupportedValue = errors.New("unsupported parameter value")

// Value is one parameter value: a scalar, or a list or map of Values.
// Values are immutable; the zero Value is Undefined.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	s      string
	list   []Value
	fields []Field
}

// Field is one named entry of a map value or of a Spec.
type Field struct {
	Name  string
	Value Value
}

func Undefined() Value { return Value{} }

func Null() Value { return Value{kind: KindNull} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

func String(s string) Value { return Value{kind: KindString, s: s} }

// List builds a list value. The slice is copied.
func List(vs ...Value) Value {
	return Value{kind: KindList, list: append([]Value(nil), vs...)}
}

// Map builds a map value keeping the first position of every name; a
// repeated name replaces the earlier value.
func Map(fields ...Field) Value {
	return Value{kind: KindMap, fields: dedupe(fields)}
}

func dedupe(fields []Field) []Field {
	out := make([]Field, 0, len(fields))
	index := make(map[string]int, len(fields))
	for _, f := range fields {
		if i, ok := index[f.Name]; ok {
			out[i].Value = f.Value
			continue
		}
		index[f.Name] = len(out)
		out = append(out, f)
	}
	return out
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsUndefined reports whether v is the undefined sentinel.
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsList returns a copy of the list elements.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return append([]Value(nil), v.list...), true
}

// AsMap returns the map entries as a non-null Spec.
func (v Value) AsMap() (Spec, bool) {
	if v.kind != KindMap {
		return Spec{}, false
	}
	return Spec{fields: v.fields, valid: true}, true
}

// Interface converts v back to plain Go data: nil, bool, float64, string,
// []any or map[string]any. Undefined converts to nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.fields))
		for _, f := range v.fields {
			out[f.Name] = f.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// String renders v as canonical JSON.
func (v Value) String() string {
	return string(v.appendJSON(nil, true))
}

// Equal reports deep structural equality. Map key order is irrelevant and NaN
// equals NaN, so equality is reflexive for every value. Like the JSON form,
// Undefined options are ignored and Undefined list elements equal null.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		if math.IsNaN(a.n) && math.IsNaN(b.n) {
			return true
		}
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		// Undefined list elements render as null.
		for i := range a.list {
			if !Equal(nullIfUndefined(a.list[i]), nullIfUndefined(b.list[i])) {
				return false
			}
		}
		return true
	case KindMap:
		return fieldsEqual(a.fields, b.fields)
	}
	return false
}

// fieldsEqual ignores Undefined options, as the JSON form drops them.
func fieldsEqual(a, b []Field) bool {
	if definedLen(a) != definedLen(b) {
		return false
	}
	for _, fa := range a {
		if fa.Value.IsUndefined() {
			continue
		}
		vb, ok := lookup(b, fa.Name)
		if !ok || !Equal(fa.Value, vb) {
			return false
		}
	}
	return true
}

func nullIfUndefined(v Value) Value {
	if v.IsUndefined() {
		return Null()
	}
	return v
}

func definedLen(fields []Field) int {
	n := 0
	for _, f := range fields {
		if !f.Value.IsUndefined() {
			n++
		}
	}
	return n
}

func lookup(fields []Field, name string) (Value, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// FromGo converts plain Go data into a Value. Supported inputs are nil, bool,
// every integer and float kind, string, Value, Spec, slices, arrays and maps
// with string keys (map keys are sorted for a deterministic order), and
// pointers to those. Self-referential inputs return ErrCyclicValue; slices
// sharing a backing array with a parent are only cyclic when they revisit
// the same array with the same length.
func FromGo(x any) (Value, error) {
	return fromGo(reflect.ValueOf(x), map[visit]bool{})
}

// MustValue is like FromGo but panics on error. It is intended for literal
// parameter tables in test definitions.
func MustValue(x any) Value {
	v, err := FromGo(x)
	if err != nil {
		panic(err)
	}
	return v
}

var (
	valueType = reflect.TypeOf(Value{})
	specType  = reflect.TypeOf(Spec{})
)

// visit identifies a reference being converted. n is the length for slices
// and -1 for pointers and maps.
type visit struct {
	ptr uintptr
	n   int
}

func fromGo(rv reflect.Value, active map[visit]bool) (Value, error) {
	if !rv.IsValid() {
		return Null(), nil
	}
	switch rv.Type() {
	case valueType:
		return rv.Interface().(Value), nil
	case specType:
		s := rv.Interface().(Spec)
		if s.IsNull() {
			return Null(), nil
		}
		return Value{kind: KindMap, fields: s.fields}, nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
		if rv.Kind() == reflect.Pointer {
			key := visit{ptr: rv.Pointer(), n: -1}
			if active[key] {
				return Value{}, ErrCyclicValue
			}
			active[key] = true
			defer delete(active, key)
		}
		return fromGo(rv.Elem(), active)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice {
			if rv.IsNil() {
				return Null(), nil
			}
			if rv.Len() > 0 {
				key := visit{ptr: rv.Pointer(), n: rv.Len()}
				if active[key] {
					return Value{}, ErrCyclicValue
				}
				active[key] = true
				defer delete(active, key)
			}
		}
		list := make([]Value, rv.Len())
		for i := range list {
			e, err := fromGo(rv.Index(i), active)
			if err != nil {
				return Value{}, err
			}
			list[i] = e
		}
		return Value{kind: KindList, list: list}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("%w: map key type %s", ErrUnsupportedValue, rv.Type().Key())
		}
		if rv.IsNil() {
			return Null(), nil
		}
		key := visit{ptr: rv.Pointer(), n: -1}
		if active[key] {
			return Value{}, ErrCyclicValue
		}
		active[key] = true
		defer delete(active, key)

		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			e, err := fromGo(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())), active)
			if err != nil {
				return Value{}, err
			}
			fields = append(fields, Field{Name: k, Value: e})
		}
		return Value{kind: KindMap, fields: fields}, nil
	}
	return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedValue, rv.Type())
}
