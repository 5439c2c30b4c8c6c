// Package config implements the master configuration store and the
// per-stage read-through snapshots that fan out of it.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies which member of the value universe a Value holds.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
	KindTuple
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTuple:
		return "tuple"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a single config value drawn from the bounded universe in
// spec §3: bool, int, float, string, an ordered tuple, or an ordered
// list. Tuple and List share a representation (an ordered slice of
// Value) but round-trip through JSON as distinct shapes — see
// MarshalJSON — so Save/Load preserves which one a key held.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	items []Value
}

func Bool(v bool) Value    { return Value{kind: KindBool, b: v} }
func Int(v int64) Value    { return Value{kind: KindInt, i: v} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func String(v string) Value { return Value{kind: KindString, s: v} }

func Tuple(items ...Value) Value {
	return Value{kind: KindTuple, items: append([]Value(nil), items...)}
}

func List(items ...Value) Value {
	return Value{kind: KindList, items: append([]Value(nil), items...)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsBool() (bool, bool)       { return v.b, v.kind == KindBool }
func (v Value) AsInt() (int64, bool)       { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool)   { return v.f, v.kind == KindFloat }
func (v Value) AsString() (string, bool)   { return v.s, v.kind == KindString }
func (v Value) AsItems() ([]Value, bool) {
	if v.kind != KindTuple && v.kind != KindList {
		return nil, false
	}
	return v.items, true
}

// Equal reports whether two values are identical in kind and content.
// Used by the round-trip save/load tests spec §8 requires.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindTuple, KindList:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindTuple, KindList:
		parts := make([]string, len(v.items))
		for i, it := range v.items {
			parts[i] = it.String()
		}
		if v.kind == KindTuple {
			return "(" + strings.Join(parts, ", ") + ")"
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<invalid>"
	}
}

// tupleWrapper is the on-disk shape used to distinguish an ordered
// Tuple from an ordered List — both hold a Go slice of Value, but a
// plain JSON array round-trips as a List. A Tuple is wrapped in an
// object carrying the tupleMarker key so Save followed by Load
// restores the original Kind.
const tupleMarker = "__tuple__"

type tupleWrapper struct {
	Marker []Value `json:"__tuple__"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindList:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	case KindTuple:
		items := v.items
		if items == nil {
			items = []Value{}
		}
		return json.Marshal(tupleWrapper{Marker: items})
	default:
		return nil, fmt.Errorf("config: marshal value: unknown kind %v", v.kind)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("config: unmarshal value: %w", err)
	}
	parsed, err := fromInterface(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func fromInterface(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{}, fmt.Errorf("config: null is not a valid config value")
	case bool:
		return Bool(x), nil
	case json.Number:
		if strings.ContainsAny(x.String(), ".eE") {
			f, err := x.Float64()
			if err != nil {
				return Value{}, fmt.Errorf("config: parse float %q: %w", x, err)
			}
			return Float(f), nil
		}
		i, err := x.Int64()
		if err != nil {
			f, ferr := x.Float64()
			if ferr != nil {
				return Value{}, fmt.Errorf("config: parse number %q: %w", x, err)
			}
			return Float(f), nil
		}
		return Int(i), nil
	case string:
		return String(x), nil
	case []interface{}:
		items := make([]Value, len(x))
		for i, it := range x {
			v, err := fromInterface(it)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return List(items...), nil
	case map[string]interface{}:
		if raw, ok := x[tupleMarker]; ok {
			arr, ok := raw.([]interface{})
			if !ok {
				return Value{}, fmt.Errorf("config: %s marker must wrap an array", tupleMarker)
			}
			items := make([]Value, len(arr))
			for i, it := range arr {
				v, err := fromInterface(it)
				if err != nil {
					return Value{}, err
				}
				items[i] = v
			}
			return Tuple(items...), nil
		}
		return Value{}, fmt.Errorf("config: object values are not part of the config value universe")
	default:
		return Value{}, fmt.Errorf("config: unsupported value type %T", raw)
	}
}
