// Package payload models structured secret payloads: string-keyed maps of
// primitive values that serialize to a compact, versioned binary form.
package payload

import (
	"bytes"
	"fmt"
	"math"
)

// Kind identifies which member of the Value union is set.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindBool
	KindBytes
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Value is a tagged union of string, int64, bool, bytes and nested Map.
// The zero Value is invalid and is rejected by Marshal.
type Value struct {
	kind Kind
	str  string
	num  int64
	flag bool
	raw  []byte
	obj  Map
}

// Map is a structured payload.
type Map map[string]Value

func String(s string) Value { return Value{kind: KindString, str: s} }
func Int(n int64) Value { return Value{kind: KindInt, num: n} }
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Bytes copies b so later changes by the caller do not leak into the value.
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, raw: append([]byte{}, b...)}
}

func Object(m Map) Value {
	if m == nil {
		m = Map{}
	}
	return Value{kind: KindMap, obj: m}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }
func (v Value) Int64() (int64, bool) { return v.num, v.kind == KindInt }
func (v Value) Boolean() (bool, bool) { return v.flag, v.kind == KindBool }
func (v Value) Raw() ([]byte, bool) { return v.raw, v.kind == KindBytes }
func (v Value) Map() (Map, bool) { return v.obj, v.kind == KindMap }

// Equal reports whether v and o hold the same kind and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindInt:
		return v.num == o.num
	case KindBool:
		return v.flag == o.flag
	case KindBytes:
		return bytes.Equal(v.raw, o.raw)
	case KindMap:
		return v.obj.Equal(o.obj)
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindInt:
		return fmt.Sprintf("%d", v.num)
	case KindBool:
		return fmt.Sprintf("%t", v.flag)
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.raw))
	case KindMap:
		return fmt.Sprintf("map(%d)", len(v.obj))
	default:
		return "invalid"
	}
}

// Equal reports whether both maps hold the same keys with equal values.
func (m Map) Equal(o Map) bool {
	if len(m) != len(o) {
		return false
	}
	for k, v := range m {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// FromInterface converts a decoded YAML or JSON document into a Map.
// Floats with an integral value become Int; other floats are rejected.
func FromInterface(in map[string]any) (Map, error) {
	out := make(Map, len(in))
	for k, raw := range in {
		v, err := fromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func fromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d overflows int64", ErrInvalidValue, x)
		}
		return Int(int64(x)), nil
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: non-integral number %v", ErrInvalidValue, x)
		}
		return Int(int64(x)), nil
	case []byte:
		return Bytes(x), nil
	case map[string]any:
		m, err := FromInterface(x)
		if err != nil {
			return Value{}, err
		}
		return Object(m), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, raw)
	}
}

// Interface returns m as plain Go values, suitable for YAML or JSON output.
func (m Map) Interface() map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch v.kind {
		case KindString:
			out[k] = v.str
		case KindInt:
			out[k] = v.num
		case KindBool:
			out[k] = v.flag
		case KindBytes:
			out[k] = v.raw
		case KindMap:
			out[k] = v.obj.Interface()
		}
	}
	return out
}
