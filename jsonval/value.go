// Package jsonval implements the minimal JSON subset spoken on the
// bridge wire: null, booleans, numbers, strings, arrays and
// string-keyed objects. It carries an explicit kind discriminant so an
// empty array and an empty object stay distinct, which a bare
// map/slice length heuristic cannot guarantee.
package jsonval

import "sort"

// Kind identifies the JSON type a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the display name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a single JSON value. Exactly one payload field is
// meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Bool bool
	Num  float64
	Str  string
	Arr  []Value
	Obj  map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Number wraps a number.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// String wraps a string.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Array wraps a sequence. A nil slice is a valid empty array.
func Array(items ...Value) Value { return Value{Kind: KindArray, Arr: items} }

// Object wraps a string-keyed mapping. A nil map is a valid empty object.
func Object(fields map[string]Value) Value { return Value{Kind: KindObject, Obj: fields} }

// Get returns the field for key on an object value. The bool return
// indicates whether the value is an object containing the key.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != KindObject {
		return Value{}, false
	}
	field, ok := v.Obj[key]
	return field, ok
}

// StringOr returns the string payload, or fallback if the value is not
// a string.
func (v Value) StringOr(fallback string) string {
	if v.Kind != KindString {
		return fallback
	}
	return v.Str
}

// IntOr returns the number payload truncated to int, or fallback if
// the value is not a number.
func (v Value) IntOr(fallback int) int {
	if v.Kind != KindNumber {
		return fallback
	}
	return int(v.Num)
}

// Equal reports deep equality between two values. Numbers compare
// numerically and object key order is insignificant.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindNumber:
		return v.Num == other.Num
	case KindString:
		return v.Str == other.Str
	case KindArray:
		if len(v.Arr) != len(other.Arr) {
			return false
		}
		for i := range v.Arr {
			if !v.Arr[i].Equal(other.Arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.Obj) != len(other.Obj) {
			return false
		}
		for key, field := range v.Obj {
			otherField, ok := other.Obj[key]
			if !ok || !field.Equal(otherField) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// sortedKeys returns the object's keys in sorted order. Encoding does
// not promise canonical key order, but deterministic output keeps
// logs and tests readable.
func sortedKeys(obj map[string]Value) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
