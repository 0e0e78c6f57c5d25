// Copyright 2026 The sqlcore Authors.
// Licensed under the Apache License, Version 2.0, see LICENSE file for details.
// Package hostvalue defines the tagged value type used to move data across
// the boundary between the engine and the host runtime. The host runtime
// itself, its actual string/number/array/object representations, is
// outside this module's scope; hostvalue.Value is the engine's own stand-in
// for it, so that no package under internal/ needs to import a host SDK.
package hostvalue

import "fmt"

// Kind identifies which alternative of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindUndefined
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
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
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a host-visible value: null, undefined, bool, number (float64),
// string, array, or string-keyed object. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  map[string]Value
	keys []string // preserves insertion order for Object values
}

// Null returns the host null value.
func Null() Value { return Value{kind: KindNull} }

// Undefined returns the host "absent value" sentinel.
func Undefined() Value { return Value{kind: KindUndefined} }

// Bool returns a host boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a host number value.
func Number(f float64) Value { return Value{kind: KindNumber, n: f} }

// String returns a host string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns a host array of the given known size, initialized to Null
// entries, for callers that fill in elements by index with SetAt.
func Array(size int) Value {
	arr := make([]Value, size)
	for i := range arr {
		arr[i] = Null()
	}
	return Value{kind: KindArray, arr: arr}
}

// ArrayOf returns a host array populated with vals, in order.
func ArrayOf(vals ...Value) Value {
	return Value{kind: KindArray, arr: vals}
}

// Object returns an empty host object, built up with SetProperty.
func Object() Value {
	return Value{kind: KindObject, obj: map[string]Value{}}
}

// Kind reports which alternative is populated.
func (v Value) Kind() Kind { return v.kind }

// IsNullish reports whether v is Null or Undefined.
func (v Value) IsNullish() bool { return v.kind == KindNull || v.kind == KindUndefined }

// AsBool returns v's boolean value and whether v is a KindBool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns v's numeric value and whether v is a KindNumber.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns v's string value and whether v is a KindString.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsArray returns v's backing slice and whether v is a KindArray.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Len returns the length of an array value, or 0 for any other kind.
func (v Value) Len() int {
	if v.kind != KindArray {
		return 0
	}
	return len(v.arr)
}

// At returns the element at index i of an array value. Panics if v is not
// an array or i is out of range, mirroring the host array's getAt(i).
func (v Value) At(i int) Value {
	if v.kind != KindArray {
		panic("hostvalue: At called on non-array Value")
	}
	return v.arr[i]
}

// SetAt sets the element at index i of an array value in place.
func (v Value) SetAt(i int, val Value) {
	if v.kind != KindArray {
		panic("hostvalue: SetAt called on non-array Value")
	}
	v.arr[i] = val
}

// SetProperty sets a named property on an object value, preserving first
// insertion order for deterministic iteration, and returns v for chaining.
func (v Value) SetProperty(name string, val Value) Value {
	if v.kind != KindObject {
		panic("hostvalue: SetProperty called on non-object Value")
	}
	if _, exists := v.obj[name]; !exists {
		v.keys = append(v.keys, name)
	}
	v.obj[name] = val
	return v
}

// GetProperty returns the named property of an object value and whether it
// was present.
func (v Value) GetProperty(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	val, ok := v.obj[name]
	return val, ok
}

// Keys returns the property names of an object value in insertion order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return v.keys
}
