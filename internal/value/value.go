// Package value implements the escript runtime value and object model: a
// small tagged Value union over undefined/null/boolean/number/object, a
// shared prototype-chain Object with property descriptors, and the lexical
// Environment chain closures capture.
package value

import (
	"math"
	"strconv"
)

// Kind tags which variant a Value holds.
type Kind uint8

const (
	Undefined Kind = iota
	Null
	Boolean
	Number
	ObjectRef
)

// Value is a small tagged union, passed by value. Numbers and booleans are
// copied; objects are shared via a pointer to the heap-allocated Object --
// Go's garbage collector stands in for the reference-counted heap the
// source implementation describes, so there is no explicit refcounting or
// cycle leak here (see DESIGN.md).
type Value struct {
	kind Kind
	num  float64
	b    bool
	obj  *Object
}

// Undef is the shared undefined value.
var Undef = Value{kind: Undefined}

// nullValue is the shared null value. Exported as NullValue() to keep the name
// out of the way of the Kind constant Null.
var nullValue = Value{kind: Null}

func NullValue() Value { return nullValue }

func Bool(b bool) Value { return Value{kind: Boolean, b: b} }

func Num(n float64) Value { return Value{kind: Number, num: n} }

func Obj(o *Object) Value {
	if o == nil {
		return Undef
	}
	return Value{kind: ObjectRef, obj: o}
}

func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsUndefined() bool { return v.kind == Undefined }
func (v Value) IsNull() bool      { return v.kind == Null }
func (v Value) IsBoolean() bool   { return v.kind == Boolean }
func (v Value) IsNumber() bool    { return v.kind == Number }
func (v Value) IsObject() bool    { return v.kind == ObjectRef }

// AsBool returns the boolean payload; only meaningful when IsBoolean.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the float64 payload; only meaningful when IsNumber.
func (v Value) AsNumber() float64 { return v.num }

// AsObject returns the object payload; only meaningful when IsObject.
func (v Value) AsObject() *Object { return v.obj }

// ToBoolean implements the source language's to-boolean coercion: false, 0,
// NaN, undefined, and null are false; everything else -- including an empty
// string -- is true. Treating "" as truthy is a deliberate deviation from
// standard ECMAScript, carried over from the reference implementation.
func (v Value) ToBoolean() bool {
	switch v.kind {
	case Undefined, Null:
		return false
	case Boolean:
		return v.b
	case Number:
		return v.num != 0 && !math.IsNaN(v.num)
	case ObjectRef:
		return true
	default:
		return false
	}
}

// ToNumber implements to-number coercion. Only the paths explicit
// arithmetic needs are implemented; null coerces to NaN, not 0, in this
// implementation (see spec Open Questions), so e.g. null - 1 is NaN.
func (v Value) ToNumber() float64 {
	switch v.kind {
	case Number:
		return v.num
	case Boolean:
		if v.b {
			return 1
		}
		return 0
	case Undefined, Null:
		return math.NaN()
	case ObjectRef:
		if v.obj.Kind == KindString {
			return stringToNumber(v.obj.Str)
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

func stringToNumber(s string) float64 {
	n, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return n
	}
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		if u, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
			return float64(u)
		}
	}
	if len(s) > 2 && (s[:2] == "0b" || s[:2] == "0B") {
		if u, err := strconv.ParseUint(s[2:], 2, 64); err == nil {
			return float64(u)
		}
	}
	if s == "NaN" {
		return math.NaN()
	}
	if s == "Infinity" {
		return math.Inf(1)
	}
	return math.NaN()
}

// ToString implements to-string coercion for primitives and the
// [object:<kind>] fallback for objects without a wrapped string.
func (v Value) ToString() string {
	switch v.kind {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Boolean:
		if v.b {
			return "true"
		}
		return "false"
	case Number:
		return FormatNumber(v.num)
	case ObjectRef:
		return v.obj.ToDisplayString()
	default:
		return ""
	}
}

// FormatNumber renders a float64 the way the source's to-string coercion
// does: "NaN"/"Infinity"/"-Infinity" for the special values, integral
// values without a fractional part or exponent, everything else via Go's
// shortest round-trip formatting. Exact ECMA-262 number-to-string
// formatting is out of scope (see spec Non-goals).
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == math.Trunc(n) && math.Abs(n) < 1e21:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
}

// TypeOf implements the `typeof` operator.
func (v Value) TypeOf() string {
	switch v.kind {
	case Undefined:
		return "undefined"
	case Null:
		return "object"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case ObjectRef:
		switch v.obj.Kind {
		case KindFunction:
			return "function"
		case KindBuiltin:
			return "function"
		case KindHost:
			return "expander"
		case KindString:
			return "string"
		default:
			return "object"
		}
	default:
		return "undefined"
	}
}

// StrictEquals implements `===`: no cross-kind equality, objects by
// identity.
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Undefined, Null:
		return true
	case Boolean:
		return a.b == b.b
	case Number:
		return a.num == b.num // NaN != NaN falls out of IEEE equality
	case ObjectRef:
		return a.obj == b.obj
	default:
		return false
	}
}

// LooseEquals implements `==`: strings by text, string/number
// cross-coercion, undefined and null equal themselves and each other,
// other objects by identity.
func LooseEquals(a, b Value) bool {
	aIsStr, bIsStr := a.kind == ObjectRef && a.obj.Kind == KindString, b.kind == ObjectRef && b.obj.Kind == KindString
	if aIsStr && bIsStr {
		return a.obj.Str == b.obj.Str
	}
	if a.kind == b.kind {
		return StrictEquals(a, b)
	}
	if (a.kind == Undefined || a.kind == Null) && (b.kind == Undefined || b.kind == Null) {
		return true
	}
	if aIsStr && b.kind == Number {
		return stringToNumber(a.obj.Str) == b.num
	}
	if bIsStr && a.kind == Number {
		return a.num == stringToNumber(b.obj.Str)
	}
	return false
}

// compareResult is the outcome of Compare: ordered values report lt/eq/gt;
// NaN and unlike kinds report notComparable.
type compareResult int

const (
	cmpLess compareResult = iota
	cmpEqual
	cmpGreater
	cmpNotComparable
)

func compare(a, b Value) compareResult {
	if a.kind == Number && b.kind == Number {
		if math.IsNaN(a.num) || math.IsNaN(b.num) {
			return cmpNotComparable
		}
		switch {
		case a.num < b.num:
			return cmpLess
		case a.num > b.num:
			return cmpGreater
		default:
			return cmpEqual
		}
	}
	aIsStr := a.kind == ObjectRef && a.obj.Kind == KindString
	bIsStr := b.kind == ObjectRef && b.obj.Kind == KindString
	if aIsStr && bIsStr {
		switch {
		case a.obj.Str < b.obj.Str:
			return cmpLess
		case a.obj.Str > b.obj.Str:
			return cmpGreater
		default:
			return cmpEqual
		}
	}
	return cmpNotComparable
}

// Less, LessOrEqual, Greater, GreaterOrEqual implement the four relational
// operators; an operand pair that is not comparable (NaN, or a kind
// mismatch) makes all four return false.
func Less(a, b Value) bool           { return compare(a, b) == cmpLess }
func LessOrEqual(a, b Value) bool    { r := compare(a, b); return r == cmpLess || r == cmpEqual }
func Greater(a, b Value) bool        { return compare(a, b) == cmpGreater }
func GreaterOrEqual(a, b Value) bool { r := compare(a, b); return r == cmpGreater || r == cmpEqual }
