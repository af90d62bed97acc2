package value

import (
	"fmt"
	"strconv"

	"github.com/cwbudde/escript/internal/bytecode"
)

// ObjectKind classifies the variant payload an Object carries.
type ObjectKind int

const (
	KindVanilla ObjectKind = iota
	KindString
	KindArray
	KindFunction
	KindBuiltin
	KindException
	KindIterator
	KindHost
)

// PropertyDescriptor is a single property slot: a value, optional accessor
// pair, and the writable/enumerable/configurable attribute triple.
//
// If Setter is non-nil the property is effectively writable via the setter
// regardless of the Writable attribute. Configurable gates attribute
// changes and deletion; Enumerable gates exposure to for-in iteration.
type PropertyDescriptor struct {
	Value      Value
	Getter     *Object
	Setter     *Object
	Writable   bool
	Enumerable bool
	Configurable bool
}

// NativeDescriptor installs a property the way the builtin registry does: not
// writable, not enumerable, not configurable -- so `for...in` does not walk
// prototype methods and user code cannot silently shadow or delete them.
func NativeDescriptor(v Value) *PropertyDescriptor {
	return &PropertyDescriptor{Value: v}
}

// UserDescriptor builds the (true, true, true) descriptor ordinary script
// property writes get.
func UserDescriptor(v Value) *PropertyDescriptor {
	return &PropertyDescriptor{Value: v, Writable: true, Enumerable: true, Configurable: true}
}

// Object is a shared, interiorly-mutable heap value: an optional prototype,
// an extensible flag, an insertion-ordered property map, and a variant
// payload selected by Kind.
//
// Property insertion order is preserved (and exposed through OwnKeys/for-in
// snapshots) even though the specification does not formally promise it --
// matching how object literals and iteration are observed to behave.
type Object struct {
	Proto      *Object
	Extensible bool
	Kind       ObjectKind

	keys  []string
	props map[string]*PropertyDescriptor

	// KindString payload.
	Str string

	// KindArray payload.
	Elements []Value

	// KindFunction payload.
	Fn      *bytecode.VMFunction
	Closure *Environment

	// KindBuiltin payload: index into the runtime's builtin table.
	BuiltinIndex int

	// KindException payload.
	Message string

	// KindIterator payload: a snapshot of enumerable keys and a cursor.
	IterKeys   []string
	IterCursor int

	// KindHost payload: an id into the runtime's host-extension table.
	HookID uint64
}

// NewVanilla creates an empty vanilla object with the given prototype
// (which may be nil).
func NewVanilla(proto *Object) *Object {
	return &Object{Proto: proto, Extensible: true, Kind: KindVanilla, props: map[string]*PropertyDescriptor{}}
}

// NewString wraps an immutable string as an object.
func NewString(proto *Object, s string) *Object {
	return &Object{Proto: proto, Extensible: true, Kind: KindString, Str: s, props: map[string]*PropertyDescriptor{}}
}

// NewArray creates an array object from elems (copied).
func NewArray(proto *Object, elems []Value) *Object {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return &Object{Proto: proto, Extensible: true, Kind: KindArray, Elements: cp, props: map[string]*PropertyDescriptor{}}
}

// NewFunction wraps a compiled function and its captured closure scope.
func NewFunction(proto *Object, fn *bytecode.VMFunction, closure *Environment) *Object {
	return &Object{Proto: proto, Extensible: true, Kind: KindFunction, Fn: fn, Closure: closure, props: map[string]*PropertyDescriptor{}}
}

// NewBuiltin wraps a native callable's index in the runtime's builtin
// table.
func NewBuiltin(proto *Object, index int) *Object {
	return &Object{Proto: proto, Extensible: true, Kind: KindBuiltin, BuiltinIndex: index, props: map[string]*PropertyDescriptor{}}
}

// NewException creates an exception object carrying message.
func NewException(proto *Object, message string) *Object {
	return &Object{Proto: proto, Extensible: true, Kind: KindException, Message: message, props: map[string]*PropertyDescriptor{}}
}

// NewIterator snapshots keys (already filtered to enumerable own+inherited
// names) as an iterator object with a cursor at 0.
func NewIterator(keys []string) *Object {
	return &Object{Extensible: false, Kind: KindIterator, IterKeys: keys, props: map[string]*PropertyDescriptor{}}
}

// NewHost wraps a host-table index as a hook object.
func NewHost(id uint64) *Object {
	return &Object{Extensible: false, Kind: KindHost, HookID: id, props: map[string]*PropertyDescriptor{}}
}

// GetOwn returns the object's own property descriptor for key, ignoring the
// prototype chain.
func (o *Object) GetOwn(key string) (*PropertyDescriptor, bool) {
	d, ok := o.props[key]
	return d, ok
}

// DefineOwn installs or replaces an own property descriptor, recording key
// order on first insertion.
func (o *Object) DefineOwn(key string, d *PropertyDescriptor) {
	if _, existed := o.props[key]; !existed {
		o.keys = append(o.keys, key)
	}
	o.props[key] = d
}

// DeleteOwn removes an own property, reporting whether it was configurable
// (and therefore removed). A non-configurable property is left in place and
// false is returned -- matching the source's "delete of non-configurable
// silently returns false" behavior rather than throwing.
func (o *Object) DeleteOwn(key string) bool {
	d, ok := o.props[key]
	if !ok {
		return true
	}
	if !d.Configurable {
		return false
	}
	delete(o.props, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// OwnKeys returns the object's own property keys in insertion order.
func (o *Object) OwnKeys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// OwnEnumerableKeys returns the object's own property keys in insertion
// order, excluding any whose descriptor has Enumerable set to false (the
// convention used for builtin-installed prototype methods; see
// NativeDescriptor). Unlike EnumerableKeys it does not walk the prototype
// chain.
func (o *Object) OwnEnumerableKeys() []string {
	var out []string
	for _, k := range o.keys {
		if o.props[k].Enumerable {
			out = append(out, k)
		}
	}
	return out
}

// Lookup walks the prototype chain for key, returning the descriptor and
// the object that owns it.
func (o *Object) Lookup(key string) (*PropertyDescriptor, *Object) {
	for cur := o; cur != nil; cur = cur.Proto {
		if d, ok := cur.GetOwn(key); ok {
			return d, cur
		}
	}
	return nil, nil
}

// EnumerableKeys walks the prototype chain and returns every enumerable key
// visible on o, own keys first, each name appearing once (an own property
// shadows an inherited one of the same name).
func (o *Object) EnumerableKeys() []string {
	seen := map[string]bool{}
	var out []string
	for cur := o; cur != nil; cur = cur.Proto {
		for _, k := range cur.keys {
			if seen[k] {
				continue
			}
			seen[k] = true
			if d := cur.props[k]; d.Enumerable {
				out = append(out, k)
			}
		}
	}
	if o.Kind == KindArray {
		indexed := make([]string, len(o.Elements))
		for i := range o.Elements {
			indexed[i] = strconv.Itoa(i)
		}
		out = append(indexed, out...)
	}
	return out
}

// ToDisplayString implements the object branch of to-string: strings
// return their wrapped text; arrays join elements with ", "; exceptions
// return their message; everything else (including null prototype objects)
// falls back to "[object:<kind>]".
func (o *Object) ToDisplayString() string {
	switch o.Kind {
	case KindString:
		return o.Str
	case KindArray:
		s := ""
		for i, e := range o.Elements {
			if i > 0 {
				s += ", "
			}
			if !e.IsUndefined() && !e.IsNull() {
				s += e.ToString()
			}
		}
		return s
	case KindException:
		return o.Message
	default:
		return fmt.Sprintf("[object:%s]", objectKindName(o.Kind))
	}
}

func objectKindName(k ObjectKind) string {
	switch k {
	case KindVanilla:
		return "Object"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindFunction:
		return "Function"
	case KindBuiltin:
		return "Builtin"
	case KindException:
		return "Error"
	case KindIterator:
		return "Iterator"
	case KindHost:
		return "Host"
	default:
		return "Unknown"
	}
}
