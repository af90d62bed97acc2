package value

import (
	"math"
	"testing"
)

func TestToBooleanCoercion(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"undefined", Undef, false},
		{"null", NullValue(), false},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero", Num(0), false},
		{"nan", Num(math.NaN()), false},
		{"nonzero number", Num(1), true},
		// Deliberate deviation from standard ECMAScript: "" is truthy here.
		{"empty string", Obj(NewString(nil, "")), true},
		{"nonempty string", Obj(NewString(nil, "x")), true},
	}
	for _, tt := range tests {
		if got := tt.v.ToBoolean(); got != tt.want {
			t.Errorf("%s: ToBoolean() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStrictEqualsNaNIsFalse(t *testing.T) {
	nan := Num(math.NaN())
	if StrictEquals(nan, nan) {
		t.Error("NaN should not strict-equal itself")
	}
	five := Num(5)
	if !StrictEquals(five, five) {
		t.Error("5 should strict-equal itself")
	}
}

func TestStrictEqualsNoCrossKindCoercion(t *testing.T) {
	if StrictEquals(Num(1), Bool(true)) {
		t.Error("1 should not strict-equal true")
	}
	str := Obj(NewString(nil, "1"))
	if StrictEquals(Num(1), str) {
		t.Error("1 should not strict-equal the string \"1\"")
	}
}

func TestLooseEqualsCoercesStringAndNumber(t *testing.T) {
	str := Obj(NewString(nil, "5"))
	if !LooseEquals(Num(5), str) {
		t.Error("5 should loose-equal the string \"5\"")
	}
}

func TestLooseEqualsUndefinedAndNull(t *testing.T) {
	if !LooseEquals(Undef, NullValue()) {
		t.Error("undefined should loose-equal null")
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"undefined", Undef, "undefined"},
		{"null", NullValue(), "object"},
		{"boolean", Bool(true), "boolean"},
		{"number", Num(1), "number"},
		{"string", Obj(NewString(nil, "x")), "string"},
		{"array", Obj(NewArray(nil, nil)), "object"},
		{"vanilla object", Obj(NewVanilla(nil)), "object"},
	}
	for _, tt := range tests {
		if got := tt.v.TypeOf(); got != tt.want {
			t.Errorf("%s: TypeOf() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    float64
		want string
	}{
		{0, "0"},
		{45, "45"},
		{-1, "-1"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{1.5, "1.5"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestEnvironmentChainLookupAndShadowing(t *testing.T) {
	global := NewEnvironment(nil)
	global.Declare("x", Num(1))

	inner := NewEnvironment(global)
	inner.Declare("y", Num(2))

	if v, ok := inner.Get("x"); !ok || v.AsNumber() != 1 {
		t.Errorf("expected inner scope to see outer binding x=1, got %v, %v", v, ok)
	}
	if _, ok := global.Get("y"); ok {
		t.Error("outer scope should not see inner binding y")
	}

	inner.Set("x", Num(99))
	if v, _ := global.Get("x"); v.AsNumber() != 99 {
		t.Errorf("Set should write through to the existing outer binding, got %v", v.AsNumber())
	}
}

func TestPrototypeChainLookup(t *testing.T) {
	proto := NewVanilla(nil)
	proto.DefineOwn("greet", UserDescriptor(Obj(NewString(nil, "hello"))))

	child := NewVanilla(proto)
	d, owner := child.Lookup("greet")
	if d == nil || owner != proto || d.Value.ToString() != "hello" {
		t.Errorf("expected to find greet via the prototype chain, got %v, %v", d, owner)
	}
}

func TestEnumerableKeysSnapshotIsInsertionOrdered(t *testing.T) {
	o := NewVanilla(nil)
	o.DefineOwn("b", UserDescriptor(Num(2)))
	o.DefineOwn("a", UserDescriptor(Num(1)))

	keys := o.EnumerableKeys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("expected insertion order [b a], got %v", keys)
	}
}

func TestEnumerableKeysExcludesNonEnumerable(t *testing.T) {
	o := NewVanilla(nil)
	o.DefineOwn("hidden", NativeDescriptor(Num(1)))
	o.DefineOwn("visible", UserDescriptor(Num(2)))

	keys := o.EnumerableKeys()
	if len(keys) != 1 || keys[0] != "visible" {
		t.Errorf("expected only [visible], got %v", keys)
	}
}
