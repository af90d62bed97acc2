package vm

import "github.com/cwbudde/escript/internal/value"

// installObjectBuiltins wires Object.prototype (hasOwnProperty, toString,
// valueOf) and the global Object(...) / new Object(...) constructor, which
// returns its single argument unchanged if it is already an object, else
// a fresh vanilla object.
func (rt *Runtime) installObjectBuiltins() {
	proto := rt.ObjectProto

	rt.defineMethod(proto, "hasOwnProperty", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		if !this.IsObject() {
			return value.Bool(false), nil
		}
		_, ok := this.AsObject().GetOwn(args[0].ToString())
		return value.Bool(ok), nil
	})
	rt.defineMethod(proto, "isPrototypeOf", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		if !this.IsObject() || !args[0].IsObject() {
			return value.Bool(false), nil
		}
		target := this.AsObject()
		for cur := args[0].AsObject().Proto; cur != nil; cur = cur.Proto {
			if cur == target {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})
	rt.defineMethod(proto, "toString", 0, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return value.Obj(value.NewString(rt.StringProto, this.ToString())), nil
	})
	rt.defineMethod(proto, "valueOf", 0, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return this, nil
	})

	rt.registerConstructor("Object", proto, 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		if args[0].IsObject() {
			return args[0], nil
		}
		return value.Obj(value.NewVanilla(rt.ObjectProto)), nil
	})

	keysBuiltin := rt.NewBuiltin("keys", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		if !args[0].IsObject() {
			return value.Obj(value.NewArray(rt.ArrayProto, nil)), nil
		}
		names := args[0].AsObject().OwnEnumerableKeys()
		elems := make([]value.Value, len(names))
		for i, n := range names {
			elems[i] = value.Obj(value.NewString(rt.StringProto, n))
		}
		return value.Obj(value.NewArray(rt.ArrayProto, elems)), nil
	})
	if ctorVal, ok := rt.Global.Get("Object"); ok {
		ctorVal.AsObject().DefineOwn("keys", value.NativeDescriptor(value.Obj(keysBuiltin)))
	}
}
