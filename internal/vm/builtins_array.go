package vm

import "github.com/cwbudde/escript/internal/value"

// installArrayBuiltins wires Array.prototype and the global Array
// constructor. Methods that invoke a callback (forEach/map/filter/reduce)
// re-enter the interpreter through rt.Call, the same path a host embedder
// uses, rather than reaching into VM-internal state.
func (rt *Runtime) installArrayBuiltins() {
	proto := rt.ArrayProto

	rt.defineMethod(proto, "push", -1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		obj := this.AsObject()
		obj.Elements = append(obj.Elements, args...)
		return value.Num(float64(len(obj.Elements))), nil
	})
	rt.defineMethod(proto, "pop", 0, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		obj := this.AsObject()
		n := len(obj.Elements)
		if n == 0 {
			return value.Undef, nil
		}
		v := obj.Elements[n-1]
		obj.Elements = obj.Elements[:n-1]
		return v, nil
	})
	rt.defineMethod(proto, "shift", 0, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		obj := this.AsObject()
		if len(obj.Elements) == 0 {
			return value.Undef, nil
		}
		v := obj.Elements[0]
		obj.Elements = obj.Elements[1:]
		return v, nil
	})
	rt.defineMethod(proto, "unshift", -1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		obj := this.AsObject()
		obj.Elements = append(append([]value.Value{}, args...), obj.Elements...)
		return value.Num(float64(len(obj.Elements))), nil
	})
	rt.defineMethod(proto, "join", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		sep := ","
		if args[0].IsObject() || args[0].IsNumber() {
			sep = args[0].ToString()
		}
		s := ""
		for i, e := range this.AsObject().Elements {
			if i > 0 {
				s += sep
			}
			if !e.IsUndefined() && !e.IsNull() {
				s += e.ToString()
			}
		}
		return value.Obj(value.NewString(rt.StringProto, s)), nil
	})
	rt.defineMethod(proto, "slice", 2, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		elems := this.AsObject().Elements
		start := clampIndex(args[0].ToNumber(), len(elems), 0)
		end := len(elems)
		if !args[1].IsUndefined() {
			end = clampIndex(args[1].ToNumber(), len(elems), len(elems))
		}
		if end < start {
			end = start
		}
		return value.Obj(value.NewArray(rt.ArrayProto, elems[start:end])), nil
	})
	rt.defineMethod(proto, "concat", -1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		out := append([]value.Value{}, this.AsObject().Elements...)
		for _, a := range args {
			if a.IsObject() && a.AsObject().Kind == value.KindArray {
				out = append(out, a.AsObject().Elements...)
			} else {
				out = append(out, a)
			}
		}
		return value.Obj(value.NewArray(rt.ArrayProto, out)), nil
	})
	rt.defineMethod(proto, "indexOf", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		for i, e := range this.AsObject().Elements {
			if value.StrictEquals(e, args[0]) {
				return value.Num(float64(i)), nil
			}
		}
		return value.Num(-1), nil
	})
	rt.defineMethod(proto, "forEach", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		cb := args[0]
		for i, e := range this.AsObject().Elements {
			if _, err := rt.callScriptErr(cb, value.Undef, []value.Value{e, value.Num(float64(i)), this}); err != nil {
				return value.Undef, err
			}
		}
		return value.Undef, nil
	})
	rt.defineMethod(proto, "map", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		cb := args[0]
		src := this.AsObject().Elements
		out := make([]value.Value, len(src))
		for i, e := range src {
			v, err := rt.callScriptErr(cb, value.Undef, []value.Value{e, value.Num(float64(i)), this})
			if err != nil {
				return value.Undef, err
			}
			out[i] = v
		}
		return value.Obj(value.NewArray(rt.ArrayProto, out)), nil
	})
	rt.defineMethod(proto, "filter", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		cb := args[0]
		var out []value.Value
		for i, e := range this.AsObject().Elements {
			v, err := rt.callScriptErr(cb, value.Undef, []value.Value{e, value.Num(float64(i)), this})
			if err != nil {
				return value.Undef, err
			}
			if v.ToBoolean() {
				out = append(out, e)
			}
		}
		return value.Obj(value.NewArray(rt.ArrayProto, out)), nil
	})
	rt.defineMethod(proto, "reduce", 2, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		cb, acc := args[0], args[1]
		elems := this.AsObject().Elements
		start := 0
		if acc.IsUndefined() && len(elems) > 0 {
			acc = elems[0]
			start = 1
		}
		for i := start; i < len(elems); i++ {
			v, err := rt.callScriptErr(cb, value.Undef, []value.Value{acc, elems[i], value.Num(float64(i)), this})
			if err != nil {
				return value.Undef, err
			}
			acc = v
		}
		return acc, nil
	})
	rt.defineMethod(proto, "toString", 0, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return value.Obj(value.NewString(rt.StringProto, this.AsObject().ToDisplayString())), nil
	})

	rt.registerConstructor("Array", proto, 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		if len(args) == 1 && args[0].IsNumber() {
			return value.Obj(value.NewArray(rt.ArrayProto, make([]value.Value, int(args[0].ToNumber())))), nil
		}
		return value.Obj(value.NewArray(rt.ArrayProto, args)), nil
	})
}

func (rt *Runtime) callScriptErr(fn value.Value, this value.Value, args []value.Value) (value.Value, *ScriptError) {
	v, err := rt.Call(fn, this, args)
	if err != nil {
		if se, ok := err.(*ScriptError); ok {
			return value.Undef, se
		}
		return value.Undef, &ScriptError{Value: value.Obj(value.NewException(rt.ErrorProto, err.Error()))}
	}
	return v, nil
}

func clampIndex(n float64, length int, def int) int {
	i := int(n)
	if n != n { // NaN
		return def
	}
	if i < 0 {
		i += length
	}
	if i < 0 {
		i = 0
	}
	if i > length {
		i = length
	}
	return i
}
