package vm

import (
	"strings"

	"github.com/cwbudde/escript/internal/value"
)

// installStringBuiltins wires String.prototype and the global String
// constructor. Methods operate on this.ToString() rather than assuming a
// KindString receiver, so they also work when called on a boxed number or
// other primitive via Function.prototype.call.
func (rt *Runtime) installStringBuiltins() {
	proto := rt.StringProto

	str := func(rt *Runtime, s string) value.Value { return value.Obj(value.NewString(rt.StringProto, s)) }

	rt.defineMethod(proto, "charAt", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		runes := []rune(this.ToString())
		i := int(args[0].ToNumber())
		if i < 0 || i >= len(runes) {
			return str(rt, ""), nil
		}
		return str(rt, string(runes[i])), nil
	})
	rt.defineMethod(proto, "charCodeAt", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		runes := []rune(this.ToString())
		i := int(args[0].ToNumber())
		if i < 0 || i >= len(runes) {
			return value.Num(nan()), nil
		}
		return value.Num(float64(runes[i])), nil
	})
	rt.defineMethod(proto, "indexOf", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return value.Num(float64(strings.Index(this.ToString(), args[0].ToString()))), nil
	})
	rt.defineMethod(proto, "lastIndexOf", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return value.Num(float64(strings.LastIndex(this.ToString(), args[0].ToString()))), nil
	})
	rt.defineMethod(proto, "slice", 2, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		runes := []rune(this.ToString())
		start := clampIndex(args[0].ToNumber(), len(runes), 0)
		end := len(runes)
		if !args[1].IsUndefined() {
			end = clampIndex(args[1].ToNumber(), len(runes), len(runes))
		}
		if end < start {
			end = start
		}
		return str(rt, string(runes[start:end])), nil
	})
	rt.defineMethod(proto, "substring", 2, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		runes := []rune(this.ToString())
		start := clampIndex(args[0].ToNumber(), len(runes), 0)
		end := len(runes)
		if !args[1].IsUndefined() {
			end = clampIndex(args[1].ToNumber(), len(runes), len(runes))
		}
		if start > end {
			start, end = end, start
		}
		return str(rt, string(runes[start:end])), nil
	})
	rt.defineMethod(proto, "toUpperCase", 0, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return str(rt, strings.ToUpper(this.ToString())), nil
	})
	rt.defineMethod(proto, "toLowerCase", 0, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return str(rt, strings.ToLower(this.ToString())), nil
	})
	rt.defineMethod(proto, "split", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		sep := args[0].ToString()
		var parts []string
		if args[0].IsUndefined() {
			parts = []string{this.ToString()}
		} else if sep == "" {
			for _, r := range this.ToString() {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(this.ToString(), sep)
		}
		elems := make([]value.Value, len(parts))
		for i, p := range parts {
			elems[i] = str(rt, p)
		}
		return value.Obj(value.NewArray(rt.ArrayProto, elems)), nil
	})
	rt.defineMethod(proto, "replace", 2, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return str(rt, strings.Replace(this.ToString(), args[0].ToString(), args[1].ToString(), 1)), nil
	})
	rt.defineMethod(proto, "trim", 0, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return str(rt, strings.TrimSpace(this.ToString())), nil
	})
	rt.defineMethod(proto, "concat", -1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		s := this.ToString()
		for _, a := range args {
			s += a.ToString()
		}
		return str(rt, s), nil
	})
	rt.defineMethod(proto, "toString", 0, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return str(rt, this.ToString()), nil
	})
	rt.defineMethod(proto, "valueOf", 0, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return str(rt, this.ToString()), nil
	})

	rt.registerConstructor("String", proto, 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return str(rt, args[0].ToString()), nil
	})
}

func nan() float64 {
	var zero float64
	return zero / zero
}
