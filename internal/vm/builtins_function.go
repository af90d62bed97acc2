package vm

import "github.com/cwbudde/escript/internal/value"

// installFunctionBuiltins wires Function.prototype.call/apply, the two
// ways script code re-binds `this` explicitly.
func (rt *Runtime) installFunctionBuiltins() {
	proto := rt.FunctionProto

	rt.defineMethod(proto, "call", -1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		var newThis value.Value
		if len(args) > 0 {
			newThis = args[0]
		}
		var rest []value.Value
		if len(args) > 1 {
			rest = args[1:]
		}
		return rt.callScriptErr(this, newThis, rest)
	})
	rt.defineMethod(proto, "apply", 2, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		newThis := args[0]
		var rest []value.Value
		if args[1].IsObject() && args[1].AsObject().Kind == value.KindArray {
			rest = args[1].AsObject().Elements
		}
		return rt.callScriptErr(this, newThis, rest)
	})
	rt.defineMethod(proto, "toString", 0, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return value.Obj(value.NewString(rt.StringProto, "[object:Function]")), nil
	})
}
