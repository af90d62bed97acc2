package vm

import "github.com/cwbudde/escript/internal/value"

// installErrorBuiltins wires Error.prototype and the global Error
// constructor. Error(...) and new Error(...) behave identically: both
// produce a fresh KindException object, since the builtin ignores `this`
// (matching NEW's "builtin -> call with this=null" dispatch rule).
func (rt *Runtime) installErrorBuiltins() {
	proto := rt.ErrorProto

	rt.defineMethod(proto, "toString", 0, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return value.Obj(value.NewString(rt.StringProto, this.ToString())), nil
	})

	// message is a method, not a property -- spec.md §7: "All catchable
	// failures carry a string message retrievable via the exception
	// object's message method."
	rt.defineMethod(proto, "message", 0, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		if !this.IsObject() {
			return value.Obj(value.NewString(rt.StringProto, "")), nil
		}
		return value.Obj(value.NewString(rt.StringProto, this.AsObject().Message)), nil
	})

	rt.registerConstructor("Error", proto, 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		msg := ""
		if !args[0].IsUndefined() {
			msg = args[0].ToString()
		}
		excObj := value.NewException(rt.ErrorProto, msg)
		excObj.DefineOwn("name", value.UserDescriptor(value.Obj(value.NewString(rt.StringProto, "Error"))))
		return value.Obj(excObj), nil
	})
}
