package vm

import (
	"fmt"

	"github.com/cwbudde/escript/internal/value"
)

// installConsoleBuiltins wires the global `console` object (log/warn/error,
// all writing to rt.Output) and a standalone `assert` function, the two
// external-collaborator surfaces the spec calls out as deliberately
// unspecified in detail.
func (rt *Runtime) installConsoleBuiltins() {
	console := value.NewVanilla(rt.ObjectProto)

	logFn := func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		for i, a := range args {
			if i > 0 {
				fmt.Fprint(rt.Output, " ")
			}
			fmt.Fprint(rt.Output, a.ToString())
		}
		fmt.Fprintln(rt.Output)
		return value.Undef, nil
	}
	rt.defineMethod(console, "log", -1, logFn)
	rt.defineMethod(console, "warn", -1, logFn)
	rt.defineMethod(console, "error", -1, logFn)
	rt.InitVar("console", value.Obj(console))

	assertBuiltin := rt.NewBuiltin("assert", 2, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		if args[0].ToBoolean() {
			return value.Undef, nil
		}
		msg := "assertion failed"
		if !args[1].IsUndefined() {
			msg = args[1].ToString()
		}
		return value.Undef, newRuntimeError(rt, msg)
	})
	rt.InitVar("assert", value.Obj(assertBuiltin))
}

func newRuntimeError(rt *Runtime, msg string) *ScriptError {
	return &ScriptError{Value: value.Obj(value.NewException(rt.ErrorProto, msg))}
}
