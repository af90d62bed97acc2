package vm

// installGlobals wires every standard-library prototype and global
// function onto a freshly constructed runtime. Split across files the way
// the teacher splits registerBuiltins across vm_builtins_*.go:
//   - builtins_object.go:   Object.prototype, the global Object constructor
//   - builtins_array.go:    Array.prototype, the global Array constructor
//   - builtins_string.go:   String.prototype, the global String constructor
//   - builtins_function.go: Function.prototype (call/apply)
//   - builtins_error.go:    Error.prototype, the global Error constructor
//   - builtins_console.go:  console.log/warn/error, assert
//   - builtins_global.go:   parseInt, parseFloat, isNaN, isFinite
func (rt *Runtime) installGlobals() {
	rt.installObjectBuiltins()
	rt.installArrayBuiltins()
	rt.installStringBuiltins()
	rt.installFunctionBuiltins()
	rt.installErrorBuiltins()
	rt.installConsoleBuiltins()
	rt.installGlobalFunctions()
}
