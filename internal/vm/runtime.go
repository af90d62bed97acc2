// Package vm implements the escript stack-machine virtual machine: the
// interpreter loop over bytecode.VMFunction, the object/prototype model's
// runtime wiring, and the host embedding surface (Runtime) native Go code
// uses to build, run, and extend scripts.
package vm

import (
	"io"
	"os"

	"github.com/cwbudde/escript/internal/ast"
	"github.com/cwbudde/escript/internal/bytecode"
	"github.com/cwbudde/escript/internal/errors"
	"github.com/cwbudde/escript/internal/lexer"
	"github.com/cwbudde/escript/internal/parser"
	"github.com/cwbudde/escript/internal/value"
)

// NativeFn is the Go signature every builtin implements.
type NativeFn func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError)

// NativeFunc is a builtin entry: a declared arity (arguments are padded
// with undefined or truncated to this count before the call, matching
// script-function call discipline; a negative arity passes them through
// unchanged) and the Go implementation. This is the
// `new_builtin(native_fn, argc)` primitive from the host embedding API.
type NativeFunc struct {
	Name string
	Argc int
	Fn   NativeFn
}

// Hookable is the capability interface a host passes to NewRuntime as the
// root hook: an opaque, host-defined value the script's builtins can reach
// back into through NewHook/GetHook.
type Hookable interface {
	HookName() string
}

// Runtime is one embeddable interpreter instance: prototypes, the global
// environment, the builtin and host-hook tables. A Runtime is not safe for
// concurrent use by multiple goroutines without external synchronization,
// matching the teacher's single-threaded dwscript.Runtime.
type Runtime struct {
	Global *value.Environment

	ObjectProto   *value.Object
	FunctionProto *value.Object
	ArrayProto    *value.Object
	StringProto   *value.Object
	ErrorProto    *value.Object

	// Output is where console.log/warn/error write; defaults to os.Stdout.
	Output io.Writer

	builtins []NativeFunc
	byName   map[string]int

	hooks    map[uint64]any
	nextHook uint64

	root Hookable
}

// NewRuntime builds a fresh runtime: prototypes wired to each other the
// way a vanilla-object prototype chain expects, the standard builtins
// installed on the global environment, and root registered as the host
// hook reachable from script via the global `host` binding.
func NewRuntime(root Hookable) *Runtime {
	rt := &Runtime{
		Global: value.NewEnvironment(nil),
		Output: os.Stdout,
		byName: map[string]int{},
		hooks:  map[uint64]any{},
		root:   root,
	}
	rt.ObjectProto = value.NewVanilla(nil)
	rt.FunctionProto = value.NewVanilla(rt.ObjectProto)
	rt.ArrayProto = value.NewVanilla(rt.ObjectProto)
	rt.StringProto = value.NewVanilla(rt.ObjectProto)
	rt.ErrorProto = value.NewVanilla(rt.ObjectProto)

	rt.installGlobals()

	if root != nil {
		rt.InitVar("host", value.Obj(rt.NewHook(root)))
	}
	return rt
}

// BuildFunctionFromCode lexes, parses, and compiles source into a callable
// script function (the host embedding API's `build_function_from_code`).
func (rt *Runtime) BuildFunctionFromCode(source string) (*value.Object, error) {
	lex := lexer.New(source)
	p := parser.New(lex)
	prog, err := p.ParseProgram()
	if err != nil {
		return nil, err
	}
	fn, err := bytecode.Compile("", nil, ast.List(prog), true)
	if err != nil {
		return nil, err
	}
	return value.NewFunction(rt.FunctionProto, fn, rt.Global), nil
}

// RunScript executes a function built by BuildFunctionFromCode (the host
// embedding API's `run_script`). An uncaught script exception is reported
// as a *errors.PipelineError at errors.StageRuntime.
func (rt *Runtime) RunScript(fnObj *value.Object) (value.Value, error) {
	result, err := rt.Call(value.Obj(fnObj), value.Undef, nil)
	if err != nil {
		if se, ok := err.(*ScriptError); ok {
			return value.Undef, errors.New(errors.StageRuntime, 0, "uncaught exception: %s", se.Value.ToString())
		}
		return value.Undef, err
	}
	return result, nil
}

// Call is the public re-entrant call helper: native builtins (and the
// embedding host) use it to invoke a script function or another builtin
// without depending on any currently-running exec's internal state. A
// fresh exec is created per top-level Call, so a callback made through
// here gets its own catch-scope stack rooted at this call -- a try in the
// calling script still won't see a panic, since catchable failures inside
// the callback surface as a returned error here, not a Go panic.
func (rt *Runtime) Call(fnVal value.Value, this value.Value, args []value.Value) (value.Value, error) {
	m := newExec(rt)
	v, se := m.call(fnVal, this, args)
	if se != nil {
		return value.Undef, se
	}
	return v, nil
}

// NewBuiltin registers a native function and returns the callable object
// wrapping it (the host embedding API's `new_builtin`).
func (rt *Runtime) NewBuiltin(name string, argc int, fn NativeFn) *value.Object {
	idx := len(rt.builtins)
	rt.builtins = append(rt.builtins, NativeFunc{Name: name, Argc: argc, Fn: fn})
	rt.byName[name] = idx
	return value.NewBuiltin(rt.FunctionProto, idx)
}

func (rt *Runtime) builtinAt(idx int) NativeFunc {
	return rt.builtins[idx]
}

// defineMethod registers fn as a builtin and installs it as a
// non-enumerable own property of proto, the way every prototype method in
// the standard library is wired.
func (rt *Runtime) defineMethod(proto *value.Object, name string, argc int, fn NativeFn) {
	b := rt.NewBuiltin(name, argc, fn)
	proto.DefineOwn(name, value.NativeDescriptor(value.Obj(b)))
}

// registerConstructor builds name's global constructor function: a
// builtin wired to proto both ways (constructor.prototype === proto,
// proto.constructor === constructor), bound as a global variable, so that
// `new Name(...)` resolves a prototype the way OpNew expects.
func (rt *Runtime) registerConstructor(name string, proto *value.Object, argc int, fn NativeFn) *value.Object {
	ctor := rt.NewBuiltin(name, argc, fn)
	ctor.DefineOwn("prototype", value.NativeDescriptor(value.Obj(proto)))
	proto.DefineOwn("constructor", value.NativeDescriptor(value.Obj(ctor)))
	rt.InitVar(name, value.Obj(ctor))
	return ctor
}

// NewHook wraps an arbitrary host value as an opaque script-visible object
// (the host embedding API's `new_hook`); GetHook recovers it.
func (rt *Runtime) NewHook(v any) *value.Object {
	rt.nextHook++
	id := rt.nextHook
	rt.hooks[id] = v
	return value.NewHost(id)
}

// GetHook recovers the host value wrapped by NewHook, if v is a hook
// object (the host embedding API's `get_hook`).
func (rt *Runtime) GetHook(v value.Value) (any, bool) {
	if !v.IsObject() || v.AsObject().Kind != value.KindHost {
		return nil, false
	}
	hv, ok := rt.hooks[v.AsObject().HookID]
	return hv, ok
}

// InitVar binds name in the global environment (the host embedding API's
// `init_var`).
func (rt *Runtime) InitVar(name string, v value.Value) {
	rt.Global.Declare(name, v)
}

// newClosure wraps fn as a callable function object, eagerly creating its
// own `.prototype` object (with a `constructor` back-pointer) the way NEW
// expects to find one.
func (rt *Runtime) newClosure(fn *bytecode.VMFunction, env *value.Environment) *value.Object {
	obj := value.NewFunction(rt.FunctionProto, fn, env)
	proto := value.NewVanilla(rt.ObjectProto)
	proto.DefineOwn("constructor", value.NativeDescriptor(value.Obj(obj)))
	obj.DefineOwn("prototype", &value.PropertyDescriptor{Value: value.Obj(proto), Writable: true})
	return obj
}

// makeArguments builds the array-like `arguments` object bound in every
// script-function activation.
func (rt *Runtime) makeArguments(args []value.Value) *value.Object {
	return value.NewArray(rt.ArrayProto, args)
}
