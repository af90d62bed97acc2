package vm

import (
	"fmt"

	"github.com/cwbudde/escript/internal/bytecode"
	"github.com/cwbudde/escript/internal/value"
)

// exec drives one call into the interpreter: a shared operand stack and
// frame stack, plus the catch-scope stack used to unwind across frames on
// a raised exception. Script-to-script calls, getters, setters and
// constructors run on the same exec. A native builtin that calls back into
// script code (e.g. Array.prototype.forEach's callback) goes through
// Runtime.Call, which starts a fresh exec; an exception the callback does
// not catch is returned to the builtin, which passes it on, so a try in
// the script that called the builtin still catches it.
type exec struct {
	rt *Runtime

	stack  []value.Value
	frames []frame
	catch  []catchScope

	lastReturn value.Value
}

func newExec(rt *Runtime) *exec {
	return &exec{rt: rt}
}

func (m *exec) push(v value.Value) { m.stack = append(m.stack, v) }

func (m *exec) pop() value.Value {
	n := len(m.stack)
	if n == 0 {
		panic("escript: operand stack underflow")
	}
	v := m.stack[n-1]
	m.stack = m.stack[:n-1]
	return v
}

func (m *exec) top() value.Value {
	if len(m.stack) == 0 {
		panic("escript: operand stack underflow")
	}
	return m.stack[len(m.stack)-1]
}

// call is the entry point used both for the outermost script invocation
// and for every reentrant call (builtin-to-script, getter/setter
// invocation, constructor dispatch).
func (m *exec) call(calleeVal, this value.Value, args []value.Value) (value.Value, *ScriptError) {
	return m.callValue(calleeVal, this, args)
}

func (m *exec) callValue(calleeVal value.Value, this value.Value, args []value.Value) (value.Value, *ScriptError) {
	if !calleeVal.IsObject() {
		return value.Undef, m.runtimeFail("call of non-callable value (%s)", calleeVal.TypeOf())
	}
	obj := calleeVal.AsObject()
	switch obj.Kind {
	case value.KindBuiltin:
		nf := m.rt.builtinAt(obj.BuiltinIndex)
		return nf.Fn(m.rt, this, padArgs(args, nf.Argc))
	case value.KindFunction:
		return m.callScript(obj, calleeVal, this, args, false, value.Undef)
	default:
		return value.Undef, m.runtimeFail("call of non-callable value (%s)", calleeVal.TypeOf())
	}
}

func (m *exec) construct(calleeVal value.Value, args []value.Value) (value.Value, *ScriptError) {
	if !calleeVal.IsObject() {
		return value.Undef, m.runtimeFail("new applied to non-callable value (%s)", calleeVal.TypeOf())
	}
	obj := calleeVal.AsObject()
	switch obj.Kind {
	case value.KindBuiltin:
		nf := m.rt.builtinAt(obj.BuiltinIndex)
		return nf.Fn(m.rt, value.NullValue(), padArgs(args, nf.Argc))
	case value.KindFunction:
		protoObj := m.rt.ObjectProto
		if d, _ := obj.Lookup("prototype"); d != nil && d.Value.IsObject() {
			protoObj = d.Value.AsObject()
		}
		this := value.Obj(value.NewVanilla(protoObj))
		return m.callScript(obj, calleeVal, this, args, true, this)
	default:
		return value.Undef, m.runtimeFail("new applied to non-callable value (%s)", calleeVal.TypeOf())
	}
}

func (m *exec) callScript(obj *value.Object, calleeVal, this value.Value, args []value.Value, isCtor bool, ctorThis value.Value) (value.Value, *ScriptError) {
	fn := obj.Fn
	env := value.NewEnvironment(obj.Closure)

	for i, p := range fn.Params {
		if i < len(args) {
			env.Declare(p, args[i])
		} else {
			env.Declare(p, value.Undef)
		}
	}
	env.Declare("arguments", value.Obj(m.rt.makeArguments(args)))
	for _, local := range fn.Locals {
		env.Declare(local, value.Undef)
	}
	if fn.Name != "" {
		env.Declare(fn.Name, calleeVal)
	}

	target := len(m.frames)
	m.frames = append(m.frames, frame{
		fn: fn, env: env, this: this, calleeVal: calleeVal,
		isCtor: isCtor, ctorThis: ctorThis,
	})
	return m.runUntil(target)
}

// runUntil drives frames to completion until exactly target frames remain
// (the depth before the most recently pushed frame). See the extended
// design note in DESIGN.md for why this recursive-runUntil structure,
// rather than a single flat loop, is required to make exceptions unwind
// correctly across nested script-to-script calls.
func (m *exec) runUntil(target int) (value.Value, *ScriptError) {
	for len(m.frames) > target {
		f := &m.frames[len(m.frames)-1]
		if f.pc >= len(f.fn.Code) {
			panic("escript: frame pc ran past end of code without RETURN")
		}
		op := bytecode.Op(f.fn.Code[f.pc])
		f.pc++

		err := m.exec1(f, op)
		if err == nil {
			continue
		}
		if err == errUnwound {
			if len(m.frames) > target {
				// The handling frame is this loop's own: resume there.
				continue
			}
			return value.Undef, errUnwound
		}
		if !m.handleFailure(err) {
			return value.Undef, err
		}
		if len(m.frames) <= target {
			return value.Undef, errUnwound
		}
	}
	return m.lastReturn, nil
}

// handleFailure pops the innermost catch scope, truncates frames and the
// operand stack to the state recorded at TRY time, and jumps the handling
// frame to its handler PC. Returns false if no catch scope remains (the
// exception is uncaught).
func (m *exec) handleFailure(se *ScriptError) bool {
	if len(m.catch) == 0 {
		return false
	}
	cs := m.catch[len(m.catch)-1]
	m.catch = m.catch[:len(m.catch)-1]

	m.frames = m.frames[:cs.frameIdx+1]
	m.stack = m.stack[:cs.stackDepth]

	f := &m.frames[cs.frameIdx]
	f.env = cs.env
	f.pc = cs.handlerPC
	m.push(se.Value)
	return true
}

func (m *exec) runtimeFail(format string, args ...any) *ScriptError {
	msg := fmt.Sprintf(format, args...)
	return &ScriptError{Value: value.Obj(value.NewException(m.rt.ErrorProto, msg))}
}

func read2(f *frame) int {
	lo := int(f.fn.Code[f.pc])
	hi := int(f.fn.Code[f.pc+1])
	f.pc += 2
	return lo | hi<<16
}
