package vm

import "github.com/cwbudde/escript/internal/value"

// ScriptError wraps a raised script value (the operand of THROW, or an
// exception synthesized by the interpreter for a runtime failure) as it
// propagates through Go's call stack via callValue/runUntil. It always
// carries a script-level value.Value; host code that wants the message
// should inspect Value directly.
type ScriptError struct {
	Value value.Value
}

func (e *ScriptError) Error() string {
	if e == nil || e.Value.IsUndefined() {
		return "script exception"
	}
	return e.Value.ToString()
}

// errUnwound is an internal control-flow sentinel, never surfaced to a
// caller of RunScript. It signals "an ancestor's catch scope already
// handled this exception; unwind the Go call stack back to it without
// touching the operand stack or re-attempting handleFailure." See the
// note on unwinding across nested runUntil calls in DESIGN.md.
var errUnwound = &ScriptError{}
