package vm

import (
	"github.com/cwbudde/escript/internal/bytecode"
	"github.com/cwbudde/escript/internal/value"
)

// frame is one active function activation. Unlike the spec's literal
// "callee/this/args on the operand stack" description, callee/this/args
// are consumed from the shared operand stack at CALL/NEW time and handed
// to the callee as plain Go values -- the environment chain (name-based,
// not slot-based) makes physically overlaying them on the value stack an
// unnecessary implementation detail. Every externally observable
// behavior the spec describes for CALL/NEW/RETURN is preserved; see
// DESIGN.md.
type frame struct {
	fn  *bytecode.VMFunction
	pc  int
	env *value.Environment

	this      value.Value
	calleeVal value.Value

	isCtor   bool
	ctorThis value.Value
}

// catchScope is one entry of the interpreter's catch-scope stack: the
// handler PC and operand-stack depth to restore to, the frame the TRY
// belongs to (by index into exec.frames), and the environment to resume
// with (mirrors frame.env at TRY time, in case a nested construct left it
// unrestored -- well-formed compiler output never does, but this is cheap
// insurance).
type catchScope struct {
	handlerPC  int
	stackDepth int
	frameIdx   int
	env        *value.Environment
}
