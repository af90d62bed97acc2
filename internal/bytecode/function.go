package bytecode

import "fmt"

// VMFunction is a compiled function: its name (empty for the top-level
// script), parameter and local-variable names, code, and constant pools.
// A VMFunction is immutable once Compile returns it; nested functions are
// owned here and additionally captured by closures created at runtime.
type VMFunction struct {
	Name     string
	Params   []string // parameter names, in declaration order
	Locals   []string // var-declared names that are not parameters, pre-initialized to undefined on call entry
	IsScript bool      // true for the function compiled from a whole source file

	Code []uint16 // opcode stream: opcode units interleaved with 0/1/2-unit operands

	Numbers   []float64    // deduplicated number-literal pool
	Strings   []string     // deduplicated string pool (identifiers, property keys, string literals)
	Functions []*VMFunction // nested function expressions/declarations, in textual order
}

// NumParams returns the number of declared parameters.
func (f *VMFunction) NumParams() int { return len(f.Params) }

// String renders a one-line summary, used by disassembly and error
// messages.
func (f *VMFunction) String() string {
	name := f.Name
	if name == "" {
		if f.IsScript {
			name = "<script>"
		} else {
			name = "<anonymous>"
		}
	}
	return fmt.Sprintf("function %s(%d params, %d locals, %d code units)", name, len(f.Params), len(f.Locals), len(f.Code))
}
