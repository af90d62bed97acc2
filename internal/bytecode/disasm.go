package bytecode

import (
	"fmt"
	"io"
	"strings"
)

// Disassembler prints human-readable bytecode disassembly for debugging and
// golden tests. It walks a VMFunction's code stream instruction by
// instruction and recurses into nested function constants.
type Disassembler struct {
	writer io.Writer
}

// NewDisassembler creates a disassembler writing to w.
func NewDisassembler(w io.Writer) *Disassembler {
	return &Disassembler{writer: w}
}

// Disassemble prints fn and, recursively, every function in its nested
// function table.
func (d *Disassembler) Disassemble(fn *VMFunction) {
	kind := "function"
	if fn.IsScript {
		kind = "script"
	}
	fmt.Fprintf(d.writer, "== %s %s ==\n", kind, fnLabel(fn))
	fmt.Fprintf(d.writer, "params: %s\n", strings.Join(fn.Params, ", "))
	if len(fn.Locals) > 0 {
		fmt.Fprintf(d.writer, "locals: %s\n", strings.Join(fn.Locals, ", "))
	}
	if len(fn.Numbers) > 0 {
		fmt.Fprintf(d.writer, "numbers:")
		for i, n := range fn.Numbers {
			fmt.Fprintf(d.writer, " [%d]%v", i, n)
		}
		fmt.Fprintln(d.writer)
	}
	if len(fn.Strings) > 0 {
		fmt.Fprintf(d.writer, "strings:")
		for i, s := range fn.Strings {
			fmt.Fprintf(d.writer, " [%d]%q", i, s)
		}
		fmt.Fprintln(d.writer)
	}

	for pc := 0; pc < len(fn.Code); {
		pc = d.instruction(fn, pc)
	}
	fmt.Fprintln(d.writer)

	for i, nested := range fn.Functions {
		fmt.Fprintf(d.writer, "-- nested function [%d] --\n", i)
		d.Disassemble(nested)
	}
}

func fnLabel(fn *VMFunction) string {
	if fn.Name != "" {
		return fn.Name
	}
	if fn.IsScript {
		return "<script>"
	}
	return "<anonymous>"
}

// instruction prints the instruction at pc and returns the pc of the next
// instruction.
func (d *Disassembler) instruction(fn *VMFunction, pc int) int {
	op := Op(fn.Code[pc])
	width := op.OperandWidth()

	switch width {
	case 0:
		fmt.Fprintf(d.writer, "%04d %-12s\n", pc, op)
	case 1:
		operand := fn.Code[pc+1]
		fmt.Fprintf(d.writer, "%04d %-12s %4d%s\n", pc, op, operand, annotation(fn, op, operand))
	case 2:
		target := int(fn.Code[pc+1]) | int(fn.Code[pc+2])<<16
		fmt.Fprintf(d.writer, "%04d %-12s -> %04d\n", pc, op, target)
	}
	return pc + 1 + width
}

// annotation renders the human-readable payload for a 1-unit operand:
// the referenced pool entry for constant/variable/property ops, or the raw
// count for call/array ops.
func annotation(fn *VMFunction, op Op, operand uint16) string {
	switch op {
	case OpNumber:
		if int(operand) < len(fn.Numbers) {
			return fmt.Sprintf("  ; %v", fn.Numbers[operand])
		}
	case OpString, OpGetPropS, OpSetPropS, OpDelPropS, OpInitPropS,
		OpHasVar, OpGetVar, OpSetVar, OpDelVar, OpCatch:
		if int(operand) < len(fn.Strings) {
			return fmt.Sprintf("  ; %q", fn.Strings[operand])
		}
	case OpClosure:
		if int(operand) < len(fn.Functions) {
			return fmt.Sprintf("  ; %s", fnLabel(fn.Functions[operand]))
		}
	case OpCall, OpNew, OpNewArray:
		return "  ; count"
	}
	return ""
}

// DisassembleToString renders fn's disassembly (and its nested functions')
// as a string.
func DisassembleToString(fn *VMFunction) string {
	var sb strings.Builder
	NewDisassembler(&sb).Disassemble(fn)
	return sb.String()
}
