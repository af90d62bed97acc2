package bytecode

import (
	"testing"

	"github.com/cwbudde/escript/internal/ast"
	"github.com/cwbudde/escript/internal/lexer"
	"github.com/cwbudde/escript/internal/parser"
	"github.com/gkampitakis/go-snaps/snaps"
)

// compile parses and compiles src as a script function, failing the test
// on any pipeline error.
func compile(t *testing.T, src string) *VMFunction {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l)
	prog, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fn, err := Compile("", nil, ast.List(prog), true)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return fn
}

// TestDisassemblySnapshots pins the bytecode shape of a handful of
// representative scripts, the way the teacher's fixture_test.go pins
// interpreter output with go-snaps.
func TestDisassemblySnapshots(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"for-loop", `var s = 0; for (var i = 0; i < 10; i++) s += i;`},
		{"for-in", `var o = {a:1,b:2}; var keys = []; for (var k in o) keys.push(k);`},
		{"try-catch-finally", `try { throw 0; } catch(e) { } finally { }`},
		{"recursive-function", `function f(n){ if (n<2) return n; return f(n-1)+f(n-2); }`},
		{"short-circuit", `var x = a() && b() || c();`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := compile(t, tt.src)
			snaps.MatchSnapshot(t, DisassembleToString(fn))
		})
	}
}

func TestNumberConstantPoolDeduplicatesByValue(t *testing.T) {
	fn := compile(t, `var a = 1.5; var b = 1.5;`)
	if len(fn.Numbers) != 1 {
		t.Errorf("expected a single deduplicated number constant, got %d: %v", len(fn.Numbers), fn.Numbers)
	}
}

func TestJumpTargetsStayWithinCode(t *testing.T) {
	fn := compile(t, `
		for (var i = 0; i < 3; i++) {
			if (i == 1) continue;
			if (i == 2) break;
		}
	`)
	for pc := 0; pc < len(fn.Code); {
		op := Op(fn.Code[pc])
		width := op.OperandWidth()
		if width == 2 {
			target := int(fn.Code[pc+1]) | int(fn.Code[pc+2])<<16
			if target < 0 || target > len(fn.Code) {
				t.Errorf("jump at pc %d targets %d, outside code bounds [0,%d]", pc, target, len(fn.Code))
			}
		}
		pc += 1 + width
	}
}

func TestReturnOutsideFunctionIsACompileError(t *testing.T) {
	l := lexer.New(`return 1;`)
	p := parser.New(l)
	prog, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Compile("", nil, ast.List(prog), true); err == nil {
		t.Fatal("expected a compile error for return outside a function body")
	}
}

func TestUnmatchedBreakIsACompileError(t *testing.T) {
	l := lexer.New(`break;`)
	p := parser.New(l)
	prog, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Compile("", nil, ast.List(prog), true); err == nil {
		t.Fatal("expected a compile error for break with no enclosing loop/switch")
	}
}
