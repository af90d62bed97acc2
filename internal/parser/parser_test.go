package parser

import (
	"testing"

	"github.com/cwbudde/escript/internal/ast"
	"github.com/cwbudde/escript/internal/lexer"
)

func parseProgram(t *testing.T, src string) *ast.Node {
	t.Helper()
	l := lexer.New(src)
	p := New(l)
	prog, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func TestFunctionStatementIsRewrittenToVarDecl(t *testing.T) {
	prog := parseProgram(t, `function foo(){ return 1; }`)
	stmts := ast.List(prog)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 top-level statement, got %d", len(stmts))
	}
	stmt := stmts[0]
	if stmt.Kind != ast.VAR {
		t.Fatalf("expected a VAR statement, got %v", stmt.Kind)
	}
	decls := ast.List(stmt.A)
	if len(decls) != 1 || decls[0].Str != "foo" {
		t.Fatalf("expected a single var decl named foo, got %+v", decls)
	}
	if decls[0].A.Kind != ast.FUNDEC {
		t.Fatalf("expected the initializer to be a function expression, got %v", decls[0].A.Kind)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	prog := parseProgram(t, `1 + 2 * 3;`)
	stmts := ast.List(prog)
	expr := stmts[0]
	if expr.Kind != ast.ADD {
		t.Fatalf("expected top-level ADD, got %v", expr.Kind)
	}
	if expr.B.Kind != ast.MUL {
		t.Fatalf("expected the right operand to be MUL (higher precedence), got %v", expr.B.Kind)
	}
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	prog := parseProgram(t, `a = b = c;`)
	expr := ast.List(prog)[0]
	if expr.Kind != ast.ASSIGN {
		t.Fatalf("expected ASSIGN, got %v", expr.Kind)
	}
	if expr.B.Kind != ast.ASSIGN {
		t.Fatalf("expected the RHS to itself be an ASSIGN (right-associative), got %v", expr.B.Kind)
	}
}

func TestForVarInHeaderParsesAsForIn(t *testing.T) {
	// With notin set while the var declaration is parsed, "in" ends the
	// declaration instead of being read as a relational operator, so the
	// header parses as a for-in over obj.
	prog := parseProgram(t, `for (var k in obj) {}`)
	stmt := ast.List(prog)[0]
	if stmt.Kind != ast.FORINVAR {
		t.Fatalf("expected FORINVAR, got %v", stmt.Kind)
	}
	if stmt.Str != "k" {
		t.Errorf("expected loop var %q, got %q", "k", stmt.Str)
	}
}

func TestASIInsertsBeforeClosingBraceAndEOF(t *testing.T) {
	prog := parseProgram(t, "{ var x = 1 }")
	stmt := ast.List(prog)[0]
	if stmt.Kind != ast.BLOCK {
		t.Fatalf("expected BLOCK, got %v", stmt.Kind)
	}
	prog = parseProgram(t, "var y = 2")
	if stmt := ast.List(prog)[0]; stmt.Kind != ast.VAR {
		t.Fatalf("expected VAR, got %v", stmt.Kind)
	}
}

func TestASIDoesNotFireAcrossTwoStatementsOnOneLine(t *testing.T) {
	l := lexer.New("var x = 1 var y = 2")
	p := New(l)
	if _, err := p.ParseProgram(); err == nil {
		t.Fatal("expected a syntax error: no ASI opportunity between the two var statements")
	}
}

func TestPostfixIncrementSuppressedAcrossNewline(t *testing.T) {
	// "a\n++b" must parse as two statements (a; then prefix ++b), not a
	// postfix increment of a, since postfix requires no newline before it.
	prog := parseProgram(t, "a\n++b;")
	stmts := ast.List(prog)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	if stmts[1].Kind != ast.PREINC {
		t.Fatalf("expected the second statement to be a prefix increment, got %v", stmts[1].Kind)
	}
}

func TestUnexpectedTokenIsASyntaxError(t *testing.T) {
	l := lexer.New("var = ;")
	p := New(l)
	if _, err := p.ParseProgram(); err == nil {
		t.Fatal("expected a syntax error for a missing variable name")
	}
}
