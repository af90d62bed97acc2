package bytecode

import (
	goerrors "errors"

	"github.com/cwbudde/escript/internal/ast"
	"github.com/cwbudde/escript/internal/errors"
)

var (
	errNoBreakTarget        = goerrors.New("no enclosing loop, switch, or label for break")
	errNoContinueTarget     = goerrors.New("no enclosing loop for continue")
	errContinueLabelNotLoop = goerrors.New("continue label does not name a loop")
)

// scopeKind tags a compile-time jump scope the way the spec's glossary
// does: try/catch/switch/for/for-in/do/while/label.
type scopeKind int

const (
	scopeTry scopeKind = iota
	scopeCatch
	scopeSwitch
	scopeFor
	scopeForIn
	scopeDo
	scopeWhile
	scopeLabel
)

func (k scopeKind) isLoop() bool {
	return k == scopeFor || k == scopeForIn || k == scopeDo || k == scopeWhile
}

func (k scopeKind) isBreakable() bool {
	return k.isLoop() || k == scopeSwitch || k == scopeLabel
}

// jumpScope is a compile-time record of one open structured-control-flow
// construct: its kind, an optional label, pending break/continue fixups
// (operand positions awaiting a target address), and -- for try/catch --
// the finally block to inline on abrupt exit.
type jumpScope struct {
	kind          scopeKind
	label         string
	breakJumps    []int
	continueJumps []int
	finally       []*ast.Node // inlined verbatim on abrupt exit, nil if this scope has no attached finally
}

// funcCompiler holds the mutable state for compiling a single function
// (or the top-level script). Nested functions get their own funcCompiler;
// break/continue/return never cross a function boundary.
type funcCompiler struct {
	name     string
	params   []string
	isScript bool

	code []uint16

	numbers   []float64
	numberIdx map[float64]uint16

	strings   []string
	stringIdx map[string]uint16

	functions []*VMFunction

	locals    []string
	localSeen map[string]bool

	scopes []*jumpScope

	hoisted map[*ast.Node]bool // VAR statement nodes whose function binding was hoisted to the top
}

// Compile lowers a function body (or the top-level script's statement
// list) to a VMFunction. name is "" for anonymous functions and for the
// script. stmts is the flat statement list -- the caller unwraps a
// function literal's BLOCK or passes the parser's top-level LIST directly.
func Compile(name string, params []string, stmts []*ast.Node, isScript bool) (*VMFunction, error) {
	fc := &funcCompiler{
		name:      name,
		params:    params,
		isScript:  isScript,
		numberIdx: map[float64]uint16{},
		stringIdx: map[string]uint16{},
		localSeen: map[string]bool{},
		hoisted:   map[*ast.Node]bool{},
	}
	for _, p := range params {
		fc.localSeen[p] = true
	}

	// Step 1: collect var-declared names (not descending into nested
	// functions), reserving the slot order the VM pre-initializes.
	for _, stmt := range stmts {
		fc.collectVars(stmt)
	}

	// Step 3: hoist top-level function declarations -- a VAR statement
	// whose single declaration's initializer is a FUNDEC (the parser's
	// function-statement rewrite) is bound before any other body code.
	for _, stmt := range stmts {
		if err := fc.hoistIfFunctionDecl(stmt); err != nil {
			return nil, err
		}
	}

	if isScript {
		fc.emit(OpUndef)
	}

	for _, stmt := range stmts {
		if fc.hoisted[stmt] {
			continue
		}
		if err := fc.compileStatement(stmt); err != nil {
			return nil, err
		}
	}

	if isScript {
		fc.emit(OpReturn)
	} else {
		fc.emit(OpUndef)
		fc.emit(OpReturn)
	}

	return &VMFunction{
		Name:      name,
		Params:    params,
		Locals:    fc.locals,
		IsScript:  isScript,
		Code:      fc.code,
		Numbers:   fc.numbers,
		Strings:   fc.strings,
		Functions: fc.functions,
	}, nil
}

// --- constant pools ----------------------------------------------------

func (fc *funcCompiler) addNumber(n float64) uint16 {
	if idx, ok := fc.numberIdx[n]; ok {
		return idx
	}
	idx := uint16(len(fc.numbers))
	fc.numbers = append(fc.numbers, n)
	fc.numberIdx[n] = idx
	return idx
}

func (fc *funcCompiler) addString(s string) uint16 {
	if idx, ok := fc.stringIdx[s]; ok {
		return idx
	}
	idx := uint16(len(fc.strings))
	fc.strings = append(fc.strings, s)
	fc.stringIdx[s] = idx
	return idx
}

func (fc *funcCompiler) addFunction(fn *VMFunction) uint16 {
	idx := uint16(len(fc.functions))
	fc.functions = append(fc.functions, fn)
	return idx
}

// --- code emission -------------------------------------------------------

func (fc *funcCompiler) emit(op Op, operands ...uint16) int {
	pos := len(fc.code)
	fc.code = append(fc.code, uint16(op))
	fc.code = append(fc.code, operands...)
	return pos
}

// emitJump emits a jump-family opcode with a placeholder address and
// returns the position of the operand (not the opcode) for later patching.
func (fc *funcCompiler) emitJump(op Op) int {
	fc.code = append(fc.code, uint16(op), 0, 0)
	return len(fc.code) - 2
}

// patch writes target into the two-unit operand at operandPos.
func (fc *funcCompiler) patch(operandPos int, target int) {
	fc.code[operandPos] = uint16(target)
	fc.code[operandPos+1] = uint16(target >> 16)
}

// emitJumpTo emits a jump-family opcode with an already-known target
// address (a backward edge), writing both operand units directly.
func (fc *funcCompiler) emitJumpTo(op Op, target int) {
	fc.code = append(fc.code, uint16(op), uint16(target), uint16(target>>16))
}

func (fc *funcCompiler) here() int { return len(fc.code) }

// --- variable hoisting ---------------------------------------------------

// collectVars walks a statement for VARDECL names without descending into
// nested function literals, recording each previously-unseen name in
// declaration order.
func (fc *funcCompiler) collectVars(n *ast.Node) {
	if n.IsNull() {
		return
	}
	switch n.Kind {
	case ast.VAR:
		for _, decl := range ast.List(n.A) {
			if !fc.localSeen[decl.Str] {
				fc.localSeen[decl.Str] = true
				fc.locals = append(fc.locals, decl.Str)
			}
		}
	case ast.FUNDEC, ast.FUNEXPR:
		return // nested function: own scope, not walked
	case ast.BLOCK:
		for _, s := range ast.List(n.A) {
			fc.collectVars(s)
		}
	case ast.IF:
		fc.collectVars(n.B)
		fc.collectVars(n.C)
	case ast.DO:
		fc.collectVars(n.A)
	case ast.WHILE:
		fc.collectVars(n.B)
	case ast.FOR:
		fc.collectVars(n.D)
	case ast.FORVAR:
		for _, decl := range ast.List(n.A) {
			if !fc.localSeen[decl.Str] {
				fc.localSeen[decl.Str] = true
				fc.locals = append(fc.locals, decl.Str)
			}
		}
		fc.collectVars(n.D)
	case ast.FORIN:
		fc.collectVars(n.C)
	case ast.FORINVAR:
		if !fc.localSeen[n.Str] {
			fc.localSeen[n.Str] = true
			fc.locals = append(fc.locals, n.Str)
		}
		fc.collectVars(n.A) // object expr has no vars, harmless no-op guard
		fc.collectVars(n.B)
	case ast.SWITCH:
		for _, c := range ast.List(n.B) {
			for _, s := range ast.List(c.B) {
				fc.collectVars(s)
			}
		}
	case ast.TRY:
		fc.collectVars(n.A)
		fc.collectVars(n.B)
		fc.collectVars(n.C)
	case ast.LABEL:
		fc.collectVars(n.A)
	}
}

// hoistIfFunctionDecl recognizes a top-level `var name = function name(){}`
// produced by the parser's function-statement rewrite and emits its
// CLOSURE/SETVAR/POP binding immediately, before the rest of the body,
// marking the original statement to be skipped when reached in order.
func (fc *funcCompiler) hoistIfFunctionDecl(n *ast.Node) error {
	if n.IsNull() || n.Kind != ast.VAR {
		return nil
	}
	decls := ast.List(n.A)
	if len(decls) != 1 {
		return nil
	}
	decl := decls[0]
	if decl.A.IsNull() || decl.A.Kind != ast.FUNDEC {
		return nil
	}
	fn, err := fc.compileNestedFunction(decl.A)
	if err != nil {
		return err
	}
	idx := fc.addFunction(fn)
	fc.emit(OpClosure, idx)
	fc.emit(OpSetVar, fc.addString(decl.Str))
	fc.emit(OpPop)
	fc.hoisted[n] = true
	return nil
}

func (fc *funcCompiler) compileNestedFunction(n *ast.Node) (*VMFunction, error) {
	paramNodes := ast.List(n.A)
	params := make([]string, len(paramNodes))
	for i, p := range paramNodes {
		params[i] = p.Str
	}
	var body []*ast.Node
	if !n.B.IsNull() {
		body = ast.List(n.B.A)
	}
	return Compile(n.Str, params, body, false)
}

// --- statements ----------------------------------------------------------

func (fc *funcCompiler) compileStatement(n *ast.Node) error {
	if n.IsNull() || n.Kind == ast.EMPTY || n.Kind == ast.DEBUGSTMT {
		if n != nil && n.Kind == ast.DEBUGSTMT {
			fc.emit(OpDebug)
		}
		return nil
	}

	switch n.Kind {
	case ast.BLOCK:
		for _, s := range ast.List(n.A) {
			if err := fc.compileStatement(s); err != nil {
				return err
			}
		}
		return nil

	case ast.VAR:
		for _, decl := range ast.List(n.A) {
			if decl.A.IsNull() {
				continue
			}
			if err := fc.compileExpr(decl.A); err != nil {
				return err
			}
			fc.emit(OpSetVar, fc.addString(decl.Str))
			fc.emit(OpPop)
		}
		return nil

	case ast.IF:
		return fc.compileIf(n)
	case ast.DO:
		return fc.compileDoWhile(n)
	case ast.WHILE:
		return fc.compileWhile(n)
	case ast.FOR:
		return fc.compileFor(n)
	case ast.FORVAR:
		return fc.compileForVar(n)
	case ast.FORIN:
		return fc.compileForIn(n, false, "")
	case ast.FORINVAR:
		return fc.compileForIn(n, true, n.Str)
	case ast.CONTINUE:
		return fc.compileBreakContinue(n, false)
	case ast.BREAK:
		return fc.compileBreakContinue(n, true)
	case ast.RETURN:
		return fc.compileReturn(n)
	case ast.SWITCH:
		return fc.compileSwitch(n)
	case ast.THROWSTMT:
		if err := fc.compileExpr(n.A); err != nil {
			return err
		}
		fc.emit(OpThrow)
		return nil
	case ast.TRY:
		return fc.compileTry(n)
	case ast.LABEL:
		return fc.compileLabel(n)
	default:
		// Expression statement: the raw expression node itself.
		if err := fc.compileExpr(n); err != nil {
			return err
		}
		if fc.isScript && !fc.inForIn() {
			// Completion-value tracking: replace the running completion
			// value (below) with this statement's value. Inside a for-in
			// the live iterator sits below instead, so there the value is
			// dropped and the completion value is left as it was.
			fc.emit(OpRot2)
			fc.emit(OpPop)
		} else {
			fc.emit(OpPop)
		}
		return nil
	}
}

// inForIn reports whether a for-in loop is open, i.e. whether its live
// iterator sits on the operand stack above the script's completion value.
func (fc *funcCompiler) inForIn() bool {
	for _, s := range fc.scopes {
		if s.kind == scopeForIn {
			return true
		}
	}
	return false
}

func (fc *funcCompiler) compileIf(n *ast.Node) error {
	if err := fc.compileExpr(n.A); err != nil {
		return err
	}
	elseJump := fc.emitJump(OpJFalsePop)
	if err := fc.compileStatement(n.B); err != nil {
		return err
	}
	if n.C.IsNull() {
		fc.patch(elseJump, fc.here())
		return nil
	}
	endJump := fc.emitJump(OpJump)
	fc.patch(elseJump, fc.here())
	if err := fc.compileStatement(n.C); err != nil {
		return err
	}
	fc.patch(endJump, fc.here())
	return nil
}

// compileDoWhile: body; test; loop back to body if truthy.
func (fc *funcCompiler) compileDoWhile(n *ast.Node) error {
	scope := &jumpScope{kind: scopeDo}
	fc.scopes = append(fc.scopes, scope)

	top := fc.here()
	if err := fc.compileStatement(n.A); err != nil {
		return err
	}
	continueTarget := fc.here()
	if err := fc.compileExpr(n.B); err != nil {
		return err
	}
	fc.emitJumpTo(OpJTruePop, top)
	fc.patchAll(scope.continueJumps, continueTarget)
	endTarget := fc.here()
	fc.patchAll(scope.breakJumps, endTarget)

	fc.scopes = fc.scopes[:len(fc.scopes)-1]
	return nil
}

func (fc *funcCompiler) compileWhile(n *ast.Node) error {
	scope := &jumpScope{kind: scopeWhile}
	fc.scopes = append(fc.scopes, scope)

	top := fc.here()
	if err := fc.compileExpr(n.A); err != nil {
		return err
	}
	endJump := fc.emitJump(OpJFalsePop)
	if err := fc.compileStatement(n.B); err != nil {
		return err
	}
	fc.patchAll(scope.continueJumps, top)
	fc.emitJumpTo(OpJump, top)
	fc.patch(endJump, fc.here())
	fc.patchAll(scope.breakJumps, fc.here())

	fc.scopes = fc.scopes[:len(fc.scopes)-1]
	return nil
}

func (fc *funcCompiler) compileFor(n *ast.Node) error {
	if !n.A.IsNull() {
		if err := fc.compileExpr(n.A); err != nil {
			return err
		}
		fc.emit(OpPop)
	}
	return fc.compileForCommon(n.B, n.C, n.D, scopeFor)
}

func (fc *funcCompiler) compileForVar(n *ast.Node) error {
	for _, decl := range ast.List(n.A) {
		if decl.A.IsNull() {
			continue
		}
		if err := fc.compileExpr(decl.A); err != nil {
			return err
		}
		fc.emit(OpSetVar, fc.addString(decl.Str))
		fc.emit(OpPop)
	}
	return fc.compileForCommon(n.B, n.C, n.D, scopeFor)
}

// compileForCommon lays down: top: test (JFALSE end); body; continue:
// step; JUMP top; end:.
func (fc *funcCompiler) compileForCommon(test, step, body *ast.Node, kind scopeKind) error {
	scope := &jumpScope{kind: kind}
	fc.scopes = append(fc.scopes, scope)

	top := fc.here()
	var endJump int
	hasTest := !test.IsNull()
	if hasTest {
		if err := fc.compileExpr(test); err != nil {
			return err
		}
		endJump = fc.emitJump(OpJFalsePop)
	}
	if err := fc.compileStatement(body); err != nil {
		return err
	}
	continueTarget := fc.here()
	fc.patchAll(scope.continueJumps, continueTarget)
	if !step.IsNull() {
		if err := fc.compileExpr(step); err != nil {
			return err
		}
		fc.emit(OpPop)
	}
	fc.emitJumpTo(OpJump, top)
	if hasTest {
		fc.patch(endJump, fc.here())
	}
	fc.patchAll(scope.breakJumps, fc.here())

	fc.scopes = fc.scopes[:len(fc.scopes)-1]
	return nil
}

// compileForIn lowers `for (lhs in obj) body` / `for (var name in obj)
// body` to ITERATOR/NEXTITER. The iterator object sits on the operand
// stack for the loop's whole lifetime; break and non-local continue must
// pop it (see unwind), a local continue must not.
func (fc *funcCompiler) compileForIn(n *ast.Node, isVarForm bool, varName string) error {
	var objExpr *ast.Node
	var lhsIdent string
	var body *ast.Node
	if isVarForm {
		objExpr = n.A
		lhsIdent = varName
		body = n.B
	} else {
		if n.A.Kind != ast.IDENT {
			return errors.New(errors.StageCompile, n.Line, "for-in target must be a plain identifier")
		}
		lhsIdent = n.A.Str
		objExpr = n.B
		body = n.C
	}

	if err := fc.compileExpr(objExpr); err != nil {
		return err
	}
	fc.emit(OpIterator)

	scope := &jumpScope{kind: scopeForIn}
	fc.scopes = append(fc.scopes, scope)

	top := fc.here()
	nextJump := fc.emitJump(OpNextIter) // operand: exhaustion target, where NEXTITER jumps after popping the iterator
	fc.emit(OpSetVar, fc.addString(lhsIdent))
	fc.emit(OpPop)
	if err := fc.compileStatement(body); err != nil {
		return err
	}
	fc.patchAll(scope.continueJumps, fc.here())
	fc.emitJumpTo(OpJump, top)
	fc.patch(nextJump, fc.here())
	fc.patchAll(scope.breakJumps, fc.here())

	fc.scopes = fc.scopes[:len(fc.scopes)-1]
	return nil
}

// compileSwitch evaluates the discriminant once, dispatches each case with
// JCASE (strict-equal compare-and-jump), falls through to default (or the
// end) otherwise, then emits each case body in textual order.
func (fc *funcCompiler) compileSwitch(n *ast.Node) error {
	if err := fc.compileExpr(n.A); err != nil {
		return err
	}
	scope := &jumpScope{kind: scopeSwitch}
	fc.scopes = append(fc.scopes, scope)

	clauses := ast.List(n.B)
	caseJumps := make([]int, len(clauses))
	defaultIdx := -1
	for i, c := range clauses {
		if c.Kind == ast.DEFAULT {
			defaultIdx = i
			continue
		}
		if err := fc.compileExpr(c.A); err != nil {
			return err
		}
		caseJumps[i] = fc.emitJump(OpJCase)
	}
	// No case matched a strict-equal JCASE: drop the discriminant before
	// falling into the unconditional jump, so every case body (reached
	// either via a matching JCASE, which pops the discriminant itself, or
	// via this fallthrough) starts with the same stack depth.
	fc.emit(OpPop)
	endOrDefaultJump := fc.emitJump(OpJump)

	for i, c := range clauses {
		if c.Kind == ast.DEFAULT {
			fc.patch(endOrDefaultJump, fc.here())
		} else {
			fc.patch(caseJumps[i], fc.here())
		}
		for _, s := range ast.List(c.B) {
			if err := fc.compileStatement(s); err != nil {
				return err
			}
		}
	}
	if defaultIdx < 0 {
		fc.patch(endOrDefaultJump, fc.here())
	}
	fc.patchAll(scope.breakJumps, fc.here())

	fc.scopes = fc.scopes[:len(fc.scopes)-1]
	return nil
}

func (fc *funcCompiler) compileLabel(n *ast.Node) error {
	labels := []string{n.Str}
	inner := n.A
	for inner.Kind == ast.LABEL {
		labels = append(labels, inner.Str)
		inner = inner.A
	}
	switch inner.Kind {
	case ast.FOR, ast.FORVAR, ast.FORIN, ast.FORINVAR, ast.WHILE, ast.DO, ast.SWITCH:
		// Wrap the loop/switch with a plain label scope per name,
		// innermost first, same as a non-loop statement -- a break with
		// that label finds the (breakable) label scope, and findScope
		// resolves a continue with that label to the loop scope pushed
		// directly above the label scopes.
		cur := inner
		for i := len(labels) - 1; i >= 0; i-- {
			scope := &jumpScope{kind: scopeLabel, label: labels[i]}
			fc.scopes = append(fc.scopes, scope)
			defer func(s *jumpScope) {
				fc.patchAll(s.breakJumps, fc.here())
				fc.scopes = fc.scopes[:len(fc.scopes)-1]
			}(scope)
		}
		return fc.compileStatement(cur)
	default:
		scope := &jumpScope{kind: scopeLabel, label: labels[len(labels)-1]}
		fc.scopes = append(fc.scopes, scope)
		if err := fc.compileStatement(inner); err != nil {
			return err
		}
		fc.patchAll(scope.breakJumps, fc.here())
		fc.scopes = fc.scopes[:len(fc.scopes)-1]
		return nil
	}
}

// compileBreakContinue finds the target scope (innermost, or the named
// one), emits the unwind cleanup for every scope crossed, then a jump
// registered with the target scope to be patched when it closes.
func (fc *funcCompiler) compileBreakContinue(n *ast.Node, isBreak bool) error {
	idx, err := fc.findScope(n.Str, isBreak)
	if err != nil {
		return errors.New(errors.StageCompile, n.Line, "%s", err.Error())
	}
	top := len(fc.scopes) - 1
	if isBreak {
		fc.unwind(top, idx, false)
	} else {
		fc.unwind(top, idx+1, false)
	}
	pos := fc.emitJump(OpJump)
	if isBreak {
		fc.scopes[idx].breakJumps = append(fc.scopes[idx].breakJumps, pos)
	} else {
		fc.scopes[idx].continueJumps = append(fc.scopes[idx].continueJumps, pos)
	}
	return nil
}

func (fc *funcCompiler) compileReturn(n *ast.Node) error {
	if fc.isScript {
		return errors.New(errors.StageCompile, n.Line, "return outside a function body")
	}
	if n.A.IsNull() {
		fc.emit(OpUndef)
	} else if err := fc.compileExpr(n.A); err != nil {
		return err
	}
	fc.unwind(len(fc.scopes)-1, 0, true)
	fc.emit(OpReturn)
	return nil
}

// unwind emits the cleanup ops for every scope in [to, from] (inclusive),
// from innermost to outermost. forReturn selects the ROT2+POP pattern that
// preserves a pending return value underneath a for-in's live iterator.
func (fc *funcCompiler) unwind(from, to int, forReturn bool) {
	for i := from; i >= to; i-- {
		s := fc.scopes[i]
		switch s.kind {
		case scopeTry:
			fc.emit(OpEndTry)
			// The finally block runs outside its own try, so it is compiled
			// with only the scopes enclosing that try open.
			saved := fc.scopes
			fc.scopes = append([]*jumpScope(nil), fc.scopes[:i]...)
			fc.inlineFinally(s.finally)
			fc.scopes = saved
		case scopeCatch:
			fc.emit(OpEndCatch)
			fc.inlineFinally(s.finally)
		case scopeForIn:
			if forReturn {
				fc.emit(OpRot2)
			}
			fc.emit(OpPop)
		}
	}
}

func (fc *funcCompiler) inlineFinally(finally []*ast.Node) {
	for _, s := range finally {
		_ = fc.compileStatement(s) // finally is balanced: errors here would have surfaced when first compiled
	}
}

// findScope returns the index (into fc.scopes) of the break/continue
// target: the named scope if label is non-empty (for continue, the loop
// scope directly above that label's scope and any further label scopes),
// else the innermost scope of the right shape (any breakable scope for
// break, only a loop for a bare continue).
func (fc *funcCompiler) findScope(label string, isBreak bool) (int, error) {
	for i := len(fc.scopes) - 1; i >= 0; i-- {
		s := fc.scopes[i]
		if label != "" {
			if s.label != label {
				continue
			}
			if !isBreak {
				j := i + 1
				for j < len(fc.scopes) && fc.scopes[j].kind == scopeLabel {
					j++
				}
				if j == len(fc.scopes) || !fc.scopes[j].kind.isLoop() {
					return 0, errContinueLabelNotLoop
				}
				return j, nil
			}
			return i, nil
		}
		if isBreak && s.kind.isBreakable() {
			return i, nil
		}
		if !isBreak && s.kind.isLoop() {
			return i, nil
		}
	}
	if isBreak {
		return 0, errNoBreakTarget
	}
	return 0, errNoContinueTarget
}

func (fc *funcCompiler) patchAll(positions []int, target int) {
	for _, pos := range positions {
		fc.patch(pos, target)
	}
}
