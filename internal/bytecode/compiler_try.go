package bytecode

import "github.com/cwbudde/escript/internal/ast"

// blockStmts returns a BLOCK node's statement list, or nil for an absent
// block.
func blockStmts(block *ast.Node) []*ast.Node {
	if block.IsNull() {
		return nil
	}
	return ast.List(block.A)
}

// compileTry lowers the three try shapes: try/catch, try/finally, and
// try/catch/finally. The three-part form compiles as two layers: an inner
// try/catch with no finally of its own, wrapped in an outer try/finally
// whose protected region is the entire inner construct -- so the finally
// block runs exactly once whether the try body, the catch body, or neither
// raises, and is inlined again at every break/continue/return that crosses
// it (see unwind/inlineFinally).
func (fc *funcCompiler) compileTry(n *ast.Node) error {
	hasCatch := !n.B.IsNull()
	hasFinally := !n.C.IsNull()
	finallyStmts := blockStmts(n.C)

	switch {
	case hasCatch && hasFinally:
		return fc.compileTryFinally(finallyStmts, func() error {
			return fc.compileTryCatch(n)
		})
	case hasCatch:
		return fc.compileTryCatch(n)
	default:
		return fc.compileTryFinally(finallyStmts, func() error {
			return fc.compileStatement(n.A)
		})
	}
}

// compileTryCatch lowers a bare try/catch. It carries no finally of its
// own: when wrapped by compileTryFinally for the three-part form, the
// finally lives on the outer layer's scope instead.
func (fc *funcCompiler) compileTryCatch(n *ast.Node) error {
	handler := fc.emitJump(OpTry)

	tryScope := &jumpScope{kind: scopeTry}
	fc.scopes = append(fc.scopes, tryScope)
	if err := fc.compileStatement(n.A); err != nil {
		return err
	}
	fc.scopes = fc.scopes[:len(fc.scopes)-1]
	fc.emit(OpEndTry)
	skipCatch := fc.emitJump(OpJump)

	fc.patch(handler, fc.here())
	fc.emit(OpCatch, fc.addString(n.Str))
	catchScope := &jumpScope{kind: scopeCatch}
	fc.scopes = append(fc.scopes, catchScope)
	if err := fc.compileStatement(n.B); err != nil {
		return err
	}
	fc.scopes = fc.scopes[:len(fc.scopes)-1]
	fc.emit(OpEndCatch)

	fc.patch(skipCatch, fc.here())
	return nil
}

// compileTryFinally wraps body (which compiles the protected region --
// either a plain try block or a full inner try/catch) with a try-level
// handler that runs finallyStmts on both the normal-completion path and the
// exceptional path, re-throwing in the latter. It pushes its own jumpScope
// around body, carrying finallyStmts, so that a break/continue/return
// inside the protected region inlines the finally block on its way out
// (see unwind/inlineFinally) instead of only running it on fall-through.
func (fc *funcCompiler) compileTryFinally(finallyStmts []*ast.Node, body func() error) error {
	handler := fc.emitJump(OpTry)

	scope := &jumpScope{kind: scopeTry, finally: finallyStmts}
	fc.scopes = append(fc.scopes, scope)
	err := body()
	fc.scopes = fc.scopes[:len(fc.scopes)-1]
	if err != nil {
		return err
	}
	fc.emit(OpEndTry)
	for _, s := range finallyStmts {
		if err := fc.compileStatement(s); err != nil {
			return err
		}
	}
	skipHandler := fc.emitJump(OpJump)

	fc.patch(handler, fc.here())
	// In a script the pending exception sits above the completion value:
	// swap it below for the finally block's statements, and back up for
	// the re-throw.
	track := fc.isScript && !fc.inForIn()
	if track {
		fc.emit(OpRot2)
	}
	for _, s := range finallyStmts {
		if err := fc.compileStatement(s); err != nil {
			return err
		}
	}
	if track {
		fc.emit(OpRot2)
	}
	fc.emit(OpThrow)

	fc.patch(skipHandler, fc.here())
	return nil
}
