package bytecode

import (
	"math"

	"github.com/cwbudde/escript/internal/ast"
	"github.com/cwbudde/escript/internal/errors"
)

var binaryOp = map[ast.Kind]Op{
	ast.MOD: OpMod, ast.DIVOP: OpDiv, ast.MUL: OpMul, ast.SUB: OpSub, ast.ADD: OpAdd,
	ast.USHR: OpUShr, ast.SHR: OpShr, ast.SHL: OpShl,
	ast.IN: OpIn, ast.INSTANCEOF: OpInstanceof,
	ast.GE: OpGe, ast.LE: OpLe, ast.GT: OpGt, ast.LT: OpLt,
	ast.STRICTNE: OpStrictNe, ast.STRICTEQ: OpStrictEq, ast.NE: OpNe, ast.EQ: OpEq,
	ast.BITAND: OpBitAnd, ast.BITXOR: OpBitXor, ast.BITOR: OpBitOr,
}

var compoundOp = map[ast.Kind]Op{
	ast.ASSIGN_MUL: OpMul, ast.ASSIGN_DIV: OpDiv, ast.ASSIGN_MOD: OpMod,
	ast.ASSIGN_ADD: OpAdd, ast.ASSIGN_SUB: OpSub,
	ast.ASSIGN_SHL: OpShl, ast.ASSIGN_SHR: OpShr, ast.ASSIGN_USHR: OpUShr,
	ast.ASSIGN_BITAND: OpBitAnd, ast.ASSIGN_BITXOR: OpBitXor, ast.ASSIGN_BITOR: OpBitOr,
}

// compileExpr compiles n so that it pushes exactly one value.
func (fc *funcCompiler) compileExpr(n *ast.Node) error {
	if n.IsNull() {
		fc.emit(OpUndef)
		return nil
	}

	switch n.Kind {
	case ast.NUMBER:
		fc.emitNumber(n.Num)
		return nil
	case ast.STRING:
		fc.emit(OpString, fc.addString(n.Str))
		return nil
	case ast.UNDEF:
		fc.emit(OpUndef)
		return nil
	case ast.NULLLIT:
		fc.emit(OpNull)
		return nil
	case ast.TRUE:
		fc.emit(OpTrue)
		return nil
	case ast.FALSE:
		fc.emit(OpFalse)
		return nil
	case ast.THIS:
		fc.emit(OpThis)
		return nil
	case ast.IDENT:
		fc.emit(OpGetVar, fc.addString(n.Str))
		return nil

	case ast.ARRAY:
		elems := ast.List(n.A)
		for _, e := range elems {
			if err := fc.compileExpr(e); err != nil {
				return err
			}
		}
		fc.emit(OpNewArray, uint16(len(elems)))
		return nil

	case ast.OBJECT:
		fc.emit(OpNewObject)
		for _, prop := range ast.List(n.A) {
			switch prop.Kind {
			case ast.PROP_VAL:
				if err := fc.compileExpr(prop.A); err != nil {
					return err
				}
				fc.emit(OpInitPropS, fc.addString(prop.Str))
			case ast.PROP_GET:
				fc.emit(OpString, fc.addString(prop.Str))
				if err := fc.compileExpr(prop.A); err != nil {
					return err
				}
				fc.emit(OpInitGetter)
			case ast.PROP_SET:
				fc.emit(OpString, fc.addString(prop.Str))
				if err := fc.compileExpr(prop.A); err != nil {
					return err
				}
				fc.emit(OpInitSetter)
			}
		}
		return nil

	case ast.FUNEXPR, ast.FUNDEC:
		fn, err := fc.compileNestedFunction(n)
		if err != nil {
			return err
		}
		fc.emit(OpClosure, fc.addFunction(fn))
		return nil

	case ast.MEMBER:
		if err := fc.compileExpr(n.A); err != nil {
			return err
		}
		fc.emit(OpGetPropS, fc.addString(n.Str))
		return nil

	case ast.INDEX:
		if err := fc.compileExpr(n.A); err != nil {
			return err
		}
		if err := fc.compileExpr(n.B); err != nil {
			return err
		}
		fc.emit(OpGetProp)
		return nil

	case ast.CALL:
		return fc.compileCall(n)
	case ast.NEW:
		return fc.compileNew(n)

	case ast.POSTINC:
		return fc.compileIncDec(n.A, OpPostInc, true)
	case ast.POSTDEC:
		return fc.compileIncDec(n.A, OpPostDec, true)
	case ast.PREINC:
		return fc.compileIncDec(n.A, OpInc, false)
	case ast.PREDEC:
		return fc.compileIncDec(n.A, OpDec, false)

	case ast.DELETE:
		return fc.compileDelete(n.A)
	case ast.VOID:
		if err := fc.compileExpr(n.A); err != nil {
			return err
		}
		fc.emit(OpPop)
		fc.emit(OpUndef)
		return nil
	case ast.TYPEOF:
		if n.A.Kind == ast.IDENT {
			fc.emit(OpHasVar, fc.addString(n.A.Str))
		} else if err := fc.compileExpr(n.A); err != nil {
			return err
		}
		fc.emit(OpTypeof)
		return nil
	case ast.POS:
		if err := fc.compileExpr(n.A); err != nil {
			return err
		}
		fc.emit(OpPos)
		return nil
	case ast.NEG:
		if err := fc.compileExpr(n.A); err != nil {
			return err
		}
		fc.emit(OpNeg)
		return nil
	case ast.BITNOT:
		if err := fc.compileExpr(n.A); err != nil {
			return err
		}
		fc.emit(OpBitNot)
		return nil
	case ast.LOGNOT:
		if err := fc.compileExpr(n.A); err != nil {
			return err
		}
		fc.emit(OpLogNot)
		return nil

	case ast.LOGAND:
		return fc.compileShortCircuit(n, OpJFalse)
	case ast.LOGOR:
		return fc.compileShortCircuit(n, OpJTrue)

	case ast.COND:
		return fc.compileCond(n)

	case ast.ASSIGN:
		return fc.compileAssign(n)
	case ast.ASSIGN_MUL, ast.ASSIGN_DIV, ast.ASSIGN_MOD, ast.ASSIGN_ADD, ast.ASSIGN_SUB,
		ast.ASSIGN_SHL, ast.ASSIGN_SHR, ast.ASSIGN_USHR, ast.ASSIGN_BITAND, ast.ASSIGN_BITXOR, ast.ASSIGN_BITOR:
		return fc.compileCompoundAssign(n)

	case ast.COMMA:
		if err := fc.compileExpr(n.A); err != nil {
			return err
		}
		fc.emit(OpPop)
		return fc.compileExpr(n.B)

	default:
		if op, ok := binaryOp[n.Kind]; ok {
			if err := fc.compileExpr(n.A); err != nil {
				return err
			}
			if err := fc.compileExpr(n.B); err != nil {
				return err
			}
			fc.emit(op)
			return nil
		}
		return errors.New(errors.StageCompile, n.Line, "cannot compile expression of kind %s", n.Kind)
	}
}

// emitNumber pushes a number literal: small non-negative integers use the
// inline INTEGER operand, everything else goes through the number pool.
func (fc *funcCompiler) emitNumber(v float64) {
	if v >= 0 && v <= 65535 && v == math.Trunc(v) {
		fc.emit(OpInteger, uint16(v))
		return
	}
	fc.emit(OpNumber, fc.addNumber(v))
}

// compileShortCircuit implements && (peekOp=OpJFalse) and || (peekOp=
// OpJTrue): peekOp is non-popping, so the short-circuited branch already
// leaves the left operand's value on the stack; the continuing branch
// pops it and evaluates the right operand.
func (fc *funcCompiler) compileShortCircuit(n *ast.Node, peekOp Op) error {
	if err := fc.compileExpr(n.A); err != nil {
		return err
	}
	shortCircuit := fc.emitJump(peekOp)
	fc.emit(OpPop)
	if err := fc.compileExpr(n.B); err != nil {
		return err
	}
	end := fc.emitJump(OpJump)
	fc.patch(shortCircuit, fc.here())
	fc.patch(end, fc.here())
	return nil
}

func (fc *funcCompiler) compileCond(n *ast.Node) error {
	if err := fc.compileExpr(n.A); err != nil {
		return err
	}
	falseJump := fc.emitJump(OpJFalsePop)
	if err := fc.compileExpr(n.B); err != nil {
		return err
	}
	endJump := fc.emitJump(OpJump)
	fc.patch(falseJump, fc.here())
	if err := fc.compileExpr(n.C); err != nil {
		return err
	}
	fc.patch(endJump, fc.here())
	return nil
}

func (fc *funcCompiler) compileCall(n *ast.Node) error {
	callee := n.A
	switch callee.Kind {
	case ast.MEMBER:
		if err := fc.compileExpr(callee.A); err != nil {
			return err
		}
		fc.emit(OpDup)
		fc.emit(OpGetPropS, fc.addString(callee.Str))
		fc.emit(OpRot2) // [obj, method] -> [method, obj]
	case ast.INDEX:
		if err := fc.compileExpr(callee.A); err != nil {
			return err
		}
		if err := fc.compileExpr(callee.B); err != nil {
			return err
		}
		fc.emit(OpDup2)
		fc.emit(OpGetProp)
		fc.emit(OpRot3) // [obj,key,method] -> [method,obj,key]
		fc.emit(OpPop)  // drop key -> [method,obj]
	default:
		if err := fc.compileExpr(callee); err != nil {
			return err
		}
		fc.emit(OpUndef)
	}
	args := ast.List(n.B)
	for _, a := range args {
		if err := fc.compileExpr(a); err != nil {
			return err
		}
	}
	fc.emit(OpCall, uint16(len(args)))
	return nil
}

func (fc *funcCompiler) compileNew(n *ast.Node) error {
	if err := fc.compileExpr(n.A); err != nil {
		return err
	}
	args := ast.List(n.B)
	for _, a := range args {
		if err := fc.compileExpr(a); err != nil {
			return err
		}
	}
	fc.emit(OpNew, uint16(len(args)))
	return nil
}

// compileDelete supports the three deletable target shapes: a bound
// variable, a named property, and a computed property.
func (fc *funcCompiler) compileDelete(target *ast.Node) error {
	switch target.Kind {
	case ast.IDENT:
		fc.emit(OpDelVar, fc.addString(target.Str))
	case ast.MEMBER:
		if err := fc.compileExpr(target.A); err != nil {
			return err
		}
		fc.emit(OpDelPropS, fc.addString(target.Str))
	case ast.INDEX:
		if err := fc.compileExpr(target.A); err != nil {
			return err
		}
		if err := fc.compileExpr(target.B); err != nil {
			return err
		}
		fc.emit(OpDelProp)
	default:
		return errors.New(errors.StageCompile, target.Line, "invalid delete target")
	}
	return nil
}

// compileIncDec compiles PREINC/PREDEC/POSTINC/POSTDEC against an
// assignable target. isPostfix selects the rotate-then-pop dance that
// preserves the pre-operation value as the expression's result.
func (fc *funcCompiler) compileIncDec(target *ast.Node, op Op, isPostfix bool) error {
	switch target.Kind {
	case ast.IDENT:
		nameIdx := fc.addString(target.Str)
		fc.emit(OpGetVar, nameIdx)
		fc.emit(op)
		if isPostfix {
			fc.emit(OpRot2)
		}
		fc.emit(OpSetVar, nameIdx)
		if isPostfix {
			fc.emit(OpPop)
		}
		return nil
	case ast.MEMBER:
		if err := fc.compileExpr(target.A); err != nil {
			return err
		}
		nameIdx := fc.addString(target.Str)
		fc.emit(OpDup)
		fc.emit(OpGetPropS, nameIdx)
		fc.emit(op)
		if isPostfix {
			fc.emit(OpRot3)
		}
		fc.emit(OpSetPropS, nameIdx)
		if isPostfix {
			fc.emit(OpPop)
		}
		return nil
	case ast.INDEX:
		if err := fc.compileExpr(target.A); err != nil {
			return err
		}
		if err := fc.compileExpr(target.B); err != nil {
			return err
		}
		fc.emit(OpDup2)
		fc.emit(OpGetProp)
		fc.emit(op)
		if isPostfix {
			fc.emit(OpRot4)
		}
		fc.emit(OpSetProp)
		if isPostfix {
			fc.emit(OpPop)
		}
		return nil
	default:
		return errors.New(errors.StageCompile, target.Line, "invalid increment/decrement target")
	}
}

func (fc *funcCompiler) compileAssign(n *ast.Node) error {
	lhs, rhs := n.A, n.B
	switch lhs.Kind {
	case ast.IDENT:
		if err := fc.compileExpr(rhs); err != nil {
			return err
		}
		fc.emit(OpSetVar, fc.addString(lhs.Str))
		return nil
	case ast.MEMBER:
		if err := fc.compileExpr(lhs.A); err != nil {
			return err
		}
		if err := fc.compileExpr(rhs); err != nil {
			return err
		}
		fc.emit(OpSetPropS, fc.addString(lhs.Str))
		return nil
	case ast.INDEX:
		if err := fc.compileExpr(lhs.A); err != nil {
			return err
		}
		if err := fc.compileExpr(lhs.B); err != nil {
			return err
		}
		if err := fc.compileExpr(rhs); err != nil {
			return err
		}
		fc.emit(OpSetProp)
		return nil
	default:
		return errors.New(errors.StageCompile, n.Line, "invalid assignment target")
	}
}

// compileCompoundAssign reads the LHS, pushes the RHS, combines, then
// stores -- without re-evaluating the LHS's base sub-expressions (the
// object/key of a member or index target is evaluated exactly once).
func (fc *funcCompiler) compileCompoundAssign(n *ast.Node) error {
	op := compoundOp[n.Kind]
	lhs, rhs := n.A, n.B
	switch lhs.Kind {
	case ast.IDENT:
		nameIdx := fc.addString(lhs.Str)
		fc.emit(OpGetVar, nameIdx)
		if err := fc.compileExpr(rhs); err != nil {
			return err
		}
		fc.emit(op)
		fc.emit(OpSetVar, nameIdx)
		return nil
	case ast.MEMBER:
		if err := fc.compileExpr(lhs.A); err != nil {
			return err
		}
		nameIdx := fc.addString(lhs.Str)
		fc.emit(OpDup)
		fc.emit(OpGetPropS, nameIdx)
		if err := fc.compileExpr(rhs); err != nil {
			return err
		}
		fc.emit(op)
		fc.emit(OpSetPropS, nameIdx)
		return nil
	case ast.INDEX:
		if err := fc.compileExpr(lhs.A); err != nil {
			return err
		}
		if err := fc.compileExpr(lhs.B); err != nil {
			return err
		}
		fc.emit(OpDup2)
		fc.emit(OpGetProp)
		if err := fc.compileExpr(rhs); err != nil {
			return err
		}
		fc.emit(op)
		fc.emit(OpSetProp)
		return nil
	default:
		return errors.New(errors.StageCompile, n.Line, "invalid assignment target")
	}
}
