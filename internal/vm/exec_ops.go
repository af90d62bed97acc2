package vm

import (
	"math"
	"strconv"

	"github.com/cwbudde/escript/internal/bytecode"
	"github.com/cwbudde/escript/internal/value"
)

// exec1 executes a single instruction against frame f, whose pc has
// already advanced past the opcode unit. It returns a *ScriptError for
// any catchable failure (variable not defined, property access on a
// non-object, call of a non-callable, a THROWn value, or errUnwound
// signaling an ancestor already handled this one) and panics for
// interpreter invariant violations that indicate a host/compiler bug
// rather than a script error.
func (m *exec) exec1(f *frame, op bytecode.Op) *ScriptError {
	switch op {
	case bytecode.OpNop, bytecode.OpDebug:
		// no-op

	case bytecode.OpPop:
		m.pop()
	case bytecode.OpDup:
		m.push(m.top())
	case bytecode.OpDup2:
		n := len(m.stack)
		a, b := m.stack[n-2], m.stack[n-1]
		m.push(a)
		m.push(b)
	case bytecode.OpRot2:
		n := len(m.stack)
		m.stack[n-2], m.stack[n-1] = m.stack[n-1], m.stack[n-2]
	case bytecode.OpRot3:
		n := len(m.stack)
		a, b, c := m.stack[n-3], m.stack[n-2], m.stack[n-1]
		m.stack[n-3], m.stack[n-2], m.stack[n-1] = c, a, b
	case bytecode.OpRot4:
		n := len(m.stack)
		a, b, c, d := m.stack[n-4], m.stack[n-3], m.stack[n-2], m.stack[n-1]
		m.stack[n-4], m.stack[n-3], m.stack[n-2], m.stack[n-1] = d, a, b, c

	case bytecode.OpInteger:
		k := f.fn.Code[f.pc]
		f.pc++
		m.push(value.Num(float64(k)))
	case bytecode.OpNumber:
		idx := f.fn.Code[f.pc]
		f.pc++
		m.push(value.Num(f.fn.Numbers[idx]))
	case bytecode.OpString:
		idx := f.fn.Code[f.pc]
		f.pc++
		m.push(value.Obj(value.NewString(m.rt.StringProto, f.fn.Strings[idx])))
	case bytecode.OpClosure:
		idx := f.fn.Code[f.pc]
		f.pc++
		m.push(value.Obj(m.rt.newClosure(f.fn.Functions[idx], f.env)))

	case bytecode.OpNewArray:
		n := int(f.fn.Code[f.pc])
		f.pc++
		elems := make([]value.Value, n)
		for i := n - 1; i >= 0; i-- {
			elems[i] = m.pop()
		}
		m.push(value.Obj(value.NewArray(m.rt.ArrayProto, elems)))
	case bytecode.OpNewObject:
		m.push(value.Obj(value.NewVanilla(m.rt.ObjectProto)))

	case bytecode.OpUndef:
		m.push(value.Undef)
	case bytecode.OpNull:
		m.push(value.NullValue())
	case bytecode.OpTrue:
		m.push(value.Bool(true))
	case bytecode.OpFalse:
		m.push(value.Bool(false))
	case bytecode.OpThis:
		m.push(f.this)
	case bytecode.OpCurrent:
		m.push(f.calleeVal)

	case bytecode.OpHasVar:
		idx := f.fn.Code[f.pc]
		f.pc++
		name := f.fn.Strings[idx]
		if v, ok := f.env.Get(name); ok {
			m.push(v)
		} else {
			m.push(value.Undef)
		}
	case bytecode.OpGetVar:
		idx := f.fn.Code[f.pc]
		f.pc++
		name := f.fn.Strings[idx]
		v, ok := f.env.Get(name)
		if !ok {
			return m.runtimeFail("%s is not defined", name)
		}
		m.push(v)
	case bytecode.OpSetVar:
		idx := f.fn.Code[f.pc]
		f.pc++
		name := f.fn.Strings[idx]
		f.env.Set(name, m.top())
	case bytecode.OpDelVar:
		idx := f.fn.Code[f.pc]
		f.pc++
		name := f.fn.Strings[idx]
		ok := true
		for cur := f.env; cur != nil; cur = cur.Outer {
			if _, has := cur.Vars.GetOwn(name); has {
				ok = cur.Delete(name)
				break
			}
		}
		m.push(value.Bool(ok))

	case bytecode.OpInitProp:
		val := m.pop()
		key := m.pop()
		objv := m.top()
		objv.AsObject().DefineOwn(key.ToString(), value.UserDescriptor(val))
	case bytecode.OpInitGetter, bytecode.OpInitSetter:
		closure := m.pop()
		key := m.pop()
		objv := m.top()
		obj := objv.AsObject()
		name := key.ToString()
		d, ok := obj.GetOwn(name)
		if !ok {
			d = &value.PropertyDescriptor{Enumerable: true, Configurable: true}
		}
		if op == bytecode.OpInitGetter {
			d.Getter = closure.AsObject()
		} else {
			d.Setter = closure.AsObject()
		}
		obj.DefineOwn(name, d)

	case bytecode.OpGetProp:
		key := m.pop()
		objv := m.pop()
		v, err := m.getProperty(objv, key.ToString())
		if err != nil {
			return err
		}
		m.push(v)
	case bytecode.OpGetPropS:
		idx := f.fn.Code[f.pc]
		f.pc++
		objv := m.pop()
		v, err := m.getProperty(objv, f.fn.Strings[idx])
		if err != nil {
			return err
		}
		m.push(v)
	case bytecode.OpSetProp:
		val := m.pop()
		key := m.pop()
		objv := m.pop()
		if err := m.setProperty(objv, key.ToString(), val); err != nil {
			return err
		}
		m.push(val)
	case bytecode.OpSetPropS:
		idx := f.fn.Code[f.pc]
		f.pc++
		val := m.pop()
		objv := m.pop()
		if err := m.setProperty(objv, f.fn.Strings[idx], val); err != nil {
			return err
		}
		m.push(val)
	case bytecode.OpDelProp:
		key := m.pop()
		objv := m.pop()
		m.push(value.Bool(m.deleteProperty(objv, key.ToString())))
	case bytecode.OpDelPropS:
		idx := f.fn.Code[f.pc]
		f.pc++
		objv := m.pop()
		m.push(value.Bool(m.deleteProperty(objv, f.fn.Strings[idx])))
	case bytecode.OpInitPropS:
		idx := f.fn.Code[f.pc]
		f.pc++
		val := m.pop()
		objv := m.top()
		objv.AsObject().DefineOwn(f.fn.Strings[idx], value.UserDescriptor(val))

	case bytecode.OpIterator:
		objv := m.pop()
		if !objv.IsObject() {
			return m.runtimeFail("cannot enumerate properties of %s", objv.TypeOf())
		}
		m.push(value.Obj(value.NewIterator(objv.AsObject().EnumerableKeys())))
	case bytecode.OpNextIter:
		target := read2(f)
		iterObj := m.top().AsObject()
		if iterObj.IterCursor < len(iterObj.IterKeys) {
			key := iterObj.IterKeys[iterObj.IterCursor]
			iterObj.IterCursor++
			m.push(value.Obj(value.NewString(m.rt.StringProto, key)))
		} else {
			m.pop()
			f.pc = target
		}

	case bytecode.OpCall:
		n := int(f.fn.Code[f.pc])
		f.pc++
		args := make([]value.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = m.pop()
		}
		this := m.pop()
		calleeVal := m.pop()
		result, err := m.callValue(calleeVal, this, args)
		if err != nil {
			return err
		}
		m.push(result)
	case bytecode.OpNew:
		n := int(f.fn.Code[f.pc])
		f.pc++
		args := make([]value.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = m.pop()
		}
		calleeVal := m.pop()
		result, err := m.construct(calleeVal, args)
		if err != nil {
			return err
		}
		m.push(result)

	case bytecode.OpTypeof:
		v := m.pop()
		m.push(value.Obj(value.NewString(m.rt.StringProto, v.TypeOf())))
	case bytecode.OpPos:
		m.push(value.Num(m.pop().ToNumber()))
	case bytecode.OpNeg:
		m.push(value.Num(-m.pop().ToNumber()))
	case bytecode.OpBitNot:
		m.push(value.Num(float64(^toInt32(m.pop().ToNumber()))))
	case bytecode.OpLogNot:
		m.push(value.Bool(!m.pop().ToBoolean()))
	case bytecode.OpInc:
		m.push(value.Num(m.pop().ToNumber() + 1))
	case bytecode.OpDec:
		m.push(value.Num(m.pop().ToNumber() - 1))
	case bytecode.OpPostInc:
		n := m.pop().ToNumber()
		m.push(value.Num(n + 1))
		m.push(value.Num(n))
	case bytecode.OpPostDec:
		n := m.pop().ToNumber()
		m.push(value.Num(n - 1))
		m.push(value.Num(n))

	case bytecode.OpMul:
		b, a := m.pop().ToNumber(), m.pop().ToNumber()
		m.push(value.Num(a * b))
	case bytecode.OpDiv:
		b, a := m.pop().ToNumber(), m.pop().ToNumber()
		m.push(value.Num(a / b))
	case bytecode.OpMod:
		b, a := m.pop().ToNumber(), m.pop().ToNumber()
		m.push(value.Num(math.Mod(a, b)))
	case bytecode.OpAdd:
		b, a := m.pop(), m.pop()
		m.push(m.add(a, b))
	case bytecode.OpSub:
		b, a := m.pop().ToNumber(), m.pop().ToNumber()
		m.push(value.Num(a - b))
	case bytecode.OpShl:
		b, a := m.pop().ToNumber(), m.pop().ToNumber()
		m.push(value.Num(float64(toInt32(a) << (toUint32(b) & 31))))
	case bytecode.OpShr:
		b, a := m.pop().ToNumber(), m.pop().ToNumber()
		m.push(value.Num(float64(toInt32(a) >> (toUint32(b) & 31))))
	case bytecode.OpUShr:
		b, a := m.pop().ToNumber(), m.pop().ToNumber()
		m.push(value.Num(float64(toUint32(a) >> (toUint32(b) & 31))))

	case bytecode.OpLt:
		b, a := m.pop(), m.pop()
		m.push(value.Bool(value.Less(a, b)))
	case bytecode.OpGt:
		b, a := m.pop(), m.pop()
		m.push(value.Bool(value.Greater(a, b)))
	case bytecode.OpLe:
		b, a := m.pop(), m.pop()
		m.push(value.Bool(value.LessOrEqual(a, b)))
	case bytecode.OpGe:
		b, a := m.pop(), m.pop()
		m.push(value.Bool(value.GreaterOrEqual(a, b)))
	case bytecode.OpEq:
		b, a := m.pop(), m.pop()
		m.push(value.Bool(value.LooseEquals(a, b)))
	case bytecode.OpNe:
		b, a := m.pop(), m.pop()
		m.push(value.Bool(!value.LooseEquals(a, b)))
	case bytecode.OpStrictEq:
		b, a := m.pop(), m.pop()
		m.push(value.Bool(value.StrictEquals(a, b)))
	case bytecode.OpStrictNe:
		b, a := m.pop(), m.pop()
		m.push(value.Bool(!value.StrictEquals(a, b)))
	case bytecode.OpJCase:
		target := read2(f)
		b := m.pop()
		a := m.top()
		if value.StrictEquals(a, b) {
			m.pop()
			f.pc = target
		}

	case bytecode.OpBitAnd:
		b, a := m.pop().ToNumber(), m.pop().ToNumber()
		m.push(value.Num(float64(toInt32(a) & toInt32(b))))
	case bytecode.OpBitXor:
		b, a := m.pop().ToNumber(), m.pop().ToNumber()
		m.push(value.Num(float64(toInt32(a) ^ toInt32(b))))
	case bytecode.OpBitOr:
		b, a := m.pop().ToNumber(), m.pop().ToNumber()
		m.push(value.Num(float64(toInt32(a) | toInt32(b))))

	case bytecode.OpIn:
		objv := m.pop()
		key := m.pop()
		if !objv.IsObject() {
			return m.runtimeFail("cannot use 'in' operator on %s", objv.TypeOf())
		}
		name := key.ToString()
		found := false
		if idx, ok := arrayIndex(name); ok && objv.AsObject().Kind == value.KindArray {
			found = idx >= 0 && idx < len(objv.AsObject().Elements)
		} else {
			_, owner := objv.AsObject().Lookup(name)
			found = owner != nil
		}
		m.push(value.Bool(found))
	case bytecode.OpInstanceof:
		ctorVal := m.pop()
		v := m.pop()
		if !ctorVal.IsObject() {
			return m.runtimeFail("right-hand side of instanceof is not callable")
		}
		protoDesc, _ := ctorVal.AsObject().Lookup("prototype")
		result := false
		if protoDesc != nil && protoDesc.Value.IsObject() && v.IsObject() {
			target := protoDesc.Value.AsObject()
			for cur := v.AsObject().Proto; cur != nil; cur = cur.Proto {
				if cur == target {
					result = true
					break
				}
			}
		}
		m.push(value.Bool(result))

	case bytecode.OpThrow:
		v := m.pop()
		return &ScriptError{Value: v}

	case bytecode.OpTry:
		target := read2(f)
		m.catch = append(m.catch, catchScope{
			handlerPC: target, stackDepth: len(m.stack), frameIdx: len(m.frames) - 1, env: f.env,
		})
	case bytecode.OpEndTry:
		m.catch = m.catch[:len(m.catch)-1]
	case bytecode.OpCatch:
		idx := f.fn.Code[f.pc]
		f.pc++
		name := f.fn.Strings[idx]
		exc := m.pop()
		f.env = value.NewEnvironment(f.env)
		f.env.Declare(name, exc)
	case bytecode.OpEndCatch:
		f.env = f.env.Outer

	case bytecode.OpJump:
		f.pc = read2(f)
	case bytecode.OpJTrue:
		target := read2(f)
		if m.top().ToBoolean() {
			f.pc = target
		}
	case bytecode.OpJFalse:
		target := read2(f)
		if !m.top().ToBoolean() {
			f.pc = target
		}
	case bytecode.OpJTruePop:
		target := read2(f)
		if m.pop().ToBoolean() {
			f.pc = target
		}
	case bytecode.OpJFalsePop:
		target := read2(f)
		if !m.pop().ToBoolean() {
			f.pc = target
		}

	case bytecode.OpReturn:
		v := m.pop()
		if f.isCtor && !v.IsObject() {
			v = f.ctorThis
		}
		m.lastReturn = v
		m.frames = m.frames[:len(m.frames)-1]

	default:
		panic("escript: unhandled opcode " + op.String())
	}
	return nil
}

func (m *exec) add(a, b value.Value) value.Value {
	aStr := a.IsObject() && a.AsObject().Kind == value.KindString
	bStr := b.IsObject() && b.AsObject().Kind == value.KindString
	if aStr || bStr {
		return value.Obj(value.NewString(m.rt.StringProto, a.ToString()+b.ToString()))
	}
	return value.Num(a.ToNumber() + b.ToNumber())
}

func (m *exec) getProperty(objv value.Value, name string) (value.Value, *ScriptError) {
	if objv.IsUndefined() || objv.IsNull() {
		return value.Undef, m.runtimeFail("cannot read property %q of %s", name, objv.TypeOf())
	}
	if !objv.IsObject() {
		return value.Undef, nil
	}
	obj := objv.AsObject()
	if idx, ok := arrayIndex(name); ok {
		switch obj.Kind {
		case value.KindArray:
			if idx >= 0 && idx < len(obj.Elements) {
				return obj.Elements[idx], nil
			}
			return value.Undef, nil
		case value.KindString:
			runes := []rune(obj.Str)
			if idx >= 0 && idx < len(runes) {
				return value.Obj(value.NewString(m.rt.StringProto, string(runes[idx]))), nil
			}
			return value.Undef, nil
		}
	}
	if name == "length" {
		switch obj.Kind {
		case value.KindArray:
			return value.Num(float64(len(obj.Elements))), nil
		case value.KindString:
			return value.Num(float64(len([]rune(obj.Str)))), nil
		}
	}
	d, _ := obj.Lookup(name)
	if d == nil {
		return value.Undef, nil
	}
	if d.Getter != nil {
		return m.callValue(value.Obj(d.Getter), objv, nil)
	}
	return d.Value, nil
}

func (m *exec) setProperty(objv value.Value, name string, val value.Value) *ScriptError {
	if !objv.IsObject() {
		return m.runtimeFail("cannot set property %q of %s", name, objv.TypeOf())
	}
	obj := objv.AsObject()
	if idx, ok := arrayIndex(name); ok && obj.Kind == value.KindArray {
		for len(obj.Elements) <= idx {
			obj.Elements = append(obj.Elements, value.Undef)
		}
		obj.Elements[idx] = val
		return nil
	}
	if d, owner := obj.Lookup(name); d != nil {
		if d.Setter != nil {
			_, err := m.callValue(value.Obj(d.Setter), objv, []value.Value{val})
			return err
		}
		if owner == obj {
			if d.Writable {
				d.Value = val
			}
			return nil
		}
	}
	obj.DefineOwn(name, value.UserDescriptor(val))
	return nil
}

func (m *exec) deleteProperty(objv value.Value, name string) bool {
	if !objv.IsObject() {
		return true
	}
	obj := objv.AsObject()
	if idx, ok := arrayIndex(name); ok && obj.Kind == value.KindArray {
		if idx >= 0 && idx < len(obj.Elements) {
			obj.Elements[idx] = value.Undef
		}
		return true
	}
	return obj.DeleteOwn(name)
}

// arrayIndex reports whether name is the canonical decimal rendering of a
// non-negative integer (no leading zeros, no sign), the only strings that
// address array elements / string characters via the fast path.
func arrayIndex(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	if name == "0" {
		return 0, true
	}
	if name[0] == '0' || name[0] < '1' || name[0] > '9' {
		return 0, false
	}
	for i := 1; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return n, true
}

// padArgs pads args with undefined or truncates it to exactly argc
// entries, matching script-function call discipline -- except argc < 0,
// a variadic builtin's declared arity, which passes args through
// unchanged (console.log and similar).
func padArgs(args []value.Value, argc int) []value.Value {
	if argc < 0 {
		return args
	}
	out := make([]value.Value, argc)
	for i := 0; i < argc; i++ {
		if i < len(args) {
			out[i] = args[i]
		} else {
			out[i] = value.Undef
		}
	}
	return out
}

func toInt32(n float64) int32 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	u := uint32(int64(math.Trunc(n)))
	return int32(u)
}

func toUint32(n float64) uint32 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return uint32(int64(math.Trunc(n)))
}
