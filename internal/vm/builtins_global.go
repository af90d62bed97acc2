package vm

import (
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/escript/internal/value"
)

// installGlobalFunctions wires the free-standing global functions:
// parseInt, parseFloat, isNaN, isFinite.
func (rt *Runtime) installGlobalFunctions() {
	rt.InitVar("parseInt", value.Obj(rt.NewBuiltin("parseInt", 2, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		s := strings.TrimSpace(args[0].ToString())
		base := 10
		if args[1].IsNumber() && args[1].ToNumber() != 0 {
			base = int(args[1].ToNumber())
		}
		neg := false
		if strings.HasPrefix(s, "-") {
			neg = true
			s = s[1:]
		} else if strings.HasPrefix(s, "+") {
			s = s[1:]
		}
		if base == 16 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
			s = s[2:]
		} else if (base == 10 || base == 0) && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
			base = 16
			s = s[2:]
		}
		end := 0
		for end < len(s) && isDigitInBase(s[end], base) {
			end++
		}
		if end == 0 {
			return value.Num(math.NaN()), nil
		}
		n, err := strconv.ParseInt(s[:end], base, 64)
		if err != nil {
			return value.Num(math.NaN()), nil
		}
		if neg {
			n = -n
		}
		return value.Num(float64(n)), nil
	})))

	rt.InitVar("parseFloat", value.Obj(rt.NewBuiltin("parseFloat", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		s := strings.TrimSpace(args[0].ToString())
		end := len(s)
		for end > 0 {
			if _, err := strconv.ParseFloat(s[:end], 64); err == nil {
				n, _ := strconv.ParseFloat(s[:end], 64)
				return value.Num(n), nil
			}
			end--
		}
		return value.Num(math.NaN()), nil
	})))

	rt.InitVar("isNaN", value.Obj(rt.NewBuiltin("isNaN", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		return value.Bool(math.IsNaN(args[0].ToNumber())), nil
	})))

	rt.InitVar("isFinite", value.Obj(rt.NewBuiltin("isFinite", 1, func(rt *Runtime, this value.Value, args []value.Value) (value.Value, *ScriptError) {
		n := args[0].ToNumber()
		return value.Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})))
}

func isDigitInBase(c byte, base int) bool {
	var d int
	switch {
	case c >= '0' && c <= '9':
		d = int(c - '0')
	case c >= 'a' && c <= 'z':
		d = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		d = int(c-'A') + 10
	default:
		return false
	}
	return d < base
}
