package vm

import "testing"

// TestFinallyRunsOnBreakAcrossTry pins the maintainer-reported regression:
// a break crossing a try/finally must still inline the finally block, not
// just the fall-through path.
func TestFinallyRunsOnBreakAcrossTry(t *testing.T) {
	_, out := evalScriptOutput(t, `
		for (var i = 0; i < 3; i++) {
			try {
				if (i == 1) break;
			} finally {
				console.log(i);
			}
		}
	`)
	if out != "0\n1\n" {
		t.Errorf("got %q, want %q", out, "0\n1\n")
	}
}

// TestFinallyRunsOnContinueAcrossTryCatch covers the three-part
// try/catch/finally shape, where the finally lives on the outer layer's
// scope rather than the inner try/catch's.
func TestFinallyRunsOnContinueAcrossTryCatch(t *testing.T) {
	_, out := evalScriptOutput(t, `
		for (var i = 0; i < 3; i++) {
			try {
				if (i == 1) continue;
				throw i;
			} catch (e) {
			} finally {
				console.log(i);
			}
		}
	`)
	if out != "0\n1\n2\n" {
		t.Errorf("got %q, want %q", out, "0\n1\n2\n")
	}
}

// TestFinallyRunsOnReturnAcrossTry covers return unwinding through a
// try/finally inside a function body.
func TestFinallyRunsOnReturnAcrossTry(t *testing.T) {
	got := evalScript(t, `
		function f() {
			try {
				return 1;
			} finally {
				console.log("cleanup");
			}
		}
		f();
	`)
	if got.ToString() != "1" {
		t.Errorf("got %q, want %q", got.ToString(), "1")
	}
}

// TestVariadicBuiltinsForwardAllArguments pins the five builtins the
// maintainer flagged for truncating extra arguments via a fixed argc.
func TestVariadicBuiltinsForwardAllArguments(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"Array.prototype.push", `var a = []; a.push(1,2,3); a.toString();`, "1, 2, 3"},
		{"Array.prototype.unshift", `var a = [3]; a.unshift(1,2); a.toString();`, "1, 2, 3"},
		{"Array.prototype.concat", `[1].concat(2,3).toString();`, "1, 2, 3"},
		{"String.prototype.concat", `"x".concat("y","z");`, "xyz"},
		{
			"Function.prototype.call",
			`
				function sum(a,b){ return a+b; }
				sum.call(null, 2, 3);
			`,
			"5",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evalScript(t, tt.src)
			if got.ToString() != tt.want {
				t.Errorf("%s\n got: %q\nwant: %q", tt.src, got.ToString(), tt.want)
			}
		})
	}
}

// TestFunctionCallWithNoArguments guards the argc=-1 passthrough against
// the case padArgs no longer pads for: calling .call() with nothing at all.
func TestFunctionCallWithNoArguments(t *testing.T) {
	got := evalScript(t, `
		function f(){ return typeof this; }
		f.call();
	`)
	if got.ToString() != "undefined" {
		t.Errorf("got %q, want %q", got.ToString(), "undefined")
	}
}

// TestObjectKeysExcludesNonEnumerable pins Object.keys to the same
// enumerable-only semantics as EnumerableKeys/for-in, rather than the raw
// own-key list OwnKeys returns: a prototype object's builtin-installed
// methods are own properties but must not surface in Object.keys.
func TestObjectKeysExcludesNonEnumerable(t *testing.T) {
	got := evalScript(t, `Object.keys(Array.prototype).toString();`)
	if got.ToString() != "" {
		t.Errorf("got %q, want no enumerable own keys on Array.prototype", got.ToString())
	}
}

// TestObjectKeysIncludesUserProperties ensures the enumerable filter in
// TestObjectKeysExcludesNonEnumerable doesn't just return an empty list
// for every object.
func TestObjectKeysIncludesUserProperties(t *testing.T) {
	got := evalScript(t, `Object.keys({a:1, b:2}).toString();`)
	if got.ToString() != "a, b" {
		t.Errorf("got %q, want %q", got.ToString(), "a, b")
	}
}
