package vm

import "testing"

// TestConcreteScenarios runs the six worked end-to-end scenarios from the
// spec's concrete scenarios list verbatim, the way the teacher's
// interp_test.go pins individual language-feature behaviors one at a time.
func TestConcreteScenarios(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "for-loop accumulator",
			src:  `var s = 0; for (var i = 0; i < 10; i++) s += i; s`,
			want: "45",
		},
		{
			name: "recursive fibonacci",
			src:  `function f(n){ if (n<2) return n; return f(n-1)+f(n-2); } f(10)`,
			want: "55",
		},
		{
			name: "throw and catch an Error object",
			src:  `try { throw new Error("boom"); } catch(e) { e.message(); }`,
			want: "boom",
		},
		{
			name: "for-in insertion order",
			src:  `var o = {a:1, b:2}; var keys = []; for (var k in o) keys.push(k); keys.toString()`,
			want: "a, b",
		},
		{
			name: "finally runs on the catch path and wins over the throw",
			src:  `var x = 0; try { try { throw 0; } finally { x = 1; } } catch(e) {} x`,
			want: "1",
		},
		{
			name: "IIFE building an array",
			src:  `(function(){ var a = []; for (var i = 0; i < 3; i++) a.push(i); return a.toString(); })()`,
			want: "0, 1, 2",
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

// TestBoundaryBehaviors covers the spec's boundary-behavior list in §8.
func TestBoundaryBehaviors(t *testing.T) {
	t.Run("ASI terminates return before a newline-separated expression", func(t *testing.T) {
		got := evalScript(t, "function f(){ return\nx; } f()")
		if !got.IsUndefined() {
			t.Errorf("got %v, want undefined", got)
		}
	})

	t.Run("notin: in inside a plain for header is not relational", func(t *testing.T) {
		got := evalScript(t, `
			var obj = {k: 1};
			var seen = [];
			for (var k in obj) seen.push(k);
			seen.toString();
		`)
		if got.ToString() != "k" {
			t.Errorf("got %q, want %q", got.ToString(), "k")
		}
	})

	t.Run("break across a for-in leaves the operand stack balanced", func(t *testing.T) {
		got := evalScript(t, `
			var o = {a:1, b:2, c:3};
			var n = 0;
			for (var k in o) { n++; if (n == 2) break; }
			n;
		`)
		if got.ToString() != "2" {
			t.Errorf("got %q, want %q", got.ToString(), "2")
		}
	})

	t.Run("return inside finally supersedes a pending return value", func(t *testing.T) {
		got := evalScript(t, `
			function f() {
				try {
					return 1;
				} finally {
					return 2;
				}
			}
			f();
		`)
		if got.ToString() != "2" {
			t.Errorf("got %q, want %q", got.ToString(), "2")
		}
	})

	t.Run("new F() where F returns a primitive returns the constructed object", func(t *testing.T) {
		got := evalScript(t, `
			function F() { this.tag = "ctor"; return 42; }
			var o = new F();
			typeof o == "object" && o.tag;
		`)
		if got.ToString() != "ctor" {
			t.Errorf("got %q, want %q", got.ToString(), "ctor")
		}
	})

	t.Run("new F() where F returns an object returns that object", func(t *testing.T) {
		got := evalScript(t, `
			function F() { this.tag = "ctor"; return {tag: "other"}; }
			var o = new F();
			o.tag;
		`)
		if got.ToString() != "other" {
			t.Errorf("got %q, want %q", got.ToString(), "other")
		}
	})
}

// TestNumberEquality exercises the NaN strict-equality law from §8.
func TestNumberEquality(t *testing.T) {
	got := evalScript(t, `var n = 0/0; n === n;`)
	if got.ToString() != "false" {
		t.Errorf("NaN === NaN should be false, got %q", got.ToString())
	}
	got = evalScript(t, `5 === 5;`)
	if got.ToString() != "true" {
		t.Errorf("5 === 5 should be true, got %q", got.ToString())
	}
}

// TestIteratorSnapshot exercises the "no live observation" iterator law.
func TestIteratorSnapshot(t *testing.T) {
	got := evalScript(t, `
		var o = {a: 1};
		var seen = [];
		for (var k in o) {
			o.b = 2;
			seen.push(k);
		}
		seen.toString();
	`)
	if got.ToString() != "a" {
		t.Errorf("iterator observed a key added after snapshot: got %q", got.ToString())
	}
}

// TestDeleteConfigurable exercises the delete/non-inherited-key law.
func TestDeleteConfigurable(t *testing.T) {
	got := evalScript(t, `
		var o = {a: 1};
		delete o.a;
		typeof o.a;
	`)
	if got.ToString() != "undefined" {
		t.Errorf("got %q, want undefined", got.ToString())
	}
}
