package lexer

import (
	"testing"

	"github.com/cwbudde/escript/internal/token"
)

func collectKinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	l := New(src)
	var kinds []token.Kind
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("lex error: %v", err)
		}
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			break
		}
	}
	return kinds
}

func TestBasicTokenKinds(t *testing.T) {
	kinds := collectKinds(t, `var x = 1 + 2;`)
	want := []token.Kind{token.VAR, token.IDENT, token.ASSIGN, token.NUMBER, token.ADD, token.NUMBER, token.SEMICOLON, token.EOF}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"123", "123"},
		{"0x1F", "0x1F"},
		{"0b101", "0b101"},
		{"NaN", "NaN"},
		{"Infinity", "Infinity"},
		{"1.5e10", "1.5e10"},
	}
	for _, tt := range tests {
		l := New(tt.src)
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("%s: %v", tt.src, err)
		}
		if tok.Kind != token.NUMBER {
			t.Fatalf("%s: got kind %v, want NUMBER", tt.src, tok.Kind)
		}
		if tok.Literal != tt.want {
			t.Errorf("%s: got literal %q, want %q", tt.src, tok.Literal, tt.want)
		}
	}
}

func TestSkippedNewlineTracksASIContext(t *testing.T) {
	l := New("return\nx")
	_, err := l.Next() // return
	if err != nil {
		t.Fatal(err)
	}
	skipped, err := l.SkippedNewline()
	if err != nil {
		t.Fatal(err)
	}
	if !skipped {
		t.Errorf("expected SkippedNewline true before %q", "x")
	}
}

func TestNotInFlagSuppressesInKeyword(t *testing.T) {
	l := New("x in y")
	prev := l.SetNotIn(true)
	defer l.SetNotIn(prev)

	_, _ = l.Next() // x
	tok, err := l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind == token.IN {
		t.Errorf("expected `in` suppressed while notin is set, got IN token")
	}
}

func TestDottedIdentifierSplitsIntoIdentAndPeriod(t *testing.T) {
	kinds := collectKinds(t, "a.b.c")
	want := []token.Kind{token.IDENT, token.PERIOD, token.IDENT, token.PERIOD, token.IDENT, token.EOF}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestUnterminatedStringIsFatal(t *testing.T) {
	l := New(`"unterminated`)
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected a lex error for an unterminated string")
	}
}

func TestUnterminatedBlockCommentIsFatal(t *testing.T) {
	l := New("/* never closed")
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected a lex error for an unterminated block comment")
	}
}
