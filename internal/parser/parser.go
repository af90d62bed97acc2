// Package parser implements the escript recursive-descent parser. It
// consumes a lexer.Lexer one token of lookahead at a time and builds the
// uniform ast.Node tree described in package ast.
//
// Operator precedence is encoded as a cascade of methods from the lowest
// (comma expression) down to the highest (primary/member/call/new); within
// the member/call tier, postfix member access, indexing, and calls are
// folded in a loop to produce left-associative trees. Assignment is
// right-associative and compiled as its own production above conditional.
//
// There is no error recovery: the first syntax error aborts the parse, as
// the source language's own reference implementation does.
package parser

import (
	"fmt"

	"github.com/cwbudde/escript/internal/ast"
	"github.com/cwbudde/escript/internal/errors"
	"github.com/cwbudde/escript/internal/lexer"
	"github.com/cwbudde/escript/internal/token"
)

// Parser builds an AST from a token stream.
type Parser struct {
	lex *lexer.Lexer
}

// New creates a Parser reading from lex.
func New(lex *lexer.Lexer) *Parser {
	return &Parser{lex: lex}
}

// ParseProgram parses a whole source file as a sequence of statements and
// returns the statement list. The caller (the compiler) wraps this in a
// script VMFunction.
func (p *Parser) ParseProgram() (*ast.Node, error) {
	var stmts []*ast.Node
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, p.lexErr(err)
		}
		if tok.Kind == token.EOF {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return ast.NewList(1, stmts...), nil
}

// --- token plumbing --------------------------------------------------

func (p *Parser) peek() (token.Token, error)      { return p.lex.Peek() }
func (p *Parser) next() (token.Token, error)       { return p.lex.Next() }
func (p *Parser) peekN(n int) (token.Token, error) { return p.lex.PeekN(n) }

func (p *Parser) lexErr(err error) error {
	if le, ok := err.(*lexer.Error); ok {
		return errors.New(errors.StageLex, le.Line, "%s", le.Message)
	}
	return errors.New(errors.StageLex, 0, "%s", err.Error())
}

func (p *Parser) fail(line int, format string, args ...any) error {
	return errors.New(errors.StageParse, line, format, args...)
}

// expect consumes the next token, failing if it is not of kind k.
func (p *Parser) expect(k token.Kind) (token.Token, error) {
	tok, err := p.peek()
	if err != nil {
		return token.Token{}, p.lexErr(err)
	}
	if tok.Kind != k {
		return token.Token{}, p.fail(tok.Line, "expected %s, found %s", k, describeToken(tok))
	}
	return p.next()
}

func describeToken(t token.Token) string {
	if t.Kind == token.IDENT || t.Kind == token.STRING || t.Kind == token.NUMBER {
		return fmt.Sprintf("%s %q", t.Kind, t.Literal)
	}
	return t.Kind.String()
}

// at reports whether the lookahead token has kind k, without consuming it.
func (p *Parser) at(k token.Kind) (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, p.lexErr(err)
	}
	return tok.Kind == k, nil
}

// --- automatic semicolon insertion -------------------------------------

// semicolon consumes a trailing ';' or fires ASI: the statement terminator
// may be omitted if the next token is '}', end-of-input, or was preceded by
// a skipped newline.
func (p *Parser) semicolon() error {
	tok, err := p.peek()
	if err != nil {
		return p.lexErr(err)
	}
	if tok.Kind == token.SEMICOLON {
		_, _ = p.next()
		return nil
	}
	if tok.Kind == token.RBRACE || tok.Kind == token.EOF {
		return nil
	}
	skipped, err := p.lex.SkippedNewline()
	if err != nil {
		return p.lexErr(err)
	}
	if skipped {
		return nil
	}
	return p.fail(tok.Line, "expected ';', found %s", describeToken(tok))
}

// --- statements ----------------------------------------------------------

func (p *Parser) parseStatement() (*ast.Node, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, p.lexErr(err)
	}

	switch tok.Kind {
	case token.LBRACE:
		return p.parseBlock()
	case token.VAR:
		return p.parseVarStatement()
	case token.SEMICOLON:
		_, _ = p.next()
		return &ast.Node{Kind: ast.EMPTY, Line: tok.Line}, nil
	case token.IF:
		return p.parseIf()
	case token.DO:
		return p.parseDoWhile()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.CONTINUE:
		return p.parseContinueBreak(ast.CONTINUE)
	case token.BREAK:
		return p.parseContinueBreak(ast.BREAK)
	case token.RETURN:
		return p.parseReturn()
	case token.SWITCH:
		return p.parseSwitch()
	case token.THROW:
		return p.parseThrow()
	case token.TRY:
		return p.parseTry()
	case token.FUNCTION:
		return p.parseFunctionStatement()
	case token.DEBUGGER:
		_, _ = p.next()
		if err := p.semicolon(); err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.DEBUGSTMT, Line: tok.Line}, nil
	case token.IDENT:
		// Disambiguate "label:" from an expression statement starting with
		// an identifier: only a bare IDENT immediately followed by ':' is a
		// label (this also keeps `a ? b : c` and `a.b` from being
		// misparsed, since those productions never see COLON here).
		next, err := p.peekN(1)
		if err != nil {
			return nil, p.lexErr(err)
		}
		if next.Kind == token.COLON {
			return p.parseLabel()
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseBlock() (*ast.Node, error) {
	tok, err := p.expect(token.LBRACE)
	if err != nil {
		return nil, err
	}
	var stmts []*ast.Node
	for {
		atRBrace, err := p.at(token.RBRACE)
		if err != nil {
			return nil, err
		}
		if atRBrace {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.BLOCK, Line: tok.Line, A: ast.NewList(tok.Line, stmts...)}, nil
}

func (p *Parser) parseExpressionStatement() (*ast.Node, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.semicolon(); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseLabel() (*ast.Node, error) {
	nameTok, _ := p.next() // IDENT, already confirmed by caller
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.LABEL, Line: nameTok.Line, Str: nameTok.Literal, A: stmt}, nil
}

func (p *Parser) parseVarDeclList() (*ast.Node, int, error) {
	var decls []*ast.Node
	line := 0
	for {
		nameTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, 0, err
		}
		if line == 0 {
			line = nameTok.Line
		}
		var init *ast.Node
		hasAssign, err := p.at(token.ASSIGN)
		if err != nil {
			return nil, 0, err
		}
		if hasAssign {
			_, _ = p.next()
			init, err = p.parseAssignExpr()
			if err != nil {
				return nil, 0, err
			}
		}
		decls = append(decls, &ast.Node{Kind: ast.VARDECL, Line: nameTok.Line, Str: nameTok.Literal, A: init})

		hasComma, err := p.at(token.COMMA)
		if err != nil {
			return nil, 0, err
		}
		if !hasComma {
			break
		}
		_, _ = p.next()
	}
	return ast.NewList(line, decls...), line, nil
}

func (p *Parser) parseVarStatement() (*ast.Node, error) {
	varTok, _ := p.expect(token.VAR)
	decls, _, err := p.parseVarDeclList()
	if err != nil {
		return nil, err
	}
	if err := p.semicolon(); err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.VAR, Line: varTok.Line, A: decls}, nil
}

func (p *Parser) parseIf() (*ast.Node, error) {
	ifTok, _ := p.expect(token.IF)
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	var alt *ast.Node
	hasElse, err := p.at(token.ELSE)
	if err != nil {
		return nil, err
	}
	if hasElse {
		_, _ = p.next()
		alt, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return &ast.Node{Kind: ast.IF, Line: ifTok.Line, A: test, B: then, C: alt}, nil
}

func (p *Parser) parseDoWhile() (*ast.Node, error) {
	doTok, _ := p.expect(token.DO)
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.WHILE); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	_ = p.semicolon() // ASI is lenient here; semicolon() consumes a trailing ';' if present
	return &ast.Node{Kind: ast.DO, Line: doTok.Line, A: body, B: test}, nil
}

func (p *Parser) parseWhile() (*ast.Node, error) {
	whileTok, _ := p.expect(token.WHILE)
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.WHILE, Line: whileTok.Line, A: test, B: body}, nil
}

// parseFor implements the classic three productions: C-style for, for-var,
// and for-in (with or without var). The notin flag is set while scanning
// the first header clause of a plain for so that `x in y` there is read as
// a for-in binding, not a relational expression.
func (p *Parser) parseFor() (*ast.Node, error) {
	forTok, _ := p.expect(token.FOR)
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	hasVar, err := p.at(token.VAR)
	if err != nil {
		return nil, err
	}

	if hasVar {
		_, _ = p.next()
		nameTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		isIn, err := p.at(token.IN)
		if err != nil {
			return nil, err
		}
		if isIn {
			_, _ = p.next()
			obj, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			body, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			return &ast.Node{Kind: ast.FORINVAR, Line: forTok.Line, Str: nameTok.Literal, A: obj, B: body}, nil
		}

		// Plain var-declaration for-header: rewind manually by building the
		// first decl ourselves since we already consumed the name.
		var init *ast.Node
		hasAssign, err := p.at(token.ASSIGN)
		if err != nil {
			return nil, err
		}
		if hasAssign {
			_, _ = p.next()
			init, err = p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
		}
		decls := []*ast.Node{{Kind: ast.VARDECL, Line: nameTok.Line, Str: nameTok.Literal, A: init}}
		hasComma, err := p.at(token.COMMA)
		if err != nil {
			return nil, err
		}
		if hasComma {
			_, _ = p.next()
			rest, _, err := p.parseVarDeclList()
			if err != nil {
				return nil, err
			}
			decls = append(decls, ast.List(rest)...)
		}
		declList := ast.NewList(nameTok.Line, decls...)
		return p.finishForHeader(forTok.Line, declList, true)
	}

	prevNotin := p.lex.SetNotIn(true)
	initIsEmpty, err := p.at(token.SEMICOLON)
	if err != nil {
		p.lex.SetNotIn(prevNotin)
		return nil, err
	}
	var initExpr *ast.Node
	if !initIsEmpty {
		initExpr, err = p.parseExpression()
		if err != nil {
			p.lex.SetNotIn(prevNotin)
			return nil, err
		}
	}
	isIn, err := p.at(token.IN)
	p.lex.SetNotIn(prevNotin)
	if err != nil {
		return nil, err
	}
	if isIn && !initIsEmpty {
		_, _ = p.next()
		obj, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.FORIN, Line: forTok.Line, A: initExpr, B: obj, C: body}, nil
	}

	return p.finishForHeader(forTok.Line, initExpr, false)
}

// finishForHeader parses the ';' test ';' step ')' body tail shared by the
// C-style for and for-var productions. init may be nil (empty init clause).
func (p *Parser) finishForHeader(line int, init *ast.Node, isVarForm bool) (*ast.Node, error) {
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	var test *ast.Node
	atSemi, err := p.at(token.SEMICOLON)
	if err != nil {
		return nil, err
	}
	if !atSemi {
		test, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	var step *ast.Node
	atRParen, err := p.at(token.RPAREN)
	if err != nil {
		return nil, err
	}
	if !atRParen {
		step, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if isVarForm {
		return &ast.Node{Kind: ast.FORVAR, Line: line, A: init, B: test, C: step, D: body}, nil
	}
	return &ast.Node{Kind: ast.FOR, Line: line, A: init, B: test, C: step, D: body}, nil
}

func (p *Parser) parseContinueBreak(kind ast.Kind) (*ast.Node, error) {
	tok, _ := p.next()
	label := ""
	skipped, err := p.lex.SkippedNewline()
	if err != nil {
		return nil, p.lexErr(err)
	}
	if !skipped {
		atIdent, err := p.at(token.IDENT)
		if err != nil {
			return nil, err
		}
		if atIdent {
			idTok, _ := p.next()
			label = idTok.Literal
		}
	}
	if err := p.semicolon(); err != nil {
		return nil, err
	}
	return &ast.Node{Kind: kind, Line: tok.Line, Str: label}, nil
}

func (p *Parser) parseReturn() (*ast.Node, error) {
	tok, _ := p.next()
	var value *ast.Node
	skipped, err := p.lex.SkippedNewline()
	if err != nil {
		return nil, p.lexErr(err)
	}
	atTerm, err := p.atReturnTerminator()
	if err != nil {
		return nil, err
	}
	if !skipped && !atTerm {
		value, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.semicolon(); err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.RETURN, Line: tok.Line, A: value}, nil
}

func (p *Parser) atReturnTerminator() (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, p.lexErr(err)
	}
	return tok.Kind == token.SEMICOLON || tok.Kind == token.RBRACE || tok.Kind == token.EOF, nil
}

func (p *Parser) parseSwitch() (*ast.Node, error) {
	tok, _ := p.expect(token.SWITCH)
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	disc, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}

	var clauses []*ast.Node
	for {
		atRBrace, err := p.at(token.RBRACE)
		if err != nil {
			return nil, err
		}
		if atRBrace {
			break
		}
		atCase, err := p.at(token.CASE)
		if err != nil {
			return nil, err
		}
		if atCase {
			caseTok, _ := p.next()
			test, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			stmts, err := p.parseCaseBody()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, &ast.Node{Kind: ast.CASE, Line: caseTok.Line, A: test, B: stmts})
			continue
		}
		defTok, err := p.expect(token.DEFAULT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		stmts, err := p.parseCaseBody()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, &ast.Node{Kind: ast.DEFAULT, Line: defTok.Line, B: stmts})
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.SWITCH, Line: tok.Line, A: disc, B: ast.NewList(tok.Line, clauses...)}, nil
}

func (p *Parser) parseCaseBody() (*ast.Node, error) {
	var stmts []*ast.Node
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, p.lexErr(err)
		}
		if tok.Kind == token.CASE || tok.Kind == token.DEFAULT || tok.Kind == token.RBRACE {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return ast.NewList(0, stmts...), nil
}

func (p *Parser) parseThrow() (*ast.Node, error) {
	tok, _ := p.next()
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.semicolon(); err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.THROWSTMT, Line: tok.Line, A: value}, nil
}

func (p *Parser) parseTry() (*ast.Node, error) {
	tok, _ := p.expect(token.TRY)
	tryBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	var catchVar string
	var catchBlock *ast.Node
	hasCatch, err := p.at(token.CATCH)
	if err != nil {
		return nil, err
	}
	if hasCatch {
		_, _ = p.next()
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		nameTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		catchVar = nameTok.Literal
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		catchBlock, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}

	var finallyBlock *ast.Node
	hasFinally, err := p.at(token.FINALLY)
	if err != nil {
		return nil, err
	}
	if hasFinally {
		_, _ = p.next()
		finallyBlock, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}

	if !hasCatch && !hasFinally {
		return nil, p.fail(tok.Line, "missing catch or finally after try")
	}

	return &ast.Node{Kind: ast.TRY, Line: tok.Line, A: tryBlock, Str: catchVar, B: catchBlock, C: finallyBlock}, nil
}

// parseFunctionStatement parses `function name(params) { body }` and
// eagerly rewrites it to `var name = function name(params) { body }` so
// the compiler only ever sees function expressions bound by var, per the
// source language's function-statement desugaring.
func (p *Parser) parseFunctionStatement() (*ast.Node, error) {
	fn, err := p.parseFunctionLiteral(ast.FUNDEC)
	if err != nil {
		return nil, err
	}
	if fn.Str == "" {
		return nil, p.fail(fn.Line, "function statement requires a name")
	}
	decl := &ast.Node{Kind: ast.VARDECL, Line: fn.Line, Str: fn.Str, A: fn}
	return &ast.Node{Kind: ast.VAR, Line: fn.Line, A: ast.NewList(fn.Line, decl)}, nil
}

// parseFunctionLiteral parses the common `function name?(params) { body }`
// shape used by both function statements and function expressions.
func (p *Parser) parseFunctionLiteral(kind ast.Kind) (*ast.Node, error) {
	tok, _ := p.expect(token.FUNCTION)
	name := ""
	atIdent, err := p.at(token.IDENT)
	if err != nil {
		return nil, err
	}
	if atIdent {
		nameTok, _ := p.next()
		name = nameTok.Literal
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []*ast.Node
	atRParen, err := p.at(token.RPAREN)
	if err != nil {
		return nil, err
	}
	for !atRParen {
		pTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		params = append(params, &ast.Node{Kind: ast.IDENT, Line: pTok.Line, Str: pTok.Literal})
		hasComma, err := p.at(token.COMMA)
		if err != nil {
			return nil, err
		}
		if !hasComma {
			break
		}
		_, _ = p.next()
		atRParen, err = p.at(token.RPAREN)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: kind, Line: tok.Line, Str: name, A: ast.NewList(tok.Line, params...), B: body}, nil
}

// --- expressions -----------------------------------------------------

func (p *Parser) parseExpression() (*ast.Node, error) {
	first, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	hasComma, err := p.at(token.COMMA)
	if err != nil {
		return nil, err
	}
	if !hasComma {
		return first, nil
	}
	line := first.Line
	exprs := []*ast.Node{first}
	for hasComma {
		_, _ = p.next()
		next, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, next)
		hasComma, err = p.at(token.COMMA)
		if err != nil {
			return nil, err
		}
	}
	// Fold left-to-right: ((a, b), c), ...
	result := exprs[0]
	for _, e := range exprs[1:] {
		result = &ast.Node{Kind: ast.COMMA, Line: line, A: result, B: e}
	}
	return result, nil
}

var assignOps = map[token.Kind]ast.Kind{
	token.ASSIGN:     ast.ASSIGN,
	token.MULASSIGN:   ast.ASSIGN_MUL,
	token.DIVASSIGN:   ast.ASSIGN_DIV,
	token.MODASSIGN:   ast.ASSIGN_MOD,
	token.ADDASSIGN:   ast.ASSIGN_ADD,
	token.SUBASSIGN:   ast.ASSIGN_SUB,
	token.SHLASSIGN:   ast.ASSIGN_SHL,
	token.SHRASSIGN:   ast.ASSIGN_SHR,
	token.USHRASSIGN:  ast.ASSIGN_USHR,
	token.ANDASSIGN:   ast.ASSIGN_BITAND,
	token.XORASSIGN:   ast.ASSIGN_BITXOR,
	token.ORASSIGN:    ast.ASSIGN_BITOR,
}

// parseAssignExpr is right-associative: lhs op= parseAssignExpr().
func (p *Parser) parseAssignExpr() (*ast.Node, error) {
	lhs, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, p.lexErr(err)
	}
	kind, ok := assignOps[tok.Kind]
	if !ok {
		return lhs, nil
	}
	if !isAssignable(lhs) {
		return nil, p.fail(tok.Line, "invalid assignment target")
	}
	_, _ = p.next()
	rhs, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: kind, Line: lhs.Line, A: lhs, B: rhs}, nil
}

func isAssignable(n *ast.Node) bool {
	switch n.Kind {
	case ast.IDENT, ast.MEMBER, ast.INDEX:
		return true
	default:
		return false
	}
}

func (p *Parser) parseConditional() (*ast.Node, error) {
	test, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	atQ, err := p.at(token.QUESTION)
	if err != nil {
		return nil, err
	}
	if !atQ {
		return test, nil
	}
	_, _ = p.next()
	cons, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	alt, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.COND, Line: test.Line, A: test, B: cons, C: alt}, nil
}

// binOps lists binary operator tiers from lowest to highest precedence.
// Each tier is a set of token kinds handled at that level, left-associative.
var binOps = []map[token.Kind]ast.Kind{
	{token.OROR: ast.LOGOR},
	{token.ANDAND: ast.LOGAND},
	{token.OR: ast.BITOR},
	{token.XOR: ast.BITXOR},
	{token.AND: ast.BITAND},
	{token.EQ: ast.EQ, token.NE: ast.NE, token.STRICTEQ: ast.STRICTEQ, token.STRICTNE: ast.STRICTNE},
	{token.LT: ast.LT, token.GT: ast.GT, token.LE: ast.LE, token.GE: ast.GE, token.IN: ast.IN, token.INSTANCEOF: ast.INSTANCEOF},
	{token.SHL: ast.SHL, token.SHR: ast.SHR, token.USHR: ast.USHR},
	{token.ADD: ast.ADD, token.SUB: ast.SUB},
	{token.MUL: ast.MUL, token.DIV: ast.DIVOP, token.MOD: ast.MOD},
}

// parseBinary implements the precedence cascade for tier and above. tier
// indexes into binOps; tiers beyond the table bottom out at parseUnary.
func (p *Parser) parseBinary(tier int) (*ast.Node, error) {
	if tier >= len(binOps) {
		return p.parseUnary()
	}
	lhs, err := p.parseBinary(tier + 1)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, p.lexErr(err)
		}
		if tok.Kind == token.IN && p.lex.NotIn() {
			return lhs, nil
		}
		kind, ok := binOps[tier][tok.Kind]
		if !ok {
			return lhs, nil
		}
		_, _ = p.next()
		rhs, err := p.parseBinary(tier + 1)
		if err != nil {
			return nil, err
		}
		lhs = &ast.Node{Kind: kind, Line: lhs.Line, A: lhs, B: rhs}
	}
}

func (p *Parser) parseUnary() (*ast.Node, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, p.lexErr(err)
	}

	var kind ast.Kind
	switch tok.Kind {
	case token.DELETE:
		kind = ast.DELETE
	case token.TYPEOF:
		kind = ast.TYPEOF
	case token.ADD:
		kind = ast.POS
	case token.SUB:
		kind = ast.NEG
	case token.BITNOT:
		kind = ast.BITNOT
	case token.NOT:
		kind = ast.LOGNOT
	case token.INC:
		kind = ast.PREINC
	case token.DEC:
		kind = ast.PREDEC
	default:
		return p.parsePostfix()
	}
	_, _ = p.next()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: kind, Line: tok.Line, A: operand}, nil
}

// parsePostfix handles trailing ++/-- after a member/call expression. Per
// ASI rules, postfix ++/-- is only recognized if no newline was skipped
// before the operator -- otherwise it starts a new statement.
func (p *Parser) parsePostfix() (*ast.Node, error) {
	expr, err := p.parseCallMember()
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, p.lexErr(err)
	}
	if tok.Kind != token.INC && tok.Kind != token.DEC {
		return expr, nil
	}
	skipped, err := p.lex.SkippedNewline()
	if err != nil {
		return nil, p.lexErr(err)
	}
	if skipped {
		return expr, nil
	}
	if !isAssignable(expr) {
		return nil, p.fail(tok.Line, "invalid postfix operand")
	}
	_, _ = p.next()
	kind := ast.POSTINC
	if tok.Kind == token.DEC {
		kind = ast.POSTDEC
	}
	return &ast.Node{Kind: kind, Line: expr.Line, A: expr}, nil
}

// parseCallMember handles new-expressions, and the left-associative loop of
// member access (.name), indexing ([expr]), and call (args) suffixes.
func (p *Parser) parseCallMember() (*ast.Node, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, p.lexErr(err)
	}
	var expr *ast.Node
	if tok.Kind == token.NEW {
		_, _ = p.next()
		callee, err := p.parseCallMemberNoCall()
		if err != nil {
			return nil, err
		}
		var args *ast.Node
		atParen, err := p.at(token.LPAREN)
		if err != nil {
			return nil, err
		}
		if atParen {
			args, err = p.parseArgs()
			if err != nil {
				return nil, err
			}
		}
		expr = &ast.Node{Kind: ast.NEW, Line: tok.Line, A: callee, B: args}
	} else {
		expr, err = p.parsePrimary()
		if err != nil {
			return nil, err
		}
	}
	return p.parseCallMemberTail(expr, true)
}

// parseCallMemberNoCall parses the callee of `new` without consuming a
// trailing call suffix -- `new f(a)(b)` binds the first paren-list to
// `new`; anything after is a call on the constructed result.
func (p *Parser) parseCallMemberNoCall() (*ast.Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parseCallMemberTail(expr, false)
}

func (p *Parser) parseCallMemberTail(expr *ast.Node, allowCall bool) (*ast.Node, error) {
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, p.lexErr(err)
		}
		switch tok.Kind {
		case token.PERIOD:
			_, _ = p.next()
			nameTok, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			expr = &ast.Node{Kind: ast.MEMBER, Line: expr.Line, Str: nameTok.Literal, A: expr}
		case token.LBRACK:
			_, _ = p.next()
			key, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACK); err != nil {
				return nil, err
			}
			expr = &ast.Node{Kind: ast.INDEX, Line: expr.Line, A: expr, B: key}
		case token.LPAREN:
			if !allowCall {
				return expr, nil
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			expr = &ast.Node{Kind: ast.CALL, Line: expr.Line, A: expr, B: args}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseArgs() (*ast.Node, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var args []*ast.Node
	atRParen, err := p.at(token.RPAREN)
	if err != nil {
		return nil, err
	}
	for !atRParen {
		arg, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		hasComma, err := p.at(token.COMMA)
		if err != nil {
			return nil, err
		}
		if !hasComma {
			break
		}
		_, _ = p.next()
		atRParen, err = p.at(token.RPAREN)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return ast.NewList(0, args...), nil
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, p.lexErr(err)
	}

	switch tok.Kind {
	case token.NUMBER:
		_, _ = p.next()
		return &ast.Node{Kind: ast.NUMBER, Line: tok.Line, Num: parseNumberLiteral(tok.Literal)}, nil
	case token.STRING:
		_, _ = p.next()
		return &ast.Node{Kind: ast.STRING, Line: tok.Line, Str: tok.Literal}, nil
	case token.TRUE:
		_, _ = p.next()
		return &ast.Node{Kind: ast.TRUE, Line: tok.Line}, nil
	case token.FALSE:
		_, _ = p.next()
		return &ast.Node{Kind: ast.FALSE, Line: tok.Line}, nil
	case token.NULL:
		_, _ = p.next()
		return &ast.Node{Kind: ast.NULLLIT, Line: tok.Line}, nil
	case token.UNDEFINED:
		_, _ = p.next()
		return &ast.Node{Kind: ast.UNDEF, Line: tok.Line}, nil
	case token.THIS:
		_, _ = p.next()
		return &ast.Node{Kind: ast.THIS, Line: tok.Line}, nil
	case token.IDENT:
		_, _ = p.next()
		return &ast.Node{Kind: ast.IDENT, Line: tok.Line, Str: tok.Literal}, nil
	case token.VOID:
		_, _ = p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.VOID, Line: tok.Line, A: operand}, nil
	case token.FUNCTION:
		return p.parseFunctionLiteral(ast.FUNEXPR)
	case token.LPAREN:
		_, _ = p.next()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case token.LBRACK:
		return p.parseArrayLiteral()
	case token.LBRACE:
		return p.parseObjectLiteral()
	default:
		return nil, p.fail(tok.Line, "unexpected token %s", describeToken(tok))
	}
}

func parseNumberLiteral(lit string) float64 {
	n, _ := evalNumberLiteral(lit)
	return n
}

func (p *Parser) parseArrayLiteral() (*ast.Node, error) {
	tok, _ := p.expect(token.LBRACK)
	var elems []*ast.Node
	for {
		atRBrack, err := p.at(token.RBRACK)
		if err != nil {
			return nil, err
		}
		if atRBrack {
			break
		}
		atComma, err := p.at(token.COMMA)
		if err != nil {
			return nil, err
		}
		if atComma {
			elems = append(elems, &ast.Node{Kind: ast.UNDEF, Line: tok.Line})
			_, _ = p.next()
			continue
		}
		elem, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		hasComma, err := p.at(token.COMMA)
		if err != nil {
			return nil, err
		}
		if !hasComma {
			break
		}
		_, _ = p.next()
	}
	if _, err := p.expect(token.RBRACK); err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.ARRAY, Line: tok.Line, A: ast.NewList(tok.Line, elems...)}, nil
}

func (p *Parser) parseObjectLiteral() (*ast.Node, error) {
	tok, _ := p.expect(token.LBRACE)
	var props []*ast.Node
	for {
		atRBrace, err := p.at(token.RBRACE)
		if err != nil {
			return nil, err
		}
		if atRBrace {
			break
		}
		prop, err := p.parseObjectProperty()
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
		hasComma, err := p.at(token.COMMA)
		if err != nil {
			return nil, err
		}
		if !hasComma {
			break
		}
		_, _ = p.next()
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.OBJECT, Line: tok.Line, A: ast.NewList(tok.Line, props...)}, nil
}

func (p *Parser) parseObjectProperty() (*ast.Node, error) {
	tok0, err := p.peek()
	if err != nil {
		return nil, p.lexErr(err)
	}

	// get/set accessors: `get name() {...}` / `set name(v) {...}`. The
	// accessor keyword is only special when it is not itself followed by a
	// colon (which would mean a property literally named "get"/"set").
	if tok0.Kind == token.IDENT && (tok0.Literal == "get" || tok0.Literal == "set") {
		tok1, err := p.peekN(1)
		if err != nil {
			return nil, p.lexErr(err)
		}
		if tok1.Kind != token.COLON {
			_, _ = p.next() // consume "get"/"set"
			keyTok, err := p.propertyKeyToken()
			if err != nil {
				return nil, err
			}
			_, _ = p.next() // consume the key
			fn, err := p.parseAccessorFunction()
			if err != nil {
				return nil, err
			}
			if tok0.Literal == "get" {
				return &ast.Node{Kind: ast.PROP_GET, Line: tok0.Line, Str: keyTok.Literal, A: fn}, nil
			}
			return &ast.Node{Kind: ast.PROP_SET, Line: tok0.Line, Str: keyTok.Literal, A: fn}, nil
		}
	}

	keyTok, err := p.propertyKeyToken()
	if err != nil {
		return nil, err
	}
	_, _ = p.next() // consume the key
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	value, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.PROP_VAL, Line: keyTok.Line, Str: keyTok.Literal, A: value}, nil
}

// propertyKeyToken peeks (without consuming) the next property key: an
// identifier, keyword-as-identifier, string, or number literal.
func (p *Parser) propertyKeyToken() (token.Token, error) {
	tok, err := p.peek()
	if err != nil {
		return token.Token{}, p.lexErr(err)
	}
	switch tok.Kind {
	case token.IDENT:
		return tok, nil
	case token.STRING:
		return tok, nil
	case token.NUMBER:
		return token.Token{Kind: tok.Kind, Literal: tok.Literal, Line: tok.Line}, nil
	default:
		if tok.Kind.IsKeyword() {
			return token.Token{Kind: token.IDENT, Literal: tok.Kind.String(), Line: tok.Line}, nil
		}
		return token.Token{}, p.fail(tok.Line, "expected property key, found %s", describeToken(tok))
	}
}

func (p *Parser) parseAccessorFunction() (*ast.Node, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, p.lexErr(err)
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []*ast.Node
	atRParen, err := p.at(token.RPAREN)
	if err != nil {
		return nil, err
	}
	for !atRParen {
		pTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		params = append(params, &ast.Node{Kind: ast.IDENT, Line: pTok.Line, Str: pTok.Literal})
		hasComma, err := p.at(token.COMMA)
		if err != nil {
			return nil, err
		}
		if !hasComma {
			break
		}
		_, _ = p.next()
		atRParen, err = p.at(token.RPAREN)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.FUNEXPR, Line: tok.Line, A: ast.NewList(tok.Line, params...), B: body}, nil
}
