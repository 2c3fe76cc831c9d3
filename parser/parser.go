// Package parser turns a token stream into an ast.Program using
// recursive descent for statements and Pratt-style precedence
// climbing for expressions.
//
// Errors are raised by panicking with a *diag.Error and recovered at
// the top of ParseProgram, so a deeply nested rule doesn't need to
// thread an error return through every call.
package parser

import (
	"fmt"
	"strconv"

	"github.com/skx/raf/ast"
	"github.com/skx/raf/diag"
	"github.com/skx/raf/token"
)

// Parser consumes a fixed token slice and produces an AST.
type Parser struct {
	toks []token.Token
	src  string
	pos  int
}

// New creates a Parser over toks, which must end in an EOF token.
// src is the original source text, kept only for diagnostic
// rendering.
func New(toks []token.Token, src string) *Parser {
	return &Parser{toks: toks, src: src}
}

// Parse consumes the entire token stream and returns the resulting
// program, or the first syntax error encountered.
func Parse(toks []token.Token, src string) (*ast.Program, error) {
	p := New(toks, src)
	return p.ParseProgram()
}

// ParseProgram parses statements until EOF.
func (p *Parser) ParseProgram() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*diag.Error)
			if !ok {
				panic(r)
			}
			err = pe
		}
	}()

	var stmts []ast.Stmt
	for !p.atEnd() {
		stmts = append(stmts, p.statement())
	}
	return &ast.Program{Statements: stmts}, nil
}

func (p *Parser) peek() token.Token { return p.toks[p.pos] }

func (p *Parser) prev() token.Token { return p.toks[p.pos-1] }

func (p *Parser) atEnd() bool { return p.peek().Kind == token.EOF }

func (p *Parser) advance() token.Token {
	if !p.atEnd() {
		p.pos++
	}
	return p.prev()
}

func (p *Parser) check(kind token.Kind) bool { return p.peek().Kind == kind }

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.peek().Kind == k {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes the current token if it has the given kind,
// otherwise panics with a *diag.Error (recovered in ParseProgram).
func (p *Parser) expect(kind token.Kind, msg string) token.Token {
	if p.check(kind) {
		return p.advance()
	}
	p.fail(msg)
	panic("unreachable")
}

func (p *Parser) fail(msg string) {
	t := p.peek()
	panic(diag.New(diag.ParseError, t.Line, t.Col, msg))
}

// ---- statements ----

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(token.IF):
		return p.ifStmt(p.prev())
	case p.match(token.WHILE):
		return p.whileStmt(p.prev())
	case p.match(token.DEF):
		return p.defStmt(p.prev())
	case p.match(token.RETURN):
		return p.returnStmt(p.prev())
	case p.match(token.IMPORT):
		return p.importStmt(p.prev())
	}

	if p.check(token.IDENT) && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.EQ {
		name := p.expect(token.IDENT, "expected identifier")
		p.expect(token.EQ, "expected '='")
		value := p.expression()
		p.expect(token.SEMI, "expected ';' after assignment")
		return &ast.Assign{Token: name, Name: name.Lexeme, Value: value}
	}

	tok := p.peek()
	expr := p.expression()
	p.expect(token.SEMI, "expected ';' after expression")
	return &ast.ExprStmt{Token: tok, X: expr}
}

func (p *Parser) block() *ast.Block {
	lbrace := p.expect(token.LBRACE, "expected '{' to start block")
	var stmts []ast.Stmt
	for !p.check(token.RBRACE) {
		if p.atEnd() {
			panic(diag.New(diag.ParseError, lbrace.Line, lbrace.Col, "unterminated block (missing '}')"))
		}
		stmts = append(stmts, p.statement())
	}
	p.expect(token.RBRACE, "expected '}' after block")
	return &ast.Block{Token: lbrace, Statements: stmts}
}

func (p *Parser) ifStmt(ifTok token.Token) ast.Stmt {
	p.expect(token.LPAREN, "expected '(' after if")
	cond := p.expression()
	p.expect(token.RPAREN, "expected ')' after if condition")
	then := p.block()
	var elseBlk *ast.Block
	if p.match(token.ELSE) {
		elseBlk = p.block()
	}
	return &ast.If{Token: ifTok, Cond: cond, Then: then, Else: elseBlk}
}

func (p *Parser) whileStmt(wTok token.Token) ast.Stmt {
	p.expect(token.LPAREN, "expected '(' after while")
	cond := p.expression()
	p.expect(token.RPAREN, "expected ')' after while condition")
	body := p.block()
	return &ast.While{Token: wTok, Cond: cond, Body: body}
}

func (p *Parser) defStmt(dTok token.Token) ast.Stmt {
	name := p.expect(token.IDENT, "expected function name after def")
	p.expect(token.LPAREN, "expected '(' after function name")
	var params []string
	if !p.check(token.RPAREN) {
		params = append(params, p.expect(token.IDENT, "expected parameter name").Lexeme)
		for p.match(token.COMMA) {
			params = append(params, p.expect(token.IDENT, "expected parameter name").Lexeme)
		}
	}
	p.expect(token.RPAREN, "expected ')' after parameters")
	body := p.block()
	return &ast.Def{Token: dTok, Name: name.Lexeme, Params: params, Body: body}
}

func (p *Parser) returnStmt(rTok token.Token) ast.Stmt {
	if p.match(token.SEMI) {
		return &ast.Return{Token: rTok}
	}
	val := p.expression()
	p.expect(token.SEMI, "expected ';' after return value")
	return &ast.Return{Token: rTok, Value: val}
}

func (p *Parser) importStmt(_ token.Token) ast.Stmt {
	str := p.expect(token.STRING, "expected a string path after import")
	p.expect(token.SEMI, "expected ';' after import")
	return &ast.Import{Token: str, Path: str.Lexeme}
}

// ---- expressions ----

// precedence maps each binary operator to its climbing level, per the
// table in the language's grammar: or < and < equality < ordering <
// additive < multiplicative.
var precedence = map[token.Kind]int{
	token.OR:      1,
	token.AND:     2,
	token.EQEQ:    3,
	token.NEQ:     3,
	token.LT:      4,
	token.LTE:     4,
	token.GT:      4,
	token.GTE:     4,
	token.PLUS:    5,
	token.MINUS:   5,
	token.STAR:    6,
	token.SLASH:   6,
	token.PERCENT: 6,
}

// unaryPrecedence is the binding power used when parsing the operand
// of a prefix '-' or 'not', higher than any binary operator.
const unaryPrecedence = 7

func (p *Parser) expression() ast.Expr {
	return p.parsePrecedence(0)
}

func (p *Parser) parsePrecedence(minPrec int) ast.Expr {
	expr := p.prefix()

	for {
		if p.check(token.LPAREN) {
			lparen := p.advance()
			var args []ast.Expr
			if !p.check(token.RPAREN) {
				args = append(args, p.expression())
				for p.match(token.COMMA) {
					args = append(args, p.expression())
				}
			}
			p.expect(token.RPAREN, "expected ')' after arguments")
			expr = &ast.Call{Token: lparen, Callee: expr, Args: args}
			continue
		}

		if p.check(token.LBRACKET) {
			lbr := p.advance()
			idx := p.expression()
			p.expect(token.RBRACKET, "expected ']' after index")
			expr = &ast.Index{Token: lbr, Target: expr, Idx: idx}
			continue
		}

		tok := p.peek()
		prec, ok := precedence[tok.Kind]
		if !ok || prec < minPrec {
			break
		}

		op := p.advance()
		right := p.parsePrecedence(prec + 1)
		expr = &ast.Binary{Token: op, Left: expr, Op: op.Kind, Right: right}
	}

	return expr
}

func (p *Parser) prefix() ast.Expr {
	tok := p.peek()

	switch {
	case p.match(token.NUMBER):
		return p.numberLit(p.prev())

	case p.match(token.STRING):
		t := p.prev()
		return &ast.String{Token: t, Value: t.Lexeme}

	case p.match(token.TRUE):
		t := p.prev()
		return &ast.Bool{Token: t, Value: true}

	case p.match(token.FALSE):
		t := p.prev()
		return &ast.Bool{Token: t, Value: false}

	case p.match(token.NONE):
		t := p.prev()
		return &ast.NoneLit{Token: t}

	case p.match(token.IDENT):
		t := p.prev()
		return &ast.Var{Token: t, Name: t.Lexeme}

	case p.match(token.LBRACKET):
		lb := p.prev()
		var items []ast.Expr
		if !p.check(token.RBRACKET) {
			items = append(items, p.expression())
			for p.match(token.COMMA) {
				items = append(items, p.expression())
			}
		}
		p.expect(token.RBRACKET, "expected ']' after list literal")
		return &ast.ListLit{Token: lb, Items: items}

	case p.match(token.LPAREN):
		expr := p.expression()
		p.expect(token.RPAREN, "expected ')' after expression")
		return expr

	case p.match(token.MINUS, token.NOT):
		op := p.prev()
		right := p.parsePrecedence(unaryPrecedence)
		return &ast.Unary{Token: op, Op: op.Kind, Operand: right}
	}

	p.fail(fmt.Sprintf("expected expression, got %s", tok.Kind))
	panic("unreachable")
}

// numberLit classifies a NUMBER lexeme as integer (no '.') or
// fractional (dot present), per the parser's contract with the lexer.
func (p *Parser) numberLit(t token.Token) ast.Expr {
	if containsDot(t.Lexeme) {
		f, err := strconv.ParseFloat(t.Lexeme, 64)
		if err != nil {
			p.fail(fmt.Sprintf("invalid number literal %q", t.Lexeme))
		}
		return &ast.Number{Token: t, Float: f, Frac: true}
	}
	n, err := strconv.ParseInt(t.Lexeme, 10, 64)
	if err != nil {
		p.fail(fmt.Sprintf("invalid number literal %q", t.Lexeme))
	}
	return &ast.Number{Token: t, Int: n}
}

func containsDot(s string) bool {
	for _, r := range s {
		if r == '.' {
			return true
		}
	}
	return false
}
