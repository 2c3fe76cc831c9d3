// Package ast defines the syntax tree produced by the parser and
// consumed by both the tree-walking evaluator and the compiler.
//
// The shape follows go/ast's marker-interface idiom: Expr and Stmt are
// empty interfaces implemented by a closed set of node structs. Every
// node keeps at least one token.Token so diagnostics can point at
// source.
package ast

import "github.com/skx/raf/token"

// Expr is implemented by every expression node.
type Expr interface {
	exprNode()
	// Tok returns the node's anchor token, used for diagnostics.
	Tok() token.Token
}

// Stmt is implemented by every statement node.
type Stmt interface {
	stmtNode()
	Tok() token.Token
}

// Program is a parsed source file: an ordered list of top-level
// statements.
type Program struct {
	Statements []Stmt
}

// ---- expressions ----

// Number is an integer or fractional literal. Frac reports which,
// decided by the parser from whether the lexeme contained a '.'.
type Number struct {
	Token token.Token
	Int   int64
	Float float64
	Frac  bool
}

func (n *Number) exprNode()          {}
func (n *Number) Tok() token.Token   { return n.Token }

// String is a string literal; Value already has escapes resolved by
// the lexer.
type String struct {
	Token token.Token
	Value string
}

func (s *String) exprNode()        {}
func (s *String) Tok() token.Token { return s.Token }

// Bool is a boolean literal.
type Bool struct {
	Token token.Token
	Value bool
}

func (b *Bool) exprNode()        {}
func (b *Bool) Tok() token.Token { return b.Token }

// NoneLit is the `none` literal.
type NoneLit struct {
	Token token.Token
}

func (n *NoneLit) exprNode()        {}
func (n *NoneLit) Tok() token.Token { return n.Token }

// Var is a reference to a bound name.
type Var struct {
	Token token.Token
	Name  string
}

func (v *Var) exprNode()        {}
func (v *Var) Tok() token.Token { return v.Token }

// Unary is a prefix operator applied to one operand: `-x` or `not x`.
type Unary struct {
	Token   token.Token // the operator token
	Op      token.Kind
	Operand Expr
}

func (u *Unary) exprNode()        {}
func (u *Unary) Tok() token.Token { return u.Token }

// Binary is an infix operator applied to two operands.
type Binary struct {
	Token token.Token // the operator token
	Left  Expr
	Op    token.Kind
	Right Expr
}

func (b *Binary) exprNode()        {}
func (b *Binary) Tok() token.Token { return b.Token }

// Call is a function invocation: `callee(args...)`.
type Call struct {
	Token  token.Token // the opening '(' token
	Callee Expr
	Args   []Expr
}

func (c *Call) exprNode()        {}
func (c *Call) Tok() token.Token { return c.Token }

// ListLit is a list literal: `[items...]`.
type ListLit struct {
	Token token.Token // the opening '[' token
	Items []Expr
}

func (l *ListLit) exprNode()        {}
func (l *ListLit) Tok() token.Token { return l.Token }

// Index is a subscript expression: `target[index]`.
type Index struct {
	Token  token.Token // the opening '[' token
	Target Expr
	Idx    Expr
}

func (i *Index) exprNode()        {}
func (i *Index) Tok() token.Token { return i.Token }

// ---- statements ----

// ExprStmt is an expression evaluated for its side effect, its value
// discarded.
type ExprStmt struct {
	Token token.Token
	X     Expr
}

func (s *ExprStmt) stmtNode()       {}
func (s *ExprStmt) Tok() token.Token { return s.Token }

// Assign is `name = value;`.
type Assign struct {
	Token token.Token // the name token
	Name  string
	Value Expr
}

func (a *Assign) stmtNode()       {}
func (a *Assign) Tok() token.Token { return a.Token }

// Import is `import "path";`.
type Import struct {
	Token token.Token // the string-literal token
	Path  string
}

func (i *Import) stmtNode()       {}
func (i *Import) Tok() token.Token { return i.Token }

// Block is `{ statements... }`.
type Block struct {
	Token      token.Token // the opening '{' token
	Statements []Stmt
}

func (b *Block) stmtNode()       {}
func (b *Block) Tok() token.Token { return b.Token }

// If is `if (cond) then [else else]`.
type If struct {
	Token token.Token // the 'if' token
	Cond  Expr
	Then  *Block
	Else  *Block // nil when absent
}

func (i *If) stmtNode()       {}
func (i *If) Tok() token.Token { return i.Token }

// While is `while (cond) body`.
type While struct {
	Token token.Token // the 'while' token
	Cond  Expr
	Body  *Block
}

func (w *While) stmtNode()       {}
func (w *While) Tok() token.Token { return w.Token }

// Return is `return;` or `return value;`.
type Return struct {
	Token token.Token // the 'return' token
	Value Expr        // nil when absent
}

func (r *Return) stmtNode()       {}
func (r *Return) Tok() token.Token { return r.Token }

// Def is `def name(params...) body`.
type Def struct {
	Token  token.Token // the 'def' token
	Name   string
	Params []string
	Body   *Block
}

func (d *Def) stmtNode()       {}
func (d *Def) Tok() token.Token { return d.Token }
