// Package compiler lowers a parsed program into a bytecode.Chunk.
//
// Compilation is a single walk over the parsed form, emitting one
// instruction (or a short sequence) per node, with a constants area that
// numbers and names are pushed through by index rather than inline.
// Nested function definitions recursively compile into their own
// chunks, installed in the outer chunk's constant pool as
// bytecode.Prototype values.
package compiler

import (
	"fmt"

	"github.com/skx/raf/ast"
	"github.com/skx/raf/bytecode"
	"github.com/skx/raf/runtime"
	"github.com/skx/raf/token"
)

// Compiler holds the in-progress chunk for one function body (or the
// module top level); nested defs spin up their own Compiler.
type Compiler struct {
	chunk *bytecode.Chunk
}

// New creates a Compiler that will emit into a fresh chunk named name.
func New(name string) *Compiler {
	return &Compiler{chunk: bytecode.NewChunk(name)}
}

// Compile lowers program's statements into a fresh top-level chunk,
// with an implicit `CONST none; RET` appended so a module that falls
// off the end still returns a value.
func Compile(program *ast.Program) (*bytecode.Chunk, error) {
	c := New("<module>")
	for _, s := range program.Statements {
		if err := c.stmt(s); err != nil {
			return nil, err
		}
	}
	c.chunk.EmitA(bytecode.CONST, c.constNone(), 0, 0)
	c.chunk.Emit(bytecode.RET, 0, 0)
	return c.chunk, nil
}

// ---- constant-pool helpers ----
//
// No deduplication: STORE and LOAD need their own name-constant slots,
// and folding constants across unrelated literals isn't worth the
// bookkeeping for a chunk this small.

func (c *Compiler) constNone() int   { return c.chunk.AddConst(runtime.NoneVal()) }
func (c *Compiler) constName(s string) int { return c.chunk.AddConst(s) }

func (c *Compiler) emitJump(op bytecode.Op, line, col int) int {
	return c.chunk.EmitA(op, 0, line, col)
}

// patchJumpToHere back-patches the jump at ip so it lands at the
// current end of the code stream: delta = target_ip - (ip + 1).
func (c *Compiler) patchJumpToHere(ip int) {
	target := len(c.chunk.Code)
	c.chunk.PatchA(ip, target-(ip+1))
}

// emitLoop emits an unconditional JUMP back to loopStart.
func (c *Compiler) emitLoop(loopStart, line, col int) {
	cur := len(c.chunk.Code)
	c.chunk.EmitA(bytecode.JUMP, loopStart-(cur+1), line, col)
}

// ---- statements ----

func (c *Compiler) stmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.ExprStmt:
		if err := c.expr(st.X); err != nil {
			return err
		}
		c.chunk.Emit(bytecode.POP, st.Token.Line, st.Token.Col)
		return nil

	case *ast.Assign:
		if err := c.expr(st.Value); err != nil {
			return err
		}
		c.chunk.EmitA(bytecode.STORE, c.constName(st.Name), st.Token.Line, st.Token.Col)
		return nil

	case *ast.Import:
		return fmt.Errorf("compiler: import is not supported when compiling to bytecode")

	case *ast.Block:
		for _, inner := range st.Statements {
			if err := c.stmt(inner); err != nil {
				return err
			}
		}
		return nil

	case *ast.If:
		if err := c.expr(st.Cond); err != nil {
			return err
		}
		jFalse := c.emitJump(bytecode.JUMPIfFalse, st.Token.Line, st.Token.Col)
		c.chunk.Emit(bytecode.POP, st.Token.Line, st.Token.Col)
		if err := c.stmt(st.Then); err != nil {
			return err
		}
		jEnd := c.emitJump(bytecode.JUMP, st.Token.Line, st.Token.Col)
		c.patchJumpToHere(jFalse)
		c.chunk.Emit(bytecode.POP, st.Token.Line, st.Token.Col)
		if st.Else != nil {
			if err := c.stmt(st.Else); err != nil {
				return err
			}
		}
		c.patchJumpToHere(jEnd)
		return nil

	case *ast.While:
		loopStart := len(c.chunk.Code)
		if err := c.expr(st.Cond); err != nil {
			return err
		}
		jFalse := c.emitJump(bytecode.JUMPIfFalse, st.Token.Line, st.Token.Col)
		c.chunk.Emit(bytecode.POP, st.Token.Line, st.Token.Col)
		if err := c.stmt(st.Body); err != nil {
			return err
		}
		c.emitLoop(loopStart, st.Token.Line, st.Token.Col)
		c.patchJumpToHere(jFalse)
		c.chunk.Emit(bytecode.POP, st.Token.Line, st.Token.Col)
		return nil

	case *ast.Return:
		if st.Value == nil {
			c.chunk.EmitA(bytecode.CONST, c.constNone(), st.Token.Line, st.Token.Col)
		} else if err := c.expr(st.Value); err != nil {
			return err
		}
		c.chunk.Emit(bytecode.RET, st.Token.Line, st.Token.Col)
		return nil

	case *ast.Def:
		fnc := New(fmt.Sprintf("<fn %s>", st.Name))
		for _, inner := range st.Body.Statements {
			if err := fnc.stmt(inner); err != nil {
				return err
			}
		}
		fnc.chunk.EmitA(bytecode.CONST, fnc.constNone(), 0, 0)
		fnc.chunk.Emit(bytecode.RET, 0, 0)

		proto := &bytecode.Prototype{Chunk: fnc.chunk, Params: st.Params}
		protoIdx := c.chunk.AddConst(proto)

		c.chunk.EmitA(bytecode.MAKEFunc, protoIdx, st.Token.Line, st.Token.Col)
		c.chunk.EmitA(bytecode.STORE, c.constName(st.Name), st.Token.Line, st.Token.Col)
		c.chunk.Emit(bytecode.POP, st.Token.Line, st.Token.Col)
		return nil
	}

	return fmt.Errorf("compiler: unsupported statement %T", s)
}

// ---- expressions ----

func (c *Compiler) expr(e ast.Expr) error {
	switch ex := e.(type) {
	case *ast.Number:
		var v runtime.Value
		if ex.Frac {
			v = runtime.FloatVal(ex.Float)
		} else {
			v = runtime.IntVal(ex.Int)
		}
		c.chunk.EmitA(bytecode.CONST, c.chunk.AddConst(v), ex.Token.Line, ex.Token.Col)
		return nil

	case *ast.String:
		c.chunk.EmitA(bytecode.CONST, c.chunk.AddConst(runtime.StrVal(ex.Value)), ex.Token.Line, ex.Token.Col)
		return nil

	case *ast.Bool:
		c.chunk.EmitA(bytecode.CONST, c.chunk.AddConst(runtime.BoolVal(ex.Value)), ex.Token.Line, ex.Token.Col)
		return nil

	case *ast.NoneLit:
		c.chunk.EmitA(bytecode.CONST, c.constNone(), ex.Token.Line, ex.Token.Col)
		return nil

	case *ast.Var:
		c.chunk.EmitA(bytecode.LOAD, c.constName(ex.Name), ex.Token.Line, ex.Token.Col)
		return nil

	case *ast.ListLit:
		for _, item := range ex.Items {
			if err := c.expr(item); err != nil {
				return err
			}
		}
		c.chunk.EmitA(bytecode.BUILDList, len(ex.Items), ex.Token.Line, ex.Token.Col)
		return nil

	case *ast.Index:
		if err := c.expr(ex.Target); err != nil {
			return err
		}
		if err := c.expr(ex.Idx); err != nil {
			return err
		}
		c.chunk.Emit(bytecode.INDEX, ex.Token.Line, ex.Token.Col)
		return nil

	case *ast.Unary:
		if err := c.expr(ex.Operand); err != nil {
			return err
		}
		switch ex.Op {
		case token.MINUS:
			c.chunk.Emit(bytecode.NEG, ex.Token.Line, ex.Token.Col)
		case token.NOT:
			c.chunk.Emit(bytecode.NOT, ex.Token.Line, ex.Token.Col)
		default:
			return fmt.Errorf("compiler: unknown unary operator %s", ex.Op)
		}
		return nil

	case *ast.Binary:
		return c.binary(ex)

	case *ast.Call:
		if err := c.expr(ex.Callee); err != nil {
			return err
		}
		for _, a := range ex.Args {
			if err := c.expr(a); err != nil {
				return err
			}
		}
		c.chunk.EmitA(bytecode.CALL, len(ex.Args), ex.Token.Line, ex.Token.Col)
		return nil
	}

	return fmt.Errorf("compiler: unsupported expression %T", e)
}

var binOps = map[token.Kind]bytecode.Op{
	token.PLUS:    bytecode.ADD,
	token.MINUS:   bytecode.SUB,
	token.STAR:    bytecode.MUL,
	token.SLASH:   bytecode.DIV,
	token.PERCENT: bytecode.MOD,
	token.EQEQ:    bytecode.EQ,
	token.NEQ:     bytecode.NEQ,
	token.LT:      bytecode.LT,
	token.LTE:     bytecode.LTE,
	token.GT:      bytecode.GT,
	token.GTE:     bytecode.GTE,
}

// binary compiles a binary expression, special-casing AND/OR for
// short-circuit evaluation: JUMP_IF_FALSE/JUMP_IF_TRUE peek the left
// operand so its value (not a coerced bool) survives as the result
// when the right side is skipped.
func (c *Compiler) binary(e *ast.Binary) error {
	switch e.Op {
	case token.AND:
		if err := c.expr(e.Left); err != nil {
			return err
		}
		j := c.emitJump(bytecode.JUMPIfFalse, e.Token.Line, e.Token.Col)
		c.chunk.Emit(bytecode.POP, e.Token.Line, e.Token.Col)
		if err := c.expr(e.Right); err != nil {
			return err
		}
		c.patchJumpToHere(j)
		return nil

	case token.OR:
		if err := c.expr(e.Left); err != nil {
			return err
		}
		j := c.emitJump(bytecode.JUMPIfTrue, e.Token.Line, e.Token.Col)
		c.chunk.Emit(bytecode.POP, e.Token.Line, e.Token.Col)
		if err := c.expr(e.Right); err != nil {
			return err
		}
		c.patchJumpToHere(j)
		return nil
	}

	if err := c.expr(e.Left); err != nil {
		return err
	}
	if err := c.expr(e.Right); err != nil {
		return err
	}
	op, ok := binOps[e.Op]
	if !ok {
		return fmt.Errorf("compiler: unknown binary operator %s", e.Op)
	}
	c.chunk.Emit(op, e.Token.Line, e.Token.Col)
	return nil
}
