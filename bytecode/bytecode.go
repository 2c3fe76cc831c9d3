// Package bytecode defines the instruction encoding, constant pool,
// and chunk container that the compiler emits and the virtual
// machine executes, plus a disassembler used by tooling.
//
// Each Op is a small typed constant with one doc comment naming its
// stack effect, so the dispatch loop and the disassembler stay easy to
// cross-check against each other.
package bytecode

import "fmt"

// Op identifies a single VM instruction.
type Op byte

const (
	// CONST pushes consts[a] onto the value stack.
	CONST Op = iota
	// POP discards the top of the value stack.
	POP
	// LOAD pushes the value bound to the name held at consts[a].
	LOAD
	// STORE sets (or defines) the name at consts[a] to the stack
	// top, without popping it.
	STORE
	// NEG pops a number and pushes its negation.
	NEG
	// NOT pops a value and pushes the complement of its truthiness.
	NOT
	// ADD pops two values and pushes their sum (or concatenation).
	ADD
	// SUB pops two numbers and pushes their difference.
	SUB
	// MUL pops two numbers and pushes their product.
	MUL
	// DIV pops two numbers and pushes their fractional quotient.
	DIV
	// MOD pops two numbers and pushes their remainder.
	MOD
	// EQ pops two values and pushes whether they are equal.
	EQ
	// NEQ pops two values and pushes whether they are unequal.
	NEQ
	// LT pops two values and pushes whether the first orders before
	// the second.
	LT
	// LTE pops two values and pushes whether the first orders at or
	// before the second.
	LTE
	// GT pops two values and pushes whether the first orders after
	// the second.
	GT
	// GTE pops two values and pushes whether the first orders at or
	// after the second.
	GTE
	// JUMP unconditionally advances ip by the signed displacement a.
	JUMP
	// JUMP_IF_FALSE peeks the stack top; if falsy, advances ip by a.
	JUMPIfFalse
	// JUMP_IF_TRUE peeks the stack top; if truthy, advances ip by a.
	JUMPIfTrue
	// BUILD_LIST pops the top a values and pushes them as one list,
	// in their original order.
	BUILDList
	// INDEX pops a target and an index and pushes target[index].
	INDEX
	// MAKE_FUNC pushes a function value built from the prototype at
	// consts[a], capturing the current environment.
	MAKEFunc
	// CALL pops a callee and its a arguments and either invokes a
	// built-in synchronously or pushes a new call frame.
	CALL
	// RET pops the top of the value stack as the current frame's
	// result and pops the frame.
	RET
)

var opNames = map[Op]string{
	CONST:       "CONST",
	POP:         "POP",
	LOAD:        "LOAD",
	STORE:       "STORE",
	NEG:         "NEG",
	NOT:         "NOT",
	ADD:         "ADD",
	SUB:         "SUB",
	MUL:         "MUL",
	DIV:         "DIV",
	MOD:         "MOD",
	EQ:          "EQ",
	NEQ:         "NEQ",
	LT:          "LT",
	LTE:         "LTE",
	GT:          "GT",
	GTE:         "GTE",
	JUMP:        "JUMP",
	JUMPIfFalse: "JUMP_IF_FALSE",
	JUMPIfTrue:  "JUMP_IF_TRUE",
	BUILDList:   "BUILD_LIST",
	INDEX:       "INDEX",
	MAKEFunc:    "MAKE_FUNC",
	CALL:        "CALL",
	RET:         "RET",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "UNKNOWN"
}

// Instr is one opcode plus up to two integer immediates and the
// source location it was emitted from, for diagnostics.
type Instr struct {
	Op   Op
	A    int
	B    int
	HasA bool
	HasB bool
	Line int
	Col  int
}

// Prototype is the (child chunk, parameter names) pair a def
// statement installs as a constant; MAKE_FUNC turns one into a
// callable function value that captures the current environment.
type Prototype struct {
	Chunk  *Chunk
	Params []string
}

func (p *Prototype) String() string {
	return fmt.Sprintf("<proto %s/%d>", p.Chunk.Name, len(p.Params))
}

// Chunk is a named, self-contained unit of compiled code: an ordered
// instruction stream and an ordered constant pool. Module-level code
// and each function body compile to their own Chunk.
type Chunk struct {
	Name   string
	Consts []interface{}
	Code   []Instr
}

// NewChunk creates an empty chunk with the given name.
func NewChunk(name string) *Chunk {
	return &Chunk{Name: name}
}

// AddConst appends value to the constant pool and returns its index.
func (c *Chunk) AddConst(value interface{}) int {
	c.Consts = append(c.Consts, value)
	return len(c.Consts) - 1
}

// Emit appends an operand-less instruction and returns its index.
func (c *Chunk) Emit(op Op, line, col int) int {
	c.Code = append(c.Code, Instr{Op: op, Line: line, Col: col})
	return len(c.Code) - 1
}

// EmitA appends an instruction with one immediate and returns its
// index.
func (c *Chunk) EmitA(op Op, a, line, col int) int {
	c.Code = append(c.Code, Instr{Op: op, A: a, HasA: true, Line: line, Col: col})
	return len(c.Code) - 1
}

// PatchA rewrites the A operand of the instruction at ip, used to
// back-patch jump targets once the jump's destination is known.
func (c *Chunk) PatchA(ip, a int) {
	c.Code[ip].A = a
	c.Code[ip].HasA = true
}

// Disassemble renders a chunk as a human-readable listing: a header,
// the constant pool, and the instruction stream. It has no effect on
// execution; it exists for the `dis` driver subcommand.
func Disassemble(c *Chunk) string {
	out := fmt.Sprintf("== %s ==\nConstants:\n", c.Name)
	for i, k := range c.Consts {
		out += fmt.Sprintf("  [%03d] %v\n", i, k)
	}
	out += "Code:\n"
	for ip, ins := range c.Code {
		loc := "-"
		if ins.Line != 0 || ins.Col != 0 {
			loc = fmt.Sprintf("%d:%d", ins.Line, ins.Col)
		}
		switch {
		case !ins.HasA && !ins.HasB:
			out += fmt.Sprintf("%04d  %6s  %s\n", ip, loc, ins.Op)
		case !ins.HasB:
			out += fmt.Sprintf("%04d  %6s  %-14s %d\n", ip, loc, ins.Op, ins.A)
		default:
			out += fmt.Sprintf("%04d  %6s  %-14s %d %d\n", ip, loc, ins.Op, ins.A, ins.B)
		}
	}
	return out
}
