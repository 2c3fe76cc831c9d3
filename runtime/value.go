package runtime

import (
	"fmt"
	"strings"
)

// Kind identifies which alternative of Value is populated. The set is
// closed: integer, fractional, string, boolean, none, list, user
// function, built-in function.
type Kind int

const (
	Int Kind = iota
	Float
	Str
	Bool
	None
	List
	Func
	Builtin
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Str:
		return "string"
	case Bool:
		return "bool"
	case None:
		return "none"
	case List:
		return "list"
	case Func:
		return "function"
	case Builtin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Value is the single runtime representation shared by the
// tree-walking evaluator and the virtual machine, so that the two
// back ends can be tested for observable equivalence.
type Value struct {
	Kind Kind

	I int64
	F float64
	S string
	B bool

	List *List
	Fn   *Function
	Bltn *Builtin
}

// List is an ordered, mutable-under-indexing sequence of values.
// Held behind a pointer so index assignment (were it ever added) and
// aliasing semantics match reference types rather than Go's
// value-slice copy semantics.
type List struct {
	Items []Value
}

// Function is the shared representation of a user-defined function.
// Exactly one of Body or Chunk is set: Body for the tree-walker form,
// Chunk for the VM form (held as interface{} to avoid an import cycle
// with package bytecode; the vm package type-asserts it back to
// *bytecode.Chunk).
type Function struct {
	Name    string
	Params  []string
	Body    interface{} // *ast.Block, tree-walker form
	Chunk   interface{} // *bytecode.Chunk, VM form
	Closure *Environment
}

// BuiltinFunc is the shape every built-in implements: take the
// evaluated argument list, return a value or fail.
type BuiltinFunc func(args []Value) (Value, error)

// Builtin pairs a built-in's name (for diagnostics) with its
// implementation.
type Builtin struct {
	Name string
	Fn   BuiltinFunc
}

// Constructors for the scalar kinds, used throughout eval/compiler/vm
// so call sites read as intent rather than struct literals.

func IntVal(v int64) Value     { return Value{Kind: Int, I: v} }
func FloatVal(v float64) Value { return Value{Kind: Float, F: v} }
func StrVal(v string) Value    { return Value{Kind: Str, S: v} }
func BoolVal(v bool) Value     { return Value{Kind: Bool, B: v} }
func NoneVal() Value           { return Value{Kind: None} }
func ListVal(items []Value) Value {
	return Value{Kind: List, List: &List{Items: items}}
}
func FuncVal(fn *Function) Value       { return Value{Kind: Func, Fn: fn} }
func BuiltinVal(b *Builtin) Value      { return Value{Kind: Builtin, Bltn: b} }

// Truthy implements the language's truthiness rule: none and false
// are falsy; zero, 0.0, the empty string, and the empty list are
// falsy; everything else is truthy.
func Truthy(v Value) bool {
	switch v.Kind {
	case None:
		return false
	case Bool:
		return v.B
	case Int:
		return v.I != 0
	case Float:
		return v.F != 0
	case Str:
		return v.S != ""
	case List:
		return len(v.List.Items) != 0
	default:
		return true
	}
}

// isNumeric reports whether v is Int or Float.
func isNumeric(v Value) bool { return v.Kind == Int || v.Kind == Float }

func asFloat(v Value) float64 {
	if v.Kind == Int {
		return float64(v.I)
	}
	return v.F
}

// Display renders a value the way `print` does: no quotes around
// strings, Go's default float formatting for fractional numbers.
func Display(v Value) string {
	switch v.Kind {
	case Int:
		return fmt.Sprintf("%d", v.I)
	case Float:
		return fmt.Sprintf("%g", v.F)
	case Str:
		return v.S
	case Bool:
		if v.B {
			return "true"
		}
		return "false"
	case None:
		return "none"
	case List:
		parts := make([]string, len(v.List.Items))
		for i, it := range v.List.Items {
			parts[i] = Repr(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Func:
		return fmt.Sprintf("<function %s>", v.Fn.Name)
	case Builtin:
		return fmt.Sprintf("<builtin %s>", v.Bltn.Name)
	default:
		return "<unknown>"
	}
}

// String lets a Value print sensibly wherever a constant pool or a
// disassembler renders it with %v, without those packages needing to
// import runtime to do it.
func (v Value) String() string { return Display(v) }

// Repr renders a value for nested display (inside a list), quoting
// strings so `[10, "x"]` reads unambiguously.
func Repr(v Value) string {
	if v.Kind == Str {
		return fmt.Sprintf("%q", v.S)
	}
	return Display(v)
}

// Len implements the len() built-in's element-count rule: strings
// count runes, matching the indexing unit used by string subscripting
// (indexInto in eval/vm indexes by rune, not byte); lists count
// elements.
func Len(v Value) (int, bool) {
	switch v.Kind {
	case Str:
		return len([]rune(v.S)), true
	case List:
		return len(v.List.Items), true
	default:
		return 0, false
	}
}
