// Package vm executes a bytecode.Chunk with a value stack and a
// call-frame stack, sharing the runtime value model and operator
// semantics with package eval so both back ends stay observably
// equivalent.
//
// Blocks do not get their own environment here: the compiler lowers a
// block's statements flat into the enclosing chunk and the VM creates
// a new environment only at CALL, so a name assigned inside an if or
// while body stays visible after it. The tree-walker, by contrast,
// opens a child environment for every block.
package vm

import (
	"fmt"

	"github.com/skx/raf/bytecode"
	"github.com/skx/raf/diag"
	"github.com/skx/raf/runtime"
)

// Frame is one call-stack entry: the function being executed, its
// instruction pointer, and the environment active in this call.
type Frame struct {
	Fn  *runtime.Function
	IP  int
	Env *runtime.Environment
}

// VM owns the value stack, the frame stack, and the globals
// environment for one run. A VM instance is not safe to share across
// goroutines; the language is single-threaded by design.
type VM struct {
	src string

	stack  *runtime.Stack[runtime.Value]
	frames *runtime.Stack[*Frame]

	globals *runtime.Environment
}

// New creates a VM over src (kept for diagnostic rendering).
func New(src string) *VM {
	v := &VM{
		src:     src,
		stack:   runtime.NewStack[runtime.Value](),
		frames:  runtime.NewStack[*Frame](),
		globals: runtime.NewEnvironment(),
	}
	v.installBuiltins()
	return v
}

func (v *VM) installBuiltins() {
	v.globals.Define("print", runtime.BuiltinVal(&runtime.Builtin{
		Name: "print",
		Fn: func(args []runtime.Value) (runtime.Value, error) {
			parts := make([]interface{}, len(args))
			for i, a := range args {
				parts[i] = runtime.Display(a)
			}
			fmt.Println(parts...)
			return runtime.NoneVal(), nil
		},
	}))
	v.globals.Define("len", runtime.BuiltinVal(&runtime.Builtin{
		Name: "len",
		Fn: func(args []runtime.Value) (runtime.Value, error) {
			if len(args) != 1 {
				return runtime.Value{}, fmt.Errorf("len() expects exactly 1 argument")
			}
			n, ok := runtime.Len(args[0])
			if !ok {
				return runtime.Value{}, fmt.Errorf("len() expects a string or a list")
			}
			return runtime.IntVal(int64(n)), nil
		},
	}))
}

// Run executes chunk as the module body and returns its final value:
// none unless the module itself executes a top-level `return`.
func (v *VM) Run(chunk *bytecode.Chunk) (runtime.Value, error) {
	main := &runtime.Function{Name: chunk.Name, Chunk: chunk, Closure: v.globals}
	v.frames.Push(&Frame{Fn: main, IP: 0, Env: runtime.NewChildEnvironment(v.globals)})

	for !v.frames.Empty() {
		f, _ := v.frames.Peek()
		fc := f.Fn.Chunk.(*bytecode.Chunk)

		if f.IP >= len(fc.Code) {
			v.frames.Pop()
			if v.frames.Empty() {
				break
			}
			v.stack.Push(runtime.NoneVal())
			continue
		}

		ins := fc.Code[f.IP]
		f.IP++

		if err := v.step(ins, f, fc); err != nil {
			return runtime.Value{}, v.runtimeErr(ins, err)
		}
	}

	return v.stack.Pop()
}

func (v *VM) runtimeErr(ins bytecode.Instr, err error) error {
	if ins.Line == 0 && ins.Col == 0 {
		return diag.New(diag.RuntimeError, 0, 0, err.Error())
	}
	return diag.New(diag.RuntimeError, ins.Line, ins.Col, err.Error())
}

func (v *VM) step(ins bytecode.Instr, f *Frame, fc *bytecode.Chunk) error {
	switch ins.Op {
	case bytecode.CONST:
		val, err := constValue(fc, ins.A)
		if err != nil {
			return err
		}
		v.stack.Push(val)
		return nil

	case bytecode.POP:
		_, err := v.stack.Pop()
		return err

	case bytecode.LOAD:
		name, err := constName(fc, ins.A)
		if err != nil {
			return err
		}
		val, err := f.Env.Get(name)
		if err != nil {
			return err
		}
		v.stack.Push(val)
		return nil

	case bytecode.STORE:
		name, err := constName(fc, ins.A)
		if err != nil {
			return err
		}
		val, err := v.stack.Peek()
		if err != nil {
			return err
		}
		if err := f.Env.Set(name, val); err != nil {
			f.Env.Define(name, val)
		}
		return nil

	case bytecode.NEG:
		x, err := v.stack.Pop()
		if err != nil {
			return err
		}
		r, err := runtime.Neg(x)
		if err != nil {
			return err
		}
		v.stack.Push(r)
		return nil

	case bytecode.NOT:
		x, err := v.stack.Pop()
		if err != nil {
			return err
		}
		v.stack.Push(runtime.Not(x))
		return nil

	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD,
		bytecode.EQ, bytecode.NEQ, bytecode.LT, bytecode.LTE, bytecode.GT, bytecode.GTE:
		return v.binaryOp(ins.Op)

	case bytecode.JUMP:
		f.IP += ins.A
		return nil

	case bytecode.JUMPIfFalse:
		top, err := v.stack.Peek()
		if err != nil {
			return err
		}
		if !runtime.Truthy(top) {
			f.IP += ins.A
		}
		return nil

	case bytecode.JUMPIfTrue:
		top, err := v.stack.Peek()
		if err != nil {
			return err
		}
		if runtime.Truthy(top) {
			f.IP += ins.A
		}
		return nil

	case bytecode.BUILDList:
		items, err := v.stack.PopN(ins.A)
		if err != nil {
			return err
		}
		v.stack.Push(runtime.ListVal(items))
		return nil

	case bytecode.INDEX:
		idx, err := v.stack.Pop()
		if err != nil {
			return err
		}
		target, err := v.stack.Pop()
		if err != nil {
			return err
		}
		res, err := indexInto(target, idx)
		if err != nil {
			return err
		}
		v.stack.Push(res)
		return nil

	case bytecode.MAKEFunc:
		if ins.A < 0 || ins.A >= len(fc.Consts) {
			return fmt.Errorf("constant index %d out of range", ins.A)
		}
		proto, ok := fc.Consts[ins.A].(*bytecode.Prototype)
		if !ok {
			return fmt.Errorf("constant at index %d is not a function prototype", ins.A)
		}
		fn := &runtime.Function{
			Name:    proto.Chunk.Name,
			Params:  proto.Params,
			Chunk:   proto.Chunk,
			Closure: f.Env,
		}
		v.stack.Push(runtime.FuncVal(fn))
		return nil

	case bytecode.CALL:
		return v.call(ins.A)

	case bytecode.RET:
		var ret runtime.Value
		if !v.stack.Empty() {
			ret, _ = v.stack.Pop()
		} else {
			ret = runtime.NoneVal()
		}
		v.frames.Pop()
		v.stack.Push(ret)
		return nil
	}

	return fmt.Errorf("unknown opcode: %s", ins.Op)
}

func (v *VM) binaryOp(op bytecode.Op) error {
	b, err := v.stack.Pop()
	if err != nil {
		return err
	}
	a, err := v.stack.Pop()
	if err != nil {
		return err
	}

	var res runtime.Value
	switch op {
	case bytecode.ADD:
		res, err = runtime.Add(a, b)
	case bytecode.SUB:
		res, err = runtime.Sub(a, b)
	case bytecode.MUL:
		res, err = runtime.Mul(a, b)
	case bytecode.DIV:
		res, err = runtime.Div(a, b)
	case bytecode.MOD:
		res, err = runtime.Mod(a, b)
	case bytecode.EQ:
		res = runtime.BoolVal(runtime.Equal(a, b))
	case bytecode.NEQ:
		res = runtime.BoolVal(!runtime.Equal(a, b))
	case bytecode.LT, bytecode.LTE, bytecode.GT, bytecode.GTE:
		var cmp int
		cmp, err = runtime.Compare(a, b)
		if err == nil {
			switch op {
			case bytecode.LT:
				res = runtime.BoolVal(cmp < 0)
			case bytecode.LTE:
				res = runtime.BoolVal(cmp <= 0)
			case bytecode.GT:
				res = runtime.BoolVal(cmp > 0)
			case bytecode.GTE:
				res = runtime.BoolVal(cmp >= 0)
			}
		}
	}
	if err != nil {
		return err
	}
	v.stack.Push(res)
	return nil
}

func (v *VM) call(argc int) error {
	args, err := v.stack.PopN(argc)
	if err != nil {
		return err
	}
	callee, err := v.stack.Pop()
	if err != nil {
		return err
	}

	switch callee.Kind {
	case runtime.Builtin:
		res, err := callee.Bltn.Fn(args)
		if err != nil {
			return err
		}
		v.stack.Push(res)
		return nil

	case runtime.Func:
		fn := callee.Fn
		if len(args) != len(fn.Params) {
			return fmt.Errorf("%s() expected %d args, got %d", fn.Name, len(fn.Params), len(args))
		}
		newEnv := runtime.NewChildEnvironment(fn.Closure)
		for i, p := range fn.Params {
			newEnv.Define(p, args[i])
		}
		v.frames.Push(&Frame{Fn: fn, IP: 0, Env: newEnv})
		return nil

	default:
		return fmt.Errorf("can only call functions")
	}
}

func constValue(fc *bytecode.Chunk, idx int) (runtime.Value, error) {
	if idx < 0 || idx >= len(fc.Consts) {
		return runtime.Value{}, fmt.Errorf("constant index %d out of range", idx)
	}
	val, ok := fc.Consts[idx].(runtime.Value)
	if !ok {
		return runtime.Value{}, fmt.Errorf("constant at index %d is not a value", idx)
	}
	return val, nil
}

func constName(fc *bytecode.Chunk, idx int) (string, error) {
	if idx < 0 || idx >= len(fc.Consts) {
		return "", fmt.Errorf("constant index %d out of range", idx)
	}
	name, ok := fc.Consts[idx].(string)
	if !ok {
		return "", fmt.Errorf("constant at index %d is not a name", idx)
	}
	return name, nil
}

func indexInto(target, idx runtime.Value) (runtime.Value, error) {
	if idx.Kind != runtime.Int {
		return runtime.Value{}, fmt.Errorf("index must be an integer")
	}
	switch target.Kind {
	case runtime.List:
		items := target.List.Items
		if idx.I < 0 || idx.I >= int64(len(items)) {
			return runtime.Value{}, fmt.Errorf("list index out of range")
		}
		return items[idx.I], nil
	case runtime.Str:
		runes := []rune(target.S)
		if idx.I < 0 || idx.I >= int64(len(runes)) {
			return runtime.Value{}, fmt.Errorf("string index out of range")
		}
		return runtime.StrVal(string(runes[idx.I])), nil
	default:
		return runtime.Value{}, fmt.Errorf("cannot index a %s", target.Kind)
	}
}
