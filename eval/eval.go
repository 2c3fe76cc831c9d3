// Package eval is the tree-walking evaluator: it executes a parsed
// program directly over the runtime model, handling closures,
// imports, and a per-call stack trace for diagnostics.
//
// Control flow uses an explicit (signal, error) return pair threaded
// through every exec/eval function rather than panic/recover, so a
// `return` deep inside nested blocks unwinds through ordinary Go
// returns.
package eval

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skx/raf/ast"
	"github.com/skx/raf/diag"
	"github.com/skx/raf/lexer"
	"github.com/skx/raf/parser"
	"github.com/skx/raf/runtime"
	"github.com/skx/raf/token"
)

// Interpreter executes a program's statements, owning the globals
// environment, the active call-stack trace, and the set of already
// imported module paths.
type Interpreter struct {
	src     string
	baseDir string

	globals *runtime.Environment

	frames   []diag.Frame
	imported map[string]bool
}

// New builds an Interpreter over src, resolving relative import paths
// against baseDir (the importing file's directory).
func New(src, baseDir string) *Interpreter {
	it := &Interpreter{
		src:      src,
		baseDir:  baseDir,
		globals:  runtime.NewEnvironment(),
		imported: make(map[string]bool),
	}
	it.installBuiltins()
	return it
}

// Globals exposes the root environment, so a REPL can keep it alive
// across successive chunks of input.
func (it *Interpreter) Globals() *runtime.Environment { return it.globals }

func (it *Interpreter) installBuiltins() {
	it.globals.Define("print", runtime.BuiltinVal(&runtime.Builtin{
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
	it.globals.Define("len", runtime.BuiltinVal(&runtime.Builtin{
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

// Run executes prog's statements in the globals environment.
func (it *Interpreter) Run(prog *ast.Program) error {
	return it.RunInEnv(prog, it.globals)
}

// RunInEnv executes prog's statements in a caller-supplied
// environment, letting a REPL persist bindings across successive
// reads of standard input.
func (it *Interpreter) RunInEnv(prog *ast.Program, env *runtime.Environment) error {
	for _, stmt := range prog.Statements {
		if _, err := it.execStmt(stmt, env); err != nil {
			return err
		}
	}
	return nil
}

// wrap turns the first plain error reaching a token-bearing site into
// a positioned *diag.Error carrying the current call-stack trace. An
// error that is already a *diag.Error passes through unchanged, so
// propagation rewrites location exactly once, per §7.
func (it *Interpreter) wrap(tok token.Token, err error) error {
	if err == nil {
		return nil
	}
	var de *diag.Error
	if errors.As(err, &de) {
		return de
	}
	e := diag.New(diag.RuntimeError, tok.Line, tok.Col, err.Error())
	if trace := diag.FormatStackTrace(it.frames); trace != "" {
		e = e.WithTrace(trace)
	}
	return e
}

func (it *Interpreter) resolveImportPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	base := it.baseDir
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			base = wd
		}
	}
	return filepath.Clean(filepath.Join(base, path))
}

// ---- statements ----

// execStmt executes one statement, returning a non-nil ReturnSignal
// when the statement (or something it contains) hit a `return`.
func (it *Interpreter) execStmt(stmt ast.Stmt, env *runtime.Environment) (*runtime.ReturnSignal, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := it.evalExpr(s.X, env)
		return nil, it.wrap(s.Token, err)

	case *ast.Assign:
		val, err := it.evalExpr(s.Value, env)
		if err != nil {
			return nil, it.wrap(s.Token, err)
		}
		if err := env.Set(s.Name, val); err != nil {
			env.Define(s.Name, val)
		}
		return nil, nil

	case *ast.Import:
		return nil, it.wrap(s.Token, it.execImport(s, env))

	case *ast.Block:
		return it.execBlock(s, runtime.NewChildEnvironment(env))

	case *ast.If:
		cond, err := it.evalExpr(s.Cond, env)
		if err != nil {
			return nil, it.wrap(s.Token, err)
		}
		if runtime.Truthy(cond) {
			return it.execBlock(s.Then, runtime.NewChildEnvironment(env))
		}
		if s.Else != nil {
			return it.execBlock(s.Else, runtime.NewChildEnvironment(env))
		}
		return nil, nil

	case *ast.While:
		for {
			cond, err := it.evalExpr(s.Cond, env)
			if err != nil {
				return nil, it.wrap(s.Token, err)
			}
			if !runtime.Truthy(cond) {
				return nil, nil
			}
			sig, err := it.execBlock(s.Body, runtime.NewChildEnvironment(env))
			if err != nil || sig != nil {
				return sig, err
			}
		}

	case *ast.Def:
		fn := &runtime.Function{
			Name:    s.Name,
			Params:  s.Params,
			Body:    s.Body,
			Closure: env,
		}
		env.Define(s.Name, runtime.FuncVal(fn))
		return nil, nil

	case *ast.Return:
		if s.Value == nil {
			return &runtime.ReturnSignal{Value: runtime.NoneVal()}, nil
		}
		val, err := it.evalExpr(s.Value, env)
		if err != nil {
			return nil, it.wrap(s.Token, err)
		}
		return &runtime.ReturnSignal{Value: val}, nil
	}

	return nil, fmt.Errorf("unknown statement type %T", stmt)
}

// execBlock executes a block's statements in order within env,
// stopping at the first error or return signal.
func (it *Interpreter) execBlock(block *ast.Block, env *runtime.Environment) (*runtime.ReturnSignal, error) {
	for _, stmt := range block.Statements {
		sig, err := it.execStmt(stmt, env)
		if err != nil || sig != nil {
			return sig, err
		}
	}
	return nil, nil
}

// execImport resolves, caches, and (on first sight) lexes, parses and
// runs an imported module's statements into the importing env,
// temporarily swapping in the module's own source and base directory
// so its own diagnostics point at the right file.
func (it *Interpreter) execImport(s *ast.Import, env *runtime.Environment) error {
	full := it.resolveImportPath(s.Path)

	if it.imported[full] {
		return nil
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return fmt.Errorf("import not found: %s", s.Path)
	}
	it.imported[full] = true

	modSrc := string(data)
	prevSrc, prevBase := it.src, it.baseDir
	it.src = modSrc
	it.baseDir = filepath.Dir(full)
	defer func() {
		it.src = prevSrc
		it.baseDir = prevBase
	}()

	toks, err := lexer.Lex(modSrc)
	if err != nil {
		return err
	}
	prog, err := parser.Parse(toks, modSrc)
	if err != nil {
		return err
	}
	for _, stmt := range prog.Statements {
		if _, err := it.execStmt(stmt, env); err != nil {
			return err
		}
	}
	return nil
}

// ---- expressions ----

func (it *Interpreter) evalExpr(expr ast.Expr, env *runtime.Environment) (runtime.Value, error) {
	switch e := expr.(type) {
	case *ast.Number:
		if e.Frac {
			return runtime.FloatVal(e.Float), nil
		}
		return runtime.IntVal(e.Int), nil

	case *ast.String:
		return runtime.StrVal(e.Value), nil

	case *ast.Bool:
		return runtime.BoolVal(e.Value), nil

	case *ast.NoneLit:
		return runtime.NoneVal(), nil

	case *ast.Var:
		v, err := env.Get(e.Name)
		return v, it.wrap(e.Token, err)

	case *ast.ListLit:
		items := make([]runtime.Value, len(e.Items))
		for i, item := range e.Items {
			v, err := it.evalExpr(item, env)
			if err != nil {
				return runtime.Value{}, it.wrap(e.Token, err)
			}
			items[i] = v
		}
		return runtime.ListVal(items), nil

	case *ast.Index:
		target, err := it.evalExpr(e.Target, env)
		if err != nil {
			return runtime.Value{}, it.wrap(e.Token, err)
		}
		idx, err := it.evalExpr(e.Idx, env)
		if err != nil {
			return runtime.Value{}, it.wrap(e.Token, err)
		}
		v, err := indexInto(target, idx)
		return v, it.wrap(e.Token, err)

	case *ast.Unary:
		right, err := it.evalExpr(e.Operand, env)
		if err != nil {
			return runtime.Value{}, it.wrap(e.Token, err)
		}
		switch e.Op {
		case token.MINUS:
			v, err := runtime.Neg(right)
			return v, it.wrap(e.Token, err)
		case token.NOT:
			return runtime.Not(right), nil
		}
		return runtime.Value{}, it.wrap(e.Token, fmt.Errorf("unknown unary operator %s", e.Op))

	case *ast.Binary:
		return it.evalBinary(e, env)

	case *ast.Call:
		return it.evalCall(e, env)
	}

	return runtime.Value{}, fmt.Errorf("unknown expression type %T", expr)
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

func (it *Interpreter) evalBinary(e *ast.Binary, env *runtime.Environment) (runtime.Value, error) {
	if e.Op == token.AND {
		left, err := it.evalExpr(e.Left, env)
		if err != nil {
			return runtime.Value{}, it.wrap(e.Token, err)
		}
		if !runtime.Truthy(left) {
			return left, nil
		}
		right, err := it.evalExpr(e.Right, env)
		return right, it.wrap(e.Token, err)
	}
	if e.Op == token.OR {
		left, err := it.evalExpr(e.Left, env)
		if err != nil {
			return runtime.Value{}, it.wrap(e.Token, err)
		}
		if runtime.Truthy(left) {
			return left, nil
		}
		right, err := it.evalExpr(e.Right, env)
		return right, it.wrap(e.Token, err)
	}

	left, err := it.evalExpr(e.Left, env)
	if err != nil {
		return runtime.Value{}, it.wrap(e.Token, err)
	}
	right, err := it.evalExpr(e.Right, env)
	if err != nil {
		return runtime.Value{}, it.wrap(e.Token, err)
	}

	var v runtime.Value
	switch e.Op {
	case token.PLUS:
		v, err = runtime.Add(left, right)
	case token.MINUS:
		v, err = runtime.Sub(left, right)
	case token.STAR:
		v, err = runtime.Mul(left, right)
	case token.SLASH:
		v, err = runtime.Div(left, right)
	case token.PERCENT:
		v, err = runtime.Mod(left, right)
	case token.EQEQ:
		v = runtime.BoolVal(runtime.Equal(left, right))
	case token.NEQ:
		v = runtime.BoolVal(!runtime.Equal(left, right))
	case token.LT, token.LTE, token.GT, token.GTE:
		var cmp int
		cmp, err = runtime.Compare(left, right)
		if err == nil {
			switch e.Op {
			case token.LT:
				v = runtime.BoolVal(cmp < 0)
			case token.LTE:
				v = runtime.BoolVal(cmp <= 0)
			case token.GT:
				v = runtime.BoolVal(cmp > 0)
			case token.GTE:
				v = runtime.BoolVal(cmp >= 0)
			}
		}
	default:
		err = fmt.Errorf("unknown operator %s", e.Op)
	}
	return v, it.wrap(e.Token, err)
}

func (it *Interpreter) evalCall(e *ast.Call, env *runtime.Environment) (runtime.Value, error) {
	callee, err := it.evalExpr(e.Callee, env)
	if err != nil {
		return runtime.Value{}, it.wrap(e.Token, err)
	}

	args := make([]runtime.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := it.evalExpr(a, env)
		if err != nil {
			return runtime.Value{}, it.wrap(e.Token, err)
		}
		args[i] = v
	}

	switch callee.Kind {
	case runtime.Builtin:
		v, err := callee.Bltn.Fn(args)
		return v, it.wrap(e.Token, err)

	case runtime.Func:
		it.frames = append(it.frames, diag.Frame{Name: callee.Fn.Name, Line: e.Token.Line, Col: e.Token.Col})
		v, err := it.callUserFunction(callee.Fn, args)
		it.frames = it.frames[:len(it.frames)-1]
		return v, it.wrap(e.Token, err)

	default:
		return runtime.Value{}, it.wrap(e.Token, fmt.Errorf("can only call functions"))
	}
}

func (it *Interpreter) callUserFunction(fn *runtime.Function, args []runtime.Value) (runtime.Value, error) {
	if len(args) != len(fn.Params) {
		return runtime.Value{}, fmt.Errorf("%s() expected %d args, got %d", fn.Name, len(fn.Params), len(args))
	}
	body, ok := fn.Body.(*ast.Block)
	if !ok {
		return runtime.Value{}, fmt.Errorf("%s is not a tree-walker function", fn.Name)
	}

	local := runtime.NewChildEnvironment(fn.Closure)
	for i, p := range fn.Params {
		local.Define(p, args[i])
	}

	sig, err := it.execBlock(body, local)
	if err != nil {
		return runtime.Value{}, err
	}
	if sig != nil {
		return sig.Value, nil
	}
	return runtime.NoneVal(), nil
}
