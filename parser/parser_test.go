package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skx/raf/ast"
	"github.com/skx/raf/diag"
	"github.com/skx/raf/lexer"
	"github.com/skx/raf/token"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err, "lex error")
	prog, err := Parse(toks, src)
	require.NoError(t, err, "parse error")
	return prog
}

// astDiffOpts ignores token.Token fields throughout the tree: they
// carry line/col/lexeme bookkeeping that structural equality tests
// don't care about.
var astDiffOpts = cmp.Options{
	cmpopts.IgnoreFields(ast.Number{}, "Token"),
	cmpopts.IgnoreFields(ast.String{}, "Token"),
	cmpopts.IgnoreFields(ast.Bool{}, "Token"),
	cmpopts.IgnoreFields(ast.NoneLit{}, "Token"),
	cmpopts.IgnoreFields(ast.Var{}, "Token"),
	cmpopts.IgnoreFields(ast.Unary{}, "Token"),
	cmpopts.IgnoreFields(ast.Binary{}, "Token"),
	cmpopts.IgnoreFields(ast.Call{}, "Token"),
	cmpopts.IgnoreFields(ast.ListLit{}, "Token"),
	cmpopts.IgnoreFields(ast.Index{}, "Token"),
	cmpopts.IgnoreFields(ast.ExprStmt{}, "Token"),
	cmpopts.IgnoreFields(ast.Assign{}, "Token"),
	cmpopts.IgnoreFields(ast.Import{}, "Token"),
	cmpopts.IgnoreFields(ast.Block{}, "Token"),
	cmpopts.IgnoreFields(ast.If{}, "Token"),
	cmpopts.IgnoreFields(ast.While{}, "Token"),
	cmpopts.IgnoreFields(ast.Return{}, "Token"),
	cmpopts.IgnoreFields(ast.Def{}, "Token"),
}

func TestParseAssignment(t *testing.T) {
	prog := mustParse(t, `x = 1 + 2;`)
	require.Len(t, prog.Statements, 1)
	assign, ok := prog.Statements[0].(*ast.Assign)
	require.True(t, ok, "expected *ast.Assign, got %T", prog.Statements[0])
	assert.Equal(t, "x", assign.Name)

	want := &ast.Program{Statements: []ast.Stmt{
		&ast.Assign{Name: "x", Value: &ast.Binary{
			Op:    token.PLUS,
			Left:  &ast.Number{Int: 1},
			Right: &ast.Number{Int: 2},
		}},
	}}
	if diff := cmp.Diff(want, prog, astDiffOpts...); diff != "" {
		t.Fatalf("AST mismatch (-want +got):\n%s", diff)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	// "1 + 2 * 3" should parse as 1 + (2 * 3)
	prog := mustParse(t, `x = 1 + 2 * 3;`)
	assign := prog.Statements[0].(*ast.Assign)
	add, ok := assign.Value.(*ast.Binary)
	require.True(t, ok, "expected top-level binary, got %T", assign.Value)
	assert.Equal(t, int64(1), add.Left.(*ast.Number).Int)
	mul, ok := add.Right.(*ast.Binary)
	require.True(t, ok, "expected right operand to be a binary (*), got %T", add.Right)
	assert.Equal(t, int64(2), mul.Left.(*ast.Number).Int)
	assert.Equal(t, int64(3), mul.Right.(*ast.Number).Int)
}

func TestLeftAssociativity(t *testing.T) {
	// "1 - 2 - 3" should parse as (1 - 2) - 3
	prog := mustParse(t, `x = 1 - 2 - 3;`)
	assign := prog.Statements[0].(*ast.Assign)
	outer := assign.Value.(*ast.Binary)
	inner, ok := outer.Left.(*ast.Binary)
	require.True(t, ok, "expected left-nested binary, got %T", outer.Left)
	assert.Equal(t, int64(1), inner.Left.(*ast.Number).Int)
	assert.Equal(t, int64(2), inner.Right.(*ast.Number).Int)
	assert.Equal(t, int64(3), outer.Right.(*ast.Number).Int)
}

func TestIfElse(t *testing.T) {
	prog := mustParse(t, `if (x >= 10) { print("ok"); } else { print("no"); }`)
	ifStmt, ok := prog.Statements[0].(*ast.If)
	require.True(t, ok, "expected *ast.If, got %T", prog.Statements[0])
	assert.Len(t, ifStmt.Then.Statements, 1)
	require.NotNil(t, ifStmt.Else)
	assert.Len(t, ifStmt.Else.Statements, 1)
}

func TestWhileLoop(t *testing.T) {
	prog := mustParse(t, `while (i < 3) { i = i + 1; }`)
	w, ok := prog.Statements[0].(*ast.While)
	require.True(t, ok, "expected *ast.While, got %T", prog.Statements[0])
	assert.Len(t, w.Body.Statements, 1)
}

func TestDefAndCall(t *testing.T) {
	prog := mustParse(t, `def add(a, b) { return a + b; } print(add(2, 5));`)
	require.Len(t, prog.Statements, 2)
	def, ok := prog.Statements[0].(*ast.Def)
	require.True(t, ok, "expected *ast.Def, got %T", prog.Statements[0])
	assert.Equal(t, "add", def.Name)
	assert.Equal(t, []string{"a", "b"}, def.Params)

	exprStmt, ok := prog.Statements[1].(*ast.ExprStmt)
	require.True(t, ok, "expected *ast.ExprStmt, got %T", prog.Statements[1])
	call, ok := exprStmt.X.(*ast.Call)
	require.True(t, ok, "expected *ast.Call, got %T", exprStmt.X)
	assert.Len(t, call.Args, 2)
}

func TestListLiteralAndIndex(t *testing.T) {
	prog := mustParse(t, `lst = [10, 20, 30]; print(lst[1]);`)
	assign := prog.Statements[0].(*ast.Assign)
	list, ok := assign.Value.(*ast.ListLit)
	require.True(t, ok, "expected *ast.ListLit, got %T", assign.Value)
	assert.Len(t, list.Items, 3)

	exprStmt := prog.Statements[1].(*ast.ExprStmt)
	call := exprStmt.X.(*ast.Call)
	idx, ok := call.Args[0].(*ast.Index)
	require.True(t, ok, "expected *ast.Index, got %T", call.Args[0])
	assert.Equal(t, "lst", idx.Target.(*ast.Var).Name)
}

func TestImportStatement(t *testing.T) {
	prog := mustParse(t, `import "lib/math.raf";`)
	imp, ok := prog.Statements[0].(*ast.Import)
	require.True(t, ok, "expected *ast.Import, got %T", prog.Statements[0])
	assert.Equal(t, "lib/math.raf", imp.Path)
}

func TestUnaryOperators(t *testing.T) {
	prog := mustParse(t, `x = -1; y = not true;`)
	neg := prog.Statements[0].(*ast.Assign).Value.(*ast.Unary)
	assert.Equal(t, int64(1), neg.Operand.(*ast.Number).Int)
	not := prog.Statements[1].(*ast.Assign).Value.(*ast.Unary)
	assert.True(t, not.Operand.(*ast.Bool).Value)
}

func TestReturnWithAndWithoutValue(t *testing.T) {
	prog := mustParse(t, `def f() { return; } def g() { return 1; }`)
	fBody := prog.Statements[0].(*ast.Def).Body
	ret := fBody.Statements[0].(*ast.Return)
	assert.Nil(t, ret.Value)
	gBody := prog.Statements[1].(*ast.Def).Body
	ret2 := gBody.Statements[0].(*ast.Return)
	assert.NotNil(t, ret2.Value)
}

func TestFractionalNumberLiteral(t *testing.T) {
	prog := mustParse(t, `x = 17.5;`)
	num := prog.Statements[0].(*ast.Assign).Value.(*ast.Number)
	assert.True(t, num.Frac)
	assert.Equal(t, 17.5, num.Float)
}

func TestSyntaxErrorReportsLocation(t *testing.T) {
	toks, err := lexer.Lex(`x = ;`)
	require.NoError(t, err)
	_, err = Parse(toks, `x = ;`)
	assert.Error(t, err)

	// The offending token is the ';' at column 5.
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 1, de.Line)
	assert.Equal(t, 5, de.Col)
}

func TestUnterminatedBlockReportsLocation(t *testing.T) {
	toks, err := lexer.Lex(`if (true) { print(1);`)
	require.NoError(t, err)
	_, err = Parse(toks, `if (true) { print(1);`)
	assert.Error(t, err)

	// Reported at the unmatched '{' (column 11), not at EOF.
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 1, de.Line)
	assert.Equal(t, 11, de.Col)
}
