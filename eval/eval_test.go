package eval

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skx/raf/lexer"
	"github.com/skx/raf/parser"
)

func run(t *testing.T, src string) string {
	t.Helper()
	return runInDir(t, src, "")
}

func runInDir(t *testing.T, src, dir string) string {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err, "lex error")
	prog, err := parser.Parse(toks, src)
	require.NoError(t, err, "parse error")

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	it := New(src, dir)
	runErr := it.Run(prog)

	w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	buf.ReadFrom(r)

	require.NoError(t, runErr, "unexpected runtime error")
	return buf.String()
}

func TestIfElseScenario(t *testing.T) {
	got := run(t, `x = 12; if (x >= 10) { print("ok"); } else { print("no"); }`)
	assert.Equal(t, "ok\n", got)
}

func TestWhileLoopScenario(t *testing.T) {
	got := run(t, `i = 0; while (i < 3) { print(i); i = i + 1; }`)
	assert.Equal(t, "0\n1\n2\n", got)
}

func TestFunctionCallScenario(t *testing.T) {
	got := run(t, `def add(a, b) { return a + b; } print(add(2, 5));`)
	assert.Equal(t, "7\n", got)
}

func TestListIndexScenario(t *testing.T) {
	got := run(t, `lst = [10, 20, 30]; print(lst[1]);`)
	assert.Equal(t, "20\n", got)
}

func TestClosureCapturesEnvironmentByReference(t *testing.T) {
	got := run(t, `
x = 1;
def bump() { return x; }
x = 2;
print(bump());
`)
	assert.Equal(t, "2\n", got, "expected closure to see updated binding")
}

func TestShortCircuitAndReturnsLeftWhenFalsy(t *testing.T) {
	got := run(t, `print(0 and 5);`)
	assert.Equal(t, "0\n", got)
}

func TestShortCircuitOrReturnsLeftWhenTruthy(t *testing.T) {
	got := run(t, `print(5 or 0);`)
	assert.Equal(t, "5\n", got)
}

func TestDivisionAlwaysFractional(t *testing.T) {
	got := run(t, `print(4 / 2);`)
	assert.Equal(t, "2\n", got)
}

func TestEmptyProgramPrintsNothing(t *testing.T) {
	got := run(t, ``)
	assert.Equal(t, "", got)
}

func TestEmptyListLen(t *testing.T) {
	got := run(t, `print(len([]));`)
	assert.Equal(t, "0\n", got)
}

func TestNegativeIndexIsOutOfRange(t *testing.T) {
	src := `lst = [1, 2, 3]; print(lst[-1]);`
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	prog, err := parser.Parse(toks, src)
	require.NoError(t, err)
	it := New(src, "")
	assert.Error(t, it.Run(prog))
}

func TestArityMismatchNamesFunctionAndCounts(t *testing.T) {
	src := `def add(a, b) { return a + b; } add(1);`
	toks, _ := lexer.Lex(src)
	prog, _ := parser.Parse(toks, src)
	it := New(src, "")
	err := it.Run(prog)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "add")
	assert.Contains(t, msg, "2")
	assert.Contains(t, msg, "1")
}

func TestStackTraceListsMostRecentCallFirst(t *testing.T) {
	src := `def f() { return g(); } def g() { x = undef; } f();`
	toks, _ := lexer.Lex(src)
	prog, _ := parser.Parse(toks, src)
	it := New(src, "")
	err := it.Run(prog)
	require.Error(t, err)
	msg := err.Error()
	gIdx := strings.Index(msg, "at g ")
	fIdx := strings.Index(msg, "at f ")
	require.GreaterOrEqual(t, gIdx, 0)
	require.GreaterOrEqual(t, fIdx, 0)
	assert.Less(t, gIdx, fIdx, "expected trace to list g before f")
}

func TestImportIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	libDir := filepath.Join(dir, "lib")
	require.NoError(t, os.MkdirAll(libDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "math.raf"), []byte(`print("loaded"); def square(x) { return x * x; }`), 0o644))

	src := `import "lib/math.raf"; import "lib/math.raf"; print(square(9));`
	got := runInDir(t, src, dir)
	assert.Equal(t, "loaded\n81\n", got, "expected the module body to run only once")
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	src := `print(1 / 0);`
	toks, _ := lexer.Lex(src)
	prog, _ := parser.Parse(toks, src)
	it := New(src, "")
	assert.Error(t, it.Run(prog))
}
