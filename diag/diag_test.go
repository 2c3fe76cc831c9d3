package diag

import (
	"strings"
	"testing"
)

func TestFormatWithSnippetAndCaret(t *testing.T) {
	src := "x = 1\ny = $\n"
	got := Format(src, 2, 5, "unexpected character \"$\"")

	want := "[line 2, col 5] unexpected character \"$\"\n    y = $\n        ^"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatOutOfRangeLine(t *testing.T) {
	got := Format("x = 1\n", 99, 1, "boom")
	if got != "[line 99, col 1] boom" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestErrorImplementsError(t *testing.T) {
	var err error = New(RuntimeError, 3, 1, "division by zero")
	if !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("Error() missing message: %q", err.Error())
	}
}

func TestWithTraceAppendsStackTrace(t *testing.T) {
	e := New(RuntimeError, 10, 2, "boom")
	trace := FormatStackTrace([]Frame{
		{Name: "outer", Line: 1, Col: 1},
		{Name: "inner", Line: 10, Col: 2},
	})
	withTrace := e.WithTrace(trace)

	got := withTrace.Error()
	if !strings.Contains(got, "boom") {
		t.Fatalf("missing message: %q", got)
	}
	if !strings.Contains(got, "Stack trace (most recent call last):") {
		t.Fatalf("missing trace header: %q", got)
	}
	wantOrder := []string{"at inner (line 10, col 2)", "at outer (line 1, col 1)"}
	lastIdx := -1
	for _, frag := range wantOrder {
		idx := strings.Index(got, frag)
		if idx < 0 {
			t.Fatalf("missing frame %q in %q", frag, got)
		}
		if idx < lastIdx {
			t.Fatalf("frames out of order in %q", got)
		}
		lastIdx = idx
	}

	// Original error must be untouched (WithTrace returns a copy).
	if strings.Contains(e.Error(), "Stack trace") {
		t.Fatalf("original error mutated: %q", e.Error())
	}
}

func TestFormatStackTraceEmpty(t *testing.T) {
	if got := FormatStackTrace(nil); got != "" {
		t.Fatalf("expected empty trace, got %q", got)
	}
}

func TestKindStrings(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{LexError, "lex error"},
		{ParseError, "parse error"},
		{RuntimeError, "runtime error"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind.String() = %q, want %q", got, tt.want)
		}
	}
}
