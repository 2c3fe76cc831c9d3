package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skx/raf/eval"
	"github.com/skx/raf/lexer"
	"github.com/skx/raf/parser"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive read-eval-print loop over stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runRepl(os.Stdin, os.Stdout)
		return nil
	},
}

// runRepl reads statements from in, buffering lines until the buffer's
// trailing non-whitespace character is ';' or '}' (a complete
// statement or block), then runs the buffered source against a single
// Interpreter whose globals persist across submissions. "quit" and
// "exit" end the loop only when typed with an empty buffer, so they
// can still appear as ordinary identifiers mid-statement.
func runRepl(in *os.File, out *os.File) {
	it := eval.New("", "")
	scanner := bufio.NewScanner(in)

	var buf strings.Builder
	prompt := func() {
		if buf.Len() == 0 {
			fmt.Fprint(out, ">>> ")
		} else {
			fmt.Fprint(out, "... ")
		}
	}

	prompt()
	for scanner.Scan() {
		line := scanner.Text()

		if buf.Len() == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "quit" || trimmed == "exit" {
				return
			}
		}

		buf.WriteString(line)
		buf.WriteString("\n")

		if readyToRun(buf.String()) {
			src := buf.String()
			buf.Reset()
			runChunk(it, src, out)
		}

		prompt()
	}
}

// readyToRun reports whether src's trailing non-whitespace character
// ends a statement or block, triggering submission of the buffer.
func readyToRun(src string) bool {
	trimmed := strings.TrimRightFunc(src, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ' ' || r == '\t'
	})
	if trimmed == "" {
		return false
	}
	last := trimmed[len(trimmed)-1]
	return last == ';' || last == '}'
}

func runChunk(it *eval.Interpreter, src string, out *os.File) {
	toks, err := lexer.Lex(src)
	if err != nil {
		printDiag(out, src, err)
		return
	}
	prog, err := parser.Parse(toks, src)
	if err != nil {
		printDiag(out, src, err)
		return
	}
	if err := it.RunInEnv(prog, it.Globals()); err != nil {
		printDiag(out, src, err)
	}
}
