package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skx/raf/compiler"
	"github.com/skx/raf/diag"
	"github.com/skx/raf/eval"
	"github.com/skx/raf/lexer"
	"github.com/skx/raf/parser"
	"github.com/skx/raf/vm"
)

var useVM bool

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a source file with the tree-walking evaluator or the bytecode VM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		src := string(data)

		toks, err := lexer.Lex(src)
		if err != nil {
			printDiag(os.Stderr, src, err)
			os.Exit(1)
		}
		prog, err := parser.Parse(toks, src)
		if err != nil {
			printDiag(os.Stderr, src, err)
			os.Exit(1)
		}

		if useVM {
			chunk, err := compiler.Compile(prog)
			if err != nil {
				printDiag(os.Stderr, src, err)
				os.Exit(1)
			}
			if _, err := vm.New(src).Run(chunk); err != nil {
				printDiag(os.Stderr, src, err)
				os.Exit(1)
			}
			return nil
		}

		it := eval.New(src, filepath.Dir(path))
		if err := it.Run(prog); err != nil {
			printDiag(os.Stderr, src, err)
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&useVM, "vm", false, "execute via the bytecode compiler and VM instead of the tree-walking evaluator")
}

// printDiag renders err with a source snippet and caret when it carries
// a location (a *diag.Error), falling back to its plain message
// otherwise.
func printDiag(w io.Writer, src string, err error) {
	var de *diag.Error
	if errors.As(err, &de) {
		msg := diag.Format(src, de.Line, de.Col, de.Message)
		if de.Trace != "" {
			msg += "\n" + de.Trace
		}
		fmt.Fprintln(w, msg)
		return
	}
	fmt.Fprintln(w, err)
}
