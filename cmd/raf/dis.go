package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skx/raf/bytecode"
	"github.com/skx/raf/compiler"
	"github.com/skx/raf/lexer"
	"github.com/skx/raf/parser"
)

var disCmd = &cobra.Command{
	Use:   "dis <file>",
	Short: "Compile a source file and print its disassembled bytecode",
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
		chunk, err := compiler.Compile(prog)
		if err != nil {
			printDiag(os.Stderr, src, err)
			os.Exit(1)
		}

		fmt.Print(bytecode.Disassemble(chunk))
		return nil
	},
}
