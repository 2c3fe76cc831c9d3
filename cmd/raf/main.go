// Command raf is the driver over the language's two back ends: run a
// source file (tree-walker or VM), disassemble its compiled chunk, or
// read statements from standard input in an interactive loop.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
