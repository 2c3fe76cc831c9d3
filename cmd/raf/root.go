package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:     "raf",
	Short:   "raf runs and inspects programs written in the raf language",
	Version: "0.1.0",
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(disCmd)
	rootCmd.AddCommand(replCmd)
}
