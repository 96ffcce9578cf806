package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "surfsim",
	Short: "surfsim simulates the stream-to-memory DMA buffering FIFO",
	Long: `surfsim runs a cycle-level functional model of the DMA FIFO ` +
		`controller: inbound frames are buffered into a ring of memory ` +
		`slots by a write DMA engine and drained back out by a read DMA ` +
		`engine, under the control of a register-programmable controller.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
