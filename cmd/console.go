package cmd

import (
	"github.com/spf13/cobra"
)

// consoleCmd groups the interactive terminal views.
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive views over recorded scans",
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
