package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "custodyctl",
	Short: "Run and manage the key custody server",
	Long: `custodyctl runs the key custody API server and manages its database,
data key and configuration.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
