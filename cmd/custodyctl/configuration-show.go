package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/keycustody/pkg/config"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show custody configuration attributes and their sources",
	Long: `Show custody configuration attributes and their sources.

The values displayed by this command reflect the current state of the
configuration sources. For example, the environment variables and config
file. These may not reflect the current values used by the running server.
The token secret is never printed.

Config file location: /etc/custody/custody.yml (or CUSTODY_CONFIG_PATH)

Example:
  custodyctl configuration show
  custodyctl configuration show --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		if err := showConfiguration(os.Stdout, config.Dir(), output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show configuration: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func showConfiguration(w io.Writer, dir, output string) error {
	cfg, err := config.LoadFrom(dir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	switch output {
	case "json":
		jsonOutput, err := cfg.FormatJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, jsonOutput)
		return err
	case "text", "":
		_, err = fmt.Fprint(w, cfg.FormatText())
		return err
	}
	return fmt.Errorf("unknown output format %q (want text or json)", output)
}
