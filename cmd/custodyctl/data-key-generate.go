package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/keycustody/pkg/datakey"
)

// dataKeyGenerateCmd represents the data-key > generate command
var dataKeyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a data encryption key",
	Long: `
Generate a data encryption key

Use this command to generate a new Base64-encoded 256 bit data encryption key. Once generated, this key can be placed into the environment of
the custody server. New user key material is then wrapped with it before it is written to the database.

Example:

$ export CUSTODY_DATA_KEY="$(custodyctl data-key generate)"
`,
	Run: func(cmd *cobra.Command, args []string) {
		key, err := datakey.Generate()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to generate data key:", err)
			os.Exit(1)
		}
		fmt.Printf("%s", key)
	},
}

func init() {
	dataKeyCmd.AddCommand(dataKeyGenerateCmd)
}
