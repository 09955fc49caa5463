package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/keycustody/pkg/datakey"
)

// tokenSecretSize matches the HS512 block size, enough for any supported algorithm
const tokenSecretSize = 64

// tokenSecretCmd represents the token-secret command
var tokenSecretCmd = &cobra.Command{
	Use:   "token-secret",
	Short: "Manage the bearer token signing secret",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'token-secret' requires a subcommand generate")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var tokenSecretGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a token signing secret",
	Long: `Generate a random secret for signing bearer tokens.

Example:

$ export CUSTODY_TOKEN_SECRET="$(custodyctl token-secret generate)"`,
	Run: func(cmd *cobra.Command, args []string) {
		secret, err := generateTokenSecret()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to generate token secret:", err)
			os.Exit(1)
		}
		fmt.Printf("%s", secret)
	},
}

func generateTokenSecret() (string, error) {
	raw, err := datakey.RandomBytes(tokenSecretSize)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func init() {
	rootCmd.AddCommand(tokenSecretCmd)
	tokenSecretCmd.AddCommand(tokenSecretGenerateCmd)
}
