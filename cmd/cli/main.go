package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/justibot/justibot/cmd/cli/casecmd"
	"github.com/justibot/justibot/cmd/cli/modelcmd"
	"github.com/justibot/justibot/internal/errors"
	"github.com/spf13/cobra"
)

func init() {
	// The .env file is optional, the environment takes precedence over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	serverURL := os.Getenv("JUSTIBOT_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:4000"
	}
	rootCmd.PersistentFlags().String(casecmd.ServerFlag, serverURL, "base URL of the JustiBot server")

	rootCmd.AddGroup(casecmd.Group)
	rootCmd.AddCommand(casecmd.File, casecmd.Get, casecmd.Redraft, casecmd.Download)
	rootCmd.AddGroup(modelcmd.Group)
	rootCmd.AddCommand(modelcmd.List)
}

var rootCmd = &cobra.Command{
	Use:           "justibot-cli",
	Long:          `Command line utilities for JustiBot, the legal drafting assistant for Colombian citizens.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
