package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mstanoev/agentcoord/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{Use: "agentcoord"}

func main() {
	// Load .env if present; flags and env vars still apply.
	_ = godotenv.Load()
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
