// Package main provides the entry point for the Pathfinder outreach service and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
)

var rootCmd = &cobra.Command{
	Use:          "pathfinder",
	Short:        "Pathfinder outreach service",
	Long:         "Pathfinder finds hiring contacts for a job, researches them and drafts a personalized outreach email for each.",
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
