// Package main provides the entry point for the Odie interview server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "odie_server",
	Short: "Odie interview API server",
	Long:  "Odie runs guided work-history interviews over chat, extracts positions and STAR resume bullets via an LLM, and serves them over a REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
