// Package main provides the cv_synth CLI: timeline building, document
// scoring and validation, and batch generation of synthetic Swiss CVs.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cv_synth",
	Short: "Synthetic CV generator",
	Long: "cv_synth builds realistic Swiss CV timelines from personas, generates CV text " +
		"through an LLM and scores every document against a quality gate.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
