// Package main provides the entry point for the career roadmap CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	userFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "roadmap_agent",
	Short: "Career roadmap HTTP API server and CLI",
	Long: "roadmap_agent scores a CV against a job description, turns the skill gaps into " +
		"a staged learning roadmap with curated resources, and tracks progress through it.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a JSON config file (environment variables override it)")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "User ID for CLI commands (default: $ROADMAP_USER_ID or the local user)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
