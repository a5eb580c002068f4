package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shorts-pipeline",
	Short: "Automated Islamic story shorts pipeline",
	Long:  "shorts-pipeline generates narrated short story videos end-to-end: story generation, Arabic voiceover, stock footage selection, video assembly and YouTube upload.",
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "Path to config.yaml")
}

func main() {
	// Load .env for local dev — CI supplies real env vars
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
