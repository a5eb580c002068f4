package main

import (
	"log"
	"time"

	"shorts-pipeline/config"
	"shorts-pipeline/footage"

	"github.com/spf13/cobra"
)

var cleanupCommand = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove cached footage older than the retention window",
	RunE:  runCleanupCmd,
}

var cleanupDays int

func init() {
	cleanupCommand.Flags().IntVar(&cleanupDays, "days", 0, "Retention in days (defaults to footage.cache_duration_days)")
	rootCmd.AddCommand(cleanupCommand)
}

func runCleanupCmd(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	days := cleanupDays
	if days == 0 {
		days = cfg.Footage.CacheDurationDays
	}

	cache, err := footage.LoadCache(cfg.Paths.FootageDir)
	if err != nil {
		return err
	}

	removed, err := cache.EvictOlderThan(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		return err
	}
	log.Printf("🗑️  Removed %d old footage files", removed)
	return nil
}
