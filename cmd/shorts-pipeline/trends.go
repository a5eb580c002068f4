package main

import (
	"context"

	"shorts-pipeline/config"
	"shorts-pipeline/trends"

	"github.com/spf13/cobra"
)

var trendsCommand = &cobra.Command{
	Use:   "trends",
	Short: "Refill the content queue from current trends",
	Long: `Scans YouTube and Reddit for trending titles, converts them into
channel-safe story hooks with the AI, and appends them to the content
queue consumed by 'run'.`,
	RunE: runTrendsCmd,
}

func init() {
	rootCmd.AddCommand(trendsCommand)
}

func runTrendsCmd(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	queue := trends.NewQueue(cfg.Paths.QueueFile)
	manager := trends.NewManager(cfg, queue)
	return manager.UpdateQueue(context.Background())
}
