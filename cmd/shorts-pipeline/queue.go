package main

import (
	"fmt"

	"shorts-pipeline/config"
	"shorts-pipeline/trends"

	"github.com/spf13/cobra"
)

var queueCommand = &cobra.Command{
	Use:   "queue",
	Short: "Show the pending content hooks",
	RunE:  runQueueCmd,
}

func init() {
	rootCmd.AddCommand(queueCommand)
}

func runQueueCmd(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	hooks := trends.NewQueue(cfg.Paths.QueueFile).Pending()
	if len(hooks) == 0 {
		fmt.Println("Content queue is empty.")
		return nil
	}

	fmt.Printf("%d hook(s) queued:\n", len(hooks))
	for i, h := range hooks {
		fmt.Printf("%2d. [%s / %s] %s\n", i+1, h.Topic, h.Theme, h.HookPrompt)
	}
	return nil
}
