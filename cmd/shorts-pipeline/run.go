package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"shorts-pipeline/config"
	"shorts-pipeline/footage"
	"shorts-pipeline/pipeline"
	"shorts-pipeline/story"
	"shorts-pipeline/trends"
	"shorts-pipeline/tts"
	"shorts-pipeline/upload"
	"shorts-pipeline/video"

	"github.com/spf13/cobra"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Create one video and optionally upload it",
	Long: `Runs the full pipeline once: story generation, voiceover synthesis,
footage resolution, video assembly and (unless disabled) YouTube upload.
With no --topic or --theme, one trending hook is consumed from the queue
if available.`,
	RunE: runPipelineCmd,
}

var (
	runTopic    string
	runTheme    string
	runNoUpload bool
	runDryRun   bool
)

func init() {
	runCommand.Flags().StringVar(&runTopic, "topic", "", "Story topic (prophets, sahaba, moral_lessons, quran_stories; random if not set)")
	runCommand.Flags().StringVar(&runTheme, "theme", "", "Story theme (e.g. faith, patience, gratitude; random if not set)")
	runCommand.Flags().BoolVar(&runNoUpload, "no-upload", false, "Create the video but do not upload it")
	runCommand.Flags().BoolVar(&runDryRun, "dry-run", false, "Run the full pipeline without uploading (for testing)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	for _, dir := range []string{cfg.Paths.FootageDir, cfg.Paths.AudioDir, cfg.Paths.OutputDir, cfg.Paths.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	log.Println("🚀 Initializing pipeline...")

	stories, err := story.New(cfg)
	if err != nil {
		return err
	}
	voice, err := tts.New(cfg)
	if err != nil {
		return err
	}

	pexels, err := footage.NewPexelsClient(os.Getenv("PEXELS_API_KEY"), cfg.Footage.AllowedDomains)
	if err != nil {
		return err
	}
	// A corrupt cache file is surfaced here, not silently rebuilt.
	cache, err := footage.LoadCache(cfg.Paths.FootageDir)
	if err != nil {
		return err
	}
	resolver := footage.NewResolver(cfg.Footage, cfg.Paths.FootageDir, pexels, cache)

	creator, err := video.New(cfg)
	if err != nil {
		return err
	}

	// The uploader is optional: missing credentials only matter if the
	// run actually asks to upload.
	var uploader pipeline.Uploader
	if up, err := upload.New(cfg); err != nil {
		log.Printf("⚠️  YouTube upload not available: %v", err)
		log.Println("   Videos will be created but not uploaded.")
	} else {
		uploader = up
	}

	queue := trends.NewQueue(cfg.Paths.QueueFile)

	p := pipeline.New(cfg, stories, voice, resolver, creator, uploader, queue)
	result := p.Run(ctx, pipeline.Options{
		Topic:  runTopic,
		Theme:  runTheme,
		Upload: !runNoUpload,
		DryRun: runDryRun,
	})

	if !result.Success {
		return fmt.Errorf("pipeline failed: %s", result.Error)
	}
	return nil
}
