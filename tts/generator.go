package tts

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"shorts-pipeline/config"
	"shorts-pipeline/types"
)

// Generator synthesizes Arabic voiceovers by shelling out to edge-tts.
type Generator struct {
	cfg *config.Config
}

// New creates a Generator. edge-tts must be on PATH.
func New(cfg *config.Config) (*Generator, error) {
	if _, err := exec.LookPath("edge-tts"); err != nil {
		return nil, fmt.Errorf("edge-tts not found on PATH (pip install edge-tts): %w", err)
	}
	return &Generator{cfg: cfg}, nil
}

// Synthesize converts text into an MP3 at outputPath and measures the
// real duration with ffprobe, falling back to a character-count
// estimate when ffprobe is unavailable.
func (g *Generator) Synthesize(ctx context.Context, text, outputPath string) (*types.Voiceover, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}

	log.Printf("[tts] Generating voiceover (%d chars, voice: %s)...", len(text), g.cfg.TTS.Voice)

	// edge-tts occasionally times out; retry a few times
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		cmd := exec.CommandContext(ctx,
			"edge-tts",
			"--voice", g.cfg.TTS.Voice,
			"--rate", ratePercent(g.cfg.TTS.SpeakingRate),
			"--text", text,
			"--write-media", outputPath,
		)
		cmd.Stderr = os.Stderr
		if err = cmd.Run(); err == nil {
			break
		}
		log.Printf("[tts] Attempt %d failed: %v, retrying...", attempt, err)
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("edge-tts failed after 3 attempts: %w", err)
	}

	dur, err := audioDuration(outputPath)
	if err != nil {
		// Arabic runs at ~16 characters per second at normal rate
		dur = float64(len([]rune(text))) / (16.0 * g.cfg.TTS.SpeakingRate)
		log.Printf("[tts] Warning: could not measure duration, estimating %.1fs", dur)
	}

	log.Printf("[tts] ✅ Voiceover ready: %s (%.1fs)", outputPath, dur)
	return &types.Voiceover{
		AudioPath:      outputPath,
		Duration:       dur,
		CharacterCount: len([]rune(text)),
	}, nil
}

// ratePercent converts a speaking-rate multiplier to the signed percent
// string edge-tts expects, e.g. 1.1 → "+10%".
func ratePercent(rate float64) string {
	pct := int((rate - 1.0) * 100)
	return fmt.Sprintf("%+d%%", pct)
}

func audioDuration(path string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}
