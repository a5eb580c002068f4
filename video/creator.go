package video

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

// Creator assembles the final vertical video with ffmpeg: background
// footage looped or trimmed to the voiceover length, scaled and cropped
// to the target frame, audio muxed on top, subtitles optionally burned in.
type Creator struct {
	cfg *config.Config
}

// New creates a Creator. ffmpeg must be on PATH.
func New(cfg *config.Config) (*Creator, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found on PATH: %w", err)
	}
	return &Creator{cfg: cfg}, nil
}

// Create renders footage + audio (+ subtitles) into outputName inside
// the configured output directory.
func (c *Creator) Create(ctx context.Context, footagePath, audioPath, storyText, outputName string) (*types.VideoOutput, error) {
	if err := os.MkdirAll(c.cfg.Paths.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	outputPath := filepath.Join(c.cfg.Paths.OutputDir, outputName)

	audioDur, err := mediaDuration(audioPath)
	if err != nil {
		return nil, fmt.Errorf("measure audio duration: %w", err)
	}
	log.Printf("[video] 🎬 Creating video (%.1fs)...", audioDur)

	footageDur, err := mediaDuration(footagePath)
	if err != nil {
		footageDur = audioDur
	}

	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,fps=%d",
		c.cfg.Video.Width, c.cfg.Video.Height,
		c.cfg.Video.Width, c.cfg.Video.Height,
		c.cfg.Video.FPS,
	)

	args := []string{"-y"}
	if footageDur < audioDur {
		loops := int(audioDur/footageDur) + 1
		args = append(args, "-stream_loop", fmt.Sprintf("%d", loops))
	}
	args = append(args,
		"-i", footagePath,
		"-i", audioPath,
		"-t", fmt.Sprintf("%.3f", audioDur),
		"-vf", filter,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		outputPath,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg render: %w", err)
	}

	if c.cfg.Video.Subtitles && storyText != "" {
		subtitled, err := c.burnSubtitles(ctx, outputPath, storyText, audioDur)
		if err != nil {
			log.Printf("[video] ⚠️  Subtitle burn failed: %v — continuing without subtitles", err)
		} else {
			if err := os.Rename(subtitled, outputPath); err == nil {
				log.Println("[video] Subtitles burned in")
			}
		}
	}

	fi, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("stat output: %w", err)
	}

	log.Printf("[video] ✅ Video created: %s (%.1f MB)", outputPath, float64(fi.Size())/1024/1024)
	return &types.VideoOutput{
		OutputPath: outputPath,
		Duration:   audioDur,
		FileSize:   fi.Size(),
		Resolution: fmt.Sprintf("%dx%d", c.cfg.Video.Width, c.cfg.Video.Height),
	}, nil
}

// burnSubtitles splits the story into timed chunks, writes an SRT next
// to the video and burns it in with the subtitles filter.
func (c *Creator) burnSubtitles(ctx context.Context, videoPath, storyText string, totalDur float64) (string, error) {
	srtPath := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".srt"
	if err := os.WriteFile(srtPath, []byte(buildSRT(storyText, totalDur)), 0644); err != nil {
		return "", err
	}

	outPath := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + "_sub.mp4"
	subtitleFilter := fmt.Sprintf(
		"subtitles=%s:force_style='FontSize=14,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,Outline=2,Alignment=2,MarginV=60'",
		escapeSubtitlePath(srtPath),
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", videoPath,
		"-vf", subtitleFilter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "20",
		"-c:a", "copy",
		outPath,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg subtitle burn: %w", err)
	}
	return outPath, nil
}

// buildSRT distributes the story text over the audio duration,
// weighting each chunk by its word count.
func buildSRT(text string, totalDur float64) string {
	chunks := splitSubtitleChunks(text, 8)
	if len(chunks) == 0 {
		return ""
	}

	totalWords := 0
	for _, ch := range chunks {
		totalWords += len(strings.Fields(ch))
	}
	if totalWords == 0 {
		return ""
	}

	var sb strings.Builder
	elapsed := 0.0
	for i, ch := range chunks {
		dur := totalDur * float64(len(strings.Fields(ch))) / float64(totalWords)
		sb.WriteString(fmt.Sprintf("%d\n%s --> %s\n%s\n\n",
			i+1, srtTimestamp(elapsed), srtTimestamp(elapsed+dur), ch))
		elapsed += dur
	}
	return sb.String()
}

// splitSubtitleChunks groups words into readable lines
func splitSubtitleChunks(text string, wordsPerChunk int) []string {
	words := strings.Fields(text)
	var chunks []string
	for i := 0; i < len(words); i += wordsPerChunk {
		end := i + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}

func srtTimestamp(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func escapeSubtitlePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	return path
}

func mediaDuration(path string) (float64, error) {
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
