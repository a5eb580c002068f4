package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shorts-pipeline/config"
	"shorts-pipeline/types"

	"github.com/google/uuid"
)

// StoryGenerator writes stories and their upload metadata
type StoryGenerator interface {
	GenerateStory(ctx context.Context, topic, theme string) (*types.Story, error)
	GenerateDescription(story *types.Story) string
	GenerateTags(story *types.Story) []string
}

// VoiceSynthesizer turns story text into a narration audio file
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, text, outputPath string) (*types.Voiceover, error)
}

// FootageResolver produces a local background clip for a category
type FootageResolver interface {
	Resolve(ctx context.Context, category string, minDuration int, aiKeywords string) (string, error)
}

// VideoAssembler renders the final video
type VideoAssembler interface {
	Create(ctx context.Context, footagePath, audioPath, storyText, outputName string) (*types.VideoOutput, error)
}

// Uploader pushes a finished video to the hosting platform
type Uploader interface {
	Upload(ctx context.Context, videoPath, title, description string, tags []string) *types.UploadOutcome
}

// HookQueue supplies at most one pre-generated story hook per run
type HookQueue interface {
	PopNext() *types.ContentHook
}

// Options control one pipeline run
type Options struct {
	Topic  string
	Theme  string
	Upload bool
	DryRun bool
}

// Pipeline sequences story → voice → footage → video → upload. Uploader
// is a capability: nil means uploads were unavailable at startup, which
// is fine unless a run actually requests one.
type Pipeline struct {
	cfg      *config.Config
	stories  StoryGenerator
	voice    VoiceSynthesizer
	footage  FootageResolver
	video    VideoAssembler
	uploader Uploader
	queue    HookQueue
}

// New wires the pipeline. uploader may be nil.
func New(cfg *config.Config, stories StoryGenerator, voice VoiceSynthesizer, footage FootageResolver, video VideoAssembler, uploader Uploader, queue HookQueue) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		stories:  stories,
		voice:    voice,
		footage:  footage,
		video:    video,
		uploader: uploader,
		queue:    queue,
	}
}

// islamicTopics route to the islamic footage category; everything else
// gets neutral nature footage.
var islamicTopics = map[string]bool{
	"prophets":      true,
	"sahaba":        true,
	"quran_stories": true,
}

// Run executes one full pipeline run. It always returns a structured
// result; stage failures abort the run but never panic out of it, and
// whatever the cache or queue persisted before the failure stays valid.
func (p *Pipeline) Run(ctx context.Context, opts Options) *types.RunResult {
	runID := uuid.NewString()[:8]
	result := &types.RunResult{
		RunID:     runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	defer func() {
		result.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		p.saveResult(result)
	}()

	log.Printf("[pipeline] 🚀 Run %s starting", runID)

	topic, theme := opts.Topic, opts.Theme
	if topic == "" && theme == "" && p.queue != nil {
		if hook := p.queue.PopNext(); hook != nil {
			// Consumed now; a failed run does not return it to the queue.
			log.Printf("[pipeline] Using trending hook: %s / %s", hook.Topic, hook.Theme)
			topic = hook.Topic
			theme = hook.Theme
			if hook.HookPrompt != "" {
				theme = fmt.Sprintf("%s (focus: %s)", theme, hook.HookPrompt)
			}
		}
	}

	// Step 1: story
	log.Println("[pipeline] 📖 Step 1/5: Generating story...")
	story, err := p.stories.GenerateStory(ctx, topic, theme)
	if err != nil {
		return fail(result, "Step 1 Story", err)
	}
	result.Story = story
	log.Printf("[pipeline] Generated: %q (topic: %s, theme: %s)", story.Title, story.Topic, story.Theme)

	// Step 2: voiceover
	log.Println("[pipeline] 🎙️  Step 2/5: Generating voiceover...")
	timestamp := time.Now().Format("20060102_150405")
	audioPath := filepath.Join(p.cfg.Paths.AudioDir, fmt.Sprintf("voiceover_%s.mp3", timestamp))
	voiceover, err := p.voice.Synthesize(ctx, story.Story, audioPath)
	if err != nil {
		return fail(result, "Step 2 Voiceover", err)
	}
	result.Voiceover = voiceover

	// Step 3: footage
	log.Println("[pipeline] 🎬 Step 3/5: Selecting background footage...")
	category := p.cfg.Footage.FallbackCategory
	if islamicTopics[story.Topic] {
		category = "islamic"
	}
	footagePath, err := p.footage.Resolve(ctx, category, int(voiceover.Duration), story.VisualKeywords)
	if err != nil {
		return fail(result, "Step 3 Footage", err)
	}
	result.FootagePath = footagePath
	log.Printf("[pipeline] Footage selected: %s", filepath.Base(footagePath))

	// Step 4: video
	log.Println("[pipeline] 🎥 Step 4/5: Creating video...")
	videoName := fmt.Sprintf("islamic_story_%s.mp4", timestamp)
	videoOut, err := p.video.Create(ctx, footagePath, voiceover.AudioPath, story.Story, videoName)
	if err != nil {
		return fail(result, "Step 4 Video", err)
	}
	result.Video = videoOut

	// Step 5: upload
	switch {
	case opts.Upload && !opts.DryRun:
		if p.uploader == nil {
			return fail(result, "Step 5 Upload", fmt.Errorf("upload requested but uploader is not available"))
		}
		log.Println("[pipeline] 📤 Step 5/5: Uploading to YouTube...")
		title := p.cfg.YouTube.TitleTemplate
		title = replaceTemplate(title, "{story_title}", story.Title)
		outcome := p.uploader.Upload(ctx,
			videoOut.OutputPath,
			title,
			p.stories.GenerateDescription(story),
			p.stories.GenerateTags(story),
		)
		result.Upload = outcome
		if outcome.Error != "" {
			log.Printf("[pipeline] ❌ Upload failed: %s", outcome.Error)
		}
	case opts.DryRun:
		log.Println("[pipeline] ⏭️  Step 5/5: Skipping upload (dry run mode)")
		result.Upload = &types.UploadOutcome{Skipped: true}
	default:
		log.Println("[pipeline] ⏭️  Step 5/5: Upload disabled")
		result.Upload = &types.UploadOutcome{Skipped: true}
	}

	result.Success = true
	log.Printf("[pipeline] ✅ Run %s complete: %s", runID, videoOut.OutputPath)
	return result
}

func fail(result *types.RunResult, stage string, err error) *types.RunResult {
	result.Success = false
	result.Error = fmt.Sprintf("%s: %v", stage, err)
	log.Printf("[pipeline] ❌ %s", result.Error)
	return result
}

// saveResult persists the structured run result for the operator
func (p *Pipeline) saveResult(result *types.RunResult) {
	runsDir := filepath.Join(p.cfg.Paths.OutputDir, "runs")
	if err := os.MkdirAll(runsDir, 0755); err != nil {
		log.Printf("[pipeline] Warning: could not create runs dir: %v", err)
		return
	}
	path := filepath.Join(runsDir, fmt.Sprintf("run_%s.json", result.RunID))
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Printf("[pipeline] Warning: could not marshal run result: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("[pipeline] Warning: could not save run result: %v", err)
	}
}

func replaceTemplate(tmpl, placeholder, value string) string {
	if tmpl == "" {
		return value
	}
	return strings.ReplaceAll(tmpl, placeholder, value)
}
