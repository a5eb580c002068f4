package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"shorts-pipeline/config"
	"shorts-pipeline/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStories struct {
	gotTopic, gotTheme string
	err                error
}

func (f *fakeStories) GenerateStory(_ context.Context, topic, theme string) (*types.Story, error) {
	f.gotTopic, f.gotTheme = topic, theme
	if f.err != nil {
		return nil, f.err
	}
	if topic == "" {
		topic = "moral_lessons"
	}
	if theme == "" {
		theme = "patience"
	}
	return &types.Story{
		Title:          "قصة الصبر",
		Story:          "كان يا ما كان...",
		Topic:          topic,
		Theme:          theme,
		VisualKeywords: "desert, stars",
	}, nil
}

func (f *fakeStories) GenerateDescription(*types.Story) string { return "description" }
func (f *fakeStories) GenerateTags(*types.Story) []string      { return []string{"tag"} }

type fakeVoice struct{ err error }

func (f *fakeVoice) Synthesize(_ context.Context, _, outputPath string) (*types.Voiceover, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.Voiceover{AudioPath: outputPath, Duration: 42.5}, nil
}

type fakeFootage struct {
	gotCategory    string
	gotMinDuration int
	gotKeywords    string
	err            error
}

func (f *fakeFootage) Resolve(_ context.Context, category string, minDuration int, aiKeywords string) (string, error) {
	f.gotCategory = category
	f.gotMinDuration = minDuration
	f.gotKeywords = aiKeywords
	if f.err != nil {
		return "", f.err
	}
	return "/footage/q_desert_1.mp4", nil
}

type fakeVideo struct{ err error }

func (f *fakeVideo) Create(_ context.Context, _, _, _, outputName string) (*types.VideoOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.VideoOutput{OutputPath: "/out/" + outputName, Duration: 42.5, FileSize: 1 << 20}, nil
}

type fakeUploader struct {
	called  bool
	outcome *types.UploadOutcome
}

func (f *fakeUploader) Upload(_ context.Context, _, _, _ string, _ []string) *types.UploadOutcome {
	f.called = true
	return f.outcome
}

type fakeQueue struct {
	hooks []types.ContentHook
	pops  int
}

func (f *fakeQueue) PopNext() *types.ContentHook {
	f.pops++
	if len(f.hooks) == 0 {
		return nil
	}
	head := f.hooks[0]
	f.hooks = f.hooks[1:]
	return &head
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Footage: config.FootageConfig{FallbackCategory: "nature"},
		YouTube: config.YouTubeConfig{TitleTemplate: "{story_title} | Islamic Stories"},
		Paths: config.PathsConfig{
			AudioDir:  filepath.Join(dir, "audio"),
			OutputDir: filepath.Join(dir, "output"),
		},
	}
}

func TestRunSuccessWithoutUpload(t *testing.T) {
	cfg := testConfig(t)
	uploader := &fakeUploader{}
	p := New(cfg, &fakeStories{}, &fakeVoice{}, &fakeFootage{}, &fakeVideo{}, uploader, &fakeQueue{})

	result := p.Run(context.Background(), Options{Upload: false})

	require.True(t, result.Success)
	require.NotNil(t, result.Upload)
	assert.True(t, result.Upload.Skipped)
	assert.False(t, uploader.called, "upload disabled must not touch the uploader")
	assert.NotEmpty(t, result.RunID)
	assert.FileExists(t, filepath.Join(cfg.Paths.OutputDir, "runs", "run_"+result.RunID+".json"))
}

func TestRunDryRunSkipsUpload(t *testing.T) {
	uploader := &fakeUploader{}
	p := New(testConfig(t), &fakeStories{}, &fakeVoice{}, &fakeFootage{}, &fakeVideo{}, uploader, &fakeQueue{})

	result := p.Run(context.Background(), Options{Upload: true, DryRun: true})

	require.True(t, result.Success)
	assert.True(t, result.Upload.Skipped)
	assert.False(t, uploader.called)
}

func TestRunUploadRequestedButUnavailable(t *testing.T) {
	p := New(testConfig(t), &fakeStories{}, &fakeVoice{}, &fakeFootage{}, &fakeVideo{}, nil, &fakeQueue{})

	result := p.Run(context.Background(), Options{Upload: true})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not available")
}

func TestRunUploadFailureDoesNotFailRun(t *testing.T) {
	uploader := &fakeUploader{outcome: &types.UploadOutcome{Error: "quota exceeded"}}
	p := New(testConfig(t), &fakeStories{}, &fakeVoice{}, &fakeFootage{}, &fakeVideo{}, uploader, &fakeQueue{})

	result := p.Run(context.Background(), Options{Upload: true})

	require.True(t, result.Success)
	assert.True(t, uploader.called)
	assert.Equal(t, "quota exceeded", result.Upload.Error)
}

func TestRunStageFailureAborts(t *testing.T) {
	footage := &fakeFootage{}
	p := New(testConfig(t), &fakeStories{err: fmt.Errorf("model offline")}, &fakeVoice{}, footage, &fakeVideo{}, nil, &fakeQueue{})

	result := p.Run(context.Background(), Options{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Step 1 Story")
	assert.Contains(t, result.Error, "model offline")
	assert.Empty(t, footage.gotCategory, "later stages must not run after a failure")
}

func TestRunConsumesHookWhenNoTopicGiven(t *testing.T) {
	stories := &fakeStories{}
	queue := &fakeQueue{hooks: []types.ContentHook{
		{Topic: "sahaba", Theme: "courage", HookPrompt: "the courage of Bilal"},
	}}
	p := New(testConfig(t), stories, &fakeVoice{}, &fakeFootage{}, &fakeVideo{}, nil, queue)

	result := p.Run(context.Background(), Options{})

	require.True(t, result.Success)
	assert.Equal(t, "sahaba", stories.gotTopic)
	assert.Contains(t, stories.gotTheme, "courage")
	assert.Contains(t, stories.gotTheme, "the courage of Bilal")
}

func TestRunExplicitTopicBypassesQueue(t *testing.T) {
	queue := &fakeQueue{hooks: []types.ContentHook{{Topic: "sahaba"}}}
	stories := &fakeStories{}
	p := New(testConfig(t), stories, &fakeVoice{}, &fakeFootage{}, &fakeVideo{}, nil, queue)

	result := p.Run(context.Background(), Options{Topic: "prophets"})

	require.True(t, result.Success)
	assert.Zero(t, queue.pops, "explicit topic must not consume a hook")
	assert.Equal(t, "prophets", stories.gotTopic)
}

func TestRunHookNotRequeuedOnFailure(t *testing.T) {
	queue := &fakeQueue{hooks: []types.ContentHook{{Topic: "sahaba", Theme: "courage"}}}
	p := New(testConfig(t), &fakeStories{err: fmt.Errorf("model offline")}, &fakeVoice{}, &fakeFootage{}, &fakeVideo{}, nil, queue)

	result := p.Run(context.Background(), Options{})

	assert.False(t, result.Success)
	// At-most-once: the hook is gone even though the run failed
	assert.Empty(t, queue.hooks)
}

func TestRunFootageCategoryFollowsTopic(t *testing.T) {
	cases := []struct {
		topic    string
		category string
	}{
		{"prophets", "islamic"},
		{"sahaba", "islamic"},
		{"quran_stories", "islamic"},
		{"moral_lessons", "nature"},
	}

	for _, tc := range cases {
		footage := &fakeFootage{}
		p := New(testConfig(t), &fakeStories{}, &fakeVoice{}, footage, &fakeVideo{}, nil, &fakeQueue{})

		result := p.Run(context.Background(), Options{Topic: tc.topic})

		require.True(t, result.Success)
		assert.Equal(t, tc.category, footage.gotCategory, "topic %s", tc.topic)
		assert.Equal(t, 42, footage.gotMinDuration)
		assert.Equal(t, "desert, stars", footage.gotKeywords)
	}
}
