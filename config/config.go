package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Story   StoryConfig   `yaml:"story"`
	TTS     TTSConfig     `yaml:"tts"`
	Footage FootageConfig `yaml:"footage"`
	Video   VideoConfig   `yaml:"video"`
	YouTube YouTubeConfig `yaml:"youtube"`
	Trends  TrendsConfig  `yaml:"trends"`
	Paths   PathsConfig   `yaml:"paths"`
}

type StoryConfig struct {
	Topics        []string `yaml:"topics" validate:"min=1"`
	Themes        []string `yaml:"themes" validate:"min=1"`
	LengthSeconds int      `yaml:"length_seconds" validate:"gt=0"`
	GroqModel     string   `yaml:"groq_model" validate:"required"`
	Temperature   float64  `yaml:"temperature" validate:"gte=0,lte=2"`
}

type TTSConfig struct {
	Voice        string  `yaml:"voice" validate:"required"`
	SpeakingRate float64 `yaml:"speaking_rate"`
}

type FootageConfig struct {
	Keywords          map[string][]string `yaml:"keywords" validate:"min=1"`
	FallbackCategory  string              `yaml:"fallback_category" validate:"required"`
	Safety            SafetyConfig        `yaml:"safety"`
	CacheDurationDays int                 `yaml:"cache_duration_days" validate:"gt=0"`
	AllowedDomains    []string            `yaml:"allowed_domains" validate:"min=1"`
}

type SafetyConfig struct {
	StrictMode         bool     `yaml:"strict_mode"`
	NegativeQuery      string   `yaml:"negative_query"`
	BannedKeywords     []string `yaml:"banned_keywords"`
	MandatoryModifiers string   `yaml:"mandatory_modifiers"`
}

type VideoConfig struct {
	Width     int  `yaml:"width" validate:"gt=0"`
	Height    int  `yaml:"height" validate:"gt=0"`
	FPS       int  `yaml:"fps" validate:"gt=0"`
	Subtitles bool `yaml:"subtitles"`
}

type YouTubeConfig struct {
	TitleTemplate       string   `yaml:"title_template" validate:"required"`
	DescriptionTemplate string   `yaml:"description_template"`
	Tags                []string `yaml:"tags"`
	CategoryID          string   `yaml:"category_id"`
	PrivacyStatus       string   `yaml:"privacy_status" validate:"oneof=public private unlisted"`
	MadeForKids         bool     `yaml:"made_for_kids"`
	DefaultLanguage     string   `yaml:"default_language"`
}

type TrendsConfig struct {
	SearchQueries []string `yaml:"search_queries"`
	Subreddits    []string `yaml:"subreddits"`
	MaxHooks      int      `yaml:"max_hooks"`
	GroqModel     string   `yaml:"groq_model"`
}

type PathsConfig struct {
	FootageDir string `yaml:"footage_dir" validate:"required"`
	AudioDir   string `yaml:"audio_dir" validate:"required"`
	OutputDir  string `yaml:"output_dir" validate:"required"`
	QueueFile  string `yaml:"queue_file" validate:"required"`
	LogsDir    string `yaml:"logs_dir" validate:"required"`
}

// Load reads config.yaml, applies defaults and validates once.
// A config that fails validation is a startup error, never retried.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Story.LengthSeconds == 0 {
		c.Story.LengthSeconds = 60
	}
	if c.Story.GroqModel == "" {
		c.Story.GroqModel = "llama-3.1-70b-versatile"
	}
	if c.Story.Temperature == 0 {
		c.Story.Temperature = 0.8
	}
	if c.TTS.Voice == "" {
		c.TTS.Voice = "ar-SA-HamedNeural"
	}
	if c.TTS.SpeakingRate == 0 {
		c.TTS.SpeakingRate = 1.0
	}
	if c.Footage.FallbackCategory == "" {
		c.Footage.FallbackCategory = "nature"
	}
	if c.Footage.CacheDurationDays == 0 {
		c.Footage.CacheDurationDays = 30
	}
	if len(c.Footage.AllowedDomains) == 0 {
		c.Footage.AllowedDomains = []string{
			"player.vimeo.com",
			"vod-progressive.akamaized.net",
			"videos.pexels.com",
		}
	}
	if c.Video.Width == 0 {
		c.Video.Width = 1080
	}
	if c.Video.Height == 0 {
		c.Video.Height = 1920
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = 30
	}
	if c.YouTube.PrivacyStatus == "" {
		c.YouTube.PrivacyStatus = "public"
	}
	if c.YouTube.CategoryID == "" {
		c.YouTube.CategoryID = "22"
	}
	if c.Trends.MaxHooks == 0 {
		c.Trends.MaxHooks = 3
	}
	if c.Trends.GroqModel == "" {
		c.Trends.GroqModel = c.Story.GroqModel
	}
}

// Validate checks field constraints plus the cross-field rules the
// validator tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, ok := c.Footage.Keywords[c.Footage.FallbackCategory]; !ok {
		return fmt.Errorf("invalid config: fallback category %q has no keyword list", c.Footage.FallbackCategory)
	}
	return nil
}
