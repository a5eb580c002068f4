package types

// Story holds one generated story ready for narration
type Story struct {
	Title            string `json:"title"`
	Story            string `json:"story"`
	Topic            string `json:"topic"`
	Theme            string `json:"theme"`
	VisualKeywords   string `json:"visual_keywords"`
	WordCount        int    `json:"word_count"`
	DurationEstimate int    `json:"duration_estimate"`
	Language         string `json:"language"`
}

// Voiceover is the result of speech synthesis for one story
type Voiceover struct {
	AudioPath      string  `json:"audio_path"`
	Duration       float64 `json:"duration"`
	CharacterCount int     `json:"character_count"`
}

// VideoOutput describes the rendered video file
type VideoOutput struct {
	OutputPath string  `json:"output_path"`
	Duration   float64 `json:"duration"`
	FileSize   int64   `json:"file_size"`
	Resolution string  `json:"resolution"`
}

// UploadOutcome records what happened at the upload stage.
// Exactly one of Skipped, Success or Error describes the outcome.
type UploadOutcome struct {
	Skipped bool   `json:"skipped,omitempty"`
	Success bool   `json:"success,omitempty"`
	VideoID string `json:"video_id,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ContentHook is a pre-generated story idea queued by the trend task
type ContentHook struct {
	Topic      string `json:"topic"`
	Theme      string `json:"theme"`
	HookPrompt string `json:"hook_prompt"`
	Rationale  string `json:"rationale"`
}

// RunResult is the immutable outcome of one pipeline run
type RunResult struct {
	RunID       string         `json:"run_id"`
	StartedAt   string         `json:"started_at"`
	CompletedAt string         `json:"completed_at"`
	Success     bool           `json:"success"`
	Story       *Story         `json:"story,omitempty"`
	Voiceover   *Voiceover     `json:"voiceover,omitempty"`
	FootagePath string         `json:"footage_path,omitempty"`
	Video       *VideoOutput   `json:"video,omitempty"`
	Upload      *UploadOutcome `json:"upload,omitempty"`
	Error       string         `json:"error,omitempty"`
}
