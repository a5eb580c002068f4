package story

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"shorts-pipeline/config"
	"shorts-pipeline/types"
)

// Arabic narration runs at roughly 132 words per minute
const wordsPerSecond = 2.2

const storySystemPrompt = `You are a professional Islamic storyteller. You write original short stories in clear Modern Standard Arabic for a faceless YouTube Shorts channel.

Requirements:
- The story must be original, not copied.
- Suitable for all ages, authentic to Islamic values, with a clear moral lesson.
- Conservative in tone; mention women only when strictly necessary and with full respect.
- Inspiring, easy to understand, and paced for a short vertical video.

You MUST respond with ONLY valid JSON — no preamble, no markdown:
{"title": "...", "story": "...", "visual_keywords": "english keywords describing suitable scenes, e.g. desert, mosque, prayer, stars"}

"title" and "story" are in Arabic; "visual_keywords" is a comma-separated English list.`

// topicPrompts describe each topic to the model
var topicPrompts = map[string]string{
	"prophets":      "a short story about one of the prophets and the lessons of his life",
	"sahaba":        "an inspiring story about one of the companions and a moment from his life",
	"moral_lessons": "a short Islamic story carrying a moral lesson",
	"quran_stories": "a story from the Quran with its interpretation and lessons",
}

// titlePrefixes are label artifacts the model sometimes prepends
var titlePrefixes = []*regexp.Regexp{
	regexp.MustCompile(`^(?i)title:\s*`),
	regexp.MustCompile(`^(?i)suggested title:\s*`),
	regexp.MustCompile(`^العنوان:\s*`),
	regexp.MustCompile(`^عنوان مقترح:\s*`),
	regexp.MustCompile(`^العنوان المقترح:\s*`),
	regexp.MustCompile(`^\s*-\s*`),
}

// Generator produces stories, descriptions and tags via the Groq API
type Generator struct {
	cfg        *config.Config
	httpClient *http.Client
}

// New creates a story Generator. A missing API key is a startup error.
func New(cfg *config.Config) (*Generator, error) {
	if os.Getenv("GROQ_API_KEY") == "" {
		return nil, fmt.Errorf("GROQ_API_KEY not set")
	}
	return &Generator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// GenerateStory writes one story. Empty topic or theme means a random
// pick from the configured lists.
func (g *Generator) GenerateStory(ctx context.Context, topic, theme string) (*types.Story, error) {
	if topic == "" {
		topic = g.cfg.Story.Topics[rand.Intn(len(g.cfg.Story.Topics))]
	}
	if theme == "" {
		theme = g.cfg.Story.Themes[rand.Intn(len(g.cfg.Story.Themes))]
	}

	topicPrompt, ok := topicPrompts[topic]
	if !ok {
		topicPrompt = topicPrompts["moral_lessons"]
	}

	targetWords := int(float64(g.cfg.Story.LengthSeconds) * wordsPerSecond)
	userPrompt := fmt.Sprintf(
		"Write %s, centered on the theme %q. Target length: about %d Arabic words (~%d seconds read aloud).",
		topicPrompt, theme, targetWords, g.cfg.Story.LengthSeconds,
	)

	log.Printf("[story] Generating story (topic: %s, theme: %s)...", topic, theme)

	content, err := g.complete(ctx, storySystemPrompt, userPrompt, g.cfg.Story.Temperature, 1000)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Title          string `json:"title"`
		Story          string `json:"story"`
		VisualKeywords string `json:"visual_keywords"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(content)), &raw); err != nil {
		return nil, fmt.Errorf("parse story JSON: %w", err)
	}
	if raw.Story == "" {
		return nil, fmt.Errorf("model returned an empty story")
	}

	wordCount := len(strings.Fields(raw.Story))
	story := &types.Story{
		Title:            cleanTitle(raw.Title),
		Story:            raw.Story,
		Topic:            topic,
		Theme:            theme,
		VisualKeywords:   raw.VisualKeywords,
		WordCount:        wordCount,
		DurationEstimate: int(float64(wordCount) / wordsPerSecond),
		Language:         "ar",
	}

	log.Printf("[story] ✅ Generated: %q (~%ds)", story.Title, story.DurationEstimate)
	return story, nil
}

// GenerateDescription builds the upload description from the template
// and the story's opening sentences.
func (g *Generator) GenerateDescription(story *types.Story) string {
	sentences := strings.SplitN(story.Story, ".", 4)
	if len(sentences) > 3 {
		sentences = sentences[:3]
	}
	summary := strings.TrimSpace(strings.Join(sentences, ". "))
	if summary != "" && !strings.HasSuffix(summary, ".") {
		summary += "."
	}

	tmpl := g.cfg.YouTube.DescriptionTemplate
	if tmpl == "" {
		return summary
	}
	return strings.ReplaceAll(tmpl, "{story_summary}", summary)
}

// topicTags extend the base tag list per topic
var topicTags = map[string][]string{
	"prophets":      {"الأنبياء", "prophets", "سيرة"},
	"sahaba":        {"الصحابة", "companions", "السيرة النبوية"},
	"moral_lessons": {"عبرة", "lesson", "أخلاق", "wisdom"},
	"quran_stories": {"القرآن", "quran", "تفسير"},
}

// GenerateTags combines the configured base tags with topic and theme tags.
func (g *Generator) GenerateTags(story *types.Story) []string {
	tags := append([]string(nil), g.cfg.YouTube.Tags...)
	tags = append(tags, topicTags[story.Topic]...)
	tags = append(tags, story.Theme)
	return tags
}

func (g *Generator) complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	reqBody := groqRequest{
		Model: g.cfg.Story.GroqModel,
		Messages: []groqMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.groq.com/openai/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+os.Getenv("GROQ_API_KEY"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var groqResp groqResponse
	if err := json.Unmarshal(respBytes, &groqResp); err != nil {
		return "", fmt.Errorf("parse groq response: %w", err)
	}
	if groqResp.Error != nil {
		return "", fmt.Errorf("groq error: %s", groqResp.Error.Message)
	}
	if len(groqResp.Choices) == 0 {
		return "", fmt.Errorf("groq returned no choices")
	}
	return groqResp.Choices[0].Message.Content, nil
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// cleanTitle strips label prefixes, quotes and brackets the model
// sometimes wraps titles in.
func cleanTitle(title string) string {
	cleaned := strings.TrimSpace(title)
	for _, p := range titlePrefixes {
		cleaned = strings.TrimSpace(p.ReplaceAllString(cleaned, ""))
	}
	cleaned = strings.Trim(cleaned, `"'«»()`)
	return strings.TrimSpace(cleaned)
}

// cleanJSON strips markdown fences if the model wraps its response
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
