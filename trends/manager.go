package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"shorts-pipeline/config"
	"shorts-pipeline/types"

	"github.com/vartanbeno/go-reddit/v2/reddit"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// fallbackTopics seed hook generation when no live trends are reachable
var fallbackTopics = []string{
	"Patience in Islam",
	"Story of Prophet Yusuf",
	"Importance of Prayer",
}

const hookSystemPrompt = `You are the content strategy head for a strict Islamic storytelling channel.

Your goal:
1. Analyze the provided list of trending titles.
2. Extract the core spiritual or moral theme of each.
3. Generate 3 UNIQUE story ideas (hooks) based on these trends.

Safety rules:
- No visual depiction of people. Ideas must be visualizable with symbols (mosque, desert, light, book).
- Reject any trend that relies on acting, drama, or showing faces.
- Focus on moral lessons, spiritual reflections and non-human stories.

Respond with ONLY a valid JSON array, no preamble, no markdown:
[{"topic": "moral_lessons", "theme": "patience", "hook_prompt": "...", "rationale": "..."}]

"topic" must be one of: prophets, sahaba, moral_lessons, quran_stories.`

// Manager runs the trend-discovery maintenance task: scan YouTube and
// Reddit for what is popular now, convert it to safe story hooks with
// the AI, and append them to the queue the pipeline consumes from.
type Manager struct {
	cfg        *config.Config
	queue      *Queue
	httpClient *http.Client
}

// NewManager creates a trend Manager.
func NewManager(cfg *config.Config, queue *Queue) *Manager {
	return &Manager{
		cfg:        cfg,
		queue:      queue,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// UpdateQueue is the daily task: fetch trends, generate hooks, append.
func (m *Manager) UpdateQueue(ctx context.Context) error {
	trends := m.fetchTrendingTopics(ctx)

	usingFallback := false
	if len(trends) == 0 {
		log.Println("[trends] ⚠️  No live trends found. Using static fallback topics.")
		trends = fallbackTopics
		usingFallback = true
	}

	hooks, err := m.generateSafeHooks(ctx, trends)
	if err != nil {
		return fmt.Errorf("generate hooks: %w", err)
	}
	if len(hooks) == 0 {
		log.Println("[trends] ⚠️  No new hooks generated.")
		return nil
	}

	if err := m.queue.Append(hooks); err != nil {
		return fmt.Errorf("append hooks: %w", err)
	}

	log.Printf("[trends] ✅ Added %d new ideas to the content queue.", len(hooks))
	if usingFallback {
		log.Println("[trends] NOTE: ran in fallback mode. Set YOUTUBE_API_KEY to search live trends.")
	}
	return nil
}

// fetchTrendingTopics gathers popular titles from every configured
// source. Each source failing is a warning, not an error — the static
// fallback covers the all-failed case.
func (m *Manager) fetchTrendingTopics(ctx context.Context) []string {
	var titles []string

	ytTitles, err := m.fetchYouTubeTrends(ctx)
	if err != nil {
		log.Printf("[trends] Warning: YouTube trend scan failed: %v", err)
	}
	titles = append(titles, ytTitles...)

	redditTitles, err := m.fetchRedditTrends(ctx)
	if err != nil {
		log.Printf("[trends] Warning: Reddit trend scan failed: %v", err)
	}
	titles = append(titles, redditTitles...)

	return titles
}

func (m *Manager) fetchYouTubeTrends(ctx context.Context) ([]string, error) {
	apiKey := os.Getenv("YOUTUBE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY not set")
	}
	if len(m.cfg.Trends.SearchQueries) == 0 {
		return nil, nil
	}

	log.Println("[trends] Scanning YouTube for trends...")
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}

	publishedAfter := time.Now().AddDate(0, 0, -7).UTC().Format(time.RFC3339)

	var titles []string
	for _, q := range m.cfg.Trends.SearchQueries {
		resp, err := svc.Search.List([]string{"snippet"}).
			Q(q).
			Order("viewCount").
			PublishedAfter(publishedAfter).
			MaxResults(5).
			Type("video").
			Context(ctx).
			Do()
		if err != nil {
			log.Printf("[trends] Warning: search %q failed: %v", q, err)
			continue
		}
		for _, item := range resp.Items {
			log.Printf("[trends] 📈 Found trend: %s", item.Snippet.Title)
			titles = append(titles, item.Snippet.Title)
		}
	}
	return titles, nil
}

func (m *Manager) fetchRedditTrends(ctx context.Context) ([]string, error) {
	if len(m.cfg.Trends.Subreddits) == 0 {
		return nil, nil
	}

	log.Println("[trends] Scanning Reddit for trends...")
	client, err := reddit.NewReadonlyClient()
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}

	var titles []string
	for _, sub := range m.cfg.Trends.Subreddits {
		posts, _, err := client.Subreddit.TopPosts(ctx, sub, &reddit.ListPostOptions{
			ListOptions: reddit.ListOptions{Limit: 5},
			Time:        "week",
		})
		if err != nil {
			log.Printf("[trends] Warning: r/%s scan failed: %v", sub, err)
			continue
		}
		for _, post := range posts {
			log.Printf("[trends] 📈 Found trend: %s", post.Title)
			titles = append(titles, post.Title)
		}
	}
	return titles, nil
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

var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// generateSafeHooks converts raw trend titles into channel-safe hooks
// via the AI, keeping at most the configured number.
func (m *Manager) generateSafeHooks(ctx context.Context, trends []string) ([]types.ContentHook, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY not set")
	}

	log.Println("[trends] 🧠 Analyzing trends and generating safe hooks...")

	trendsJSON, _ := json.Marshal(trends)
	userPrompt := fmt.Sprintf("Here are the trending titles right now:\n%s\n\nGenerate %d safe, high-potential story hooks.",
		trendsJSON, m.cfg.Trends.MaxHooks)

	reqBody := groqRequest{
		Model: m.cfg.Trends.GroqModel,
		Messages: []groqMessage{
			{Role: "system", Content: hookSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.groq.com/openai/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var groqResp groqResponse
	if err := json.Unmarshal(respBytes, &groqResp); err != nil {
		return nil, fmt.Errorf("parse groq response: %w", err)
	}
	if groqResp.Error != nil {
		return nil, fmt.Errorf("groq error: %s", groqResp.Error.Message)
	}
	if len(groqResp.Choices) == 0 {
		return nil, fmt.Errorf("groq returned no choices")
	}

	content := strings.TrimSpace(groqResp.Choices[0].Message.Content)
	jsonStr := jsonArrayPattern.FindString(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON array in groq response")
	}

	var hooks []types.ContentHook
	if err := json.Unmarshal([]byte(jsonStr), &hooks); err != nil {
		return nil, fmt.Errorf("parse hooks JSON: %w", err)
	}

	if len(hooks) > m.cfg.Trends.MaxHooks {
		hooks = hooks[:m.cfg.Trends.MaxHooks]
	}
	return hooks, nil
}
