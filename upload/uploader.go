package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"shorts-pipeline/config"
	"shorts-pipeline/types"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ErrUploadUnavailable means upload credentials are missing; the
// pipeline treats the uploader as an absent capability, not a crash.
var ErrUploadUnavailable = errors.New("youtube upload not available")

// Uploader pushes finished videos to YouTube via the Data API v3
type Uploader struct {
	cfg       *config.Config
	tokenConf *oauth2.Config
	token     *oauth2.Token
}

// New creates an Uploader from env credentials. Missing credentials
// yield ErrUploadUnavailable so callers can run without uploading.
func New(cfg *config.Config) (*Uploader, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken := os.Getenv("YOUTUBE_REFRESH_TOKEN")

	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("%w: YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET or YOUTUBE_REFRESH_TOKEN not set", ErrUploadUnavailable)
	}

	return &Uploader{
		cfg: cfg,
		tokenConf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
		},
		token: &oauth2.Token{
			RefreshToken: refreshToken,
			Expiry:       time.Now().Add(-time.Hour), // force refresh
		},
	}, nil
}

// Upload sends the video with its metadata. Errors are reported in the
// outcome so a failed upload does not fail the whole run.
func (u *Uploader) Upload(ctx context.Context, videoPath, title, description string, tags []string) *types.UploadOutcome {
	log.Println("[upload] Authenticating with YouTube API...")

	client := oauth2.NewClient(ctx, u.tokenConf.TokenSource(ctx, u.token))
	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return &types.UploadOutcome{Error: fmt.Sprintf("youtube service: %v", err)}
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                title,
			Description:          description,
			Tags:                 tags,
			CategoryId:           u.cfg.YouTube.CategoryID,
			DefaultLanguage:      u.cfg.YouTube.DefaultLanguage,
			DefaultAudioLanguage: u.cfg.YouTube.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           u.cfg.YouTube.PrivacyStatus,
			SelfDeclaredMadeForKids: u.cfg.YouTube.MadeForKids,
		},
	}

	f, err := os.Open(videoPath)
	if err != nil {
		return &types.UploadOutcome{Error: fmt.Sprintf("open video file: %v", err)}
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		log.Printf("[upload] Uploading %q (%.1f MB)...", title, float64(fi.Size())/1024/1024)
	}

	uploaded, err := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(f).Do()
	if err != nil {
		return &types.UploadOutcome{Error: fmt.Sprintf("youtube upload: %v", err)}
	}

	url := fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id)
	log.Printf("[upload] ✅ Uploaded: %s", url)

	u.logUpload(uploaded.Id, url, videoPath, title)

	return &types.UploadOutcome{Success: true, VideoID: uploaded.Id, URL: url}
}

// logUpload appends the upload to the history log in the logs dir
func (u *Uploader) logUpload(videoID, url, videoPath, title string) {
	entry := map[string]interface{}{
		"video_id":    videoID,
		"url":         url,
		"title":       title,
		"video_file":  videoPath,
		"uploaded_at": time.Now().UTC().Format(time.RFC3339),
	}

	logFile := filepath.Join(u.cfg.Paths.LogsDir, fmt.Sprintf("upload_%s.json", time.Now().Format("20060102_150405")))
	data, _ := json.MarshalIndent(entry, "", "  ")
	if err := os.WriteFile(logFile, data, 0644); err != nil {
		log.Printf("[upload] Warning: could not save upload log: %v", err)
	}
}
