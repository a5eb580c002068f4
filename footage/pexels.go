package footage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const pexelsBaseURL = "https://api.pexels.com/videos"

// Video is one remote search result
type Video struct {
	ID         int64       `json:"id"`
	Duration   int         `json:"duration"`
	URL        string      `json:"url"`
	VideoFiles []VideoFile `json:"video_files"`
}

// VideoFile is one encoded variant of a Video
type VideoFile struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Link   string `json:"link"`
}

// PexelsClient searches and downloads royalty-free stock footage.
// Search calls carry a short timeout; downloads get a long one sized
// for video payloads.
type PexelsClient struct {
	apiKey         string
	baseURL        string
	allowedDomains []string
	searchClient   *http.Client
	downloadClient *http.Client
}

// NewPexelsClient creates a client. A missing API key is a startup
// configuration error, never retried.
func NewPexelsClient(apiKey string, allowedDomains []string) (*PexelsClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("PEXELS_API_KEY not set")
	}
	return &PexelsClient{
		apiKey:         apiKey,
		baseURL:        pexelsBaseURL,
		allowedDomains: allowedDomains,
		searchClient:   &http.Client{Timeout: 10 * time.Second},
		downloadClient: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// Search queries Pexels for videos. perPage is capped at the API
// maximum of 80.
func (p *PexelsClient) Search(ctx context.Context, query, orientation, size string, perPage int) ([]Video, error) {
	if perPage > 80 {
		perPage = 80
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("orientation", orientation)
	params.Set("size", size)
	params.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.searchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pexels search: HTTP %d", resp.StatusCode)
	}

	var result struct {
		Videos []Video `json:"videos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parse pexels response: %w", err)
	}
	return result.Videos, nil
}

// Download fetches the best encoding of video into destPath and returns
// the path plus the encoding chosen. Portrait variants (height > width)
// are preferred; when none exist any variant is acceptable. The link's
// host must be on the allow-list or the request is never issued. If
// destPath already exists the network call is skipped entirely — the
// content-addressed name makes that safe.
func (p *PexelsClient) Download(ctx context.Context, video Video, destPath string) (string, VideoFile, error) {
	vf, err := pickEncoding(video)
	if err != nil {
		return "", VideoFile{}, err
	}

	if err := p.checkHost(vf.Link); err != nil {
		return "", VideoFile{}, err
	}

	if _, err := os.Stat(destPath); err == nil {
		log.Printf("[footage] Video already exists: %s", destPath)
		return destPath, vf, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", vf.Link, nil)
	if err != nil {
		return "", VideoFile{}, err
	}

	log.Printf("[footage] Downloading: %s...", destPath)
	resp, err := p.downloadClient.Do(req)
	if err != nil {
		return "", VideoFile{}, fmt.Errorf("pexels download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", VideoFile{}, fmt.Errorf("pexels download: HTTP %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return "", VideoFile{}, err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(destPath)
		return "", VideoFile{}, fmt.Errorf("save download: %w", err)
	}

	log.Printf("[footage] ✅ Downloaded: %s", destPath)
	return destPath, vf, nil
}

// pickEncoding prefers the tallest portrait variant, falling back to
// the tallest variant of any orientation.
func pickEncoding(video Video) (VideoFile, error) {
	if len(video.VideoFiles) == 0 {
		return VideoFile{}, fmt.Errorf("video %d has no encoded files", video.ID)
	}

	var portrait []VideoFile
	for _, vf := range video.VideoFiles {
		if vf.Height > vf.Width {
			portrait = append(portrait, vf)
		}
	}

	candidates := portrait
	if len(candidates) == 0 {
		candidates = append([]VideoFile(nil), video.VideoFiles...)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Height > candidates[j].Height
	})

	if candidates[0].Link == "" {
		return VideoFile{}, fmt.Errorf("video %d has no download link", video.ID)
	}
	return candidates[0], nil
}

// checkHost validates the resolved hostname against the allow-list
// before any request is made, so a manipulated response cannot steer
// the downloader to an arbitrary origin.
func (p *PexelsClient) checkHost(link string) error {
	parsed, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("%w: unparsable link", ErrUntrustedHost)
	}
	host := parsed.Hostname()
	for _, d := range p.allowedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUntrustedHost, host)
}
