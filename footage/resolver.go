package footage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"shorts-pipeline/config"
)

// SearchDownloader is the remote client boundary the Resolver talks to.
// *PexelsClient satisfies it.
type SearchDownloader interface {
	Search(ctx context.Context, query, orientation, size string, perPage int) ([]Video, error)
	Download(ctx context.Context, video Video, destPath string) (string, VideoFile, error)
}

// Resolver answers "give me a clip for this category, at least this
// long, using these AI-suggested keywords if they are safe". It layers
// cache-before-search so repeated runs avoid redundant egress, and a
// bounded category fallback so a bad keyword set never sinks a run on
// its own.
type Resolver struct {
	cfg    config.FootageConfig
	dir    string
	client SearchDownloader
	cache  *Cache
}

// NewResolver wires the resolver to its cache and remote client. The
// cache is an explicit owned object: the caller loads it once and the
// resolver persists through it after every successful download.
func NewResolver(cfg config.FootageConfig, dir string, client SearchDownloader, cache *Cache) *Resolver {
	return &Resolver{cfg: cfg, dir: dir, client: client, cache: cache}
}

// CacheKey derives the stable bucket key for a search keyword:
// trimmed, lowercased, spaces replaced with underscores, "q_" prefix.
func CacheKey(keyword string) string {
	normalized := strings.ToLower(strings.TrimSpace(keyword))
	return "q_" + strings.ReplaceAll(normalized, " ", "_")
}

// Resolve returns the local path of a suitable clip, or
// ErrFootageUnavailable once the requested category and the configured
// fallback category are both exhausted. The fallback hop happens at
// most once: an explicit loop, not recursion.
func (r *Resolver) Resolve(ctx context.Context, category string, minDuration int, aiKeywords string) (string, error) {
	categories := []string{category}
	if category != r.cfg.FallbackCategory {
		categories = append(categories, r.cfg.FallbackCategory)
	}

	for i, cat := range categories {
		if i > 0 {
			log.Printf("[footage] Falling back to %s footage...", cat)
			// AI keywords belong to the original request only.
			aiKeywords = ""
		}
		path, err := r.resolveCategory(ctx, cat, minDuration, aiKeywords)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, ErrFootageUnavailable) {
			return "", err
		}
	}

	return "", fmt.Errorf("%w: category %q and fallback exhausted", ErrFootageUnavailable, category)
}

func (r *Resolver) resolveCategory(ctx context.Context, category string, minDuration int, aiKeywords string) (string, error) {
	keywords := r.assembleKeywords(category, aiKeywords)
	if len(keywords) == 0 {
		return "", fmt.Errorf("%w: no keywords for category %q", ErrFootageUnavailable, category)
	}

	// Shuffle so repeated runs do not always prefer the same keyword.
	rand.Shuffle(len(keywords), func(i, j int) {
		keywords[i], keywords[j] = keywords[j], keywords[i]
	})

	for _, keyword := range keywords {
		cacheKey := CacheKey(keyword)

		ttl := time.Duration(r.cfg.CacheDurationDays) * 24 * time.Hour
		if cached := r.cache.LookupValid(cacheKey, ttl); len(cached) > 0 {
			pick := cached[rand.Intn(len(cached))]
			log.Printf("[footage] Cache hit for %q: %s", keyword, filepath.Base(pick))
			return pick, nil
		}

		query := r.buildQuery(keyword)
		log.Printf("[footage] Searching Pexels with strict query: %q...", query)

		videos, err := r.client.Search(ctx, query, "portrait", "medium", 15)
		if err != nil {
			log.Printf("[footage] Warning: search for %q failed: %v", keyword, err)
			continue
		}
		if len(videos) == 0 {
			continue
		}

		// Duration is a soft preference: when nothing is long enough,
		// take what exists rather than failing the keyword.
		suitable := make([]Video, 0, len(videos))
		for _, v := range videos {
			if v.Duration >= minDuration {
				suitable = append(suitable, v)
			}
		}
		if len(suitable) == 0 {
			suitable = videos
		}

		// Random pick from the top 10 keeps results relevant without
		// always reusing the single top hit.
		topN := len(suitable)
		if topN > 10 {
			topN = 10
		}
		video := suitable[rand.Intn(topN)]

		filename := fmt.Sprintf("%s_%d.mp4", cacheKey, video.ID)
		destPath := filepath.Join(r.dir, filename)

		path, vf, err := r.client.Download(ctx, video, destPath)
		if err != nil {
			log.Printf("[footage] Warning: download for %q failed: %v", keyword, err)
			continue
		}

		rec := VideoRecord{
			ID:           video.ID,
			URL:          video.URL,
			DownloadedAt: time.Now(),
			Width:        vf.Width,
			Height:       vf.Height,
			Duration:     float64(video.Duration),
		}
		if err := r.cache.Record(cacheKey, filename, rec); err != nil {
			log.Printf("[footage] Warning: could not persist cache entry for %s: %v", filename, err)
		}
		return path, nil
	}

	return "", ErrFootageUnavailable
}

// assembleKeywords builds the shuffled trial set: safety-filtered AI
// suggestions first, then always exactly one random category default so
// the set is never empty and output stays varied.
func (r *Resolver) assembleKeywords(category, aiKeywords string) []string {
	var keywords []string

	if aiKeywords != "" {
		var candidates []string
		for _, k := range strings.Split(aiKeywords, ",") {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				candidates = append(candidates, k)
			}
		}

		safe, blocked := FilterKeywords(candidates, r.cfg.Safety.BannedKeywords)
		for _, b := range blocked {
			log.Printf("[footage] ⚠️  BLOCKED unsafe keyword: %q (contains %q)", b.Keyword, b.Matched)
		}
		if len(safe) > 0 {
			keywords = safe
		} else if len(blocked) > 0 {
			log.Println("[footage] ⚠️  All AI keywords were blocked. Falling back to category defaults.")
		}
	}

	if defaults := r.cfg.Keywords[category]; len(defaults) > 0 {
		keywords = append(keywords, defaults[rand.Intn(len(defaults))])
	}

	return keywords
}

// buildQuery combines the keyword with the mandatory safety modifiers
// and the negative-query suffix, so banned framing never reaches the
// search service in the first place.
func (r *Resolver) buildQuery(keyword string) string {
	terms := []string{keyword}
	if r.cfg.Safety.StrictMode && r.cfg.Safety.MandatoryModifiers != "" {
		terms = append(terms, r.cfg.Safety.MandatoryModifiers)
	}
	return strings.TrimSpace(strings.Join(terms, ", ") + " " + r.cfg.Safety.NegativeQuery)
}
