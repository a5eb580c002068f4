package footage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shorts-pipeline/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient scripts search results per query substring and fabricates
// downloads on disk.
type fakeClient struct {
	results     map[string][]Video // query substring → results
	searches    []string
	downloads   int
	downloadErr error
}

func (f *fakeClient) Search(_ context.Context, query, _, _ string, _ int) ([]Video, error) {
	f.searches = append(f.searches, query)
	for sub, videos := range f.results {
		if strings.Contains(query, sub) {
			return videos, nil
		}
	}
	return nil, nil
}

func (f *fakeClient) Download(_ context.Context, video Video, destPath string) (string, VideoFile, error) {
	if f.downloadErr != nil {
		return "", VideoFile{}, f.downloadErr
	}
	f.downloads++
	if err := os.WriteFile(destPath, []byte("clip"), 0644); err != nil {
		return "", VideoFile{}, err
	}
	vf := video.VideoFiles[0]
	return destPath, vf, nil
}

func testFootageConfig() config.FootageConfig {
	return config.FootageConfig{
		Keywords: map[string][]string{
			"islamic": {"mosque"},
			"nature":  {"forest"},
		},
		FallbackCategory:  "nature",
		CacheDurationDays: 30,
		Safety: config.SafetyConfig{
			StrictMode:         true,
			NegativeQuery:      "-woman -bikini",
			BannedKeywords:     []string{"woman", "beach"},
			MandatoryModifiers: "no people, landscape",
		},
	}
}

func someVideo(id int64, duration int) Video {
	return Video{
		ID:       id,
		Duration: duration,
		URL:      fmt.Sprintf("https://www.pexels.com/video/%d/", id),
		VideoFiles: []VideoFile{
			{Width: 1080, Height: 1920, Link: fmt.Sprintf("https://videos.pexels.com/%d.mp4", id)},
		},
	}
}

func newTestResolver(t *testing.T, client SearchDownloader) (*Resolver, *Cache, string) {
	t.Helper()
	dir := t.TempDir()
	cache, err := LoadCache(dir)
	require.NoError(t, err)
	return NewResolver(testFootageConfig(), dir, client, cache), cache, dir
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "q_desert", CacheKey("desert"))
	assert.Equal(t, "q_desert_night", CacheKey("desert night"))
	assert.Equal(t, "q_desert_night", CacheKey("  Desert Night "))
}

func TestResolveCacheHitMakesNoNetworkCalls(t *testing.T) {
	client := &fakeClient{}
	resolver, cache, dir := newTestResolver(t, client)

	// Both possible keywords (the one AI keyword and the category
	// default) are cached, so any shuffle order hits the cache.
	for _, kw := range []string{"desert", "mosque"} {
		name := CacheKey(kw) + "_1.mp4"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("clip"), 0644))
		require.NoError(t, cache.Record(CacheKey(kw), name, VideoRecord{ID: 1, DownloadedAt: time.Now()}))
	}

	path, err := resolver.Resolve(context.Background(), "islamic", 10, "desert")

	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Empty(t, client.searches, "cache hit must short-circuit the search")
	assert.Zero(t, client.downloads)
}

func TestResolveSearchesAndRecords(t *testing.T) {
	client := &fakeClient{results: map[string][]Video{
		"desert": {someVideo(7, 30)},
		"mosque": {someVideo(8, 30)},
	}}
	resolver, cache, _ := newTestResolver(t, client)

	path, err := resolver.Resolve(context.Background(), "islamic", 10, "desert")

	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, 1, client.downloads)

	// The download was recorded under the winning keyword's cache key
	base := filepath.Base(path)
	key := strings.TrimSuffix(base[:strings.LastIndex(base, "_")], "")
	assert.Len(t, cache.LookupValid(key, time.Hour), 1)
}

func TestResolveBannedKeywordsNeverSearched(t *testing.T) {
	client := &fakeClient{results: map[string][]Video{
		"mosque": {someVideo(9, 30)},
	}}
	resolver, _, _ := newTestResolver(t, client)

	_, err := resolver.Resolve(context.Background(), "islamic", 10, "beautiful woman, beach party")

	require.NoError(t, err)
	// Both AI keywords are blocked, so only the category default is tried
	require.NotEmpty(t, client.searches)
	for _, q := range client.searches {
		assert.True(t, strings.HasPrefix(q, "mosque"), "banned keyword leaked into query: %q", q)
	}
}

func TestResolveStrictQueryShape(t *testing.T) {
	client := &fakeClient{results: map[string][]Video{
		"desert": {someVideo(7, 30)},
		"mosque": {someVideo(8, 30)},
	}}
	resolver, _, _ := newTestResolver(t, client)

	_, err := resolver.Resolve(context.Background(), "islamic", 10, "desert")
	require.NoError(t, err)

	require.NotEmpty(t, client.searches)
	q := client.searches[0]
	assert.Contains(t, q, "no people, landscape")
	assert.True(t, strings.HasSuffix(q, "-woman -bikini"), "negative query must be the suffix: %q", q)
}

func TestResolveDurationSoftFallback(t *testing.T) {
	// Every result is shorter than requested — the full set is used
	// rather than failing the keyword.
	client := &fakeClient{results: map[string][]Video{
		"desert": {someVideo(7, 5)},
		"mosque": {someVideo(8, 5)},
	}}
	resolver, _, _ := newTestResolver(t, client)

	path, err := resolver.Resolve(context.Background(), "islamic", 60, "desert")

	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestResolveFallsBackToFallbackCategory(t *testing.T) {
	// Nothing for the islamic keywords, results only for the nature
	// default keyword.
	client := &fakeClient{results: map[string][]Video{
		"forest": {someVideo(11, 30)},
	}}
	resolver, _, _ := newTestResolver(t, client)

	path, err := resolver.Resolve(context.Background(), "islamic", 15, "desert, quiet")

	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "q_forest")
}

func TestResolveExhaustedReturnsFootageUnavailable(t *testing.T) {
	client := &fakeClient{} // every search returns nothing
	resolver, _, _ := newTestResolver(t, client)

	_, err := resolver.Resolve(context.Background(), "islamic", 15, "desert")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFootageUnavailable)

	// Bounded fallback: islamic keywords plus nature keywords, no more
	assert.LessOrEqual(t, len(client.searches), 3)
}

func TestResolveFailedDownloadLeavesCacheUnmodified(t *testing.T) {
	client := &fakeClient{
		results:     map[string][]Video{"": {someVideo(7, 30)}},
		downloadErr: fmt.Errorf("%w: evil.example.com", ErrUntrustedHost),
	}
	resolver, cache, _ := newTestResolver(t, client)

	_, err := resolver.Resolve(context.Background(), "islamic", 10, "desert")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFootageUnavailable)
	assert.Equal(t, 0, cache.Len())
}
