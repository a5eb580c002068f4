package footage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

const cacheFileName = "footage_cache.json"

// VideoRecord is the provenance of one downloaded clip
type VideoRecord struct {
	ID           int64     `json:"id"`
	URL          string    `json:"url"`
	DownloadedAt time.Time `json:"downloaded_at"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Duration     float64   `json:"duration"`
}

type cacheDocument struct {
	Videos   map[string]VideoRecord `json:"videos"`
	Keywords map[string][]string    `json:"keywords"`
}

// Cache tracks downloaded footage on disk as a single JSON document:
// filename → provenance, plus cache key → filenames known to satisfy
// that keyword. A single process owns the file; there is no locking.
type Cache struct {
	dir  string
	path string
	doc  cacheDocument
}

// LoadCache reads the cache document from dir. A missing file yields an
// empty document; a file that exists but cannot be parsed is corruption
// requiring operator attention, reported via ErrCacheCorrupt.
func LoadCache(dir string) (*Cache, error) {
	c := &Cache{
		dir:  dir,
		path: filepath.Join(dir, cacheFileName),
		doc: cacheDocument{
			Videos:   make(map[string]VideoRecord),
			Keywords: make(map[string][]string),
		},
	}

	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read footage cache: %w", err)
	}

	if err := json.Unmarshal(data, &c.doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCacheCorrupt, c.path, err)
	}
	if c.doc.Videos == nil {
		c.doc.Videos = make(map[string]VideoRecord)
	}
	if c.doc.Keywords == nil {
		c.doc.Keywords = make(map[string][]string)
	}
	return c, nil
}

// Save rewrites the whole document. The temp-file rename keeps a reader
// of this process from ever observing a partial write.
func (c *Cache) Save() error {
	data, err := json.MarshalIndent(c.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal footage cache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write footage cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace footage cache: %w", err)
	}
	return nil
}

// LookupValid returns full paths for cached filenames under cacheKey
// whose file still exists on disk and was downloaded within ttl.
// Entries failing either check are misses for this call only — eviction
// is EvictOlderThan's job, so lookups stay side-effect free.
func (c *Cache) LookupValid(cacheKey string, ttl time.Duration) []string {
	var valid []string
	now := time.Now()

	for _, filename := range c.doc.Keywords[cacheKey] {
		rec, ok := c.doc.Videos[filename]
		if !ok {
			// Keyword bucket references a video we have no record of.
			// Treated as absent, never a crash.
			continue
		}
		path := filepath.Join(c.dir, filename)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if now.Sub(rec.DownloadedAt) >= ttl {
			continue
		}
		valid = append(valid, path)
	}
	return valid
}

// Record stores a downloaded clip under cacheKey and persists. Appending
// the same filename twice is a no-op on the keyword bucket.
func (c *Cache) Record(cacheKey, filename string, rec VideoRecord) error {
	c.doc.Videos[filename] = rec

	found := false
	for _, f := range c.doc.Keywords[cacheKey] {
		if f == filename {
			found = true
			break
		}
	}
	if !found {
		c.doc.Keywords[cacheKey] = append(c.doc.Keywords[cacheKey], filename)
	}

	return c.Save()
}

// Len reports the number of cached video records.
func (c *Cache) Len() int {
	return len(c.doc.Videos)
}

// EvictOlderThan deletes every clip downloaded more than maxAge ago,
// removes its record, prunes keyword buckets that reference removed
// clips and drops buckets left empty. Persists once at the end and
// returns the number of records removed.
func (c *Cache) EvictOlderThan(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for filename, rec := range c.doc.Videos {
		if !rec.DownloadedAt.Before(cutoff) {
			continue
		}
		path := filepath.Join(c.dir, filename)
		if _, err := os.Stat(path); err == nil {
			if err := os.Remove(path); err != nil {
				log.Printf("[footage] Warning: could not remove %s: %v", path, err)
			}
		}
		delete(c.doc.Videos, filename)
		removed++
	}

	for key, files := range c.doc.Keywords {
		kept := files[:0]
		for _, f := range files {
			if _, ok := c.doc.Videos[f]; ok {
				kept = append(kept, f)
			}
		}
		if len(kept) == 0 {
			delete(c.doc.Keywords, key)
		} else {
			c.doc.Keywords[key] = kept
		}
	}

	if err := c.Save(); err != nil {
		return removed, err
	}
	return removed, nil
}
