package pageindex

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// PatternCache holds validated page patterns and extracted TOCs, keyed by a
// document format signature (typically ticker + form, since issuers keep one
// rendering convention across years). It is append-only and read-mostly:
// entries are written once after validation and then shared read-only across
// worker goroutines. Only validated patterns may ever be stored.
type PatternCache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
}

// CacheEntry is one discovered-and-validated format record.
type CacheEntry struct {
	PageRegex string     `json:"page_regex,omitempty"`
	TOC       []TOCEntry `json:"toc,omitempty"`
}

func NewPatternCache() *PatternCache {
	return &PatternCache{entries: make(map[string]CacheEntry)}
}

// Get returns the entry for a format signature.
func (c *PatternCache) Get(signature string) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[signature]
	return entry, ok
}

// PutPattern stores a page regex after re-running the compile gate. Storing
// is refused for patterns that no longer compile: the cache must never hand
// out something slicing cannot use.
func (c *PatternCache) PutPattern(signature, pattern string) error {
	if _, err := compilePattern(pattern); err != nil {
		return fmt.Errorf("refusing to cache: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := c.entries[signature]
	entry.PageRegex = pattern
	c.entries[signature] = entry
	return nil
}

// PutTOC stores an extracted table of contents.
func (c *PatternCache) PutTOC(signature string, toc []TOCEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := c.entries[signature]
	entry.TOC = toc
	c.entries[signature] = entry
}

// Load merges entries from a JSON cache file. A missing file is not an
// error; a first run simply starts empty.
func (c *PatternCache) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading pattern cache: %w", err)
	}
	var loaded map[string]CacheEntry
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("pattern cache malformed: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for sig, entry := range loaded {
		// Drop persisted patterns that no longer compile rather than carry
		// them into the run.
		if entry.PageRegex != "" {
			if _, err := compilePattern(entry.PageRegex); err != nil {
				continue
			}
		}
		c.entries[sig] = entry
	}
	return nil
}

// Save writes the cache to disk, preserving keys already present in the file
// that this process never touched.
func (c *PatternCache) Save(path string) error {
	merged := make(map[string]CacheEntry)
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &merged)
	}

	c.mu.RLock()
	for sig, entry := range c.entries {
		merged[sig] = entry
	}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling pattern cache: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing pattern cache: %w", err)
	}
	return nil
}
