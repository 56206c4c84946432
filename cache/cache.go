// Package cache is the Semantic Cache (C11): a content-addressed map of
// previously extracted SemanticFeatures keyed by (filePath, qualifiedName,
// content-hash), persisted through an afs.Service the way the teacher
// persists/reads project documents (inspector/info/document.go's
// fs.DownloadWithURL), generalized here to round-trip JSON and to an Upload
// call on save. A single mutex gives the single-writer discipline §5
// requires; reads go through the same lock (read-through, no separate RLock
// path, since Get/Set are always paired with a content-hash check that is
// cheap enough not to warrant RWMutex). GetOrCompute folds a miss-then-fill
// into a single call and de-duplicates concurrent identical misses (e.g.
// two Phase 1 workers extracting the same unchanged entity) through
// golang.org/x/sync/singleflight, so only one caller actually runs the
// (possibly LLM-backed) compute func while the rest wait on its result.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/viant/afs"
	"golang.org/x/sync/singleflight"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/internal/rlog"
	"github.com/viant/rpgraph/rpgerr"
)

// Key identifies one cache entry.
type Key struct {
	FilePath      string
	QualifiedName string
}

func (k Key) String() string { return k.FilePath + "\x00" + k.QualifiedName }

// entry is the on-disk and in-memory cache record.
type entry struct {
	Hash    uint64              `json:"hash"`
	Feature graph.SemanticFeature `json:"feature"`
}

// document is the serialized cache file shape.
type document struct {
	Version int                    `json:"version"`
	Entries map[string]entry      `json:"entries"`
}

const schemaVersion = 1

// Cache is the Semantic Cache. Zero value is not usable; use New.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	fs      afs.Service
	url     string
	sf      singleflight.Group
	log     interface {
		Warn(msg string, args ...any)
	}
}

// New returns a Cache persisted at url (e.g. "file:///repo/.rpgraph-cache.json").
// fs defaults to afs.New() when nil.
func New(fs afs.Service, url string) *Cache {
	if fs == nil {
		fs = afs.New()
	}
	return &Cache{
		entries: make(map[string]entry),
		fs:      fs,
		url:     url,
		log:     rlog.Named("cache"),
	}
}

// Load reads the persisted cache document from url, if it exists. A missing
// file is not an error: the cache simply starts empty.
func (c *Cache) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	exists, err := c.fs.Exists(ctx, c.url)
	if err != nil {
		return rpgerr.Store(err, "check cache existence")
	}
	if !exists {
		return nil
	}
	data, err := c.fs.DownloadWithURL(ctx, c.url)
	if err != nil {
		return rpgerr.Store(err, "download cache")
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		c.log.Warn("discarding unreadable cache file", "url", c.url, "error", err)
		return nil
	}
	if doc.Entries != nil {
		c.entries = doc.Entries
	}
	return nil
}

// Get returns the cached feature for (filePath, qualifiedName) if present and
// its stored hash matches ContentHash(content).
func (c *Cache) Get(filePath, qualifiedName string, content []byte) (graph.SemanticFeature, bool) {
	h, err := ContentHash(content)
	if err != nil {
		return graph.SemanticFeature{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[Key{filePath, qualifiedName}.String()]
	if !ok || e.Hash != h {
		return graph.SemanticFeature{}, false
	}
	return e.Feature, true
}

// Set stores feature for (filePath, qualifiedName), keyed by ContentHash(content).
func (c *Cache) Set(filePath, qualifiedName string, content []byte, feature graph.SemanticFeature) {
	h, err := ContentHash(content)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key{filePath, qualifiedName}.String()] = entry{Hash: h, Feature: feature}
}

// GetOrCompute returns the cached feature for (filePath, qualifiedName) when
// its stored hash matches ContentHash(content); otherwise it runs compute
// exactly once per distinct (key, hash) even when called concurrently by
// several goroutines for the same entity, and caches the result.
func (c *Cache) GetOrCompute(filePath, qualifiedName string, content []byte, compute func() (graph.SemanticFeature, error)) (graph.SemanticFeature, error) {
	h, err := ContentHash(content)
	if err != nil {
		return compute()
	}
	key := Key{filePath, qualifiedName}.String()

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if ok && e.Hash == h {
		return e.Feature, nil
	}

	sfKey := key + "\x00" + strconv.FormatUint(h, 16)
	v, err, _ := c.sf.Do(sfKey, func() (any, error) {
		feature, err := compute()
		if err != nil {
			return graph.SemanticFeature{}, err
		}
		c.mu.Lock()
		c.entries[key] = entry{Hash: h, Feature: feature}
		c.mu.Unlock()
		return feature, nil
	})
	if err != nil {
		return graph.SemanticFeature{}, err
	}
	return v.(graph.SemanticFeature), nil
}

// InvalidateFile drops every cached entry belonging to filePath, used by
// Evolution when a file is deleted or modified beyond recognition.
func (c *Cache) InvalidateFile(filePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := filePath + "\x00"
	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
}

// Save persists the current cache contents to url.
func (c *Cache) Save(ctx context.Context) error {
	c.mu.Lock()
	doc := document{Version: schemaVersion, Entries: c.entries}
	c.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return rpgerr.Store(err, "marshal cache")
	}
	if err := c.fs.Upload(ctx, c.url, 0644, bytes.NewReader(data)); err != nil {
		return rpgerr.Store(err, "upload cache")
	}
	return nil
}
