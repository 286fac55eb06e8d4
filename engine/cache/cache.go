// Package cache implements the Compile Cache: a path+mtime
// keyed artifact store. The Node Compiler re-compiles a source iff the cache
// is disabled or the source has been modified after the mtime recorded at
// cache time.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrCacheDirNotWritable is raised when the configured cache directory fails
// the writability probe at construction.
var ErrCacheDirNotWritable = errors.New("cache directory not writable")

// Cache is the compile cache's storage contract.
type Cache interface {
	Get(sourcePath string) (artifact string, mtime time.Time, ok bool)
	Put(sourcePath, artifact string, mtime time.Time) error
}

// entry is one manifest row, keyed by source path.
type entry struct {
	Artifact string    `json:"artifact"`
	Mtime    time.Time `json:"mtime"`
	File     string    `json:"file"`
}

const manifestName = "compiled_manifest.json"

// ManifestCache is a Cache backed by a JSON manifest plus individual
// artifact files named per Filename, applying a path+mtime freshness rule.
type ManifestCache struct {
	mu       sync.RWMutex
	cacheDir string
	entries  map[string]entry
}

// NewManifestCache opens (creating if absent) the manifest at cacheDir.
// A cache-directory-not-writable probe happens here.
func NewManifestCache(cacheDir string) (*ManifestCache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCacheDirNotWritable, cacheDir, err)
	}
	probe := filepath.Join(cacheDir, ".write-probe")
	if err := os.WriteFile(probe, []byte{}, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCacheDirNotWritable, cacheDir, err)
	}
	_ = os.Remove(probe)

	mc := &ManifestCache{cacheDir: cacheDir, entries: make(map[string]entry)}
	if err := mc.load(); err != nil {
		return nil, err
	}
	return mc, nil
}

func (mc *ManifestCache) manifestPath() string {
	return filepath.Join(mc.cacheDir, manifestName)
}

func (mc *ManifestCache) load() error {
	data, err := os.ReadFile(mc.manifestPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading compile cache manifest: %w", err)
	}
	var entries map[string]entry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt manifest is treated as empty rather than fatal; every
		// source simply recompiles and repopulates it.
		return nil
	}
	mc.entries = entries
	return nil
}

func (mc *ManifestCache) persist() error {
	data, err := json.MarshalIndent(mc.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal compile cache manifest: %w", err)
	}
	return os.WriteFile(mc.manifestPath(), data, 0o644)
}

// Get returns the cached artifact and the mtime it was cached under.
func (mc *ManifestCache) Get(sourcePath string) (string, time.Time, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	e, ok := mc.entries[sourcePath]
	if !ok {
		return "", time.Time{}, false
	}
	return e.Artifact, e.Mtime, true
}

// Put stores artifact for sourcePath under mtime, last-writer-wins.
func (mc *ManifestCache) Put(sourcePath, artifact string, mtime time.Time) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	file := Filename(sourcePath)
	if err := os.WriteFile(filepath.Join(mc.cacheDir, file), []byte(artifact), 0o644); err != nil {
		return fmt.Errorf("writing compiled artifact: %w", err)
	}
	mc.entries[sourcePath] = entry{Artifact: artifact, Mtime: mtime, File: file}
	return mc.persist()
}

// Entry is one manifest row as exposed to callers warming an in-memory
// layer from the on-disk manifest.
type Entry struct {
	SourcePath string
	Artifact   string
	Mtime      time.Time
}

// Entries returns a snapshot of every manifest row, so a process-local cache
// layer can warm itself from what a previous run compiled.
func (mc *ManifestCache) Entries() []Entry {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	out := make([]Entry, 0, len(mc.entries))
	for path, e := range mc.entries {
		out = append(out, Entry{SourcePath: path, Artifact: e.Artifact, Mtime: e.Mtime})
	}
	return out
}

// Remove evicts sourcePath's entry and its artifact file, used by the file
// watcher when a source is edited or deleted out from under a running engine.
func (mc *ManifestCache) Remove(sourcePath string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.entries[sourcePath]
	if !ok {
		return nil
	}
	delete(mc.entries, sourcePath)
	_ = os.Remove(filepath.Join(mc.cacheDir, e.File))
	return mc.persist()
}

// Fresh reports whether a cached entry recorded at cachedMtime is still
// usable for a source currently at sourceMtimeNow: an untouched source
// (mtime unchanged or rolled back) serves from cache, a source modified
// after the entry was recorded recompiles.
func Fresh(sourceMtimeNow, cachedMtime time.Time) bool {
	return !sourceMtimeNow.After(cachedMtime)
}
