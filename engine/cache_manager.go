package engine

import (
	"sync"
	"time"

	"github.com/sfire-framework/sfire-template/engine/cache"
)

// cacheManagerEntry is an in-memory row layered on top of the on-disk
// engine/cache.ManifestCache: it adds a TTL and a size estimate so the
// process-local view can expire or evict without touching the manifest.
type cacheManagerEntry struct {
	artifact  string
	sourceMt  time.Time
	cachedAt  time.Time
	sizeBytes int
}

// CacheManager is the in-memory front of the compile cache. It is warmed
// from the on-disk engine/cache.ManifestCache at construction (so a restart
// serves what the previous run compiled), writes through to it on Put, and
// additionally expires entries older than ttl and evicts the
// earliest-inserted entry once maxSizeBytes is exceeded (re-putting an
// existing name keeps its original position).
type CacheManager struct {
	mu           sync.Mutex
	manifest     *cache.ManifestCache
	entries      map[string]cacheManagerEntry
	order        []string // insertion order, oldest first, for size eviction
	ttl          time.Duration
	maxSizeBytes int64
	totalBytes   int64

	hits, misses, evictions int
}

// NewCacheManager wraps manifest with an in-memory TTL/size-bound layer.
// ttl <= 0 disables expiry; maxSizeBytes <= 0 disables size eviction.
func NewCacheManager(manifest *cache.ManifestCache, ttl time.Duration, maxSizeBytes int64) *CacheManager {
	cm := &CacheManager{
		manifest:     manifest,
		entries:      make(map[string]cacheManagerEntry),
		ttl:          ttl,
		maxSizeBytes: maxSizeBytes,
	}
	now := time.Now()
	for _, e := range manifest.Entries() {
		cm.entries[e.SourcePath] = cacheManagerEntry{
			artifact:  e.Artifact,
			sourceMt:  e.Mtime,
			cachedAt:  now,
			sizeBytes: len(e.Artifact),
		}
		cm.order = append(cm.order, e.SourcePath)
		cm.totalBytes += int64(len(e.Artifact))
	}
	cm.evictIfOversizeLocked()
	return cm
}

// Get returns a cached artifact for templateName if present, not expired by
// TTL, and still fresh against sourceMtime.
func (cm *CacheManager) Get(templateName string, sourceMtime time.Time) (string, bool) {
	cm.mu.Lock()
	e, ok := cm.entries[templateName]
	cm.mu.Unlock()

	if !ok || !cache.Fresh(sourceMtime, e.sourceMt) {
		cm.recordMiss()
		return "", false
	}
	if cm.ttl > 0 && time.Since(e.cachedAt) > cm.ttl {
		cm.recordMiss()
		return "", false
	}
	cm.recordHit()
	return e.artifact, true
}

// Put stores artifact in both the in-memory layer and the backing manifest,
// evicting the oldest entries first if maxSizeBytes would be exceeded.
func (cm *CacheManager) Put(templateName, artifact string, sourceMtime time.Time) error {
	if err := cm.manifest.Put(templateName, artifact, sourceMtime); err != nil {
		return err
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if old, exists := cm.entries[templateName]; exists {
		cm.totalBytes -= int64(old.sizeBytes)
	} else {
		cm.order = append(cm.order, templateName)
	}

	size := len(artifact)
	cm.entries[templateName] = cacheManagerEntry{
		artifact:  artifact,
		sourceMt:  sourceMtime,
		cachedAt:  time.Now(),
		sizeBytes: size,
	}
	cm.totalBytes += int64(size)

	cm.evictIfOversizeLocked()
	return nil
}

func (cm *CacheManager) evictIfOversizeLocked() {
	if cm.maxSizeBytes <= 0 {
		return
	}
	for cm.totalBytes > cm.maxSizeBytes && len(cm.order) > 0 {
		oldest := cm.order[0]
		cm.order = cm.order[1:]
		if e, ok := cm.entries[oldest]; ok {
			cm.totalBytes -= int64(e.sizeBytes)
			delete(cm.entries, oldest)
			cm.evictions++
		}
	}
}

// Remove evicts templateName from both layers, used by FileWatcher.
func (cm *CacheManager) Remove(templateName string) error {
	cm.mu.Lock()
	if e, ok := cm.entries[templateName]; ok {
		cm.totalBytes -= int64(e.sizeBytes)
		delete(cm.entries, templateName)
		for i, n := range cm.order {
			if n == templateName {
				cm.order = append(cm.order[:i], cm.order[i+1:]...)
				break
			}
		}
	}
	cm.mu.Unlock()
	return cm.manifest.Remove(templateName)
}

func (cm *CacheManager) recordHit() {
	cm.mu.Lock()
	cm.hits++
	cm.mu.Unlock()
}

func (cm *CacheManager) recordMiss() {
	cm.mu.Lock()
	cm.misses++
	cm.mu.Unlock()
}

// Stats reports counters for a dev-mode inspection endpoint.
func (cm *CacheManager) Stats() map[string]interface{} {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return map[string]interface{}{
		"entries":     len(cm.entries),
		"size_bytes":  cm.totalBytes,
		"hits":        cm.hits,
		"misses":      cm.misses,
		"evictions":   cm.evictions,
		"ttl_seconds": cm.ttl.Seconds(),
	}
}

// CachedTemplateNames returns the template names currently resident in the
// in-memory layer, in insertion order.
func (cm *CacheManager) CachedTemplateNames() []string {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	out := make([]string, len(cm.order))
	copy(out, cm.order)
	return out
}

// Clear drops every in-memory entry; the on-disk manifest is left intact so
// a restart can still serve from it.
func (cm *CacheManager) Clear() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.entries = make(map[string]cacheManagerEntry)
	cm.order = nil
	cm.totalBytes = 0
}
