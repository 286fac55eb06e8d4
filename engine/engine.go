package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sfire-framework/sfire-template/engine/ast"
	"github.com/sfire-framework/sfire-template/engine/cache"
	"github.com/sfire-framework/sfire-template/engine/compiler"
)

// ErrTemplateNotFound is raised when a template name cannot be resolved
// against the engine's filesystem.
type ErrTemplateNotFound struct {
	Name string
}

func (e *ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("template not found: %q", e.Name)
}

// EngineConfig configures an Engine: a compile-only facade whose Compile
// returns opaque artifact text rather than rendering it.
type EngineConfig struct {
	TemplatesDir string
	CacheDir     string
	// AutoModeExtensions maps a file extension to the ast.ContentType its
	// source should be parsed with, so the engine can pick the HTML or XML
	// producer per template without the caller naming it explicitly.
	AutoModeExtensions map[string]ast.ContentType
	EnableCache        bool
	Development        bool // when true, cache reads are bypassed (always recompile)
	SkipComments       bool
	FS                 fs.FS

	// CacheTTLMinutes bounds how long an in-memory cache entry is served
	// before Compile treats it as a miss and recompiles the source, 0
	// disables the TTL (source mtime-freshness still applies regardless).
	CacheTTLMinutes int
	// CacheMaxSizeMB bounds the in-memory cache's total artifact size, 0
	// disables size-based eviction.
	CacheMaxSizeMB int
}

// DefaultAutoModeExtensions is used when EngineConfig.AutoModeExtensions is
// nil: .xml sources go through the etree producer, everything else through
// the html/x/net/html producer.
func DefaultAutoModeExtensions() map[string]ast.ContentType {
	return map[string]ast.ContentType{
		".xml": ast.ContentXML,
	}
}

// Engine is the package's main facade: Compile returns artifact text rather
// than a *template.Template ready to render directly — rendering belongs to
// the host evaluator.
type Engine struct {
	cfg      EngineConfig
	fsys     fs.FS
	cacheMgr *CacheManager
	compiler *compiler.Compiler

	mu                  sync.Mutex
	enableCache         bool
	development         bool
	lastUsedContentType string
	usageCounts         map[string]int
}

// NewEngine builds an Engine from cfg. Cache directory creation/writability
// is probed eagerly so a misconfigured cache dir fails fast at construction
// rather than on the first Compile.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.AutoModeExtensions == nil {
		cfg.AutoModeExtensions = DefaultAutoModeExtensions()
	}
	if cfg.FS == nil {
		cfg.FS = NewHybridFS(cfg.TemplatesDir, nil)
	}

	e := &Engine{
		cfg:         cfg,
		fsys:        cfg.FS,
		compiler:    compiler.NewCompiler(cfg.TemplatesDir, cfg.CacheDir, cfg.SkipComments),
		usageCounts: make(map[string]int),
		enableCache: cfg.EnableCache,
		development: cfg.Development,
	}

	if cfg.EnableCache {
		mc, err := cache.NewManifestCache(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
		maxBytes := int64(cfg.CacheMaxSizeMB) * 1024 * 1024
		e.cacheMgr = NewCacheManager(mc, ttl, maxBytes)
	}
	return e, nil
}

// chooseContentTypeFor picks the ast.ContentType for a template name by
// extension, defaulting to HTML when no entry matches.
func (e *Engine) chooseContentTypeFor(name string) ast.ContentType {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := e.cfg.AutoModeExtensions[ext]; ok {
		return ct
	}
	return ast.ContentHTML
}

// Compile resolves templateName against the engine's filesystem, parses it
// with the content type chosen for its extension, and runs the Node
// Compiler over the resulting tree. A fresh cache entry is served instead of
// recompiling, unless Development is set or caching is disabled.
func (e *Engine) Compile(templateName string) (string, error) {
	info, err := fs.Stat(e.fsys, templateName)
	if err != nil {
		return "", &ErrTemplateNotFound{Name: templateName}
	}
	sourceMtime := info.ModTime()

	e.mu.Lock()
	cacheActive := e.enableCache && !e.development && e.cacheMgr != nil
	e.mu.Unlock()

	if cacheActive {
		if artifact, ok := e.cacheMgr.Get(templateName, sourceMtime); ok {
			e.recordUsage(templateName)
			return artifact, nil
		}
	}

	raw, err := fs.ReadFile(e.fsys, templateName)
	if err != nil {
		return "", &ErrTemplateNotFound{Name: templateName}
	}

	contentType := e.chooseContentTypeFor(templateName)
	tree, err := ast.Parse(string(raw), contentType)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", templateName, err)
	}

	artifact, err := e.compiler.Compile(tree)
	if err != nil {
		return "", fmt.Errorf("compiling %s: %w", templateName, err)
	}

	if cacheActive {
		if err := e.cacheMgr.Put(templateName, artifact, sourceMtime); err != nil {
			return "", fmt.Errorf("writing compile cache for %s: %w", templateName, err)
		}
	}

	e.recordUsage(templateName)
	return artifact, nil
}

func (e *Engine) recordUsage(templateName string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsedContentType = e.chooseContentTypeFor(templateName).String()
	e.usageCounts[templateName]++
}

// LastUsedContentType reports the content type ("html" or "xml") of the
// most recently compiled template.
func (e *Engine) LastUsedContentType() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastUsedContentType
}

// UsageCounts returns a snapshot of per-template compile counts.
func (e *Engine) UsageCounts() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]int, len(e.usageCounts))
	for k, v := range e.usageCounts {
		out[k] = v
	}
	return out
}

// ClearCacheFor evicts a single template's cache entry, used by FileWatcher
// when the underlying source changes on disk.
func (e *Engine) ClearCacheFor(templateName string) error {
	if e.cacheMgr == nil {
		return nil
	}
	return e.cacheMgr.Remove(templateName)
}

// ClearCache drops every in-memory cache entry; the on-disk manifest is
// left intact.
func (e *Engine) ClearCache() {
	if e.cacheMgr != nil {
		e.cacheMgr.Clear()
	}
}

// CacheStats reports the in-memory cache's counters.
func (e *Engine) CacheStats() map[string]interface{} {
	if e.cacheMgr == nil {
		return map[string]interface{}{"enabled": false}
	}
	stats := e.cacheMgr.Stats()
	stats["enabled"] = true
	return stats
}

// GetCachedTemplates lists the template names currently resident in the
// in-memory cache layer.
func (e *Engine) GetCachedTemplates() []string {
	if e.cacheMgr == nil {
		return nil
	}
	return e.cacheMgr.CachedTemplateNames()
}

// EnableCache toggles caching at runtime.
func (e *Engine) EnableCache(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enableCache = enabled
}

// SetDevelopmentMode toggles the development bypass at runtime.
func (e *Engine) SetDevelopmentMode(dev bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.development = dev
}

// InvalidateEnabled reports whether this engine has a compile cache to
// invalidate at all, so a FileWatcher can skip attaching when caching is off.
func (e *Engine) InvalidateEnabled() bool {
	return e.cacheMgr != nil
}

// PreloadTemplates walks TemplatesDir and compiles every matching source up
// front, so the first real request never pays a cold-compile cost.
func (e *Engine) PreloadTemplates() error {
	var errs []string
	err := filepath.Walk(e.cfg.TemplatesDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(e.cfg.TemplatesDir, path)
		if err != nil {
			return nil
		}
		if _, err := e.Compile(filepath.ToSlash(rel)); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", rel, err))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return fmt.Errorf("preload warnings: %s", strings.Join(errs, "; "))
	}
	return nil
}

// WarmupCache is an alias for PreloadTemplates.
func (e *Engine) WarmupCache() error {
	return e.PreloadTemplates()
}
