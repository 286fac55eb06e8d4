package engine

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches template files for changes and evicts the
// corresponding compile-cache entry, targeting engine/cache.ManifestCache
// and the in-memory CacheManager together.
type FileWatcher struct {
	watcher    *fsnotify.Watcher
	engine     *Engine
	watchDir   string
	extensions []string
}

// NewFileWatcher builds a new file watcher over watchDir for the given file
// extensions (defaults to .html/.htm/.xml when nil).
func NewFileWatcher(engine *Engine, watchDir string, extensions []string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if extensions == nil {
		extensions = []string{".html", ".htm", ".xml"}
	}

	fw := &FileWatcher{
		watcher:    watcher,
		engine:     engine,
		watchDir:   watchDir,
		extensions: extensions,
	}

	if err := fw.addWatchRecursive(watchDir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return fw, nil
}

// addWatchRecursive adds every directory under dir to the watch set.
func (fw *FileWatcher) addWatchRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fw.watcher.Add(path)
		}
		return nil
	})
}

// Start begins watching in its own goroutine; stop it with Stop.
func (fw *FileWatcher) Start() {
	if !fw.engine.InvalidateEnabled() {
		return
	}

	go func() {
		for {
			select {
			case event, ok := <-fw.watcher.Events:
				if !ok {
					return
				}

				if fw.isTemplateFile(event.Name) && (event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Remove == fsnotify.Remove) {
					relPath, err := filepath.Rel(fw.watchDir, event.Name)
					if err != nil {
						relPath = event.Name
					}
					fmt.Printf("template changed: %s, invalidating compile cache\n", relPath)
					if err := fw.engine.ClearCacheFor(relPath); err != nil {
						log.Printf("clearing cache for %s: %v", relPath, err)
					}
				}

			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("watcher error: %v", err)
			}
		}
	}()
}

// isTemplateFile reports whether filename's extension is a watched one.
func (fw *FileWatcher) isTemplateFile(filename string) bool {
	ext := filepath.Ext(filename)
	for _, allowed := range fw.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Stop ends watching.
func (fw *FileWatcher) Stop() {
	_ = fw.watcher.Close()
}
