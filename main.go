package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sfire-framework/sfire-template/engine"
)

func main() {
	eng, err := engine.NewEngine(engine.EngineConfig{
		TemplatesDir:    "./templates",
		CacheDir:        "./cache",
		EnableCache:     true,
		Development:     true, // bypass cache, always recompile — handy for dev
		CacheTTLMinutes: 30,
		CacheMaxSizeMB:  50,
	})
	if err != nil {
		log.Fatalf("starting engine: %v", err)
	}

	if err := eng.PreloadTemplates(); err != nil {
		log.Printf("preload warnings: %v", err)
	}

	watcher, err := engine.NewFileWatcher(eng, "./templates", nil)
	if err != nil {
		log.Printf("could not start file watcher: %v", err)
	} else {
		watcher.Start()
		defer watcher.Stop()
	}

	// /compile/<template-path> compiles a template and serves its artifact
	// text. This is introspection, not rendering: the compiled artifact is
	// meant for a host evaluator, which this repo doesn't ship.
	http.HandleFunc("/compile/", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		name := strings.TrimPrefix(r.URL.Path, "/compile/")

		artifact, err := eng.Compile(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(artifact))
		log.Printf("compiled %s in %v", name, time.Since(start))
	})

	http.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "last_used_content_type: %s\n", eng.LastUsedContentType())
		for name, count := range eng.UsageCounts() {
			fmt.Fprintf(w, "%s: %d\n", name, count)
		}
	})

	http.HandleFunc("/cache-stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for k, v := range eng.CacheStats() {
			fmt.Fprintf(w, "%s: %v\n", k, v)
		}
	})

	http.HandleFunc("/clear-cache", func(w http.ResponseWriter, r *http.Request) {
		eng.ClearCache()
		fmt.Fprint(w, "cache cleared")
	})

	fmt.Println("Server running on http://localhost:5004")
	log.Fatal(http.ListenAndServe(":5004", nil))
}
