// Command tplc compiles a single template and prints its artifact text,
// useful for inspecting what the Node Compiler emits without standing up a
// server.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sfire-framework/sfire-template/engine"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: tplc <template-path-relative-to-./templates>")
		os.Exit(2)
	}

	eng, err := engine.NewEngine(engine.EngineConfig{
		TemplatesDir: filepath.Clean("templates"),
		Development:  true,
	})
	if err != nil {
		fmt.Printf("starting engine: %v\n", err)
		os.Exit(1)
	}

	artifact, err := eng.Compile(os.Args[1])
	if err != nil {
		fmt.Printf("compile error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(artifact)
}
