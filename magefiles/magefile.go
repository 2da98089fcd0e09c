// Package main contains Mage build targets for iqa-survey developer tooling.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/pdiddy/iqa-survey/internal/loader"
	"github.com/pdiddy/iqa-survey/internal/manifest"
)

// publicDir is the default survey source directory.
const publicDir = "public"

// projectDirs lists the working directories a survey deployment expects.
var projectDirs = []string{
	"data",
	"logs",
	filepath.Join(publicDir, "slides"),
	filepath.Join(publicDir, "images"),
	".secrets",
}

// Init creates the project directory structure.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "iqa-survey"
	cmdPkg  = "./cmd/iqa-survey"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Manifest regenerates public/image-manifest.json from public/images.
func Manifest() error {
	mg.Deps(Init)
	m, err := manifest.Generate(filepath.Join(publicDir, "images"))
	if err != nil {
		return err
	}
	out := filepath.Join(publicDir, loader.ManifestPath)
	if err := manifest.Write(out, m); err != nil {
		return err
	}
	scenes, images := manifest.Count(m)
	fmt.Printf("Wrote %s: %d scenes, %d images\n", out, scenes, images)
	return nil
}

// Serve builds the binary and serves public/ on :8080.
func Serve() error {
	mg.Deps(Build, Manifest)
	return sh.RunV(filepath.Join(binDir, binName), "serve", "--source-dir", publicDir, "--static", publicDir)
}

// Stats prints project metrics: Go production/test LOC and survey content counts.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}
	surveys, err := countSurveys(filepath.Join(publicDir, "slides"))
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Survey configs:                 %d\n", surveys)

	if m, err := manifest.Generate(filepath.Join(publicDir, "images")); err == nil {
		scenes, images := manifest.Count(m)
		fmt.Printf("Scenes / images:                %d / %d\n", scenes, images)
	}
	return nil
}

// countGoLines walks the directory tree and counts non-blank lines in Go files.
// If testOnly is true, count only _test.go files; otherwise count non-test .go files.
// Directories starting with "." or "_" are skipped, as the go tool does.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				total++
			}
		}
		return nil
	})
	return total, err
}

// countSurveys counts JSON and YAML survey configs in dir.
func countSurveys(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".json", ".yaml", ".yml":
			n++
		}
	}
	return n, nil
}
