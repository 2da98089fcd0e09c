// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest builds the image manifest from a directory of scenes.
// Each immediate subdirectory of the images directory is a scene; its image
// files, sorted by name, are the scene's conditions.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// IsImage reports whether name has a supported image extension.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// Generate scans imagesDir and returns the manifest. Scenes without images
// and hidden entries are skipped.
func Generate(imagesDir string) (types.Manifest, error) {
	scenes, err := os.ReadDir(imagesDir)
	if err != nil {
		return nil, fmt.Errorf("reading images directory %s: %w", imagesDir, err)
	}

	m := make(types.Manifest)
	for _, scene := range scenes {
		if !scene.IsDir() || strings.HasPrefix(scene.Name(), ".") {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(imagesDir, scene.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading scene %s: %w", scene.Name(), err)
		}
		var files []string
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !IsImage(e.Name()) {
				continue
			}
			files = append(files, e.Name())
		}
		if len(files) == 0 {
			continue
		}
		slices.Sort(files)
		m[scene.Name()] = files
	}
	return m, nil
}

// Write stores m as indented JSON at path, replacing any existing file
// atomically.
func Write(path string, m types.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}

// Count returns the number of scenes and images in m.
func Count(m types.Manifest) (scenes, images int) {
	for _, files := range m {
		images += len(files)
	}
	return len(m), images
}
