// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader fetches the inputs of a survey attempt: the survey
// configuration, the image manifest and optional per-scene descriptions.
//
// Resource layout, relative to the configured source:
//
//	slides/<survey>.json or slides/<survey>.yaml
//	image-manifest.json
//	images/<scene>/<scene>.txt
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

// ErrLoad marks a configuration or manifest failure. It is fatal to
// starting an attempt.
var ErrLoad = errors.New("survey load failed")

// ManifestPath is the manifest location relative to the source.
const ManifestPath = "image-manifest.json"

// DefaultSurveys are the selectable survey ids when none are configured.
// The first is the default.
var DefaultSurveys = []string{"survey1", "survey2", "survey3"}

// Bundle is everything needed to assemble a deck.
type Bundle struct {
	SurveyID string
	Config   types.SurveyConfig
	Manifest types.Manifest
}

// Load fetches the survey configuration and the manifest concurrently.
// Any failure is wrapped with ErrLoad.
func Load(ctx context.Context, src Source, surveyID string) (*Bundle, error) {
	b := &Bundle{SurveyID: surveyID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cfg, err := LoadConfig(gctx, src, surveyID)
		if err != nil {
			return err
		}
		b.Config = cfg
		return nil
	})
	g.Go(func() error {
		m, err := LoadManifest(gctx, src)
		if err != nil {
			return err
		}
		b.Manifest = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return b, nil
}

// LoadConfig fetches slides/<surveyID>.json, falling back to the YAML form.
func LoadConfig(ctx context.Context, src Source, surveyID string) (types.SurveyConfig, error) {
	var cfg types.SurveyConfig
	var lastErr error
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		p := path.Join("slides", surveyID+ext)
		data, err := src.Fetch(ctx, p)
		if errors.Is(err, ErrNotFound) {
			lastErr = err
			continue
		}
		if err != nil {
			return cfg, fmt.Errorf("survey config %s: %w", surveyID, err)
		}
		if err := DecodeConfig(data, ext, &cfg); err != nil {
			return cfg, fmt.Errorf("survey config %s: %w", p, err)
		}
		return cfg, nil
	}
	return cfg, fmt.Errorf("survey config %s: %w", surveyID, lastErr)
}

// DecodeConfig decodes a survey configuration by file extension.
func DecodeConfig(data []byte, ext string, cfg *types.SurveyConfig) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".json", "":
		return json.Unmarshal(data, cfg)
	}
	return fmt.Errorf("unsupported config format %q", ext)
}

// LoadManifest fetches and decodes the image manifest.
func LoadManifest(ctx context.Context, src Source) (types.Manifest, error) {
	data, err := src.Fetch(ctx, ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	var m types.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if m == nil {
		m = types.Manifest{}
	}
	return m, nil
}

// ResolveSurveyID returns requested when it is allowed, otherwise def.
func ResolveSurveyID(requested string, allowed []string, def string) string {
	requested = strings.TrimSpace(requested)
	if requested != "" && slices.Contains(allowed, requested) {
		return requested
	}
	return def
}
