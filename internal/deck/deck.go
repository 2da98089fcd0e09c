// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package deck assembles the ordered slide sequence of one survey attempt
// from a survey config and the image manifest.
package deck

import (
	"math/rand/v2"
	"path"
	"sort"
	"strings"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

// Titles of synthesized comparison slides.
const (
	PracticeTitle = "Practice Comparison"
	CompareTitle  = "Which image has better quality?"
)

// DefaultImageBase is the path prefix of item URLs.
const DefaultImageBase = "/images"

// Options controls assembly.
type Options struct {
	// ImageBase prefixes every item URL (default DefaultImageBase).
	ImageBase string

	// SkipCompare drops every comparison slide (review and preview flows).
	SkipCompare bool

	// Rand shuffles the real scenes. A nil Rand uses the global source.
	Rand *rand.Rand
}

// Assemble builds the deck: pre-slides, practice intro, practice scenes,
// practice outro, shuffled real scenes, post-slides.
func Assemble(cfg types.SurveyConfig, manifest types.Manifest, opts Options) []types.Slide {
	base := opts.ImageBase
	if base == "" {
		base = DefaultImageBase
	}

	var deck []types.Slide
	deck = append(deck, cfg.PreSlides...)
	deck = append(deck, cfg.PracticeIntroSlides...)
	for _, scene := range cfg.PracticeScenes {
		s := compareSlide(scene, manifest[scene], base)
		s.Title = PracticeTitle
		s.Practice = true
		deck = append(deck, s)
	}
	deck = append(deck, cfg.PracticeOutroSlides...)
	for _, scene := range Shuffle(ExpandScenes(cfg.CompareScenes, manifest), opts.Rand) {
		s := compareSlide(scene, manifest[scene], base)
		s.Title = CompareTitle
		deck = append(deck, s)
	}
	deck = append(deck, cfg.PostSlides...)

	if opts.SkipCompare {
		return WithoutCompare(deck)
	}
	return deck
}

// ExpandScenes returns every manifest scene whose id starts with one of the
// prefixes, deduplicated and sorted.
func ExpandScenes(prefixes []string, manifest types.Manifest) []string {
	seen := make(map[string]bool)
	for _, prefix := range prefixes {
		for scene := range manifest {
			if strings.HasPrefix(scene, prefix) {
				seen[scene] = true
			}
		}
	}
	scenes := make([]string, 0, len(seen))
	for scene := range seen {
		scenes = append(scenes, scene)
	}
	sort.Strings(scenes)
	return scenes
}

// Shuffle returns a randomly permuted copy of scenes.
func Shuffle(scenes []string, rng *rand.Rand) []string {
	out := append([]string(nil), scenes...)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if rng == nil {
		rand.Shuffle(len(out), swap)
	} else {
		rng.Shuffle(len(out), swap)
	}
	return out
}

// WithoutCompare returns deck with every comparison slide removed.
func WithoutCompare(deck []types.Slide) []types.Slide {
	out := make([]types.Slide, 0, len(deck))
	for _, s := range deck {
		if !s.IsCompare() {
			out = append(out, s)
		}
	}
	return out
}

// Items maps a scene's filenames to Items under base.
func Items(scene string, files []string, base string) []types.Item {
	items := make([]types.Item, len(files))
	for i, name := range files {
		items[i] = types.Item{Name: name, URL: path.Join(base, scene, name)}
	}
	return items
}

func compareSlide(scene string, files []string, base string) types.Slide {
	return types.Slide{
		Type:       types.SlideCompare,
		SceneID:    scene,
		Conditions: Items(scene, files, base),
	}
}
