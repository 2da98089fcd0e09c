// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SurveyConfig is the survey document authored per survey id. The deck is
// assembled from it together with the image Manifest.
type SurveyConfig struct {
	Footer string `json:"footer" yaml:"footer"`

	PreSlides  []Slide `json:"preSlides" yaml:"preSlides"`
	PostSlides []Slide `json:"postSlides" yaml:"postSlides"`

	PracticeIntroSlides []Slide  `json:"practiceIntroSlides,omitempty" yaml:"practiceIntroSlides,omitempty"`
	PracticeOutroSlides []Slide  `json:"practiceOutroSlides,omitempty" yaml:"practiceOutroSlides,omitempty"`
	PracticeScenes      []string `json:"practiceScenes,omitempty" yaml:"practiceScenes,omitempty"`

	// CompareScenes lists scene-id prefixes expanded against the manifest.
	CompareScenes []string `json:"compareScenes" yaml:"compareScenes"`
}

// Manifest maps a scene id to the ordered image filenames of that scene.
type Manifest map[string][]string
