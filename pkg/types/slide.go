// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the iqa-survey system:
// slides and their fields, survey configuration and image manifests, the
// comparison log, session records and the final result payload.
package types

// Item is one comparable unit within a scene: an image with a name and a
// reference to its content.
type Item struct {
	// Name is the image filename (e.g. "a.webp"). Names are unique per scene.
	Name string `json:"name" yaml:"name"`

	// URL is the display reference, typically /images/<scene>/<name>.
	URL string `json:"url" yaml:"url"`
}

// Pair holds two Items awaiting a single human decision. Left is always the
// item being placed and Right the current pivot, independent of display order.
type Pair struct {
	Left  Item `json:"left" yaml:"left"`
	Right Item `json:"right" yaml:"right"`
}

// Swap returns the pair with its members exchanged.
func (p Pair) Swap() Pair {
	return Pair{Left: p.Right, Right: p.Left}
}

// Contains reports whether name belongs to either member of the pair.
func (p Pair) Contains(name string) bool {
	return p.Left.Name == name || p.Right.Name == name
}

// SlideType distinguishes the slide variants.
type SlideType string

const (
	SlideInfo    SlideType = "info"
	SlideForm    SlideType = "form"
	SlideCompare SlideType = "compare"
)

// Slide is one unit of the respondent-facing sequence. Slides without a
// type are informational.
type Slide struct {
	Type  SlideType `json:"type,omitempty" yaml:"type,omitempty"`
	Title string    `json:"title,omitempty" yaml:"title,omitempty"`

	// Timer is the minimum number of seconds the respondent must stay on
	// the slide before moving forward. Zero disables the gate.
	Timer float64 `json:"timer,omitempty" yaml:"timer,omitempty"`

	// Content holds the blocks of an informational slide.
	Content []ContentBlock `json:"content,omitempty" yaml:"content,omitempty"`

	// Fields holds the inputs of a form slide.
	Fields []Field `json:"fields,omitempty" yaml:"fields,omitempty"`

	// SceneID and Conditions describe a comparison slide.
	SceneID    string `json:"sceneId,omitempty" yaml:"sceneId,omitempty"`
	Conditions []Item `json:"conditions,omitempty" yaml:"conditions,omitempty"`

	// Practice marks comparison slides that do not count as the real survey.
	Practice bool `json:"practice,omitempty" yaml:"practice,omitempty"`
}

// IsCompare reports whether the slide is a comparison slide.
func (s Slide) IsCompare() bool { return s.Type == SlideCompare }

// IsForm reports whether the slide is a form slide.
func (s Slide) IsForm() bool { return s.Type == SlideForm }

// ContentBlock is a renderable piece of an informational slide.
type ContentBlock struct {
	Type   string   `json:"type" yaml:"type"`
	Text   string   `json:"text,omitempty" yaml:"text,omitempty"`
	Image  string   `json:"image,omitempty" yaml:"image,omitempty"`
	Images []string `json:"images,omitempty" yaml:"images,omitempty"`
}

// FieldType enumerates the supported form inputs.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
	FieldDate     FieldType = "date"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
)

// Field is one input on a form slide.
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Label       string    `json:"label,omitempty" yaml:"label,omitempty"`
	Type        FieldType `json:"type" yaml:"type"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Anonymous   bool      `json:"anonymous,omitempty" yaml:"anonymous,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Min         *float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Options     []Option  `json:"options,omitempty" yaml:"options,omitempty"`

	// DependsOn hides the field unless another field holds a given value.
	DependsOn *Dependency `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`

	// DefaultToday pre-fills a date field with the current date.
	DefaultToday bool `json:"defaultToday,omitempty" yaml:"defaultToday,omitempty"`

	// Value is the caption shown next to a checkbox.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// DisplayLabel returns the label, falling back to the field name.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Option is one choice of a select field.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Dependency makes a field conditional on another field's value.
type Dependency struct {
	Field string `json:"field" yaml:"field"`
	Value string `json:"value" yaml:"value"`
}

// Responses maps form-field names to entered values. Checkbox values are
// stored as "true" or "false".
type Responses map[string]string

// Clone returns an independent copy of r.
func (r Responses) Clone() Responses {
	out := make(Responses, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
