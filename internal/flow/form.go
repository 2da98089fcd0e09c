// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package flow

import (
	"strings"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

// Visible reports whether f is shown given the responses. A field with a
// dependency is hidden until the dependency field holds the expected value.
func Visible(f types.Field, r types.Responses) bool {
	if f.DependsOn == nil {
		return true
	}
	return r[f.DependsOn.Field] == f.DependsOn.Value
}

// Empty reports whether value counts as unanswered for f. An unchecked
// checkbox is empty.
func Empty(f types.Field, value string) bool {
	if f.Type == types.FieldCheckbox {
		return value != "true"
	}
	return strings.TrimSpace(value) == ""
}

// missingField returns the first visible required field without a value.
func missingField(slide types.Slide, r types.Responses) (types.Field, bool) {
	for _, f := range slide.Fields {
		if !f.Required || !Visible(f, r) {
			continue
		}
		if Empty(f, r[f.Name]) {
			return f, true
		}
	}
	return types.Field{}, false
}
