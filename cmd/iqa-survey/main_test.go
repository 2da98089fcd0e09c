// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

func TestDeckRows(t *testing.T) {
	slides := []types.Slide{
		{Title: "Welcome", Timer: 2.5},
		{Type: types.SlideCompare, Title: "Practice Comparison", SceneID: "p1", Practice: true,
			Conditions: []types.Item{{Name: "a"}, {Name: "b"}}},
		{Type: types.SlideForm, Title: "About you"},
	}
	assert.Equal(t, [][]string{
		{"1", "info", "Welcome", "", "", "2.5s"},
		{"2", "compare (practice)", "Practice Comparison", "p1", "2", ""},
		{"3", "form", "About you", "", "", ""},
	}, deckRows(slides))
}

func TestSummaryRows(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	rows := summaryRows([]types.ResultSummary{
		{ID: "0123456789abcdef0123", SurveyID: "survey1", CreatedAt: at, Scenes: 4, Comparisons: 17},
		{ID: "short", SurveyID: "survey2", CreatedAt: at},
	})
	assert.Equal(t, []string{"0123456789abc...", "survey1", "2026-03-01 12:00", "4", "17"}, rows[0])
	assert.Equal(t, "short", rows[1][0])
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"ID", "Scenes"}, [][]string{{"abc", "3"}, {"def"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "abc")
	assert.Len(t, strings.Split(out, "\n"), 6, "top, header, separator, two rows, bottom")
	assert.Empty(t, renderTable(nil, nil, nil))
}

func TestWriteFormatted(t *testing.T) {
	v := exportedResult{ID: "x", Result: types.Result{SurveyID: "survey1"}}

	var buf bytes.Buffer
	require.NoError(t, writeFormatted(&buf, "json", v))
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Equal(t, "x", fromJSON["id"])

	buf.Reset()
	require.NoError(t, writeFormatted(&buf, "yaml", v))
	var fromYAML exportedResult
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, "survey1", fromYAML.Result.SurveyID)

	assert.Error(t, writeFormatted(&buf, "xml", v))
}
