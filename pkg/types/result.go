// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ComparisonEvent records a single pairwise decision. Left and Right use the
// ranking engine's semantics (new item, pivot), not the display order.
type ComparisonEvent struct {
	SceneID    string `json:"sceneId" yaml:"sceneId"`
	Left       string `json:"left" yaml:"left"`
	Right      string `json:"right" yaml:"right"`
	Winner     string `json:"winner" yaml:"winner"`
	DurationMs int64  `json:"durationMs" yaml:"durationMs"`
}

// Timings aggregates the durations of one survey attempt.
type Timings struct {
	SurveyDurationMs  int64     `json:"surveyDurationMs" yaml:"surveyDurationMs"`
	CompareDurationMs int64     `json:"compareDurationMs" yaml:"compareDurationMs"`
	Timestamp         time.Time `json:"timestamp" yaml:"timestamp"`
}

// Screen describes the respondent's physical display.
type Screen struct {
	Width      int `json:"width" yaml:"width"`
	Height     int `json:"height" yaml:"height"`
	ColorDepth int `json:"colorDepth" yaml:"colorDepth"`
}

// Viewport describes the visible area of the presentation layer.
type Viewport struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// DeviceInfo is metadata supplied by the presentation layer.
type DeviceInfo struct {
	Screen           Screen   `json:"screen" yaml:"screen"`
	Viewport         Viewport `json:"viewport" yaml:"viewport"`
	DevicePixelRatio float64  `json:"devicePixelRatio" yaml:"devicePixelRatio"`
	UserAgent        string   `json:"userAgent" yaml:"userAgent"`
	Platform         string   `json:"platform" yaml:"platform"`
}

// Result is the terminal payload of a completed survey attempt.
type Result struct {
	SurveyID    string            `json:"surveyId" yaml:"surveyId"`
	Responses   Responses         `json:"responses" yaml:"responses"`
	Anonymous   map[string]string `json:"anonymous" yaml:"anonymous"`
	Rankings    map[string][]Item `json:"rankings" yaml:"rankings"`
	Timings     Timings           `json:"timings" yaml:"timings"`
	Comparisons []ComparisonEvent `json:"comparisons" yaml:"comparisons"`
	Device      *DeviceInfo       `json:"device" yaml:"device"`
}

// SessionStatus is the lifecycle state of a respondent session.
type SessionStatus string

const (
	SessionStarted   SessionStatus = "started"
	SessionCompleted SessionStatus = "completed"
)

// Session is the persisted lifecycle record for one respondent id. Writes
// merge: a completed write keeps the start time and vice versa.
type Session struct {
	UserID         string        `json:"userId" yaml:"userId"`
	Status         SessionStatus `json:"status" yaml:"status"`
	TimestampStart *time.Time    `json:"timestampStart,omitempty" yaml:"timestampStart,omitempty"`
	TimestampEnd   *time.Time    `json:"timestampEnd,omitempty" yaml:"timestampEnd,omitempty"`
}

// ResultSummary is a listing row for a stored result.
type ResultSummary struct {
	ID          string    `json:"id" yaml:"id"`
	SurveyID    string    `json:"surveyId" yaml:"surveyId"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	Scenes      int       `json:"scenes" yaml:"scenes"`
	Comparisons int       `json:"comparisons" yaml:"comparisons"`
}

// Summarize builds the listing row for r stored under id.
func Summarize(id string, r Result, createdAt time.Time) ResultSummary {
	return ResultSummary{
		ID:          id,
		SurveyID:    r.SurveyID,
		CreatedAt:   createdAt,
		Scenes:      len(r.Rankings),
		Comparisons: len(r.Comparisons),
	}
}
