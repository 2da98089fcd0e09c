// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"sync"

	"github.com/pdiddy/iqa-survey/internal/flow"
	"github.com/pdiddy/iqa-survey/internal/survey"
	"github.com/pdiddy/iqa-survey/pkg/types"
)

// attempt is one respondent's run through a deck.
type attempt struct {
	id       string
	surveyID string
	footer   string

	mu       sync.Mutex
	ctrl     *flow.Controller
	recorder *survey.Recorder
	events   *hub

	closeOnce sync.Once
}

func (a *attempt) close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.ctrl.Close()
		a.mu.Unlock()
		a.events.close()
		a.recorder.Close()
	})
}

// View is the client-facing state of an attempt.
type View struct {
	ID       string `json:"id"`
	SurveyID string `json:"surveyId"`
	Footer   string `json:"footer,omitempty"`

	Index    int  `json:"index"`
	Total    int  `json:"total"`
	Finished bool `json:"finished"`

	Slide *types.Slide `json:"slide,omitempty"`
	Pair  *types.Pair  `json:"pair,omitempty"`

	GateOpen      bool    `json:"gateOpen"`
	RemainingMs   int64   `json:"remainingMs"`
	TimerProgress float64 `json:"timerProgress"`
	CanRetreat    bool    `json:"canRetreat"`

	Responses types.Responses `json:"responses"`
	ResultID  string          `json:"resultId,omitempty"`
}

// view snapshots the attempt. The caller holds a.mu.
func (a *attempt) view() View {
	c := a.ctrl
	v := View{
		ID:            a.id,
		SurveyID:      a.surveyID,
		Footer:        a.footer,
		Index:         c.Index(),
		Total:         c.Len(),
		Finished:      c.Finished(),
		GateOpen:      c.GateOpen(),
		RemainingMs:   c.Remaining().Milliseconds(),
		TimerProgress: c.TimerProgress(),
		CanRetreat:    c.CanRetreat(),
		Responses:     c.Responses(),
	}
	if slide, ok := c.Current(); ok {
		// Conditions are exposed through Pair only.
		slide.Conditions = nil
		v.Slide = &slide
	}
	if p, ok := c.Pair(); ok {
		v.Pair = &p
	}
	if v.Finished {
		v.ResultID, _ = a.recorder.FinalID()
	}
	return v
}
