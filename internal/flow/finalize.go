// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package flow

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/iqa-survey/internal/identity"
	"github.com/pdiddy/iqa-survey/pkg/types"
)

// finalize assembles the result and fires the completion hook, once.
func (c *Controller) finalize(ctx context.Context) {
	if c.completed {
		return
	}
	c.completed = true
	c.stopTimer()

	anonymous := make(map[string]bool)
	hidden := make(map[string]bool)
	for _, slide := range c.deck {
		if !slide.IsForm() {
			continue
		}
		for _, f := range slide.Fields {
			if f.Anonymous {
				anonymous[f.Name] = true
			}
			if !Visible(f, c.responses) {
				hidden[f.Name] = true
			}
		}
	}

	clean := make(types.Responses, len(c.responses))
	anon := make(map[string]string)
	for k, v := range c.responses {
		switch {
		case hidden[k]:
		case anonymous[k]:
			anon[k] = identity.Anonymize(v)
		default:
			clean[k] = v
		}
	}

	var compareMs int64
	for _, ev := range c.comparisons {
		compareMs += ev.DurationMs
	}

	end := c.clock.Now()
	result := types.Result{
		Responses: clean,
		Anonymous: anon,
		Rankings:  c.Rankings(),
		Timings: types.Timings{
			SurveyDurationMs:  end.Sub(c.surveyStart).Milliseconds(),
			CompareDurationMs: compareMs,
			Timestamp:         c.surveyStart.UTC(),
		},
		Comparisons: append([]types.ComparisonEvent{}, c.comparisons...),
	}
	c.result = &result

	c.log.Info("survey finished",
		zap.Int("scenes", len(result.Rankings)),
		zap.Int("comparisons", len(result.Comparisons)),
		zap.Int64("survey_ms", result.Timings.SurveyDurationMs))
	c.hooks.SessionCompleted(ctx, result)
}
