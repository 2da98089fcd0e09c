// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package flow

import "errors"

var (
	// ErrTimerPending blocks progress until the slide's timer elapses.
	ErrTimerPending = errors.New("slide timer has not elapsed")

	// ErrCompareInProgress is returned for manual navigation on a comparison
	// slide, which advances only when its ranking completes.
	ErrCompareInProgress = errors.New("comparison slide advances when its ranking completes")

	// ErrFinished is returned once every slide has been passed.
	ErrFinished = errors.New("survey already finished")

	// ErrCannotRetreat is returned when going back is not permitted here.
	ErrCannotRetreat = errors.New("cannot go back from this slide")

	// ErrNoComparison is returned when a choice arrives without a live pair.
	ErrNoComparison = errors.New("no comparison in progress")
)

// ValidationError reports a required form field left empty. It is a
// prompt for the respondent, not a failure.
type ValidationError struct {
	Field string
	Label string
}

func (e *ValidationError) Error() string {
	return "Please fill in: " + e.Label
}
