// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package flow

import (
	"context"
	"time"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

// Hooks receives the session lifecycle events of one attempt. Each method is
// called at most once per Controller, on the slide transition path, so
// implementations must return promptly and do any persistence elsewhere.
// They also own their error handling: the flow never retries.
type Hooks interface {
	// SessionStarted fires on entry to the first non-practice comparison
	// slide with a snapshot of the responses collected so far.
	SessionStarted(ctx context.Context, responses types.Responses)

	// SessionCompleted fires once when the deck is exhausted.
	SessionCompleted(ctx context.Context, result types.Result)
}

// Notifier is told about slide changes and timer gates opening. GateOpened
// is called from a timer goroutine, so implementations must be safe for
// concurrent use.
type Notifier interface {
	SlideChanged(index int)
	GateOpened(index int)
}

// Clock abstracts time for the controller.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending one-shot wakeup.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type nopHooks struct{}

func (nopHooks) SessionStarted(context.Context, types.Responses) {}
func (nopHooks) SessionCompleted(context.Context, types.Result)  {}

type nopNotifier struct{}

func (nopNotifier) SlideChanged(int) {}
func (nopNotifier) GateOpened(int)   {}
