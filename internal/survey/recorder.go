// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package survey connects a flow.Controller's lifecycle hooks to the
// session and result stores under the respondent's derived identity.
package survey

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/iqa-survey/internal/flow"
	"github.com/pdiddy/iqa-survey/internal/identity"
	"github.com/pdiddy/iqa-survey/internal/store"
	"github.com/pdiddy/iqa-survey/pkg/types"
)

var _ flow.Hooks = (*Recorder)(nil)

// Recorder persists one attempt's session and result. The hooks only queue
// the writes; a single worker performs them in order, so the started record
// always lands before the completed one. Store failures are logged and
// swallowed so the respondent's run completes regardless.
type Recorder struct {
	sessions store.SessionStore
	results  store.ResultStore
	log      *zap.Logger

	surveyID string
	device   *types.DeviceInfo

	jobs chan func()
	done chan struct{}

	mu      sync.Mutex
	closed  bool
	userID  string
	finalID string
	saveErr error
}

// NewRecorder returns a Recorder for one attempt of surveyID and starts its
// worker. The worker exits after the completion write or after Close.
func NewRecorder(st store.Store, surveyID string, device *types.DeviceInfo, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Recorder{
		sessions: st,
		results:  st,
		log:      log.With(zap.String("survey", surveyID)),
		surveyID: surveyID,
		device:   device,
		// Each hook fires at most once.
		jobs: make(chan func(), 2),
		done: make(chan struct{}),
	}
	go r.work()
	return r
}

func (r *Recorder) work() {
	defer close(r.done)
	for job := range r.jobs {
		job()
	}
}

// enqueue hands job to the worker. It reports false once the queue is closed.
func (r *Recorder) enqueue(job func(), last bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.jobs <- job
	if last {
		r.closed = true
		close(r.jobs)
	}
	return true
}

// Close stops accepting hook events. Queued writes still run; Done is closed
// once they finish.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		close(r.jobs)
	}
}

// SessionStarted derives the respondent id and queues the started record.
func (r *Recorder) SessionStarted(ctx context.Context, responses types.Responses) {
	id := r.identify(responses)
	ctx = context.WithoutCancel(ctx)
	queued := r.enqueue(func() {
		if err := r.sessions.WriteSession(ctx, id, types.SessionStarted); err != nil {
			r.log.Error("writing started session", zap.String("user", id), zap.Error(err))
			return
		}
		r.log.Info("session started", zap.String("user", id))
	}, false)
	if !queued {
		r.log.Warn("recorder closed, started session dropped", zap.String("user", id))
	}
}

// SessionCompleted queues the completed record and the result save, then
// closes the queue.
func (r *Recorder) SessionCompleted(ctx context.Context, result types.Result) {
	id := r.completionID(result)
	ctx = context.WithoutCancel(ctx)
	queued := r.enqueue(func() { r.complete(ctx, id, result) }, true)
	if !queued {
		r.log.Warn("recorder closed, result dropped", zap.String("user", id))
	}
}

func (r *Recorder) complete(ctx context.Context, id string, result types.Result) {
	if err := r.sessions.WriteSession(ctx, id, types.SessionCompleted); err != nil {
		r.log.Error("writing completed session", zap.String("user", id), zap.Error(err))
	}

	result.SurveyID = r.surveyID
	result.Device = r.device
	stored, err := r.results.SaveResult(ctx, id, result)

	r.mu.Lock()
	r.finalID, r.saveErr = stored, err
	r.mu.Unlock()

	if err != nil {
		r.log.Error("saving result", zap.String("user", id), zap.Error(err))
		return
	}
	if stored != id {
		r.log.Info("identity already has a result, stored under a new id",
			zap.String("user", id), zap.String("id", stored))
		return
	}
	r.log.Info("result saved", zap.String("id", stored))
}

// UserID returns the derived respondent id, empty before it is known.
func (r *Recorder) UserID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userID
}

// FinalID returns the id the result was stored under and the save error,
// if any. It is empty until the completion write has finished; wait on Done
// first when the value is needed.
func (r *Recorder) FinalID() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalID, r.saveErr
}

// Done is closed once the worker has drained its queue.
func (r *Recorder) Done() <-chan struct{} { return r.done }

// identify derives the id once; later calls return the same value.
func (r *Recorder) identify(responses types.Responses) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.userID == "" {
		r.userID = identity.FromResponses(responses)
	}
	return r.userID
}

// completionID returns the id derived at start or, for attempts that never
// started a session, derives it from the finalized result. An anonymized
// email is already the hash Derive would produce; a blank one identifies no
// one.
func (r *Recorder) completionID(result types.Result) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.userID != "" {
		return r.userID
	}
	email := result.Responses[identity.EmailField]
	if h := result.Anonymous[identity.EmailField]; strings.TrimSpace(email) == "" && h != "" && h != identity.BlankHash {
		r.userID = h
		return h
	}
	r.userID = identity.Derive(email, result.Responses[identity.NameField])
	return r.userID
}
