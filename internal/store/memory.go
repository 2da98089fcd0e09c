// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

type memResult struct {
	result    types.Result
	createdAt time.Time
}

// Memory keeps records in process memory. It backs tests and preview runs.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]types.Session
	results  map[string]memResult
	now      func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]types.Session),
		results:  make(map[string]memResult),
		now:      time.Now,
	}
}

// WriteSession merges status and the matching timestamp into the session.
func (m *Memory) WriteSession(_ context.Context, id string, status types.SessionStatus) error {
	if err := validStatus(status); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.sessions[id]
	sess.UserID = id
	sess.Status = status
	ts := m.now().UTC()
	if status == types.SessionStarted {
		sess.TimestampStart = &ts
	} else {
		sess.TimestampEnd = &ts
	}
	m.sessions[id] = sess
	return nil
}

// Session returns the merged session for id.
func (m *Memory) Session(_ context.Context, id string) (types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return types.Session{}, ErrNotFound
	}
	return sess, nil
}

// SaveResult stores r without overwriting an existing record.
func (m *Memory) SaveResult(ctx context.Context, id string, r types.Result) (string, error) {
	return saveWithFallback(ctx, m.create, id, r)
}

func (m *Memory) create(_ context.Context, id string, r types.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[id]; ok {
		return ErrExists
	}
	m.results[id] = memResult{result: r, createdAt: m.now().UTC()}
	return nil
}

// Result returns the result stored under id.
func (m *Memory) Result(_ context.Context, id string) (types.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.results[id]
	if !ok {
		return types.Result{}, ErrNotFound
	}
	return rec.result, nil
}

// ListResults returns summaries ordered by creation time.
func (m *Memory) ListResults(_ context.Context) ([]types.ResultSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.ResultSummary, 0, len(m.results))
	for id, rec := range m.results {
		out = append(out, types.Summarize(id, rec.result, rec.createdAt))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
