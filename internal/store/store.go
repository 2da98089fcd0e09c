// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists respondent sessions and survey results.
//
// Session writes are merge-upserts keyed by the respondent id: a started
// write stamps the start time, a completed write stamps the end time, and
// neither erases the other. Result writes never overwrite: each backend
// creates the record only if the id is free, and a taken id sends the
// payload to a freshly generated id instead. Two results for one respondent
// is the accepted outcome of a retry.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

var (
	// ErrNotFound is returned when no record exists for an id.
	ErrNotFound = errors.New("record not found")

	// ErrExists is returned by create-if-absent when the id is taken.
	ErrExists = errors.New("record already exists")
)

// SessionStore records session lifecycle per respondent id.
type SessionStore interface {
	WriteSession(ctx context.Context, id string, status types.SessionStatus) error
	Session(ctx context.Context, id string) (types.Session, error)
}

// ResultStore records final results.
type ResultStore interface {
	// SaveResult stores r under id, or under a new id when id is taken,
	// and returns the id actually used.
	SaveResult(ctx context.Context, id string, r types.Result) (string, error)
	Result(ctx context.Context, id string) (types.Result, error)
	ListResults(ctx context.Context) ([]types.ResultSummary, error)
}

// Store is a backend providing both session and result persistence.
type Store interface {
	SessionStore
	ResultStore
	Close() error
}

type createFunc func(ctx context.Context, id string, r types.Result) error

// newID generates fallback result ids. Tests replace it.
var newID = uuid.NewString

// saveWithFallback runs the collision policy shared by all backends.
func saveWithFallback(ctx context.Context, create createFunc, id string, r types.Result) (string, error) {
	if id == "" {
		id = newID()
	}
	err := create(ctx, id, r)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrExists) {
		return "", fmt.Errorf("creating result %s: %w", id, err)
	}
	fallback := newID()
	if err := create(ctx, fallback, r); err != nil {
		return "", fmt.Errorf("creating fallback result %s: %w", fallback, err)
	}
	return fallback, nil
}

func validStatus(status types.SessionStatus) error {
	switch status {
	case types.SessionStarted, types.SessionCompleted:
		return nil
	}
	return fmt.Errorf("unknown session status %q", status)
}

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg types.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", types.StoreMemory:
		return NewMemory(), nil
	case types.StoreSQLite:
		return NewSQLite(cfg.Path)
	case types.StoreRedis:
		return NewRedis(ctx, cfg.RedisURL, cfg.RedisPassword)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
