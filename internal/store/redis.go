// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

const (
	sessionKeyPrefix = "iqa:session:"
	resultKeyPrefix  = "iqa:result:"
	resultIndexKey   = "iqa:results"
)

// createResult stores a result and indexes it in one step: nothing is written
// when the key exists, and the index entry goes in before the payload so a
// failing index leaves no orphaned record.
var createResult = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('ZADD', KEYS[2], 'NX', ARGV[2], ARGV[3])
redis.call('SET', KEYS[1], ARGV[1])
return 1
`)

// storedResult is the value kept under a result key.
type storedResult struct {
	CreatedAt time.Time    `json:"createdAt"`
	Result    types.Result `json:"result"`
}

// Redis stores sessions as hashes and results as create-if-absent strings
// indexed by a sorted set on creation time.
type Redis struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedis connects to url (a redis:// URL or a bare host:port).
func NewRedis(ctx context.Context, url, password string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	if password != "" {
		opt.Password = password
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", opt.Addr, err)
	}
	return &Redis{rdb: rdb, now: time.Now}, nil
}

// Close releases the client.
func (s *Redis) Close() error {
	return s.rdb.Close()
}

// WriteSession sets the status and the matching timestamp field of the
// session hash; other fields are left alone.
func (s *Redis) WriteSession(ctx context.Context, id string, status types.SessionStatus) error {
	if err := validStatus(status); err != nil {
		return err
	}
	field := "timestampStart"
	if status == types.SessionCompleted {
		field = "timestampEnd"
	}
	err := s.rdb.HSet(ctx, sessionKeyPrefix+id,
		"userId", id,
		"status", string(status),
		field, s.now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Session returns the merged session for id.
func (s *Redis) Session(ctx context.Context, id string) (types.Session, error) {
	fields, err := s.rdb.HGetAll(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return types.Session{}, fmt.Errorf("reading session: %w", err)
	}
	if len(fields) == 0 {
		return types.Session{}, ErrNotFound
	}
	sess := types.Session{UserID: id, Status: types.SessionStatus(fields["status"])}
	for name, dst := range map[string]**time.Time{
		"timestampStart": &sess.TimestampStart,
		"timestampEnd":   &sess.TimestampEnd,
	} {
		v, ok := fields[name]
		if !ok {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return types.Session{}, fmt.Errorf("parsing %s: %w", name, err)
		}
		*dst = &t
	}
	return sess, nil
}

// SaveResult stores r without overwriting an existing record.
func (s *Redis) SaveResult(ctx context.Context, id string, r types.Result) (string, error) {
	return saveWithFallback(ctx, s.create, id, r)
}

func (s *Redis) create(ctx context.Context, id string, r types.Result) error {
	created := s.now().UTC()
	payload, err := json.Marshal(storedResult{CreatedAt: created, Result: r})
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	n, err := createResult.Run(ctx, s.rdb,
		[]string{resultKeyPrefix + id, resultIndexKey},
		payload, created.UnixMilli(), id,
	).Int()
	if err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	if n == 0 {
		return ErrExists
	}
	return nil
}

// Result returns the result stored under id.
func (s *Redis) Result(ctx context.Context, id string) (types.Result, error) {
	data, err := s.rdb.Get(ctx, resultKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.Result{}, ErrNotFound
	}
	if err != nil {
		return types.Result{}, fmt.Errorf("reading result: %w", err)
	}
	var rec storedResult
	if err := json.Unmarshal(data, &rec); err != nil {
		return types.Result{}, fmt.Errorf("decoding result %s: %w", id, err)
	}
	return rec.Result, nil
}

// ListResults returns summaries ordered by creation time.
func (s *Redis) ListResults(ctx context.Context) ([]types.ResultSummary, error) {
	ids, err := s.rdb.ZRange(ctx, resultIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = resultKeyPrefix + id
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}

	out := make([]types.ResultSummary, 0, len(ids))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec storedResult
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decoding result %s: %w", ids[i], err)
		}
		out = append(out, types.Summarize(ids[i], rec.Result, rec.CreatedAt))
	}
	return out, nil
}
