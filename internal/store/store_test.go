// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

// backends returns every store implementation under test. The redis backend
// runs against an in-process miniredis unless IQA_SURVEY_TEST_REDIS points at
// a real server.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	out := map[string]Store{"memory": NewMemory()}

	sq, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	out["sqlite"] = sq

	addr := os.Getenv("IQA_SURVEY_TEST_REDIS")
	if addr == "" {
		addr = miniredis.RunT(t).Addr()
	}
	rd, err := NewRedis(context.Background(), addr, "")
	require.NoError(t, err)
	t.Cleanup(func() { rd.Close() })
	out["redis"] = rd
	return out
}

// uid keeps ids unique so shared backends (redis) do not collide across runs.
func uid(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func sampleResult(survey string) types.Result {
	return types.Result{
		SurveyID:  survey,
		Responses: types.Responses{"age": "31"},
		Anonymous: map[string]string{},
		Rankings: map[string][]types.Item{
			"s1": {{Name: "b.jpg", URL: "/images/s1/b.jpg"}, {Name: "a.jpg", URL: "/images/s1/a.jpg"}},
		},
		Comparisons: []types.ComparisonEvent{
			{SceneID: "s1", Left: "b.jpg", Right: "a.jpg", Winner: "b.jpg", DurationMs: 1200},
		},
		Timings: types.Timings{SurveyDurationMs: 5000, CompareDurationMs: 1200,
			Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func TestSessionMerge(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			id := uid("merge")
			require.NoError(t, s.WriteSession(ctx, id, types.SessionStarted))
			first, err := s.Session(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, first.TimestampStart)
			assert.Nil(t, first.TimestampEnd)

			require.NoError(t, s.WriteSession(ctx, id, types.SessionCompleted))
			sess, err := s.Session(ctx, id)
			require.NoError(t, err)

			assert.Equal(t, id, sess.UserID)
			assert.Equal(t, types.SessionCompleted, sess.Status)
			require.NotNil(t, sess.TimestampStart, "completed write must keep the start time")
			require.NotNil(t, sess.TimestampEnd)
			assert.True(t, first.TimestampStart.Equal(*sess.TimestampStart))
		})
	}
}

func TestSessionMerge_CompletedThenStarted(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			id := uid("reverse")
			require.NoError(t, s.WriteSession(ctx, id, types.SessionCompleted))
			require.NoError(t, s.WriteSession(ctx, id, types.SessionStarted))
			sess, err := s.Session(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, types.SessionStarted, sess.Status)
			assert.NotNil(t, sess.TimestampStart)
			assert.NotNil(t, sess.TimestampEnd, "started write must keep the end time")
		})
	}
}

func TestSession_Errors(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Session(ctx, uid("missing"))
			assert.ErrorIs(t, err, ErrNotFound)

			err = s.WriteSession(ctx, uid("bad"), types.SessionStatus("paused"))
			assert.Error(t, err)
		})
	}
}

func TestSaveResult_SameIdentityTwice(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			id := uid("dup")
			first := sampleResult("survey1")
			second := sampleResult("survey2")

			got1, err := s.SaveResult(ctx, id, first)
			require.NoError(t, err)
			assert.Equal(t, id, got1)

			got2, err := s.SaveResult(ctx, id, second)
			require.NoError(t, err)
			assert.NotEqual(t, id, got2, "second attempt gets a fresh id")

			stored, err := s.Result(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "survey1", stored.SurveyID, "first record is not overwritten")

			fallback, err := s.Result(ctx, got2)
			require.NoError(t, err)
			assert.Equal(t, "survey2", fallback.SurveyID)
		})
	}
}

func TestSaveResult_DistinctIdentities(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a, b := uid("a"), uid("b")
			gotA, err := s.SaveResult(ctx, a, sampleResult("survey1"))
			require.NoError(t, err)
			gotB, err := s.SaveResult(ctx, b, sampleResult("survey3"))
			require.NoError(t, err)
			assert.Equal(t, a, gotA)
			assert.Equal(t, b, gotB)

			list, err := s.ListResults(ctx)
			require.NoError(t, err)
			byID := map[string]types.ResultSummary{}
			for _, r := range list {
				byID[r.ID] = r
			}
			require.Contains(t, byID, a)
			require.Contains(t, byID, b)
			assert.Equal(t, "survey3", byID[b].SurveyID)
			assert.Equal(t, 1, byID[a].Scenes)
			assert.Equal(t, 1, byID[a].Comparisons)
		})
	}
}

func TestSaveResult_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			id := uid("rt")
			want := sampleResult("survey1")
			_, err := s.SaveResult(ctx, id, want)
			require.NoError(t, err)
			got, err := s.Result(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, want.Rankings, got.Rankings)
			assert.Equal(t, want.Comparisons, got.Comparisons)
			assert.True(t, want.Timings.Timestamp.Equal(got.Timings.Timestamp))

			_, err = s.Result(ctx, uid("nope"))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSaveWithFallback(t *testing.T) {
	ctx := context.Background()
	old := newID
	t.Cleanup(func() { newID = old })
	ids := []string{"gen-1", "gen-2"}
	newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	t.Run("empty id is generated", func(t *testing.T) {
		var created []string
		got, err := saveWithFallback(ctx, func(_ context.Context, id string, _ types.Result) error {
			created = append(created, id)
			return nil
		}, "", types.Result{})
		require.NoError(t, err)
		assert.Equal(t, "gen-1", got)
		assert.Equal(t, []string{"gen-1"}, created)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		boom := errors.New("disk full")
		_, err := saveWithFallback(ctx, func(context.Context, string, types.Result) error {
			calls++
			return boom
		}, "fixed", types.Result{})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("collision goes to fallback id", func(t *testing.T) {
		got, err := saveWithFallback(ctx, func(_ context.Context, id string, _ types.Result) error {
			if id == "taken" {
				return ErrExists
			}
			return nil
		}, "taken", types.Result{})
		require.NoError(t, err)
		assert.Equal(t, "gen-2", got)
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, types.StoreConfig{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, types.StoreConfig{Driver: types.StoreSQLite, Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, types.StoreConfig{Driver: types.StoreRedis, RedisURL: "redis://" + miniredis.RunT(t).Addr()})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, types.StoreConfig{Driver: "postgres"})
	assert.Error(t, err)
}

func TestRedis_IndexFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rd, err := NewRedis(ctx, mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { rd.Close() })

	// A non-sorted-set index key makes ZADD fail.
	require.NoError(t, mr.Set(resultIndexKey, "corrupt"))

	id := uid("idx")
	_, err = rd.SaveResult(ctx, id, sampleResult("survey1"))
	require.Error(t, err)
	assert.False(t, mr.Exists(resultKeyPrefix+id), "payload not written when indexing fails")

	mr.Del(resultIndexKey)
	got, err := rd.SaveResult(ctx, id, sampleResult("survey1"))
	require.NoError(t, err)
	assert.Equal(t, id, got)

	list, err := rd.ListResults(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
}

func TestRedis_ExistingRecordKeepsIndexScore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rd, err := NewRedis(ctx, mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { rd.Close() })

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rd.now = func() time.Time { return first }
	id := uid("same")
	_, err = rd.SaveResult(ctx, id, sampleResult("survey1"))
	require.NoError(t, err)

	rd.now = func() time.Time { return first.Add(time.Hour) }
	other, err := rd.SaveResult(ctx, id, sampleResult("survey2"))
	require.NoError(t, err)
	assert.NotEqual(t, id, other)

	score, err := mr.ZScore(resultIndexKey, id)
	require.NoError(t, err)
	assert.Equal(t, float64(first.UnixMilli()), score)

	list, err := rd.ListResults(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{id, other}, []string{list[0].ID, list[1].ID})
}
