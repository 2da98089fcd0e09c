// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ranking

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

func makeItems(n int) []types.Item {
	items := make([]types.Item, n)
	for i := range items {
		name := fmt.Sprintf("img%02d.webp", i)
		items[i] = types.Item{Name: name, URL: "/images/scene/" + name}
	}
	return items
}

// runWithPreference answers every pair according to quality (higher wins)
// and returns the final order plus the number of questions asked.
func runWithPreference(t *testing.T, items []types.Item, quality map[string]int) ([]types.Item, int) {
	t.Helper()
	s := New(items)
	pair, ok := s.Start()
	asked := 0
	for ok {
		asked++
		require.LessOrEqual(t, asked, 10000, "sorter did not terminate")
		winner := pair.Right.Name
		if quality[pair.Left.Name] > quality[pair.Right.Name] {
			winner = pair.Left.Name
		}
		var err error
		pair, ok, err = s.Record(winner)
		require.NoError(t, err)
	}
	require.True(t, s.Done())
	assert.Equal(t, asked, s.Comparisons())
	return s.Sorted(), asked
}

func TestSorter_TotalOrderWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for n := 2; n <= 12; n++ {
		for trial := 0; trial < 20; trial++ {
			items := makeItems(n)
			perm := rng.Perm(n)
			quality := make(map[string]int, n)
			for i, it := range items {
				quality[it.Name] = perm[i]
			}

			sorted, asked := runWithPreference(t, items, quality)

			require.Len(t, sorted, n)
			for i := 1; i < n; i++ {
				assert.Greater(t, quality[sorted[i-1].Name], quality[sorted[i].Name],
					"n=%d trial=%d: position %d out of order", n, trial, i)
			}
			upper := n * int(math.Ceil(math.Log2(float64(n))))
			assert.GreaterOrEqual(t, asked, n-1)
			assert.LessOrEqual(t, asked, upper)
		}
	}
}

func TestSorter_FewerThanTwoItems(t *testing.T) {
	tests := []struct {
		name  string
		items []types.Item
	}{
		{"empty", nil},
		{"single", makeItems(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.items)
			pair, ok := s.Start()
			assert.False(t, ok)
			assert.Equal(t, types.Pair{}, pair)
			assert.True(t, s.Done())
			assert.Equal(t, len(tt.items), len(s.Sorted()))
			if len(tt.items) == 1 {
				assert.Equal(t, tt.items[0], s.Sorted()[0])
			}
			_, _, err := s.Record("anything")
			assert.ErrorIs(t, err, ErrDone)
		})
	}
}

func TestSorter_PairSemantics(t *testing.T) {
	items := makeItems(3)
	s := New(items)

	pair, ok := s.Start()
	require.True(t, ok)
	assert.Equal(t, items[1], pair.Left, "left is the item being placed")
	assert.Equal(t, items[0], pair.Right, "right is the pivot")

	// New item wins: it goes in front of the pivot.
	pair, ok, err := s.Record(items[1].Name)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, items[2], pair.Left)
	assert.Equal(t, items[0], pair.Right, "mid of [img01, img00] is index 1")

	cur, live := s.Current()
	assert.True(t, live)
	assert.Equal(t, pair, cur)
}

func TestSorter_RejectsForeignWinner(t *testing.T) {
	items := makeItems(4)
	s := New(items)
	pair, ok := s.Start()
	require.True(t, ok)

	again, ok, err := s.Record("not-in-pair.webp")
	assert.ErrorIs(t, err, ErrNotInPair)
	assert.True(t, ok)
	assert.Equal(t, pair, again, "state is unchanged after a rejected decision")
	assert.Equal(t, 0, s.Comparisons())

	_, _, err = s.Record(items[3].Name)
	assert.ErrorIs(t, err, ErrNotInPair, "a scene item outside the live pair is rejected too")
}

func TestSorter_DoesNotMutateInput(t *testing.T) {
	items := makeItems(5)
	orig := append([]types.Item(nil), items...)
	quality := map[string]int{}
	for i, it := range items {
		quality[it.Name] = i // reverse of input order
	}
	sorted, _ := runWithPreference(t, items, quality)
	assert.Equal(t, orig, items)
	assert.Equal(t, items[4], sorted[0])
	assert.Equal(t, items[0], sorted[4])
}

func TestSorter_StartResets(t *testing.T) {
	items := makeItems(3)
	s := New(items)
	_, ok := s.Start()
	require.True(t, ok)
	_, _, err := s.Record(items[1].Name)
	require.NoError(t, err)

	pair, ok := s.Start()
	require.True(t, ok)
	assert.Equal(t, 0, s.Comparisons())
	assert.Equal(t, items[1], pair.Left)
	assert.Len(t, s.Sorted(), 1)
}
