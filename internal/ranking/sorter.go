// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ranking builds a total order over a scene's images from a stream of
// pairwise human judgments using binary insertion.
//
// Each unplaced item is inserted into the growing sorted sequence by binary
// search, where every probe is a question to the respondent. For n items at
// most n·⌈log2 n⌉ and at least n-1 comparisons are asked. Judgments are assumed
// transitive; an intransitive respondent gets the order implied by the
// insertion path. There is no tie: every comparison has a winner.
package ranking

import (
	"errors"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

var (
	// ErrNotInPair is returned when the winner is neither member of the live pair.
	ErrNotInPair = errors.New("winner is not part of the current pair")

	// ErrDone is returned when a decision is recorded after completion.
	ErrDone = errors.New("ranking already complete")
)

// Sorter is an interactive binary-insertion sorter. The first element of the
// sorted sequence is the best item. A Sorter is not safe for concurrent use.
type Sorter struct {
	items  []types.Item
	sorted []types.Item

	i      int // next unplaced item
	lo, hi int // search window into sorted
	mid    int

	live        bool
	comparisons int
}

// New returns a Sorter over a copy of items.
func New(items []types.Item) *Sorter {
	cp := make([]types.Item, len(items))
	copy(cp, items)
	return &Sorter{items: cp}
}

// Start seeds the sorted sequence and returns the first pair. ok is false
// when fewer than two items were given: the ranking is then complete and
// equals the input.
func (s *Sorter) Start() (pair types.Pair, ok bool) {
	s.comparisons = 0
	s.live = false
	if len(s.items) < 2 {
		s.sorted = append([]types.Item(nil), s.items...)
		s.i = len(s.items)
		return types.Pair{}, false
	}
	s.sorted = []types.Item{s.items[0]}
	s.i = 1
	return s.nextPair()
}

// Record applies a decision on the live pair. winner is the name of the
// preferred item. ok is false once every item has been placed.
func (s *Sorter) Record(winner string) (pair types.Pair, ok bool, err error) {
	if !s.live {
		return types.Pair{}, false, ErrDone
	}
	current := s.items[s.i]
	pivot := s.sorted[s.mid]
	switch winner {
	case current.Name:
		s.hi = s.mid
	case pivot.Name:
		s.lo = s.mid + 1
	default:
		return s.pair(), true, ErrNotInPair
	}
	s.comparisons++
	pair, ok = s.step()
	return pair, ok, nil
}

// Current returns the live pair, if any.
func (s *Sorter) Current() (types.Pair, bool) {
	if !s.live {
		return types.Pair{}, false
	}
	return s.pair(), true
}

// Done reports whether every item has been placed.
func (s *Sorter) Done() bool {
	return !s.live && s.i >= len(s.items)
}

// Sorted returns a copy of the sorted sequence. It is final once Done.
func (s *Sorter) Sorted() []types.Item {
	return append([]types.Item(nil), s.sorted...)
}

// Comparisons returns the number of decisions recorded since Start.
func (s *Sorter) Comparisons() int { return s.comparisons }

func (s *Sorter) nextPair() (types.Pair, bool) {
	if s.i >= len(s.items) {
		s.live = false
		return types.Pair{}, false
	}
	s.lo, s.hi = 0, len(s.sorted)
	return s.step()
}

func (s *Sorter) step() (types.Pair, bool) {
	if s.lo >= s.hi {
		s.sorted = insertAt(s.sorted, s.lo, s.items[s.i])
		s.i++
		return s.nextPair()
	}
	s.mid = (s.lo + s.hi) / 2
	s.live = true
	return s.pair(), true
}

func (s *Sorter) pair() types.Pair {
	return types.Pair{Left: s.items[s.i], Right: s.sorted[s.mid]}
}

func insertAt(seq []types.Item, at int, it types.Item) []types.Item {
	seq = append(seq, types.Item{})
	copy(seq[at+1:], seq[at:])
	seq[at] = it
	return seq
}
