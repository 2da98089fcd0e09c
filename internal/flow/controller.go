// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package flow drives one survey attempt through its slide deck.
//
// The Controller owns the slide index, the responses, the comparison log and
// the per-scene rankings. It gates forward progress on slide timers and
// required form fields, runs one ranking.Sorter per comparison slide, fires
// the session-start hook on the first real comparison and the completion hook
// once the deck is exhausted.
//
// Every slide entry bumps a generation counter. Work that suspends outside
// the controller (timer wakeups, description fetches) captures the generation
// and is discarded if the slide changed in the meantime.
package flow

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/iqa-survey/internal/ranking"
	"github.com/pdiddy/iqa-survey/pkg/types"
)

// Token identifies the slide visit a suspended operation belongs to.
type Token uint64

// Option configures a Controller.
type Option func(*Controller)

// WithHooks sets the lifecycle hooks.
func WithHooks(h Hooks) Option { return func(c *Controller) { c.hooks = h } }

// WithNotifier sets the slide and gate notifier.
func WithNotifier(n Notifier) Option { return func(c *Controller) { c.notifier = n } }

// WithClock replaces the wall clock.
func WithClock(clk Clock) Option { return func(c *Controller) { c.clock = clk } }

// WithRand sets the source used to randomize pair display order.
func WithRand(r *rand.Rand) Option { return func(c *Controller) { c.rng = r } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(c *Controller) { c.log = l } }

// Controller runs one survey attempt. It is not safe for concurrent use;
// callers serialize access.
type Controller struct {
	deck []types.Slide
	idx  int

	hooks    Hooks
	notifier Notifier
	clock    Clock
	rng      *rand.Rand
	log      *zap.Logger

	responses   types.Responses
	comparisons []types.ComparisonEvent
	rankings    map[string][]types.Item

	sorter     *ranking.Sorter
	pair       types.Pair // engine order
	display    types.Pair // presentation order
	hasPair    bool
	trialStart time.Time

	gen         atomic.Uint64
	entered     time.Time
	timer       Timer
	description string

	surveyStart time.Time
	begun       bool
	started     bool
	completed   bool
	result      *types.Result
}

// New returns a Controller over deck. Call Start to enter the first slide.
func New(deck []types.Slide, opts ...Option) *Controller {
	c := &Controller{
		deck:      deck,
		hooks:     nopHooks{},
		notifier:  nopNotifier{},
		clock:     realClock{},
		log:       zap.NewNop(),
		responses: make(types.Responses),
		rankings:  make(map[string][]types.Item),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return c
}

// Start records the survey start time and enters the first slide. Calling
// it again has no effect.
func (c *Controller) Start(ctx context.Context) {
	if c.begun {
		return
	}
	c.begun = true
	c.surveyStart = c.clock.Now()
	c.moveTo(ctx, 0)
}

// Close cancels the pending timer wakeup, if any.
func (c *Controller) Close() {
	c.gen.Add(1)
	c.stopTimer()
}

// Index returns the current slide index; it equals Len once finished.
func (c *Controller) Index() int { return c.idx }

// Len returns the number of slides in the deck.
func (c *Controller) Len() int { return len(c.deck) }

// Finished reports whether every slide has been passed.
func (c *Controller) Finished() bool { return c.idx >= len(c.deck) }

// Started reports whether the session-start hook has fired.
func (c *Controller) Started() bool { return c.started }

// Current returns the current slide.
func (c *Controller) Current() (types.Slide, bool) {
	if c.Finished() {
		return types.Slide{}, false
	}
	return c.deck[c.idx], true
}

// Responses returns a copy of the collected responses.
func (c *Controller) Responses() types.Responses { return c.responses.Clone() }

// SetResponse stores a form value. Responses are never removed.
func (c *Controller) SetResponse(name, value string) error {
	if c.completed {
		return ErrFinished
	}
	c.responses[name] = value
	return nil
}

// Pair returns the live comparison in display order.
func (c *Controller) Pair() (types.Pair, bool) {
	return c.display, c.hasPair
}

// Comparisons returns a copy of the comparison log.
func (c *Controller) Comparisons() []types.ComparisonEvent {
	return append([]types.ComparisonEvent(nil), c.comparisons...)
}

// Rankings returns a copy of the completed rankings.
func (c *Controller) Rankings() map[string][]types.Item {
	out := make(map[string][]types.Item, len(c.rankings))
	for k, v := range c.rankings {
		out[k] = append([]types.Item(nil), v...)
	}
	return out
}

// Result returns the final payload once the survey is finished.
func (c *Controller) Result() (types.Result, bool) {
	if c.result == nil {
		return types.Result{}, false
	}
	return *c.result, true
}

// CheckAdvance reports why Advance would be refused, or nil.
func (c *Controller) CheckAdvance() error {
	slide, ok := c.Current()
	if !ok {
		return ErrFinished
	}
	if slide.IsCompare() {
		return ErrCompareInProgress
	}
	if !c.GateOpen() {
		return ErrTimerPending
	}
	if slide.IsForm() {
		if f, missing := missingField(slide, c.responses); missing {
			return &ValidationError{Field: f.Name, Label: f.DisplayLabel()}
		}
	}
	return nil
}

// Advance moves to the next slide if the current one allows it.
func (c *Controller) Advance(ctx context.Context) error {
	if err := c.CheckAdvance(); err != nil {
		return err
	}
	c.moveTo(ctx, c.idx+1)
	return nil
}

// CanRetreat reports whether Retreat is permitted. Comparison slides are one
// way: neither they nor the slide after them can go back.
func (c *Controller) CanRetreat() bool {
	slide, ok := c.Current()
	if !ok || c.idx == 0 {
		return false
	}
	if slide.IsCompare() || !c.GateOpen() {
		return false
	}
	return !c.deck[c.idx-1].IsCompare()
}

// Retreat moves to the previous slide.
func (c *Controller) Retreat(ctx context.Context) error {
	if !c.CanRetreat() {
		return ErrCannotRetreat
	}
	c.moveTo(ctx, c.idx-1)
	return nil
}

// Choose records the respondent's pick on the live pair. winner is the item
// name. When the scene's ranking completes the controller moves on.
func (c *Controller) Choose(ctx context.Context, winner string) error {
	slide, ok := c.Current()
	if !ok {
		return ErrFinished
	}
	if !slide.IsCompare() || c.sorter == nil || !c.hasPair {
		return ErrNoComparison
	}
	if !c.pair.Contains(winner) {
		return ranking.ErrNotInPair
	}

	now := c.clock.Now()
	asked := c.pair
	next, more, err := c.sorter.Record(winner)
	if err != nil {
		return err
	}
	c.comparisons = append(c.comparisons, types.ComparisonEvent{
		SceneID:    slide.SceneID,
		Left:       asked.Left.Name,
		Right:      asked.Right.Name,
		Winner:     winner,
		DurationMs: now.Sub(c.trialStart).Milliseconds(),
	})

	if more {
		c.setPair(next)
		c.trialStart = c.clock.Now()
		return nil
	}

	c.rankings[slide.SceneID] = c.sorter.Sorted()
	c.log.Debug("scene ranked",
		zap.String("scene", slide.SceneID),
		zap.Int("comparisons", c.sorter.Comparisons()))
	c.moveTo(ctx, c.idx+1)
	return nil
}

// GateOpen reports whether the current slide's timer has elapsed.
func (c *Controller) GateOpen() bool {
	return c.Remaining() == 0
}

// Remaining returns the time left on the current slide's timer.
func (c *Controller) Remaining() time.Duration {
	slide, ok := c.Current()
	if !ok {
		return 0
	}
	d := timerDuration(slide)
	left := d - c.clock.Now().Sub(c.entered)
	if d <= 0 || left <= 0 {
		return 0
	}
	return left
}

// TimerProgress returns the elapsed fraction of the current slide's timer,
// 1 when the slide has none.
func (c *Controller) TimerProgress() float64 {
	slide, ok := c.Current()
	if !ok {
		return 1
	}
	d := timerDuration(slide)
	if d <= 0 {
		return 1
	}
	p := float64(c.clock.Now().Sub(c.entered)) / float64(d)
	return min(max(p, 0), 1)
}

// Token returns the identity of the current slide visit.
func (c *Controller) Token() Token { return Token(c.gen.Load()) }

// Stale reports whether tok belongs to an earlier slide visit.
func (c *Controller) Stale(tok Token) bool { return uint64(tok) != c.gen.Load() }

// DescriptionRequest returns the scene whose optional description should
// be fetched for the current slide, with the token to apply it under.
func (c *Controller) DescriptionRequest() (Token, string, bool) {
	slide, ok := c.Current()
	if !ok || !slide.IsCompare() {
		return 0, "", false
	}
	return c.Token(), slide.SceneID, true
}

// ApplyDescription stores a fetched description unless the slide changed
// while it was in flight. It reports whether the text was applied.
func (c *Controller) ApplyDescription(tok Token, text string) bool {
	if c.Stale(tok) {
		return false
	}
	c.description = strings.TrimSpace(text)
	return true
}

// Description returns the current comparison slide's description.
func (c *Controller) Description() string { return c.description }

// moveTo enters slide idx. Comparison slides that rank immediately (fewer
// than two items) are passed through.
func (c *Controller) moveTo(ctx context.Context, idx int) {
	for {
		c.idx = idx
		c.resetSlide()

		slide, ok := c.Current()
		if !ok {
			c.notifier.SlideChanged(c.idx)
			c.finalize(ctx)
			return
		}

		c.armGate(slide)
		switch {
		case slide.IsForm():
			c.prefill(slide)
		case slide.IsCompare():
			if !c.beginCompare(ctx, slide) {
				idx++
				continue
			}
		}
		c.log.Debug("slide entered", zap.Int("index", c.idx), zap.String("type", string(slide.Type)))
		c.notifier.SlideChanged(c.idx)
		return
	}
}

func (c *Controller) resetSlide() {
	c.gen.Add(1)
	c.stopTimer()
	c.entered = c.clock.Now()
	c.sorter = nil
	c.pair, c.display, c.hasPair = types.Pair{}, types.Pair{}, false
	c.description = ""
}

func (c *Controller) armGate(slide types.Slide) {
	d := timerDuration(slide)
	if d <= 0 {
		return
	}
	gen, idx := c.gen.Load(), c.idx
	c.timer = c.clock.AfterFunc(d, func() {
		if c.gen.Load() != gen {
			return
		}
		c.notifier.GateOpened(idx)
	})
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// beginCompare starts the scene's sorter. It returns false when the ranking
// is complete without any question.
func (c *Controller) beginCompare(ctx context.Context, slide types.Slide) bool {
	if !slide.Practice && !c.started {
		c.started = true
		c.log.Info("session started", zap.Int("index", c.idx), zap.String("scene", slide.SceneID))
		c.hooks.SessionStarted(ctx, c.responses.Clone())
	}

	c.sorter = ranking.New(slide.Conditions)
	c.trialStart = c.clock.Now()
	pair, ok := c.sorter.Start()
	if !ok {
		c.rankings[slide.SceneID] = c.sorter.Sorted()
		c.sorter = nil
		return false
	}
	c.setPair(pair)
	return true
}

// setPair stores the engine pair and draws an independent display order
// so the respondent cannot learn which side holds the new item.
func (c *Controller) setPair(p types.Pair) {
	c.pair = p
	c.display = p
	if c.rng.IntN(2) == 1 {
		c.display = p.Swap()
	}
	c.hasPair = true
}

func (c *Controller) prefill(slide types.Slide) {
	today := c.clock.Now().Format(time.DateOnly)
	for _, f := range slide.Fields {
		if f.Type == types.FieldDate && f.DefaultToday && c.responses[f.Name] == "" {
			c.responses[f.Name] = today
		}
	}
}

func timerDuration(slide types.Slide) time.Duration {
	if slide.Timer <= 0 {
		return 0
	}
	return time.Duration(slide.Timer * float64(time.Second))
}
