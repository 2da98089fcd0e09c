// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package console runs a survey attempt in a terminal. Slides are printed,
// form fields are prompted one per line and comparisons are answered with
// 1 or 2.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/iqa-survey/internal/flow"
	"github.com/pdiddy/iqa-survey/pkg/types"
)

// ErrAborted is returned when input ends or the respondent quits.
var ErrAborted = errors.New("survey aborted")

// DescriptionFunc returns a scene's description, or "".
type DescriptionFunc func(ctx context.Context, scene string) string

// Options configures a console run.
type Options struct {
	// Describe fetches scene descriptions; nil skips them.
	Describe DescriptionFunc

	// Wait sleeps out slide timers. It defaults to a context-aware sleep.
	Wait func(ctx context.Context, d time.Duration) error

	Footer string
}

// Runner drives one controller from line-oriented input.
type Runner struct {
	ctrl *flow.Controller
	in   *bufio.Scanner
	out  io.Writer
	opts Options
}

// New returns a Runner. The controller must already be started.
func New(ctrl *flow.Controller, in io.Reader, out io.Writer, opts Options) *Runner {
	if opts.Wait == nil {
		opts.Wait = sleep
	}
	return &Runner{ctrl: ctrl, in: bufio.NewScanner(in), out: out, opts: opts}
}

// Run presents slides until the deck is exhausted.
func (r *Runner) Run(ctx context.Context) error {
	for !r.ctrl.Finished() {
		if err := ctx.Err(); err != nil {
			return err
		}
		slide, _ := r.ctrl.Current()
		r.header(slide)

		var err error
		if slide.IsCompare() {
			err = r.compare(ctx, slide)
		} else {
			err = r.page(ctx, slide)
		}
		if err != nil {
			return err
		}
	}
	fmt.Fprintln(r.out, "Survey complete. Thank you!")
	return nil
}

func (r *Runner) header(slide types.Slide) {
	fmt.Fprintf(r.out, "\n[%d/%d] %s\n", r.ctrl.Index()+1, r.ctrl.Len(), slide.Title)
	for _, b := range slide.Content {
		switch b.Type {
		case "image":
			fmt.Fprintf(r.out, "  [image] %s\n", b.Image)
		case "images":
			for _, img := range b.Images {
				fmt.Fprintf(r.out, "  [image] %s\n", img)
			}
		default:
			fmt.Fprintf(r.out, "  %s\n", b.Text)
		}
	}
	if r.opts.Footer != "" {
		fmt.Fprintf(r.out, "  -- %s\n", r.opts.Footer)
	}
}

// compare asks every pair of the current scene.
func (r *Runner) compare(ctx context.Context, slide types.Slide) error {
	if r.opts.Describe != nil {
		if tok, scene, ok := r.ctrl.DescriptionRequest(); ok {
			text := r.opts.Describe(ctx, scene)
			if r.ctrl.ApplyDescription(tok, text) && r.ctrl.Description() != "" {
				fmt.Fprintf(r.out, "  %s\n", r.ctrl.Description())
			}
		}
	}

	idx := r.ctrl.Index()
	for r.ctrl.Index() == idx && !r.ctrl.Finished() {
		pair, ok := r.ctrl.Pair()
		if !ok {
			return nil
		}
		fmt.Fprintf(r.out, "  1) %s\n  2) %s\n", pair.Left.URL, pair.Right.URL)
		line, err := r.prompt("Which has better quality? [1/2] ")
		if err != nil {
			return err
		}
		var winner string
		switch line {
		case "1":
			winner = pair.Left.Name
		case "2":
			winner = pair.Right.Name
		default:
			fmt.Fprintln(r.out, "  Please answer 1 or 2.")
			continue
		}
		if err := r.ctrl.Choose(ctx, winner); err != nil {
			return err
		}
	}
	return nil
}

// page handles info and form slides: fields, timer, then navigation.
func (r *Runner) page(ctx context.Context, slide types.Slide) error {
	if slide.IsForm() {
		if err := r.fill(slide); err != nil {
			return err
		}
	}
	if d := r.ctrl.Remaining(); d > 0 {
		fmt.Fprintf(r.out, "  (please wait %s)\n", d.Round(time.Second))
		if err := r.opts.Wait(ctx, d); err != nil {
			return err
		}
	}

	hint := "Press Enter to continue"
	if r.ctrl.CanRetreat() {
		hint += ", b to go back"
	}
	line, err := r.prompt(hint + ": ")
	if err != nil {
		return err
	}
	if line == "b" && r.ctrl.CanRetreat() {
		return r.ctrl.Retreat(ctx)
	}

	err = r.ctrl.Advance(ctx)
	var verr *flow.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintf(r.out, "  %s\n", verr.Error())
		return nil
	case errors.Is(err, flow.ErrTimerPending):
		return nil
	}
	return err
}

// fill prompts every visible field. An empty answer keeps the current value.
func (r *Runner) fill(slide types.Slide) error {
	for _, f := range slide.Fields {
		responses := r.ctrl.Responses()
		if !flow.Visible(f, responses) {
			continue
		}
		current := responses[f.Name]
		if f.Type == types.FieldSelect {
			for i, o := range f.Options {
				fmt.Fprintf(r.out, "    %d) %s\n", i+1, optionLabel(o))
			}
		}

		label := f.DisplayLabel()
		if f.Required {
			label += " *"
		}
		if current != "" {
			label += " [" + current + "]"
		}
		if f.Type == types.FieldCheckbox {
			label += " (y/n)"
		}
		line, err := r.prompt("  " + label + ": ")
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		if err := r.ctrl.SetResponse(f.Name, fieldValue(f, line)); err != nil {
			return err
		}
	}
	return nil
}

func fieldValue(f types.Field, line string) string {
	switch f.Type {
	case types.FieldCheckbox:
		return strconv.FormatBool(strings.EqualFold(line, "y") || strings.EqualFold(line, "yes"))
	case types.FieldSelect:
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(f.Options) {
			return f.Options[n-1].Value
		}
	}
	return line
}

func optionLabel(o types.Option) string {
	if o.Label != "" {
		return o.Label
	}
	return o.Value
}

func (r *Runner) prompt(text string) (string, error) {
	fmt.Fprint(r.out, text)
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", err
		}
		return "", ErrAborted
	}
	line := strings.TrimSpace(r.in.Text())
	if line == "q" {
		return "", ErrAborted
	}
	return line, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
