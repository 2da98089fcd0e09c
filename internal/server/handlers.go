// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pdiddy/iqa-survey/internal/deck"
	"github.com/pdiddy/iqa-survey/internal/flow"
	"github.com/pdiddy/iqa-survey/internal/loader"
	"github.com/pdiddy/iqa-survey/internal/ranking"
	"github.com/pdiddy/iqa-survey/internal/survey"
	"github.com/pdiddy/iqa-survey/pkg/types"
)

const maxRequestBytes = 1 << 20

// CreateRequest is the body of POST /api/attempts.
type CreateRequest struct {
	Device *types.DeviceInfo `json:"device,omitempty"`
}

// ChooseRequest is the body of POST /api/attempts/{id}/choose.
type ChooseRequest struct {
	Winner string `json:"winner"`
}

// DescriptionResponse is returned by GET /api/attempts/{id}/description.
type DescriptionResponse struct {
	SceneID     string `json:"sceneId"`
	Description string `json:"description"`
	// Applied is false when the slide changed while the text was fetched.
	Applied bool `json:"applied"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// hookContext detaches persistence from the request so a client hanging up
// does not abort a session or result write.
func hookContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// handleCreate loads the survey, assembles the deck and starts an attempt.
// POST /api/attempts?survey=<id>&skipCompare=<bool>
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	q := r.URL.Query()
	surveyID := loader.ResolveSurveyID(q.Get("survey"), s.allowedSurveys(), s.defaultSurvey())
	skipCompare, _ := strconv.ParseBool(q.Get("skipCompare"))

	bundle, err := loader.Load(r.Context(), s.src, surveyID)
	if err != nil {
		s.log.Error("loading survey", zap.String("survey", surveyID), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "survey could not be loaded"})
		return
	}
	slides := deck.Assemble(bundle.Config, bundle.Manifest, deck.Options{
		ImageBase:   s.cfg.Source.ImageBase,
		SkipCompare: skipCompare,
	})

	id := uuid.NewString()
	log := s.log.With(zap.String("attempt", id))
	events := newHub()
	rec := survey.NewRecorder(s.store, surveyID, req.Device, log)
	a := &attempt{
		id:       id,
		surveyID: surveyID,
		footer:   bundle.Config.Footer,
		recorder: rec,
		events:   events,
		ctrl: flow.New(slides,
			flow.WithHooks(rec),
			flow.WithNotifier(events),
			flow.WithLogger(log)),
	}

	a.mu.Lock()
	a.ctrl.Start(hookContext(r))
	v := a.view()
	a.mu.Unlock()

	s.attempts.SetDefault(id, a)
	log.Info("attempt created",
		zap.String("survey", surveyID),
		zap.Int("slides", len(slides)),
		zap.Bool("skip_compare", skipCompare))
	writeJSON(w, http.StatusCreated, v)
}

// handleGet returns the attempt's current view.
// GET /api/attempts/{id}
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.withAttempt(w, r, func(*attempt) error { return nil })
}

// handleResponses merges form values into the attempt's responses. Booleans
// and numbers are stored in their string form.
// PUT /api/attempts/{id}/responses
func (s *Server) handleResponses(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	s.withAttempt(w, r, func(a *attempt) error {
		for name, raw := range body {
			value, err := stringValue(raw)
			if err != nil {
				return fmt.Errorf("%w: field %s: %w", errBadRequest, name, err)
			}
			if err := a.ctrl.SetResponse(name, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// handleNext advances to the next slide.
// POST /api/attempts/{id}/next
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.withAttempt(w, r, func(a *attempt) error {
		return a.ctrl.Advance(hookContext(r))
	})
}

// handleBack returns to the previous slide.
// POST /api/attempts/{id}/back
func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.withAttempt(w, r, func(a *attempt) error {
		return a.ctrl.Retreat(hookContext(r))
	})
}

// handleChoose records a pairwise decision.
// POST /api/attempts/{id}/choose
func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	var req ChooseRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	s.withAttempt(w, r, func(a *attempt) error {
		return a.ctrl.Choose(hookContext(r), req.Winner)
	})
}

// handleDescription fetches the current comparison's scene description.
// The fetch runs without the attempt lock; a result for a slide the
// respondent has already left is discarded.
// GET /api/attempts/{id}/description
func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	a, ok := s.lookup(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	a.mu.Lock()
	tok, scene, ok := a.ctrl.DescriptionRequest()
	a.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: flow.ErrNoComparison.Error()})
		return
	}

	text := s.descriptions.Get(r.Context(), scene)

	a.mu.Lock()
	resp := DescriptionResponse{SceneID: scene, Applied: a.ctrl.ApplyDescription(tok, text)}
	if resp.Applied {
		resp.Description = a.ctrl.Description()
	}
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) allowedSurveys() []string {
	if len(s.cfg.Surveys.Allowed) == 0 {
		return loader.DefaultSurveys
	}
	return s.cfg.Surveys.Allowed
}

func (s *Server) defaultSurvey() string {
	if s.cfg.Surveys.Default == "" {
		return loader.DefaultSurveys[0]
	}
	return s.cfg.Surveys.Default
}

// lookup returns the attempt and refreshes its idle timeout, or writes 404.
func (s *Server) lookup(w http.ResponseWriter, id string) (*attempt, bool) {
	v, ok := s.attempts.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown attempt"})
		return nil, false
	}
	a := v.(*attempt)
	s.attempts.SetDefault(id, a)
	return a, true
}

// withAttempt runs fn under the attempt lock and writes the resulting view
// or the mapped error.
func (s *Server) withAttempt(w http.ResponseWriter, r *http.Request, fn func(*attempt) error) {
	a, ok := s.lookup(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	a.mu.Lock()
	err := fn(a)
	v := a.view()
	a.mu.Unlock()

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

var errBadRequest = errors.New("bad request")

// writeError maps flow errors to statuses. A validation failure is a
// prompt for the respondent and carries the field name.
func writeError(w http.ResponseWriter, err error) {
	var verr *flow.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, flow.ErrTimerPending),
		errors.Is(err, flow.ErrCompareInProgress),
		errors.Is(err, flow.ErrCannotRetreat),
		errors.Is(err, flow.ErrFinished),
		errors.Is(err, flow.ErrNoComparison):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, ranking.ErrNotInPair), errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeBody decodes a JSON body into v. An empty body leaves v unchanged.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("invalid JSON: %w", err)
}

func stringValue(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("unsupported value type %T", raw)
}
