// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event types pushed over the attempt event stream.
const (
	EventSlide    = "slide"
	EventGateOpen = "gate_open"
)

const (
	eventBuffer  = 16
	writeTimeout = 10 * time.Second
)

// Event is one message on the event stream.
type Event struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// hub fans controller notifications out to websocket subscribers. It
// implements flow.Notifier; GateOpened arrives on a timer goroutine.
type hub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
}

func newHub() *hub {
	return &hub{subs: make(map[chan Event]struct{})}
}

func (h *hub) SlideChanged(index int) { h.publish(Event{Type: EventSlide, Index: index}) }
func (h *hub) GateOpened(index int)   { h.publish(Event{Type: EventGateOpen, Index: index}) }

// publish never blocks; a subscriber with a full buffer misses the event
// and recovers state from the next GET.
func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *hub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Event, eventBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleEvents streams slide and gate events for one attempt.
// GET /api/attempts/{id}/events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	a, ok := s.lookup(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := a.events.subscribe()
	defer cancel()

	// The client sends nothing; reading detects its departure.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "attempt closed"),
					time.Now().Add(writeTimeout))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debug("websocket write failed", zap.String("attempt", a.id), zap.Error(err))
				return
			}
		}
	}
}
