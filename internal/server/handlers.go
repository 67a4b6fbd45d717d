package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/nipafx/LibFX-sub001/internal/scenario"
)

// Listing is one entry of GET /scenarios.
type Listing struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// RunResponse is the body of a successful POST /scenarios/{name}/run.
type RunResponse struct {
	*scenario.Result
	Passed bool `json:"passed"`
}

// Message is one WebSocket frame of /watch.
type Message struct {
	// Type is "entry", "done" or "error".
	Type string `json:"type"`

	Entry    *scenario.Entry `json:"entry,omitempty"`
	RunID    string          `json:"runId,omitempty"`
	Passed   bool            `json:"passed,omitempty"`
	Failures []string        `json:"failures,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	sources, err := s.loader.List(r.Context(), s.config.Source)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]Listing, 0, len(sources))
	for _, src := range sources {
		out = append(out, Listing{Name: scenario.ScenarioName(src), Source: src})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sc, err := s.find(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.runner().Run(r.Context(), sc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("scenario run", "scenario", name, "run", res.RunID, "passed", res.Passed())
	writeJSON(w, http.StatusOK, RunResponse{Result: res, Passed: res.Passed()})
}

// handleWatch upgrades to a WebSocket and streams one message per entry,
// then a "done" message, then closes.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sc, err := s.find(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := func(msg Message) bool {
		conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Error("write error", "error", err)
			return false
		}
		return true
	}

	ok := true
	hook := func(e scenario.Entry) {
		if ok {
			ok = send(Message{Type: "entry", Entry: &e})
		}
	}

	res, err := s.runner(scenario.WithEntryHook(hook)).Run(r.Context(), sc)
	if !ok {
		return
	}
	if err != nil {
		send(Message{Type: "error", Error: err.Error()})
	} else {
		send(Message{Type: "done", RunID: res.RunID, Passed: res.Passed(), Failures: res.Failures})
	}

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
