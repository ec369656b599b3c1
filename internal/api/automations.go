package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-rules/internal/automation"
)

// EvaluateResponse is the result of POST /automations/{name}/evaluate.
type EvaluateResponse struct {
	Name      string `json:"name"`
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// handleListAutomations returns the status of every automation.
func (s *Server) handleListAutomations(w http.ResponseWriter, _ *http.Request) {
	list := s.engine.List()
	out := make([]automation.Status, 0, len(list))
	for _, a := range list {
		out = append(out, a.Status())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"automations": out,
		"count":       len(out),
	})
}

// handleGetAutomation returns one automation's status.
func (s *Server) handleGetAutomation(w http.ResponseWriter, r *http.Request) {
	a, err := s.engine.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Status())
}

// handleEnableAutomation sets the enabled flag.
func (s *Server) handleEnableAutomation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.engine.Enable(name); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeStatus(w, name)
}

// handleDisableAutomation clears the enabled flag.
func (s *Server) handleDisableAutomation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.engine.Disable(name); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeStatus(w, name)
}

// handleStartAutomation launches an automation that is not running.
//
// The automation must outlive the request, so it runs on a context that
// keeps the request's values but not its cancellation. The engine's own
// Stop still ends it.
func (s *Server) handleStartAutomation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.engine.Start(context.WithoutCancel(r.Context()), name); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeStatus(w, name)
}

// handleRestartAutomation re-enables an automation and relaunches it if it
// has exited successfully.
func (s *Server) handleRestartAutomation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.engine.Restart(context.WithoutCancel(r.Context()), name); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeStatus(w, name)
}

// handleEvaluateAutomation evaluates the condition once without triggering.
func (s *Server) handleEvaluateAutomation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ok, msg, err := s.engine.Evaluate(name)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EvaluateResponse{Name: name, Triggered: ok, Message: msg})
}

func (s *Server) writeStatus(w http.ResponseWriter, name string) {
	a, err := s.engine.Get(name)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Status())
}

// writeEngineError maps automation errors to HTTP status codes.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, automation.ErrAutomationNotFound):
		writeNotFound(w, "automation not found")
	case errors.Is(err, automation.ErrAlreadyRunning),
		errors.Is(err, automation.ErrAutomationFailed),
		errors.Is(err, automation.ErrAutomationExited):
		writeConflict(w, err.Error())
	default:
		s.logger.Error("automation request failed", "error", err)
		writeInternalError(w, "automation request failed")
	}
}
