package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/relay-sequencer/internal/engine"
	"github.com/nerrad567/relay-sequencer/internal/history"
	"github.com/nerrad567/relay-sequencer/internal/schedule"
)

// handleStartRun starts a run from a run configuration document in the
// request body.
//
// Responses:
//   - 202 {run_id}: run accepted and underway (or completed, for an empty
//     schedule)
//   - 400: malformed or invalid configuration
//   - 409: a run is already active
//   - 503: the relay board could not be opened or reset
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "reading request body: "+err.Error())
		return
	}

	cfg, err := schedule.Parse(body)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	s.startRun(w, r, *cfg)
}

// startRun hands a parsed configuration to the engine and maps engine
// errors onto HTTP statuses. Shared by the body and preset start paths.
func (s *Server) startRun(w http.ResponseWriter, r *http.Request, cfg schedule.RunConfig) {
	runID, err := s.engine.Start(r.Context(), cfg)
	switch {
	case errors.Is(err, engine.ErrAlreadyRunning):
		writeConflict(w, "a run is already active")
		return
	case errors.Is(err, engine.ErrInitFailed):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
		return
	case err != nil:
		writeInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id":      runID,
		"description": cfg.Description,
	})
}

// handleStopRun requests cancellation of the active run.
//
// Stopping with no active run is a no-op, not an error; the response says
// whether anything was actually stopped.
func (s *Server) handleStopRun(w http.ResponseWriter, _ *http.Request) {
	stopped := s.engine.Stop()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"stopped": stopped,
	})
}

// handleActiveRun returns the engine status snapshot.
// When idle, the snapshot carries only the state name.
func (s *Server) handleActiveRun(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

// handleListRuns returns paginated run history, most recent first.
//
// Query parameters:
//   - outcome: filter by outcome (completed, cancelled, partial)
//   - limit: page size (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "run history is not enabled")
		return
	}

	filter := history.Filter{
		Outcome: r.URL.Query().Get("outcome"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing run history", "error", err)
		writeInternalError(w, "listing run history")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetRun returns one recorded run by id.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "run history is not enabled")
		return
	}

	id := chi.URLParam(r, "id")
	run, err := s.history.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		writeNotFound(w, "run not found: "+id)
		return
	}
	if err != nil {
		s.logger.Error("fetching run record", "run_id", id, "error", err)
		writeInternalError(w, "fetching run record")
		return
	}

	writeJSON(w, http.StatusOK, run)
}
