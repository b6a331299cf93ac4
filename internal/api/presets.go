package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/relay-sequencer/internal/preset"
	"github.com/nerrad567/relay-sequencer/internal/schedule"
)

// handleListPresets returns the preset library contents.
func (s *Server) handleListPresets(w http.ResponseWriter, _ *http.Request) {
	if s.presets == nil {
		writeNotFound(w, "preset library is not enabled")
		return
	}

	presets, err := s.presets.List()
	if err != nil {
		s.logger.Error("listing presets", "error", err)
		writeInternalError(w, "listing presets")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"presets": presets,
		"total":   len(presets),
	})
}

// handleGetPreset returns one preset's full run configuration.
func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	if s.presets == nil {
		writeNotFound(w, "preset library is not enabled")
		return
	}

	cfg := s.loadPreset(w, chi.URLParam(r, "name"))
	if cfg == nil {
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// handleStartPreset starts a run from a named preset.
func (s *Server) handleStartPreset(w http.ResponseWriter, r *http.Request) {
	if s.presets == nil {
		writeNotFound(w, "preset library is not enabled")
		return
	}

	cfg := s.loadPreset(w, chi.URLParam(r, "name"))
	if cfg == nil {
		return
	}

	s.startRun(w, r, *cfg)
}

// loadPreset loads a preset, writing the error response itself and
// returning nil on failure.
func (s *Server) loadPreset(w http.ResponseWriter, name string) *schedule.RunConfig {
	cfg, err := s.presets.Load(name)
	switch {
	case errors.Is(err, preset.ErrNotFound):
		writeNotFound(w, "preset not found: "+name)
		return nil
	case errors.Is(err, preset.ErrInvalidName):
		writeBadRequest(w, err.Error())
		return nil
	case err != nil:
		s.logger.Error("loading preset", "preset", name, "error", err)
		writeInternalError(w, "loading preset")
		return nil
	}
	return cfg
}
