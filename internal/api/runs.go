package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/parkrunner-core/internal/runlog"
)

// maxListLimit caps the limit query parameter of GET /runs.
const maxListLimit = 500

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeUnavailable(w, "run history not configured")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			writeBadRequest(w, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := s.runs.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing runs", "error", err)
		writeInternalError(w, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeUnavailable(w, "run history not configured")
		return
	}

	id := chi.URLParam(r, "id")
	run, err := s.runs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, runlog.ErrRunNotFound) {
			writeNotFound(w, "run not found")
			return
		}
		s.logger.Error("getting run", "run_id", id, "error", err)
		writeInternalError(w, "failed to get run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}
