package api

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/nerrad567/parkrunner-core/internal/steering"
)

func (s *Server) handleGetGains(w http.ResponseWriter, _ *http.Request) {
	if s.gains == nil {
		writeUnavailable(w, "steering follower not running")
		return
	}
	writeJSON(w, http.StatusOK, s.gains.Gains())
}

// handleSetGains replaces all three gains and persists them when a store
// is configured. A store failure is reported but the live gains stay set.
func (s *Server) handleSetGains(w http.ResponseWriter, r *http.Request) {
	if s.gains == nil {
		writeUnavailable(w, "steering follower not running")
		return
	}

	var g steering.Gains
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	for _, v := range []float64{g.P, g.I, g.D} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "gains must be finite")
			return
		}
	}

	s.gains.SetGains(g)

	if s.gainStore != nil {
		if err := s.gainStore.Save(r.Context(), g); err != nil {
			s.logger.Error("saving steering gains", "error", err)
			writeInternalError(w, "gains applied but not saved")
			return
		}
	}
	writeJSON(w, http.StatusOK, g)
}

// GlueBody is the body of GET and PUT /steering/glue.
type GlueBody struct {
	Glue string `json:"glue"`
}

func (s *Server) handleGetGlue(w http.ResponseWriter, _ *http.Request) {
	if s.gains == nil {
		writeUnavailable(w, "steering follower not running")
		return
	}
	writeJSON(w, http.StatusOK, GlueBody{Glue: s.gains.Glue().String()})
}

// handleSetGlue selects the glue override. It is a live setting and is
// never persisted.
func (s *Server) handleSetGlue(w http.ResponseWriter, r *http.Request) {
	if s.gains == nil {
		writeUnavailable(w, "steering follower not running")
		return
	}

	var body GlueBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	g, err := steering.ParseGlue(body.Glue)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "glue must be none, left or right")
		return
	}

	s.gains.SetGlue(g)
	writeJSON(w, http.StatusOK, GlueBody{Glue: g.String()})
}
