package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/parkrunner-core/internal/controller"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/route", s.handleRoute)

		r.Route("/steering/gains", func(r chi.Router) {
			r.Get("/", s.handleGetGains)
			r.Put("/", s.handleSetGains)
		})
		r.Route("/steering/glue", func(r chi.Router) {
			r.Get("/", s.handleGetGlue)
			r.Put("/", s.handleSetGlue)
		})

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Get("/{id}", s.handleGetRun)
		})
	})

	wsPath := s.wsCfg.Path
	if wsPath == "" {
		wsPath = "/ws"
	}
	r.Get(wsPath, s.handleWebSocket)

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	RunID     string `json:"run_id,omitempty"`
	WSClients int    `json:"ws_clients"`
	controller.Status
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		writeUnavailable(w, "no run in progress")
		return
	}
	resp := StatusResponse{
		RunID:  s.runID,
		Status: s.status.Status(),
	}
	if s.hub != nil {
		resp.WSClients = s.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRoute(w http.ResponseWriter, _ *http.Request) {
	if s.route == nil {
		writeUnavailable(w, "no route planned")
		return
	}
	writeJSON(w, http.StatusOK, s.route)
}
