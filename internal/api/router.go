package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-motion/internal/history"
)

// Execution list bounds.
const (
	defaultExecutionLimit = 20
	maxExecutionLimit     = 500
	maxQueryParamLen      = 128
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/queue", s.handleQueue)
		r.Get("/performance", s.handlePerformance)
		r.Get("/state", s.handleState)

		r.Get("/plugins", s.handlePlugins)
		r.Get("/effects", s.handleEffects)
		r.Get("/variants", s.handleVariants)
		r.Get("/errors", s.handleErrors)

		r.Route("/executions", func(r chi.Router) {
			r.Get("/", s.handleListExecutions)
			r.Get("/summary", s.handleExecutionSummary)
			r.Get("/{id}", s.handleGetExecution)
		})
	})

	path := s.wsCfg.Path
	if path == "" {
		path = "/ws"
	}
	r.Get(path, s.handleWebSocket)

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleQueue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"queue":     s.engine.Queue().Snapshot(),
		"active_id": s.engine.Queue().ActiveID(),
	})
}

func (s *Server) handlePerformance(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Monitor().Snapshot())
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Coordinator().State())
}

func (s *Server) handlePlugins(w http.ResponseWriter, _ *http.Request) {
	plugins := s.engine.Registry().Plugins()
	writeJSON(w, http.StatusOK, map[string]any{
		"plugins": plugins,
		"count":   len(plugins),
	})
}

func (s *Server) handleEffects(w http.ResponseWriter, _ *http.Request) {
	list := s.engine.Registry().Effects()
	writeJSON(w, http.StatusOK, map[string]any{
		"effects": list,
		"count":   len(list),
	})
}

func (s *Server) handleVariants(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"active_variants": s.engine.Registry().ActiveVariants(),
	})
}

func (s *Server) handleErrors(w http.ResponseWriter, _ *http.Request) {
	errs := s.engine.Registry().RecentErrors()
	writeJSON(w, http.StatusOK, map[string]any{
		"errors": errs,
		"count":  len(errs),
	})
}

// handleListExecutions returns recent executions, optionally for one action.
func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "execution history unavailable")
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	action := r.URL.Query().Get("action")
	if len(action) > maxQueryParamLen {
		writeBadRequest(w, "invalid action")
		return
	}

	var list []history.Execution
	if action != "" {
		list, err = s.history.ListByAction(r.Context(), action, limit)
	} else {
		list, err = s.history.ListRecent(r.Context(), limit)
	}
	if err != nil {
		s.logger.Error("listing executions failed", "error", err)
		writeInternalError(w, "failed to list executions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"executions": list,
		"count":      len(list),
	})
}

func (s *Server) handleExecutionSummary(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "execution history unavailable")
		return
	}

	sum, err := s.history.Summarise(r.Context())
	if err != nil {
		s.logger.Error("summarising executions failed", "error", err)
		writeInternalError(w, "failed to summarise executions")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "execution history unavailable")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxQueryParamLen {
		writeBadRequest(w, "invalid execution ID")
		return
	}

	exec, err := s.history.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeNotFound(w, "execution not found")
			return
		}
		writeInternalError(w, "failed to get execution")
		return
	}
	writeJSON(w, http.StatusOK, exec)
}

// parseLimit parses the limit query parameter with bounds enforcement.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultExecutionLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit")
	}
	if limit > maxExecutionLimit {
		return 0, fmt.Errorf("limit exceeds maximum")
	}
	return limit, nil
}
