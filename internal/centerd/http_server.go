package centerd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoSim-25-26J-441/optimization-center/internal/center"
	"github.com/GoSim-25-26J-441/optimization-center/internal/history"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/config"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/logger"
)

type HTTPServer struct {
	router  chi.Router
	store   *SessionStore
	history *history.Store
	presets []config.Preset
}

// HTTPOption configures an HTTPServer
type HTTPOption func(*HTTPServer)

// WithHistory exposes the run archive under /v1/history
func WithHistory(h *history.Store) HTTPOption {
	return func(s *HTTPServer) { s.history = h }
}

// WithPresets exposes named parameter sets under /v1/presets
func WithPresets(presets []config.Preset) HTTPOption {
	return func(s *HTTPServer) { s.presets = presets }
}

func NewHTTPServer(store *SessionStore, opts ...HTTPOption) *HTTPServer {
	s := &HTTPServer{
		router: chi.NewRouter(),
		store:  store,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/v1/presets", s.handleListPresets)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)

			r.Get("/params", s.handleGetParams)
			r.Put("/params", s.handleUpdateParams)
			r.Post("/params:balance", s.handleBalanceParams)
			r.Post("/params/{name}/{direction}", s.handleStepParam)

			r.Post("/run", s.handleStartRun)
			r.Post("/reset", s.handleResetRun)
			r.Get("/result", s.handleGetResult)
			r.Get("/routes", s.handleGetRoutes)

			r.Get("/metrics", s.handleGetMetrics)
			r.Get("/metrics/timeseries", s.handleTimeSeries)

			r.Get("/events", s.handleEvents)
			r.Get("/frames", s.handleFrames)
		})
	})

	r.Route("/v1/history", func(r chi.Router) {
		r.Get("/", s.handleListHistory)
		r.Get("/{runID}", s.handleGetHistory)
	})

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"sessions":  s.store.Len(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *HTTPServer) handleListPresets(w http.ResponseWriter, _ *http.Request) {
	presets := s.presets
	if presets == nil {
		presets = []config.Preset{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"presets": presets})
}

// handleCreateSession handles POST /v1/sessions
func (s *HTTPServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id,omitempty"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	sess, err := s.store.Create(req.SessionID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"session": sess.Center.Snapshot(center.DefaultTopN),
	})
}

// handleListSessions handles GET /v1/sessions
func (s *HTTPServer) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.List()
	out := make([]center.Snapshot, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.Center.Snapshot(queryInt(r, "top", 0)))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"sessions": out,
		"count":    len(out),
	})
}

// handleGetSession handles GET /v1/sessions/{id}
func (s *HTTPServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"session":     sess.Center.Snapshot(queryInt(r, "top", center.DefaultTopN)),
		"completions": sess.Center.Completions(),
		"created_at":  sess.CreatedAt.Format(time.RFC3339),
		"clock":       sess.Center.Engine().GetStats(),
	})
}

// handleDeleteSession handles DELETE /v1/sessions/{id}
func (s *HTTPServer) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.store.Delete(id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (s *HTTPServer) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, err := s.store.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeServiceError(w, err)
		return nil, false
	}
	return sess, true
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// Helper functions

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}

// writeServiceError maps domain errors to HTTP status codes
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	s.writeError(w, httpStatus(err), err.Error())
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSessionIDMissing):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionExists), errors.Is(err, center.ErrRunInProgress), errors.Is(err, center.ErrNotMounted):
		return http.StatusConflict
	case errors.Is(err, center.ErrUnbalancedWeights):
		return http.StatusUnprocessableEntity
	case errors.Is(err, center.ErrNoResult):
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}
