package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/proctor/internal/app"
	"github.com/raysh454/proctor/internal/logging"
	"github.com/raysh454/proctor/internal/metrics"
	"github.com/raysh454/proctor/internal/report"
	"github.com/raysh454/proctor/internal/session"
)

// Server is the HTTP + WebSocket API surface for proctor.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	metrics      *metrics.Metrics
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
}

// NewServer wires the routes around orch.
func NewServer(cfg Config, orch *app.Orchestrator, m *metrics.Metrics, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}
	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		metrics:      m,
		router:       chi.NewRouter(),
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return cfg.AllowedOrigin == "" || r.Header.Get("Origin") == cfg.AllowedOrigin
			},
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/session/start", s.optionsHandler("POST"))
	r.Options("/session/stop", s.optionsHandler("POST"))
	r.Options("/session", s.optionsHandler("GET"))
	r.Options("/reports", s.optionsHandler("GET, POST"))
	r.Options("/reports/{id}", s.optionsHandler("GET, DELETE"))
	r.Options("/reports/{id}/text", s.optionsHandler("GET"))

	// Session
	r.Post("/session/start", s.handleStartSession)
	r.Post("/session/stop", s.handleStopSession)
	r.Get("/session", s.handleGetSession)
	r.Get("/ws/session", s.handleSessionWS)

	// Reports
	r.Get("/reports", s.handleListReports)
	r.Post("/reports", s.handleSaveReport)
	r.Get("/reports/{id}", s.handleGetReport)
	r.Get("/reports/{id}/text", s.handleGetReportText)
	r.Delete("/reports/{id}", s.handleDeleteReport)

	// Ops
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	origin := s.cfg.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}
	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:        s.cfg.ListenAddr,
		Handler:     s,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: websocket streams stay open
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionRunning),
		errors.Is(err, session.ErrSessionNotRunning),
		errors.Is(err, session.ErrSessionFinished):
		return http.StatusConflict
	case errors.Is(err, session.ErrCapabilityUnavailable), errors.Is(err, app.ErrNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, app.ErrNoSession), errors.Is(err, report.ErrReportNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// --- Session handlers ---

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var body StartSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.logger.Warn("decoding start session body", logging.Field{Key: "error", Value: err.Error()})
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	info, err := s.orchestrator.StartSession(r.Context(), body.CandidateName)
	if err != nil {
		s.logger.Warn("starting session", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.logger.Info("started session", logging.Field{Key: "session_id", Value: info.ID})
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	res, err := s.orchestrator.StopSession(r.Context())
	if err != nil {
		s.logger.Warn("stopping session", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.logger.Info("stopped session", logging.Field{Key: "report_id", Value: res.Report.ID}, logging.Field{Key: "stored", Value: res.Stored})
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.orchestrator.Current()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// --- Report handlers ---

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}
	reports, err := s.orchestrator.ListReports(r.Context(), limit)
	if err != nil {
		s.logger.Warn("listing reports", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.logger.Info("listed reports", logging.Field{Key: "count", Value: len(reports)})
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleSaveReport(w http.ResponseWriter, r *http.Request) {
	var rec report.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		s.logger.Warn("decoding report body", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	saved, err := s.orchestrator.SaveReport(r.Context(), rec)
	if err != nil {
		s.logger.Warn("saving report", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.orchestrator.GetReport(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetReportText(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.orchestrator.GetReport(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report.RenderText(rec)))
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.orchestrator.DeleteReport(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.logger.Info("deleted report", logging.Field{Key: "id", Value: id})
	w.WriteHeader(http.StatusNoContent)
}

// --- WebSockets ---

func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	subID, updates := s.orchestrator.Subscribe()
	defer s.orchestrator.Unsubscribe(subID)

	if info, err := s.orchestrator.Current(); err == nil {
		snap := info.Snapshot
		if err := conn.WriteJSON(WSMessage{Type: "snapshot", Snapshot: &snap}); err != nil {
			return
		}
	}

	// Reads only to notice the client going away.
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
		case u, ok := <-updates:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(WSMessage{Type: "update", Update: &u}); err != nil {
				return
			}
		}
	}
}
