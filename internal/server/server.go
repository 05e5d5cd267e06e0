package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/netshield/internal/app"
	"github.com/raysh454/netshield/internal/assessor"
	"github.com/raysh454/netshield/internal/history"
	"github.com/raysh454/netshield/internal/logging"
)

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 1 << 20

// Server is the HTTP + WebSocket API surface for NetShield.
type Server struct {
	cfg         Config
	service     *app.Service
	ownsService bool
	router      chi.Router
	upgrader    websocket.Upgrader
	metrics     *metrics
	logger      logging.Logger
}

// NewServer creates a new Server. When cfg.Service is nil a Service is built
// from cfg.AppConfig.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = cfg.AppConfig.ListenAddr
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	svc := cfg.Service
	owns := false
	if svc == nil {
		var err error
		svc, err = app.NewService(cfg.AppConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("creating service: %w", err)
		}
		owns = true
	}

	s := &Server{
		cfg:         cfg,
		service:     svc,
		ownsService: owns,
		router:      chi.NewRouter(),
		metrics:     newMetrics(),
		logger:      logger,
		upgrader: websocket.Upgrader{
			// extension pages connect from chrome-extension:// origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.routes()
	return s, nil
}

// Service returns the underlying service for advanced use (tests, etc.).
func (s *Server) Service() *app.Service {
	return s.service
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/check", s.optionsHandler("POST"))
	r.Options("/check/page", s.optionsHandler("POST"))
	r.Options("/check/batch", s.optionsHandler("POST"))
	r.Options("/network", s.optionsHandler("GET"))
	r.Options("/report", s.optionsHandler("GET"))
	r.Options("/checks", s.optionsHandler("GET"))
	r.Options("/checks/{id}", s.optionsHandler("GET"))

	// Scoring
	r.Post("/check", s.handleCheck)
	r.Post("/check/page", s.handleCheckPage)
	r.Post("/check/batch", s.handleCheckBatch)
	r.Get("/report", s.handleReport)

	// Network identity
	r.Get("/network", s.handleNetwork)

	// History
	r.Get("/checks", s.handleListChecks)
	r.Get("/checks/{id}", s.handleGetCheck)

	// Extension message channel
	r.Get("/ws", s.handleWS)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
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

	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1)); err == nil {
			fields = append(fields, logging.Field{Key: "body_bytes", Value: len(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Debug("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close releases the service when the server built it.
func (s *Server) Close() {
	if s.ownsService && s.service != nil {
		if err := s.service.Close(); err != nil {
			s.logger.Warn("closing service", logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // page checks and websockets can run long
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

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	return dec.Decode(v)
}

// --- HTTP handlers ---

// handleCheck scores a URL.
//
// @Summary Score a URL
// @Accept json
// @Produce json
// @Param request body CheckRequest true "URL and optional page signals"
// @Success 200 {object} assessor.RiskResult
// @Failure 400 {object} ErrorResponse
// @Router /check [post]
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var body CheckRequest
	if err := decodeBody(r, &body); err != nil {
		s.logger.Warn("decoding check body", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.PageSignals != nil && body.PageSignals.HiddenIframeCount < 0 {
		writeError(w, http.StatusBadRequest, "hiddenIframeCount must not be negative")
		return
	}

	result := s.service.CheckURL(r.Context(), assessor.RiskInput{URL: body.URL, PageSignals: body.PageSignals})
	s.metrics.observeCheck(result)
	s.logger.Info("checked url",
		logging.Field{Key: "url", Value: body.URL},
		logging.Field{Key: "score", Value: result.RiskScore},
		logging.Field{Key: "level", Value: string(result.Level)})
	writeJSON(w, http.StatusOK, result)
}

// handleCheckPage fetches a page and scores it with its signals.
//
// @Summary Fetch, analyse and score a page
// @Accept json
// @Produce json
// @Param request body PageCheckRequest true "page URL"
// @Success 200 {object} app.PageCheck
// @Failure 400 {object} ErrorResponse
// @Router /check/page [post]
func (s *Server) handleCheckPage(w http.ResponseWriter, r *http.Request) {
	var body PageCheckRequest
	if err := decodeBody(r, &body); err != nil {
		s.logger.Warn("decoding page check body", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(body.URL) == "" {
		writeError(w, http.StatusBadRequest, "missing url")
		return
	}

	pc, err := s.service.CheckPage(r.Context(), body.URL)
	if err != nil {
		s.logger.Warn("checking page", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.observeCheck(pc.Result)
	s.logger.Info("checked page",
		logging.Field{Key: "url", Value: body.URL},
		logging.Field{Key: "score", Value: pc.Result.RiskScore},
		logging.Field{Key: "page_error", Value: pc.PageError})
	writeJSON(w, http.StatusOK, pc)
}

// @Summary Fetch, analyse and score several pages
// @Accept json
// @Produce json
// @Param request body BatchCheckRequest true "page URLs"
// @Success 200 {array} app.PageCheck
// @Failure 400 {object} ErrorResponse
// @Router /check/batch [post]
func (s *Server) handleCheckBatch(w http.ResponseWriter, r *http.Request) {
	var body BatchCheckRequest
	if err := decodeBody(r, &body); err != nil {
		s.logger.Warn("decoding batch check body", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	checks, err := s.service.CheckPages(r.Context(), body.URLs, body.Concurrency)
	switch {
	case errors.Is(err, app.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Warn("batch check", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, pc := range checks {
		s.metrics.observeCheck(pc.Result)
	}
	s.logger.Info("checked batch",
		logging.Field{Key: "count", Value: len(checks)},
		logging.Field{Key: "worst_level", Value: string(app.WorstLevel(checks))})
	writeJSON(w, http.StatusOK, checks)
}

// @Summary Page check plus network identity
// @Produce json
// @Param url query string true "page URL"
// @Success 200 {object} app.Report
// @Failure 400 {object} ErrorResponse
// @Router /report [get]
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		s.logger.Warn("report: missing url query parameter")
		writeError(w, http.StatusBadRequest, "missing url query parameter")
		return
	}

	rep, err := s.service.Report(r.Context(), url)
	if err != nil {
		s.logger.Warn("building report", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.observeCheck(rep.Check.Result)
	var netErr error
	if rep.NetworkError != "" {
		netErr = errors.New(rep.NetworkError)
	}
	s.metrics.observeNetInfo(netErr)
	writeJSON(w, http.StatusOK, rep)
}

// @Summary Public network identity of the host running NetShield
// @Produce json
// @Success 200 {object} netinfo.Info
// @Failure 502 {object} ErrorResponse
// @Router /network [get]
func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.NetworkInfo(r.Context())
	if errors.Is(err, app.ErrNetInfoDisabled) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.metrics.observeNetInfo(err)
	if err != nil {
		s.logger.Warn("network info lookup", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// @Summary Recorded checks, newest first
// @Produce json
// @Param limit query int false "maximum entries"
// @Success 200 {array} history.Record
// @Router /checks [get]
func (s *Server) handleListChecks(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		v, err := strconv.Atoi(ls)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = v
	}

	recs, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.writeHistoryError(w, err)
		return
	}
	s.logger.Debug("listed checks", logging.Field{Key: "count", Value: len(recs)})
	writeJSON(w, http.StatusOK, recs)
}

// @Summary One recorded check
// @Produce json
// @Param id path string true "check id"
// @Success 200 {object} history.Record
// @Failure 404 {object} ErrorResponse
// @Router /checks/{id} [get]
func (s *Server) handleGetCheck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.service.GetCheck(r.Context(), id)
	if err != nil {
		s.writeHistoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) writeHistoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, history.ErrNotFound):
		writeError(w, http.StatusNotFound, "check not found")
	case errors.Is(err, app.ErrHistoryDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Warn("reading history", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
