// Package server exposes token assessment, the labeled corpus and model
// metadata over HTTP, plus a WebSocket feed of new assessments.
package server

import (
	"bufio"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/ml"
	"github.com/mollybeach/ai-rug-checker/internal/risk"
	"github.com/mollybeach/ai-rug-checker/internal/stats"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

const (
	maxBodyBytes          = 1 << 16
	defaultAnalyzeTimeout = 25 * time.Second
	feedBuffer            = 64
)

// Assessor assesses tokens on demand and streams every new assessment.
type Assessor interface {
	AnalyzeToken(ctx context.Context, token, chain string) (risk.Assessment, error)
	Subscribe(buffer int) (<-chan risk.Assessment, func())
}

// ModelInfo describes the deployed classifier.
type ModelInfo interface {
	Loaded() bool
	Metadata(ctx context.Context) (*ml.ModelMetadata, error)
}

// Records is the read side of the corpus.
type Records interface {
	Get(ctx context.Context, token string) (storage.LabeledRecord, error)
	Load(ctx context.Context) ([]storage.LabeledRecord, error)
}

// MetricsInterface is what the server records.
type MetricsInterface interface {
	HTTPRequestObserve(route string, code int, seconds float64)
	WSClientsSet(n int)
}

type Config struct {
	Port int
	// APIKey, when set, is required on every route except /health and
	// /metrics, as X-API-Key or a Bearer token.
	APIKey         string
	AnalyzeTimeout time.Duration
}

// Server is the HTTP API.
type Server struct {
	cfg            Config
	assessor       Assessor
	model          ModelInfo
	corpus         Records
	metrics        MetricsInterface
	metricsHandler http.Handler
	hub            *hub
	feed           <-chan risk.Assessment
	stopFeed       func()
	server         *http.Server
	now            func() time.Time
}

// Option configures optional collaborators.
type Option func(*Server)

func WithMetrics(m MetricsInterface) Option    { return func(s *Server) { s.metrics = m } }
func WithMetricsHandler(h http.Handler) Option { return func(s *Server) { s.metricsHandler = h } }

// New wires the routes. model may be nil when no classifier is deployed.
func New(cfg Config, assessor Assessor, model ModelInfo, corpus Records, opts ...Option) *Server {
	if cfg.AnalyzeTimeout <= 0 {
		cfg.AnalyzeTimeout = defaultAnalyzeTimeout
	}
	s := &Server{
		cfg:            cfg,
		assessor:       assessor,
		model:          model,
		corpus:         corpus,
		metricsHandler: promhttp.Handler(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = newHub(s.metrics)
	s.feed, s.stopFeed = assessor.Subscribe(feedBuffer)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.AnalyzeTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID, s.instrument)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metricsHandler).Methods(http.MethodGet)

	r.Handle("/tokens/analyze", s.authenticate(http.HandlerFunc(s.handleAnalyze))).Methods(http.MethodPost)
	r.Handle("/tokens/{address}", s.authenticate(http.HandlerFunc(s.handleToken))).Methods(http.MethodGet)
	r.Handle("/metrics/stats", s.authenticate(http.HandlerFunc(s.handleStats))).Methods(http.MethodGet)
	r.Handle("/model/info", s.authenticate(http.HandlerFunc(s.handleModelInfo))).Methods(http.MethodGet)
	r.Handle("/ws", s.authenticate(http.HandlerFunc(s.hub.serveWS))).Methods(http.MethodGet)
	return r
}

// Handler returns the routed handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start broadcasts assessments to WebSocket clients and serves HTTP until
// Shutdown. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.run(ctx, s.feed)
	log.Info().Str("addr", s.server.Addr).Bool("auth", s.cfg.APIKey != "").Msg("Starting API server")
	return s.server.ListenAndServe()
}

// Shutdown stops the assessment feed, disconnects WebSocket clients and
// drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopFeed()
	s.hub.closeAll()
	return s.server.Shutdown(ctx)
}

type analyzeRequest struct {
	TokenAddress string `json:"tokenAddress"`
	Chain        string `json:"chain"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	token := strings.TrimSpace(req.TokenAddress)
	if !gethcommon.IsHexAddress(token) {
		writeErrorMessage(w, http.StatusBadRequest, "tokenAddress must be a hex address")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.AnalyzeTimeout)
	defer cancel()

	assessment, err := s.assessor.AnalyzeToken(ctx, token, req.Chain)
	if err != nil {
		log.Error().Err(err).Str("token", token).Str("chain", req.Chain).Msg("Analysis failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !gethcommon.IsHexAddress(address) {
		writeErrorMessage(w, http.StatusBadRequest, "address must be a hex address")
		return
	}

	rec, err := s.corpus.Get(r.Context(), features.NormalizeAddress(address))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	records, err := s.corpus.Load(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load corpus for stats")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Summarize(records, s.now().UTC()))
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if s.model == nil {
		writeError(w, ml.ErrModelNotLoaded)
		return
	}
	meta, err := s.model.Metadata(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

type healthResponse struct {
	Status      string    `json:"status"`
	ModelLoaded bool      `json:"modelLoaded"`
	WSClients   int       `json:"wsClients"`
	Timestamp   time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		ModelLoaded: s.model != nil && s.model.Loaded(),
		WSClients:   s.hub.count(),
		Timestamp:   s.now().UTC(),
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	if s.cfg.APIKey == "" {
		return next
	}
	want := []byte(s.cfg.APIKey)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("X-API-Key")
		if got == "" {
			got, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		// Browsers cannot set headers on a WebSocket handshake.
		if got == "" && r.URL.Path == "/ws" {
			got = r.URL.Query().Get("apiKey")
		}
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		if s.metrics != nil {
			s.metrics.HTTPRequestObserve(route, rec.status, time.Since(start).Seconds())
		}
		log.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Str("request_id", w.Header().Get("X-Request-ID")).
			Msg("HTTP request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Hijack lets the WebSocket upgrade through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	if r.status == 0 {
		r.status = http.StatusSwitchingProtocols
	}
	return h.Hijack()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeError(w http.ResponseWriter, err error) {
	writeErrorMessage(w, statusFor(err), err.Error())
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ml.ErrModelNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
