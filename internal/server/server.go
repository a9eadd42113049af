package server

import (
	"bufio"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"FXSentinel/internal/collector"
	"FXSentinel/internal/metrics"
	"FXSentinel/internal/model"
	"FXSentinel/internal/recorder"
	"FXSentinel/internal/strategy"
)

//go:embed static
var staticFiles embed.FS

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	shutdownTimeout     = 10 * time.Second
)

// Analyzer is the read side the API serves from.
type Analyzer interface {
	Analyze(ctx context.Context) (*model.Analysis, error)
	History(ctx context.Context) (*model.HistoricalData, error)
}

// Server is the HTTP presentation layer.
type Server struct {
	Analyzer Analyzer
	Recorder recorder.Recorder
	Hub      *Hub
	Metrics  *metrics.Metrics

	mux    *http.ServeMux
	logger zerolog.Logger
}

// New wires all routes. rec, hub and m may be nil.
func New(an Analyzer, rec recorder.Recorder, hub *Hub, m *metrics.Metrics, logger zerolog.Logger) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	s := &Server{
		Analyzer: an,
		Recorder: rec,
		Hub:      hub,
		Metrics:  m,
		mux:      http.NewServeMux(),
		logger:   logger.With().Str("component", "server").Logger(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("/api/analysis", http.HandlerFunc(s.handleAnalysis))
	s.handle("/api/historical-data", http.HandlerFunc(s.handleHistoricalData))
	s.handle("/api/signals/history", http.HandlerFunc(s.handleSignalHistory))
	s.handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	}))
	s.handle("/metrics", s.Metrics.Handler())
	if s.Hub != nil {
		s.handle("/ws", http.HandlerFunc(s.Hub.HandleWS))
	}
	s.handle("/", s.dashboard())
}

// handle registers h behind CORS, method filtering, logging and metrics.
// The metrics path label is the route pattern.
func (s *Server) handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, s.instrument(pattern, cors(h)))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if s.Hub != nil {
		s.Hub.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info().Msg("http server stopped")
	return nil
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.Analyzer.Analyze(r.Context())
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Recommendation)
}

func (s *Server) handleHistoricalData(w http.ResponseWriter, r *http.Request) {
	data, err := s.Analyzer.History(r.Context())
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleSignalHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := s.Recorder.RecentAnalyses(limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("load signal history")
		writeError(w, http.StatusInternalServerError, "Failed to load signal history")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// writeAnalysisError maps analysis failures to status codes.
func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, collector.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "Failed to fetch market data")
	case errors.Is(err, strategy.ErrInsufficientData), errors.Is(err, strategy.ErrIndicatorUnavailable):
		writeError(w, http.StatusUnprocessableEntity, "Failed to analyze market data")
	default:
		s.logger.Error().Err(err).Msg("unexpected analysis error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) dashboard() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	files := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/index.html" {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		files.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
			return
		case http.MethodGet, http.MethodHead:
		default:
			h.Set("Allow", "GET, OPTIONS")
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		next.ServeHTTP(w, r)
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

// Hijack lets websocket upgrades pass through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	if r.status == 0 {
		r.status = http.StatusSwitchingProtocols
	}
	return hj.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) instrument(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		d := time.Since(start)
		s.Metrics.ObserveHTTP(path, rec.status, d)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", d).
			Msg("request")
	})
}
