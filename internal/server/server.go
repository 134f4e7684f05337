// Package server is the HTTP boundary: request decoding, error-kind to
// status-code mapping, and response marshaling. No domain logic lives here.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/devblac/tx-sentinel/internal/analyzer"
	"github.com/devblac/tx-sentinel/internal/chain"
	"github.com/devblac/tx-sentinel/internal/health"
	"github.com/devblac/tx-sentinel/internal/metrics"
	"github.com/devblac/tx-sentinel/internal/pipeline"
)

// Server exposes the analysis pipeline over HTTP.
type Server struct {
	pipeline *pipeline.Pipeline
	checker  health.Checker
	timeout  time.Duration
	log      *slog.Logger
}

// New builds the HTTP surface around a pipeline.
func New(p *pipeline.Pipeline, checker health.Checker, timeout time.Duration, log *slog.Logger) *Server {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{pipeline: p, checker: checker, timeout: timeout, log: log}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /healthz", health.Handler(s.checker))
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

// Serve starts the HTTP server on addr.
func Serve(addr string, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 3 * time.Second,
	}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

type analyzeRequest struct {
	Network string `json:"network"`
	TxHash  string `json:"tx_hash"`
}

type analyzeResponse struct {
	TxHash                     string   `json:"tx_hash"`
	Network                    string   `json:"network"`
	TxType                     string   `json:"tx_type"`
	Protocol                   string   `json:"protocol,omitempty"`
	RiskScore                  float64  `json:"risk_score"`
	RiskReasons                []string `json:"risk_reasons"`
	NaturalLanguageExplanation string   `json:"natural_language_explanation"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Network == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "network is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res, err := s.pipeline.Run(ctx, req.Network, req.TxHash)
	if err != nil {
		code, msg := mapError(err)
		if code >= http.StatusInternalServerError {
			s.log.Error("analyze request failed", "network", req.Network, "tx", req.TxHash, "error", err)
		}
		writeJSON(w, code, errorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		TxHash:                     res.TxHash,
		Network:                    res.Network,
		TxType:                     res.TxType,
		Protocol:                   res.Protocol,
		RiskScore:                  res.RiskScore,
		RiskReasons:                res.RiskReasons,
		NaturalLanguageExplanation: res.Explanation,
	})
}

// mapError translates the closed error set into HTTP outcomes. Messages name
// the failing stage so callers can tell fetch faults from analysis faults.
func mapError(err error) (int, string) {
	var unsupported *chain.UnsupportedNetworkError
	if errors.As(err, &unsupported) {
		return http.StatusBadRequest, "fetch failed: " + unsupported.Error()
	}
	if errors.Is(err, chain.ErrEmptyTxHash) {
		return http.StatusBadRequest, "fetch failed: " + chain.ErrEmptyTxHash.Error()
	}
	var source *chain.DataSourceError
	if errors.As(err, &source) {
		return http.StatusBadGateway, "fetch failed: " + source.Error()
	}
	var analysis *analyzer.AnalysisError
	if errors.As(err, &analysis) {
		return http.StatusInternalServerError, "analysis failed: " + analysis.Error()
	}
	return http.StatusInternalServerError, "analysis failed: " + err.Error()
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
