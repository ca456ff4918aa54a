// Package api exposes the analysis engine over HTTP. The API is a
// collaborator around the core: ingestion and scanning write through the
// board, and every query endpoint re-derives its answer from board state.
package api

import (
	"net/http"
	"time"

	"github.com/faultline-ai/faultline/internal/board"
	"github.com/faultline-ai/faultline/internal/signature"
	"go.uber.org/zap"
)

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Board   board.Board
	Matcher *signature.Matcher

	// KeyHash is the bcrypt hash of the API key. Empty means development
	// mode: any well-formed fsk_ key is accepted.
	KeyHash  string
	CacheTTL time.Duration

	Logger *zap.Logger
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Ingestion and scanning mutate board state — auth required.
	mux.HandleFunc("POST /v1/axioms", deps.authMiddleware(deps.handleIngestAxioms))
	mux.HandleFunc("POST /v1/scan", deps.authMiddleware(deps.handleScan))

	// Query surface (no auth — read-only exports)
	mux.HandleFunc("GET /v1/statistics", deps.handleStatistics)
	mux.HandleFunc("GET /v1/records", deps.handleRecords)
	mux.HandleFunc("GET /v1/patterns", deps.handlePatterns)
	mux.HandleFunc("GET /v1/report", deps.handleReport)
	mux.HandleFunc("GET /v1/analysis", deps.handleAnalysis)

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(mux, deps.Logger))
}
