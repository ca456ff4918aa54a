package api

import (
	"net/http"

	"github.com/faultline-ai/faultline/internal/risk"
	"github.com/faultline-ai/faultline/internal/signature"
	"go.uber.org/zap"
)

// handleIngestAxioms accepts a batch of assumptions. Each becomes a
// PENDING axiom; the running workers pick them up on their next poll.
func (d *Dependencies) handleIngestAxioms(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if len(req.Axioms) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "No axioms provided"})
		return
	}

	ids := make([]string, 0, len(req.Axioms))
	for _, ax := range req.Axioms {
		if ax.Statement == "" {
			writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Axiom statement must not be empty"})
			return
		}
		id, err := d.Board.AddAxiom(r.Context(), ax.Component, ax.Statement, ax.Domain)
		if err != nil {
			d.Logger.Error("add axiom failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to store axiom"})
			return
		}
		ids = append(ids, id)
	}

	writeJSON(w, http.StatusAccepted, IngestResponse{IDs: ids})
}

// handleScan runs the compiled rule catalog against an artifact and bumps
// occurrence counters for every matched rule, benign ones included.
func (d *Dependencies) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.Artifact == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Artifact must not be empty"})
		return
	}

	res := d.Matcher.Scan(req.Artifact)
	for _, id := range res.HitRuleIDs {
		if err := d.Board.IncrementPatternOccurrence(r.Context(), id); err != nil {
			d.Logger.Warn("pattern increment failed", zap.String("rule_id", id), zap.Error(err))
		}
	}

	findings := res.Findings
	if findings == nil {
		findings = []signature.Finding{}
	}
	writeJSON(w, http.StatusOK, ScanResponse{Findings: findings})
}

func (d *Dependencies) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := d.Board.Statistics(r.Context())
	if err != nil {
		d.Logger.Error("statistics failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to read statistics"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (d *Dependencies) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := d.Board.RiskRecords(r.Context())
	if err != nil {
		d.Logger.Error("records query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to read risk records"})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (d *Dependencies) handlePatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := d.Board.Patterns(r.Context())
	if err != nil {
		d.Logger.Error("patterns query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to read patterns"})
		return
	}
	writeJSON(w, http.StatusOK, patterns)
}

func (d *Dependencies) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := d.Board.Report(r.Context())
	if err != nil {
		d.Logger.Error("report failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to compose report"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleAnalysis runs fault-tree aggregation over the current records.
func (d *Dependencies) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	records, err := d.Board.RiskRecords(r.Context())
	if err != nil {
		d.Logger.Error("records query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to read risk records"})
		return
	}
	writeJSON(w, http.StatusOK, risk.Analyze(records))
}
