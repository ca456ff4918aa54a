package api

import (
	"github.com/faultline-ai/faultline/internal/signature"
)

// ErrorResp is the uniform error body.
type ErrorResp struct {
	Detail string `json:"detail"`
}

// AxiomInput is one assumption submitted for analysis.
type AxiomInput struct {
	Component string `json:"component"`
	Statement string `json:"statement"`
	Domain    string `json:"domain"`
}

// IngestRequest is the body of POST /v1/axioms.
type IngestRequest struct {
	Axioms []AxiomInput `json:"axioms"`
}

// IngestResponse returns the ids assigned to accepted axioms.
type IngestResponse struct {
	IDs []string `json:"ids"`
}

// ScanRequest is the body of POST /v1/scan.
type ScanRequest struct {
	Artifact string `json:"artifact"`
}

// ScanResponse carries the findings for one artifact scan.
type ScanResponse struct {
	Findings []signature.Finding `json:"findings"`
}
