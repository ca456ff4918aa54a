// Package risk converts negated axioms and signature matches into bounded
// probability/severity estimates and aggregates record populations with
// fault-tree logic.
package risk

import (
	"strings"

	"github.com/faultline-ai/faultline/internal/board"
)

// MechanismRule maps a keyword to a failure-mechanism label. Rules are
// checked in order; the first match wins.
type MechanismRule struct {
	Keyword string
	Label   string
}

// UnknownMechanism labels records whose negated statement matched no
// mechanism keyword.
const UnknownMechanism = "Unknown Mechanism"

// Config holds the immutable scoring tables for one assessor instance.
type Config struct {
	// BaseRates maps a domain to its prior failure probability. Unknown
	// domains fall back to the "default" entry.
	BaseRates map[string]float64

	// RiskKeywords adds a fixed probability boost per distinct keyword
	// found in the negated statement. Repeats of the same keyword do not
	// double-count; different keywords stack additively.
	RiskKeywords map[string]float64

	// SeverityKeywords raises severity to the maximum matching weight.
	// Severity is a max, not a sum: the single worst indicator dominates.
	SeverityKeywords map[string]float64

	// Mechanisms is the ordered classification table.
	Mechanisms []MechanismRule

	// SignificanceThreshold is the minimum probability for a record to be
	// created at all.
	SignificanceThreshold float64

	// ProbabilityCap clamps the boosted probability.
	ProbabilityCap float64

	// BaseSeverity is the severity floor before keyword weighting.
	BaseSeverity float64
}

// DefaultConfig returns the built-in scoring tables.
func DefaultConfig() Config {
	return Config{
		BaseRates: map[string]float64{
			"memory":      0.15,
			"concurrency": 0.20,
			"security":    0.10,
			"build":       0.05,
			"runtime":     0.12,
			"network":     0.08,
			"storage":     0.05,
			"default":     0.10,
		},
		RiskKeywords: map[string]float64{
			"crash":      0.3,
			"fail":       0.2,
			"corrupt":    0.25,
			"leak":       0.2,
			"race":       0.25,
			"vulnerable": 0.3,
			"deadlock":   0.35,
			"overflow":   0.3,
			"undefined":  0.2,
		},
		SeverityKeywords: map[string]float64{
			"data loss":   1.0,
			"crash":       0.9,
			"security":    0.95,
			"corrupt":     0.85,
			"deadlock":    0.8,
			"memory":      0.7,
			"performance": 0.5,
		},
		Mechanisms: []MechanismRule{
			{"race", "Race Condition"},
			{"leak", "Resource Leak"},
			{"crash", "Runtime Exception"},
			{"corrupt", "Data Corruption"},
			{"deadlock", "Deadlock"},
			{"overflow", "Buffer Overflow"},
			{"timeout", "Timeout"},
			{"inconsistent", "State Inconsistency"},
		},
		SignificanceThreshold: 0.1,
		ProbabilityCap:        0.95,
		BaseSeverity:          0.5,
	}
}

// Assessor scores negated axioms. All tables are fixed at construction.
type Assessor struct {
	cfg Config
}

// NewAssessor creates an assessor using the given configuration.
func NewAssessor(cfg Config) *Assessor {
	return &Assessor{cfg: cfg}
}

// Threshold returns the minimum significant probability.
func (a *Assessor) Threshold() float64 {
	return a.cfg.SignificanceThreshold
}

// Assess computes the failure probability and severity for a negated
// axiom. Both returned values are in [0,1].
func (a *Assessor) Assess(ax board.Axiom) (probability, severity float64) {
	negated := strings.ToLower(ax.NegatedStatement)

	prior, ok := a.cfg.BaseRates[ax.Domain]
	if !ok {
		prior = a.cfg.BaseRates["default"]
	}

	boost := 0.0
	for kw, b := range a.cfg.RiskKeywords {
		if strings.Contains(negated, kw) {
			boost += b
		}
	}
	probability = prior + boost
	if probability > a.cfg.ProbabilityCap {
		probability = a.cfg.ProbabilityCap
	}

	severity = a.cfg.BaseSeverity
	for kw, w := range a.cfg.SeverityKeywords {
		if strings.Contains(negated, kw) && w > severity {
			severity = w
		}
	}

	return probability, severity
}

// Mechanism classifies the failure mechanism of a negated statement using
// the ordered keyword table. Ties resolve by table order, not best match.
func (a *Assessor) Mechanism(negated string) string {
	folded := strings.ToLower(negated)
	for _, m := range a.cfg.Mechanisms {
		if strings.Contains(folded, m.Keyword) {
			return m.Label
		}
	}
	return UnknownMechanism
}

// Describe generates the human-readable failure description for an axiom.
func Describe(ax board.Axiom) string {
	component := ax.Component
	if component == "" {
		component = "System"
	}
	return component + " failure when: " + ax.NegatedStatement
}

// categoryThreshold pairs a score floor with its risk level, checked in
// descending order.
type categoryThreshold struct {
	floor float64
	level board.RiskLevel
}

var categoryThresholds = []categoryThreshold{
	{0.8, board.RiskCritical},
	{0.6, board.RiskHigh},
	{0.4, board.RiskMedium},
	{0.2, board.RiskLow},
}

// Categorize bins a risk score into a level. Total on [0,1]: scores below
// every threshold are LOW.
func Categorize(score float64) board.RiskLevel {
	for _, t := range categoryThresholds {
		if score >= t.floor {
			return t.level
		}
	}
	return board.RiskLow
}
