package risk

import (
	"sort"

	"github.com/faultline-ai/faultline/internal/board"
)

// criticalPathLimit is how many top records an analysis reports.
const criticalPathLimit = 5

// Analysis is the result of a fault-tree pass over a record population.
type Analysis struct {
	TopEventProbability    float64            `json:"top_event_probability"`
	ComponentProbabilities map[string]float64 `json:"component_probabilities"`
	CriticalPaths          []board.RiskRecord `json:"critical_paths"`
}

// OrGate folds probabilities with the probability-of-union formula
// P(A or B) = P(A) + P(B) - P(A)P(B). An empty input yields 0. The fold is
// order-independent up to floating-point rounding.
func OrGate(probabilities []float64) float64 {
	acc := 0.0
	for _, p := range probabilities {
		acc = acc + p - acc*p
	}
	return acc
}

// AndGate is the product of all probabilities. An empty input yields 1.
func AndGate(probabilities []float64) float64 {
	acc := 1.0
	for _, p := range probabilities {
		acc *= p
	}
	return acc
}

// Analyze performs fault-tree aggregation over a set of risk records.
// Records are grouped by owning component; each component's failure
// probability is the OR-gate over its record probabilities, and the top
// event is the OR-gate over the component probabilities. An empty input
// yields a zero top event and no critical paths.
func Analyze(records []board.RiskRecord) Analysis {
	analysis := Analysis{ComponentProbabilities: make(map[string]float64)}
	if len(records) == 0 {
		return analysis
	}

	byComponent := make(map[string][]float64)
	for _, r := range records {
		component := r.Component
		if component == "" {
			component = "Unknown"
		}
		byComponent[component] = append(byComponent[component], r.Probability)
	}

	componentProbs := make([]float64, 0, len(byComponent))
	for component, probs := range byComponent {
		p := OrGate(probs)
		analysis.ComponentProbabilities[component] = p
		componentProbs = append(componentProbs, p)
	}
	analysis.TopEventProbability = OrGate(componentProbs)

	// Stable sort keeps insertion order for equal scores.
	critical := make([]board.RiskRecord, len(records))
	copy(critical, records)
	sort.SliceStable(critical, func(i, j int) bool {
		return critical[i].Score > critical[j].Score
	})
	if len(critical) > criticalPathLimit {
		critical = critical[:criticalPathLimit]
	}
	analysis.CriticalPaths = critical

	return analysis
}
