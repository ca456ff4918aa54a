package board

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBoard is the map-backed Board implementation. A single mutex covers
// every operation end to end, so each call is a linearized read-modify-write
// with respect to all others.
type MemoryBoard struct {
	mu       sync.Mutex
	axioms   map[string]*Axiom
	axiomIDs []string // insertion order
	records  []RiskRecord
	patterns map[string]*PatternRule
	ruleIDs  []string // registration order

	notifier notifier
}

// NewMemoryBoard creates an empty in-memory board.
func NewMemoryBoard() *MemoryBoard {
	return &MemoryBoard{
		axioms:   make(map[string]*Axiom),
		patterns: make(map[string]*PatternRule),
	}
}

func (b *MemoryBoard) AddAxiom(_ context.Context, component, statement, domain string) (string, error) {
	if domain == "" {
		domain = "default"
	}
	id := uuid.New().String()
	now := time.Now().UTC()

	b.mu.Lock()
	b.axioms[id] = &Axiom{
		ID:        id,
		Component: component,
		Domain:    domain,
		Statement: statement,
		Status:    AxiomPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.axiomIDs = append(b.axiomIDs, id)
	b.mu.Unlock()

	b.notifier.broadcast(EventAxiomAdded, id)
	return id, nil
}

func (b *MemoryBoard) NegateAxiom(_ context.Context, id, negated string) error {
	b.mu.Lock()
	ax, ok := b.axioms[id]
	ok = ok && ax.Status == AxiomPending
	if ok {
		ax.NegatedStatement = negated
		ax.Status = AxiomNegated
		ax.UpdatedAt = time.Now().UTC()
	}
	b.mu.Unlock()

	if ok {
		b.notifier.broadcast(EventAxiomNegated, id)
	}
	return nil
}

func (b *MemoryBoard) RecordRisk(_ context.Context, axiomID, description string, probability, severity float64, mechanism string) (string, error) {
	id := uuid.New().String()

	b.mu.Lock()
	component := ""
	if ax, ok := b.axioms[axiomID]; ok {
		component = ax.Component
	}
	b.records = append(b.records, RiskRecord{
		ID:          id,
		AxiomID:     axiomID,
		Component:   component,
		Description: description,
		Mechanism:   mechanism,
		Probability: probability,
		Severity:    severity,
		Score:       probability * severity,
		Status:      RecordIdentified,
		CreatedAt:   time.Now().UTC(),
	})
	b.mu.Unlock()

	b.notifier.broadcast(EventRiskRecorded, id)
	return id, nil
}

func (b *MemoryBoard) RegisterPattern(_ context.Context, rule PatternRule) (string, error) {
	id := rule.ID
	if id == "" {
		id = uuid.New().String()
	}
	rule.ID = id

	b.mu.Lock()
	b.patterns[id] = &rule
	b.ruleIDs = append(b.ruleIDs, id)
	b.mu.Unlock()
	return id, nil
}

func (b *MemoryBoard) IncrementPatternOccurrence(_ context.Context, id string) error {
	b.mu.Lock()
	p, ok := b.patterns[id]
	if ok {
		p.Occurrences++
	}
	b.mu.Unlock()

	if ok {
		b.notifier.broadcast(EventPatternHit, id)
	}
	return nil
}

func (b *MemoryBoard) PendingAxioms(_ context.Context) ([]Axiom, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.axiomsByStatus(AxiomPending), nil
}

func (b *MemoryBoard) NegatedAxioms(_ context.Context) ([]Axiom, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.axiomsByStatus(AxiomNegated), nil
}

// axiomsByStatus must be called with the mutex held.
func (b *MemoryBoard) axiomsByStatus(status AxiomStatus) []Axiom {
	var out []Axiom
	for _, id := range b.axiomIDs {
		if ax := b.axioms[id]; ax.Status == status {
			out = append(out, *ax)
		}
	}
	return out
}

func (b *MemoryBoard) RiskRecords(_ context.Context) ([]RiskRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sortedRecords(), nil
}

// sortedRecords must be called with the mutex held. The stable sort keeps
// insertion order for equal scores.
func (b *MemoryBoard) sortedRecords() []RiskRecord {
	out := make([]RiskRecord, len(b.records))
	copy(out, b.records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func (b *MemoryBoard) Patterns(_ context.Context) ([]PatternRule, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.allPatterns(), nil
}

// allPatterns must be called with the mutex held.
func (b *MemoryBoard) allPatterns() []PatternRule {
	out := make([]PatternRule, 0, len(b.ruleIDs))
	for _, id := range b.ruleIDs {
		out = append(out, *b.patterns[id])
	}
	return out
}

func (b *MemoryBoard) Statistics(_ context.Context) (Statistics, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statistics(), nil
}

// statistics must be called with the mutex held.
func (b *MemoryBoard) statistics() Statistics {
	stats := Statistics{TotalAxioms: len(b.axiomIDs), RiskRecords: len(b.records)}
	for _, id := range b.axiomIDs {
		if b.axioms[id].Status == AxiomNegated {
			stats.NegatedAxioms++
		}
	}
	var sum float64
	for _, r := range b.records {
		sum += r.Score
		if r.Score > stats.MaxScore {
			stats.MaxScore = r.Score
		}
	}
	if len(b.records) > 0 {
		stats.MeanScore = sum / float64(len(b.records))
	}
	return stats
}

// Report snapshots the entire board under one lock acquisition so the
// statistics always agree with the listed records.
func (b *MemoryBoard) Report(_ context.Context) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Report{
		Statistics:    b.statistics(),
		NegatedAxioms: b.axiomsByStatus(AxiomNegated),
		RiskRecords:   b.sortedRecords(),
		Patterns:      b.allPatterns(),
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

func (b *MemoryBoard) Subscribe() <-chan ChangeEvent {
	return b.notifier.subscribe()
}
