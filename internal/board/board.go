// Package board implements the shared knowledge repository at the center of
// the analysis pipeline. Workers never call each other; every piece of state
// they exchange — axioms, pattern occurrences, risk records — moves through
// a Board.
package board

import "context"

// Board is the repository contract shared by all workers.
//
// Implementations must execute every mutating and every multi-step reading
// operation atomically: no operation may interleave with another mutation.
// Probability and severity passed to RecordRisk must already be clamped to
// [0,1] by the caller; the board computes score = probability * severity but
// does not re-validate the range.
type Board interface {
	// AddAxiom inserts a PENDING axiom and returns its id.
	AddAxiom(ctx context.Context, component, statement, domain string) (string, error)

	// NegateAxiom transitions an axiom PENDING → NEGATED and sets the
	// negated text. Unknown ids are a silent no-op: concurrent workers may
	// legitimately act on stale snapshots.
	NegateAxiom(ctx context.Context, id, negated string) error

	// RecordRisk inserts an immutable risk record linked to an axiom.
	RecordRisk(ctx context.Context, axiomID, description string, probability, severity float64, mechanism string) (string, error)

	// RegisterPattern stores a pattern rule and returns its id.
	RegisterPattern(ctx context.Context, rule PatternRule) (string, error)

	// IncrementPatternOccurrence bumps a rule's occurrence counter.
	// Unknown ids are a silent no-op.
	IncrementPatternOccurrence(ctx context.Context, id string) error

	// PendingAxioms returns axioms awaiting negation, oldest first.
	PendingAxioms(ctx context.Context) ([]Axiom, error)

	// NegatedAxioms returns axioms that have been negated, oldest first.
	NegatedAxioms(ctx context.Context) ([]Axiom, error)

	// RiskRecords returns all records sorted by score descending, ties
	// broken by insertion order.
	RiskRecords(ctx context.Context) ([]RiskRecord, error)

	// Patterns returns all registered rules in registration order.
	Patterns(ctx context.Context) ([]PatternRule, error)

	// Statistics summarizes the board's contents.
	Statistics(ctx context.Context) (Statistics, error)

	// Report composes the full export structure.
	Report(ctx context.Context) (*Report, error)

	// Subscribe returns a private channel receiving all future change
	// events. Delivery is best-effort: a full subscriber channel drops
	// events rather than blocking producers.
	Subscribe() <-chan ChangeEvent
}
