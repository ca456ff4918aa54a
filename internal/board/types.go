package board

import "time"

// AxiomStatus tracks where an axiom is in its lifecycle.
type AxiomStatus string

const (
	AxiomPending AxiomStatus = "PENDING"
	AxiomNegated AxiomStatus = "NEGATED"
)

// Axiom is a stated architectural assumption registered for analysis.
type Axiom struct {
	ID               string      `json:"id"`
	Component        string      `json:"component"`
	Domain           string      `json:"domain"`
	Statement        string      `json:"statement"`
	NegatedStatement string      `json:"negated_statement,omitempty"`
	Status           AxiomStatus `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// RiskLevel classifies the weight of a pattern rule or a scored record.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"

	// RiskBenign marks a rule that indicates a healthy construct.
	// Benign matches are counted but never raise risk.
	RiskBenign RiskLevel = "GOOD"
)

// PatternRule is a named, weighted text-matching rule used to detect
// failure signatures. The Expression field is an uncompiled regular
// expression; compilation happens in the signature matcher.
type PatternRule struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Expression  string    `json:"expression"`
	Level       RiskLevel `json:"risk_level"`
	Description string    `json:"description"`
	Occurrences int       `json:"occurrences"`
}

// RiskRecord is a quantified, axiom-linked failure estimate. Score is
// always Probability * Severity — it is computed at insertion time and
// never stored independently of its inputs.
type RiskRecord struct {
	ID          string    `json:"id"`
	AxiomID     string    `json:"axiom_id"`
	Component   string    `json:"component"`
	Description string    `json:"description"`
	Mechanism   string    `json:"mechanism"`
	Probability float64   `json:"probability"`
	Severity    float64   `json:"severity"`
	Score       float64   `json:"risk_score"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecordIdentified is the only record status a run produces; records are
// immutable once inserted.
const RecordIdentified = "IDENTIFIED"

// EventType tags a change event with the kind of transition it reports.
type EventType string

const (
	EventAxiomAdded   EventType = "AXIOM_ADDED"
	EventAxiomNegated EventType = "AXIOM_NEGATED"
	EventRiskRecorded EventType = "RISK_RECORDED"
	EventPatternHit   EventType = "PATTERN_HIT"
)

// ChangeEvent is an ephemeral notification of a board state transition.
// Delivery is at-most-once: events are broadcast to live subscribers only
// and dropped for subscribers that cannot keep up.
type ChangeEvent struct {
	Type     EventType `json:"type"`
	EntityID string    `json:"entity_id"`
	At       time.Time `json:"at"`
}

// Statistics summarizes the board's current contents. Mean and max score
// are 0 when no records exist.
type Statistics struct {
	TotalAxioms   int     `json:"total_axioms"`
	NegatedAxioms int     `json:"negated_axioms"`
	RiskRecords   int     `json:"risk_records"`
	MeanScore     float64 `json:"mean_score"`
	MaxScore      float64 `json:"max_score"`
}

// Report is the composed export surface consumed by downstream tooling.
// Field names are part of the serialization contract.
type Report struct {
	Statistics    Statistics    `json:"statistics"`
	NegatedAxioms []Axiom       `json:"negated_axioms"`
	RiskRecords   []RiskRecord  `json:"risk_records"`
	Patterns      []PatternRule `json:"patterns"`
	GeneratedAt   time.Time     `json:"generated_at"`
}
