package board

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresBoard is the durable Board implementation. Each operation is a
// single SQL statement (or one transaction for composed reads), so the
// database serializes mutations the same way the memory board's mutex does.
// Change events are still broadcast in-process: the event stream is
// ephemeral by design and is never reconstructed from storage.
type PostgresBoard struct {
	db       *sql.DB
	notifier notifier
}

// NewPostgresBoard creates a board backed by the given connection pool.
func NewPostgresBoard(db *sql.DB) *PostgresBoard {
	return &PostgresBoard{db: db}
}

// EnsureSchema creates the board tables if they do not exist. The seq
// columns give records a stable insertion order for score tie-breaks.
func (b *PostgresBoard) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS axioms (
			id                TEXT PRIMARY KEY,
			seq               BIGSERIAL,
			component         TEXT NOT NULL,
			domain            TEXT NOT NULL DEFAULT 'default',
			statement         TEXT NOT NULL,
			negated_statement TEXT,
			status            TEXT NOT NULL DEFAULT 'PENDING',
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS risk_records (
			id          TEXT PRIMARY KEY,
			seq         BIGSERIAL,
			axiom_id    TEXT NOT NULL,
			component   TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL,
			mechanism   TEXT NOT NULL DEFAULT '',
			probability DOUBLE PRECISION NOT NULL,
			severity    DOUBLE PRECISION NOT NULL,
			risk_score  DOUBLE PRECISION NOT NULL,
			status      TEXT NOT NULL DEFAULT 'IDENTIFIED',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS patterns (
			id          TEXT PRIMARY KEY,
			seq         BIGSERIAL,
			name        TEXT NOT NULL,
			category    TEXT NOT NULL DEFAULT '',
			expression  TEXT NOT NULL DEFAULT '',
			risk_level  TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			occurrences INTEGER NOT NULL DEFAULT 0
		);`
	if _, err := b.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("EnsureSchema: %w", err)
	}
	return nil
}

func (b *PostgresBoard) AddAxiom(ctx context.Context, component, statement, domain string) (string, error) {
	if domain == "" {
		domain = "default"
	}
	id := uuid.New().String()
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO axioms (id, component, domain, statement, status)
		VALUES ($1, $2, $3, $4, 'PENDING')`,
		id, component, domain, statement,
	)
	if err != nil {
		return "", fmt.Errorf("AddAxiom: %w", err)
	}
	b.notifier.broadcast(EventAxiomAdded, id)
	return id, nil
}

func (b *PostgresBoard) NegateAxiom(ctx context.Context, id, negated string) error {
	// The status guard makes the transition idempotent: a second worker
	// racing on a stale snapshot updates zero rows and emits no event.
	res, err := b.db.ExecContext(ctx, `
		UPDATE axioms SET negated_statement = $2, status = 'NEGATED', updated_at = now()
		WHERE id = $1 AND status = 'PENDING'`,
		id, negated,
	)
	if err != nil {
		return fmt.Errorf("NegateAxiom: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		b.notifier.broadcast(EventAxiomNegated, id)
	}
	return nil
}

func (b *PostgresBoard) RecordRisk(ctx context.Context, axiomID, description string, probability, severity float64, mechanism string) (string, error) {
	id := uuid.New().String()
	// Component is denormalized from the owning axiom in the same
	// statement so the lookup and insert cannot interleave with a mutation.
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO risk_records (id, axiom_id, component, description, mechanism, probability, severity, risk_score)
		SELECT $1, $2, COALESCE((SELECT component FROM axioms WHERE id = $2), ''), $3, $4, $5, $6, $7`,
		id, axiomID, description, mechanism, probability, severity, probability*severity,
	)
	if err != nil {
		return "", fmt.Errorf("RecordRisk: %w", err)
	}
	b.notifier.broadcast(EventRiskRecorded, id)
	return id, nil
}

func (b *PostgresBoard) RegisterPattern(ctx context.Context, rule PatternRule) (string, error) {
	id := rule.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO patterns (id, name, category, expression, risk_level, description, occurrences)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, rule.Name, rule.Category, rule.Expression, string(rule.Level), rule.Description, rule.Occurrences,
	)
	if err != nil {
		return "", fmt.Errorf("RegisterPattern: %w", err)
	}
	return id, nil
}

func (b *PostgresBoard) IncrementPatternOccurrence(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx,
		`UPDATE patterns SET occurrences = occurrences + 1 WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("IncrementPatternOccurrence: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		b.notifier.broadcast(EventPatternHit, id)
	}
	return nil
}

const axiomColumns = `id, component, domain, statement, COALESCE(negated_statement, ''), status, created_at, updated_at`

func (b *PostgresBoard) PendingAxioms(ctx context.Context) ([]Axiom, error) {
	return b.queryAxioms(ctx, b.db, AxiomPending)
}

func (b *PostgresBoard) NegatedAxioms(ctx context.Context) ([]Axiom, error) {
	return b.queryAxioms(ctx, b.db, AxiomNegated)
}

// querier lets the axiom/record/pattern queries run against either the
// pool or an open transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (b *PostgresBoard) queryAxioms(ctx context.Context, q querier, status AxiomStatus) ([]Axiom, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+axiomColumns+` FROM axioms WHERE status = $1 ORDER BY seq`, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("queryAxioms: %w", err)
	}
	defer rows.Close()

	var out []Axiom
	for rows.Next() {
		var a Axiom
		if err := rows.Scan(&a.ID, &a.Component, &a.Domain, &a.Statement,
			&a.NegatedStatement, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("queryAxioms: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (b *PostgresBoard) RiskRecords(ctx context.Context) ([]RiskRecord, error) {
	return b.queryRecords(ctx, b.db)
}

func (b *PostgresBoard) queryRecords(ctx context.Context, q querier) ([]RiskRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, axiom_id, component, description, mechanism, probability, severity, risk_score, status, created_at
		FROM risk_records ORDER BY risk_score DESC, seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("queryRecords: %w", err)
	}
	defer rows.Close()

	var out []RiskRecord
	for rows.Next() {
		var r RiskRecord
		if err := rows.Scan(&r.ID, &r.AxiomID, &r.Component, &r.Description, &r.Mechanism,
			&r.Probability, &r.Severity, &r.Score, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("queryRecords: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (b *PostgresBoard) Patterns(ctx context.Context) ([]PatternRule, error) {
	return b.queryPatterns(ctx, b.db)
}

func (b *PostgresBoard) queryPatterns(ctx context.Context, q querier) ([]PatternRule, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, category, expression, risk_level, description, occurrences
		FROM patterns ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("queryPatterns: %w", err)
	}
	defer rows.Close()

	var out []PatternRule
	for rows.Next() {
		var p PatternRule
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Expression,
			&p.Level, &p.Description, &p.Occurrences); err != nil {
			return nil, fmt.Errorf("queryPatterns: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (b *PostgresBoard) Statistics(ctx context.Context) (Statistics, error) {
	return b.queryStatistics(ctx, b.db)
}

func (b *PostgresBoard) queryStatistics(ctx context.Context, q querier) (Statistics, error) {
	var s Statistics
	err := q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM axioms),
			(SELECT COUNT(*) FROM axioms WHERE status = 'NEGATED'),
			(SELECT COUNT(*) FROM risk_records),
			(SELECT COALESCE(AVG(risk_score), 0) FROM risk_records),
			(SELECT COALESCE(MAX(risk_score), 0) FROM risk_records)`,
	).Scan(&s.TotalAxioms, &s.NegatedAxioms, &s.RiskRecords, &s.MeanScore, &s.MaxScore)
	if err != nil {
		return Statistics{}, fmt.Errorf("queryStatistics: %w", err)
	}
	return s, nil
}

// Report runs all component queries inside one read-only transaction so
// the statistics agree with the listed records.
func (b *PostgresBoard) Report(ctx context.Context) (*Report, error) {
	tx, err := b.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("Report: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only

	stats, err := b.queryStatistics(ctx, tx)
	if err != nil {
		return nil, err
	}
	negated, err := b.queryAxioms(ctx, tx, AxiomNegated)
	if err != nil {
		return nil, err
	}
	records, err := b.queryRecords(ctx, tx)
	if err != nil {
		return nil, err
	}
	patterns, err := b.queryPatterns(ctx, tx)
	if err != nil {
		return nil, err
	}

	return &Report{
		Statistics:    stats,
		NegatedAxioms: negated,
		RiskRecords:   records,
		Patterns:      patterns,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

func (b *PostgresBoard) Subscribe() <-chan ChangeEvent {
	return b.notifier.subscribe()
}
