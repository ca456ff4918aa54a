package agents

import (
	"context"
	"time"

	"github.com/faultline-ai/faultline/internal/board"
	"github.com/faultline-ai/faultline/internal/negation"
	"github.com/faultline-ai/faultline/internal/risk"
	"github.com/faultline-ai/faultline/internal/signature"
	"go.uber.org/zap"
)

// CompletionReason reports which condition ended a Wait.
type CompletionReason string

const (
	// ReasonWorkExhausted: no pending axioms remained and the record
	// count was stable — the stronger completion signal.
	ReasonWorkExhausted CompletionReason = "work_exhausted"
	// ReasonQuiescent: the record count was stable for the stabilization
	// window. Heuristic — pending axioms may still exist.
	ReasonQuiescent CompletionReason = "quiescent"
	// ReasonCancelled: the caller's context expired first.
	ReasonCancelled CompletionReason = "cancelled"
)

// SessionConfig wires a session's dependencies and tuning knobs.
type SessionConfig struct {
	Board    board.Board
	Negator  *negation.Engine
	Matcher  *signature.Matcher
	Assessor *risk.Assessor

	// PollInterval is each worker's sleep between cycles and the Wait
	// sampling interval. Default 500ms.
	PollInterval time.Duration
	// StabilizationWindow is how long the record count must hold still
	// before the session counts as done. Default 2s.
	StabilizationWindow time.Duration
	// StopTimeout bounds the per-worker wait during Stop. Default 2s.
	StopTimeout time.Duration

	Logger *zap.Logger
}

// Session owns the three stage workers of one analysis run.
type Session struct {
	cfg     SessionConfig
	workers []*Worker
}

// NewSession builds the negation, relevance, and assessment workers.
// Workers are independent: each binds one engine to the shared board, and
// results written by one become visible to the others on their next poll.
func NewSession(cfg SessionConfig) *Session {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.StabilizationWindow == 0 {
		cfg.StabilizationWindow = 2 * time.Second
	}
	if cfg.StopTimeout == 0 {
		cfg.StopTimeout = 2 * time.Second
	}

	s := &Session{cfg: cfg}
	s.workers = []*Worker{
		NewWorker(WorkerConfig{
			Name:     "negation",
			Interval: cfg.PollInterval,
			Process:  s.negateCycle,
			Logger:   cfg.Logger,
		}),
		NewWorker(WorkerConfig{
			Name:     "relevance",
			Interval: cfg.PollInterval,
			Process:  relevanceCycle(cfg.Board, cfg.Matcher),
			Logger:   cfg.Logger,
		}),
		NewWorker(WorkerConfig{
			Name:     "assessment",
			Interval: cfg.PollInterval,
			Process:  assessmentCycle(cfg.Board, cfg.Assessor, cfg.Logger),
			Logger:   cfg.Logger,
		}),
	}
	return s
}

// negateCycle pulls pending axioms and writes their negations back.
func (s *Session) negateCycle(ctx context.Context) (int, error) {
	pending, err := s.cfg.Board.PendingAxioms(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, ax := range pending {
		negated := s.cfg.Negator.Negate(ax.Statement)
		if err := s.cfg.Board.NegateAxiom(ctx, ax.ID, negated); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// relevanceCycle correlates negated axioms with the rule catalog and bumps
// occurrence counters. The seen set is worker-local — each axiom
// contributes its correlation signal once.
func relevanceCycle(b board.Board, m *signature.Matcher) ProcessFunc {
	seen := make(map[string]bool)
	return func(ctx context.Context) (int, error) {
		negated, err := b.NegatedAxioms(ctx)
		if err != nil {
			return 0, err
		}
		n := 0
		for _, ax := range negated {
			if seen[ax.ID] {
				continue
			}
			seen[ax.ID] = true
			for _, rule := range m.Relevant(ax.NegatedStatement) {
				if err := b.IncrementPatternOccurrence(ctx, rule.ID); err != nil {
					return n, err
				}
			}
			n++
		}
		return n, nil
	}
}

// assessmentCycle scores negated axioms and records significant risks.
// Each axiom is assessed exactly once; sub-threshold axioms are skipped
// and never retried.
func assessmentCycle(b board.Board, a *risk.Assessor, logger *zap.Logger) ProcessFunc {
	seen := make(map[string]bool)
	return func(ctx context.Context) (int, error) {
		negated, err := b.NegatedAxioms(ctx)
		if err != nil {
			return 0, err
		}
		n := 0
		for _, ax := range negated {
			if seen[ax.ID] {
				continue
			}
			seen[ax.ID] = true

			probability, severity := a.Assess(ax)
			if probability <= a.Threshold() {
				continue
			}
			probability = clamp01(probability)
			severity = clamp01(severity)

			id, err := b.RecordRisk(ctx, ax.ID, risk.Describe(ax), probability, severity, a.Mechanism(ax.NegatedStatement))
			if err != nil {
				return n, err
			}
			logger.Info("risk recorded",
				zap.String("record_id", id),
				zap.String("component", ax.Component),
				zap.String("level", string(risk.Categorize(probability*severity))),
				zap.Float64("probability", probability),
				zap.Float64("severity", severity),
			)
			n++
		}
		return n, nil
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Start launches all workers.
func (s *Session) Start(ctx context.Context) {
	for _, w := range s.workers {
		w.Start(ctx)
	}
	s.cfg.Logger.Info("analysis session started", zap.Int("workers", len(s.workers)))
}

// Stop signals every worker and waits up to StopTimeout for each. Workers
// still alive after their timeout are abandoned, not treated as failures.
func (s *Session) Stop() {
	for _, w := range s.workers {
		w.Stop(s.cfg.StopTimeout)
	}
	s.cfg.Logger.Info("analysis session stopped")
}

// Wait blocks until the risk-record count has been stable for the
// stabilization window, or ctx expires. A session always completes:
// whatever records exist at return time are a valid, reportable outcome.
func (s *Session) Wait(ctx context.Context) CompletionReason {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	lastCount := -1
	var stableFor time.Duration

	for {
		select {
		case <-ctx.Done():
			return ReasonCancelled
		case <-ticker.C:
		}

		stats, err := s.cfg.Board.Statistics(ctx)
		if err != nil {
			s.cfg.Logger.Warn("statistics poll failed", zap.Error(err))
			continue
		}

		if stats.RiskRecords == lastCount {
			stableFor += s.cfg.PollInterval
		} else {
			stableFor = 0
			lastCount = stats.RiskRecords
		}
		if stableFor < s.cfg.StabilizationWindow {
			continue
		}

		pending, err := s.cfg.Board.PendingAxioms(ctx)
		if err == nil && len(pending) == 0 {
			return ReasonWorkExhausted
		}
		return ReasonQuiescent
	}
}

// Workers exposes the session's workers for stats reporting.
func (s *Session) Workers() []*Worker {
	return s.workers
}
