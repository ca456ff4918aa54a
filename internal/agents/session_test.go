package agents

import (
	"context"
	"testing"
	"time"

	"github.com/faultline-ai/faultline/internal/board"
	"github.com/faultline-ai/faultline/internal/negation"
	"github.com/faultline-ai/faultline/internal/risk"
	"github.com/faultline-ai/faultline/internal/signature"
	"go.uber.org/zap"
)

func testSession(b board.Board) *Session {
	return NewSession(SessionConfig{
		Board:               b,
		Negator:             negation.NewEngine(negation.DefaultVocabulary()),
		Matcher:             signature.NewMatcher(signature.DefaultCatalog(), signature.DefaultRelevanceKeywords(), zap.NewNop()),
		Assessor:            risk.NewAssessor(risk.DefaultConfig()),
		PollInterval:        10 * time.Millisecond,
		StabilizationWindow: 100 * time.Millisecond,
		StopTimeout:         time.Second,
		Logger:              zap.NewNop(),
	})
}

func seedAxioms(t *testing.T, b board.Board) {
	t.Helper()
	ctx := context.Background()
	axioms := []struct {
		component, statement, domain string
	}{
		{"MemoryManager", "Object references are always released and memory never leaks", "memory"},
		{"Scheduler", "Task execution is atomic and the queue is never deadlocked", "concurrency"},
		{"KeyStore", "Credentials are secure and always encrypted at rest", "security"},
		{"Pipeline", "Build outputs are deterministic", "build"},
	}
	for _, ax := range axioms {
		if _, err := b.AddAxiom(ctx, ax.component, ax.statement, ax.domain); err != nil {
			t.Fatalf("seed axiom: %v", err)
		}
	}
}

func TestSession_EndToEnd(t *testing.T) {
	ctx := context.Background()
	b := board.NewMemoryBoard()
	seedAxioms(t, b)

	s := testSession(b)
	s.Start(ctx)
	defer s.Stop()

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	reason := s.Wait(waitCtx)
	if reason != ReasonWorkExhausted {
		t.Fatalf("expected %s, got %s", ReasonWorkExhausted, reason)
	}

	stats, _ := b.Statistics(ctx)
	if stats.NegatedAxioms != stats.TotalAxioms {
		t.Errorf("expected all %d axioms negated, got %d", stats.TotalAxioms, stats.NegatedAxioms)
	}

	negated, _ := b.NegatedAxioms(ctx)
	for _, ax := range negated {
		if ax.NegatedStatement == "" {
			t.Errorf("axiom %s negated without a negated statement", ax.ID)
		}
	}
	if stats.RiskRecords == 0 {
		t.Error("expected significant risks from the seeded axioms")
	}
}

func TestSession_AssessesEachAxiomOnce(t *testing.T) {
	ctx := context.Background()
	b := board.NewMemoryBoard()
	seedAxioms(t, b)

	s := testSession(b)
	s.Start(ctx)
	defer s.Stop()

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	s.Wait(waitCtx)

	// Several extra cycles after quiescence must not add duplicates.
	before, _ := b.Statistics(ctx)
	time.Sleep(100 * time.Millisecond)
	after, _ := b.Statistics(ctx)
	if after.RiskRecords != before.RiskRecords {
		t.Errorf("record count grew after quiescence: %d -> %d", before.RiskRecords, after.RiskRecords)
	}

	records, _ := b.RiskRecords(ctx)
	perAxiom := make(map[string]int)
	for _, r := range records {
		perAxiom[r.AxiomID]++
	}
	for axID, n := range perAxiom {
		if n > 1 {
			t.Errorf("axiom %s assessed %d times", axID, n)
		}
	}
}

func TestSession_SubThresholdAxiomProducesNoRecord(t *testing.T) {
	ctx := context.Background()
	b := board.NewMemoryBoard()
	// Build domain prior is 0.05 and the statement carries no risk keywords,
	// so probability stays below the significance threshold.
	id, _ := b.AddAxiom(ctx, "Pipeline", "Artifacts upload in order", "build")

	s := testSession(b)
	s.Start(ctx)
	defer s.Stop()

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	reason := s.Wait(waitCtx)
	if reason != ReasonWorkExhausted {
		t.Fatalf("expected %s, got %s", ReasonWorkExhausted, reason)
	}

	negated, _ := b.NegatedAxioms(ctx)
	if len(negated) != 1 || negated[0].ID != id {
		t.Fatalf("axiom should still be negated, got %v", negated)
	}
	records, _ := b.RiskRecords(ctx)
	if len(records) != 0 {
		t.Errorf("sub-threshold axiom produced records: %+v", records)
	}
}

func TestSession_RelevanceBumpsPatternCounters(t *testing.T) {
	ctx := context.Background()
	b := board.NewMemoryBoard()

	rules := signature.DefaultCatalog()
	registered := make([]board.PatternRule, 0, len(rules))
	for _, rule := range rules {
		id, err := b.RegisterPattern(ctx, rule)
		if err != nil {
			t.Fatalf("register pattern: %v", err)
		}
		rule.ID = id
		registered = append(registered, rule)
	}

	s := NewSession(SessionConfig{
		Board:               b,
		Negator:             negation.NewEngine(negation.DefaultVocabulary()),
		Matcher:             signature.NewMatcher(registered, signature.DefaultRelevanceKeywords(), zap.NewNop()),
		Assessor:            risk.NewAssessor(risk.DefaultConfig()),
		PollInterval:        10 * time.Millisecond,
		StabilizationWindow: 100 * time.Millisecond,
		StopTimeout:         time.Second,
		Logger:              zap.NewNop(),
	})

	// "atomic" inverts to "interleaved and race-prone", which carries the
	// "race" concurrency keyword.
	_, _ = b.AddAxiom(ctx, "Queue", "Enqueue operations are atomic", "concurrency")

	s.Start(ctx)
	defer s.Stop()
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	s.Wait(waitCtx)

	patterns, _ := b.Patterns(ctx)
	var concurrencyHits int
	for _, p := range patterns {
		if p.Category == "concurrency" {
			concurrencyHits += p.Occurrences
		}
	}
	if concurrencyHits == 0 {
		t.Error("expected concurrency pattern occurrences from relevance matching")
	}
}

func TestSession_WaitCancelled(t *testing.T) {
	b := board.NewMemoryBoard()
	s := NewSession(SessionConfig{
		Board:               b,
		Negator:             negation.NewEngine(negation.DefaultVocabulary()),
		Matcher:             signature.NewMatcher(nil, nil, zap.NewNop()),
		Assessor:            risk.NewAssessor(risk.DefaultConfig()),
		PollInterval:        10 * time.Millisecond,
		StabilizationWindow: time.Hour, // never reached
		StopTimeout:         time.Second,
		Logger:              zap.NewNop(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if reason := s.Wait(ctx); reason != ReasonCancelled {
		t.Errorf("expected %s, got %s", ReasonCancelled, reason)
	}
}

func TestSession_StopIsClean(t *testing.T) {
	ctx := context.Background()
	b := board.NewMemoryBoard()
	seedAxioms(t, b)

	s := testSession(b)
	s.Start(ctx)
	s.Stop()

	for _, w := range s.Workers() {
		select {
		case <-w.done:
		default:
			t.Errorf("worker %s still running after Stop", w.Name())
		}
	}
}
