package signature

import (
	"testing"

	"github.com/faultline-ai/faultline/internal/board"
	"go.uber.org/zap"
)

func testMatcher(t *testing.T, rules []board.PatternRule) *Matcher {
	t.Helper()
	return NewMatcher(rules, DefaultRelevanceKeywords(), zap.NewNop())
}

func TestScan_ForceTryFinding(t *testing.T) {
	m := testMatcher(t, DefaultCatalog())
	artifact := `
let data = try! Data(contentsOf: url)
let more = try! decoder.decode(Payload.self, from: data)
`
	res := m.Scan(artifact)

	var found *Finding
	for i := range res.Findings {
		if res.Findings[i].Rule == "FORCE_TRY" {
			found = &res.Findings[i]
		}
	}
	if found == nil {
		t.Fatalf("expected a FORCE_TRY finding, got %+v", res.Findings)
	}
	if found.Level != board.RiskHigh {
		t.Errorf("expected HIGH level, got %s", found.Level)
	}
	if found.Occurrences != 2 {
		t.Errorf("expected 2 occurrences, got %d", found.Occurrences)
	}
}

func TestScan_BenignRuleHitsButNoFinding(t *testing.T) {
	m := testMatcher(t, []board.PatternRule{
		{ID: "weak-self", Name: "WEAK_SELF", Category: "memory", Expression: `\[\s*weak\s+self\s*\]`, Level: board.RiskBenign},
	})
	res := m.Scan(`service.fetch { [weak self] result in self?.render(result) }`)

	if len(res.Findings) != 0 {
		t.Fatalf("benign rule must not produce a finding, got %+v", res.Findings)
	}
	if len(res.HitRuleIDs) != 1 || res.HitRuleIDs[0] != "weak-self" {
		t.Errorf("benign rule should still count as a hit, got %v", res.HitRuleIDs)
	}
}

func TestScan_NoMatchesNoOutput(t *testing.T) {
	m := testMatcher(t, DefaultCatalog())
	res := m.Scan("let x = safeValue ?? fallback")
	if len(res.Findings) != 0 {
		t.Errorf("expected no findings, got %+v", res.Findings)
	}
	if len(res.HitRuleIDs) != 0 {
		t.Errorf("expected no hits, got %v", res.HitRuleIDs)
	}
}

func TestScan_SamplesCapped(t *testing.T) {
	m := testMatcher(t, []board.PatternRule{
		{ID: "r1", Name: "FORCE_TRY", Category: "safety", Expression: `try!`, Level: board.RiskHigh},
	})
	res := m.Scan("try! a; try! b; try! c; try! d; try! e")
	if len(res.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(res.Findings))
	}
	f := res.Findings[0]
	if f.Occurrences != 5 {
		t.Errorf("expected 5 occurrences, got %d", f.Occurrences)
	}
	if len(f.Samples) != maxSamples {
		t.Errorf("expected %d samples, got %d", maxSamples, len(f.Samples))
	}
}

func TestScan_CaseInsensitive(t *testing.T) {
	m := testMatcher(t, []board.PatternRule{
		{ID: "r1", Name: "CREDS", Category: "security", Expression: `password\s*=\s*['"][^'"]+['"]`, Level: board.RiskCritical},
	})
	res := m.Scan(`PASSWORD = "hunter2"`)
	if len(res.Findings) != 1 {
		t.Fatalf("expected case-insensitive match, got %+v", res.Findings)
	}
}

func TestNewMatcher_BadExpressionExcludedFromScan(t *testing.T) {
	m := testMatcher(t, []board.PatternRule{
		{ID: "good", Name: "GOOD", Category: "safety", Expression: `try!`, Level: board.RiskHigh},
		{ID: "bad", Name: "BAD", Category: "safety", Expression: `(?!unsupported)`, Level: board.RiskHigh},
	})
	if m.ActiveRules() != 1 {
		t.Fatalf("expected 1 active rule, got %d", m.ActiveRules())
	}
	res := m.Scan("try! work()")
	if len(res.Findings) != 1 || res.Findings[0].Rule != "GOOD" {
		t.Errorf("bad expression must not affect scanning: %+v", res.Findings)
	}
}

func TestRelevant_KeywordCorrelation(t *testing.T) {
	m := testMatcher(t, DefaultCatalog())
	rules := m.Relevant("The cache is race-prone and concurrent under load")

	if len(rules) == 0 {
		t.Fatal("expected concurrency rules to be relevant")
	}
	for _, r := range rules {
		if r.Category != "concurrency" {
			t.Errorf("unexpected category %q for rule %s", r.Category, r.Name)
		}
	}
}

func TestRelevant_BadExpressionStillParticipates(t *testing.T) {
	m := testMatcher(t, []board.PatternRule{
		{ID: "bad", Name: "BAD", Category: "memory", Expression: `(?!nope)`, Level: board.RiskHigh},
	})
	rules := m.Relevant("the view controller may leak its delegate")
	if len(rules) != 1 {
		t.Fatalf("uncompiled rules should still match by relevance, got %d", len(rules))
	}
}

func TestRelevant_NoKeywordNoMatch(t *testing.T) {
	m := testMatcher(t, DefaultCatalog())
	rules := m.Relevant("build output may be partial or truncated")
	if len(rules) != 0 {
		t.Errorf("expected no relevant rules, got %d", len(rules))
	}
}

func TestDefaultCatalog_AllExpressionsCompile(t *testing.T) {
	m := testMatcher(t, DefaultCatalog())
	if got, want := m.ActiveRules(), len(DefaultCatalog()); got != want {
		t.Errorf("expected all %d default rules to compile, got %d active", want, got)
	}
}

func BenchmarkScan(b *testing.B) {
	m := NewMatcher(DefaultCatalog(), DefaultRelevanceKeywords(), zap.NewNop())
	artifact := `
class Service {
    static let instance = Service()
    var queue: [Task] = []
    func run() {
        DispatchQueue.global().async { self.queue.append(try! Task.make()) }
    }
}
`
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Scan(artifact)
	}
}
