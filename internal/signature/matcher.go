// Package signature evaluates a catalog of weighted pattern rules against
// negated statements and raw text artifacts. The same catalog backs two
// deliberately distinct modes: relevance matching (a weak keyword
// correlation signal against negated axiom text) and direct scanning
// (compiled regular expressions over arbitrary artifacts).
package signature

import (
	"regexp"
	"strings"

	"github.com/faultline-ai/faultline/internal/board"
	"go.uber.org/zap"
)

// maxSamples caps the captured match samples carried by a finding.
const maxSamples = 3

// Finding is one non-benign scan hit: a rule that matched an artifact.
type Finding struct {
	Rule        string          `json:"rule"`
	Level       board.RiskLevel `json:"risk_level"`
	Occurrences int             `json:"occurrences"`
	Samples     []string        `json:"samples"`
}

// ScanResult carries a scan's findings plus every rule that matched,
// benign ones included, so the caller can bump occurrence counters.
type ScanResult struct {
	Findings   []Finding
	HitRuleIDs []string
}

type compiledRule struct {
	rule board.PatternRule
	re   *regexp.Regexp // nil if the expression failed to compile
}

// Matcher holds a compiled rule catalog. Expressions are compiled once at
// construction; a rule whose expression fails to compile is logged and
// excluded from scanning but still participates in relevance matching.
type Matcher struct {
	rules     []compiledRule
	relevance map[string][]string // category → keyword set
	logger    *zap.Logger
}

// DefaultRelevanceKeywords returns the fixed keyword sets used to decide
// whether a rule's category correlates with a negated statement.
func DefaultRelevanceKeywords() map[string][]string {
	return map[string][]string{
		"memory":      {"leak", "retain", "weak", "strong"},
		"concurrency": {"race", "async", "thread", "concurrent"},
		"security":    {"vulnerable", "exposed", "untrusted"},
		"safety":      {"crash", "fail", "unsafe"},
	}
}

// NewMatcher compiles the given rules. Rules are expected to already be
// registered on the board (so their IDs are set). Expressions compile with
// case-insensitive and multi-line flags, matching how catalogs are written.
func NewMatcher(rules []board.PatternRule, relevance map[string][]string, logger *zap.Logger) *Matcher {
	m := &Matcher{relevance: relevance, logger: logger}
	for _, rule := range rules {
		re, err := regexp.Compile("(?im)" + rule.Expression)
		if err != nil {
			logger.Warn("pattern expression failed to compile, rule excluded from scanning",
				zap.String("rule", rule.Name),
				zap.Error(err),
			)
			m.rules = append(m.rules, compiledRule{rule: rule})
			continue
		}
		m.rules = append(m.rules, compiledRule{rule: rule, re: re})
	}
	return m
}

// ActiveRules returns how many rules compiled and participate in scanning.
func (m *Matcher) ActiveRules() int {
	n := 0
	for _, cr := range m.rules {
		if cr.re != nil {
			n++
		}
	}
	return n
}

// Relevant returns the rules whose category keywords appear as substrings
// of the negated statement (case-folded). This is a weak correlation
// signal, not a hard finding: the caller increments occurrence counters
// and the risk assessor consumes the aggregate.
func (m *Matcher) Relevant(negated string) []board.PatternRule {
	folded := strings.ToLower(negated)
	var out []board.PatternRule
	for _, cr := range m.rules {
		keywords := m.relevance[cr.rule.Category]
		for _, kw := range keywords {
			if strings.Contains(folded, kw) {
				out = append(out, cr.rule)
				break
			}
		}
	}
	return out
}

// Scan runs every compiled rule against the artifact. Rules tagged benign
// are logged and counted but never produce findings. A rule with zero
// matches produces no output — absence is not a finding.
func (m *Matcher) Scan(artifact string) ScanResult {
	var res ScanResult
	for _, cr := range m.rules {
		if cr.re == nil {
			continue
		}
		matches := cr.re.FindAllString(artifact, -1)
		if len(matches) == 0 {
			continue
		}

		res.HitRuleIDs = append(res.HitRuleIDs, cr.rule.ID)

		if cr.rule.Level == board.RiskBenign {
			m.logger.Info("benign pattern matched",
				zap.String("rule", cr.rule.Name),
				zap.Int("occurrences", len(matches)),
			)
			continue
		}

		samples := matches
		if len(samples) > maxSamples {
			samples = samples[:maxSamples]
		}
		res.Findings = append(res.Findings, Finding{
			Rule:        cr.rule.Name,
			Level:       cr.rule.Level,
			Occurrences: len(matches),
			Samples:     samples,
		})
	}
	return res
}
