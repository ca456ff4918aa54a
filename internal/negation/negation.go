// Package negation converts assumption statements into their heuristic
// semantic inverse. The transform is purely lexical: tokens are checked
// against two substitution tables, and statements with no recognized
// vocabulary fall back to a generic negation template.
package negation

import "strings"

// Vocabulary holds the immutable rule tables for one engine instance.
// Tables are never mutated after construction; build a new engine to use
// different rules.
type Vocabulary struct {
	// Negations maps auxiliary/modal words to their failure phrasing
	// (e.g. "always" → "sometimes fails to"). Checked before Inversions.
	Negations map[string]string

	// Inversions maps attribute words to their semantic inverse
	// (e.g. "atomic" → "interleaved and race-prone").
	Inversions map[string]string

	// TemplatePrefix wraps statements where no token matched either table.
	TemplatePrefix string
}

// DefaultVocabulary returns the built-in rule tables derived from common
// distributed-systems failure modes.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Negations: map[string]string{
			"always": "sometimes fails to",
			"never":  "occasionally does",
			"will":   "may not",
			"must":   "might not",
			"should": "could fail to",
			"can":    "cannot reliably",
			"is":     "is not necessarily",
			"are":    "are not guaranteed to be",
			"has":    "may lack",
			"does":   "may fail to",
		},
		Inversions: map[string]string{
			"deterministic": "non-deterministic and entropy-dependent",
			"consistent":    "eventually consistent or divergent",
			"immutable":     "mutated by external side-effects",
			"available":     "unavailable or rate-limited",
			"atomic":        "interleaved and race-prone",
			"static":        "dynamically interposed",
			"synchronous":   "asynchronous and uncoordinated",
			"reliable":      "unreliable and failure-prone",
			"secure":        "vulnerable and exposed",
			"fast":          "slow and latency-bound",
			"safe":          "unsafe and hazardous",
			"stable":        "unstable and volatile",
			"isolated":      "shared and contended",
			"unique":        "duplicated or colliding",
			"valid":         "invalid or malformed",
			"complete":      "partial or truncated",
			"ordered":       "unordered or shuffled",
			"cached":        "uncached and cold",
			"persistent":    "ephemeral and transient",
			"idempotent":    "non-idempotent with side-effects",
			"stateless":     "stateful and context-dependent",
			"guaranteed":    "best-effort and lossy",
			"sequential":    "concurrent and racy",
			"blocking":      "non-blocking but incomplete",
			"trusted":       "untrusted and adversarial",
		},
		TemplatePrefix: "It is NOT guaranteed that: ",
	}
}

// Engine negates axiom statements. Same input always yields the same
// output — there is no randomness and no external state.
type Engine struct {
	vocab Vocabulary
}

// NewEngine creates an engine using the given vocabulary.
func NewEngine(vocab Vocabulary) *Engine {
	return &Engine{vocab: vocab}
}

// Negate returns the heuristic semantic inverse of statement. The result
// is never empty and never identical in principle to the input: if no
// token matches either table, the statement is wrapped in the template.
func (e *Engine) Negate(statement string) string {
	words := strings.Fields(statement)
	out := make([]string, 0, len(words))

	changed := false
	for _, word := range words {
		key := strings.ToLower(strings.Trim(word, ".,;:!?"))
		if repl, ok := e.vocab.Negations[key]; ok {
			out = append(out, repl)
			changed = true
			continue
		}
		if repl, ok := e.vocab.Inversions[key]; ok {
			out = append(out, repl)
			changed = true
			continue
		}
		out = append(out, word)
	}

	if !changed {
		return e.vocab.TemplatePrefix + statement
	}
	return strings.Join(out, " ")
}
