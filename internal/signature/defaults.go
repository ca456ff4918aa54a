package signature

import "github.com/faultline-ai/faultline/internal/board"

// DefaultCatalog returns the built-in failure-signature rules. The catalog
// is plain data: callers may replace or extend it with LoadCatalog before
// registering rules on the board.
func DefaultCatalog() []board.PatternRule {
	return []board.PatternRule{
		{
			Name:        "SINGLETON",
			Category:    "architecture",
			Expression:  `shared\s*=\s*\w+\(\)|\.shared\b|static\s+let\s+instance`,
			Level:       board.RiskMedium,
			Description: "Singleton introduces global state and testing difficulties",
		},
		{
			Name:        "FORCE_UNWRAP",
			Category:    "safety",
			Expression:  `!\s*$|!\.`,
			Level:       board.RiskHigh,
			Description: "Force unwrapping can cause runtime crashes",
		},
		{
			Name:        "FORCE_TRY",
			Category:    "safety",
			Expression:  `try!`,
			Level:       board.RiskHigh,
			Description: "Force try can cause runtime crashes",
		},
		{
			Name:        "FORCE_CAST",
			Category:    "safety",
			Expression:  `as!`,
			Level:       board.RiskHigh,
			Description: "Force cast can cause runtime crashes",
		},
		{
			Name:        "STRONG_SELF_CLOSURE",
			Category:    "memory",
			Expression:  `\{\s*self\.`,
			Level:       board.RiskMedium,
			Description: "Strong self capture in closure may retain self and leak",
		},
		{
			Name:        "WEAK_SELF",
			Category:    "memory",
			Expression:  `\[\s*weak\s+self\s*\]`,
			Level:       board.RiskBenign,
			Description: "Proper weak self capture in closure",
		},
		{
			Name:        "TIMER_SELECTOR",
			Category:    "memory",
			Expression:  `Timer\.scheduledTimer.*selector`,
			Level:       board.RiskMedium,
			Description: "Timer with selector target is a potential retain cycle",
		},
		{
			Name:        "INIT_SIDE_EFFECT",
			Category:    "lifecycle",
			Expression:  `init\s*\([^)]*\)\s*\{[^}]*(start|fetch|load|request)`,
			Level:       board.RiskCritical,
			Description: "Side effects in init can cause duplicate execution",
		},
		{
			Name:        "INTERPOSABLE_FLAG",
			Category:    "config",
			Expression:  `-interposable|-Xlinker\s+-interposable`,
			Level:       board.RiskCritical,
			Description: "Interposable linker flag can leak into release builds",
		},
		{
			Name:        "UNMANGLED_SYMBOL",
			Category:    "config",
			Expression:  `dlsym\s*\([^,]+,\s*"[a-zA-Z][a-zA-Z0-9_]*"`,
			Level:       board.RiskCritical,
			Description: "dlsym with an unmangled symbol name fails at runtime",
		},
		{
			Name:        "GLOBAL_MUTABLE_STATE",
			Category:    "concurrency",
			Expression:  `var\s+\w+\s*:\s*\[[^\]]+\]\s*=\s*\[\]`,
			Level:       board.RiskHigh,
			Description: "Global mutable collection is race-prone",
		},
		{
			Name:        "BACKGROUND_QUEUE_SELF",
			Category:    "concurrency",
			Expression:  `DispatchQueue\.global\(\)\.async\s*\{[^}]*self\.`,
			Level:       board.RiskHigh,
			Description: "Async access to self without synchronization",
		},
		{
			Name:        "MAIN_QUEUE_SELF",
			Category:    "concurrency",
			Expression:  `DispatchQueue\.main\.async\s*\{[^}]*self\.`,
			Level:       board.RiskMedium,
			Description: "Main queue async with strong self capture",
		},
		{
			Name:        "HARDCODED_CREDENTIALS",
			Category:    "security",
			Expression:  `(?:password|secret|api_key|token)\s*=\s*['"][^'"]+['"]`,
			Level:       board.RiskCritical,
			Description: "Hardcoded credentials are a security vulnerability",
		},
	}
}
