package signature

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/faultline-ai/faultline/internal/board"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// catalogSchema validates externally supplied rule catalogs before any
// rule reaches the board. Expressions are not regex-checked here — a rule
// that fails to compile is a degraded-coverage condition handled by the
// matcher, not a rejected catalog.
const catalogSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["name", "category", "expression", "risk_level"],
		"properties": {
			"name":        {"type": "string", "minLength": 1},
			"category":    {"type": "string", "minLength": 1},
			"expression":  {"type": "string", "minLength": 1},
			"risk_level":  {"enum": ["LOW", "MEDIUM", "HIGH", "CRITICAL", "GOOD"]},
			"description": {"type": "string"}
		},
		"additionalProperties": false
	}
}`

// catalogRule mirrors the external catalog entry format.
type catalogRule struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Expression  string `json:"expression"`
	RiskLevel   string `json:"risk_level"`
	Description string `json:"description"`
}

// LoadCatalog reads a JSON rule catalog from disk and validates it against
// the catalog schema. A catalog that fails validation is rejected whole.
func LoadCatalog(path string) ([]board.PatternRule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadCatalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog validates and decodes raw catalog JSON.
func ParseCatalog(raw []byte) ([]board.PatternRule, error) {
	var schemaObj any
	if err := json.Unmarshal([]byte(catalogSchema), &schemaObj); err != nil {
		return nil, fmt.Errorf("ParseCatalog: schema unmarshal: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("catalog.json", schemaObj); err != nil {
		return nil, fmt.Errorf("ParseCatalog: schema compile: %w", err)
	}
	sch, err := c.Compile("catalog.json")
	if err != nil {
		return nil, fmt.Errorf("ParseCatalog: schema compile: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("ParseCatalog: catalog is not valid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("ParseCatalog: catalog validation failed: %w", err)
	}

	var entries []catalogRule
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("ParseCatalog: %w", err)
	}

	rules := make([]board.PatternRule, 0, len(entries))
	for _, e := range entries {
		rules = append(rules, board.PatternRule{
			Name:        e.Name,
			Category:    e.Category,
			Expression:  e.Expression,
			Level:       board.RiskLevel(e.RiskLevel),
			Description: e.Description,
		})
	}
	return rules, nil
}
