package errors

// Template defines a registered error code.
type Template struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Nesting Errors (N001-N099)
	// ============================================

	"N001": {
		Category:   CategoryNesting,
		Message:    "Empty nesting chain",
		Suggestion: "Pass at least one step, or use a shallow nesting when the outer cell is the inner cell.",
	},
	"N002": {
		Category: CategoryNesting,
		Message:  "Missing outer cell",
	},
	"N003": {
		Category:   CategoryNesting,
		Message:    "Missing nesting step",
		Suggestion: "Build every step with nesting.Next or nesting.NextCell and a non-nil function.",
	},
	"N004": {
		Category:   CategoryNesting,
		Message:    "Chain types do not line up",
		Suggestion: "Each step's input type must accept the value type of the cell produced by the step before it.",
	},
	"N005": {
		Category: CategoryNesting,
		Message:  "Inner cell has the wrong type",
	},
	"N006": {
		Category: CategoryNesting,
		Message:  "Already stopped",
	},
	"N007": {
		Category: CategoryNesting,
		Message:  "Missing target",
	},

	// ============================================
	// Scenario Errors (S001-S099)
	// ============================================

	"S001": {
		Category: CategoryScenario,
		Message:  "Scenario could not be read",
	},
	"S002": {
		Category: CategoryScenario,
		Message:  "Invalid scenario document",
	},
	"S003": {
		Category:   CategoryScenario,
		Message:    "Unknown cell reference",
		Suggestion: "Declare the cell under cells: or fix the name.",
	},
	"S004": {
		Category:   CategoryScenario,
		Message:    "Unknown record reference",
		Suggestion: "Declare the record under records: or fix the name.",
	},
	"S005": {
		Category: CategoryScenario,
		Message:  "Invalid scenario operation",
	},
	"S006": {
		Category: CategoryScenario,
		Message:  "Scenario expectation failed",
	},
	"S007": {
		Category:   CategoryScenario,
		Message:    "Unsupported scenario source",
		Suggestion: "Use a local path or an s3://bucket/key URI.",
	},

	// ============================================
	// Config Errors (C001-C099)
	// ============================================

	"C001": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create nestctl.json or run without --config to use defaults.",
	},
	"C002": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
	},
	"C003": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
