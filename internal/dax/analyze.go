package dax

import "strings"

// Analyze maps a raw engine error message and the offending query to a list
// of human suggestions. Checks are independent keyword matches, not mutually
// exclusive; several categories can contribute to the same error. The
// output is advisory text only and never changes control flow.
func Analyze(errText, query string) []string {
	lower := strings.ToLower(errText)
	var suggestions []string

	if strings.Contains(lower, "cannot be found") || strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist") {
		suggestions = append(suggestions,
			"Verify the table, column, or measure name exists in the model",
			"Check for typos: identifiers are matched exactly, including spaces",
			"Use the info query for tables or columns to list available objects",
		)
	}

	if strings.Contains(lower, "syntax") || strings.Contains(lower, "unexpected token") ||
		strings.Contains(lower, "parser") {
		suggestions = append(suggestions,
			"Check the query for unbalanced parentheses, brackets, or quotes",
			"Confirm commas separate all function arguments",
		)
	}

	if strings.Contains(lower, "is not a valid function") || strings.Contains(lower, "unknown function") ||
		strings.Contains(lower, "unrecognized function") {
		suggestions = append(suggestions,
			"Verify the function name: this engine build may not support it",
			"Check the argument count and types for the function",
		)
	}

	if strings.Contains(lower, "circular dependency") || strings.Contains(lower, "circular reference") {
		suggestions = append(suggestions,
			"A measure references itself directly or through another measure",
			"Trace the measure chain and break the cycle",
		)
	}

	if len(suggestions) == 0 {
		suggestions = []string{
			"Check the query syntax",
			"Verify all referenced tables, columns, and measures exist",
			"Simplify the query to isolate the failing part",
		}
	}

	return suggestions
}
