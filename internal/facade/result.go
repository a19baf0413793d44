package facade

import (
	"strings"

	"github.com/roach88/facet/internal/dax"
	"github.com/roach88/facet/internal/tabular"
)

// ErrorType categorizes a user-visible failure.
type ErrorType string

const (
	// ErrTypeSyntaxValidation is caught before execution by structural checks.
	ErrTypeSyntaxValidation ErrorType = "syntax_validation"

	// ErrTypeEngineUnavailable means no usable connection to the engine.
	ErrTypeEngineUnavailable ErrorType = "engine_unavailable"

	// ErrTypeQueryExecution means the engine rejected or failed the query.
	ErrTypeQueryExecution ErrorType = "query_execution"

	// ErrTypeObjectNotFound means a named table/column/measure did not resolve.
	ErrTypeObjectNotFound ErrorType = "object_not_found"

	// ErrTypeTableReference means every fallback reference form failed.
	ErrTypeTableReference ErrorType = "table_reference"
)

// CacheInfo describes how the cache participated in one call.
// On a hit AgeSeconds carries the entry age; on a miss TTLSeconds carries
// the configured freshness window.
type CacheInfo struct {
	Hit        bool    `json:"hit"`
	AgeSeconds float64 `json:"age_seconds,omitempty"`
	TTLSeconds int     `json:"ttl_seconds,omitempty"`
}

// Result is the façade's answer to one top-level call.
type Result struct {
	Success     bool             `json:"success"`
	Columns     []string         `json:"columns,omitempty"`
	Rows        []tabular.RowMap `json:"rows,omitempty"`
	RowCount    int              `json:"row_count"`
	ExecutionMs float64          `json:"execution_ms"`
	Truncated   bool             `json:"truncated,omitempty"`
	Cache       CacheInfo        `json:"cache"`

	// ClientFiltered marks a degraded-but-correct metadata answer produced
	// by an unscoped fetch plus local filtering.
	ClientFiltered bool `json:"client_filtered,omitempty"`

	// TableReferenceUsed reports which quoting form succeeded for a
	// table-fallback fetch.
	TableReferenceUsed string `json:"table_reference_used,omitempty"`

	Error       string    `json:"error,omitempty"`
	ErrorType   ErrorType `json:"error_type,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// failure builds a failed Result. Suggestions are always non-empty: when
// the caller has none, the analyzer's generic triad fills in.
func failure(errType ErrorType, message string, suggestions []string) Result {
	if len(suggestions) == 0 {
		suggestions = dax.Analyze(message, "")
	}
	return Result{
		Success:     false,
		Error:       message,
		ErrorType:   errType,
		Suggestions: suggestions,
	}
}

// classifyError maps a raw engine error message onto the taxonomy.
func classifyError(message string) ErrorType {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "cannot be found"),
		strings.Contains(lower, "does not exist"),
		strings.Contains(lower, "no such table"),
		strings.Contains(lower, "no such column"),
		strings.Contains(lower, "not found"):
		return ErrTypeObjectNotFound
	case strings.Contains(lower, "connection is closed"),
		strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "database is closed"),
		strings.Contains(lower, "sql: database is closed"):
		return ErrTypeEngineUnavailable
	default:
		return ErrTypeQueryExecution
	}
}

// validateStructure runs the pre-execution structural checks: balanced
// parentheses, brackets, and quote pairs. Everything subtler is left to
// the engine. Returns a problem description and false when unbalanced.
func validateStructure(query string) (string, bool) {
	var parens, brackets int
	inSingle, inDouble := false, false

	for _, r := range query {
		switch {
		case inSingle:
			if r == '\'' {
				inSingle = false
			}
		case inDouble:
			if r == '"' {
				inDouble = false
			}
		case r == '\'':
			inSingle = true
		case r == '"':
			inDouble = true
		case r == '(':
			parens++
		case r == ')':
			parens--
			if parens < 0 {
				return "unbalanced parentheses: ')' without matching '('", false
			}
		case r == '[':
			brackets++
		case r == ']':
			brackets--
			if brackets < 0 {
				return "unbalanced brackets: ']' without matching '['", false
			}
		}
	}

	switch {
	case inSingle:
		return "unterminated single-quoted identifier", false
	case inDouble:
		return "unterminated string literal", false
	case parens != 0:
		return "unbalanced parentheses", false
	case brackets != 0:
		return "unbalanced brackets", false
	}
	return "", true
}
