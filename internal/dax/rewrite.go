package dax

import (
	"fmt"
	"strings"
)

// EvaluateKeyword marks the top level of an executable query.
// Every Canonical produced by Rewrite begins with it.
const EvaluateKeyword = "EVALUATE"

// Canonical is the fully rewritten, engine-ready query text paired with the
// row limit it was rewritten for. Immutable once produced; used verbatim as
// the primary component of the result-cache key.
type Canonical struct {
	Text     string
	RowLimit int
}

// tableFunctions is the fixed set of table-producing function names used to
// classify an expression as a table expression. Matching is case-insensitive
// on an upper-cased copy of the input. "INFO." covers the whole
// schema-introspection family (INFO.TABLES, INFO.COLUMNS, ...).
var tableFunctions = []string{
	"SUMMARIZECOLUMNS",
	"SUMMARIZE",
	"SELECTCOLUMNS",
	"ADDCOLUMNS",
	"CALCULATETABLE",
	"FILTER",
	"VALUES",
	"ALLEXCEPT",
	"ALLSELECTED",
	"ALLNOBLANKROW",
	"ALL",
	"DISTINCT",
	"UNION",
	"EXCEPT",
	"INTERSECT",
	"CROSSJOIN",
	"NATURALINNERJOIN",
	"NATURALLEFTOUTERJOIN",
	"GENERATEALL",
	"GENERATE",
	"GENERATESERIES",
	"TOPN",
	"SAMPLE",
	"DATATABLE",
	"TREATAS",
	"ROW",
	"INFO.",
}

// Rewrite converts a raw query into its canonical executable form.
//
// Rules, in order:
//  1. Input already starting with EVALUATE (trimmed, case-insensitive)
//     passes through unchanged. Never double-wrapped.
//  2. Otherwise the expression is classified: table expression if it
//     contains any table-producing function name or is a bare quoted table
//     reference, scalar expression otherwise.
//  3. Table expression with rowLimit > 0 is wrapped in a TOPN limiter;
//     with rowLimit == 0 it is prefixed with EVALUATE unmodified (the
//     execution-boundary row cap still applies).
//  4. Scalar expression is wrapped as EVALUATE ROW("Value", <expr>).
//
// Rewrite never returns an error. An empty or whitespace-only input yields
// a canonical query the engine will reject; that rejection is an execution
// error, not a rewriter concern.
func Rewrite(raw string, rowLimit int) Canonical {
	trimmed := strings.TrimSpace(raw)

	if hasEvaluatePrefix(trimmed) {
		return Canonical{Text: trimmed, RowLimit: rowLimit}
	}

	if IsTableExpression(trimmed) {
		if rowLimit > 0 {
			return Canonical{
				Text:     fmt.Sprintf("%s TOPN(%d, %s)", EvaluateKeyword, rowLimit, trimmed),
				RowLimit: rowLimit,
			}
		}
		return Canonical{
			Text:     EvaluateKeyword + " " + trimmed,
			RowLimit: rowLimit,
		}
	}

	// Scalar expression: single-row, single-column named projection.
	return Canonical{
		Text:     fmt.Sprintf(`%s ROW("Value", %s)`, EvaluateKeyword, trimmed),
		RowLimit: rowLimit,
	}
}

// IsTableExpression reports whether the trimmed expression produces a table.
// An expression qualifies if it contains a table-producing function name or
// is a bare quoted table reference like 'Sales'.
func IsTableExpression(expr string) bool {
	upper := strings.ToUpper(expr)

	for _, fn := range tableFunctions {
		if containsFunction(upper, fn) {
			return true
		}
	}

	// 'Sales': quoted table reference with nothing after the closing quote.
	if len(expr) >= 3 && strings.HasPrefix(expr, "'") && strings.HasSuffix(expr, "'") &&
		!strings.Contains(expr[1:len(expr)-1], "'") {
		return true
	}

	return false
}

// hasEvaluatePrefix reports whether trimmed text begins with the EVALUATE
// keyword followed by whitespace or end of input.
func hasEvaluatePrefix(trimmed string) bool {
	if len(trimmed) < len(EvaluateKeyword) {
		return false
	}
	head := trimmed[:len(EvaluateKeyword)]
	if !strings.EqualFold(head, EvaluateKeyword) {
		return false
	}
	rest := trimmed[len(EvaluateKeyword):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '\r'
}

// containsFunction reports whether upper contains fn as a function reference
// rather than as a substring of a longer identifier. fn entries ending in
// "." (namespace prefixes) match on the prefix alone.
func containsFunction(upper, fn string) bool {
	idx := 0
	for {
		i := strings.Index(upper[idx:], fn)
		if i < 0 {
			return false
		}
		i += idx

		// Preceding character must not be part of an identifier.
		if i > 0 {
			prev := upper[i-1]
			if isIdentChar(prev) || prev == '[' || prev == '\'' {
				idx = i + 1
				continue
			}
		}

		if strings.HasSuffix(fn, ".") {
			return true
		}

		// Following non-space character must open the argument list.
		j := i + len(fn)
		for j < len(upper) && (upper[j] == ' ' || upper[j] == '\t') {
			j++
		}
		if j < len(upper) && upper[j] == '(' {
			return true
		}
		idx = i + 1
	}
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
