package dax

import "fmt"

// TableRefCandidates returns the table-reference forms to attempt for a
// table name, most to least defensive: quoted identifier, bare identifier,
// bracketed identifier. The order is fixed; callers evaluate candidates in
// sequence and stop on the first form the engine accepts.
//
// Acceptable quoting varies by table name shape (spaces, reserved words)
// and by engine build, which is why a single form cannot be trusted.
func TableRefCandidates(name string) []string {
	return []string{
		fmt.Sprintf("'%s'", name),
		name,
		fmt.Sprintf("[%s]", name),
	}
}

// TableQuery builds the canonical query for a raw table reference. Unlike
// Rewrite it never second-guesses the expression kind: the caller asserts
// ref names a table, so the result is always a table evaluation, row-limited
// when limit is positive.
func TableQuery(ref string, limit int) Canonical {
	if limit > 0 {
		return Canonical{
			Text:     fmt.Sprintf("%s TOPN(%d, %s)", EvaluateKeyword, limit, ref),
			RowLimit: limit,
		}
	}
	return Canonical{Text: fmt.Sprintf("%s %s", EvaluateKeyword, ref)}
}
