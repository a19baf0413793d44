package facade

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/facet/internal/dax"
)

// ExecuteWithTableFallback fetches rows from a table by trying each
// reference form in order (quoted, bare, bracketed) and returning on the
// first one the engine accepts. The winning form is reported in
// TableReferenceUsed. When every form fails the result is a
// table_reference error naming the attempted forms.
func (f *Facade) ExecuteWithTableFallback(ctx context.Context, table string, maxRows int) Result {
	if strings.TrimSpace(table) == "" {
		res := failure(ErrTypeSyntaxValidation, "empty table name",
			[]string{"Provide a table name, e.g. Sales", "List available tables with an info tables query"})
		f.emit(table, "", maxRows, res)
		return res
	}

	candidates := dax.TableRefCandidates(table)
	var lastErr error
	for _, ref := range candidates {
		canonical := dax.TableQuery(ref, maxRows)
		out, err := f.run(ctx, canonical, false)
		if err != nil {
			lastErr = err
			f.log.Debug("table reference form rejected",
				"table", table, "reference", ref, "error", err)
			continue
		}
		f.store(out)
		res := f.successResult(out)
		res.TableReferenceUsed = ref
		f.emit(table, canonical.Text, maxRows, res)
		return res
	}

	msg := fmt.Sprintf("table %q could not be fetched; attempted references: %s",
		table, strings.Join(candidates, ", "))
	if lastErr != nil {
		msg = fmt.Sprintf("%s (last error: %v)", msg, lastErr)
	}
	suggestions := []string{
		"Verify the table exists with an info tables query",
		"Check the table name for typos or extra whitespace",
		"If the name contains spaces, the quoted form should normally work",
	}
	res := failure(ErrTypeTableReference, msg, suggestions)
	f.emit(table, "", maxRows, res)
	return res
}
