package facade

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/facet/internal/dax"
	"github.com/roach88/facet/internal/schema"
	"github.com/roach88/facet/internal/tabular"
)

// InfoKind selects which schema-introspection family to query.
type InfoKind string

const (
	InfoTables        InfoKind = "tables"
	InfoColumns       InfoKind = "columns"
	InfoMeasures      InfoKind = "measures"
	InfoRelationships InfoKind = "relationships"
)

// InfoOptions narrows a metadata query.
type InfoOptions struct {
	// TableName scopes results to one table. Resolution goes through the
	// identifier cache; when scoping cannot be trusted the query falls
	// back to an unscoped fetch with client-side filtering.
	TableName string

	// FilterExpr is an additional raw filter condition, ANDed with the
	// table scope when both are present.
	FilterExpr string

	// RowLimit caps returned rows; zero means no explicit limit.
	RowLimit int
}

// infoFunctions maps each kind to its introspection function call.
var infoFunctions = map[InfoKind]string{
	InfoTables:        "INFO.TABLES()",
	InfoColumns:       "INFO.COLUMNS()",
	InfoMeasures:      "INFO.MEASURES()",
	InfoRelationships: "INFO.RELATIONSHIPS()",
}

// infoFilterColumn is the server-side column each kind is scoped on:
// tables filter on their own ID, columns and measures on their owning
// table, relationships on their origin table.
var infoFilterColumn = map[InfoKind]string{
	InfoTables:        "[ID]",
	InfoColumns:       "[TableID]",
	InfoMeasures:      "[TableID]",
	InfoRelationships: "[FromTableID]",
}

// Client-side filtering alias lists. Engine builds differ on bracketing,
// and some expose a direct table-name field that beats an ID round trip.
var (
	infoNameAliases   = []string{"[Name]", "Name"}
	infoDirectAliases = []string{"[Table]", "Table"}

	infoClientAliases = map[InfoKind][]string{
		InfoColumns:       {"[TableID]", "TableID"},
		InfoMeasures:      {"[TableID]", "TableID"},
		InfoRelationships: {"[FromTableID]", "FromTableID"},
	}
)

// ExecuteInfoQuery runs a schema-introspection query, scoped server-side
// to a table when one is named and its ID resolves. A scoped attempt that
// fails or returns nothing falls back to an unscoped fetch filtered
// client-side through the identifier cache; such results are tagged
// ClientFiltered.
func (f *Facade) ExecuteInfoQuery(ctx context.Context, kind InfoKind, opts InfoOptions) Result {
	fn, ok := infoFunctions[kind]
	if !ok {
		res := failure(ErrTypeSyntaxValidation,
			fmt.Sprintf("unknown info kind %q", kind),
			[]string{"Use one of: tables, columns, measures, relationships"})
		f.emit(string(kind), "", opts.RowLimit, res)
		return res
	}

	if opts.TableName == "" {
		expr := infoExpr(fn, nil, opts.FilterExpr)
		canonical := dax.Rewrite(expr, opts.RowLimit)
		out, err := f.run(ctx, canonical, false)
		if err != nil {
			res := failure(classifyError(err.Error()), err.Error(), dax.Analyze(err.Error(), canonical.Text))
			f.emit(expr, canonical.Text, opts.RowLimit, res)
			return res
		}
		f.store(out)
		res := f.successResult(out)
		f.emit(expr, canonical.Text, opts.RowLimit, res)
		return res
	}

	// Scoped attempt: only worth making when the name resolves to an ID.
	if id, found := f.resolveTableID(ctx, opts.TableName); found {
		cond := fmt.Sprintf("%s = %s", infoFilterColumn[kind], id)
		expr := infoExpr(fn, []string{cond}, opts.FilterExpr)
		canonical := dax.Rewrite(expr, opts.RowLimit)
		out, err := f.run(ctx, canonical, false)
		if err == nil && out.entry.RowCount > 0 {
			f.store(out)
			res := f.successResult(out)
			f.emit(expr, canonical.Text, opts.RowLimit, res)
			return res
		}
		if err != nil {
			f.log.Warn("scoped metadata query failed; refetching unscoped",
				"kind", string(kind), "table", opts.TableName, "error", err)
		} else {
			f.log.Debug("scoped metadata query returned no rows; refetching unscoped",
				"kind", string(kind), "table", opts.TableName)
		}
	}

	// Unscoped fetch, filtered locally. Only this canonical query's result
	// enters the cache; the narrowed view is shaped per call.
	expr := infoExpr(fn, nil, opts.FilterExpr)
	canonical := dax.Rewrite(expr, 0)
	out, err := f.run(ctx, canonical, false)
	if err != nil {
		res := failure(classifyError(err.Error()), err.Error(), dax.Analyze(err.Error(), canonical.Text))
		f.emit(expr, canonical.Text, opts.RowLimit, res)
		return res
	}
	f.store(out)

	rows := f.filterRowsByTable(ctx, kind, out.entry.Rows, opts.TableName)
	localCut := false
	if opts.RowLimit > 0 && len(rows) > opts.RowLimit {
		rows = rows[:opts.RowLimit]
		localCut = true
	}

	res := f.successResult(out)
	res.Rows = rows
	res.RowCount = len(rows)
	res.Truncated = out.entry.Truncated || localCut
	res.ClientFiltered = true
	f.emit(expr, canonical.Text, opts.RowLimit, res)
	return res
}

// resolveTableID looks the table up in the identifier cache, treating any
// resolution error as "not resolvable" so the caller degrades to the
// client-side filter tier instead of failing outright.
func (f *Facade) resolveTableID(ctx context.Context, name string) (string, bool) {
	id, found, err := f.ids.TableIDByName(ctx, name)
	if err != nil {
		f.log.Warn("table id resolution failed; using client-side filter",
			"table", name, "error", err)
		return "", false
	}
	if !found {
		f.log.Debug("table not present in metadata index; using client-side filter",
			"table", name)
		return "", false
	}
	return id, true
}

// infoExpr assembles the introspection expression, wrapping in FILTER when
// any condition applies.
func infoExpr(fn string, conds []string, userFilter string) string {
	all := append([]string{}, conds...)
	if strings.TrimSpace(userFilter) != "" {
		all = append(all, strings.TrimSpace(userFilter))
	}
	if len(all) == 0 {
		return fn
	}
	return fmt.Sprintf("FILTER(%s, %s)", fn, strings.Join(all, " && "))
}

// filterRowsByTable keeps the rows belonging to table, matching
// case-insensitively on trimmed names.
func (f *Facade) filterRowsByTable(ctx context.Context, kind InfoKind, rows []tabular.RowMap, table string) []tabular.RowMap {
	want := schema.NormalizeName(table)
	out := make([]tabular.RowMap, 0, len(rows))
	for _, row := range rows {
		if f.rowMatchesTable(ctx, kind, row, want) {
			out = append(out, row)
		}
	}
	return out
}

func (f *Facade) rowMatchesTable(ctx context.Context, kind InfoKind, row tabular.RowMap, want string) bool {
	if kind == InfoTables {
		name, ok := schema.FieldByAliases(row, infoNameAliases)
		return ok && schema.NormalizeName(name) == want
	}

	// Some engine builds carry the table name directly on the row.
	if name, ok := schema.FieldByAliases(row, infoDirectAliases); ok {
		return schema.NormalizeName(name) == want
	}

	id, ok := schema.FieldByAliases(row, infoClientAliases[kind])
	if !ok {
		return false
	}
	name, found, err := f.ids.TableNameByID(ctx, id)
	if err != nil || !found {
		return false
	}
	return schema.NormalizeName(name) == want
}
