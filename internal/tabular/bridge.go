package tabular

import (
	"fmt"
	"strconv"
	"strings"
)

// LocalEngine is a SQLite-backed stand-in engine that accepts canonical
// query text and translates it to SQL before execution. It exists so the
// CLI and the scenario harness can run against a local database file with
// no remote engine available.
//
// The translation covers the canonical shapes the rewriter produces:
// TOPN-limited table fetches, scalar ROW projections, and the INFO
// introspection family. Server-side FILTER over INFO functions is
// rejected, which pushes metadata scoping onto the client-side tier.
type LocalEngine struct {
	inner *SQLConnection
}

// OpenLocalEngine opens a SQLite file as a stand-in engine.
func OpenLocalEngine(path string) (*LocalEngine, error) {
	inner, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return &LocalEngine{inner: inner}, nil
}

// Command translates the canonical text and prepares the SQL command.
func (e *LocalEngine) Command(text string) (Command, error) {
	sqlText, err := translateQuery(text)
	if err != nil {
		return nil, err
	}
	return e.inner.Command(sqlText)
}

// Close closes the underlying database.
func (e *LocalEngine) Close() error {
	return e.inner.Close()
}

// Exec runs raw SQL statements directly against the database, bypassing
// translation. Used to seed local models.
func (e *LocalEngine) Exec(stmts ...string) error {
	if e.inner == nil || e.inner.db == nil {
		return fmt.Errorf("connection is closed")
	}
	for _, stmt := range stmts {
		if _, err := e.inner.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

// Introspection queries, shaped to carry the bracketed field names the
// identifier cache looks for. Column IDs are synthesized from the table
// rowid and the column ordinal.
const (
	tablesSQL = `SELECT rowid AS "[ID]", name AS "[Name]"
FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY rowid`

	columnsSQL = `SELECT m.rowid * 1000 + p.cid AS "[ID]", m.rowid AS "[TableID]", p.name AS "[ExplicitName]"
FROM sqlite_master m, pragma_table_info(m.name) p
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%' ORDER BY m.rowid, p.cid`

	measuresSQL = `SELECT NULL AS "[ID]", NULL AS "[TableID]", NULL AS "[Name]" WHERE 0`

	relationshipsSQL = `SELECT m.rowid AS "[ID]", m.rowid AS "[FromTableID]", f."table" AS "[ToTable]", f."from" AS "[FromColumn]", f."to" AS "[ToColumn]"
FROM sqlite_master m, pragma_foreign_key_list(m.name) f
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'`
)

// translateQuery maps canonical query text onto SQLite SQL.
func translateQuery(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "EVALUATE") {
		return "", fmt.Errorf("unsupported query: missing EVALUATE prefix")
	}
	expr := strings.TrimSpace(trimmed[len("EVALUATE"):])

	limit := 0
	if inner, n, ok := splitTopN(expr); ok {
		expr = inner
		limit = n
	}

	body, err := translateExpr(expr)
	if err != nil {
		return "", err
	}
	if limit > 0 {
		body = fmt.Sprintf("%s LIMIT %d", body, limit)
	}
	return body, nil
}

func translateExpr(expr string) (string, error) {
	upper := strings.ToUpper(expr)
	switch {
	case upper == "INFO.TABLES()":
		return tablesSQL, nil
	case upper == "INFO.COLUMNS()":
		return columnsSQL, nil
	case upper == "INFO.MEASURES()":
		return measuresSQL, nil
	case upper == "INFO.RELATIONSHIPS()":
		return relationshipsSQL, nil
	case strings.HasPrefix(upper, "FILTER(INFO."):
		return "", fmt.Errorf("FILTER over INFO functions is not supported by the local engine")
	case strings.HasPrefix(upper, `ROW("`):
		return translateRow(expr)
	}

	if name, ok := tableRefName(expr); ok {
		return fmt.Sprintf(`SELECT * FROM "%s"`, name), nil
	}
	return "", fmt.Errorf("unsupported expression for local engine: %s", expr)
}

// splitTopN unwraps TOPN(n, inner). Returns ok=false for anything else.
func splitTopN(expr string) (inner string, n int, ok bool) {
	upper := strings.ToUpper(expr)
	if !strings.HasPrefix(upper, "TOPN(") || !strings.HasSuffix(expr, ")") {
		return "", 0, false
	}
	args := expr[len("TOPN(") : len(expr)-1]
	comma := strings.Index(args, ",")
	if comma < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[:comma]))
	if err != nil || n <= 0 {
		return "", 0, false
	}
	return strings.TrimSpace(args[comma+1:]), n, true
}

// translateRow maps ROW("Value", <expr>) onto a single-cell projection.
func translateRow(expr string) (string, error) {
	if !strings.HasSuffix(expr, ")") {
		return "", fmt.Errorf("malformed ROW expression: %s", expr)
	}
	args := expr[len(`ROW(`) : len(expr)-1]
	closeQuote := strings.Index(args[1:], `"`)
	if !strings.HasPrefix(args, `"`) || closeQuote < 0 {
		return "", fmt.Errorf("malformed ROW expression: %s", expr)
	}
	label := args[1 : closeQuote+1]
	rest := strings.TrimSpace(args[closeQuote+2:])
	if !strings.HasPrefix(rest, ",") {
		return "", fmt.Errorf("malformed ROW expression: %s", expr)
	}
	scalar := strings.TrimSpace(rest[1:])
	if scalar == "" {
		return "", fmt.Errorf("empty scalar in ROW expression")
	}
	return fmt.Sprintf(`SELECT (%s) AS "[%s]"`, scalar, label), nil
}

// tableRefName recognizes the three table-reference forms and returns the
// bare name.
func tableRefName(expr string) (string, bool) {
	if len(expr) >= 3 {
		if strings.HasPrefix(expr, "'") && strings.HasSuffix(expr, "'") {
			name := expr[1 : len(expr)-1]
			if name != "" && !strings.Contains(name, "'") {
				return name, true
			}
		}
		if strings.HasPrefix(expr, "[") && strings.HasSuffix(expr, "]") {
			name := expr[1 : len(expr)-1]
			if name != "" && !strings.Contains(name, "]") {
				return name, true
			}
		}
	}
	if isBareIdentifier(expr) {
		return expr, true
	}
	return "", false
}

func isBareIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
			continue
		}
		if i > 0 && c >= '0' && c <= '9' {
			continue
		}
		return false
	}
	return true
}
