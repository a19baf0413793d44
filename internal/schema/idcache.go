package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/roach88/facet/internal/tabular"
)

// Metadata queries used to populate the indexes.
const (
	tablesQuery  = "EVALUATE INFO.TABLES()"
	columnsQuery = "EVALUATE INFO.COLUMNS()"
)

// Field alias lists, checked in priority order. Engine builds differ on
// whether INFO results carry bracketed or bare identifiers.
var (
	idAliases      = []string{"[ID]", "ID"}
	nameAliases    = []string{"[Name]", "Name"}
	tableIDAliases = []string{"[TableID]", "TableID"}
	colNameAliases = []string{"[ExplicitName]", "ExplicitName", "[InferredName]", "InferredName", "[Name]", "Name"}
)

// tableIndex is the populated state of the table maps. A nil *tableIndex is
// the unpopulated sentinel; a non-nil index with empty maps means the model
// legitimately has no tables and population will not be retried.
type tableIndex struct {
	idByName map[string]string // lower-cased trimmed name -> ID
	nameByID map[string]string // ID -> original name
}

// columnIndex mirrors tableIndex for column ID -> name resolution.
type columnIndex struct {
	nameByID map[string]string
}

// IdentifierCache lazily resolves table names/IDs and column IDs through
// metadata queries issued on the shared engine connection.
//
// Concurrency: the mutex guards only the index pointers. Population queries
// run outside the lock and installation is last-write-wins: two callers that
// both observe an unpopulated index will both query the engine, and the
// later result replaces the earlier. An accepted cost, documented in the
// package tests.
type IdentifierCache struct {
	conn    tabular.Connection
	timeout time.Duration
	log     *slog.Logger

	mu      sync.Mutex // guards the index pointers only
	tables  *tableIndex
	columns *columnIndex
}

// NewIdentifierCache creates an unpopulated cache over the connection.
// timeout bounds each population query; zero means unbounded.
func NewIdentifierCache(conn tabular.Connection, timeout time.Duration, log *slog.Logger) *IdentifierCache {
	if log == nil {
		log = slog.Default()
	}
	return &IdentifierCache{
		conn:    conn,
		timeout: timeout,
		log:     log,
	}
}

// TableIDByName resolves a table name (case-insensitive, trimmed) to its
// internal ID, populating the table index inline on first use.
func (c *IdentifierCache) TableIDByName(ctx context.Context, name string) (string, bool, error) {
	idx, err := c.ensureTables(ctx)
	if err != nil {
		return "", false, err
	}
	id, ok := idx.idByName[normalizeName(name)]
	return id, ok, nil
}

// TableNameByID resolves an internal table ID to its name.
func (c *IdentifierCache) TableNameByID(ctx context.Context, id string) (string, bool, error) {
	idx, err := c.ensureTables(ctx)
	if err != nil {
		return "", false, err
	}
	name, ok := idx.nameByID[strings.TrimSpace(id)]
	return name, ok, nil
}

// ColumnNameByID resolves an internal column ID to its explicit name.
func (c *IdentifierCache) ColumnNameByID(ctx context.Context, id string) (string, bool, error) {
	idx, err := c.ensureColumns(ctx)
	if err != nil {
		return "", false, err
	}
	name, ok := idx.nameByID[strings.TrimSpace(id)]
	return name, ok, nil
}

// Invalidate drops both indexes back to the unpopulated state.
func (c *IdentifierCache) Invalidate() {
	c.mu.Lock()
	c.tables = nil
	c.columns = nil
	c.mu.Unlock()
}

// ensureTables returns the populated table index, populating it inline when
// the cache is in the unpopulated state. On population failure the index
// stays nil so the next caller retries.
func (c *IdentifierCache) ensureTables(ctx context.Context) (*tableIndex, error) {
	c.mu.Lock()
	idx := c.tables
	c.mu.Unlock()
	if idx != nil {
		return idx, nil
	}

	rs, err := c.query(ctx, tablesQuery)
	if err != nil {
		c.log.Warn("table metadata population failed; will retry on next resolve", "error", err)
		return nil, fmt.Errorf("populate tables: %w", err)
	}

	built := &tableIndex{
		idByName: make(map[string]string, len(rs.Rows)),
		nameByID: make(map[string]string, len(rs.Rows)),
	}
	for _, row := range rs.Rows {
		id, okID := fieldByAliases(row, idAliases)
		name, okName := fieldByAliases(row, nameAliases)
		if !okID || !okName {
			continue
		}
		built.idByName[normalizeName(name)] = id
		built.nameByID[strings.TrimSpace(id)] = name
	}

	// Last-write-wins: a concurrent populator may already have installed
	// an index; the later store replaces it.
	c.mu.Lock()
	c.tables = built
	c.mu.Unlock()

	c.log.Debug("table metadata populated", "tables", len(built.nameByID))
	return built, nil
}

// ensureColumns mirrors ensureTables for the column index.
func (c *IdentifierCache) ensureColumns(ctx context.Context) (*columnIndex, error) {
	c.mu.Lock()
	idx := c.columns
	c.mu.Unlock()
	if idx != nil {
		return idx, nil
	}

	rs, err := c.query(ctx, columnsQuery)
	if err != nil {
		c.log.Warn("column metadata population failed; will retry on next resolve", "error", err)
		return nil, fmt.Errorf("populate columns: %w", err)
	}

	built := &columnIndex{nameByID: make(map[string]string, len(rs.Rows))}
	for _, row := range rs.Rows {
		id, okID := fieldByAliases(row, idAliases)
		name, okName := fieldByAliases(row, colNameAliases)
		if !okID || !okName {
			continue
		}
		built.nameByID[strings.TrimSpace(id)] = name
	}

	c.mu.Lock()
	c.columns = built
	c.mu.Unlock()

	c.log.Debug("column metadata populated", "columns", len(built.nameByID))
	return built, nil
}

func (c *IdentifierCache) query(ctx context.Context, text string) (tabular.Rowset, error) {
	cmd, err := c.conn.Command(text)
	if err != nil {
		return tabular.Rowset{}, err
	}
	if c.timeout > 0 {
		cmd.SetTimeout(c.timeout)
	}
	cur, err := cmd.ExecuteReader(ctx)
	if err != nil {
		return tabular.Rowset{}, err
	}
	return tabular.Drain(cur, 0)
}

// TableFieldAliases returns the alias list for a row's own table-reference
// attribute, used by client-side metadata filtering.
func TableFieldAliases() []string {
	return tableIDAliases
}

// FieldByAliases returns the first non-empty value among the aliased field
// spellings, serialized to a string.
func FieldByAliases(row tabular.RowMap, aliases []string) (string, bool) {
	return fieldByAliases(row, aliases)
}

func fieldByAliases(row tabular.RowMap, aliases []string) (string, bool) {
	for _, alias := range aliases {
		v, ok := row[alias]
		if !ok || v == nil {
			continue
		}
		s := fmt.Sprint(v)
		if s != "" {
			return s, true
		}
	}
	return "", false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeName exposes the name-matching normalization (trim + lower) used
// for all table name comparisons.
func NormalizeName(name string) string {
	return normalizeName(name)
}
