package tabular

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLConnection adapts a database/sql handle to the Connection contract.
// The default driver is SQLite, used by the CLI for local models and by the
// test harness; any database/sql driver with positional results works.
type SQLConnection struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite-backed connection at the given path.
//
// The handle is configured the same way the event store would be:
// single writer, one idle connection, busy timeout applied via pragma.
func OpenSQLite(path string) (*SQLConnection, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}

	return &SQLConnection{db: db}, nil
}

// NewSQLConnection wraps an existing database handle. The caller keeps
// ownership of pool configuration; Close closes the handle.
func NewSQLConnection(db *sql.DB) *SQLConnection {
	return &SQLConnection{db: db}
}

// Command prepares a command for the given query text.
func (c *SQLConnection) Command(text string) (Command, error) {
	if c.db == nil {
		return nil, fmt.Errorf("connection is closed")
	}
	return &sqlCommand{db: c.db, text: text}, nil
}

// Close closes the underlying database handle.
func (c *SQLConnection) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

type sqlCommand struct {
	db      *sql.DB
	text    string
	timeout time.Duration
}

func (c *sqlCommand) SetTimeout(d time.Duration) {
	c.timeout = d
}

func (c *sqlCommand) ExecuteReader(ctx context.Context) (Cursor, error) {
	cancel := func() {}
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	rows, err := c.db.QueryContext(ctx, c.text)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("execute: %w", err)
	}

	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		cancel()
		return nil, fmt.Errorf("columns: %w", err)
	}

	return &sqlCursor{rows: rows, cols: cols, cancel: cancel}, nil
}

type sqlCursor struct {
	rows    *sql.Rows
	cols    []string
	cancel  context.CancelFunc
	current []any
}

func (c *sqlCursor) FieldCount() int {
	return len(c.cols)
}

func (c *sqlCursor) FieldName(i int) string {
	return c.cols[i]
}

func (c *sqlCursor) Read() (bool, error) {
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return false, err
		}
		return false, nil
	}

	vals := make([]any, len(c.cols))
	ptrs := make([]any, len(c.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return false, fmt.Errorf("scan: %w", err)
	}
	c.current = vals
	return true, nil
}

func (c *sqlCursor) Value(i int) (any, error) {
	if c.current == nil {
		return nil, fmt.Errorf("no current row")
	}
	if i < 0 || i >= len(c.current) {
		return nil, fmt.Errorf("column index %d out of range", i)
	}
	return c.current[i], nil
}

func (c *sqlCursor) Close() error {
	defer c.cancel()
	return c.rows.Close()
}
