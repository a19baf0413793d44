package tabular

import (
	"context"
	"time"
)

// RowMap is one result row keyed by column name.
type RowMap = map[string]any

// Connection is the engine connection the façade executes against.
// Implementations must be safe for concurrent Command calls; the façade
// shares one connection across request-handling goroutines.
type Connection interface {
	// Command prepares an executable command for the given query text.
	Command(text string) (Command, error)

	// Close releases the connection.
	Close() error
}

// Command is a single prepared execution against the engine.
type Command interface {
	// SetTimeout bounds the execution. Zero means no explicit bound.
	SetTimeout(d time.Duration)

	// ExecuteReader runs the command and returns a forward-only cursor.
	// A timeout set via SetTimeout surfaces as an ordinary error from
	// either ExecuteReader or a subsequent Cursor.Read.
	ExecuteReader(ctx context.Context) (Cursor, error)
}

// Cursor is a forward-only reader over an executed command's rows.
type Cursor interface {
	// FieldCount returns the number of result columns.
	FieldCount() int

	// FieldName returns the name of column i.
	FieldName(i int) string

	// Read advances to the next row. Returns false when exhausted.
	Read() (bool, error)

	// Value returns the raw value of column i for the current row.
	Value(i int) (any, error)

	// Close releases the cursor.
	Close() error
}
