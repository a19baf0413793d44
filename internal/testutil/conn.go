// Package testutil provides shared test doubles: a scriptable engine
// connection and a settable wall clock.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/roach88/facet/internal/tabular"
)

// Result is the scripted outcome of one fake execution.
type Result struct {
	Columns []string
	Rows    [][]any
}

// FakeConnection implements tabular.Connection with a caller-supplied
// responder. Every executed query text is recorded, which lets tests count
// population attempts and assert on the exact canonical queries issued.
//
// Safe for concurrent use.
type FakeConnection struct {
	mu      sync.Mutex
	calls   []string
	respond func(query string) (Result, error)
	closed  bool
}

// NewFakeConnection creates a fake whose executions are answered by respond.
func NewFakeConnection(respond func(query string) (Result, error)) *FakeConnection {
	return &FakeConnection{respond: respond}
}

// SetResponder swaps the responder, e.g. to fail first and succeed later.
func (f *FakeConnection) SetResponder(respond func(query string) (Result, error)) {
	f.mu.Lock()
	f.respond = respond
	f.mu.Unlock()
}

// Calls returns a copy of all executed query texts, in order.
func (f *FakeConnection) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many executed queries contain substr.
func (f *FakeConnection) CallCount(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.Contains(c, substr) {
			n++
		}
	}
	return n
}

// Command implements tabular.Connection.
func (f *FakeConnection) Command(text string) (tabular.Command, error) {
	return &fakeCommand{conn: f, text: text}, nil
}

// Close implements tabular.Connection.
func (f *FakeConnection) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

type fakeCommand struct {
	conn *FakeConnection
	text string
}

func (c *fakeCommand) SetTimeout(time.Duration) {}

func (c *fakeCommand) ExecuteReader(ctx context.Context) (tabular.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.conn.mu.Lock()
	c.conn.calls = append(c.conn.calls, c.text)
	respond := c.conn.respond
	c.conn.mu.Unlock()

	res, err := respond(c.text)
	if err != nil {
		return nil, err
	}
	return &fakeCursor{cols: res.Columns, rows: res.Rows}, nil
}

type fakeCursor struct {
	cols []string
	rows [][]any
	pos  int
}

func (c *fakeCursor) FieldCount() int        { return len(c.cols) }
func (c *fakeCursor) FieldName(i int) string { return c.cols[i] }

func (c *fakeCursor) Read() (bool, error) {
	if c.pos >= len(c.rows) {
		return false, nil
	}
	c.pos++
	return true, nil
}

func (c *fakeCursor) Value(i int) (any, error) {
	return c.rows[c.pos-1][i], nil
}

func (c *fakeCursor) Close() error { return nil }
