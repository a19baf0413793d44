package facade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/facet/internal/testutil"
)

// salesResponder answers metadata and data queries for a two-table model.
func salesResponder(q string) (testutil.Result, error) {
	switch {
	case strings.Contains(q, "INFO.TABLES"):
		return testutil.Result{
			Columns: []string{"[ID]", "[Name]"},
			Rows:    [][]any{{int64(1), "Sales"}, {int64(2), "Customers"}},
		}, nil
	case strings.Contains(q, "INFO.COLUMNS"):
		return testutil.Result{
			Columns: []string{"[ID]", "[TableID]", "[ExplicitName]"},
			Rows: [][]any{
				{int64(10), int64(1), "Amount"},
				{int64(11), int64(1), "Region"},
				{int64(12), int64(2), "Country"},
			},
		}, nil
	default:
		return testutil.Result{
			Columns: []string{"[Value]"},
			Rows:    [][]any{{int64(2)}},
		}, nil
	}
}

func newTestFacade(t *testing.T, conn *testutil.FakeConnection, opts ...Option) *Facade {
	t.Helper()
	f := New(conn, opts...)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestExecute_ScalarMissThenHit(t *testing.T) {
	conn := testutil.NewFakeConnection(salesResponder)
	clock := testutil.NewFakeClock()
	f := newTestFacade(t, conn, WithClock(clock.Now))

	first := f.Execute(context.Background(), "1+1", 10, false)
	require.True(t, first.Success)
	assert.False(t, first.Cache.Hit)
	assert.Equal(t, 1, first.RowCount)
	assert.Equal(t, "2", first.Rows[0]["[Value]"])

	clock.Advance(3 * time.Second)

	second := f.Execute(context.Background(), "1+1", 10, false)
	require.True(t, second.Success)
	assert.True(t, second.Cache.Hit)
	assert.InDelta(t, 3.0, second.Cache.AgeSeconds, 0.001)
	assert.Equal(t, 1, conn.CallCount(`ROW("Value", 1+1)`))

	stats := f.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestExecute_RowLimitPartOfIdentity(t *testing.T) {
	conn := testutil.NewFakeConnection(salesResponder)
	f := newTestFacade(t, conn)

	f.Execute(context.Background(), "'Sales'", 10, false)
	f.Execute(context.Background(), "'Sales'", 20, false)

	assert.Equal(t, 1, conn.CallCount("TOPN(10,"))
	assert.Equal(t, 1, conn.CallCount("TOPN(20,"))
	assert.Equal(t, uint64(2), f.CacheStats().Misses)
}

func TestExecute_DisabledCacheAlwaysExecutes(t *testing.T) {
	conn := testutil.NewFakeConnection(salesResponder)
	f := newTestFacade(t, conn, WithCacheTTL(0))

	for i := 0; i < 3; i++ {
		res := f.Execute(context.Background(), "1+1", 10, false)
		require.True(t, res.Success)
		assert.False(t, res.Cache.Hit)
	}

	stats := f.CacheStats()
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(3), stats.Bypassed)
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, 3, conn.CallCount("ROW("))
}

func TestExecute_BypassSkipsReadButStillWrites(t *testing.T) {
	conn := testutil.NewFakeConnection(salesResponder)
	f := newTestFacade(t, conn)

	f.Execute(context.Background(), "1+1", 10, false)
	res := f.Execute(context.Background(), "1+1", 10, true)
	require.True(t, res.Success)
	assert.False(t, res.Cache.Hit)
	assert.Equal(t, 2, conn.CallCount("ROW("))

	stats := f.CacheStats()
	assert.Equal(t, uint64(1), stats.Bypassed)

	// The bypassed execution refreshed the entry, so a normal read hits.
	third := f.Execute(context.Background(), "1+1", 10, false)
	assert.True(t, third.Cache.Hit)
}

func TestExecute_TTLExpiryReexecutes(t *testing.T) {
	conn := testutil.NewFakeConnection(salesResponder)
	clock := testutil.NewFakeClock()
	f := newTestFacade(t, conn, WithClock(clock.Now), WithCacheTTL(30*time.Second))

	f.Execute(context.Background(), "1+1", 10, false)
	clock.Advance(31 * time.Second)

	res := f.Execute(context.Background(), "1+1", 10, false)
	require.True(t, res.Success)
	assert.False(t, res.Cache.Hit)
	assert.Equal(t, 2, conn.CallCount("ROW("))
}

func TestExecute_StructuralValidationBeforeEngine(t *testing.T) {
	conn := testutil.NewFakeConnection(salesResponder)
	f := newTestFacade(t, conn)

	cases := []struct {
		name  string
		query string
	}{
		{"unclosed paren", "SUM('Sales'[Amount]"},
		{"stray paren", "SUM('Sales'[Amount]))"},
		{"unclosed bracket", "'Sales'[Amount"},
		{"unterminated quote", "'Sales[Amount]"},
		{"unterminated string", `ROW("Value, 1)`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := f.Execute(context.Background(), tc.query, 10, false)
			require.False(t, res.Success)
			assert.Equal(t, ErrTypeSyntaxValidation, res.ErrorType)
			assert.NotEmpty(t, res.Error)
			assert.NotEmpty(t, res.Suggestions)
		})
	}
	assert.Empty(t, conn.Calls(), "invalid queries must never reach the engine")
}

func TestExecute_BalancedQueryInsideStrings(t *testing.T) {
	conn := testutil.NewFakeConnection(salesResponder)
	f := newTestFacade(t, conn)

	// Unbalanced characters inside quoted literals do not count.
	res := f.Execute(context.Background(), `ROW("open (", 1)`, 10, false)
	assert.True(t, res.Success)
}

func TestExecute_ErrorClassification(t *testing.T) {
	cases := []struct {
		name    string
		errText string
		want    ErrorType
	}{
		{"object not found", "table 'Ghost' cannot be found", ErrTypeObjectNotFound},
		{"no such table", "no such table: Ghost", ErrTypeObjectNotFound},
		{"connection closed", "sql: database is closed", ErrTypeEngineUnavailable},
		{"generic failure", "evaluation aborted", ErrTypeQueryExecution},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := testutil.NewFakeConnection(func(string) (testutil.Result, error) {
				return testutil.Result{}, errors.New(tc.errText)
			})
			f := newTestFacade(t, conn)

			res := f.Execute(context.Background(), "1+1", 10, false)
			require.False(t, res.Success)
			assert.Equal(t, tc.want, res.ErrorType)
			assert.Contains(t, res.Error, tc.errText)
			assert.NotEmpty(t, res.Suggestions)
		})
	}
}

func TestExecute_FailuresNeverCached(t *testing.T) {
	fail := true
	conn := testutil.NewFakeConnection(func(q string) (testutil.Result, error) {
		if fail {
			return testutil.Result{}, errors.New("evaluation aborted")
		}
		return salesResponder(q)
	})
	f := newTestFacade(t, conn)

	res := f.Execute(context.Background(), "1+1", 10, false)
	require.False(t, res.Success)

	fail = false
	res = f.Execute(context.Background(), "1+1", 10, false)
	require.True(t, res.Success)
	assert.False(t, res.Cache.Hit, "a failure must not poison the cache")
}

func TestExecute_RowCapTruncates(t *testing.T) {
	conn := testutil.NewFakeConnection(func(q string) (testutil.Result, error) {
		rows := make([][]any, 5)
		for i := range rows {
			rows[i] = []any{fmt.Sprintf("r%d", i)}
		}
		return testutil.Result{Columns: []string{"[Region]"}, Rows: rows}, nil
	})
	f := newTestFacade(t, conn, WithRowCap(3))

	res := f.Execute(context.Background(), "EVALUATE 'Sales'", 0, false)
	require.True(t, res.Success)
	assert.Equal(t, 3, res.RowCount)
	assert.True(t, res.Truncated)
}

func TestExecute_EvaluatePassthrough(t *testing.T) {
	conn := testutil.NewFakeConnection(salesResponder)
	f := newTestFacade(t, conn)

	f.Execute(context.Background(), "  EVALUATE 'Sales'  ", 10, false)

	calls := conn.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "EVALUATE 'Sales'", calls[0])
}

func TestFlushCache(t *testing.T) {
	conn := testutil.NewFakeConnection(salesResponder)
	f := newTestFacade(t, conn)

	f.Execute(context.Background(), "1+1", 10, false)
	f.Execute(context.Background(), "2+2", 10, false)
	assert.Equal(t, 2, f.CacheStats().Size)

	assert.Equal(t, 2, f.FlushCache())
	assert.Equal(t, 0, f.CacheStats().Size)

	res := f.Execute(context.Background(), "1+1", 10, false)
	assert.False(t, res.Cache.Hit)
}

func TestValidateStructure(t *testing.T) {
	msg, ok := validateStructure("SUMMARIZE('Sales', 'Sales'[Region])")
	assert.True(t, ok)
	assert.Empty(t, msg)

	msg, ok = validateStructure("SUM(")
	assert.False(t, ok)
	assert.Contains(t, msg, "parentheses")
}
