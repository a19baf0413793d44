package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/facet/internal/facade"
	"github.com/roach88/facet/internal/tabular"
)

// TraceEvent is one flow step's deterministic outcome. Timings are
// deliberately excluded so traces compare byte-for-byte across runs.
type TraceEvent struct {
	Seq            int    `json:"seq"`
	Op             string `json:"op"`
	Query          string `json:"query,omitempty"`
	Success        bool   `json:"success"`
	RowCount       int    `json:"row_count"`
	CacheHit       bool   `json:"cache_hit,omitempty"`
	ClientFiltered bool   `json:"client_filtered,omitempty"`
	TableReference string `json:"table_reference,omitempty"`
	ErrorType      string `json:"error_type,omitempty"`
}

// Result holds a scenario execution's trace and expectation failures.
type Result struct {
	Trace    []TraceEvent
	Failures []string
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Run executes a scenario against a fresh in-memory local engine fronted
// by a real facade. Setup errors abort the run; expectation mismatches
// are collected into the result instead.
func Run(scenario *Scenario) (*Result, error) {
	eng, err := tabular.OpenLocalEngine(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open local engine: %w", err)
	}

	if len(scenario.Setup) > 0 {
		if err := eng.Exec(scenario.Setup...); err != nil {
			eng.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	// Scenario runs stay quiet; failures surface through expectations.
	f := facade.New(eng,
		facade.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	defer f.Close()

	result := &Result{}
	for i, step := range scenario.Flow {
		res := runStep(f, step)
		result.Trace = append(result.Trace, TraceEvent{
			Seq:            i + 1,
			Op:             step.Op,
			Query:          stepQuery(step),
			Success:        res.Success,
			RowCount:       res.RowCount,
			CacheHit:       res.Cache.Hit,
			ClientFiltered: res.ClientFiltered,
			TableReference: res.TableReferenceUsed,
			ErrorType:      string(res.ErrorType),
		})
		result.Failures = append(result.Failures, checkExpect(i, step.Expect, res)...)
	}
	return result, nil
}

func runStep(f *facade.Facade, step Step) facade.Result {
	ctx := context.Background()
	switch step.Op {
	case OpInfo:
		return f.ExecuteInfoQuery(ctx, facade.InfoKind(step.Kind), facade.InfoOptions{
			TableName: step.Table,
			RowLimit:  step.Limit,
		})
	case OpTable:
		return f.ExecuteWithTableFallback(ctx, step.Table, step.Limit)
	default:
		return f.Execute(ctx, step.Query, step.Limit, step.BypassCache)
	}
}

// stepQuery builds the trace's query descriptor for a step.
func stepQuery(step Step) string {
	switch step.Op {
	case OpInfo:
		if step.Table != "" {
			return fmt.Sprintf("%s table=%s", step.Kind, step.Table)
		}
		return step.Kind
	case OpTable:
		return step.Table
	default:
		return step.Query
	}
}

// checkExpect compares a result against a step's expectations. Only set
// fields are checked; each mismatch yields one failure line.
func checkExpect(index int, expect *ExpectClause, res facade.Result) []string {
	if expect == nil {
		return nil
	}

	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf("flow[%d]: ", index)+fmt.Sprintf(format, args...))
	}

	if expect.Success != nil && res.Success != *expect.Success {
		fail("expected success=%v, got %v (error: %s)", *expect.Success, res.Success, res.Error)
	}
	if expect.CacheHit != nil && res.Cache.Hit != *expect.CacheHit {
		fail("expected cache_hit=%v, got %v", *expect.CacheHit, res.Cache.Hit)
	}
	if expect.ClientFiltered != nil && res.ClientFiltered != *expect.ClientFiltered {
		fail("expected client_filtered=%v, got %v", *expect.ClientFiltered, res.ClientFiltered)
	}
	if expect.RowCount != nil && res.RowCount != *expect.RowCount {
		fail("expected row_count=%d, got %d", *expect.RowCount, res.RowCount)
	}
	if expect.TableReference != "" && res.TableReferenceUsed != expect.TableReference {
		fail("expected table_reference=%s, got %s", expect.TableReference, res.TableReferenceUsed)
	}
	if expect.ErrorType != "" && string(res.ErrorType) != expect.ErrorType {
		fail("expected error_type=%s, got %s", expect.ErrorType, res.ErrorType)
	}
	if expect.Rows != nil && !rowsMatch(expect.Rows, res.Rows) {
		fail("expected rows %v, got %v", expect.Rows, res.Rows)
	}
	return failures
}

// rowsMatch compares expected rows against result rows exactly, in order.
func rowsMatch(want []map[string]any, got []tabular.RowMap) bool {
	if len(want) != len(got) {
		return false
	}
	for i, w := range want {
		g := got[i]
		if len(w) != len(g) {
			return false
		}
		for k, v := range w {
			gv, ok := g[k]
			if !ok || fmt.Sprint(gv) != fmt.Sprint(v) {
				return false
			}
		}
	}
	return true
}
