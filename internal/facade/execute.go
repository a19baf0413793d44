package facade

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/facet/internal/cache"
	"github.com/roach88/facet/internal/dax"
	"github.com/roach88/facet/internal/tabular"
)

// execOutcome is one successful canonical-query execution, either served
// from cache or freshly drained from the engine.
type execOutcome struct {
	key       cache.Key
	entry     cache.Entry
	fromCache bool
}

// Execute runs a raw query through the full pipeline: structural
// validation, canonical rewriting, cache lookup (skipped when bypassCache
// is set), engine execution, cache population, and telemetry.
//
// Concurrent calls with the same canonical text may each reach the engine;
// there is no single-flight collapsing, and the last writer's entry stays
// in the cache.
func (f *Facade) Execute(ctx context.Context, query string, rowLimit int, bypassCache bool) Result {
	if msg, ok := validateStructure(query); !ok {
		res := failure(ErrTypeSyntaxValidation, msg, dax.Analyze(msg, query))
		f.emit(query, "", rowLimit, res)
		return res
	}

	canonical := dax.Rewrite(query, rowLimit)
	f.log.Debug("query rewritten", "canonical", canonical.Text, "row_limit", rowLimit)

	out, err := f.run(ctx, canonical, bypassCache)
	if err != nil {
		res := failure(classifyError(err.Error()), err.Error(), dax.Analyze(err.Error(), canonical.Text))
		f.emit(query, canonical.Text, rowLimit, res)
		return res
	}
	f.store(out)

	res := f.successResult(out)
	f.emit(query, canonical.Text, rowLimit, res)
	return res
}

// run executes one canonical query. The cache is consulted first (or
// deliberately skipped), and the engine round trip happens with no cache
// lock held. run never writes the cache; callers decide which outcome is
// worth storing.
func (f *Facade) run(ctx context.Context, canonical dax.Canonical, bypass bool) (execOutcome, error) {
	key := cache.NewKey(canonical.Text, canonical.RowLimit)

	if bypass {
		f.cache.Bypass()
	} else if entry, ok := f.cache.Get(key); ok {
		f.log.Debug("cache hit", "canonical", canonical.Text)
		return execOutcome{key: key, entry: entry, fromCache: true}, nil
	}

	cmd, err := f.conn.Command(canonical.Text)
	if err != nil {
		return execOutcome{}, fmt.Errorf("preparing command: %w", err)
	}
	cmd.SetTimeout(f.timeout)

	start := time.Now()
	cur, err := cmd.ExecuteReader(ctx)
	if err != nil {
		return execOutcome{}, fmt.Errorf("executing query: %w", err)
	}
	rs, err := tabular.Drain(cur, f.rowCap)
	if err != nil {
		return execOutcome{}, fmt.Errorf("reading results: %w", err)
	}
	elapsed := time.Since(start)

	entry := cache.Entry{
		Columns:     rs.Columns,
		Rows:        rs.Rows,
		RowCount:    len(rs.Rows),
		ExecutionMs: float64(elapsed.Microseconds()) / 1000.0,
		Truncated:   rs.Truncated,
		CachedAt:    f.now(),
	}
	f.log.Debug("query executed",
		"canonical", canonical.Text,
		"rows", entry.RowCount,
		"truncated", entry.Truncated,
		"elapsed_ms", entry.ExecutionMs)

	return execOutcome{key: key, entry: entry}, nil
}

// store writes a fresh outcome into the result cache. Cache-served
// outcomes are left alone; re-storing them would reset the entry age.
func (f *Facade) store(out execOutcome) {
	if out.fromCache {
		return
	}
	f.cache.Set(out.key, out.entry)
}

// successResult shapes an outcome into the caller-facing Result.
func (f *Facade) successResult(out execOutcome) Result {
	res := Result{
		Success:     true,
		Columns:     out.entry.Columns,
		Rows:        out.entry.Rows,
		RowCount:    out.entry.RowCount,
		ExecutionMs: out.entry.ExecutionMs,
		Truncated:   out.entry.Truncated,
	}
	if out.fromCache {
		res.Cache = CacheInfo{
			Hit:        true,
			AgeSeconds: f.now().Sub(out.entry.CachedAt).Seconds(),
		}
	} else {
		res.Cache = CacheInfo{
			TTLSeconds: int(f.cache.TTL() / time.Second),
		}
	}
	return res
}
