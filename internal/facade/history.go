package facade

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/facet/internal/tabular"
)

// maxSampleRows bounds how many result rows a history record carries.
const maxSampleRows = 5

// Record captures one top-level façade call for telemetry.
type Record struct {
	ID            string           `json:"id"`
	Timestamp     time.Time        `json:"timestamp"`
	OriginalQuery string           `json:"original_query"`
	FinalQuery    string           `json:"final_query"`
	RowLimit      int              `json:"row_limit"`
	Success       bool             `json:"success"`
	RowCount      int              `json:"row_count"`
	ExecutionMs   float64          `json:"execution_ms"`
	CacheHit      bool             `json:"cache_hit"`
	Error         string           `json:"error,omitempty"`
	SampleRows    []tabular.RowMap `json:"sample_rows,omitempty"`
}

// HistorySink receives one Record per top-level call. Implementations
// must not retain the sample rows past the call.
type HistorySink interface {
	Record(rec Record)
}

// HistoryFunc adapts a function to HistorySink.
type HistoryFunc func(rec Record)

// Record implements HistorySink.
func (fn HistoryFunc) Record(rec Record) { fn(rec) }

// emit delivers one history record. A panicking sink is contained here:
// telemetry must never take down the query path.
func (f *Facade) emit(original, final string, rowLimit int, res Result) {
	f.mu.Lock()
	sink := f.history
	f.mu.Unlock()
	if sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			f.log.Warn("history sink panicked", "panic", r)
		}
	}()

	rec := Record{
		ID:            uuid.Must(uuid.NewV7()).String(),
		Timestamp:     f.now(),
		OriginalQuery: original,
		FinalQuery:    final,
		RowLimit:      rowLimit,
		Success:       res.Success,
		RowCount:      res.RowCount,
		ExecutionMs:   res.ExecutionMs,
		CacheHit:      res.Cache.Hit,
		Error:         res.Error,
	}
	if n := len(res.Rows); n > 0 {
		if n > maxSampleRows {
			n = maxSampleRows
		}
		rec.SampleRows = tabular.CopyRows(res.Rows[:n])
	}
	sink.Record(rec)
}
