package tabular

import (
	"fmt"
	"time"
)

// CellError is the sentinel stored in a cell whose value could not be read.
// A single bad cell never aborts its row.
const CellError = "#ERROR"

// Rowset is the drained, serialized form of a cursor.
type Rowset struct {
	Columns   []string
	Rows      []RowMap
	Truncated bool
}

// Drain reads every row from the cursor, serializing cell values, up to the
// maxRows safety cap. The cap is independent of any query-level limit; when
// it stops the read early the Rowset is marked Truncated. Drain closes the
// cursor before returning.
func Drain(cur Cursor, maxRows int) (Rowset, error) {
	defer cur.Close()

	n := cur.FieldCount()
	columns := make([]string, n)
	for i := 0; i < n; i++ {
		columns[i] = cur.FieldName(i)
	}

	rs := Rowset{Columns: columns}
	for {
		more, err := cur.Read()
		if err != nil {
			return Rowset{}, fmt.Errorf("read row: %w", err)
		}
		if !more {
			return rs, nil
		}
		if maxRows > 0 && len(rs.Rows) >= maxRows {
			rs.Truncated = true
			return rs, nil
		}

		row := make(RowMap, n)
		for i := 0; i < n; i++ {
			v, err := cur.Value(i)
			if err != nil {
				row[columns[i]] = CellError
				continue
			}
			row[columns[i]] = SerializeValue(v)
		}
		rs.Rows = append(rs.Rows, row)
	}
}

// SerializeValue converts an engine value into its wire shape: nil for null,
// RFC 3339 for anything with a date/time shape, and the string
// representation for everything else.
func SerializeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format(time.RFC3339)
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.Format(time.RFC3339)
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

// CopyRows returns a deep-enough copy of rows for cache ownership: a new
// slice of new maps. Cell values are already immutable serialized scalars.
func CopyRows(rows []RowMap) []RowMap {
	if rows == nil {
		return nil
	}
	out := make([]RowMap, len(rows))
	for i, row := range rows {
		m := make(RowMap, len(row))
		for k, v := range row {
			m[k] = v
		}
		out[i] = m
	}
	return out
}

// CopyColumns returns a copy of the column name slice.
func CopyColumns(cols []string) []string {
	if cols == nil {
		return nil
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}
