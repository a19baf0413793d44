// Package tabular defines the engine-connection surface the façade executes
// against, plus the row serialization rules shared by every execution path.
//
// The analytical engine itself is an external collaborator. This package
// pins down the narrow contract the façade needs (command creation, a
// timeout, a forward-only field cursor) and ships one concrete adapter over
// database/sql so the repo is runnable locally and testable against SQLite.
//
// Serialization rules (applied in Drain):
//   - date/time values become ISO-8601 (RFC 3339) strings
//   - null stays an explicit nil
//   - every other non-null value becomes its string representation
//   - a read error on a single column degrades that cell to the CellError
//     sentinel instead of aborting the row
package tabular
