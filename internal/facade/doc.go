// Package facade is the query-execution façade placed in front of a remote
// tabular analytical engine.
//
// A Facade owns all mutable shared state: the result cache, the identifier
// resolution caches, and the execution counters. Callers construct one
// explicitly and pass it to every consumer; there are no package-level
// singletons. All public entry points are safe for concurrent use from
// multiple request-handling goroutines sharing one engine connection.
//
// Execution flow: rewrite → cache lookup → engine execute (outside the
// cache lock) → identifier translation → cache store → telemetry → caller.
// Two fallback tiers wrap this flow: alternate table-reference quoting for
// row fetches, and unscoped-refetch-plus-client-filter for table-scoped
// metadata queries on engine builds that silently refuse server-side
// filters on internal-ID columns.
package facade
