// Package schema resolves the engine's internal object identifiers into
// human-readable names and back, backed by lazily-populated metadata caches.
//
// The central invariant is unpopulated ≠ empty: a failed population attempt
// leaves an index unpopulated so the next resolve retries, while a
// successful population that finds zero objects stores an empty index that
// is never retried. Conflating the two would either cache a transient
// engine failure forever or re-query the engine on every call against a
// legitimately empty model.
package schema
