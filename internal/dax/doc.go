// Package dax rewrites raw DAX-like expressions into canonical executable
// queries and provides the advisory error analyzer.
//
// Everything in this package is pure: no connection access, no shared state,
// deterministic output for a given input. The rewriter never validates
// semantic correctness: a syntactically hopeless input still produces a
// canonical query, and the engine's rejection surfaces as a normal
// execution error downstream.
//
// Key design constraints:
//   - Every canonical query begins with the EVALUATE keyword, on every path.
//   - Rewriting already-canonical text is the identity (idempotence).
//   - Scalar expressions are wrapped as a single-row, single-column named
//     projection so every canonical query has a uniform row/column shape.
package dax
