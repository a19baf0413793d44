// Package harness runs YAML-defined conformance scenarios against a real
// facade backed by an in-memory local engine.
//
// A scenario seeds the engine with SQL, then walks a flow of facade calls
// (execute, info, table), checking per-step expectations and recording a
// deterministic trace. Traces exclude timings so they can be compared
// against golden files byte-for-byte.
//
// # Scenario Format
//
//	name: cache-round-trip
//	description: A repeated query is served from the cache.
//	setup:
//	  - CREATE TABLE Sales (Region TEXT)
//	  - INSERT INTO Sales VALUES ('EMEA')
//	flow:
//	  - op: execute
//	    query: "'Sales'"
//	    limit: 10
//	    expect:
//	      success: true
//	      cache_hit: false
package harness
