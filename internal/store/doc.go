// Package store provides the SQLite-backed storage adapter for the taxonomy.
//
// The store owns two tables:
//   - category: category_id (AUTOINCREMENT, never reused) and category_name
//   - category_path: the closure table, one row per (ancestor, descendant)
//     pair including the reflexive pair (c, c)
//
// All access goes through a transaction. WithReadTx and WithTx run a
// callback against a *Tx; the transaction is committed only if the callback
// returns nil, otherwise everything is rolled back.
//
// # Critical Patterns
//
// Deterministic Query Results
//   - Every multi-row read ends with ORDER BY, category_id ASC last
//   - Empty results are empty slices, never nil
//
// Serialized Writers
//   - Write transactions begin with BEGIN IMMEDIATE (_txlock=immediate), so
//     two overlapping mutations can never interleave; the second waits for
//     the write lock and fails once busy_timeout expires
//
// Concurrent Readers
//   - Read transactions run on a separate query-only handle with
//     BEGIN DEFERRED, so they take no write lock and overlap freely with
//     each other and with a writer
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
