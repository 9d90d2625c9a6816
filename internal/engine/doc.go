// Package engine implements the taxonomy queries and structural mutations
// over a closure-table store.
//
// Every public operation runs in exactly one store transaction. Reads use
// WithReadTx and observe one consistent snapshot; mutations use WithTx and
// either commit every closure-row change they made or none of them.
//
// Move keeps the closure complete incrementally. With S the moved node plus
// its descendants, it deletes (a, d) for every strict ancestor a of the node
// and d in S, then inserts (a, d) for the new parent and each of its
// ancestors. Paths internal to S are never touched.
//
// In strict mode the engine reads the full snapshot inside the mutation's
// transaction before commit and runs validate.Check over it. A violation
// aborts the mutation with INTEGRITY_VIOLATION.
//
// The engine holds no state besides the store handle, so it is safe for
// concurrent use; the store serializes write transactions.
package engine
