// Package store keeps the history of finalized runs in SQLite.
//
// Each saved run stores three levels:
//   - Runs: run ID, report name, report digest and summary counts
//   - Declarations: status, source kind and a per-declaration digest
//   - Invocations: index, display name, raw arguments as canonical JSON,
//     final state and failure text
//
// # Ordering
//
// Runs are ordered by an insertion sequence, never by created_at.
// Invocations are ordered by declaration position, then index, so reading
// a run back yields the report's own order.
//
// # Idempotency
//
// Saving the same run twice is a no-op when the digest matches and an error
// when it does not.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
