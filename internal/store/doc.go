// Package store provides a SQLite-backed run log and result memo for
// embedding solves.
//
// The store holds:
//   - Runs: one row per batch run, keyed by run ID
//   - Solves: one row per (run, seq), recording the request fingerprint,
//     status, witness and search statistics
//
// Definitive results (found, exhausted) are looked up by request
// fingerprint so a repeated question is answered without searching again.
// Timed-out rows are logged but never served from the memo.
//
// # Determinism
//
//   - All ordering uses seq INTEGER (logical clock), never timestamps
//   - Queries order by seq ASC, with run ID COLLATE BINARY as tiebreak
//   - Witnesses are stored as canonical JSON
//
// # Database Configuration
//
// The store only ever lives at ":memory:", so nothing outlives the process.
// A single connection is kept open; every new connection to ":memory:"
// would otherwise see its own empty database. foreign_keys=ON makes a
// solve row require its run.
package store
