// Package embed searches for an embedding of an implementation's framed
// partial order into a spacetime under a theory.
//
// A solve moves through Init -> Searching -> {Found, Exhausted, TimedOut}:
//
//   - Init validates the implementation, the spacetime and any boundary
//     pins, applies the pigeonhole bound (more FPO nodes than points is
//     Exhausted without consulting the theory), then checks that the theory
//     admits every component.
//   - Searching walks FPO nodes in one fixed topological order with an
//     explicit frame stack. Candidates for a node are tried in point
//     insertion order, skipping points already used. A candidate must not
//     invert any FPO-comparable pair against an assigned node, and the full
//     partial assignment must pass the theory.
//   - The deadline (Timeout, or an earlier context deadline) is polled at
//     every expansion. Expiry or cancellation ends the search as TimedOut,
//     which means "undetermined", never "not embeddable".
//
// Solves are single-threaded and deterministic: identical inputs produce
// the same Result and Stats (apart from Elapsed). Independent solves may run
// concurrently; a Solver holds no per-solve state.
package embed
