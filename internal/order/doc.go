// Package order implements the finite strict partial order shared by
// implementation skeletons and spacetimes.
//
// An Order is a set of string IDs (insertion order preserved) plus direct
// precedence relations. The transitive closure is kept as one bitset row per
// ID, rebuilt lazily after the next mutation, so comparability queries are
// O(1) once the closure is warm.
//
// INVARIANTS:
//   - The closure is irreflexive and acyclic at all times.
//   - A rejected mutation leaves the order exactly as it was.
//   - Iteration order (Points, Relations, TopologicalOrder) is a pure function
//     of the mutation history; nothing depends on map iteration order.
//
// Orders are not safe for concurrent mutation. Concurrent readers are safe
// only after the closure has been warmed (any query warms it) and no writer
// is active.
package order
