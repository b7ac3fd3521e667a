// Package model holds the structures the embedding solver operates on.
//
//   - Process: a named black box with ordered input and output labels.
//   - FramedPartialOrder: a causal order whose nodes are split into boundary
//     inputs, boundary outputs and internal nodes.
//   - Implementation: a Process, an FPO realizing its boundary, and one
//     Component per internal node.
//   - Spacetime: a causal order over named points, the embedding target.
//
// Implementations are assembled incrementally and may be transiently
// invalid; Validate is called by the solver at entry, never during
// construction. Construction errors from the underlying order (duplicate
// IDs, unknown points, cycles) surface immediately from the mutating call.
package model
