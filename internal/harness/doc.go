// Package harness runs YAML conformance scenarios against the embedding
// solver.
//
// A scenario names an implementation, a spacetime and a theory, either from
// a directory of CUE definitions or from the built-in catalog, and states
// the expected verdict:
//
//	name: entangled_link_quantum
//	description: An entangled pair spans a spacelike gap under quantum theory
//	specs: ../specs
//	implementation: entangled_link
//	spacetime: spacelike_pair
//	theory: quantum
//	expect:
//	  status: found
//	  witness: {In: p, Out: q}
//
// Scenario files are decoded strictly (unknown keys are errors) and
// validated with struct tags before anything runs. Each run is a one-job
// batch; by default on a fresh runner, or on a shared one (WithRunner) whose
// memo answers repeated requests. Verdicts are deterministic either way, so
// RunWithGolden can snapshot them under testdata/golden.
//
// Expectations are partial: witness and reason are only checked when the
// scenario states them.
package harness
