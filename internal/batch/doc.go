// Package batch runs many independent embedding solves, typically the full
// implementation × spacetime × theory matrix.
//
// Solves run concurrently under an errgroup with a parallelism limit. Each
// job's sequence number is fixed before any goroutine starts and results
// are written into an index-addressed slice, so the report order matches
// the job order regardless of scheduling.
//
// With a store attached, every solve is logged under the run ID and
// definitive results are served from the store when the same request
// fingerprint was answered before.
package batch
