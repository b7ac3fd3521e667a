package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/stembed/internal/canon"
)

// Snapshot is the deterministic part of a scenario result. Statistics are
// left out: they pin the search order, not the verdict.
func (r *Result) Snapshot() canon.Object {
	witness := make(canon.Object, len(r.Solve.Witness))
	for node, pt := range r.Solve.Witness {
		witness[node] = canon.String(pt)
	}
	obj := canon.Object{
		"name":           canon.String(r.Scenario),
		"implementation": canon.String(r.Implementation),
		"spacetime":      canon.String(r.Spacetime),
		"theory":         canon.String(r.Theory),
		"status":         canon.String(string(r.Solve.Status)),
		"witness":        witness,
	}
	if r.Solve.Reason != "" {
		obj["reason"] = canon.String(r.Solve.Reason)
	}
	return obj
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Passed.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a result's snapshot against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := canon.Marshal(result.Snapshot())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
