package harness

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stembed/internal/batch"
	"github.com/roach88/stembed/internal/embed"
	"github.com/roach88/stembed/internal/store"
	"github.com/roach88/stembed/internal/testutil"
)

var scenariosDir = filepath.Join("..", "..", "testdata", "scenarios")

func TestScenarios_Golden(t *testing.T) {
	scenarios, err := LoadScenarios(scenariosDir, "")
	require.NoError(t, err)
	require.Len(t, scenarios, 10)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Passed, "errors: %v", result.Errors)
		})
	}
}

func TestLoadScenarios_Filter(t *testing.T) {
	scenarios, err := LoadScenarios(scenariosDir, "entangled_*")
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "entangled_link_quantum", scenarios[0].Name)
	assert.Equal(t, "entangled_link_classical", scenarios[1].Name)

	_, err = LoadScenarios(scenariosDir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter")
}

func TestLoadScenario_ResolvesSpecsAndDuration(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenariosDir, "02_signal_across_spacelike.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(scenariosDir, "..", "specs"), s.Specs)
	assert.Equal(t, 2*time.Second, s.Timeout)
	assert.Equal(t, "exhausted", s.Expect.Status)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: `
name: x
description: d
implementation: direct_connection
spacetime: simple_chain
theory: classical
expects:
  status: found
`,
			want: "field expects not found",
		},
		{
			name: "missing required fields",
			yaml: `
name: x
theory: classical
expect:
  status: found
`,
			want: "description is required; implementation is required; spacetime is required",
		},
		{
			name: "unknown theory",
			yaml: `
name: x
description: d
implementation: direct_connection
spacetime: simple_chain
theory: relativistic
expect:
  status: found
`,
			want: `theory: unknown theory "relativistic"`,
		},
		{
			name: "unknown status",
			yaml: `
name: x
description: d
implementation: direct_connection
spacetime: simple_chain
theory: classical
expect:
  status: maybe
`,
			want: `expect.status: unknown status "maybe"`,
		},
		{
			name: "missing status",
			yaml: `
name: x
description: d
implementation: direct_connection
spacetime: simple_chain
theory: classical
`,
			want: "expect.status is required",
		},
		{
			name: "negative max_nonlocal",
			yaml: `
name: x
description: d
implementation: direct_connection
spacetime: simple_chain
theory: quantum
max_nonlocal: -1
expect:
  status: found
`,
			want: "max_nonlocal must be non-negative",
		},
		{
			name: "missing specs directory",
			yaml: `
name: x
description: d
specs: nowhere
implementation: direct_connection
spacetime: simple_chain
theory: classical
expect:
  status: found
`,
			want: "specs directory not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarios_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	body := []byte(`
name: same
description: d
implementation: direct_connection
spacetime: simple_chain
theory: classical
expect:
  status: found
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), body, 0644))

	_, err := LoadScenarios(dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate scenario name "same"`)
}

func TestRun_FailedExpectations(t *testing.T) {
	s := &Scenario{
		Name:           "wrong_expectations",
		Description:    "every expectation is wrong",
		Implementation: "direct_connection",
		Spacetime:      "simple_chain",
		Theory:         "classical",
		Expect: Expect{
			Status:  "exhausted",
			Witness: map[string]string{"In": "B", "Out": "C"},
			Reason:  "pigeonhole",
		},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Passed)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, "status: expected exhausted, got found", result.Errors[0])
	assert.Contains(t, result.Errors[1], "witness: expected")
	assert.Contains(t, result.Errors[2], `reason: expected to contain "pigeonhole"`)
}

func TestRun_TimeoutWithManualClock(t *testing.T) {
	s := &Scenario{
		Name:           "timeout",
		Description:    "a one second budget on a clock that moves a second per read",
		Implementation: "simple_chain",
		Spacetime:      "simple_chain",
		Theory:         "classical",
		Timeout:        time.Second,
		Expect:         Expect{Status: "timed_out", Reason: "no verdict within 1s"},
	}

	result, err := Run(context.Background(), s, WithClock(testutil.NewManualClock(time.Second)))
	require.NoError(t, err)
	assert.True(t, result.Passed, "errors: %v", result.Errors)
	assert.Equal(t, embed.StatusTimedOut, result.Solve.Status)
	assert.Zero(t, result.Solve.Stats.Expansions)
}

func TestRun_Errors(t *testing.T) {
	base := Scenario{
		Name:           "x",
		Description:    "d",
		Implementation: "direct_connection",
		Spacetime:      "simple_chain",
		Theory:         "classical",
		Expect:         Expect{Status: "found"},
	}

	missingImpl := base
	missingImpl.Implementation = "nope"
	_, err := Run(context.Background(), &missingImpl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `implementation "nope" not in catalog`)

	missingSt := base
	missingSt.Specs = filepath.Join("..", "..", "testdata", "specs")
	missingSt.Spacetime = "nope"
	_, err = Run(context.Background(), &missingSt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `spacetime "nope" not defined`)

	badPin := base
	badPin.Pin = map[string]string{"In": "Z"}
	_, err = Run(context.Background(), &badPin)
	require.Error(t, err)
	assert.True(t, embed.IsInvalidLocalisation(err))
}

func TestRun_SharedRunnerAnswersRepeatsFromMemo(t *testing.T) {
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	runner := batch.New(
		batch.WithStore(st),
		batch.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	fromSpecs, err := LoadScenario(filepath.Join(scenariosDir, "01_identity_into_chain.yaml"))
	require.NoError(t, err)
	fromCatalog, err := LoadScenario(filepath.Join(scenariosDir, "10_catalog_identity_into_chain.yaml"))
	require.NoError(t, err)

	first, err := Run(ctx, fromSpecs, WithRunner(runner))
	require.NoError(t, err)
	assert.True(t, first.Passed, "errors: %v", first.Errors)
	assert.False(t, first.Cached)
	assert.Positive(t, first.Solve.Stats.Expansions)

	second, err := Run(ctx, fromCatalog, WithRunner(runner))
	require.NoError(t, err)
	assert.True(t, second.Passed, "errors: %v", second.Errors)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Solve.Witness, second.Solve.Witness)
	assert.NotEqual(t, first.RunID, second.RunID)

	recs, err := st.ReadRun(ctx, second.RunID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Cached)
	assert.Equal(t, "direct_connection", recs[0].Implementation)
}

func TestRun_DefaultRunnerHasNoMemo(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenariosDir, "01_identity_into_chain.yaml"))
	require.NoError(t, err)

	for range 2 {
		result, err := Run(context.Background(), s)
		require.NoError(t, err)
		assert.False(t, result.Cached)
	}
}
