package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stembed/internal/embed"
)

func executeSolve(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewSolveCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{specsDir}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestSolveFound(t *testing.T) {
	out, err := executeSolve(t, "text",
		"--impl", "direct_connection", "--spacetime", "simple_chain", "--theory", "classical")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ found: direct_connection in simple_chain under classical")
	assert.Contains(t, out, "In -> A")
	assert.Contains(t, out, "Out -> B")
	assert.Contains(t, out, "expansions=")
}

func TestSolveExhausted(t *testing.T) {
	out, err := executeSolve(t, "text",
		"--impl", "direct_connection", "--spacetime", "spacelike_pair", "--theory", "classical")
	require.NoError(t, err, "a negative verdict is not a command error")

	assert.Contains(t, out, "✗ exhausted: direct_connection in spacelike_pair under classical")
	assert.Contains(t, out, "reason: search space exhausted")
	assert.NotContains(t, out, "witness:")
}

func TestSolveWithPins(t *testing.T) {
	out, err := executeSolve(t, "json",
		"--impl", "direct_connection", "--spacetime", "simple_chain", "--theory", "classical",
		"--pin", "In=B")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   SolveOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, embed.StatusFound, resp.Data.Result.Status)
	assert.Equal(t, embed.Witness{"In": "B", "Out": "C"}, resp.Data.Result.Witness)
	assert.Equal(t, "classical", resp.Data.Theory)
}

func TestSolveEntangledNeedsQuantum(t *testing.T) {
	out, err := executeSolve(t, "json",
		"--impl", "entangled_link", "--spacetime", "spacelike_pair", "--theory", "quantum")
	require.NoError(t, err)

	var resp struct {
		Data SolveOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, embed.StatusFound, resp.Data.Result.Status)

	out, err = executeSolve(t, "json",
		"--impl", "entangled_link", "--spacetime", "spacelike_pair", "--theory", "classical")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, embed.StatusExhausted, resp.Data.Result.Status)
}

func TestSolveCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "unknown theory",
			args:     []string{"--impl", "direct_connection", "--spacetime", "simple_chain", "--theory", "relativistic"},
			wantCode: "E001",
			wantMsg:  "relativistic",
		},
		{
			name:     "unknown implementation",
			args:     []string{"--impl", "nope", "--spacetime", "simple_chain", "--theory", "classical"},
			wantCode: "E005",
			wantMsg:  `implementation "nope" not defined`,
		},
		{
			name:     "unknown spacetime",
			args:     []string{"--impl", "direct_connection", "--spacetime", "nope", "--theory", "classical"},
			wantCode: "E005",
			wantMsg:  `spacetime "nope" not defined`,
		},
		{
			name:     "malformed pin",
			args:     []string{"--impl", "direct_connection", "--spacetime", "simple_chain", "--theory", "classical", "--pin", "In"},
			wantCode: ErrCodeInvalidPin,
			wantMsg:  "expected node=point",
		},
		{
			name:     "pin to unknown point",
			args:     []string{"--impl", "direct_connection", "--spacetime", "simple_chain", "--theory", "classical", "--pin", "In=Z"},
			wantCode: ErrCodeInvalidPin,
			wantMsg:  "Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeSolve(t, "json", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.wantMsg)
		})
	}
}

func TestSolveMissingRequiredFlags(t *testing.T) {
	_, err := executeSolve(t, "text", "--impl", "direct_connection")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s)")
}

func TestParsePins(t *testing.T) {
	pins, err := parsePins([]string{"In=A", " Out = C "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"In": "A", "Out": "C"}, pins)

	pins, err = parsePins(nil)
	require.NoError(t, err)
	assert.Nil(t, pins)

	_, err = parsePins([]string{"In=A", "In=B"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `node "In" pinned twice`)

	_, err = parsePins([]string{"=A"})
	require.Error(t, err)
}
