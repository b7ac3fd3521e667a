package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "stembed", cmd.Use)
	assert.Contains(t, cmd.Long, "causal spacetime")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "solve", "matrix", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestSolveCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	solveCmd, _, err := cmd.Find([]string{"solve"})
	require.NoError(t, err)

	for _, name := range []string{"impl", "spacetime", "theory", "timeout", "pin", "max-nonlocal"} {
		assert.NotNil(t, solveCmd.Flags().Lookup(name), "flag %s", name)
	}
	assert.Equal(t, "5s", solveCmd.Flags().Lookup("timeout").DefValue)
	assert.Equal(t, "0", solveCmd.Flags().Lookup("max-nonlocal").DefValue)
}

func TestMatrixCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	matrixCmd, _, err := cmd.Find([]string{"matrix"})
	require.NoError(t, err)

	assert.Equal(t, "", matrixCmd.Flags().Lookup("specs").DefValue)
	assert.Equal(t, "3s", matrixCmd.Flags().Lookup("timeout").DefValue)
	assert.Equal(t, "4", matrixCmd.Flags().Lookup("parallel").DefValue)
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
	assert.Equal(t, "", filterFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--format", "yaml", "matrix"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestNewLoggerLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	quiet := newLogger(&RootOptions{}, buf)
	quiet.Debug("hidden")
	quiet.Warn("shown", "key", "value")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "key=value")

	buf.Reset()
	verbose := newLogger(&RootOptions{Verbose: true}, buf)
	verbose.Debug("detail")
	assert.Contains(t, buf.String(), "level=DEBUG")
}
