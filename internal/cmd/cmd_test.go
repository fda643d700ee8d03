package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs a fresh command tree with args and stdin, returning
// what it printed.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

var seedFiveOutput = []string{
	"0 -> 6", "1 -> 7", "2 -> 8", "3 -> 9", "4 -> 10",
	"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10",
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "flowbridge", root.Use)

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"run", "tui"})
}

func TestRun_TicksFromStdin(t *testing.T) {
	out, err := executeCommand(t, strings.Repeat("\n", 6), "run")
	require.NoError(t, err)
	assert.Equal(t, seedFiveOutput, lines(out))
}

func TestRun_TicksOnInterval(t *testing.T) {
	out, err := executeCommand(t, "", "run", "--interval", "1ms")
	require.NoError(t, err)
	assert.Equal(t, seedFiveOutput, lines(out))
}

func TestRun_FlagsOverrideDefaults(t *testing.T) {
	out, err := executeCommand(t, strings.Repeat("\n", 3),
		"run", "--seed", "0", "--threshold", "2", "--count", "3", "--buffer", "bounded", "--buffer-size", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"0 -> 1", "1 -> 2", "0", "1", "2", "3"}, lines(out))
}

func TestRun_InputExhaustedEndsTheRun(t *testing.T) {
	out, err := executeCommand(t, "\n\n", "run")
	require.NoError(t, err)

	got := strings.Fields(strings.ReplaceAll(out, " -> ", "->"))
	assert.LessOrEqual(t, len(got), 2)
	for i, line := range got {
		assert.Equal(t, []string{"0->6", "1->7"}[i], line)
	}
}

func TestRun_ServesMetrics(t *testing.T) {
	out, err := executeCommand(t, strings.Repeat("\n", 6), "run", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Equal(t, seedFiveOutput, lines(out))
}

func TestRun_InvalidConfig(t *testing.T) {
	_, err := executeCommand(t, "", "run", "--buffer", "bogus", "--delivery", "retry")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge.buffer")
	assert.Contains(t, err.Error(), "bridge.delivery")
}

func TestRun_RejectsArgs(t *testing.T) {
	_, err := executeCommand(t, "", "run", "extra")
	assert.Error(t, err)
}
