package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/edgarvarela24/reactive-go/pkg/state"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRun_ReportsChanges(t *testing.T) {
	path := writeDoc(t, "a: 1\nb: 2\nlist: [1, 2]\n")

	out, err := execute(t, "run", "-d", path,
		"-c", "total=sum:a,b",
		"-w", "a", "-w", "total", "-w", "list.length",
		"--op", "set a=5",
		"--op", "set a=5",
		"--op", "push list=3",
	)
	require.NoError(t, err)

	require.Contains(t, out, "total: 3 -> 7\n")
	require.Contains(t, out, "a: 1 -> 5\n")
	require.Contains(t, out, "list.length: 2 -> 3\n")
	require.Equal(t, 1, bytes.Count([]byte(out), []byte("a: 1 -> 5")))

	start := bytes.Index([]byte(out), []byte("a: 5\n"))
	require.GreaterOrEqual(t, start, 0)

	var snapshot map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out[start:]), &snapshot))
	require.Equal(t, map[string]any{"a": 5, "b": 2, "list": []any{1, 2, 3}, "total": 7}, snapshot)
}

func TestRun_SetupErrors(t *testing.T) {
	path := writeDoc(t, "a: 1\n")

	_, err := execute(t, "run", "-d", path, "-w", "missing")
	require.ErrorIs(t, err, state.ErrMissingWatchTarget)

	_, err = execute(t, "run", "-d", path, "-c", "a=sum:a")
	require.ErrorIs(t, err, state.ErrComputedConflict)

	_, err = execute(t, "run", "-d", path, "--op", "set b=1")
	require.ErrorIs(t, err, state.ErrUnknownProperty)

	_, err = execute(t, "run", "-d", path, "--op", "bogus")
	require.Error(t, err)

	_, err = execute(t, "run")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, "reactive dev (none)\n", out)
}

func TestFollower_Reload(t *testing.T) {
	path := writeDoc(t, "a: 1\nuser:\n  name: ada\n")

	out := &bytes.Buffer{}
	flags := stateFlags{data: path, watches: []string{"a", "user.name"}}
	s, err := flags.build(out)
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	f := &follower{path: path, state: s, log: zerolog.New(logs).Level(zerolog.DebugLevel)}

	require.NoError(t, os.WriteFile(path, []byte("a: 2\nuser:\n  name: ada\nextra: 1\n"), 0o600))
	require.NoError(t, f.reload())

	require.Equal(t, "a: 1 -> 2\n", out.String())
	require.Regexp(t, "ignoring property not present at startup", logs.String())

	require.NoError(t, os.WriteFile(path, []byte("user:\n  name: grace\n"), 0o600))
	require.NoError(t, f.reload())
	require.Equal(t, "a: 1 -> 2\nuser.name: ada -> grace\n", out.String())

	require.NoError(t, os.WriteFile(path, []byte("- not a mapping\n"), 0o600))
	require.ErrorIs(t, f.reload(), state.ErrInvalidDocument)
}
