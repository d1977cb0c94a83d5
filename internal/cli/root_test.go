package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	cmd := NewRootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{
		"version", "serve", "run", "reconcile", "neighborhood", "export", "cohorts", "references", "completion",
	}, names)

	for _, flag := range []string{"config", "log-level", "log-format", "output", "cache-driver", "cache-path", "graphdb-uri", "reference-dir", "import-engine", "model-command"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootLoadsConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)

	refs := filepath.Join(dir, "refs")
	require.NoError(t, os.MkdirAll(refs, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(refs, "gene_tpm_whole_blood.gct"), []byte("#1.2\n1\t1\nName\tDescription\ts1\nE1\tA\t1\n"), 0600))

	cfg := "output: csv\nreference:\n  dir: " + filepath.Join(dir, "missing") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dysregnet.yaml"), []byte(cfg), 0600))

	t.Run("flag overrides file", func(t *testing.T) {
		out, err := execRoot(t, "references", "--reference-dir", refs)
		require.NoError(t, err)
		assert.Equal(t, "value,label,title\ngene_tpm_whole_blood.gct,whole blood,Whole Blood\n", out)
	})

	t.Run("file value used", func(t *testing.T) {
		_, err := execRoot(t, "references")
		assert.Error(t, err)
	})

	t.Run("invalid configuration", func(t *testing.T) {
		_, err := execRoot(t, "references", "--cache-driver", "redis")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestCompletionCommand(t *testing.T) {
	out, err := execRoot(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "dysregnet")

	_, err = execRoot(t, "completion", "tcsh")
	assert.Error(t, err)
}
