package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intconfig "github.com/dysregnet/dysregnet-explorer/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dysregnet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testFlags(t *testing.T, set map[string]string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("cache-driver", "", "")
	flags.String("output", "", "")
	flags.Int("port", 0, "")
	flags.Bool("watch", true, "")
	flags.String("gene", "", "not a config flag")
	for name, v := range set {
		require.NoError(t, flags.Set(name, v))
	}
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	cfg, used, err := Load(writeConfig(t, "{}\n"), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, used)

	assert.Equal(t, intconfig.DefaultPort, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, "DysRegNet_", cfg.Cache.Namespace)
	assert.Equal(t, 5*time.Second, cfg.Cache.Timeout)
	assert.Equal(t, 10*time.Second, cfg.GraphDB.Timeout)
	assert.Equal(t, "bolt://localhost:7687", cfg.GraphDB.URI)
	assert.Equal(t, 4, cfg.GraphDB.MaxConcurrency)
	assert.Equal(t, "GTEx-data/", cfg.Reference.Dir)
	assert.True(t, cfg.Reference.StripVersions)
	assert.Equal(t, 0.01, cfg.Analysis.BonferroniAlpha)
	assert.Equal(t, "table", cfg.Output)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
cache:
  driver: badger
  timeout: 250ms
reference:
  driver: s3
  s3:
    bucket: gtex
    path_style: true
model:
  command: Rscript
  args: [run.R, "{workdir}"]
`)
	cfg, used, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "badger", cfg.Cache.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Cache.Timeout)
	assert.Equal(t, "gtex", cfg.Reference.S3.Bucket)
	assert.True(t, cfg.Reference.S3.PathStyle)
	assert.Equal(t, []string{"run.R", "{workdir}"}, cfg.Model.Args)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, "cache:\n  driver: badger\noutput: csv\nserver:\n  port: 9000\n")

	tests := []struct {
		name       string
		env        map[string]string
		flags      map[string]string
		wantDriver string
		wantOutput string
		wantPort   int
	}{
		{name: "file", wantDriver: "badger", wantOutput: "csv", wantPort: 9000},
		{name: "env over file", env: map[string]string{"DYSREGNET_CACHE__DRIVER": "memory", "DYSREGNET_OUTPUT": "json"}, wantDriver: "memory", wantOutput: "json", wantPort: 9000},
		{name: "flag over env", env: map[string]string{"DYSREGNET_CACHE__DRIVER": "memory"}, flags: map[string]string{"cache-driver": "sqlite", "port": "8100"}, wantDriver: "sqlite", wantOutput: "csv", wantPort: 8100},
		{name: "unset flag keeps env", env: map[string]string{"DYSREGNET_SERVER__PORT": "8200"}, flags: map[string]string{"gene": "TP53"}, wantDriver: "badger", wantOutput: "csv", wantPort: 8200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, _, err := Load(path, testFlags(t, tt.flags))
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, cfg.Cache.Driver)
			assert.Equal(t, tt.wantOutput, cfg.Output)
			assert.Equal(t, tt.wantPort, cfg.Server.Port)
		})
	}
}

func TestLoad_LegacyEnv(t *testing.T) {
	path := writeConfig(t, "reference:\n  dir: from_file\n")
	t.Setenv(LegacyReferenceEnv, "/data/gtex")
	t.Setenv(LegacyPasswordEnv, "s3cret")

	cfg, _, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/data/gtex", cfg.Reference.Dir)
	assert.Equal(t, "s3cret", cfg.GraphDB.Password)

	t.Setenv("DYSREGNET_REFERENCE__DIR", "/override")
	cfg, _, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/override", cfg.Reference.Dir)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "missing file", path: filepath.Join(t.TempDir(), "nope.yaml"), wantErr: "error reading config file"},
		{name: "invalid value", path: writeConfig(t, "cache:\n  driver: redis\n"), wantErr: "cache.driver"},
		{name: "bad duration", path: writeConfig(t, "cache:\n  timeout: soon\n"), wantErr: "unable to decode config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(tt.path, nil)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single variable", input: "${TEST_VAR_ONE}", expected: "value_one"},
		{name: "variable in uri", input: "bolt://${TEST_VAR_ONE}:7687", expected: "bolt://value_one:7687"},
		{name: "unset variable stays as-is", input: "${UNSET_VARIABLE}", expected: "${UNSET_VARIABLE}"},
		{name: "no variables", input: "plain string", expected: "plain string"},
		{name: "empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, intconfig.LogConfig{Level: "warn", Format: "json"})
	logger.Info("hidden")
	logger.Warn("shown", "cohort", "BRCA")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"cohort":"BRCA"`)

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
	assert.NotNil(t, GetLogger(context.Background()))
}
