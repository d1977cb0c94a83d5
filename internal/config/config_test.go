package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Server:    ServerConfig{Port: DefaultPort},
		Log:       LogConfig{Level: "info", Format: "text"},
		Cache:     CacheConfig{Driver: "sqlite", Timeout: time.Second},
		GraphDB:   GraphDBConfig{Timeout: time.Second, MaxConcurrency: 1},
		Reference: ReferenceConfig{Driver: ReferenceFS},
		Import:    ImportConfig{Engine: EngineNative},
		Analysis:  AnalysisConfig{BonferroniAlpha: 0.01, NormalityAlpha: 0.001},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
		{name: "log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log.format"},
		{name: "cache driver", mutate: func(c *Config) { c.Cache.Driver = "redis" }, wantErr: "cache.driver"},
		{name: "cache timeout", mutate: func(c *Config) { c.Cache.Timeout = 0 }, wantErr: "cache.timeout"},
		{name: "graph workers", mutate: func(c *Config) { c.GraphDB.MaxConcurrency = 0 }, wantErr: "max_concurrency"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Reference.Driver = ReferenceS3 }, wantErr: "reference.s3.bucket"},
		{name: "s3 with bucket", mutate: func(c *Config) { c.Reference.Driver = ReferenceS3; c.Reference.S3.Bucket = "gtex" }},
		{name: "reference driver", mutate: func(c *Config) { c.Reference.Driver = "ftp" }, wantErr: "reference.driver"},
		{name: "import engine", mutate: func(c *Config) { c.Import.Engine = "spark" }, wantErr: "import.engine"},
		{name: "alpha", mutate: func(c *Config) { c.Analysis.NormalityAlpha = 1.5 }, wantErr: "analysis.normality_alpha"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestFindFile(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, FindFile(dir))

	yml := filepath.Join(dir, "dysregnet.yml")
	assert.NoError(t, os.WriteFile(yml, []byte("output: json\n"), 0600))
	assert.Equal(t, yml, FindFile(dir))

	yaml := filepath.Join(dir, "dysregnet.yaml")
	assert.NoError(t, os.WriteFile(yaml, []byte("output: csv\n"), 0600))
	assert.Equal(t, yaml, FindFile(dir))
}
