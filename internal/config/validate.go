package config

import (
	"fmt"
	"log/slog"
	"slices"
)

// Validate checks values a command could not recover from at run time.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", c.Server.Port)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	if !slices.Contains([]string{"text", "json"}, c.Log.Format) {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if !slices.Contains([]string{"sqlite", "badger", "memory"}, c.Cache.Driver) {
		return fmt.Errorf("cache.driver must be sqlite, badger or memory, got %q", c.Cache.Driver)
	}
	if c.Cache.Timeout <= 0 {
		return fmt.Errorf("cache.timeout must be positive")
	}
	if c.GraphDB.Timeout <= 0 {
		return fmt.Errorf("graphdb.timeout must be positive")
	}
	if c.GraphDB.MaxConcurrency < 1 {
		return fmt.Errorf("graphdb.max_concurrency must be at least 1")
	}
	switch c.Reference.Driver {
	case ReferenceFS:
	case ReferenceS3:
		if c.Reference.S3.Bucket == "" {
			return fmt.Errorf("reference.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("reference.driver must be fs or s3, got %q", c.Reference.Driver)
	}
	if c.Import.Engine != EngineNative && c.Import.Engine != EngineDuckDB {
		return fmt.Errorf("import.engine must be native or duckdb, got %q", c.Import.Engine)
	}
	for name, alpha := range map[string]float64{
		"analysis.bonferroni_alpha": c.Analysis.BonferroniAlpha,
		"analysis.normality_alpha":  c.Analysis.NormalityAlpha,
	} {
		if alpha <= 0 || alpha > 1 {
			return fmt.Errorf("%s must be in (0,1], got %g", name, alpha)
		}
	}
	return nil
}
