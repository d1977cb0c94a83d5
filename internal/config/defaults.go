package config

import (
	"time"

	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// Default configuration values.
const (
	DefaultPort           = 8050
	DefaultSessionSecret  = "dysregnet-dev-secret-change-in-production" //nolint:gosec
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultOutput         = "table"
	DefaultCacheDriver    = "sqlite"
	DefaultCachePath      = ".dysregnet/cache.db"
	DefaultCacheNamespace = "DysRegNet_"
	DefaultCacheTimeout   = 5 * time.Second
	DefaultGraphURI       = "bolt://localhost:7687"
	DefaultGraphUser      = "neo4j"
	DefaultGraphTimeout   = 10 * time.Second
	DefaultGraphWorkers   = 4
	DefaultReferenceDir   = "GTEx-data/"
	DefaultImportEngine   = "native"
)

// Reference drivers.
const (
	ReferenceFS = "fs"
	ReferenceS3 = "s3"
)

// Import engines.
const (
	EngineNative = "native"
	EngineDuckDB = "duckdb"
)

// Defaults returns the default values keyed by their dotted config path.
func Defaults() map[string]any {
	return map[string]any{
		"server.port":               DefaultPort,
		"server.session_secret":     DefaultSessionSecret,
		"log.level":                 DefaultLogLevel,
		"log.format":                DefaultLogFormat,
		"output":                    DefaultOutput,
		"cache.driver":              DefaultCacheDriver,
		"cache.path":                DefaultCachePath,
		"cache.namespace":           DefaultCacheNamespace,
		"cache.timeout":             DefaultCacheTimeout.String(),
		"graphdb.uri":               DefaultGraphURI,
		"graphdb.user":              DefaultGraphUser,
		"graphdb.password":          "",
		"graphdb.timeout":           DefaultGraphTimeout.String(),
		"graphdb.max_concurrency":   DefaultGraphWorkers,
		"reference.driver":          ReferenceFS,
		"reference.dir":             DefaultReferenceDir,
		"reference.strip_versions":  true,
		"reference.watch":           true,
		"model.command":             "",
		"model.args":                []string{},
		"import.engine":             DefaultImportEngine,
		"analysis.bonferroni_alpha": core.DefaultBonferroniAlpha,
		"analysis.normality_alpha":  core.DefaultNormalityAlpha,
	}
}
