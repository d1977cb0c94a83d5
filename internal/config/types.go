// Package config provides the configuration types of the explorer. It is
// decoupled from CLI concerns; loading lives in internal/cli/config.
package config

import "time"

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port          int    `koanf:"port"`
	SessionSecret string `koanf:"session_secret"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
}

// CacheConfig configures the result cache and its backing store.
type CacheConfig struct {
	Driver    string        `koanf:"driver"` // sqlite, badger, memory
	Path      string        `koanf:"path"`
	Namespace string        `koanf:"namespace"`
	Timeout   time.Duration `koanf:"timeout"`
}

// GraphDBConfig configures the cohort graph database. An empty URI
// disables the cohort features.
type GraphDBConfig struct {
	URI            string        `koanf:"uri"`
	User           string        `koanf:"user"`
	Password       string        `koanf:"password"`
	Timeout        time.Duration `koanf:"timeout"`
	MaxConcurrency int           `koanf:"max_concurrency"`
}

// S3Config locates reference files in a bucket.
type S3Config struct {
	Bucket    string `koanf:"bucket"`
	Prefix    string `koanf:"prefix"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"`
	PathStyle bool   `koanf:"path_style"`
}

// ReferenceConfig configures the control data catalog.
type ReferenceConfig struct {
	Driver string `koanf:"driver"` // fs, s3
	Dir    string `koanf:"dir"`
	// StripVersions drops accession version suffixes from reference gene ids.
	StripVersions bool     `koanf:"strip_versions"`
	Watch         bool     `koanf:"watch"`
	S3            S3Config `koanf:"s3"`
}

// ModelConfig configures the external dysregulation model.
type ModelConfig struct {
	Command string   `koanf:"command"`
	Args    []string `koanf:"args"`
}

// ImportConfig selects the table reader.
type ImportConfig struct {
	Engine string `koanf:"engine"` // native, duckdb
}

// AnalysisConfig holds default run parameters.
type AnalysisConfig struct {
	BonferroniAlpha float64 `koanf:"bonferroni_alpha"`
	NormalityAlpha  float64 `koanf:"normality_alpha"`
}

// Config is the complete explorer configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Output    string          `koanf:"output"`
	Cache     CacheConfig     `koanf:"cache"`
	GraphDB   GraphDBConfig   `koanf:"graphdb"`
	Reference ReferenceConfig `koanf:"reference"`
	Model     ModelConfig     `koanf:"model"`
	Import    ImportConfig    `koanf:"import"`
	Analysis  AnalysisConfig  `koanf:"analysis"`
}
