// Package config loads the explorer configuration for the CLI.
//
// The configuration types live in internal/config and are re-exported here
// via type aliases for convenience.
package config

import intconfig "github.com/dysregnet/dysregnet-explorer/internal/config"

// Config is an alias for the shared configuration.
type Config = intconfig.Config

// Environment variables read by older deployments.
const (
	LegacyReferenceEnv = "GTEX_CONTROL_DATA"
	LegacyPasswordEnv  = "DB_PASSWORD"
)

// EnvPrefix prefixes every configuration environment variable. A double
// underscore separates nested keys: DYSREGNET_CACHE__DRIVER sets cache.driver.
const EnvPrefix = "DYSREGNET_"

// FlagKeys maps CLI flag names to configuration keys. Flags not listed are
// command options and never reach the configuration.
var FlagKeys = map[string]string{
	"log-level":     "log.level",
	"log-format":    "log.format",
	"output":        "output",
	"cache-driver":  "cache.driver",
	"cache-path":    "cache.path",
	"graphdb-uri":   "graphdb.uri",
	"reference-dir": "reference.dir",
	"import-engine": "import.engine",
	"model-command": "model.command",
	"port":          "server.port",
	"watch":         "reference.watch",
}
