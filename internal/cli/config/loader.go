package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	intconfig "github.com/dysregnet/dysregnet-explorer/internal/config"
)

// findConfigFile returns the explicit path, or the first config file in the
// working directory or ~/.dysregnet.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if cwd, err := os.Getwd(); err == nil {
		if path := intconfig.FindFile(cwd); path != "" {
			return path
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return intconfig.FindFile(filepath.Join(home, ".dysregnet"))
	}
	return ""
}

// Load loads configuration from defaults, a YAML file, legacy environment
// variables, DYSREGNET_ environment variables and explicitly set flags, in
// increasing order of precedence. It returns the config file used, if any.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(intconfig.Defaults(), "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Legacy environment variables
	legacy := map[string]any{}
	if v := os.Getenv(LegacyReferenceEnv); v != "" {
		legacy["reference.dir"] = v
	}
	if v := os.Getenv(LegacyPasswordEnv); v != "" {
		legacy["graphdb.password"] = v
	}
	if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load legacy env vars: %w", err)
	}

	// 4. DYSREGNET_ environment variables
	// Transform: DYSREGNET_GRAPHDB__MAX_CONCURRENCY -> graphdb.max_concurrency
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Flags, only when explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	}); err != nil {
		return nil, "", fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.GraphDB.URI = expandEnvVars(cfg.GraphDB.URI)
	cfg.GraphDB.Password = expandEnvVars(cfg.GraphDB.Password)
	cfg.Server.SessionSecret = expandEnvVars(cfg.Server.SessionSecret)

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, used, nil
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns. Unset variables are left as written.
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}
