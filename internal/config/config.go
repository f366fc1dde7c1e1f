// Package config loads xtsmerge settings from config files, environment
// variables and .env files.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
)

// EnvPrefix is prepended to every environment variable, e.g.
// XTSMERGE_PRIMARY_SUITE or XTSMERGE_LOG_LEVEL.
const EnvPrefix = "XTSMERGE"

// FileName is the config file searched for in the working and home directory.
const FileName = ".xtsmerge"

// Config holds the settings shared by every command.
type Config struct {
	PrimarySuite     string   `mapstructure:"primary_suite"`
	PatchPairs       []string `mapstructure:"patch_pairs"`
	SharedFields     []string `mapstructure:"shared_fields"`
	SummaryFields    []string `mapstructure:"summary_fields"`
	MatchThreshold   int      `mapstructure:"match_threshold"`
	Unpack           bool     `mapstructure:"unpack"`
	WorkDir          string   `mapstructure:"work_dir"`
	Workers          int      `mapstructure:"workers"`
	Provenance       bool     `mapstructure:"provenance"`
	Excludes         []string `mapstructure:"excludes"`
	HTMLVerification bool     `mapstructure:"html_verification"`

	Log     Log     `mapstructure:"log"`
	Tracing Tracing `mapstructure:"tracing"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// Log configures the logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Tracing configures span export. An empty Endpoint disables tracing.
type Tracing struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("primary_suite", constants.SuiteCTS)
	v.SetDefault("patch_pairs", constants.DefaultPatchPairs)
	v.SetDefault("shared_fields", constants.DefaultSharedFields)
	v.SetDefault("summary_fields", constants.DefaultSummaryFields)
	v.SetDefault("match_threshold", constants.DefaultMatchThreshold)
	v.SetDefault("unpack", true)
	v.SetDefault("work_dir", "")
	v.SetDefault("workers", constants.DefaultWorkers)
	v.SetDefault("provenance", false)
	v.SetDefault("excludes", []string{})
	v.SetDefault("html_verification", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.service_name", "xtsmerge")
}

// Load reads configuration in order of precedence:
// 1. Environment variables
// 2. .env.local, then .env
// 3. Config file (path, or .xtsmerge.yaml in the working or home directory)
// 4. Defaults
//
// Command-line flags are applied on top by the caller.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("file", "cannot read config file", err)
		}
	}

	if file := v.ConfigFileUsed(); file != "" {
		if err := ValidateFile(file); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.NewConfigError("decode", "cannot decode configuration", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles loads .env.local first so its values win over .env.
// godotenv never overrides variables that are already set.
func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}

// Validate checks values that environment variables can set outside the
// reach of the file schema.
func (c *Config) Validate() error {
	if c.PrimarySuite == "" {
		return errors.NewValidationError("primary_suite", c.PrimarySuite, "cannot be empty")
	}
	if c.MatchThreshold < 0 || c.MatchThreshold > 100 {
		return errors.NewValidationError("match_threshold", c.MatchThreshold, "must be between 0 and 100")
	}
	if c.Workers < 1 || c.Workers > constants.MaxWorkers {
		return errors.NewValidationError("workers", c.Workers, fmt.Sprintf("must be between 1 and %d", constants.MaxWorkers))
	}
	if len(c.SummaryFields) == 0 {
		return errors.NewValidationError("summary_fields", c.SummaryFields, "cannot be empty")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return errors.NewValidationError("tracing.sample_rate", c.Tracing.SampleRate, "must be between 0 and 1")
	}
	return nil
}
