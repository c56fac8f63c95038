package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/turtacn/geometax/pkg/errors"
)

// envPrefix is the environment variable prefix for all settings.
const envPrefix = "GEOMETAX"

// newViper builds a Viper instance with the platform conventions: YAML files,
// GEOMETAX_ env prefix, and a "." to "_" key replacer so "database.host"
// resolves from GEOMETAX_DATABASE_HOST.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads the YAML file at configPath, merges GEOMETAX_* environment
// overrides, applies defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to read config file").
			WithDetail(configPath)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from GEOMETAX_* environment variables.
// This is the loading strategy for containerised deployments.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to unmarshal configuration")
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch re-reads configPath whenever it changes on disk and hands the new
// Config to onChange.  A change that fails to parse or validate is dropped
// so a bad edit cannot push the process into a broken state.  Callers should
// only apply the runtime-safe subset, log level above all.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad panics on any load error.  For use in main, where a config
// failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}
