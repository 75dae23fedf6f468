package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/simonhull/heron/pkg/logger"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file heron reads from the working directory
const FileName = "heron.yml"

// EnvPrefix prefixes environment overrides, e.g. HERON_MSBUILD_CONFIGURATION
const EnvPrefix = "HERON"

// Config represents heron.yml
type Config struct {
	MSBuild MSBuildConfig `mapstructure:"msbuild" yaml:"msbuild"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// MSBuildConfig controls how projects are evaluated
type MSBuildConfig struct {
	// DotNetPath is the dotnet executable; empty searches PATH
	DotNetPath string `mapstructure:"dotnet_path" yaml:"dotnet_path"`
	// SdksPath overrides MSBuildSDKsPath
	SdksPath      string            `mapstructure:"sdks_path" yaml:"sdks_path"`
	Configuration string            `mapstructure:"configuration" yaml:"configuration"`
	Platform      string            `mapstructure:"platform" yaml:"platform"`
	Properties    map[string]string `mapstructure:"properties" yaml:"properties"`
	// MaxParallelism bounds concurrent target evaluations
	MaxParallelism int `mapstructure:"max_parallelism" yaml:"max_parallelism"`
	// EvaluationTimeout is a Go duration string such as "2m"
	EvaluationTimeout      string `mapstructure:"evaluation_timeout" yaml:"evaluation_timeout"`
	PrimaryTargetFramework string `mapstructure:"primary_target_framework" yaml:"primary_target_framework"`
}

// LogConfig controls diagnostic logging
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Default returns the configuration used when heron.yml is absent
func Default() *Config {
	return &Config{
		MSBuild: MSBuildConfig{
			Configuration:     "Debug",
			Properties:        map[string]string{},
			MaxParallelism:    1,
			EvaluationTimeout: "2m",
		},
		Log: LogConfig{Level: "warn"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("msbuild.dotnet_path", d.MSBuild.DotNetPath)
	v.SetDefault("msbuild.sdks_path", d.MSBuild.SdksPath)
	v.SetDefault("msbuild.configuration", d.MSBuild.Configuration)
	v.SetDefault("msbuild.platform", d.MSBuild.Platform)
	v.SetDefault("msbuild.max_parallelism", d.MSBuild.MaxParallelism)
	v.SetDefault("msbuild.evaluation_timeout", d.MSBuild.EvaluationTimeout)
	v.SetDefault("msbuild.primary_target_framework", d.MSBuild.PrimaryTargetFramework)
	v.SetDefault("log.level", d.Log.Level)
}

// Load reads the configuration at path on fs. A missing file yields the
// defaults; HERON_* environment variables override file values.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}
	if exists {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	// Viper folds keys to lower case; property names keep their spelling
	if exists {
		props, err := readProperties(fs, path)
		if err != nil {
			return nil, err
		}
		cfg.MSBuild.Properties = props
	}
	if cfg.MSBuild.Properties == nil {
		cfg.MSBuild.Properties = map[string]string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

func readProperties(fs afero.Fs, path string) (map[string]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var raw struct {
		MSBuild struct {
			Properties map[string]string `yaml:"properties"`
		} `yaml:"msbuild"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return raw.MSBuild.Properties, nil
}

// Save writes cfg to path on fs as YAML
func Save(fs afero.Fs, path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Timeout returns the parsed evaluation timeout
func (c *MSBuildConfig) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(c.EvaluationTimeout))
	if err != nil {
		return 0, fmt.Errorf("evaluation_timeout: %w", err)
	}
	return d, nil
}

// LogLevel returns the parsed log level
func (c *LogConfig) LogLevel() (logger.Level, error) {
	return logger.ParseLevel(c.Level)
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error

	if c.MSBuild.MaxParallelism < 1 {
		errs = append(errs, fmt.Errorf("max_parallelism must be at least 1, got %d", c.MSBuild.MaxParallelism))
	}
	if d, err := c.MSBuild.Timeout(); err != nil {
		errs = append(errs, err)
	} else if d <= 0 {
		errs = append(errs, fmt.Errorf("evaluation_timeout must be positive, got %s", d))
	}
	for name := range c.MSBuild.Properties {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " ;=") {
			errs = append(errs, fmt.Errorf("invalid property name %q", name))
		}
	}
	if _, err := c.Log.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
