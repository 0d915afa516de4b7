// Package config loads typecodec.yaml: the default compile options and the
// logging setup of the command line tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/typecodec/codec"
)

// Config represents the typecodec configuration
type Config struct {
	Options OptionsConfig `mapstructure:"options"`
	Log     LogConfig     `mapstructure:"log"`
	// Schema is the default schema document of the convert and explore commands.
	Schema string `mapstructure:"schema"`
}

// OptionsConfig mirrors codec.Options
type OptionsConfig struct {
	Coercion             string `mapstructure:"coercion"`
	Aliaser              string `mapstructure:"aliaser"`
	MaxDepth             int    `mapstructure:"max_depth"`
	AdditionalProperties bool   `mapstructure:"additional_properties"`
	FallBackOnDefault    bool   `mapstructure:"fall_back_on_default"`
	NoCopy               bool   `mapstructure:"no_copy"`
	ExcludeUnset         bool   `mapstructure:"exclude_unset"`
	ExcludeNone          bool   `mapstructure:"exclude_none"`
	ExcludeDefaults      bool   `mapstructure:"exclude_defaults"`
	FallbackToAny        bool   `mapstructure:"fallback_to_any"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads typecodec.yaml from the working directory or
// $HOME/.config/typecodec. A missing file yields the defaults. Every key
// can be overridden by a TYPECODEC_ environment variable, for example
// TYPECODEC_OPTIONS_COERCION=on.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("typecodec")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "typecodec"))
	}
	return load(v)
}

// LoadFile reads the configuration from path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("options.coercion", codec.CoercionOff.String())
	v.SetDefault("options.max_depth", codec.DefaultMaxDepth)
	v.SetDefault("options.aliaser", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetEnvPrefix("TYPECODEC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if _, err := codec.ParseCoercionMode(cfg.Options.Coercion); err != nil {
		return fmt.Errorf("options.coercion: %w", err)
	}
	if cfg.Options.Aliaser != "" {
		if _, ok := codec.NamedAliaser(cfg.Options.Aliaser); !ok {
			return fmt.Errorf("options.aliaser must be one of %s, got: %s",
				strings.Join(codec.AliaserNames(), ", "), cfg.Options.Aliaser)
		}
	}
	if cfg.Options.MaxDepth < 0 {
		return fmt.Errorf("options.max_depth must not be negative, got: %d", cfg.Options.MaxDepth)
	}
	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got: %s", cfg.Log.Format)
	}
	return nil
}

// CodecOptions converts the options section. Coercion and the aliaser
// name were checked by Load.
func (c *Config) CodecOptions() codec.Options {
	mode, _ := codec.ParseCoercionMode(c.Options.Coercion)
	opts := codec.Options{
		MaxDepth:             c.Options.MaxDepth,
		Coercion:             mode,
		AdditionalProperties: c.Options.AdditionalProperties,
		FallBackOnDefault:    c.Options.FallBackOnDefault,
		NoCopy:               c.Options.NoCopy,
		ExcludeUnset:         c.Options.ExcludeUnset,
		ExcludeNone:          c.Options.ExcludeNone,
		ExcludeDefaults:      c.Options.ExcludeDefaults,
		FallbackToAny:        c.Options.FallbackToAny,
	}
	if aliaser, ok := codec.NamedAliaser(c.Options.Aliaser); ok {
		opts.Aliaser = aliaser
		opts.AliaserKey = c.Options.Aliaser
	}
	return opts
}

// Logger builds the zap logger described by the log section. verbose
// forces debug level.
func (c *Config) Logger(verbose bool) (*zap.Logger, error) {
	var zc zap.Config
	if c.Log.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	}

	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
