package config

import (
	"fmt"
	"strings"

	"github.com/jlrickert/pubkit/pkg/internal"
	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/spf13/viper"
)

// Config is the complete pubkit configuration.
//
// Configuration sources, lowest precedence first:
//  1. Defaults (ApplyDefaults)
//  2. Configuration file (YAML)
//  3. Environment variables (PUBKIT_ prefix, e.g. PUBKIT_APPLICATION_TIME_ZONE)
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Application ApplicationConfig `mapstructure:"application" yaml:"application"`
	Publication PublicationConfig `mapstructure:"publication" yaml:"publication"`
	Index       IndexConfig       `mapstructure:"index" yaml:"index"`
	Store       StoreConfig       `mapstructure:"store" yaml:"store"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
	File  string `mapstructure:"file" yaml:"file"`
}

type ApplicationConfig struct {
	// TimeZone is an IANA zone, "UTC" or "client".
	TimeZone string `mapstructure:"time_zone" yaml:"time_zone" validate:"required,time_zone"`
}

type PublicationConfig struct {
	Me                 string                      `mapstructure:"me" yaml:"me" validate:"required,url"`
	Preset             string                      `mapstructure:"preset" yaml:"preset" validate:"required"`
	SlugSeparator      string                      `mapstructure:"slug_separator" yaml:"slug_separator" validate:"max=1"`
	PostTypes          []publish.PostType          `mapstructure:"post_types" yaml:"post_types"`
	SyndicationTargets []publish.SyndicationTarget `mapstructure:"syndication_targets" yaml:"syndication_targets" validate:"dive"`
}

// IndexConfig selects the record store. Type-specific settings live in the
// section named after the type and are decoded by OpenIndex.
type IndexConfig struct {
	Type   string         `mapstructure:"type" yaml:"type" validate:"required,oneof=none memory sqlite badger"`
	SQLite map[string]any `mapstructure:"sqlite" yaml:"sqlite,omitempty"`
	Badger map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`
}

// StoreConfig selects the file store.
type StoreConfig struct {
	Type       string         `mapstructure:"type" yaml:"type" validate:"required,oneof=memory filesystem s3"`
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem,omitempty"`
	S3         map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
}

// Load reads configuration from configPath (or the default location when
// empty), the environment and defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("PUBKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Environment variables only reach Unmarshal for keys viper knows about.
	for _, key := range []string{
		"logging.level", "logging.json", "logging.file",
		"application.time_zone",
		"publication.me", "publication.preset", "publication.slug_separator",
		"index.type", "store.type",
	} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(ConfigDir())
	v.AddConfigPath(".")
	v.SetConfigName("pubkit")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// ConfigDir is the per-user directory searched for pubkit.yaml.
func ConfigDir() string {
	dir, err := internal.ConfigDir("pubkit")
	if err != nil {
		return "."
	}
	return dir
}
