// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for frenzy.
type Config struct {
	Port               int               `mapstructure:"port" yaml:"port"`
	DataDir            string            `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel           string            `mapstructure:"log_level" yaml:"log_level"`
	LogFile            string            `mapstructure:"log_file" yaml:"log_file"`
	SlackToken         string            `mapstructure:"slack_token" yaml:"slack_token"`
	HeartbeatInterval  int               `mapstructure:"heartbeat_interval" yaml:"heartbeat_interval"` // seconds
	NpkAPIURL          string            `mapstructure:"npk_api_url" yaml:"npk_api_url"`
	NpkAPIToken        string            `mapstructure:"npk_api_token" yaml:"npk_api_token"`
	Region             string            `mapstructure:"region" yaml:"region"`
	UserdataBucket     string            `mapstructure:"userdata_bucket" yaml:"userdata_bucket"`
	DictionaryBuckets  map[string]string `mapstructure:"dictionary_buckets" yaml:"dictionary_buckets"`
}

// Load loads configuration with full precedence:
// ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("frenzy")

	// Defaults (slack_token has no default - it's required for serve)
	v.SetDefault("port", 3000)
	v.SetDefault("data_dir", ".frenzy")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("heartbeat_interval", 300)
	v.SetDefault("npk_api_url", "")
	v.SetDefault("npk_api_token", "")
	v.SetDefault("region", "us-west-2")
	v.SetDefault("userdata_bucket", "")

	// Setup ENV binding with FRENZY_ prefix
	v.SetEnvPrefix("FRENZY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings for better bool/int parsing
	for key, env := range map[string]string{
		"port":               "FRENZY_PORT",
		"data_dir":           "FRENZY_DATA_DIR",
		"log_level":          "FRENZY_LOG_LEVEL",
		"log_file":           "FRENZY_LOG_FILE",
		"slack_token":        "FRENZY_SLACK_TOKEN",
		"heartbeat_interval": "FRENZY_HEARTBEAT_INTERVAL",
		"npk_api_url":        "FRENZY_NPK_API_URL",
		"npk_api_token":      "FRENZY_NPK_API_TOKEN",
		"region":             "FRENZY_REGION",
		"userdata_bucket":    "FRENZY_USERDATA_BUCKET",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/frenzy/frenzy.yml or $XDG_CONFIG_HOME/frenzy/frenzy.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "frenzy", "frenzy.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "frenzy", "frenzy.yml")
}

// ProjectPath returns the project-local config path.
// Returns ./frenzy.yml in the current working directory.
func ProjectPath() string {
	return "frenzy.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(ProjectPath(), data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
