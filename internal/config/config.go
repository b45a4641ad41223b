// Package config holds the typed configuration surface for every kgxflow
// component: source (reader+transform+writer) configs, graph-operation
// configs, and the merge orchestrator config, plus the YAML loader that
// resolves !include tags and rejects duplicate keys.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings holds process-wide ambient settings: logging, default
// directories, and the few environment-driven knobs kgxflow exposes. This
// is distinct from a per-source SourceConfig or a MergeConfig, which are
// always loaded explicitly from a named YAML file.
type Settings struct {
	LogLevel     string `yaml:"log_level" mapstructure:"log_level"`
	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir"`
	CacheDir     string `yaml:"cache_dir" mapstructure:"cache_dir"`
	ProgressTick int    `yaml:"progress_tick_rows" mapstructure:"progress_tick_rows"`
}

// DefaultSettings returns sensible defaults, mirroring the teacher's
// Default()-then-Load() pattern: a literal struct first, then YAML/env
// overlays on top of it.
func DefaultSettings() *Settings {
	return &Settings{
		LogLevel:     "info",
		OutputDir:    "output",
		CacheDir:     filepath.Join(os.TempDir(), "kgxflow"),
		ProgressTick: 10000,
	}
}

// LoadSettings loads ambient Settings from an optional YAML file, then
// applies KGXFLOW_-prefixed environment variable overrides via viper and
// .env overlays via godotenv, exactly as the teacher's config.Load does for
// its own Config type.
func LoadSettings(path string) (*Settings, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := DefaultSettings()
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("output_dir", cfg.OutputDir)
	v.SetDefault("cache_dir", cfg.CacheDir)
	v.SetDefault("progress_tick_rows", cfg.ProgressTick)

	v.SetEnvPrefix("KGXFLOW")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kgxflow")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	return cfg, nil
}

func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

// ResolveRelative resolves path against base unless path is already
// absolute, matching §4.D "Resolves each path relative to a given base
// directory unless absolute."
func ResolveRelative(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
