package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config holds the pipesh configuration. Every field has a default, so the
// file is optional.
type Config struct {
	Prompt   string        `yaml:"prompt"`
	Readline string        `yaml:"readline" validate:"oneof=auto always never"`
	History  HistoryConfig `yaml:"history"`
	Log      LogConfig     `yaml:"log"`
}

// HistoryConfig controls the log of executed pipelines.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
	// MaxEntries is how many past lines are offered for recall at startup.
	MaxEntries int `yaml:"max_entries" validate:"gte=0"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
	// Output is stderr, stdout, discard or a file path.
	Output string `yaml:"output" validate:"required"`
}

// Readline modes.
const (
	ReadlineAuto   = "auto"   // use readline when stdin and stdout are terminals
	ReadlineAlways = "always" // always use readline
	ReadlineNever  = "never"  // always read plain lines
)

// DefaultPrompt is written before every line read.
const DefaultPrompt = "> "

// DefaultConfig returns the default configuration. History is off when the
// home directory is unknown.
func DefaultConfig() *Config {
	history := HistoryConfig{MaxEntries: 500}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		history.Enabled = true
		history.Path = filepath.Join(home, ".local", "share", "pipesh", "history.jsonl")
	}
	return &Config{
		Prompt:   DefaultPrompt,
		Readline: ReadlineAuto,
		History:  history,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads the config from the standard location
// (~/.config/pipesh/config.yaml). If the file doesn't exist, returns the
// default config.
func Load(fsys afero.Fs) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(fsys, filepath.Join(home, ".config", "pipesh", "config.yaml"))
}

// LoadFrom reads the config from the given path.
func LoadFrom(fsys afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// cd moves the process, so a relative history path is pinned to where
	// pipesh started.
	if cfg.History.Path != "" {
		abs, err := filepath.Abs(expandHome(cfg.History.Path))
		if err != nil {
			return nil, fmt.Errorf("resolve history path: %w", err)
		}
		cfg.History.Path = abs
	}
	if cfg.Log.Output != "" {
		cfg.Log.Output = expandHome(cfg.Log.Output)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values pipesh cannot use.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})
	return validate.Struct(c)
}

func expandHome(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}
