// Package config loads the optional paramsrc.toml file.
//
//	log_level = "debug"
//	format    = "json"
//	database  = "$HOME/.paramsrc/history.db"
//	parallel  = 4
//
//	[sources]
//	base_dir          = "testdata"
//	default_delimiter = ";"
//
// Command-line flags override file values.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "paramsrc.toml"

// EnvVar names the environment variable that points at a config file.
const EnvVar = "PARAMSRC_CONFIG"

// Config holds the complete configuration.
type Config struct {
	LogLevel string        `toml:"log_level" validate:"oneof=debug info warn error"`
	Format   string        `toml:"format" validate:"oneof=text json"`
	Database string        `toml:"database"`
	Parallel int           `toml:"parallel" validate:"min=0"`
	Sources  SourcesConfig `toml:"sources"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

// SourcesConfig holds settings applied to argument sources.
type SourcesConfig struct {
	BaseDir          string `toml:"base_dir"`
	DefaultDelimiter string `toml:"default_delimiter" validate:"omitempty,len=1"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load reads a TOML file. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Resolve loads the config at path. With an empty path it tries
// $PARAMSRC_CONFIG, then ./paramsrc.toml, and falls back to Default.
func Resolve(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if env := os.Getenv(EnvVar); env != "" {
		return Load(env)
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return Load(DefaultFile)
	}
	return Default(), nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
}

func (c *Config) expandEnvVars() {
	c.Database = os.ExpandEnv(c.Database)
	c.Sources.BaseDir = os.ExpandEnv(c.Sources.BaseDir)
}

var validate = validator.New()

// Validate checks field values.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %v fails %s=%s", fe.Namespace(), fe.Value(), fe.Tag(), fe.Param()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Delimiter returns the default CSV delimiter, or zero for comma.
func (c *Config) Delimiter() rune {
	if c.Sources.DefaultDelimiter == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(c.Sources.DefaultDelimiter)
	return r
}
