package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the wrapper around viper with extra helpers.
type Config struct {
	*viper.Viper

	sensitiveKeys map[string]struct{}
	searchByName  bool
}

// Option is a functional option for New.
type Option func(*Config) error

// New creates a Config instance. Use options to customize behavior.
// Example:
//
//	cfg, err := config.New(
//	  config.WithDefaults(config.Defaults()),
//	  config.WithFile("httpengine.yaml"),
//	  config.WithEnv("HTTPENGINE"),
//	  config.WithPFlags(flags, map[string]string{"engine.url": "url"}),
//	)
//
// A missing file found by name/path search is not an error; an explicit
// file given to WithFile must exist.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		Viper:         viper.New(),
		sensitiveKeys: map[string]struct{}{},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("config: applying option failed: %w", err)
		}
	}

	if err := cfg.readConfigIfPossible(); err != nil {
		return nil, fmt.Errorf("config: read config: %w", err)
	}
	return cfg, nil
}

func (c *Config) readConfigIfPossible() error {
	if !c.searchByName && c.ConfigFileUsed() == "" {
		return nil
	}
	err := c.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if c.searchByName && errors.As(err, &notFound) {
		return nil
	}
	return err
}

/* ---------------------------
   Options
----------------------------*/

// WithDefaults sets default values (applied first)
func WithDefaults(defaults map[string]any) Option {
	return func(c *Config) error {
		for k, v := range defaults {
			c.SetDefault(k, v)
		}
		return nil
	}
}

// WithFile sets an exact config file (absolute or relative).
// viper will use SetConfigFile(path) so the extension determines type.
func WithFile(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		c.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
			c.SetConfigType(ext)
		}
		return nil
	}
}

// WithConfigNamePaths sets config name (without ext) and search paths.
func WithConfigNamePaths(name string, paths ...string) Option {
	return func(c *Config) error {
		if name == "" {
			return nil
		}
		c.SetConfigName(name)
		if len(paths) == 0 {
			paths = []string{".", "$HOME/.config/httpengine", "/etc/httpengine"}
		}
		for _, p := range paths {
			c.AddConfigPath(p)
		}
		c.searchByName = true
		return nil
	}
}

// WithEnv enables environment variable overrides.
// prefix = "HTTPENGINE" means HTTPENGINE_ENGINE_URL will override engine.url.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		if prefix != "" {
			c.SetEnvPrefix(prefix)
		}
		c.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		c.AutomaticEnv()
		return nil
	}
}

// WithPFlags binds flags to config keys. keys maps a config key to a flag
// name; with nil keys every flag is bound under its own name. Flags only
// win when set on the command line.
func WithPFlags(flags *pflag.FlagSet, keys map[string]string) Option {
	return func(c *Config) error {
		if flags == nil {
			flags = pflag.CommandLine
		}
		if keys == nil {
			return c.BindPFlags(flags)
		}
		for key, name := range keys {
			f := flags.Lookup(name)
			if f == nil {
				return fmt.Errorf("unknown flag %q for key %q", name, key)
			}
			if err := c.BindPFlag(key, f); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithSensitiveKeys registers keys which should be redacted when printing/logging.
func WithSensitiveKeys(keys ...string) Option {
	return func(c *Config) error {
		for _, k := range keys {
			c.sensitiveKeys[strings.ToLower(k)] = struct{}{}
		}
		return nil
	}
}

/* ---------------------------
   Typed getters with defaults
----------------------------*/

// GetStringD returns string or def
func (c *Config) GetStringD(key, def string) string {
	if val := c.GetString(key); val != "" {
		return val
	}
	return def
}

// GetIntD returns int or def
func (c *Config) GetIntD(key string, def int) int {
	if c.IsSet(key) {
		return c.GetInt(key)
	}
	return def
}

// GetDurationD returns time.Duration or def
func (c *Config) GetDurationD(key string, def time.Duration) time.Duration {
	if c.IsSet(key) {
		return c.GetDuration(key)
	}
	return def
}

/* ---------------------------
   Validation & Utilities
----------------------------*/

// ValidateRequired ensures keys exist and are non-empty.
func (c *Config) ValidateRequired(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if !c.IsSet(k) || c.GetString(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required keys: %v", strings.Join(missing, ", "))
	}
	return nil
}

// MaskedSettings returns every effective key (dot-flattened) with sensitive
// values redacted. Empty sensitive values stay empty.
func (c *Config) MaskedSettings() map[string]any {
	keys := c.AllKeys()
	sort.Strings(keys)
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		v := c.Get(k)
		if _, ok := c.sensitiveKeys[k]; ok && c.GetString(k) != "" {
			v = "***REDACTED***"
		}
		out[k] = v
	}
	return out
}
