// Package config loads tool configuration from TOML files.
//
// Configuration is optional: every field has a working default, and a
// missing config file is not an error. The default location is
// $XDG_CONFIG_HOME/scenograph/config.toml.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/psdltools/scenograph/pkg/errors"
)

// Cache backends.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Config is the full tool configuration.
type Config struct {
	Serve  ServeConfig  `toml:"serve"`
	Cache  CacheConfig  `toml:"cache"`
	Layout LayoutConfig `toml:"layout"`
}

// ServeConfig configures the HTTP server.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       duration `toml:"ttl"`
}

// LayoutConfig overrides the default layout geometry.
type LayoutConfig struct {
	Direction   string  `toml:"direction"`
	NodeWidth   float64 `toml:"node_width"`
	NodeHeight  float64 `toml:"node_height"`
	RankSpacing float64 `toml:"rank_spacing"`
	NodeSpacing float64 `toml:"node_spacing"`
}

// duration lets TTLs be written as "24h" in TOML.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// HasTTL reports whether the config file sets an explicit cache TTL.
// When it does, the single value replaces the per-stage defaults.
func (c CacheConfig) HasTTL() bool { return c.TTL != 0 }

// TTLOrDefault returns the configured cache TTL, or the default when unset.
func (c CacheConfig) TTLOrDefault() time.Duration {
	if c.TTL == 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.TTL)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Serve: ServeConfig{Addr: ":8080"},
		Cache: CacheConfig{Backend: CacheBackendFile},
	}
}

// DefaultPath returns the standard config file location,
// following XDG conventions.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "scenograph", "config.toml")
}

// Load reads configuration from the given path, merged over defaults.
// An empty path means the default location. A missing file returns the
// defaults without error; a malformed file is an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.Cache.Backend {
	case "", CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown cache backend %q", cfg.Cache.Backend)
	}
	switch cfg.Layout.Direction {
	case "", "TB", "LR":
	default:
		return errors.New(errors.ErrCodeInvalidDirection, "unknown layout direction %q", cfg.Layout.Direction)
	}
	return nil
}
