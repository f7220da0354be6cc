// Package config loads pindown settings from a pindown.toml file, with
// sensible defaults when no file exists. Command-line flags override
// whatever the file says.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/pindown/pindown/pkg/errors"
)

// DefaultFileName is looked up in the working directory and in the
// user config directory when no --config flag is given.
const DefaultFileName = "pindown.toml"

// Config is the full pindown configuration.
type Config struct {
	Index   IndexConfig   `toml:"index"`
	Cache   CacheConfig   `toml:"cache"`
	Check   CheckConfig   `toml:"check"`
	History HistoryConfig `toml:"history"`
	Server  ServerConfig  `toml:"server"`
}

// IndexConfig sets default package indexes. Directives inside a manifest
// take precedence over these.
type IndexConfig struct {
	URL       string   `toml:"url"`        // primary index (default: pypi.org JSON API)
	ExtraURLs []string `toml:"extra_urls"` // additional PEP 503 indexes
}

// CacheConfig controls caching of index responses.
type CacheConfig struct {
	Dir       string   `toml:"dir"`        // file cache directory (default: user cache dir)
	TTL       duration `toml:"ttl"`        // response lifetime (default: 24h)
	RedisAddr string   `toml:"redis_addr"` // use Redis instead of files when set
	RedisDB   int      `toml:"redis_db"`
}

// CheckConfig tunes index lookups.
type CheckConfig struct {
	Workers int `toml:"workers"` // concurrent lookups (default: 8)
}

// HistoryConfig controls where check reports are kept.
type HistoryConfig struct {
	Dir      string `toml:"dir"`       // report directory (default: alongside the cache)
	MongoURI string `toml:"mongo_uri"` // use MongoDB instead of files when set
	MongoDB  string `toml:"mongo_db"`  // database name (default: pindown)
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"` // listen address (default: :8632)
}

// duration wraps time.Duration with TOML string parsing ("24h", "90m").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Cache:   CacheConfig{TTL: duration{24 * time.Hour}},
		Check:   CheckConfig{Workers: 8},
		History: HistoryConfig{MongoDB: "pindown"},
		Server:  ServerConfig{Addr: ":8632"},
	}
}

// Load reads the configuration file at path. An empty path searches the
// working directory and the user config directory and falls back to
// [Default] when neither has a pindown.toml.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = findFile()
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "reading config file")
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parsing %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Index.URL != "" {
		if err := errors.ValidateIndexURL(c.Index.URL); err != nil {
			return err
		}
	}
	for _, url := range c.Index.ExtraURLs {
		if err := errors.ValidateIndexURL(url); err != nil {
			return err
		}
	}
	if c.Check.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "check.workers must be positive")
	}
	return nil
}

// CacheTTL returns the configured cache lifetime.
func (c *Config) CacheTTL() time.Duration { return c.Cache.TTL.Duration }

func findFile() string {
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName
	}
	if dir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(dir, "pindown", DefaultFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
